package deckfill

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// placeholderPattern matches one {{key}} token. The content match is
// non-greedy, so the first "}}" closes a token, and it requires at least one
// character, so "{{}}" stays literal text.
var placeholderPattern = regexp.MustCompile(`\{\{(.+?)\}\}`)

// Occurrence records one resolved placeholder: the span it occupied in the
// source text, the span its value occupies in the rendered text, and the
// value itself. All offsets and lengths count runes, not bytes.
type Occurrence struct {
	Key            string
	Value          string
	OriginalStart  int
	OriginalLength int
	RenderedStart  int
	RenderedLength int
}

// OriginalEnd returns the exclusive end of the occurrence's source span.
func (o Occurrence) OriginalEnd() int {
	return o.OriginalStart + o.OriginalLength
}

// Resolve replaces every {{key}} token in text with its context value and
// returns the rendered text together with the occurrences in order of
// appearance. Keys are trimmed of surrounding whitespace before lookup, and
// missing keys resolve to the empty string.
//
// Resolve is a pure function: it has no side effects, and when text contains
// no placeholders it returns text unchanged with a nil occurrence list.
func Resolve(text string, context Context) (string, []Occurrence) {
	matches := placeholderPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text, nil
	}

	var rendered strings.Builder
	rendered.Grow(len(text))

	occurrences := make([]Occurrence, 0, len(matches))
	byteCursor := 0  // byte offset of the first uncopied source character
	runeCursor := 0  // rune offset matching byteCursor
	renderedLen := 0 // rune length of the rendered text so far

	for _, m := range matches {
		gap := text[byteCursor:m[0]]
		rendered.WriteString(gap)

		gapLen := utf8.RuneCountInString(gap)
		renderedLen += gapLen

		key := strings.TrimSpace(text[m[2]:m[3]])
		value := context.Lookup(key)
		valueLen := utf8.RuneCountInString(value)

		occurrences = append(occurrences, Occurrence{
			Key:            key,
			Value:          value,
			OriginalStart:  runeCursor + gapLen,
			OriginalLength: utf8.RuneCountInString(text[m[0]:m[1]]),
			RenderedStart:  renderedLen,
			RenderedLength: valueLen,
		})

		rendered.WriteString(value)
		renderedLen += valueLen

		runeCursor += gapLen + utf8.RuneCountInString(text[m[0]:m[1]])
		byteCursor = m[1]
	}

	rendered.WriteString(text[byteCursor:])
	return rendered.String(), occurrences
}

// FindPlaceholders returns the raw {{...}} tokens in text, in order.
func FindPlaceholders(text string) []string {
	matches := placeholderPattern.FindAllString(text, -1)
	if matches == nil {
		return []string{}
	}
	return matches
}
