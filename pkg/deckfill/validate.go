package deckfill

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const validationParserVersion = "v1"

// IssueSeverity indicates lint issue severity.
type IssueSeverity string

const (
	IssueSeverityError   IssueSeverity = "error"
	IssueSeverityWarning IssueSeverity = "warning"
)

// DeckIssueCode contains syntax-level issue codes emitted by the deck linter.
type DeckIssueCode string

const (
	// IssueCodeUnclosedToken flags a {{ opener with no }} before the end of
	// the paragraph line it started on.
	IssueCodeUnclosedToken DeckIssueCode = "UNCLOSED_TOKEN"
	// IssueCodeEmptyKey flags a placeholder whose key trims to nothing.
	IssueCodeEmptyKey DeckIssueCode = "EMPTY_KEY"
)

// ValidateDeckSyntaxInput controls syntax validation behavior.
type ValidateDeckSyntaxInput struct {
	DeckBytes          []byte `json:"-"`
	TemplateRevisionID string `json:"templateRevisionId,omitempty"`
	MaxIssues          int    `json:"maxIssues,omitempty"` // 0 = unlimited
}

// ExtractPlaceholdersInput controls placeholder extraction behavior.
type ExtractPlaceholdersInput struct {
	DeckBytes          []byte `json:"-"`
	TemplateRevisionID string `json:"templateRevisionId,omitempty"`
}

// DeckLocation identifies a token location in a slide part. Character
// offsets are rune positions within the paragraph's concatenated run text.
type DeckLocation struct {
	Part           string `json:"part"`
	SlideIndex     int    `json:"slideIndex"`
	ParagraphIndex int    `json:"paragraphIndex"`
	RunIndex       int    `json:"runIndex"`
	CharStart      int    `json:"charStart"`
	CharEnd        int    `json:"charEnd"`
	TokenOrdinal   int    `json:"tokenOrdinal"`
	AnchorID       string `json:"anchorId,omitempty"`
}

// PlaceholderRef references one placeholder found in a deck.
type PlaceholderRef struct {
	Raw      string       `json:"raw"`
	Key      string       `json:"key"`
	Location DeckLocation `json:"location"`
}

// DeckValidationIssue is a lint finding for one placeholder token.
type DeckValidationIssue struct {
	ID       string         `json:"id"`
	Severity IssueSeverity  `json:"severity"`
	Code     DeckIssueCode  `json:"code"`
	Message  string         `json:"message"`
	Token    PlaceholderRef `json:"token"`
	Location DeckLocation   `json:"location"`
}

// DeckValidationSummary contains validation counters.
type DeckValidationSummary struct {
	CheckedTokens      int `json:"checkedTokens"`
	ErrorCount         int `json:"errorCount"`
	WarningCount       int `json:"warningCount"`
	ReturnedIssueCount int `json:"returnedIssueCount"`
}

// DeckMetadata identifies linter metadata and request passthrough fields.
type DeckMetadata struct {
	DocumentHash       string `json:"documentHash"`
	TemplateRevisionID string `json:"templateRevisionId,omitempty"`
	ParserVersion      string `json:"parserVersion"`
}

// ValidateDeckSyntaxResult contains syntax validation output.
type ValidateDeckSyntaxResult struct {
	Valid           bool                  `json:"valid"`
	Summary         DeckValidationSummary `json:"summary"`
	Issues          []DeckValidationIssue `json:"issues"`
	IssuesTruncated bool                  `json:"issuesTruncated"`
	Metadata        DeckMetadata          `json:"metadata"`
}

// ExtractPlaceholdersResult contains the placeholders found in a deck.
type ExtractPlaceholdersResult struct {
	Placeholders []PlaceholderRef `json:"placeholders"`
	Metadata     DeckMetadata     `json:"metadata"`
}

// ValidateDeckSyntax lints placeholder syntax across every slide of a deck.
// Unclosed {{ openers are errors; empty keys are warnings. A deck is valid
// when it has no errors.
func ValidateDeckSyntax(input ValidateDeckSyntaxInput) (ValidateDeckSyntaxResult, error) {
	if len(input.DeckBytes) == 0 {
		return ValidateDeckSyntaxResult{}, fmt.Errorf("deck bytes are required")
	}
	if input.MaxIssues < 0 {
		return ValidateDeckSyntaxResult{}, fmt.Errorf("maxIssues must be >= 0")
	}

	spans, err := scanDeckTokenSpans(input.DeckBytes)
	if err != nil {
		return ValidateDeckSyntaxResult{}, err
	}

	issues := lintTokenSpans(spans)
	sortDeckIssues(issues)
	for i := range issues {
		issues[i].ID = fmt.Sprintf("iss_%03d", i+1)
	}

	errorCount := 0
	warningCount := 0
	for _, issue := range issues {
		if issue.Severity == IssueSeverityError {
			errorCount++
		} else {
			warningCount++
		}
	}

	returnedIssues := issues
	issuesTruncated := false
	if input.MaxIssues > 0 && len(issues) > input.MaxIssues {
		returnedIssues = issues[:input.MaxIssues]
		issuesTruncated = true
	}

	return ValidateDeckSyntaxResult{
		Valid: errorCount == 0,
		Summary: DeckValidationSummary{
			CheckedTokens:      len(spans),
			ErrorCount:         errorCount,
			WarningCount:       warningCount,
			ReturnedIssueCount: len(returnedIssues),
		},
		Issues:          returnedIssues,
		IssuesTruncated: issuesTruncated,
		Metadata:        newDeckMetadata(input.DeckBytes, input.TemplateRevisionID),
	}, nil
}

// ExtractPlaceholders lists every well-formed placeholder in a deck in
// slide, paragraph, and character order.
func ExtractPlaceholders(input ExtractPlaceholdersInput) (ExtractPlaceholdersResult, error) {
	if len(input.DeckBytes) == 0 {
		return ExtractPlaceholdersResult{}, fmt.Errorf("deck bytes are required")
	}

	spans, err := scanDeckTokenSpans(input.DeckBytes)
	if err != nil {
		return ExtractPlaceholdersResult{}, err
	}

	placeholders := make([]PlaceholderRef, 0, len(spans))
	for _, span := range spans {
		if span.Malformed || span.Key == "" {
			continue
		}
		placeholders = append(placeholders, PlaceholderRef{
			Raw:      span.Raw,
			Key:      span.Key,
			Location: locationFromSpan(span),
		})
	}
	sortPlaceholderRefs(placeholders)

	return ExtractPlaceholdersResult{
		Placeholders: placeholders,
		Metadata:     newDeckMetadata(input.DeckBytes, input.TemplateRevisionID),
	}, nil
}

type tokenSpan struct {
	Part             string
	SlideIndex       int
	ParagraphIndex   int
	RunIndex         int
	CharStart        int
	CharEnd          int
	Raw              string
	Key              string
	TokenOrdinal     int
	AnchorID         string
	Malformed        bool
	MalformedMessage string
}

type scanChar struct {
	Rune     rune
	RunIndex int
	Offset   int
}

func scanDeckTokenSpans(deckBytes []byte) ([]tokenSpan, error) {
	reader, err := NewPptxReader(bytes.NewReader(deckBytes), int64(len(deckBytes)))
	if err != nil {
		return nil, fmt.Errorf("failed to open deck: %w", err)
	}

	partNames, err := reader.SlideParts()
	if err != nil {
		return nil, fmt.Errorf("failed to order slides: %w", err)
	}

	spans := make([]tokenSpan, 0, 32)
	ordinal := 0

	for slideIndex, partName := range partNames {
		content, err := reader.GetPart(partName)
		if err != nil {
			return nil, fmt.Errorf("failed to read slide part %s: %w", partName, err)
		}

		slide, err := ScanSlide(partName, content)
		if err != nil {
			return nil, fmt.Errorf("failed to scan slide part %s: %w", partName, err)
		}

		for paragraphIndex, paragraph := range slide.Paragraphs {
			paragraphSpans := scanParagraphTokenSpans(partName, slideIndex, paragraphIndex, paragraph, ordinal)
			spans = append(spans, paragraphSpans...)
			ordinal += len(paragraphSpans)
		}
	}

	return spans, nil
}

// scanParagraphTokenSpans walks the paragraph's flattened run text looking
// for {{...}} pairs. A token abandoned by a newline or by the end of the
// paragraph is reported as malformed. Openers inside an open token are
// swallowed, matching how the non-greedy resolver pattern consumes them.
func scanParagraphTokenSpans(partName string, slideIndex, paragraphIndex int, paragraph *Paragraph, startOrdinal int) []tokenSpan {
	chars := flattenScanChars(paragraph)
	if len(chars) == 0 {
		return nil
	}

	spans := make([]tokenSpan, 0)
	inToken := false
	tokenStart := 0
	ordinal := startOrdinal

	for i := 0; i < len(chars); {
		if !inToken {
			if hasPair(chars, i, '{', '{') {
				inToken = true
				tokenStart = i
				i += 2
				continue
			}
			i++
			continue
		}

		if chars[i].Rune == '\n' {
			spans = append(spans, newTokenSpanFromRange(partName, slideIndex, paragraphIndex, chars, tokenStart, i-1, ordinal, true, "placeholder interrupted by line break"))
			ordinal++
			inToken = false
			i++
			continue
		}

		if hasPair(chars, i, '}', '}') {
			spans = append(spans, newTokenSpanFromRange(partName, slideIndex, paragraphIndex, chars, tokenStart, i+1, ordinal, false, ""))
			ordinal++
			inToken = false
			i += 2
			continue
		}

		i++
	}

	if inToken {
		spans = append(spans, newTokenSpanFromRange(partName, slideIndex, paragraphIndex, chars, tokenStart, len(chars)-1, ordinal, true, "unclosed placeholder token"))
	}

	return spans
}

func hasPair(chars []scanChar, idx int, first, second rune) bool {
	return idx+1 < len(chars) && chars[idx].Rune == first && chars[idx+1].Rune == second
}

func flattenScanChars(paragraph *Paragraph) []scanChar {
	chars := make([]scanChar, 0)
	offset := 0

	for runIndex, run := range paragraph.Runs {
		for _, r := range run.Text() {
			chars = append(chars, scanChar{
				Rune:     r,
				RunIndex: runIndex,
				Offset:   offset,
			})
			offset++
		}
	}

	return chars
}

func newTokenSpanFromRange(
	partName string,
	slideIndex int,
	paragraphIndex int,
	chars []scanChar,
	startIndex int,
	endIndex int,
	ordinal int,
	malformed bool,
	malformedMessage string,
) tokenSpan {
	start := chars[startIndex]
	end := chars[endIndex]

	runes := make([]rune, 0, endIndex-startIndex+1)
	for i := startIndex; i <= endIndex; i++ {
		runes = append(runes, chars[i].Rune)
	}
	raw := string(runes)

	key := ""
	if strings.HasPrefix(raw, "{{") && strings.HasSuffix(raw, "}}") && len(raw) >= 4 {
		key = strings.TrimSpace(raw[2 : len(raw)-2])
	}

	span := tokenSpan{
		Part:             partName,
		SlideIndex:       slideIndex,
		ParagraphIndex:   paragraphIndex,
		RunIndex:         start.RunIndex,
		CharStart:        start.Offset,
		CharEnd:          end.Offset + 1,
		Raw:              raw,
		Key:              key,
		TokenOrdinal:     ordinal,
		Malformed:        malformed,
		MalformedMessage: malformedMessage,
	}
	span.AnchorID = buildAnchorID(span)

	return span
}

func buildAnchorID(span tokenSpan) string {
	seed := strings.Join([]string{
		span.Part,
		strconv.Itoa(span.ParagraphIndex),
		strconv.Itoa(span.CharStart),
		strconv.Itoa(span.CharEnd),
		span.Raw,
	}, "|")

	sum := sha256.Sum256([]byte(seed))
	return "anchor_" + hex.EncodeToString(sum[:8])
}

func lintTokenSpans(spans []tokenSpan) []DeckValidationIssue {
	issues := make([]DeckValidationIssue, 0)

	appendIssue := func(severity IssueSeverity, code DeckIssueCode, message string, span tokenSpan) {
		issues = append(issues, DeckValidationIssue{
			Severity: severity,
			Code:     code,
			Message:  message,
			Token: PlaceholderRef{
				Raw:      span.Raw,
				Key:      span.Key,
				Location: locationFromSpan(span),
			},
			Location: locationFromSpan(span),
		})
	}

	for _, span := range spans {
		if span.Malformed {
			appendIssue(IssueSeverityError, IssueCodeUnclosedToken, span.MalformedMessage, span)
			continue
		}
		if span.Key == "" {
			appendIssue(IssueSeverityWarning, IssueCodeEmptyKey, "placeholder has an empty key", span)
		}
	}

	return issues
}

func locationFromSpan(span tokenSpan) DeckLocation {
	return DeckLocation{
		Part:           span.Part,
		SlideIndex:     span.SlideIndex,
		ParagraphIndex: span.ParagraphIndex,
		RunIndex:       span.RunIndex,
		CharStart:      span.CharStart,
		CharEnd:        span.CharEnd,
		TokenOrdinal:   span.TokenOrdinal,
		AnchorID:       span.AnchorID,
	}
}

func newDeckMetadata(deckBytes []byte, templateRevisionID string) DeckMetadata {
	sum := sha256.Sum256(deckBytes)
	return DeckMetadata{
		DocumentHash:       "sha256:" + hex.EncodeToString(sum[:]),
		TemplateRevisionID: templateRevisionID,
		ParserVersion:      validationParserVersion,
	}
}

func sortDeckIssues(issues []DeckValidationIssue) {
	sort.SliceStable(issues, func(i, j int) bool {
		left := issues[i]
		right := issues[j]

		if left.Location.TokenOrdinal != right.Location.TokenOrdinal {
			return left.Location.TokenOrdinal < right.Location.TokenOrdinal
		}
		if left.Location.Part != right.Location.Part {
			return left.Location.Part < right.Location.Part
		}
		if left.Location.CharStart != right.Location.CharStart {
			return left.Location.CharStart < right.Location.CharStart
		}
		if left.Code != right.Code {
			return left.Code < right.Code
		}
		return left.Message < right.Message
	})
}

func sortPlaceholderRefs(refs []PlaceholderRef) {
	sort.SliceStable(refs, func(i, j int) bool {
		left := refs[i]
		right := refs[j]

		if left.Location.TokenOrdinal != right.Location.TokenOrdinal {
			return left.Location.TokenOrdinal < right.Location.TokenOrdinal
		}
		if left.Location.Part != right.Location.Part {
			return left.Location.Part < right.Location.Part
		}
		if left.Location.CharStart != right.Location.CharStart {
			return left.Location.CharStart < right.Location.CharStart
		}
		if left.Key != right.Key {
			return left.Key < right.Key
		}
		return left.Raw < right.Raw
	})
}
