package deckfill

import (
	"math"
	"strings"
	"unicode/utf8"
)

// runSlot is the half-open rune span [start, start+length) that one run
// occupies within a paragraph's concatenated text. Slots partition the
// concatenation contiguously, in run order.
type runSlot struct {
	start  int
	length int
}

func (s runSlot) end() int {
	return s.start + s.length
}

func buildSlots(texts []string) []runSlot {
	slots := make([]runSlot, len(texts))
	offset := 0
	for i, text := range texts {
		length := utf8.RuneCountInString(text)
		slots[i] = runSlot{start: offset, length: length}
		offset += length
	}
	return slots
}

// ReflowTexts renders the placeholders spread across texts and re-partitions
// the result along the original fragment boundaries. It returns the new text
// for each fragment plus the resolved occurrences.
//
// When the concatenated text contains no placeholder, texts is returned
// unchanged (same slice, identical contents). Otherwise the concatenation of
// the returned texts equals exactly what Resolve produces for the
// concatenated input: gap text is copied verbatim into the fragments it fell
// in, and each placeholder value is distributed across the fragments its
// token overlapped, proportionally to the overlap.
func ReflowTexts(texts []string, context Context) ([]string, []Occurrence) {
	source := strings.Join(texts, "")
	_, occurrences := Resolve(source, context)
	if len(occurrences) == 0 {
		return texts, nil
	}

	slots := buildSlots(texts)
	sourceRunes := []rune(source)
	accumulated := make([][]rune, len(texts))

	cursor := 0
	for _, occ := range occurrences {
		copyGap(accumulated, slots, sourceRunes, cursor, occ.OriginalStart)
		distributeValue(accumulated, slots, occ)
		cursor = occ.OriginalEnd()
	}
	copyGap(accumulated, slots, sourceRunes, cursor, len(sourceRunes))

	result := make([]string, len(texts))
	for i, runes := range accumulated {
		result[i] = string(runes)
	}
	return result, occurrences
}

// ReflowRuns applies ReflowTexts to a paragraph's runs in place. Runs whose
// share of the rendered text is empty keep their (now empty) text; the run
// itself is never removed, so its styling survives. Style is neither read
// nor altered here.
func ReflowRuns(runs []*Run, context Context) []Occurrence {
	if len(runs) == 0 {
		return nil
	}

	texts := make([]string, len(runs))
	for i, run := range runs {
		texts[i] = run.Text()
	}

	newTexts, occurrences := ReflowTexts(texts, context)
	if len(occurrences) == 0 {
		return nil
	}

	for i, run := range runs {
		run.SetText(newTexts[i])
	}
	return occurrences
}

// copyGap copies the source span [start, end) into the slots it physically
// falls within. Gap text never needs redistribution: its characters map 1:1
// onto the underlying slots.
func copyGap(accumulated [][]rune, slots []runSlot, source []rune, start, end int) {
	current := start
	for current < end {
		advanced := false
		for i, slot := range slots {
			if slot.end() > current && current >= slot.start {
				remaining := end - current
				if room := slot.end() - current; room < remaining {
					remaining = room
				}
				accumulated[i] = append(accumulated[i], source[current:current+remaining]...)
				current += remaining
				advanced = true
				break
			}
		}
		if !advanced {
			return
		}
	}
}

// distributeValue spreads one occurrence's rendered value across the slots
// its original span overlaps, in slot order, proportionally to each overlap.
// Every slot but the last overlapping one takes round(overlap/total × value
// length) runes from the next unallocated prefix of the value; the last slot
// takes the whole remainder, so the full value is placed exactly once no
// matter how the rounding falls.
func distributeValue(accumulated [][]rune, slots []runSlot, occ Occurrence) {
	value := []rune(occ.Value)
	origStart := occ.OriginalStart
	origEnd := occ.OriginalEnd()

	type coveredSlot struct {
		index   int
		overlap int
	}
	var covered []coveredSlot
	total := 0
	for i, slot := range slots {
		if slot.end() > origStart && slot.start < origEnd {
			hi := slot.end()
			if origEnd < hi {
				hi = origEnd
			}
			lo := slot.start
			if origStart > lo {
				lo = origStart
			}
			covered = append(covered, coveredSlot{index: i, overlap: hi - lo})
			total += hi - lo
		}
	}
	// An occurrence that overlaps no slot cannot happen when slots partition
	// the source, but a skip beats a panic.
	if len(covered) == 0 || total == 0 {
		return
	}

	allocated := 0
	for k, cov := range covered {
		var take int
		if k == len(covered)-1 {
			take = len(value) - allocated
		} else {
			ratio := float64(cov.overlap) / float64(total)
			take = int(math.RoundToEven(ratio * float64(len(value))))
			if remaining := len(value) - allocated; take > remaining {
				take = remaining
			}
		}
		accumulated[cov.index] = append(accumulated[cov.index], value[allocated:allocated+take]...)
		allocated += take
	}
}
