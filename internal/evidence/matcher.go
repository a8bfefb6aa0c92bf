// SPDX-License-Identifier: Apache-2.0

package evidence

import (
	"regexp"
	"strings"
)

// Segment splits note on every case-insensitive occurrence of phrase, treated
// as literal text. Matches are kept as their own spans, left to right and
// non-overlapping; the first one is Active. A blank phrase or one that does
// not occur yields the whole note as a single plain span. Concatenating the
// spans always reproduces note.
func Segment(note, phrase string) []Span {
	locs := matchIndexes(note, phrase)
	if len(locs) == 0 {
		return []Span{{Text: note}}
	}

	spans := make([]Span, 0, 2*len(locs)+1)
	activeSet := false
	last := 0
	appendSpan := func(text string) {
		if text == "" {
			return
		}
		span := Span{Text: text, IsMatch: strings.EqualFold(text, phrase)}
		if span.IsMatch && !activeSet {
			span.Active = true
			activeSet = true
		}
		spans = append(spans, span)
	}

	for _, loc := range locs {
		appendSpan(note[last:loc[0]])
		appendSpan(note[loc[0]:loc[1]])
		last = loc[1]
	}
	appendSpan(note[last:])
	return spans
}

// Matches counts the matching spans.
func Matches(spans []Span) int {
	n := 0
	for _, s := range spans {
		if s.IsMatch {
			n++
		}
	}
	return n
}

func matchIndexes(note, phrase string) [][]int {
	if strings.TrimSpace(phrase) == "" || note == "" {
		return nil
	}
	// QuoteMeta keeps invalid UTF-8 bytes, which RE2 refuses to compile.
	re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(phrase))
	if err != nil {
		return nil
	}
	return re.FindAllStringIndex(note, -1)
}
