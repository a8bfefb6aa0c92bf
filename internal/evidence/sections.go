// SPDX-License-Identifier: Apache-2.0

package evidence

import (
	"regexp"
	"strings"
)

const preamble = "preamble"

// labelHeading matches note section labels such as "Chief Complaint:" or "Assessment/Plan:".
var labelHeading = regexp.MustCompile(`^([A-Z][A-Za-z/&() -]{0,38}[A-Za-z)]):(\s|$)`)

// Sections splits a clinical note on heading lines: markdown headings
// ("# Assessment") or label lines ("Assessment:"). Text before the first
// heading is reported as the "preamble" section when it is not blank.
// Sections are contiguous and cover the whole note.
func Sections(note string) []Section {
	var sections []Section
	var current *Section

	offset := 0
	for _, line := range strings.SplitAfter(note, "\n") {
		if heading, ok := headingOf(line); ok {
			if current != nil {
				current.End = offset
				sections = append(sections, *current)
			} else if strings.TrimSpace(note[:offset]) != "" {
				sections = append(sections, Section{Heading: preamble, Start: 0, End: offset})
			}
			current = &Section{Heading: heading, Start: offset}
		}
		offset += len(line)
	}

	if current != nil {
		current.End = len(note)
		sections = append(sections, *current)
	} else if strings.TrimSpace(note) != "" {
		sections = append(sections, Section{Heading: preamble, Start: 0, End: len(note)})
	}
	return sections
}

func headingOf(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "#") {
		heading := strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
		return heading, heading != ""
	}
	if m := labelHeading.FindStringSubmatch(trimmed); m != nil {
		return strings.TrimSpace(m[1]), true
	}
	return "", false
}

// Locate reports where the active match of phrase sits in note: byte offsets,
// 1-based line and the heading of the enclosing section. It reports false
// when Segment would highlight nothing.
func Locate(note, phrase string) (Location, bool) {
	locs := matchIndexes(note, phrase)
	if len(locs) == 0 {
		return Location{}, false
	}

	start, end := locs[0][0], locs[0][1]
	loc := Location{
		Start:       start,
		End:         end,
		Line:        strings.Count(note[:start], "\n") + 1,
		Occurrences: len(locs),
	}
	for _, s := range Sections(note) {
		if start >= s.Start && start < s.End {
			loc.Section = s.Heading
			break
		}
	}
	return loc, true
}
