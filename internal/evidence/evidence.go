// SPDX-License-Identifier: Apache-2.0

// Package evidence locates the note text a classifier cited for a code and
// splits the note into highlighted and plain spans for display.
package evidence

// Span is one contiguous piece of a segmented note.
type Span struct {
	Text    string `json:"text"`
	IsMatch bool   `json:"is_match"`
	// Active marks the first match, the one a viewer should scroll into view.
	Active bool `json:"active,omitempty"`
}

// Section is a headed region of a clinical note, as byte offsets [Start, End).
type Section struct {
	Heading string `json:"heading"`
	Start   int    `json:"start"`
	End     int    `json:"end"`
}

// Location describes where the active match of an evidence phrase sits in a note.
type Location struct {
	Start       int    `json:"start"`
	End         int    `json:"end"`
	Line        int    `json:"line"`
	Section     string `json:"section"`
	Occurrences int    `json:"occurrences"`
}
