// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/medicode/coding-audit-mcp/internal/evidence"
)

// MetadataHighlightEvidence describes the highlight_evidence tool.
var MetadataHighlightEvidence = &mcp.Tool{
	Name: "highlight_evidence",
	Description: "Split a note into spans, marking every case-insensitive occurrence of an evidence phrase. " +
		"The phrase is matched literally; the first match is marked active. " +
		"When note is omitted the session's note is used.",
	InputSchema: objectSchema([]string{"phrase"}, map[string]interface{}{
		"phrase": stringProperty("Evidence text to highlight."),
		"note":   stringProperty("Note text. Defaults to the session's note."),
	}),
}

// InputHighlightEvidence is the input for the HighlightEvidence tool.
type InputHighlightEvidence struct {
	Phrase string `json:"phrase"`
	Note   string `json:"note"`
}

// OutputHighlight is the segmented note returned by highlight_evidence and focus_code.
type OutputHighlight struct {
	Spans   []evidence.Span `json:"spans"`
	Matches int             `json:"matches"`
	// Location is set when at least one span matches.
	Location *evidence.Location `json:"location,omitempty"`
}

// HighlightEvidence segments a note on an evidence phrase without touching session state.
func (h *Handlers) HighlightEvidence(_ context.Context, _ *mcp.CallToolRequest, input InputHighlightEvidence) (*mcp.CallToolResult, OutputHighlight, error) {
	note := input.Note
	if note == "" {
		note = h.session.Snapshot().Note
	}
	out := OutputHighlight{Spans: evidence.Segment(note, input.Phrase)}
	out.Matches = evidence.Matches(out.Spans)
	if loc, ok := evidence.Locate(note, input.Phrase); ok {
		out.Location = &loc
	}
	return nil, out, nil
}

// MetadataFocusCode describes the focus_code tool.
var MetadataFocusCode = &mcp.Tool{
	Name: "focus_code",
	Description: "Focus a code of the current analysis and highlight its evidence in the note. " +
		"An empty code_id clears the focus.",
	InputSchema: objectSchema(nil, map[string]interface{}{
		"code_id": stringProperty("Session id of the code, as returned by ingest_analysis."),
	}),
}

// InputFocusCode is the input for the FocusCode tool.
type InputFocusCode struct {
	CodeID string `json:"code_id"`
}

// FocusCode marks a code as focused and returns the note highlighted on its evidence.
func (h *Handlers) FocusCode(_ context.Context, _ *mcp.CallToolRequest, input InputFocusCode) (*mcp.CallToolResult, OutputHighlight, error) {
	spans, err := h.session.Focus(input.CodeID)
	if err != nil {
		return nil, OutputHighlight{}, err
	}
	out := OutputHighlight{Spans: spans, Matches: evidence.Matches(spans)}
	if input.CodeID != "" {
		loc, ok, err := h.session.Locate(input.CodeID)
		if err != nil {
			return nil, OutputHighlight{}, err
		}
		if ok {
			out.Location = &loc
		}
	}
	return nil, out, nil
}
