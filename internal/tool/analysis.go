// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/medicode/coding-audit-mcp/internal/coding"
)

// MetadataLoadNote describes the load_note tool.
var MetadataLoadNote = &mcp.Tool{
	Name: "load_note",
	Description: "Load the clinical note under review, either as text or from a plain text (.txt) file. " +
		"Loading a different note discards the current analysis and its audit trail.",
	InputSchema: objectSchema(nil, map[string]interface{}{
		"text": stringProperty("Full text of the clinical note."),
		"path": stringProperty("Path to a .txt file holding the note. Used when text is empty."),
	}),
}

// InputLoadNote is the input for the LoadNote tool.
type InputLoadNote struct {
	Text string `json:"text"`
	Path string `json:"path"`
}

// OutputLoadNote is the output for the LoadNote tool.
type OutputLoadNote struct {
	Characters int `json:"characters"`
	Lines      int `json:"lines"`
}

// LoadNote replaces the session's clinical note.
func (h *Handlers) LoadNote(_ context.Context, _ *mcp.CallToolRequest, input InputLoadNote) (*mcp.CallToolResult, OutputLoadNote, error) {
	if input.Text == "" && input.Path != "" {
		if err := h.session.LoadNoteFile(input.Path); err != nil {
			return nil, OutputLoadNote{}, err
		}
	} else {
		h.session.SetNote(input.Text)
	}

	note := h.session.Snapshot().Note
	lines := 0
	if note != "" {
		lines = 1
		for _, r := range note {
			if r == '\n' {
				lines++
			}
		}
	}
	return nil, OutputLoadNote{Characters: len([]rune(note)), Lines: lines}, nil
}

// MetadataIngestAnalysis describes the ingest_analysis tool.
var MetadataIngestAnalysis = &mcp.Tool{
	Name: "ingest_analysis",
	Description: "Validate and normalize the raw response of the coding engine for the loaded note. " +
		"The payload may be JSON or YAML and may be wrapped in a fenced code block. " +
		"Each code is given a session id used by focus_code and amend_code. " +
		"Contract drift (for example an unknown code type) is reported as warnings and does not fail the run. " +
		"Starting a new analysis clears the previous result and audit trail.",
	InputSchema: objectSchema([]string{"payload"}, map[string]interface{}{
		"payload": stringProperty("Raw text returned by the coding engine."),
	}),
}

// InputIngestAnalysis is the input for the IngestAnalysis tool.
type InputIngestAnalysis struct {
	Payload string `json:"payload"`
}

// OutputIngestAnalysis is the output for the IngestAnalysis tool.
type OutputIngestAnalysis struct {
	Analysis coding.CodingAnalysis `json:"analysis"`
	// Warnings lists contract violations found in the payload.
	Warnings []string `json:"warnings"`
}

// IngestAnalysis normalizes a coding engine payload into the session's analysis.
func (h *Handlers) IngestAnalysis(_ context.Context, _ *mcp.CallToolRequest, input InputIngestAnalysis) (*mcp.CallToolResult, OutputIngestAnalysis, error) {
	analysis, warnings, err := h.session.Ingest(input.Payload)
	if err != nil {
		zap.L().Warn("tool: ingest_analysis failed", zap.Error(err))
		return nil, OutputIngestAnalysis{}, err
	}
	if warnings == nil {
		warnings = []string{}
	}
	return nil, OutputIngestAnalysis{Analysis: *analysis, Warnings: warnings}, nil
}
