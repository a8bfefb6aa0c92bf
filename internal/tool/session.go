// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/medicode/coding-audit-mcp/internal/coding"
)

// MetadataGetSession describes the get_session tool.
var MetadataGetSession = &mcp.Tool{
	Name:        "get_session",
	Description: "Return the reviewing session: note, current analysis, last error, audit trail (newest first) and focused code.",
	InputSchema: objectSchema(nil, map[string]interface{}{}),
}

// InputGetSession is the input for the GetSession tool.
type InputGetSession struct{}

// OutputSession is the wire form of a session snapshot.
type OutputSession struct {
	Note          string                 `json:"note"`
	Analyzing     bool                   `json:"analyzing"`
	Analysis      *coding.CodingAnalysis `json:"analysis,omitempty"`
	Warnings      []string               `json:"warnings"`
	Error         string                 `json:"error,omitempty"`
	AuditTrail    []AuditRecord          `json:"audit_trail"`
	FocusedCodeID string                 `json:"focused_code_id,omitempty"`
}

// GetSession returns a snapshot of the session.
func (h *Handlers) GetSession(_ context.Context, _ *mcp.CallToolRequest, _ InputGetSession) (*mcp.CallToolResult, OutputSession, error) {
	state := h.session.Snapshot()
	warnings := state.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return nil, OutputSession{
		Note:          state.Note,
		Analyzing:     state.Analyzing,
		Analysis:      state.Result,
		Warnings:      warnings,
		Error:         state.Error,
		AuditTrail:    toRecords(state.AuditTrail),
		FocusedCodeID: state.FocusedCodeID,
	}, nil
}

// MetadataClearSession describes the clear_session tool.
var MetadataClearSession = &mcp.Tool{
	Name:        "clear_session",
	Description: "Discard the note, the analysis and the audit trail to start a new document.",
	InputSchema: objectSchema(nil, map[string]interface{}{}),
}

// InputClearSession is the input for the ClearSession tool.
type InputClearSession struct{}

// OutputClearSession is the output for the ClearSession tool.
type OutputClearSession struct {
	Cleared bool `json:"cleared"`
}

// ClearSession resets the session.
func (h *Handlers) ClearSession(_ context.Context, _ *mcp.CallToolRequest, _ InputClearSession) (*mcp.CallToolResult, OutputClearSession, error) {
	h.session.Clear()
	return nil, OutputClearSession{Cleared: true}, nil
}
