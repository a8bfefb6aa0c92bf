// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"
	"errors"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/medicode/coding-audit-mcp/internal/audit"
	"github.com/medicode/coding-audit-mcp/internal/coding"
)

// MetadataAmendCode describes the amend_code tool.
var MetadataAmendCode = &mcp.Tool{
	Name: "amend_code",
	Description: "Amend the code value or description of a suggested code. A reason is mandatory. " +
		"Every applied amendment is appended to the session audit trail. " +
		"An edit without a reason, or one that changes nothing, is not applied and not logged.",
	InputSchema: objectSchema([]string{"code_id", "reason"}, map[string]interface{}{
		"code_id":     stringProperty("Session id of the code to amend."),
		"code":        stringProperty("New billing code. Omit to keep the current code."),
		"description": stringProperty("New official description. Omit to keep the current description."),
		"reason":      stringProperty("Justification for the amendment."),
		"user":        stringProperty("Reviewer making the change. Defaults to the configured reviewer."),
	}),
}

// InputAmendCode is the input for the AmendCode tool.
type InputAmendCode struct {
	CodeID      string  `json:"code_id"`
	Code        *string `json:"code,omitempty"`
	Description *string `json:"description,omitempty"`
	Reason      string  `json:"reason"`
	User        string  `json:"user"`
}

// AuditRecord is the wire form of an audit entry.
type AuditRecord struct {
	ID                string `json:"id"`
	Seq               uint64 `json:"seq"`
	Timestamp         string `json:"timestamp"`
	User              string `json:"user"`
	CodeReference     string `json:"code_reference"`
	ChangeDescription string `json:"change_description"`
	Reason            string `json:"reason"`
}

func toRecord(e audit.Entry) AuditRecord {
	return AuditRecord{
		ID:                e.ID,
		Seq:               e.Seq,
		Timestamp:         e.Timestamp.Format(time.RFC3339Nano),
		User:              e.User,
		CodeReference:     e.CodeReference,
		ChangeDescription: e.ChangeDescription,
		Reason:            e.Reason,
	}
}

func toRecords(entries []audit.Entry) []AuditRecord {
	out := make([]AuditRecord, 0, len(entries))
	for _, e := range entries {
		out = append(out, toRecord(e))
	}
	return out
}

// OutputAmendCode is the output for the AmendCode tool.
type OutputAmendCode struct {
	Applied bool `json:"applied"`
	// Message explains why an edit was not applied.
	Message string            `json:"message,omitempty"`
	Entry   *AuditRecord      `json:"entry,omitempty"`
	Code    *coding.CodeEntry `json:"code,omitempty"`
}

// AmendCode applies a reviewer edit and records it in the audit trail.
func (h *Handlers) AmendCode(_ context.Context, _ *mcp.CallToolRequest, input InputAmendCode) (*mcp.CallToolResult, OutputAmendCode, error) {
	edits := audit.Edits{Code: input.Code, Description: input.Description}
	entry, updated, err := h.session.Amend(input.CodeID, edits, input.Reason, input.User)
	if errors.Is(err, audit.ErrNoOp) {
		return nil, OutputAmendCode{Applied: false, Message: err.Error()}, nil
	}
	if err != nil {
		return nil, OutputAmendCode{}, err
	}
	record := toRecord(entry)
	return nil, OutputAmendCode{Applied: true, Entry: &record, Code: &updated}, nil
}

// MetadataExportAuditLog describes the export_audit_log tool.
var MetadataExportAuditLog = &mcp.Tool{
	Name: "export_audit_log",
	Description: "Export the session audit trail as CSV in creation order, with a suggested filename and content type. " +
		"An empty trail produces no export.",
	InputSchema: objectSchema(nil, map[string]interface{}{}),
}

// InputExportAuditLog is the input for the ExportAuditLog tool.
type InputExportAuditLog struct{}

// OutputExportAuditLog is the output for the ExportAuditLog tool.
type OutputExportAuditLog struct {
	Exported    bool   `json:"exported"`
	Content     string `json:"content,omitempty"`
	Filename    string `json:"filename,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Rows        int    `json:"rows"`
}

// ExportAuditLog renders the audit trail as delimited text.
func (h *Handlers) ExportAuditLog(_ context.Context, _ *mcp.CallToolRequest, _ InputExportAuditLog) (*mcp.CallToolResult, OutputExportAuditLog, error) {
	content, rows, ok := h.session.Export(h.exporter)
	if !ok {
		return nil, OutputExportAuditLog{Exported: false}, nil
	}
	return nil, OutputExportAuditLog{
		Exported:    true,
		Content:     content,
		Filename:    h.exporter.Filename(h.now()),
		ContentType: audit.ContentType,
		Rows:        rows,
	}, nil
}
