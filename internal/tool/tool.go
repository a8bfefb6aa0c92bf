// SPDX-License-Identifier: Apache-2.0

// Package tool exposes the reviewing session as MCP tools.
package tool

import (
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/medicode/coding-audit-mcp/internal/audit"
	"github.com/medicode/coding-audit-mcp/internal/session"
)

// Handlers binds the tool handlers to one reviewing session. A server
// process serves exactly one session.
type Handlers struct {
	session  *session.Session
	exporter *audit.Exporter
	now      func() time.Time
}

// NewHandlers creates the tool handlers for s.
func NewHandlers(s *session.Session, exporter *audit.Exporter) *Handlers {
	if exporter == nil {
		exporter = audit.NewExporter()
	}
	return &Handlers{session: s, exporter: exporter, now: time.Now}
}

// NewServer creates an MCP server with every tool registered.
func NewServer(impl *mcp.Implementation, h *Handlers) *mcp.Server {
	server := mcp.NewServer(impl, nil)
	Register(server, h)
	return server
}

// Register adds every tool to server.
func Register(server *mcp.Server, h *Handlers) {
	mcp.AddTool(server, MetadataLoadNote, h.LoadNote)
	mcp.AddTool(server, MetadataIngestAnalysis, h.IngestAnalysis)
	mcp.AddTool(server, MetadataHighlightEvidence, h.HighlightEvidence)
	mcp.AddTool(server, MetadataFocusCode, h.FocusCode)
	mcp.AddTool(server, MetadataAmendCode, h.AmendCode)
	mcp.AddTool(server, MetadataExportAuditLog, h.ExportAuditLog)
	mcp.AddTool(server, MetadataGetSession, h.GetSession)
	mcp.AddTool(server, MetadataClearSession, h.ClearSession)
}

func objectSchema(required []string, properties map[string]interface{}) map[string]interface{} {
	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func stringProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}
