// SPDX-License-Identifier: Apache-2.0

package audit_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medicode/coding-audit-mcp/internal/audit"
)

func TestExport_EmptyLedger(t *testing.T) {
	text, ok := audit.NewExporter().Export(nil)
	assert.False(t, ok)
	assert.Empty(t, text)

	text, ok = audit.NewExporter().Export([]audit.Entry{})
	assert.False(t, ok)
	assert.Empty(t, text)
}

func TestExport_Rows(t *testing.T) {
	at := time.Date(2026, 10, 14, 14, 5, 9, 0, time.UTC)
	entries := []audit.Entry{
		{
			Seq:               1,
			Timestamp:         at,
			User:              reviewer,
			CodeReference:     "J45.909",
			ChangeDescription: "Updated code from 'J45.31' to 'J45.909'",
			Reason:            `Per physician's "final" note`,
		},
		{
			Seq:               2,
			Timestamp:         at.Add(time.Minute),
			User:              "coder2",
			CodeReference:     "94640",
			ChangeDescription: "Updated description",
			Reason:            "Wording, per payer",
		},
	}

	text, ok := audit.NewExporter(audit.WithLocation(time.UTC)).Export(entries)
	require.True(t, ok)

	lines := strings.Split(text, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Timestamp,User,Code Reference,Change Description,Reason", lines[0])
	assert.Equal(t, `10/14/2026, 2:05:09 PM,Current CPC Professional,"J45.909","Updated code from 'J45.31' to 'J45.909'","Per physician's ""final"" note"`, lines[1])
	assert.Equal(t, `10/14/2026, 2:06:09 PM,coder2,"94640","Updated description","Wording, per payer"`, lines[2])
	assert.False(t, strings.HasSuffix(text, "\n"))
}

func TestExport_DoesNotReorder(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	entries := []audit.Entry{
		{Seq: 2, Timestamp: at.Add(time.Hour), User: "u", Reason: "later"},
		{Seq: 1, Timestamp: at, User: "u", Reason: "earlier"},
	}
	text, ok := audit.NewExporter(audit.WithLocation(time.UTC)).Export(entries)
	require.True(t, ok)

	lines := strings.Split(text, "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasSuffix(lines[1], `"later"`))
	assert.True(t, strings.HasSuffix(lines[2], `"earlier"`))
}

func TestExport_TimeLayoutAndLocation(t *testing.T) {
	at := time.Date(2026, 10, 14, 14, 5, 9, 0, time.UTC)
	berlin := time.FixedZone("CEST", 2*60*60)

	text, ok := audit.NewExporter(audit.WithTimeLayout(time.RFC3339), audit.WithLocation(berlin)).
		Export([]audit.Entry{{Timestamp: at, User: "u"}})
	require.True(t, ok)
	assert.Equal(t, `2026-10-14T16:05:09+02:00,u,"","",""`, strings.Split(text, "\n")[1])
}

func TestExporter_Filename(t *testing.T) {
	at := time.UnixMilli(1760443200123)
	assert.Equal(t, "audit_log_1760443200123.csv", audit.NewExporter().Filename(at))
	assert.Equal(t, "session_1760443200123.csv", audit.NewExporter(audit.WithFilenamePrefix("session_")).Filename(at))
	assert.Equal(t, "text/csv;charset=utf-8;", audit.ContentType)
}
