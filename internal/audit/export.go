// SPDX-License-Identifier: Apache-2.0

package audit

import (
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultTimeLayout renders timestamps the way an en-US locale prints a date-time.
	DefaultTimeLayout = "1/2/2006, 3:04:05 PM"
	// ContentType is the media type offered with an exported log.
	ContentType = "text/csv;charset=utf-8;"
	// DefaultFilenamePrefix starts every generated export filename.
	DefaultFilenamePrefix = "audit_log_"
)

// Header is the fixed first row of an export.
var Header = []string{"Timestamp", "User", "Code Reference", "Change Description", "Reason"}

// ExportOption configures an Exporter.
type ExportOption func(*Exporter)

// WithTimeLayout sets the timestamp layout.
func WithTimeLayout(layout string) ExportOption {
	return func(e *Exporter) { e.layout = layout }
}

// WithLocation sets the time zone timestamps are rendered in.
func WithLocation(loc *time.Location) ExportOption {
	return func(e *Exporter) { e.loc = loc }
}

// WithFilenamePrefix sets the prefix used by Filename.
func WithFilenamePrefix(prefix string) ExportOption {
	return func(e *Exporter) { e.prefix = prefix }
}

// Exporter serializes a ledger to comma-separated text.
type Exporter struct {
	layout string
	loc    *time.Location
	prefix string
}

// NewExporter creates an Exporter rendering local time with DefaultTimeLayout.
func NewExporter(opts ...ExportOption) *Exporter {
	e := &Exporter{layout: DefaultTimeLayout, loc: time.Local, prefix: DefaultFilenamePrefix}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Export renders entries in the order given, one row each after the header.
// It reports false, with no output, for an empty ledger.
//
// Code Reference, Change Description and Reason are always quoted with
// embedded quotes doubled; Timestamp and User are written as is.
func (e *Exporter) Export(entries []Entry) (string, bool) {
	if len(entries) == 0 {
		return "", false
	}

	rows := make([]string, 0, len(entries)+1)
	rows = append(rows, strings.Join(Header, ","))
	for _, entry := range entries {
		rows = append(rows, strings.Join([]string{
			entry.Timestamp.In(e.loc).Format(e.layout),
			entry.User,
			quote(entry.CodeReference),
			quote(entry.ChangeDescription),
			quote(entry.Reason),
		}, ","))
	}
	return strings.Join(rows, "\n"), true
}

// Filename returns a download name such as "audit_log_1760443200000.csv".
func (e *Exporter) Filename(now time.Time) string {
	return fmt.Sprintf("%s%d.csv", e.prefix, now.UnixMilli())
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
