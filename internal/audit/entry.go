// SPDX-License-Identifier: Apache-2.0

// Package audit keeps the append-only trail of reviewer amendments to
// machine-suggested codes and exports it as delimited text.
package audit

import (
	"time"

	"github.com/rotisserie/eris"
)

// ErrNoOp is returned when a proposed edit is not applied: the reason was
// blank or no editable field changed. It is not a failure the caller retries.
var ErrNoOp = eris.New("edit not applied")

// Entry is one immutable ledger record.
type Entry struct {
	ID string `json:"id"`
	// Seq is the creation ordinal within the ledger; it recovers true
	// chronological order regardless of display order.
	Seq               uint64    `json:"seq"`
	Timestamp         time.Time `json:"timestamp"`
	User              string    `json:"user"`
	CodeReference     string    `json:"code_reference"`
	ChangeDescription string    `json:"change_description"`
	Reason            string    `json:"reason"`
}

// Edits are the reviewer-editable fields of a code entry. A nil or empty
// field is not part of the proposal.
type Edits struct {
	Code        *string `json:"code,omitempty"`
	Description *string `json:"description,omitempty"`
}
