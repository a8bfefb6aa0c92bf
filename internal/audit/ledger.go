// SPDX-License-Identifier: Apache-2.0

package audit

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/medicode/coding-audit-mcp/internal/coding"
	"github.com/medicode/coding-audit-mcp/internal/ids"
)

// Option configures a Proposer or a Ledger.
type Option func(*Proposer)

// WithClock sets the time source for entry timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Proposer) { p.now = now }
}

// WithAllocator sets the id source for entries.
func WithAllocator(alloc ids.Allocator) Option {
	return func(p *Proposer) { p.ids = alloc }
}

// Proposer computes amendments. It holds no ledger state of its own.
type Proposer struct {
	now func() time.Time
	ids ids.Allocator
}

// NewProposer creates a Proposer using the wall clock and time-ordered ids by default.
func NewProposer(opts ...Option) *Proposer {
	p := &Proposer{now: time.Now, ids: ids.NewTimeOrdered()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Propose applies edits to a copy of target and prepends one entry describing
// the change to entries. It returns ErrNoOp, leaving both untouched, when
// reason is blank or no field differs from target.
func (p *Proposer) Propose(entries []Entry, target coding.CodeEntry, edits Edits, reason, actor string) ([]Entry, coding.CodeEntry, error) {
	if strings.TrimSpace(reason) == "" {
		return entries, target, eris.Wrap(ErrNoOp, "audit: a reason is required")
	}
	changes := Describe(target, edits)
	if len(changes) == 0 {
		return entries, target, eris.Wrap(ErrNoOp, "audit: nothing changed")
	}

	updated := apply(target, edits)
	entry := Entry{
		ID:                p.ids.Next("audit"),
		Seq:               nextSeq(entries),
		Timestamp:         p.now(),
		User:              actor,
		CodeReference:     updated.Code,
		ChangeDescription: strings.Join(changes, ", "),
		Reason:            reason,
	}

	out := make([]Entry, 0, len(entries)+1)
	out = append(out, entry)
	out = append(out, entries...)
	return out, updated, nil
}

// Describe returns one clause per editable field whose proposed value differs
// from target. Description text is not echoed.
func Describe(target coding.CodeEntry, edits Edits) []string {
	var changes []string
	if v, ok := proposed(edits.Code); ok && v != target.Code {
		changes = append(changes, fmt.Sprintf("Updated code from '%s' to '%s'", target.Code, v))
	}
	if v, ok := proposed(edits.Description); ok && v != target.Description {
		changes = append(changes, "Updated description")
	}
	return changes
}

func proposed(v *string) (string, bool) {
	if v == nil || *v == "" {
		return "", false
	}
	return *v, true
}

func apply(target coding.CodeEntry, edits Edits) coding.CodeEntry {
	updated := target
	updated.HierarchicalLogic = slices.Clone(target.HierarchicalLogic)
	if v, ok := proposed(edits.Code); ok {
		updated.Code = v
	}
	if v, ok := proposed(edits.Description); ok {
		updated.Description = v
	}
	return updated
}

func nextSeq(entries []Entry) uint64 {
	var last uint64
	for _, e := range entries {
		if e.Seq > last {
			last = e.Seq
		}
	}
	return last + 1
}

// Ledger is the session's append-only audit trail. Appends are serialized so
// concurrent amendments never lose an entry.
type Ledger struct {
	mu       sync.Mutex
	entries  []Entry // newest first
	proposer *Proposer
}

// NewLedger creates an empty ledger.
func NewLedger(opts ...Option) *Ledger {
	return &Ledger{proposer: NewProposer(opts...)}
}

// Propose records an amendment of target and returns the new entry and the updated code.
func (l *Ledger) Propose(target coding.CodeEntry, edits Edits, reason, actor string) (Entry, coding.CodeEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, updated, err := l.proposer.Propose(l.entries, target, edits, reason, actor)
	if err != nil {
		return Entry{}, target, err
	}
	l.entries = entries

	entry := entries[0]
	zap.L().Info("audit: entry appended",
		zap.String("id", entry.ID),
		zap.String("code_id", target.ID),
		zap.String("code_reference", entry.CodeReference),
		zap.String("user", entry.User),
	)
	return entry, updated, nil
}

// Entries returns the ledger newest first, for display.
func (l *Ledger) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.entries)
}

// Chronological returns the ledger in creation order, for export.
func (l *Ledger) Chronological() []Entry {
	return Chronological(l.Entries())
}

// Len returns the number of entries.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Reset discards every entry. It is called when the session is cleared or a
// new analysis starts; entries are never removed individually.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}

// Chronological returns a copy of entries ordered by creation.
func Chronological(entries []Entry) []Entry {
	out := slices.Clone(entries)
	slices.SortStableFunc(out, func(a, b Entry) int {
		switch {
		case a.Seq < b.Seq:
			return -1
		case a.Seq > b.Seq:
			return 1
		}
		return a.Timestamp.Compare(b.Timestamp)
	})
	return out
}
