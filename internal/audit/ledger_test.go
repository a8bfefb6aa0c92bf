// SPDX-License-Identifier: Apache-2.0

package audit_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medicode/coding-audit-mcp/internal/audit"
	"github.com/medicode/coding-audit-mcp/internal/coding"
	"github.com/medicode/coding-audit-mcp/internal/ids"
)

const reviewer = "Current CPC Professional"

func ptr(s string) *string { return &s }

// fakeClock advances one second per call.
func fakeClock() func() time.Time {
	var mu sync.Mutex
	now := time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
}

func newProposer() *audit.Proposer {
	return audit.NewProposer(audit.WithClock(fakeClock()), audit.WithAllocator(ids.NewCounter()))
}

func asthmaCode() coding.CodeEntry {
	return coding.CodeEntry{
		ID:                "code-1",
		Type:              coding.CodeTypeICD10,
		Code:              "J45.31",
		Description:       "Mild persistent asthma with (acute) exacerbation",
		Evidence:          "acute asthma exacerbation",
		HierarchicalLogic: []string{"J45", "J45.3", "J45.31"},
	}
}

// ---------------------------------------------------------------------------
// Proposer
// ---------------------------------------------------------------------------

func TestPropose_CodeChange(t *testing.T) {
	target := asthmaCode()
	entries, updated, err := newProposer().Propose(nil, target, audit.Edits{Code: ptr("J45.909")}, "Exacerbation not documented", reviewer)
	require.NoError(t, err)

	require.Len(t, entries, 1)
	entry := entries[0]
	assert.Contains(t, entry.ChangeDescription, "Updated code from 'J45.31' to 'J45.909'")
	assert.Equal(t, "J45.909", entry.CodeReference)
	assert.Equal(t, "Exacerbation not documented", entry.Reason)
	assert.Equal(t, reviewer, entry.User)
	assert.Equal(t, "audit-1", entry.ID)
	assert.Equal(t, uint64(1), entry.Seq)
	assert.False(t, entry.Timestamp.IsZero())

	assert.Equal(t, "J45.909", updated.Code)
	assert.Equal(t, target.ID, updated.ID)
	assert.Equal(t, "J45.31", target.Code, "target must not be mutated")
}

func TestPropose_ChangeDescriptions(t *testing.T) {
	tests := []struct {
		name  string
		edits audit.Edits
		want  string
	}{
		{
			name:  "description only",
			edits: audit.Edits{Description: ptr("Unspecified asthma")},
			want:  "Updated description",
		},
		{
			name:  "code and description",
			edits: audit.Edits{Code: ptr("J45.909"), Description: ptr("Unspecified asthma, uncomplicated")},
			want:  "Updated code from 'J45.31' to 'J45.909', Updated description",
		},
		{
			name:  "unchanged code with new description",
			edits: audit.Edits{Code: ptr("J45.31"), Description: ptr("Asthma")},
			want:  "Updated description",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, _, err := newProposer().Propose(nil, asthmaCode(), tt.edits, "coder review", reviewer)
			require.NoError(t, err)
			require.Len(t, entries, 1)
			assert.Equal(t, tt.want, entries[0].ChangeDescription)
		})
	}
}

func TestPropose_NoOp(t *testing.T) {
	target := asthmaCode()
	existing, _, err := newProposer().Propose(nil, target, audit.Edits{Code: ptr("J45.30")}, "first", reviewer)
	require.NoError(t, err)

	tests := []struct {
		name   string
		edits  audit.Edits
		reason string
	}{
		{name: "identical values", edits: audit.Edits{Code: ptr(target.Code), Description: ptr(target.Description)}, reason: "no change"},
		{name: "no fields", edits: audit.Edits{}, reason: "no change"},
		{name: "empty strings", edits: audit.Edits{Code: ptr(""), Description: ptr("")}, reason: "cleared"},
		{name: "empty reason", edits: audit.Edits{Code: ptr("J45.909")}, reason: ""},
		{name: "whitespace reason", edits: audit.Edits{Code: ptr("J45.909")}, reason: "  \n\t"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, updated, err := newProposer().Propose(existing, target, tt.edits, tt.reason, reviewer)
			require.Error(t, err)
			assert.ErrorIs(t, err, audit.ErrNoOp)
			assert.Equal(t, existing, entries, "ledger must be unchanged")
			assert.Equal(t, target, updated)
		})
	}
}

func TestPropose_PrependsAndKeepsSequence(t *testing.T) {
	p := newProposer()
	target := asthmaCode()

	var entries []audit.Entry
	var err error
	for _, step := range []struct{ code, reason string }{
		{"J45.30", "first"},
		{"J45.32", "second"},
		{"J45.909", "third"},
	} {
		entries, target, err = p.Propose(entries, target, audit.Edits{Code: ptr(step.code)}, step.reason, reviewer)
		require.NoError(t, err)
	}

	require.Len(t, entries, 3)
	assert.Equal(t, []string{"third", "second", "first"}, reasons(entries), "display order is newest first")
	assert.Equal(t, []string{"first", "second", "third"}, reasons(audit.Chronological(entries)))
	assert.Equal(t, "Updated code from 'J45.30' to 'J45.32'", entries[1].ChangeDescription)
	assert.Equal(t, "J45.909", target.Code)
}

func reasons(entries []audit.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Reason
	}
	return out
}

func TestPropose_UpdatedEntryIsACopy(t *testing.T) {
	target := asthmaCode()
	_, updated, err := newProposer().Propose(nil, target, audit.Edits{Code: ptr("J45.909")}, "r", reviewer)
	require.NoError(t, err)

	updated.HierarchicalLogic[0] = "changed"
	assert.Equal(t, "J45", target.HierarchicalLogic[0])
}

// ---------------------------------------------------------------------------
// Ledger
// ---------------------------------------------------------------------------

func TestLedger_ThreeProposalsKeepCallOrder(t *testing.T) {
	ledger := audit.NewLedger(audit.WithClock(fakeClock()), audit.WithAllocator(ids.NewCounter()))
	target := asthmaCode()

	for _, step := range []struct{ code, reason string }{
		{"J45.30", "reason one"},
		{"J45.32", "reason two"},
		{"J45.909", "reason three"},
	} {
		_, updated, err := ledger.Propose(target, audit.Edits{Code: ptr(step.code)}, step.reason, reviewer)
		require.NoError(t, err)
		target = updated
	}

	assert.Equal(t, 3, ledger.Len())
	assert.Equal(t, []string{"reason three", "reason two", "reason one"}, reasons(ledger.Entries()))
	assert.Equal(t, []string{"reason one", "reason two", "reason three"}, reasons(ledger.Chronological()))

	chrono := ledger.Chronological()
	for i := 1; i < len(chrono); i++ {
		assert.True(t, chrono[i-1].Timestamp.Before(chrono[i].Timestamp))
	}
}

func TestLedger_NoOpLeavesLedgerUnchanged(t *testing.T) {
	ledger := audit.NewLedger()
	target := asthmaCode()

	_, updated, err := ledger.Propose(target, audit.Edits{Code: ptr(target.Code)}, "same", reviewer)
	assert.ErrorIs(t, err, audit.ErrNoOp)
	assert.Equal(t, target, updated)
	assert.Zero(t, ledger.Len())
}

func TestLedger_EntriesAreSnapshots(t *testing.T) {
	ledger := audit.NewLedger()
	_, _, err := ledger.Propose(asthmaCode(), audit.Edits{Code: ptr("J45.909")}, "r", reviewer)
	require.NoError(t, err)

	snapshot := ledger.Entries()
	snapshot[0].Reason = "tampered"
	assert.Equal(t, "r", ledger.Entries()[0].Reason)
}

func TestLedger_ConcurrentProposalsAreNotLost(t *testing.T) {
	ledger := audit.NewLedger(audit.WithAllocator(ids.NewCounter()))
	const n = 50

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := ledger.Propose(asthmaCode(), audit.Edits{Code: ptr("J45.909")}, "parallel", reviewer)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	require.Equal(t, n, ledger.Len())
	chrono := ledger.Chronological()
	for i, e := range chrono {
		assert.Equal(t, uint64(i+1), e.Seq)
	}
}

func TestLedger_Reset(t *testing.T) {
	ledger := audit.NewLedger()
	_, _, err := ledger.Propose(asthmaCode(), audit.Edits{Code: ptr("J45.909")}, "r", reviewer)
	require.NoError(t, err)

	ledger.Reset()
	assert.Zero(t, ledger.Len())
	assert.Empty(t, ledger.Entries())
}
