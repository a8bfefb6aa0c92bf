// SPDX-License-Identifier: Apache-2.0

// Package session holds the state of one reviewing session: the clinical
// note, the latest analysis, the audit ledger and the focused code.
package session

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/medicode/coding-audit-mcp/internal/audit"
	"github.com/medicode/coding-audit-mcp/internal/coding"
	"github.com/medicode/coding-audit-mcp/internal/evidence"
	"github.com/medicode/coding-audit-mcp/internal/ids"
)

// DefaultActor is recorded on audit entries when the caller names no reviewer.
const DefaultActor = "Current CPC Professional"

var (
	ErrEmptyNote           = eris.New("please enter or upload a clinical note to begin the audit")
	ErrUnsupportedNoteFile = eris.New("invalid file type, please upload a plain text (.txt) clinical note")
	ErrNoAnalysis          = eris.New("no analysis has been completed for this session")
	ErrCodeNotFound        = eris.New("code not found in the current analysis")
	// ErrSuperseded is returned to a run whose result was discarded because a newer run started.
	ErrSuperseded = eris.New("analysis superseded by a newer request")
)

// Classifier is the external coding engine. It returns the raw payload text.
type Classifier interface {
	Classify(ctx context.Context, note string) (string, error)
}

// State is a serializable snapshot of a session.
type State struct {
	Note          string                 `json:"note"`
	Analyzing     bool                   `json:"analyzing"`
	Result        *coding.CodingAnalysis `json:"result,omitempty"`
	Warnings      []string               `json:"warnings,omitempty"`
	Error         string                 `json:"error,omitempty"`
	AuditTrail    []audit.Entry          `json:"audit_trail"`
	FocusedCodeID string                 `json:"focused_code_id,omitempty"`
}

// Option configures a Session.
type Option func(*Session)

// WithNormalizer sets the normalizer used for classifier payloads.
func WithNormalizer(n *coding.Normalizer) Option {
	return func(s *Session) { s.normalizer = n }
}

// WithContract enables contract drift warnings on every analysis.
func WithContract(c *coding.Contract) Option {
	return func(s *Session) { s.contract = c }
}

// WithLedger sets the audit ledger.
func WithLedger(l *audit.Ledger) Option {
	return func(s *Session) { s.ledger = l }
}

// WithActor sets the reviewer recorded when Amend is given no actor. A blank
// actor keeps DefaultActor.
func WithActor(actor string) Option {
	return func(s *Session) {
		if strings.TrimSpace(actor) != "" {
			s.actor = actor
		}
	}
}

// Session is safe for concurrent use. Only the most recent analysis run may
// publish its outcome; an older run still in flight is discarded when it returns.
type Session struct {
	mu sync.Mutex

	note       string
	analyzing  bool
	generation uint64
	result     *coding.CodingAnalysis
	warnings   []string
	lastErr    string
	focused    string

	normalizer *coding.Normalizer
	contract   *coding.Contract
	ledger     *audit.Ledger
	actor      string
}

// New creates an empty session.
func New(opts ...Option) *Session {
	s := &Session{actor: DefaultActor}
	for _, opt := range opts {
		opt(s)
	}
	if s.normalizer == nil {
		s.normalizer = coding.NewNormalizer(ids.NewTimeOrdered())
	}
	if s.ledger == nil {
		s.ledger = audit.NewLedger()
	}
	return s
}

// SetNote replaces the clinical note. A different note invalidates the
// current analysis, so the result, the ledger and the focus are discarded.
func (s *Session) SetNote(note string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if note != s.note {
		s.resetReviewLocked()
	}
	s.note = note
	s.lastErr = ""
}

// LoadNoteFile reads a plain text (.txt) note from path.
func (s *Session) LoadNoteFile(path string) error {
	if !strings.EqualFold(filepath.Ext(path), ".txt") {
		return s.fail(eris.Wrapf(ErrUnsupportedNoteFile, "session: %s", filepath.Base(path)))
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return s.fail(eris.Wrap(err, "session: failed to read the file, please check file permissions"))
	}
	s.SetNote(string(content))
	return nil
}

// Analyze sends the note to classifier and normalizes its payload.
func (s *Session) Analyze(ctx context.Context, classifier Classifier) (*coding.CodingAnalysis, error) {
	gen, note, err := s.begin()
	if err != nil {
		return nil, err
	}

	text, err := classifier.Classify(ctx, note)
	if err != nil {
		return s.finish(gen, nil, nil, eris.Wrap(err, "session: classify"))
	}
	analysis, warnings, err := s.normalize(text)
	return s.finish(gen, analysis, warnings, err)
}

// Ingest normalizes a payload produced by a classifier call made elsewhere.
func (s *Session) Ingest(raw any) (*coding.CodingAnalysis, []string, error) {
	gen, _, err := s.begin()
	if err != nil {
		return nil, nil, err
	}
	analysis, warnings, err := s.normalize(raw)
	analysis, err = s.finish(gen, analysis, warnings, err)
	if err != nil {
		return nil, nil, err
	}
	return analysis, warnings, nil
}

// begin starts a new analysis run, discarding the previous result and ledger.
func (s *Session) begin() (uint64, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(s.note) == "" {
		s.lastErr = ErrEmptyNote.Error()
		return 0, "", eris.Wrap(ErrEmptyNote, "session: analyze")
	}
	s.generation++
	s.resetReviewLocked()
	s.analyzing = true
	s.lastErr = ""
	return s.generation, s.note, nil
}

func (s *Session) normalize(raw any) (*coding.CodingAnalysis, []string, error) {
	analysis, err := s.normalizer.Normalize(raw)
	if err != nil {
		return nil, nil, err
	}
	var warnings []string
	if s.contract != nil {
		warnings = s.contract.Check(analysis)
		for _, w := range warnings {
			zap.L().Warn("session: classifier payload drifted from contract", zap.String("violation", w))
		}
	}
	return analysis, warnings, nil
}

// finish publishes the outcome of run gen unless a newer run has started.
func (s *Session) finish(gen uint64, analysis *coding.CodingAnalysis, warnings []string, err error) (*coding.CodingAnalysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		zap.L().Info("session: discarding superseded analysis",
			zap.Uint64("run", gen),
			zap.Uint64("current", s.generation),
		)
		return nil, eris.Wrap(ErrSuperseded, "session: analyze")
	}
	s.analyzing = false
	if err != nil {
		s.lastErr = err.Error()
		zap.L().Error("session: analysis failed", zap.Uint64("run", gen), zap.Error(err))
		return nil, err
	}
	s.result = analysis
	s.warnings = warnings
	zap.L().Info("session: analysis ready",
		zap.Uint64("run", gen),
		zap.Int("codes", len(analysis.Codes)),
		zap.Int("excluded", len(analysis.ExcludedCodes)),
		zap.Int("warnings", len(warnings)),
	)
	return analysis.Clone(), nil
}

// Focus marks codeID as the focused code and returns the note segmented on
// its evidence. An empty codeID clears the focus.
func (s *Session) Focus(codeID string) ([]evidence.Span, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if codeID == "" {
		s.focused = ""
		return evidence.Segment(s.note, ""), nil
	}
	code, err := s.codeLocked(codeID)
	if err != nil {
		return nil, err
	}
	s.focused = codeID
	return evidence.Segment(s.note, code.Evidence), nil
}

// Highlight segments the note on the evidence of the focused code, if any.
func (s *Session) Highlight() []evidence.Span {
	s.mu.Lock()
	defer s.mu.Unlock()

	phrase := ""
	if s.result != nil && s.focused != "" {
		if code, ok := s.result.Find(s.focused); ok {
			phrase = code.Evidence
		}
	}
	return evidence.Segment(s.note, phrase)
}

// Locate reports where the evidence of codeID sits in the note.
func (s *Session) Locate(codeID string) (evidence.Location, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	code, err := s.codeLocked(codeID)
	if err != nil {
		return evidence.Location{}, false, err
	}
	loc, ok := evidence.Locate(s.note, code.Evidence)
	return loc, ok, nil
}

// Amend applies a reviewer edit to codeID and records it in the ledger.
// Reading the current code, appending the entry and replacing the code
// happen under one lock. A blank actor falls back to the session's actor.
func (s *Session) Amend(codeID string, edits audit.Edits, reason, actor string) (audit.Entry, coding.CodeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, err := s.codeLocked(codeID)
	if err != nil {
		return audit.Entry{}, coding.CodeEntry{}, err
	}
	if strings.TrimSpace(actor) == "" {
		actor = s.actor
	}
	entry, updated, err := s.ledger.Propose(target, edits, reason, actor)
	if err != nil {
		return audit.Entry{}, target, err
	}
	s.result.Replace(updated)
	return entry, updated, nil
}

// Export renders the ledger in creation order and returns the number of rows
// written. It reports false when the ledger is empty.
func (s *Session) Export(exporter *audit.Exporter) (string, int, bool) {
	entries := s.ledger.Chronological()
	content, ok := exporter.Export(entries)
	if !ok {
		return "", 0, false
	}
	return content, len(entries), true
}

// Clear resets the session to its initial state.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.resetReviewLocked()
	s.note = ""
	s.lastErr = ""
}

// Snapshot returns a copy of the session state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return State{
		Note:          s.note,
		Analyzing:     s.analyzing,
		Result:        s.result.Clone(),
		Warnings:      append([]string(nil), s.warnings...),
		Error:         s.lastErr,
		AuditTrail:    s.ledger.Entries(),
		FocusedCodeID: s.focused,
	}
}

func (s *Session) fail(err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = err.Error()
	return err
}

func (s *Session) codeLocked(codeID string) (coding.CodeEntry, error) {
	if s.result == nil {
		return coding.CodeEntry{}, eris.Wrap(ErrNoAnalysis, "session: lookup code")
	}
	code, ok := s.result.Find(codeID)
	if !ok {
		return coding.CodeEntry{}, eris.Wrapf(ErrCodeNotFound, "session: %q", codeID)
	}
	return code, nil
}

func (s *Session) resetReviewLocked() {
	s.analyzing = false
	s.result = nil
	s.warnings = nil
	s.focused = ""
	s.ledger.Reset()
}
