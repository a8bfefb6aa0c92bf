// SPDX-License-Identifier: Apache-2.0

// Package coding holds the in-memory model of one coding audit run and the
// normalizer that builds it from classifier output.
package coding

// CodeType distinguishes diagnosis codes from procedure codes.
type CodeType string

const (
	CodeTypeICD10 CodeType = "ICD-10"
	CodeTypeCPT   CodeType = "CPT"
)

// CodeEntry is one candidate billing code suggested by the classifier.
type CodeEntry struct {
	// ID is assigned at ingestion and is stable for the life of the entry.
	ID              string   `json:"id"`
	Entity          string   `json:"entity"`
	Type            CodeType `json:"type"`
	Code            string   `json:"code"`
	Description     string   `json:"description"`
	ConfidenceScore string   `json:"confidence_score"`
	// Evidence is the note text the classifier cited for this code.
	Evidence          string   `json:"evidence"`
	Reasoning         string   `json:"reasoning"`
	HierarchicalLogic []string `json:"hierarchical_logic"`
	ModifierApplied   string   `json:"modifier_applied,omitempty"`
	ModifierReasoning string   `json:"modifier_reasoning,omitempty"`
}

// ExcludedCode records a code that was considered and rejected.
type ExcludedCode struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Reason      string `json:"reason"`
}

// CodingAnalysis is the result of one audit run.
type CodingAnalysis struct {
	Summary             string         `json:"summary"`
	MedicalNecessity    string         `json:"medical_necessity"`
	Codes               []CodeEntry    `json:"codes"`
	ExcludedCodes       []ExcludedCode `json:"excluded_codes"`
	QueriesForPhysician []string       `json:"queries_for_physician"`
}

// Find returns the code entry with the given id.
func (a *CodingAnalysis) Find(id string) (CodeEntry, bool) {
	for _, c := range a.Codes {
		if c.ID == id {
			return c, true
		}
	}
	return CodeEntry{}, false
}

// Replace swaps in entry at the position of the code with the same id.
// The code list is never reordered or resized; it reports false when no code has that id.
func (a *CodingAnalysis) Replace(entry CodeEntry) bool {
	for i := range a.Codes {
		if a.Codes[i].ID == entry.ID {
			a.Codes[i] = entry
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can hand out snapshots.
func (a *CodingAnalysis) Clone() *CodingAnalysis {
	if a == nil {
		return nil
	}
	out := *a
	out.Codes = make([]CodeEntry, len(a.Codes))
	for i, c := range a.Codes {
		c.HierarchicalLogic = append([]string{}, c.HierarchicalLogic...)
		out.Codes[i] = c
	}
	out.ExcludedCodes = append([]ExcludedCode{}, a.ExcludedCodes...)
	out.QueriesForPhysician = append([]string{}, a.QueriesForPhysician...)
	return &out
}
