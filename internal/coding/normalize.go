// SPDX-License-Identifier: Apache-2.0

package coding

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/rotisserie/eris"

	"github.com/medicode/coding-audit-mcp/internal/ids"
)

const fence = "```"

// langTag matches the optional language tag that follows an opening fence.
var langTag = regexp.MustCompile(`^[A-Za-z0-9_+.-]*$`)

// Field names accepted from the classifier. The first name is the current
// wire name; later names are spellings used by earlier prompt versions.
var (
	keySummary          = []string{"summary"}
	keyCodes            = []string{"codes"}
	keyMedicalNecessity = []string{"medical_necessity", "medicalNecessity"}
	keyExcludedCodes    = []string{"excluded_codes", "excludedCodes"}
	keyQueries          = []string{"queries_for_physician", "queriesForPhysician"}

	keyEntity            = []string{"entity"}
	keyType              = []string{"type"}
	keyCode              = []string{"code"}
	keyDescription       = []string{"description"}
	keyConfidenceScore   = []string{"confidence_score", "confidenceScore", "confidence"}
	keyEvidence          = []string{"evidence"}
	keyReasoning         = []string{"reasoning"}
	keyHierarchicalLogic = []string{"hierarchical_logic", "hierarchicalLogic"}
	keyModifierApplied   = []string{"modifier_applied", "modifierApplied"}
	keyModifierReasoning = []string{"modifier_reasoning", "modifierReasoning"}
	keyReason            = []string{"reason"}
)

// Normalizer turns raw classifier output into a well-formed CodingAnalysis.
// The classifier is treated as an untrusted producer: wrong types and missing
// optional fields are repaired, and only payloads without a summary or a code
// list are rejected.
type Normalizer struct {
	alloc ids.Allocator
}

// NewNormalizer creates a Normalizer that draws code ids from alloc.
func NewNormalizer(alloc ids.Allocator) *Normalizer {
	if alloc == nil {
		alloc = ids.NewTimeOrdered()
	}
	return &Normalizer{alloc: alloc}
}

// Normalize accepts a string or byte payload (optionally wrapped in a fenced
// block), or an already decoded mapping. The input is never modified.
func (n *Normalizer) Normalize(raw any) (*CodingAnalysis, error) {
	switch v := raw.(type) {
	case nil:
		return nil, eris.Wrap(ErrEmptyUpstreamResponse, "coding: normalize")
	case string:
		return n.NormalizeText(v)
	case []byte:
		return n.NormalizeText(string(v))
	case json.RawMessage:
		return n.NormalizeText(string(v))
	case map[string]any:
		return n.fromMap(v)
	default:
		return nil, eris.Wrapf(ErrMalformedPayload, "coding: unsupported payload type %T", raw)
	}
}

// NormalizeText decodes a textual payload and normalizes it.
func (n *Normalizer) NormalizeText(text string) (*CodingAnalysis, error) {
	if strings.TrimSpace(text) == "" {
		return nil, eris.Wrap(ErrEmptyUpstreamResponse, "coding: normalize")
	}
	doc, err := decode(StripFence(text))
	if err != nil {
		return nil, err
	}
	return n.fromMap(doc)
}

// StripFence removes a leading fence (with an optional language tag such as
// "json") and a trailing fence from text.
func StripFence(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, fence) {
		text = strings.TrimPrefix(text, fence)
		firstLine, rest, found := strings.Cut(text, "\n")
		if found && langTag.MatchString(strings.TrimSpace(firstLine)) {
			text = rest
		} else if !found && langTag.MatchString(strings.TrimSpace(strings.TrimSuffix(firstLine, fence))) {
			// An empty block such as "```json```".
			text = ""
		}
	}
	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, fence)
	return strings.TrimSpace(text)
}

// decode parses text as structured data. Prose around a single object is
// tolerated by retrying on the outermost braces. The retry also runs when
// the whole text decodes but has neither a summary nor codes, since
// "Result: {...}" is itself a valid YAML mapping.
func decode(text string) (map[string]any, error) {
	doc, err := decodeMapping(text)
	if err == nil && hasAnalysisKeys(doc) {
		return doc, nil
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start && (start > 0 || end < len(text)-1) {
		if inner, innerErr := decodeMapping(text[start : end+1]); innerErr == nil && hasAnalysisKeys(inner) {
			return inner, nil
		}
	}
	return doc, err
}

func hasAnalysisKeys(doc map[string]any) bool {
	_, hasSummary := lookup(doc, keySummary)
	_, hasCodes := lookup(doc, keyCodes)
	return hasSummary || hasCodes
}

func decodeMapping(text string) (map[string]any, error) {
	if text == "" {
		return nil, eris.Wrap(ErrMalformedPayload, "coding: payload is empty after fence stripping")
	}
	var doc map[string]any
	// Repeated keys are valid JSON; the last value wins.
	if err := yaml.UnmarshalWithOptions([]byte(text), &doc, yaml.AllowDuplicateMapKey()); err != nil {
		return nil, eris.Wrapf(ErrMalformedPayload, "coding: decode payload: %v", err)
	}
	if doc == nil {
		return nil, eris.Wrap(ErrMalformedPayload, "coding: payload is not a mapping")
	}
	return doc, nil
}

func (n *Normalizer) fromMap(doc map[string]any) (*CodingAnalysis, error) {
	summary, ok := lookup(doc, keySummary)
	if !ok {
		return nil, eris.Wrapf(ErrMissingRequiredField, "coding: %q", "summary")
	}
	rawCodes, ok := lookup(doc, keyCodes)
	if !ok {
		return nil, eris.Wrapf(ErrMissingRequiredField, "coding: %q", "codes")
	}
	codeList, ok := rawCodes.([]any)
	if !ok {
		return nil, eris.Wrapf(ErrMissingRequiredField, "coding: %q is %T, not a sequence", "codes", rawCodes)
	}

	analysis := &CodingAnalysis{
		Summary:             stringify(summary),
		MedicalNecessity:    field(doc, keyMedicalNecessity),
		Codes:               make([]CodeEntry, 0, len(codeList)),
		ExcludedCodes:       []ExcludedCode{},
		QueriesForPhysician: stringList(valueOf(doc, keyQueries)),
	}

	for _, item := range codeList {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		analysis.Codes = append(analysis.Codes, n.codeEntry(m))
	}

	if excluded, ok := valueOf(doc, keyExcludedCodes).([]any); ok {
		for _, item := range excluded {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			analysis.ExcludedCodes = append(analysis.ExcludedCodes, ExcludedCode{
				Code:        field(m, keyCode),
				Description: field(m, keyDescription),
				Reason:      field(m, keyReason),
			})
		}
	}

	return analysis, nil
}

func (n *Normalizer) codeEntry(m map[string]any) CodeEntry {
	return CodeEntry{
		ID:                n.alloc.Next("code"),
		Entity:            field(m, keyEntity),
		Type:              codeType(field(m, keyType)),
		Code:              field(m, keyCode),
		Description:       field(m, keyDescription),
		ConfidenceScore:   field(m, keyConfidenceScore),
		Evidence:          field(m, keyEvidence),
		Reasoning:         field(m, keyReasoning),
		HierarchicalLogic: stringList(valueOf(m, keyHierarchicalLogic)),
		ModifierApplied:   field(m, keyModifierApplied),
		ModifierReasoning: field(m, keyModifierReasoning),
	}
}

// codeType canonicalizes common spellings of the two known code systems.
// Unknown values are kept verbatim so the contract check can report them.
func codeType(s string) CodeType {
	switch strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), " ", "")) {
	case "ICD-10", "ICD10", "ICD-10-CM", "ICD10CM":
		return CodeTypeICD10
	case "CPT", "CPT-4", "CPT4":
		return CodeTypeCPT
	}
	return CodeType(s)
}

// lookup returns the first non-null value stored under one of keys.
func lookup(m map[string]any, keys []string) (any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func valueOf(m map[string]any, keys []string) any {
	v, _ := lookup(m, keys)
	return v
}

func field(m map[string]any, keys []string) string {
	return stringify(valueOf(m, keys))
}

// stringList coerces v into a list of strings: sequences are converted
// element by element, a single value becomes a one-element list and an
// absent value an empty list.
func stringList(v any) []string {
	switch t := v.(type) {
	case nil:
		return []string{}
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if item == nil {
				continue
			}
			out = append(out, stringify(item))
		}
		return out
	case []string:
		return append([]string{}, t...)
	default:
		return []string{stringify(t)}
	}
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case map[string]any, []any:
		out, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(out)
	default:
		return fmt.Sprint(t)
	}
}
