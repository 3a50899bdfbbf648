package step

import "fmt"

// RulesResult is the rules evaluation for one section. It is produced once
// per step by the RulesEvaluator capability and cached by
// (sectionNumber, content fingerprint).
type RulesResult struct {
	needsDice             bool
	diceKind              string
	conditions            []string
	nextSectionCandidates []int
	summary               string
}

// NewRulesResult creates a validated rules result.
// Candidates are kept in priority order; the first entry is authoritative
// when nothing downstream disambiguates.
func NewRulesResult(needsDice bool, diceKind string, conditions []string, candidates []int, summary string) (*RulesResult, error) {
	if needsDice && diceKind == "" {
		return nil, fmt.Errorf("dice kind is required when dice are needed")
	}
	if !needsDice && diceKind != "" {
		return nil, fmt.Errorf("dice kind %q given but dice are not needed", diceKind)
	}
	for _, c := range candidates {
		if c <= 0 {
			return nil, fmt.Errorf("section candidates must be positive, got %d", c)
		}
	}

	return &RulesResult{
		needsDice:             needsDice,
		diceKind:              diceKind,
		conditions:            dedupe(conditions),
		nextSectionCandidates: append([]int(nil), candidates...),
		summary:               summary,
	}, nil
}

// NeedsDice reports whether the section demands a dice roll
func (r *RulesResult) NeedsDice() bool {
	return r.needsDice
}

// DiceKind returns the dice kind demanded, empty when none
func (r *RulesResult) DiceKind() string {
	return r.diceKind
}

// Conditions returns the rule conditions attached to the section
func (r *RulesResult) Conditions() []string {
	return append([]string(nil), r.conditions...)
}

// NextSectionCandidates returns candidate next sections in priority order
func (r *RulesResult) NextSectionCandidates() []int {
	return append([]int(nil), r.nextSectionCandidates...)
}

// FirstCandidate returns the highest-priority candidate, if any
func (r *RulesResult) FirstCandidate() (int, bool) {
	if len(r.nextSectionCandidates) == 0 {
		return 0, false
	}
	return r.nextSectionCandidates[0], true
}

// Summary returns the human-readable rules summary
func (r *RulesResult) Summary() string {
	return r.summary
}

// dedupe removes duplicates while preserving first-seen order
func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
