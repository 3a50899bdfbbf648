// Package book models the gamebook: numbered sections of narrative content
// with optional static rule tables that drive the offline rules engine.
package book

import (
	"fmt"

	"github.com/fablestep/fablestep/internal/domain/model/dice"
)

// Target is one candidate next section, optionally labeled so a player
// choice can select it by name ("go left", "fight", ...)
type Target struct {
	Section int
	Label   string
}

// RuleTable is the static rule attached to a section. Targets are listed
// in priority order; when a dice roll is demanded, a roll meeting the
// threshold selects the first target, a failing roll the second.
type RuleTable struct {
	NeedsDice    bool
	DiceKind     string
	DiceModifier int
	Threshold    int
	Conditions   []string
	Targets      []Target
}

// Section is one numbered story section
type Section struct {
	Number  int
	Title   string
	Content string
	Rule    RuleTable
	Ending  bool
}

// Validate checks the section for internal consistency
func (s Section) Validate() error {
	if s.Number <= 0 {
		return fmt.Errorf("section number must be positive, got %d", s.Number)
	}
	if s.Content == "" {
		return fmt.Errorf("section %d has no content", s.Number)
	}
	if !s.Ending && len(s.Rule.Targets) == 0 {
		return fmt.Errorf("section %d has no targets and is not an ending", s.Number)
	}
	if s.Rule.NeedsDice {
		if !dice.KnownKind(s.Rule.DiceKind) {
			return fmt.Errorf("section %d demands unknown dice kind %q", s.Number, s.Rule.DiceKind)
		}
		if len(s.Rule.Targets) < 2 {
			return fmt.Errorf("section %d demands dice but has fewer than two targets", s.Number)
		}
	}
	for _, t := range s.Rule.Targets {
		if t.Section <= 0 {
			return fmt.Errorf("section %d has invalid target %d", s.Number, t.Section)
		}
	}
	return nil
}

// TargetSections returns the target section numbers in priority order
func (s Section) TargetSections() []int {
	out := make([]int, 0, len(s.Rule.Targets))
	for _, t := range s.Rule.Targets {
		out = append(out, t.Section)
	}
	return out
}

// FindTarget matches a player choice against target labels.
// Matching is exact on the label; an empty choice matches nothing.
func (s Section) FindTarget(choice string) (Target, bool) {
	if choice == "" {
		return Target{}, false
	}
	for _, t := range s.Rule.Targets {
		if t.Label == choice {
			return t, true
		}
	}
	return Target{}, false
}
