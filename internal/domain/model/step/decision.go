package step

import "fmt"

// AwaitingAction describes what, if anything, the step is paused on
type AwaitingAction string

const (
	AwaitingNone      AwaitingAction = "none"
	AwaitingUserInput AwaitingAction = "user_input"
	AwaitingDiceRoll  AwaitingAction = "dice_roll"
)

// String returns the string representation of the awaiting action
func (a AwaitingAction) String() string {
	return string(a)
}

// IsValid returns true if the awaiting action is a known value
func (a AwaitingAction) IsValid() bool {
	switch a {
	case AwaitingNone, AwaitingUserInput, AwaitingDiceRoll:
		return true
	default:
		return false
	}
}

// DecisionResult is the resolved decision for one step
type DecisionResult struct {
	nextSection       int
	hasNextSection    bool
	awaiting          AwaitingAction
	conditionsApplied []string
	analysis          string
}

// NewDecisionResult creates a validated decision result.
// A decision awaiting a dice roll may not carry a next section: the step
// has not been resolved yet.
func NewDecisionResult(nextSection int, hasNextSection bool, awaiting AwaitingAction, conditionsApplied []string, analysis string) (*DecisionResult, error) {
	if awaiting == "" {
		awaiting = AwaitingNone
	}
	if !awaiting.IsValid() {
		return nil, fmt.Errorf("invalid awaiting action: %q", awaiting)
	}
	if awaiting == AwaitingDiceRoll && hasNextSection {
		return nil, fmt.Errorf("decision awaiting dice roll may not name a next section")
	}
	if hasNextSection && nextSection <= 0 {
		return nil, fmt.Errorf("next section must be positive, got %d", nextSection)
	}

	return &DecisionResult{
		nextSection:       nextSection,
		hasNextSection:    hasNextSection,
		awaiting:          awaiting,
		conditionsApplied: dedupe(conditionsApplied),
		analysis:          analysis,
	}, nil
}

// NextSection returns the decided next section, if the decision named one
func (d *DecisionResult) NextSection() (int, bool) {
	if !d.hasNextSection {
		return 0, false
	}
	return d.nextSection, true
}

// Awaiting returns what the decision is paused on
func (d *DecisionResult) Awaiting() AwaitingAction {
	return d.awaiting
}

// ConditionsApplied returns the conditions the decision applied
func (d *DecisionResult) ConditionsApplied() []string {
	return append([]string(nil), d.conditionsApplied...)
}

// Analysis returns the human-readable decision analysis
func (d *DecisionResult) Analysis() string {
	return d.analysis
}
