// Package step defines the value types flowing through one orchestrated
// step transition: the phase state machine, evaluator results, the player
// input, and the step error taxonomy.
package step

// Phase represents the orchestrator's position inside one step transition
type Phase string

const (
	PhaseStart        Phase = "start"
	PhaseEvaluating   Phase = "evaluating"
	PhaseDeciding     Phase = "deciding"
	PhaseAwaitingDice Phase = "awaiting_dice"
	PhaseRecording    Phase = "recording"
	PhaseCommitted    Phase = "committed"
)

// String returns the string representation of the phase
func (p Phase) String() string {
	return string(p)
}

// IsValid returns true if the phase is a known phase
func (p Phase) IsValid() bool {
	switch p {
	case PhaseStart, PhaseEvaluating, PhaseDeciding,
		PhaseAwaitingDice, PhaseRecording, PhaseCommitted:
		return true
	default:
		return false
	}
}

// IsTerminal returns true if no further transition is possible within the step
func (p Phase) IsTerminal() bool {
	return p == PhaseCommitted
}

// IsSuspension returns true if the phase pauses the step across calls.
// An awaiting-dice step holds no server-side call state: the suspension
// lives entirely in the returned, uncommitted game state.
func (p Phase) IsSuspension() bool {
	return p == PhaseAwaitingDice
}

// CanTransitionTo validates if transition to the next phase is allowed
func (p Phase) CanTransitionTo(next Phase) bool {
	validTransitions := map[Phase][]Phase{
		PhaseStart:        {PhaseEvaluating},
		PhaseEvaluating:   {PhaseDeciding},
		PhaseDeciding:     {PhaseAwaitingDice, PhaseRecording},
		PhaseAwaitingDice: {PhaseDeciding}, // resumed with a supplied dice outcome
		PhaseRecording:    {PhaseCommitted},
		PhaseCommitted:    {},              // no transitions from committed
	}

	allowed, exists := validTransitions[p]
	if !exists {
		return false
	}

	for _, validNext := range allowed {
		if validNext == next {
			return true
		}
	}

	return false
}
