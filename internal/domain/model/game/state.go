// Package game defines the immutable game state and its value types.
//
// A State is created once per committed step and never mutated. Transitions
// produce a new value built from the prior one plus the step's outputs, so
// two readers can never observe a half-applied step.
package game

import (
	"fmt"

	"github.com/fablestep/fablestep/internal/domain/model/dice"
	"github.com/fablestep/fablestep/internal/domain/model/step"
	"github.com/fablestep/fablestep/internal/domain/model/trace"
)

// State is one immutable snapshot of a game
type State struct {
	id            ID
	version       int
	sectionNumber int
	stats         CharacterStats
	inventory     Inventory
	rules         *step.RulesResult
	decision      *step.DecisionResult
	narrative     string
	pendingDice   dice.Request
	history       []trace.Entry
}

// NewState creates the initial state of a game at version 0
func NewState(id ID, startSection int, stats CharacterStats, inventory Inventory) (*State, error) {
	if id == "" {
		return nil, fmt.Errorf("game ID is required")
	}
	if startSection <= 0 {
		return nil, fmt.Errorf("start section must be positive, got %d", startSection)
	}
	return &State{
		id:            id,
		version:       0,
		sectionNumber: startSection,
		stats:         stats,
		inventory:     inventory,
	}, nil
}

// ID returns the game ID
func (s *State) ID() ID {
	return s.id
}

// Version returns the monotonically increasing state version
func (s *State) Version() int {
	return s.version
}

// SectionNumber returns the current story section
func (s *State) SectionNumber() int {
	return s.sectionNumber
}

// Stats returns the character stats
func (s *State) Stats() CharacterStats {
	return s.stats
}

// Inventory returns the inventory
func (s *State) Inventory() Inventory {
	return s.inventory
}

// Rules returns the rules result of the step that produced this state
func (s *State) Rules() *step.RulesResult {
	return s.rules
}

// Decision returns the decision result of the step that produced this state
func (s *State) Decision() *step.DecisionResult {
	return s.decision
}

// Narrative returns the rendered narrative for the current section
func (s *State) Narrative() string {
	return s.narrative
}

// PendingDice returns the dice request a suspended step is waiting on
func (s *State) PendingDice() (dice.Request, bool) {
	if s.pendingDice.IsZero() {
		return dice.Request{}, false
	}
	return s.pendingDice, true
}

// IsAwaitingDice reports whether the state is a suspended two-phase step
func (s *State) IsAwaitingDice() bool {
	return !s.pendingDice.IsZero()
}

// History returns a copy of the append-only trace history
func (s *State) History() []trace.Entry {
	return append([]trace.Entry(nil), s.history...)
}

// HistoryLen returns the number of trace entries without copying
func (s *State) HistoryLen() int {
	return len(s.history)
}

// Transition carries the merged outputs of one step about to commit
type Transition struct {
	NextSection int
	Rules       *step.RulesResult
	Decision    *step.DecisionResult
	Narrative   string
	Effects     step.Effects
	Entry       trace.Entry
}

// Apply produces the successor state: version incremented by exactly one,
// section moved, effects applied with stats capped at their ceilings, the
// trace entry appended, and any dice suspension cleared.
func (s *State) Apply(t Transition) (*State, error) {
	if t.NextSection <= 0 {
		return nil, fmt.Errorf("next section must be positive, got %d", t.NextSection)
	}
	if t.Entry.PreviousVersion() != s.version {
		return nil, fmt.Errorf("trace entry targets version %d, state is at %d",
			t.Entry.PreviousVersion(), s.version)
	}

	stats, err := s.stats.ApplyDeltas(t.Effects.StatDeltas)
	if err != nil {
		return nil, fmt.Errorf("apply stat deltas: %w", err)
	}

	inventory := s.inventory
	for _, item := range t.Effects.AddItems {
		inventory = inventory.Add(item)
	}
	for _, item := range t.Effects.RemoveItems {
		inventory = inventory.Remove(item)
	}

	history := make([]trace.Entry, 0, len(s.history)+1)
	history = append(history, s.history...)
	history = append(history, t.Entry)

	return &State{
		id:            s.id,
		version:       s.version + 1,
		sectionNumber: t.NextSection,
		stats:         stats,
		inventory:     inventory,
		rules:         t.Rules,
		decision:      t.Decision,
		narrative:     t.Narrative,
		history:       history,
	}, nil
}

// AwaitDice produces the uncommitted suspension state of a two-phase step:
// same version, no trace entry, pending dice request set. The caller must
// supply a dice outcome on the next call to complete the step.
func (s *State) AwaitDice(req dice.Request, rules *step.RulesResult, decision *step.DecisionResult, narrative string) (*State, error) {
	if req.IsZero() {
		return nil, fmt.Errorf("pending dice request is required")
	}
	if decision == nil || decision.Awaiting() != step.AwaitingDiceRoll {
		return nil, fmt.Errorf("suspension requires a decision awaiting a dice roll")
	}

	return &State{
		id:            s.id,
		version:       s.version,
		sectionNumber: s.sectionNumber,
		stats:         s.stats,
		inventory:     s.inventory,
		rules:         rules,
		decision:      decision,
		narrative:     narrative,
		pendingDice:   req,
		history:       append([]trace.Entry(nil), s.history...),
	}, nil
}

// Summary returns a one-line description for event notifications
func (s *State) Summary() string {
	suffix := ""
	if s.IsAwaitingDice() {
		suffix = fmt.Sprintf(" (awaiting %s dice)", s.pendingDice.Kind())
	}
	return fmt.Sprintf("v%d section %d, %d trace entries%s",
		s.version, s.sectionNumber, len(s.history), suffix)
}
