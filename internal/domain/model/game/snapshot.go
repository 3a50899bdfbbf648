package game

import (
	"fmt"
	"time"

	"github.com/fablestep/fablestep/internal/domain/model/dice"
	"github.com/fablestep/fablestep/internal/domain/model/step"
	"github.com/fablestep/fablestep/internal/domain/model/trace"
)

// Snapshot is the persistence representation of a State. Repositories
// serialize snapshots; the domain model itself stays free of struct tags.
type Snapshot struct {
	ID            string               `json:"id"`
	Version       int                  `json:"version"`
	SectionNumber int                  `json:"section_number"`
	StatValues    map[string]int       `json:"stat_values"`
	StatMaxima    map[string]int       `json:"stat_maxima"`
	Inventory     []string             `json:"inventory"`
	Rules         *RulesSnapshot       `json:"rules,omitempty"`
	Decision      *DecisionSnapshot    `json:"decision,omitempty"`
	Narrative     string               `json:"narrative,omitempty"`
	PendingDice   *DiceRequestSnapshot `json:"pending_dice,omitempty"`
	History       []TraceEntrySnapshot `json:"history"`
}

// RulesSnapshot is the persistence form of a step.RulesResult
type RulesSnapshot struct {
	NeedsDice  bool     `json:"needs_dice"`
	DiceKind   string   `json:"dice_kind,omitempty"`
	Conditions []string `json:"conditions,omitempty"`
	Candidates []int    `json:"candidates,omitempty"`
	Summary    string   `json:"summary,omitempty"`
}

// DecisionSnapshot is the persistence form of a step.DecisionResult
type DecisionSnapshot struct {
	NextSection       int      `json:"next_section,omitempty"`
	HasNextSection    bool     `json:"has_next_section"`
	Awaiting          string   `json:"awaiting"`
	ConditionsApplied []string `json:"conditions_applied,omitempty"`
	Analysis          string   `json:"analysis,omitempty"`
}

// DiceRequestSnapshot is the persistence form of a dice.Request
type DiceRequestSnapshot struct {
	Kind     string `json:"kind"`
	Modifier int    `json:"modifier,omitempty"`
}

// TraceEntrySnapshot is the persistence form of a trace.Entry
type TraceEntrySnapshot struct {
	ID              string                 `json:"id"`
	Timestamp       time.Time              `json:"ts"`
	SectionNumber   int                    `json:"section_number"`
	Kind            string                 `json:"kind"`
	Payload         map[string]interface{} `json:"payload,omitempty"`
	PreviousVersion int                    `json:"previous_version"`
}

// Snapshot converts the state into its persistence representation
func (s *State) Snapshot() Snapshot {
	snap := Snapshot{
		ID:            s.id.String(),
		Version:       s.version,
		SectionNumber: s.sectionNumber,
		StatValues:    s.stats.Values(),
		StatMaxima:    s.stats.Maxima(),
		Inventory:     s.inventory.Items(),
		Narrative:     s.narrative,
		History:       make([]TraceEntrySnapshot, 0, len(s.history)),
	}

	if s.rules != nil {
		snap.Rules = &RulesSnapshot{
			NeedsDice:  s.rules.NeedsDice(),
			DiceKind:   s.rules.DiceKind(),
			Conditions: s.rules.Conditions(),
			Candidates: s.rules.NextSectionCandidates(),
			Summary:    s.rules.Summary(),
		}
	}

	if s.decision != nil {
		next, hasNext := s.decision.NextSection()
		snap.Decision = &DecisionSnapshot{
			NextSection:       next,
			HasNextSection:    hasNext,
			Awaiting:          s.decision.Awaiting().String(),
			ConditionsApplied: s.decision.ConditionsApplied(),
			Analysis:          s.decision.Analysis(),
		}
	}

	if !s.pendingDice.IsZero() {
		snap.PendingDice = &DiceRequestSnapshot{
			Kind:     s.pendingDice.Kind(),
			Modifier: s.pendingDice.Modifier(),
		}
	}

	for _, e := range s.history {
		snap.History = append(snap.History, TraceEntrySnapshot{
			ID:              e.ID(),
			Timestamp:       e.Timestamp(),
			SectionNumber:   e.SectionNumber(),
			Kind:            e.Kind().String(),
			Payload:         e.Payload(),
			PreviousVersion: e.PreviousVersion(),
		})
	}

	return snap
}

// FromSnapshot reconstructs a State from its persistence representation
func FromSnapshot(snap Snapshot) (*State, error) {
	id, err := ParseID(snap.ID)
	if err != nil {
		return nil, err
	}
	if snap.Version < 0 {
		return nil, fmt.Errorf("version must be non-negative, got %d", snap.Version)
	}
	if snap.SectionNumber <= 0 {
		return nil, fmt.Errorf("section number must be positive, got %d", snap.SectionNumber)
	}

	stats, err := RestoreCharacterStats(snap.StatValues, snap.StatMaxima)
	if err != nil {
		return nil, fmt.Errorf("restore stats: %w", err)
	}

	state := &State{
		id:            id,
		version:       snap.Version,
		sectionNumber: snap.SectionNumber,
		stats:         stats,
		inventory:     NewInventory(snap.Inventory...),
		narrative:     snap.Narrative,
	}

	if snap.Rules != nil {
		rules, err := step.NewRulesResult(snap.Rules.NeedsDice, snap.Rules.DiceKind,
			snap.Rules.Conditions, snap.Rules.Candidates, snap.Rules.Summary)
		if err != nil {
			return nil, fmt.Errorf("restore rules result: %w", err)
		}
		state.rules = rules
	}

	if snap.Decision != nil {
		decision, err := step.NewDecisionResult(snap.Decision.NextSection, snap.Decision.HasNextSection,
			step.AwaitingAction(snap.Decision.Awaiting), snap.Decision.ConditionsApplied, snap.Decision.Analysis)
		if err != nil {
			return nil, fmt.Errorf("restore decision result: %w", err)
		}
		state.decision = decision
	}

	if snap.PendingDice != nil {
		req, err := dice.NewRequest(snap.PendingDice.Kind, snap.PendingDice.Modifier)
		if err != nil {
			return nil, fmt.Errorf("restore pending dice: %w", err)
		}
		state.pendingDice = req
	}

	for _, es := range snap.History {
		entry, err := trace.Restore(es.ID, es.Timestamp, es.SectionNumber,
			trace.Kind(es.Kind), es.Payload, es.PreviousVersion)
		if err != nil {
			return nil, fmt.Errorf("restore trace entry: %w", err)
		}
		state.history = append(state.history, entry)
	}

	return state, nil
}
