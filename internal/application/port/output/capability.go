// Package output defines the outbound capability contracts the
// orchestration core consumes. Concrete LLM-backed or rule-table-backed
// implementations are swappable without touching the orchestrator.
package output

import (
	"context"

	"github.com/fablestep/fablestep/internal/domain/model/dice"
	"github.com/fablestep/fablestep/internal/domain/model/step"
)

// RulesEvaluator evaluates the game rules for one section's content
type RulesEvaluator interface {
	// Evaluate produces the rules result for a section.
	// Pure with respect to (sectionNumber, content): repeated calls for
	// the same content fingerprint must be interchangeable, which is
	// what makes caching and conflict retries safe.
	Evaluate(ctx context.Context, sectionNumber int, content string) (*step.RulesResult, error)
}

// NarrativeRenderer renders the player-facing narrative for one section
type NarrativeRenderer interface {
	// Render produces the narrative text for a section.
	// Pure with respect to (sectionNumber, content), like Evaluate.
	Render(ctx context.Context, sectionNumber int, content string) (string, error)
}

// ResolveRequest is the merged decision context handed to the resolver
type ResolveRequest struct {
	SectionNumber int
	Rules         *step.RulesResult
	Input         step.PlayerInput
	Dice          *dice.Outcome // nil when no outcome has been supplied
}

// DecisionResolver resolves the player's decision against the rules
type DecisionResolver interface {
	// Resolve produces the decision for a step. When the rules demand a
	// dice roll and req.Dice is nil, the resolver must return a decision
	// awaiting a dice roll with no next section.
	Resolve(ctx context.Context, req ResolveRequest) (*step.DecisionResult, error)
}
