// Package agent provides the concrete capability implementations behind
// the orchestrator's ports: the offline rule-table engine driven by the
// book itself, and the LLM-backed engine calling an external API.
package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/fablestep/fablestep/internal/application/port/output"
	"github.com/fablestep/fablestep/internal/domain/model/step"
	"github.com/fablestep/fablestep/internal/domain/repository"
)

// TableGateway implements RulesEvaluator, NarrativeRenderer, and
// DecisionResolver from the static rule tables embedded in the book.
// It is fully deterministic and needs no network, which makes it both the
// offline play engine and the reference behavior for tests.
type TableGateway struct {
	books repository.BookRepository
}

// NewTableGateway creates a rule-table capability engine
func NewTableGateway(books repository.BookRepository) *TableGateway {
	return &TableGateway{books: books}
}

var (
	_ output.RulesEvaluator    = (*TableGateway)(nil)
	_ output.NarrativeRenderer = (*TableGateway)(nil)
	_ output.DecisionResolver  = (*TableGateway)(nil)
)

// Evaluate produces the rules result from the section's rule table
func (g *TableGateway) Evaluate(ctx context.Context, sectionNumber int, content string) (*step.RulesResult, error) {
	section, err := g.books.FindSection(ctx, sectionNumber)
	if err != nil {
		return nil, err
	}

	summary := fmt.Sprintf("section %d: %d candidate targets", sectionNumber, len(section.Rule.Targets))
	if section.Rule.NeedsDice {
		summary += fmt.Sprintf(", %s roll against %d", section.Rule.DiceKind, section.Rule.Threshold)
	}

	return step.NewRulesResult(
		section.Rule.NeedsDice,
		section.Rule.DiceKind,
		section.Rule.Conditions,
		section.TargetSections(),
		summary,
	)
}

// Render produces the narrative: title, content, and the visible choices
func (g *TableGateway) Render(ctx context.Context, sectionNumber int, content string) (string, error) {
	section, err := g.books.FindSection(ctx, sectionNumber)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	if section.Title != "" {
		fmt.Fprintf(&b, "%s\n\n", section.Title)
	}
	b.WriteString(strings.TrimSpace(content))

	labeled := make([]string, 0, len(section.Rule.Targets))
	for _, t := range section.Rule.Targets {
		if t.Label != "" {
			labeled = append(labeled, t.Label)
		}
	}
	if len(labeled) > 0 {
		fmt.Fprintf(&b, "\n\nChoices: %s", strings.Join(labeled, " | "))
	}

	return b.String(), nil
}

// Resolve decides the next section from the rule table.
//
// Dice sections suspend until an outcome is supplied, then pick the first
// target on a roll meeting the threshold and the second otherwise. Choice
// sections match the player's choice against target labels; an unmatched
// or empty choice yields no next section, leaving the tie-break to the
// orchestrator's candidate-order contract.
func (g *TableGateway) Resolve(ctx context.Context, req output.ResolveRequest) (*step.DecisionResult, error) {
	section, err := g.books.FindSection(ctx, req.SectionNumber)
	if err != nil {
		return nil, err
	}

	if req.Rules.NeedsDice() {
		if req.Dice == nil {
			return step.NewDecisionResult(0, false, step.AwaitingDiceRoll, nil,
				fmt.Sprintf("a %s roll is required", req.Rules.DiceKind()))
		}

		candidates := req.Rules.NextSectionCandidates()
		if len(candidates) < 2 {
			return nil, fmt.Errorf("dice section %d has fewer than two candidates", req.SectionNumber)
		}

		if req.Dice.Value() >= section.Rule.Threshold {
			return step.NewDecisionResult(candidates[0], true, step.AwaitingNone, nil,
				fmt.Sprintf("rolled %d against %d: success", req.Dice.Value(), section.Rule.Threshold))
		}
		return step.NewDecisionResult(candidates[1], true, step.AwaitingNone, nil,
			fmt.Sprintf("rolled %d against %d: failure", req.Dice.Value(), section.Rule.Threshold))
	}

	if target, ok := section.FindTarget(req.Input.Choice()); ok {
		return step.NewDecisionResult(target.Section, true, step.AwaitingNone, nil,
			fmt.Sprintf("chose %q", req.Input.Choice()))
	}

	return step.NewDecisionResult(0, false, step.AwaitingNone, nil,
		"no matching choice, deferring to candidate order")
}
