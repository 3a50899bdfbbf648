// Package usecase implements the application use cases. StepUseCase is the
// workflow orchestrator: it drives exactly one atomic step transition from
// (state, player input) to a new committed state, or a typed failure, and
// never leaves the state store partially updated.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fablestep/fablestep/internal/app"
	"github.com/fablestep/fablestep/internal/application/dto"
	"github.com/fablestep/fablestep/internal/application/port/output"
	"github.com/fablestep/fablestep/internal/application/service"
	"github.com/fablestep/fablestep/internal/domain/model/book"
	"github.com/fablestep/fablestep/internal/domain/model/dice"
	"github.com/fablestep/fablestep/internal/domain/model/game"
	"github.com/fablestep/fablestep/internal/domain/model/step"
	"github.com/fablestep/fablestep/internal/domain/model/trace"
	"github.com/fablestep/fablestep/internal/domain/repository"
)

// StepConfig holds the orchestration limits
type StepConfig struct {
	EvalTimeout      time.Duration // per-evaluator timeout
	MaxCommitRetries int           // bounded rebase retries on commit conflict
}

// DefaultStepConfig returns the default orchestration limits
func DefaultStepConfig() StepConfig {
	return StepConfig{
		EvalTimeout:      60 * time.Second,
		MaxCommitRetries: 3,
	}
}

// StepUseCase orchestrates one step of the game
type StepUseCase struct {
	states    repository.StateRepository
	books     repository.BookRepository
	rules     output.RulesEvaluator
	narrative output.NarrativeRenderer
	decision  output.DecisionResolver
	recorder  output.TraceRecorder
	cache     *service.ContentCache
	notifier  *service.Notifier
	logger    app.Logger
	config    StepConfig
}

// NewStepUseCase creates the orchestrator with its collaborators.
// Everything is passed explicitly so tests can construct isolated
// instances; there is no ambient lookup.
func NewStepUseCase(
	states repository.StateRepository,
	books repository.BookRepository,
	rules output.RulesEvaluator,
	narrative output.NarrativeRenderer,
	decision output.DecisionResolver,
	recorder output.TraceRecorder,
	cache *service.ContentCache,
	notifier *service.Notifier,
	logger app.Logger,
	config StepConfig,
) *StepUseCase {
	if logger == nil {
		logger = app.GetLogger()
	}
	if config.EvalTimeout <= 0 {
		config.EvalTimeout = DefaultStepConfig().EvalTimeout
	}
	if config.MaxCommitRetries < 0 {
		config.MaxCommitRetries = 0
	}
	return &StepUseCase{
		states:    states,
		books:     books,
		rules:     rules,
		narrative: narrative,
		decision:  decision,
		recorder:  recorder,
		cache:     cache,
		notifier:  notifier,
		logger:    logger,
		config:    config,
	}
}

// Execute runs one step. Version-pinned inputs fail fast on any version
// mismatch; head-targeting inputs are rebased and re-evaluated up to the
// configured bound when a commit conflict is detected (evaluator outputs
// for an unchanged fingerprint are idempotent, so recomputing is safe).
func (uc *StepUseCase) Execute(ctx context.Context, in dto.StepInput) (*dto.StepOutput, error) {
	gameID, err := game.ParseID(in.GameID)
	if err != nil {
		return nil, step.NewValidationError("invalid game ID: %v", err)
	}

	input, err := uc.buildInput(in)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt <= uc.config.MaxCommitRetries; attempt++ {
		out, err := uc.runStep(ctx, gameID, input, in.Dice)
		if err == nil {
			return out, nil
		}
		if !step.IsConflict(err) || !input.TargetsHead() {
			return nil, err
		}
		lastErr = err
		uc.logger.Debug("commit conflict on game %s, attempt %d/%d",
			gameID, attempt+1, uc.config.MaxCommitRetries)
	}
	return nil, lastErr
}

func (uc *StepUseCase) buildInput(in dto.StepInput) (step.PlayerInput, error) {
	if in.TargetVersion == step.TargetHead {
		return step.NewHeadInput(in.Choice), nil
	}
	input, err := step.NewPlayerInput(in.Choice, in.TargetVersion)
	if err != nil {
		return step.PlayerInput{}, step.NewValidationError("invalid player input: %v", err)
	}
	return input, nil
}

// stepRun carries the working data of one step attempt through the phase
// machine. Each phase reads what earlier phases produced; the run is
// discarded wholesale on failure, so no partial result ever escapes.
type stepRun struct {
	phase     step.Phase
	input     step.PlayerInput
	dice      *dice.Outcome
	current   *game.State
	section   book.Section
	rules     *step.RulesResult
	narrative string
	decision  *step.DecisionResult
	next      *game.State
	entry     trace.Entry
	suspended bool
}

// advance moves the run to the next phase, enforcing the transition table
func (r *stepRun) advance(next step.Phase) error {
	if !r.phase.CanTransitionTo(next) {
		return fmt.Errorf("illegal phase transition %s -> %s", r.phase, next)
	}
	r.phase = next
	return nil
}

// runStep drives one attempt through the explicit phase machine:
// start -> evaluating -> deciding -> (awaiting_dice | recording -> committed)
func (uc *StepUseCase) runStep(ctx context.Context, gameID game.ID, input step.PlayerInput, outcome *dice.Outcome) (*dto.StepOutput, error) {
	run := &stepRun{phase: step.PhaseStart, input: input, dice: outcome}

	for {
		switch run.phase {
		case step.PhaseStart:
			if err := uc.loadAndValidate(ctx, gameID, run); err != nil {
				return nil, err
			}
			if err := run.advance(step.PhaseEvaluating); err != nil {
				return nil, err
			}

		case step.PhaseEvaluating:
			if err := uc.evaluate(ctx, run); err != nil {
				return nil, err
			}
			if err := run.advance(step.PhaseDeciding); err != nil {
				return nil, err
			}

		case step.PhaseDeciding:
			if err := uc.decide(ctx, run); err != nil {
				return nil, err
			}
			if run.suspended {
				if err := run.advance(step.PhaseAwaitingDice); err != nil {
					return nil, err
				}
			} else if err := run.advance(step.PhaseRecording); err != nil {
				return nil, err
			}

		case step.PhaseAwaitingDice:
			return uc.suspend(run)

		case step.PhaseRecording:
			if err := uc.commit(ctx, gameID, run); err != nil {
				return nil, err
			}
			if err := run.advance(step.PhaseCommitted); err != nil {
				return nil, err
			}

		case step.PhaseCommitted:
			uc.record(ctx, gameID, run)
			return &dto.StepOutput{
				State:     run.next,
				Committed: true,
				Phase:     step.PhaseCommitted,
			}, nil

		default:
			return nil, fmt.Errorf("unknown phase: %s", run.phase)
		}
	}
}

// loadAndValidate reads the current state and checks the input targets it
func (uc *StepUseCase) loadAndValidate(ctx context.Context, gameID game.ID, run *stepRun) error {
	current, err := uc.states.Get(ctx, gameID)
	if err != nil {
		return err
	}

	if run.input.TargetsHead() {
		run.input = run.input.Rebase(current.Version())
	} else if run.input.TargetVersion() != current.Version() {
		return step.NewConflictError("input targets version %d, game is at version %d",
			run.input.TargetVersion(), current.Version())
	}

	section, err := uc.books.FindSection(ctx, current.SectionNumber())
	if err != nil {
		return err
	}
	if section.Ending {
		return step.NewValidationError("section %d ends the story, no further steps", section.Number)
	}

	run.current = current
	run.section = section
	return nil
}

// evalResult is the typed result of one evaluator task
type evalResult struct {
	rules     *step.RulesResult
	narrative string
	err       error
}

// evaluate fans out to the rules and narrative evaluators concurrently and
// joins both. The join is all-or-nothing: if either fails or times out,
// both results are discarded and the step fails with an evaluation error.
// Results merge deterministically, rules first, regardless of completion
// order.
func (uc *StepUseCase) evaluate(ctx context.Context, run *stepRun) error {
	fingerprint := service.Fingerprint(run.section.Content)
	sectionNumber := run.section.Number
	content := run.section.Content

	evalCtx, cancel := context.WithTimeout(ctx, uc.config.EvalTimeout)
	defer cancel()

	rulesCh := make(chan evalResult, 1)
	narrativeCh := make(chan evalResult, 1)

	go func() {
		rules, err := uc.evaluateRules(evalCtx, sectionNumber, content, fingerprint)
		rulesCh <- evalResult{rules: rules, err: err}
	}()
	go func() {
		narrative, err := uc.renderNarrative(evalCtx, sectionNumber, content, fingerprint)
		narrativeCh <- evalResult{narrative: narrative, err: err}
	}()

	rulesRes := <-rulesCh
	narrativeRes := <-narrativeCh

	if rulesRes.err != nil {
		return step.NewEvaluationError("rules", evalReason(rulesRes.err), rulesRes.err)
	}
	if narrativeRes.err != nil {
		return step.NewEvaluationError("narrative", evalReason(narrativeRes.err), narrativeRes.err)
	}

	run.rules = rulesRes.rules
	run.narrative = narrativeRes.narrative
	return nil
}

// evaluateRules consults the cache, falling back to the evaluator on miss.
// A cache hit is indistinguishable from a fresh call; cache trouble is
// treated as a permanent miss and never surfaces.
func (uc *StepUseCase) evaluateRules(ctx context.Context, sectionNumber int, content, fingerprint string) (*step.RulesResult, error) {
	key := service.CacheKey{Kind: service.CacheKindRules, SectionNumber: sectionNumber, Fingerprint: fingerprint}
	if uc.cache != nil {
		if cached, ok := uc.cache.Get(key); ok {
			if rules, ok := cached.(*step.RulesResult); ok {
				return rules, nil
			}
		}
	}

	rules, err := uc.rules.Evaluate(ctx, sectionNumber, content)
	if err != nil {
		return nil, err
	}
	if uc.cache != nil {
		uc.cache.Put(key, rules)
	}
	return rules, nil
}

// renderNarrative is the narrative twin of evaluateRules
func (uc *StepUseCase) renderNarrative(ctx context.Context, sectionNumber int, content, fingerprint string) (string, error) {
	key := service.CacheKey{Kind: service.CacheKindNarrative, SectionNumber: sectionNumber, Fingerprint: fingerprint}
	if uc.cache != nil {
		if cached, ok := uc.cache.Get(key); ok {
			if narrative, ok := cached.(string); ok {
				return narrative, nil
			}
		}
	}

	narrative, err := uc.narrative.Render(ctx, sectionNumber, content)
	if err != nil {
		return "", err
	}
	if uc.cache != nil {
		uc.cache.Put(key, narrative)
	}
	return narrative, nil
}

func evalReason(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	return err.Error()
}

// decide invokes the decision resolver on the merged context and enforces
// the two-phase dice contract
func (uc *StepUseCase) decide(ctx context.Context, run *stepRun) error {
	decideCtx, cancel := context.WithTimeout(ctx, uc.config.EvalTimeout)
	defer cancel()

	decision, err := uc.decision.Resolve(decideCtx, output.ResolveRequest{
		SectionNumber: run.section.Number,
		Rules:         run.rules,
		Input:         run.input,
		Dice:          run.dice,
	})
	if err != nil {
		return step.NewEvaluationError("decision", evalReason(err), err)
	}

	if run.rules.NeedsDice() && run.dice == nil {
		// Contract: without a supplied outcome the resolver must suspend
		if decision.Awaiting() != step.AwaitingDiceRoll {
			return step.NewEvaluationError("decision",
				"rules demand dice but decision did not await a roll", nil)
		}
	}
	if decision.Awaiting() == step.AwaitingUserInput {
		return step.NewValidationError("section %d requires a player choice", run.section.Number)
	}

	run.decision = decision
	run.suspended = decision.Awaiting() == step.AwaitingDiceRoll
	return nil
}

// suspend returns the uncommitted awaiting-dice state: same version, no
// trace entry. The suspension lives entirely in the returned value; the
// state store is untouched and the caller may abandon the step freely.
func (uc *StepUseCase) suspend(run *stepRun) (*dto.StepOutput, error) {
	req, err := dice.NewRequest(run.rules.DiceKind(), run.section.Rule.DiceModifier)
	if err != nil {
		return nil, step.NewEvaluationError("rules", err.Error(), err)
	}

	suspended, err := run.current.AwaitDice(req, run.rules, run.decision, run.narrative)
	if err != nil {
		return nil, step.NewValidationError("suspend step: %v", err)
	}

	uc.publish(service.Event{
		Kind:    service.EventAwaitingDice,
		GameID:  suspended.ID(),
		Version: suspended.Version(),
		Summary: suspended.Summary(),
	})

	return &dto.StepOutput{
		State:     suspended,
		Committed: false,
		Phase:     step.PhaseAwaitingDice,
	}, nil
}

// commit builds the successor state and commits it with compare-and-swap
func (uc *StepUseCase) commit(ctx context.Context, gameID game.ID, run *stepRun) error {
	nextSection, err := uc.resolveNextSection(run)
	if err != nil {
		return err
	}

	conditions := append(run.rules.Conditions(), run.decision.ConditionsApplied()...)
	effects := step.ParseConditions(conditions)

	entry, err := uc.buildEntry(run, nextSection, effects)
	if err != nil {
		return step.NewValidationError("build trace entry: %v", err)
	}

	next, err := run.current.Apply(game.Transition{
		NextSection: nextSection,
		Rules:       run.rules,
		Decision:    run.decision,
		Narrative:   run.narrative,
		Effects:     effects,
		Entry:       entry,
	})
	if err != nil {
		return step.NewValidationError("build next state: %v", err)
	}

	if err := uc.states.CommitIfVersion(ctx, gameID, run.current.Version(), next); err != nil {
		return err
	}

	run.next = next
	run.entry = entry
	return nil
}

// resolveNextSection applies the documented precedence: the decision is
// authoritative when it names a section; otherwise the rules' first
// candidate wins. Candidate priority order is a contract, not evaluator
// whim, so repeated runs always tie-break identically.
func (uc *StepUseCase) resolveNextSection(run *stepRun) (int, error) {
	if next, ok := run.decision.NextSection(); ok {
		return next, nil
	}
	if first, ok := run.rules.FirstCandidate(); ok {
		return first, nil
	}
	return 0, step.NewEvaluationError("decision", "no next section resolved", nil)
}

// buildEntry creates the single trace entry of the step
func (uc *StepUseCase) buildEntry(run *stepRun, nextSection int, effects step.Effects) (trace.Entry, error) {
	payload := map[string]interface{}{
		"choice":       run.input.Choice(),
		"next_section": nextSection,
		"analysis":     run.decision.Analysis(),
	}
	if len(effects.StatDeltas) > 0 {
		payload["stat_deltas"] = effects.StatDeltas
	}
	if len(effects.AddItems) > 0 {
		payload["items_gained"] = effects.AddItems
	}
	if len(effects.RemoveItems) > 0 {
		payload["items_lost"] = effects.RemoveItems
	}
	if len(effects.Notes) > 0 {
		payload["conditions"] = effects.Notes
	}

	kind := trace.KindDecision
	if run.dice != nil {
		kind = trace.KindDiceRoll
		payload["dice_value"] = run.dice.Value()
		payload["dice_draws"] = run.dice.Draws()
		payload["dice_seed"] = run.dice.Seed()
	}

	return trace.NewEntry(run.current.SectionNumber(), kind, payload, run.current.Version())
}

// record persists the trace entry and publishes events. Both are
// best-effort: the state is already committed and is returned to the
// caller regardless, but a trace gap is made observable.
func (uc *StepUseCase) record(ctx context.Context, gameID game.ID, run *stepRun) {
	if uc.recorder != nil {
		if err := uc.recorder.Record(ctx, gameID, run.entry); err != nil {
			recordErr := step.NewRecordError("persist trace entry", err)
			uc.logger.Warn("trace recording degraded for game %s v%d: %v",
				gameID, run.next.Version(), recordErr)
			uc.publish(service.Event{
				Kind:    service.EventTraceDegraded,
				GameID:  gameID,
				Version: run.next.Version(),
				Summary: recordErr.Error(),
			})
		}
	}

	uc.publish(service.Event{
		Kind:    service.EventCommitted,
		GameID:  gameID,
		Version: run.next.Version(),
		Summary: run.next.Summary(),
	})
}

func (uc *StepUseCase) publish(event service.Event) {
	if uc.notifier != nil {
		uc.notifier.Publish(event)
	}
}
