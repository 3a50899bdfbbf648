package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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
	"github.com/fablestep/fablestep/internal/infrastructure/persistence/memory"
)

// stubBooks serves a fixed section map
type stubBooks struct {
	sections map[int]book.Section
}

func (b *stubBooks) Title() string              { return "Test Book" }
func (b *stubBooks) StartSection() int          { return 1 }
func (b *stubBooks) StartStats() map[string]int { return map[string]int{"stamina": 18, "luck": 11} }

func (b *stubBooks) FindSection(ctx context.Context, number int) (book.Section, error) {
	s, ok := b.sections[number]
	if !ok {
		return book.Section{}, step.NewNotFoundError("section %d not found", number)
	}
	return s, nil
}

// stubRules counts calls so cache behavior is observable
type stubRules struct {
	calls int32
	fn    func(ctx context.Context, sectionNumber int, content string) (*step.RulesResult, error)
}

func (s *stubRules) Evaluate(ctx context.Context, sectionNumber int, content string) (*step.RulesResult, error) {
	atomic.AddInt32(&s.calls, 1)
	return s.fn(ctx, sectionNumber, content)
}

type stubNarrative struct {
	calls int32
	fn    func(ctx context.Context, sectionNumber int, content string) (string, error)
}

func (s *stubNarrative) Render(ctx context.Context, sectionNumber int, content string) (string, error) {
	atomic.AddInt32(&s.calls, 1)
	return s.fn(ctx, sectionNumber, content)
}

type stubDecision struct {
	fn func(ctx context.Context, req output.ResolveRequest) (*step.DecisionResult, error)
}

func (s *stubDecision) Resolve(ctx context.Context, req output.ResolveRequest) (*step.DecisionResult, error) {
	return s.fn(ctx, req)
}

// eventSink collects published events
type eventSink struct {
	mu     sync.Mutex
	events []service.Event
}

func (s *eventSink) Notify(event service.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *eventSink) kinds() []service.EventKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	kinds := make([]service.EventKind, 0, len(s.events))
	for _, e := range s.events {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

// recordingTrace remembers every recorded entry, optionally failing
type recordingTrace struct {
	mu      sync.Mutex
	entries []trace.Entry
	fail    error
}

func (r *recordingTrace) Record(ctx context.Context, gameID game.ID, entry trace.Entry) error {
	if r.fail != nil {
		return r.fail
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

// conflictOnce injects one commit conflict, then delegates
type conflictOnce struct {
	repository.StateRepository
	fired int32
}

func (c *conflictOnce) CommitIfVersion(ctx context.Context, id game.ID, expected int, next *game.State) error {
	if atomic.CompareAndSwapInt32(&c.fired, 0, 1) {
		return step.NewConflictError("simulated concurrent commit at version %d", expected)
	}
	return c.StateRepository.CommitIfVersion(ctx, id, expected, next)
}

// fixture bundles the orchestrator with controllable collaborators
type fixture struct {
	states   repository.StateRepository
	books    *stubBooks
	rules    *stubRules
	narr     *stubNarrative
	dec      *stubDecision
	recorder *recordingTrace
	cache    *service.ContentCache
	notifier *service.Notifier
	sink     *eventSink
	uc       *StepUseCase
	gameID   game.ID
}

func testSections() map[int]book.Section {
	return map[int]book.Section{
		1: {
			Number:  1,
			Content: "You stand at a crossroads.",
			Rule: book.RuleTable{
				Targets: []book.Target{
					{Section: 5, Label: "left"},
					{Section: 9, Label: "right"},
				},
			},
		},
		2: {
			Number:  2,
			Content: "A troll blocks the bridge.",
			Rule: book.RuleTable{
				NeedsDice: true,
				DiceKind:  "combat",
				Threshold: 8,
				Targets: []book.Target{
					{Section: 5},
					{Section: 9},
				},
			},
		},
		3: {Number: 3, Content: "The end.", Ending: true},
		5: {
			Number:  5,
			Content: "A narrow path.",
			Rule:    book.RuleTable{Targets: []book.Target{{Section: 9, Label: "on"}}},
		},
		9: {
			Number:  9,
			Content: "A wide road.",
			Rule:    book.RuleTable{Targets: []book.Target{{Section: 5, Label: "back"}}},
		},
	}
}

// newFixture builds an orchestrator over an in-memory store with a game
// created at the given start section, version 0
func newFixture(t *testing.T, startSection int) *fixture {
	t.Helper()

	f := &fixture{
		states:   memory.NewStateRepository(),
		books:    &stubBooks{sections: testSections()},
		recorder: &recordingTrace{},
		cache:    service.NewContentCache(service.DefaultContentCacheConfig()),
		sink:     &eventSink{},
	}
	f.notifier = service.NewNotifier(app.GetLogger())
	f.notifier.Subscribe(f.sink)

	// Defaults mirror the rule-table engine: rules from the section's
	// table, a choice matched against target labels
	f.rules = &stubRules{fn: func(ctx context.Context, n int, content string) (*step.RulesResult, error) {
		section := f.books.sections[n]
		return step.NewRulesResult(section.Rule.NeedsDice, section.Rule.DiceKind,
			section.Rule.Conditions, section.TargetSections(), "rules for section")
	}}
	f.narr = &stubNarrative{fn: func(ctx context.Context, n int, content string) (string, error) {
		return "narrative: " + content, nil
	}}
	f.dec = &stubDecision{fn: func(ctx context.Context, req output.ResolveRequest) (*step.DecisionResult, error) {
		if req.Rules.NeedsDice() && req.Dice == nil {
			return step.NewDecisionResult(0, false, step.AwaitingDiceRoll, nil, "roll needed")
		}
		if req.Rules.NeedsDice() {
			section := f.books.sections[req.SectionNumber]
			candidates := req.Rules.NextSectionCandidates()
			if req.Dice.Value() >= section.Rule.Threshold {
				return step.NewDecisionResult(candidates[0], true, step.AwaitingNone, nil, "success")
			}
			return step.NewDecisionResult(candidates[1], true, step.AwaitingNone, nil, "failure")
		}
		section := f.books.sections[req.SectionNumber]
		if target, ok := section.FindTarget(req.Input.Choice()); ok {
			return step.NewDecisionResult(target.Section, true, step.AwaitingNone, nil, "matched choice")
		}
		return step.NewDecisionResult(0, false, step.AwaitingNone, nil, "no match")
	}}

	f.uc = NewStepUseCase(f.states, f.books, f.rules, f.narr, f.dec,
		f.recorder, f.cache, f.notifier, app.GetLogger(), DefaultStepConfig())

	stats, err := game.NewCharacterStats(f.books.StartStats())
	require.NoError(t, err)
	state, err := game.NewState(game.NewID(), startSection, stats, game.NewInventory())
	require.NoError(t, err)
	require.NoError(t, f.states.Create(context.Background(), state))
	f.gameID = state.ID()

	t.Cleanup(f.notifier.Close)
	return f
}

func (f *fixture) step(t *testing.T, in dto.StepInput) *dto.StepOutput {
	t.Helper()
	if in.GameID == "" {
		in.GameID = f.gameID.String()
	}
	if in.TargetVersion == 0 {
		in.TargetVersion = step.TargetHead
	}
	out, err := f.uc.Execute(context.Background(), in)
	require.NoError(t, err)
	return out
}

func TestStepUseCase_CommitsChoiceStep(t *testing.T) {
	f := newFixture(t, 1)

	out := f.step(t, dto.StepInput{Choice: "left"})

	assert.True(t, out.Committed)
	assert.Equal(t, step.PhaseCommitted, out.Phase)
	assert.Equal(t, 1, out.State.Version())
	assert.Equal(t, 5, out.State.SectionNumber())
	assert.Equal(t, "narrative: You stand at a crossroads.", out.State.Narrative())

	// The committed state is what the store now serves
	stored, err := f.states.Get(context.Background(), f.gameID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Version())
	assert.Equal(t, 5, stored.SectionNumber())

	// One trace entry, recorded durably too
	require.Equal(t, 1, out.State.HistoryLen())
	entry := out.State.History()[0]
	assert.Equal(t, trace.KindDecision, entry.Kind())
	assert.Equal(t, 0, entry.PreviousVersion())
	assert.Equal(t, 1, entry.SectionNumber())
	assert.Equal(t, "left", entry.Payload()["choice"])
	require.Len(t, f.recorder.entries, 1)
	assert.Equal(t, entry.ID(), f.recorder.entries[0].ID())
}

func TestStepUseCase_VersionsAreMonotonic(t *testing.T) {
	f := newFixture(t, 1)

	first := f.step(t, dto.StepInput{Choice: "left"})
	second := f.step(t, dto.StepInput{Choice: "on"})

	assert.Equal(t, 1, first.State.Version())
	assert.Equal(t, 2, second.State.Version())

	history := second.State.History()
	require.Len(t, history, 2)
	assert.Equal(t, 0, history[0].PreviousVersion())
	assert.Equal(t, 1, history[1].PreviousVersion())

	// Earlier history is a strict prefix of later history
	assert.Equal(t, first.State.History()[0].ID(), history[0].ID())
}

func TestStepUseCase_CacheMakesEvaluationIdempotent(t *testing.T) {
	f := newFixture(t, 1)

	f.step(t, dto.StepInput{Choice: "left"}) // 1 -> 5
	f.step(t, dto.StepInput{Choice: "on"})   // 5 -> 9
	f.step(t, dto.StepInput{Choice: "back"}) // 9 -> 5
	f.step(t, dto.StepInput{Choice: "on"})   // 5 -> 9, content unchanged: cache hit

	// Section 5 was evaluated once despite being visited twice
	assert.Equal(t, int32(3), atomic.LoadInt32(&f.rules.calls))
	assert.Equal(t, int32(3), atomic.LoadInt32(&f.narr.calls))

	hits, _ := f.cache.Stats()
	assert.GreaterOrEqual(t, hits, int64(2))
}

func TestStepUseCase_WithoutCacheStillWorks(t *testing.T) {
	f := newFixture(t, 1)
	f.uc = NewStepUseCase(f.states, f.books, f.rules, f.narr, f.dec,
		f.recorder, nil, f.notifier, app.GetLogger(), DefaultStepConfig())

	out := f.step(t, dto.StepInput{Choice: "left"})
	assert.True(t, out.Committed)
}

func TestStepUseCase_TwoPhaseDice(t *testing.T) {
	f := newFixture(t, 2)

	// Phase one: the step suspends, nothing commits
	suspended := f.step(t, dto.StepInput{})
	assert.False(t, suspended.Committed)
	assert.Equal(t, step.PhaseAwaitingDice, suspended.Phase)
	assert.Equal(t, 0, suspended.State.Version())
	assert.Equal(t, 2, suspended.State.SectionNumber())
	assert.Equal(t, 0, suspended.State.HistoryLen())

	req, ok := suspended.State.PendingDice()
	require.True(t, ok)
	assert.Equal(t, "combat", req.Kind())

	// The store never saw the suspension
	stored, err := f.states.Get(context.Background(), f.gameID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Version())
	assert.False(t, stored.IsAwaitingDice())
	assert.Empty(t, f.recorder.entries)

	// Phase two: the outcome resolves and commits exactly one version
	outcome, err := dice.Roll(req, 42)
	require.NoError(t, err)
	resolved := f.step(t, dto.StepInput{Dice: &outcome})

	assert.True(t, resolved.Committed)
	assert.Equal(t, 1, resolved.State.Version())
	assert.False(t, resolved.State.IsAwaitingDice())

	require.Equal(t, 1, resolved.State.HistoryLen())
	entry := resolved.State.History()[0]
	assert.Equal(t, trace.KindDiceRoll, entry.Kind())
	assert.Equal(t, outcome.Value(), entry.Payload()["dice_value"])
	assert.Equal(t, outcome.Seed(), entry.Payload()["dice_seed"])

	// Success routes to the first candidate, failure to the second
	if outcome.Value() >= 8 {
		assert.Equal(t, 5, resolved.State.SectionNumber())
	} else {
		assert.Equal(t, 9, resolved.State.SectionNumber())
	}
}

func TestStepUseCase_DiceContractViolationFailsStep(t *testing.T) {
	f := newFixture(t, 2)

	// A resolver that answers a dice section without awaiting a roll
	f.dec.fn = func(ctx context.Context, req output.ResolveRequest) (*step.DecisionResult, error) {
		return step.NewDecisionResult(5, true, step.AwaitingNone, nil, "guessing")
	}

	_, err := f.uc.Execute(context.Background(), dto.StepInput{
		GameID: f.gameID.String(), TargetVersion: step.TargetHead,
	})
	require.Error(t, err)
	assert.True(t, step.IsEvaluation(err))
}

func TestStepUseCase_TieBreakUsesCandidateOrder(t *testing.T) {
	f := newFixture(t, 1)

	// The decision declines to name a section; candidates are [5, 9]
	f.dec.fn = func(ctx context.Context, req output.ResolveRequest) (*step.DecisionResult, error) {
		return step.NewDecisionResult(0, false, step.AwaitingNone, nil, "ambiguous")
	}

	out := f.step(t, dto.StepInput{Choice: "mumble"})
	assert.Equal(t, 5, out.State.SectionNumber(), "first candidate wins the tie-break")
}

func TestStepUseCase_DecisionOverridesCandidates(t *testing.T) {
	f := newFixture(t, 1)

	f.dec.fn = func(ctx context.Context, req output.ResolveRequest) (*step.DecisionResult, error) {
		return step.NewDecisionResult(9, true, step.AwaitingNone, nil, "decision says nine")
	}

	out := f.step(t, dto.StepInput{Choice: "left"})
	assert.Equal(t, 9, out.State.SectionNumber())
}

func TestStepUseCase_NoNextSectionFails(t *testing.T) {
	f := newFixture(t, 1)

	f.rules.fn = func(ctx context.Context, n int, content string) (*step.RulesResult, error) {
		return step.NewRulesResult(false, "", nil, nil, "no candidates")
	}
	f.dec.fn = func(ctx context.Context, req output.ResolveRequest) (*step.DecisionResult, error) {
		return step.NewDecisionResult(0, false, step.AwaitingNone, nil, "no idea")
	}

	_, err := f.uc.Execute(context.Background(), dto.StepInput{
		GameID: f.gameID.String(), TargetVersion: step.TargetHead,
	})
	require.Error(t, err)
	assert.True(t, step.IsEvaluation(err))
}

func TestStepUseCase_PinnedVersionConflictFailsFast(t *testing.T) {
	f := newFixture(t, 1)
	f.step(t, dto.StepInput{Choice: "left"}) // head is now v1

	_, err := f.uc.Execute(context.Background(), dto.StepInput{
		GameID:        f.gameID.String(),
		Choice:        "right",
		TargetVersion: 0, // stale
	})
	require.Error(t, err)
	assert.True(t, step.IsConflict(err))

	// Exactly one commit happened
	stored, err := f.states.Get(context.Background(), f.gameID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Version())
}

func TestStepUseCase_HeadInputRebasesOnConflict(t *testing.T) {
	f := newFixture(t, 1)

	wrapped := &conflictOnce{StateRepository: f.states}
	f.uc = NewStepUseCase(wrapped, f.books, f.rules, f.narr, f.dec,
		f.recorder, f.cache, f.notifier, app.GetLogger(), DefaultStepConfig())

	out, err := f.uc.Execute(context.Background(), dto.StepInput{
		GameID: f.gameID.String(), Choice: "left", TargetVersion: step.TargetHead,
	})
	require.NoError(t, err)
	assert.True(t, out.Committed)
	assert.Equal(t, 1, out.State.Version())
}

func TestStepUseCase_RetriesAreBounded(t *testing.T) {
	f := newFixture(t, 1)

	// Every commit conflicts; the head input must eventually give up
	always := &stubConflictRepo{inner: f.states}
	f.uc = NewStepUseCase(always, f.books, f.rules, f.narr, f.dec,
		f.recorder, f.cache, f.notifier, app.GetLogger(),
		StepConfig{EvalTimeout: time.Second, MaxCommitRetries: 2})

	_, err := f.uc.Execute(context.Background(), dto.StepInput{
		GameID: f.gameID.String(), Choice: "left", TargetVersion: step.TargetHead,
	})
	require.Error(t, err)
	assert.True(t, step.IsConflict(err))
	assert.Equal(t, int32(3), atomic.LoadInt32(&always.commits), "initial attempt plus two retries")
}

func TestStepUseCase_EvaluatorFailureDiscardsBothResults(t *testing.T) {
	f := newFixture(t, 1)

	f.rules.fn = func(ctx context.Context, n int, content string) (*step.RulesResult, error) {
		return nil, errors.New("rules engine exploded")
	}

	_, err := f.uc.Execute(context.Background(), dto.StepInput{
		GameID: f.gameID.String(), Choice: "left", TargetVersion: step.TargetHead,
	})
	require.Error(t, err)
	assert.True(t, step.IsEvaluation(err))

	var stepErr *step.Error
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, "rules", stepErr.Source)

	// Nothing committed, nothing recorded
	stored, getErr := f.states.Get(context.Background(), f.gameID)
	require.NoError(t, getErr)
	assert.Equal(t, 0, stored.Version())
	assert.Empty(t, f.recorder.entries)
}

func TestStepUseCase_EvaluatorTimeout(t *testing.T) {
	f := newFixture(t, 1)

	f.narr.fn = func(ctx context.Context, n int, content string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}
	f.uc = NewStepUseCase(f.states, f.books, f.rules, f.narr, f.dec,
		f.recorder, f.cache, f.notifier, app.GetLogger(),
		StepConfig{EvalTimeout: 20 * time.Millisecond, MaxCommitRetries: 0})

	_, err := f.uc.Execute(context.Background(), dto.StepInput{
		GameID: f.gameID.String(), Choice: "left", TargetVersion: step.TargetHead,
	})
	require.Error(t, err)
	assert.True(t, step.IsEvaluation(err))

	var stepErr *step.Error
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, "narrative", stepErr.Source)
	assert.Equal(t, "timeout", stepErr.Reason)
}

func TestStepUseCase_EndingSectionRejectsSteps(t *testing.T) {
	f := newFixture(t, 3)

	_, err := f.uc.Execute(context.Background(), dto.StepInput{
		GameID: f.gameID.String(), TargetVersion: step.TargetHead,
	})
	require.Error(t, err)
	assert.True(t, step.IsValidation(err))
}

func TestStepUseCase_AwaitingUserInputIsValidationError(t *testing.T) {
	f := newFixture(t, 1)

	f.dec.fn = func(ctx context.Context, req output.ResolveRequest) (*step.DecisionResult, error) {
		return step.NewDecisionResult(0, false, step.AwaitingUserInput, nil, "pick something")
	}

	_, err := f.uc.Execute(context.Background(), dto.StepInput{
		GameID: f.gameID.String(), TargetVersion: step.TargetHead,
	})
	require.Error(t, err)
	assert.True(t, step.IsValidation(err))
}

func TestStepUseCase_UnknownGame(t *testing.T) {
	f := newFixture(t, 1)

	_, err := f.uc.Execute(context.Background(), dto.StepInput{
		GameID: game.NewID().String(), TargetVersion: step.TargetHead,
	})
	require.Error(t, err)
	assert.True(t, step.IsNotFound(err))

	_, err = f.uc.Execute(context.Background(), dto.StepInput{
		GameID: "not-a-ulid", TargetVersion: step.TargetHead,
	})
	require.Error(t, err)
	assert.True(t, step.IsValidation(err))
}

func TestStepUseCase_ConditionsBecomeEffects(t *testing.T) {
	f := newFixture(t, 1)

	f.rules.fn = func(ctx context.Context, n int, content string) (*step.RulesResult, error) {
		return step.NewRulesResult(false, "",
			[]string{"stat:stamina:-4", "item:+rope"}, []int{5, 9}, "costly passage")
	}

	out := f.step(t, dto.StepInput{Choice: "left"})

	v, _ := out.State.Stats().Value("stamina")
	assert.Equal(t, 14, v)
	assert.True(t, out.State.Inventory().Has("rope"))

	entry := out.State.History()[0]
	assert.Equal(t, map[string]int{"stamina": -4}, entry.Payload()["stat_deltas"])
}

func TestStepUseCase_TraceFailureDegradesButCommits(t *testing.T) {
	f := newFixture(t, 1)
	f.recorder.fail = errors.New("disk full")

	out := f.step(t, dto.StepInput{Choice: "left"})
	assert.True(t, out.Committed)
	assert.Equal(t, 1, out.State.Version())

	f.notifier.Close()
	kinds := f.sink.kinds()
	assert.Contains(t, kinds, service.EventTraceDegraded)
	assert.Contains(t, kinds, service.EventCommitted)
}

func TestStepUseCase_PublishesEvents(t *testing.T) {
	f := newFixture(t, 2)

	f.step(t, dto.StepInput{}) // suspends
	f.notifier.Close()
	assert.Contains(t, f.sink.kinds(), service.EventAwaitingDice)
}

func TestStepUseCase_ConcurrentHeadSteps(t *testing.T) {
	f := newFixture(t, 1)

	var wg sync.WaitGroup
	results := make([]error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.uc.Execute(context.Background(), dto.StepInput{
				GameID: f.gameID.String(), Choice: "left", TargetVersion: step.TargetHead,
			})
			results[i] = err
		}(i)
	}
	wg.Wait()

	// Head-targeting steps rebase on conflict, so all should land and the
	// version must equal the number of commits
	committed := 0
	for _, err := range results {
		if err == nil {
			committed++
		} else {
			assert.True(t, step.IsConflict(err))
		}
	}
	stored, err := f.states.Get(context.Background(), f.gameID)
	require.NoError(t, err)
	assert.Equal(t, committed, stored.Version())
	assert.Equal(t, committed, stored.HistoryLen())
}

// stubConflictRepo rejects every commit
type stubConflictRepo struct {
	inner   repository.StateRepository
	commits int32
}

func (s *stubConflictRepo) Create(ctx context.Context, state *game.State) error {
	return s.inner.Create(ctx, state)
}

func (s *stubConflictRepo) Get(ctx context.Context, id game.ID) (*game.State, error) {
	return s.inner.Get(ctx, id)
}

func (s *stubConflictRepo) CommitIfVersion(ctx context.Context, id game.ID, expected int, next *game.State) error {
	atomic.AddInt32(&s.commits, 1)
	return step.NewConflictError("always conflicts")
}

func (s *stubConflictRepo) List(ctx context.Context) ([]game.ID, error) {
	return s.inner.List(ctx)
}
