// Package memory provides the in-memory state repository used by tests
// and by runs that don't need durability.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/fablestep/fablestep/internal/domain/model/game"
	"github.com/fablestep/fablestep/internal/domain/model/step"
	"github.com/fablestep/fablestep/internal/domain/repository"
)

// StateRepository keeps the current state per game in a map guarded by a
// RWMutex. Commits are compare-and-swap on the stored version; readers are
// never blocked by an in-flight step beyond the map access itself.
type StateRepository struct {
	mu     sync.RWMutex
	states map[game.ID]*game.State
}

// NewStateRepository creates an empty in-memory state repository
func NewStateRepository() *StateRepository {
	return &StateRepository{states: make(map[game.ID]*game.State)}
}

var _ repository.StateRepository = (*StateRepository)(nil)

// Create stores the initial state of a new game
func (r *StateRepository) Create(ctx context.Context, state *game.State) error {
	if state.Version() != 0 {
		return step.NewValidationError("new game must start at version 0, got %d", state.Version())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.states[state.ID()]; exists {
		return step.NewConflictError("game %s already exists", state.ID())
	}
	r.states[state.ID()] = state
	return nil
}

// Get returns the current committed state for a game
func (r *StateRepository) Get(ctx context.Context, id game.ID) (*game.State, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, ok := r.states[id]
	if !ok {
		return nil, step.NewNotFoundError("game %s not found", id)
	}
	return state, nil
}

// CommitIfVersion atomically replaces the stored state when the version
// matches. States are immutable values, so swapping the pointer under the
// lock is the whole commit: there is no partial write to observe.
func (r *StateRepository) CommitIfVersion(ctx context.Context, id game.ID, expectedVersion int, newState *game.State) error {
	if newState.Version() != expectedVersion+1 {
		return step.NewValidationError("new state version %d must be exactly %d",
			newState.Version(), expectedVersion+1)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.states[id]
	if !ok {
		return step.NewNotFoundError("game %s not found", id)
	}
	if current.Version() != expectedVersion {
		return step.NewConflictError("expected version %d, game %s is at version %d",
			expectedVersion, id, current.Version())
	}

	r.states[id] = newState
	return nil
}

// List returns the IDs of all known games in sorted order
func (r *StateRepository) List(ctx context.Context) ([]game.ID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]game.ID, 0, len(r.states))
	for id := range r.states {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}
