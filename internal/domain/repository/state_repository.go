// Package repository defines the persistence interfaces consumed by the
// application layer. Implementations live under internal/infrastructure.
package repository

import (
	"context"

	"github.com/fablestep/fablestep/internal/domain/model/game"
)

// StateRepository holds the authoritative current state per game and
// provides the atomic compare-and-swap commit the orchestrator relies on.
type StateRepository interface {
	// Create stores the initial state of a new game.
	// The state must be at version 0; an existing game ID is rejected
	// with a conflict error.
	Create(ctx context.Context, state *game.State) error

	// Get returns the current committed state for a game.
	// Returns a not-found error for unknown game IDs. Pure read: never
	// blocks on in-flight commits.
	Get(ctx context.Context, id game.ID) (*game.State, error)

	// CommitIfVersion atomically replaces the current state when the
	// stored version equals expectedVersion. The new state's version
	// must be exactly expectedVersion+1; the write is all-or-nothing,
	// including the appended trace entry. A version mismatch yields a
	// conflict error and leaves the stored state untouched.
	CommitIfVersion(ctx context.Context, id game.ID, expectedVersion int, newState *game.State) error

	// List returns the IDs of all known games
	List(ctx context.Context) ([]game.ID, error)
}
