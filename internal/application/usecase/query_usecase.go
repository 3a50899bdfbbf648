package usecase

import (
	"context"

	"github.com/fablestep/fablestep/internal/domain/model/game"
	"github.com/fablestep/fablestep/internal/domain/model/step"
	"github.com/fablestep/fablestep/internal/domain/model/trace"
	"github.com/fablestep/fablestep/internal/domain/repository"
)

// QueryUseCase serves read-only lookups of game state and history
type QueryUseCase struct {
	states repository.StateRepository
}

// NewQueryUseCase creates the use case
func NewQueryUseCase(states repository.StateRepository) *QueryUseCase {
	return &QueryUseCase{states: states}
}

// GetState returns the current committed state of a game
func (uc *QueryUseCase) GetState(ctx context.Context, gameID string) (*game.State, error) {
	id, err := game.ParseID(gameID)
	if err != nil {
		return nil, step.NewValidationError("invalid game ID: %v", err)
	}
	return uc.states.Get(ctx, id)
}

// GetHistory returns the append-only trace history of a game
func (uc *QueryUseCase) GetHistory(ctx context.Context, gameID string) ([]trace.Entry, error) {
	state, err := uc.GetState(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return state.History(), nil
}

// ListGames returns the IDs of all known games
func (uc *QueryUseCase) ListGames(ctx context.Context) ([]game.ID, error) {
	return uc.states.List(ctx)
}
