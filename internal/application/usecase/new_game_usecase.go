package usecase

import (
	"context"

	"github.com/fablestep/fablestep/internal/application/dto"
	"github.com/fablestep/fablestep/internal/application/service"
	"github.com/fablestep/fablestep/internal/domain/model/game"
	"github.com/fablestep/fablestep/internal/domain/model/step"
	"github.com/fablestep/fablestep/internal/domain/repository"
)

// NewGameUseCase starts a game at the book's first section, version 0
type NewGameUseCase struct {
	states   repository.StateRepository
	books    repository.BookRepository
	notifier *service.Notifier
}

// NewNewGameUseCase creates the use case
func NewNewGameUseCase(states repository.StateRepository, books repository.BookRepository, notifier *service.Notifier) *NewGameUseCase {
	return &NewGameUseCase{states: states, books: books, notifier: notifier}
}

// Execute creates and stores the initial state of a new game
func (uc *NewGameUseCase) Execute(ctx context.Context, in dto.NewGameInput) (*dto.NewGameOutput, error) {
	initial := in.Stats
	if len(initial) == 0 {
		initial = uc.books.StartStats()
	}

	stats, err := game.NewCharacterStats(initial)
	if err != nil {
		return nil, step.NewValidationError("invalid starting stats: %v", err)
	}

	startSection := uc.books.StartSection()
	if _, err := uc.books.FindSection(ctx, startSection); err != nil {
		return nil, err
	}

	state, err := game.NewState(game.NewID(), startSection, stats, game.NewInventory(in.Inventory...))
	if err != nil {
		return nil, step.NewValidationError("create game: %v", err)
	}

	if err := uc.states.Create(ctx, state); err != nil {
		return nil, err
	}

	if uc.notifier != nil {
		uc.notifier.Publish(service.Event{
			Kind:    service.EventCommitted,
			GameID:  state.ID(),
			Version: state.Version(),
			Summary: state.Summary(),
		})
	}

	return &dto.NewGameOutput{State: state}, nil
}
