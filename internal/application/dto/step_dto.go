// Package dto defines the data transfer objects crossing the application
// boundary.
package dto

import (
	"github.com/fablestep/fablestep/internal/domain/model/dice"
	"github.com/fablestep/fablestep/internal/domain/model/game"
	"github.com/fablestep/fablestep/internal/domain/model/step"
)

// StepInput is the request for one orchestrated step
type StepInput struct {
	GameID        string
	Choice        string
	TargetVersion int           // step.TargetHead to target the current version
	Dice          *dice.Outcome // resolves a suspended two-phase step
}

// StepOutput is the result of one orchestrated step
type StepOutput struct {
	State     *game.State
	Committed bool       // false when the step suspended awaiting dice
	Phase     step.Phase // committed or awaiting_dice
}

// NewGameInput is the request to start a game
type NewGameInput struct {
	Stats     map[string]int // empty to use the book's starting stats
	Inventory []string
}

// NewGameOutput is the result of starting a game
type NewGameOutput struct {
	State *game.State
}

// ExportInput is the request to archive a game transcript
type ExportInput struct {
	GameID string
}

// ExportOutput describes the archived transcript
type ExportOutput struct {
	StoragePath string
	Size        int64
}
