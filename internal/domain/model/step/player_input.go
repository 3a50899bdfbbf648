package step

import "fmt"

// TargetHead marks a player input that targets whatever version is current.
// Head-targeting inputs are eligible for bounded automatic rebase when a
// commit conflict is detected; version-pinned inputs are not.
const TargetHead = -1

// PlayerInput is the player's contribution to one step: the choice made
// and the state version it targets. Version-pinned inputs against any
// other version are rejected with a conflict, forcing the caller to
// re-fetch.
type PlayerInput struct {
	choice        string
	targetVersion int
}

// NewPlayerInput creates a validated player input pinned to a version
func NewPlayerInput(choice string, targetVersion int) (PlayerInput, error) {
	if targetVersion < 0 {
		return PlayerInput{}, fmt.Errorf("target version must be non-negative, got %d", targetVersion)
	}
	return PlayerInput{choice: choice, targetVersion: targetVersion}, nil
}

// NewHeadInput creates a player input targeting the current head version
func NewHeadInput(choice string) PlayerInput {
	return PlayerInput{choice: choice, targetVersion: TargetHead}
}

// Choice returns the player's choice text, possibly empty when the call
// merely supplies a dice outcome for a suspended step
func (p PlayerInput) Choice() string {
	return p.choice
}

// TargetVersion returns the state version the input was made against,
// or TargetHead
func (p PlayerInput) TargetVersion() int {
	return p.targetVersion
}

// TargetsHead reports whether the input targets the current head version
func (p PlayerInput) TargetsHead() bool {
	return p.targetVersion == TargetHead
}

// Rebase returns the input retargeted at the given version.
// Only meaningful during bounded conflict retries of head-targeting inputs.
func (p PlayerInput) Rebase(version int) PlayerInput {
	return PlayerInput{choice: p.choice, targetVersion: version}
}
