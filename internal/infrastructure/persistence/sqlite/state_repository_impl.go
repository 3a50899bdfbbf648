package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/fablestep/fablestep/internal/domain/model/game"
	"github.com/fablestep/fablestep/internal/domain/model/step"
	"github.com/fablestep/fablestep/internal/domain/repository"
)

// StateRepositoryImpl implements repository.StateRepository with SQLite.
// The head pointer update carries a WHERE version guard, so a concurrent
// commit flips exactly one writer's update to zero rows and the loser
// gets a conflict with nothing written.
type StateRepositoryImpl struct {
	db *sql.DB
}

// NewStateRepository creates a new SQLite-based state repository
func NewStateRepository(db *sql.DB) repository.StateRepository {
	return &StateRepositoryImpl{db: db}
}

// Create stores the initial state of a new game
func (r *StateRepositoryImpl) Create(ctx context.Context, state *game.State) error {
	if state.Version() != 0 {
		return step.NewValidationError("new game must start at version 0, got %d", state.Version())
	}

	snapshot, err := json.Marshal(state.Snapshot())
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO game_heads (game_id, version) VALUES (?, 0)`,
		state.ID().String(),
	)
	if err != nil {
		return fmt.Errorf("insert head: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return step.NewConflictError("game %s already exists", state.ID())
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO game_states (game_id, version, snapshot) VALUES (?, 0, ?)`,
		state.ID().String(), string(snapshot),
	); err != nil {
		return fmt.Errorf("insert state: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Get returns the current committed state for a game
func (r *StateRepositoryImpl) Get(ctx context.Context, id game.ID) (*game.State, error) {
	var snapshot string
	err := r.db.QueryRowContext(ctx, `
		SELECT s.snapshot
		FROM game_heads h
		JOIN game_states s ON s.game_id = h.game_id AND s.version = h.version
		WHERE h.game_id = ?`,
		id.String(),
	).Scan(&snapshot)
	if err == sql.ErrNoRows {
		return nil, step.NewNotFoundError("game %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("query state: %w", err)
	}

	var snap game.Snapshot
	if err := json.Unmarshal([]byte(snapshot), &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return game.FromSnapshot(snap)
}

// CommitIfVersion atomically stores the new state and advances the head
// pointer when the stored version equals expectedVersion
func (r *StateRepositoryImpl) CommitIfVersion(ctx context.Context, id game.ID, expectedVersion int, newState *game.State) error {
	if newState.Version() != expectedVersion+1 {
		return step.NewValidationError("new state version %d must be exactly %d",
			newState.Version(), expectedVersion+1)
	}

	snapshot, err := json.Marshal(newState.Snapshot())
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE game_heads SET version = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE game_id = ? AND version = ?`,
		newState.Version(), id.String(), expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("advance head: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("advance head: %w", err)
	}
	if rows == 0 {
		var exists int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM game_heads WHERE game_id = ?`, id.String(),
		).Scan(&exists); err != nil {
			return fmt.Errorf("check game: %w", err)
		}
		if exists == 0 {
			return step.NewNotFoundError("game %s not found", id)
		}
		return step.NewConflictError("expected version %d for game %s", expectedVersion, id)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO game_states (game_id, version, snapshot) VALUES (?, ?, ?)`,
		id.String(), newState.Version(), string(snapshot),
	); err != nil {
		return fmt.Errorf("insert state: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// List returns the IDs of all known games in sorted order
func (r *StateRepositoryImpl) List(ctx context.Context) ([]game.ID, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT game_id FROM game_heads ORDER BY game_id`)
	if err != nil {
		return nil, fmt.Errorf("query games: %w", err)
	}
	defer rows.Close()

	var ids []game.ID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan game ID: %w", err)
		}
		ids = append(ids, game.ID(id))
	}
	return ids, rows.Err()
}
