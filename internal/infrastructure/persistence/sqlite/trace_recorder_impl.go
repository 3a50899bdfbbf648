package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fablestep/fablestep/internal/application/port/output"
	"github.com/fablestep/fablestep/internal/domain/model/game"
	"github.com/fablestep/fablestep/internal/domain/model/trace"
)

// TraceRecorderImpl persists trace entries into the append-only
// trace_entries table. Entries are only ever inserted, never updated or
// deleted.
type TraceRecorderImpl struct {
	db *sql.DB
}

// NewTraceRecorder creates a new SQLite-based trace recorder
func NewTraceRecorder(db *sql.DB) output.TraceRecorder {
	return &TraceRecorderImpl{db: db}
}

// Record persists one trace entry for a game
func (r *TraceRecorderImpl) Record(ctx context.Context, gameID game.ID, entry trace.Entry) error {
	payload, err := json.Marshal(entry.Payload())
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO trace_entries (entry_id, game_id, ts, section_number, kind, payload, previous_version)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID(),
		gameID.String(),
		entry.Timestamp().Format(time.RFC3339Nano),
		entry.SectionNumber(),
		entry.Kind().String(),
		string(payload),
		entry.PreviousVersion(),
	); err != nil {
		return fmt.Errorf("insert trace entry: %w", err)
	}
	return nil
}

// FindByGame returns the persisted entries for a game ordered by the
// version they transitioned from
func (r *TraceRecorderImpl) FindByGame(ctx context.Context, gameID game.ID) ([]trace.Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT entry_id, ts, section_number, kind, payload, previous_version
		FROM trace_entries WHERE game_id = ? ORDER BY previous_version`,
		gameID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("query trace entries: %w", err)
	}
	defer rows.Close()

	var entries []trace.Entry
	for rows.Next() {
		var (
			id, ts, kind, payloadJSON string
			section, prevVersion      int
		)
		if err := rows.Scan(&id, &ts, &section, &kind, &payloadJSON, &prevVersion); err != nil {
			return nil, fmt.Errorf("scan trace entry: %w", err)
		}

		timestamp, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("parse timestamp: %w", err)
		}

		var payload map[string]interface{}
		if err := json.Unmarshal([]byte(payloadJSON), &payload); err != nil {
			return nil, fmt.Errorf("unmarshal payload: %w", err)
		}

		entry, err := trace.Restore(id, timestamp, section, trace.Kind(kind), payload, prevVersion)
		if err != nil {
			return nil, fmt.Errorf("restore trace entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
