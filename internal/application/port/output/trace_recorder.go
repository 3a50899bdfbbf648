package output

import (
	"context"

	"github.com/fablestep/fablestep/internal/domain/model/game"
	"github.com/fablestep/fablestep/internal/domain/model/trace"
)

// TraceRecorder persists trace entries to durable storage.
// Recording is best-effort: a failure never rolls back the committed
// state, it is surfaced as a degraded-trace event instead.
type TraceRecorder interface {
	// Record persists one trace entry for a game
	Record(ctx context.Context, gameID game.ID, entry trace.Entry) error
}
