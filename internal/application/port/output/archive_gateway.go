package output

import (
	"context"
	"time"
)

// SaveTranscriptRequest carries a rendered game transcript for archival
type SaveTranscriptRequest struct {
	GameID  string
	Version int
	Content []byte
}

// TranscriptMetadata describes a stored transcript
type TranscriptMetadata struct {
	GameID      string
	Version     int
	StoragePath string // local path or object key
	Size        int64
	SavedAt     time.Time
}

// ArchiveGateway stores rendered game transcripts outside the state store.
// Implementations: local filesystem, S3.
type ArchiveGateway interface {
	// SaveTranscript stores a transcript and returns its metadata
	SaveTranscript(ctx context.Context, req SaveTranscriptRequest) (*TranscriptMetadata, error)

	// LoadTranscript retrieves a stored transcript by game ID and version
	LoadTranscript(ctx context.Context, gameID string, version int) ([]byte, error)

	// ListTranscripts lists stored transcript metadata for a game
	ListTranscripts(ctx context.Context, gameID string) ([]*TranscriptMetadata, error)
}
