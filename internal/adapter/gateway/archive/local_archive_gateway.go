// Package archive stores rendered game transcripts outside the state
// store, on the local filesystem or in S3.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fablestep/fablestep/internal/application/port/output"
)

// LocalArchiveGateway implements ArchiveGateway on the local filesystem.
// Directory structure: <baseDir>/<gameID>/v<version>.txt plus a
// metadata.json per transcript.
type LocalArchiveGateway struct {
	baseDir string
}

// NewLocalArchiveGateway creates a filesystem-based transcript archive
func NewLocalArchiveGateway(baseDir string) (*LocalArchiveGateway, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("create archive directory: %w", err)
	}
	return &LocalArchiveGateway{baseDir: baseDir}, nil
}

var _ output.ArchiveGateway = (*LocalArchiveGateway)(nil)

// SaveTranscript stores a transcript and its metadata
func (g *LocalArchiveGateway) SaveTranscript(ctx context.Context, req output.SaveTranscriptRequest) (*output.TranscriptMetadata, error) {
	gameDir := filepath.Join(g.baseDir, req.GameID)
	if err := os.MkdirAll(gameDir, 0755); err != nil {
		return nil, fmt.Errorf("create game directory: %w", err)
	}

	contentPath := filepath.Join(gameDir, transcriptName(req.Version))
	if err := os.WriteFile(contentPath, req.Content, 0644); err != nil {
		return nil, fmt.Errorf("write transcript: %w", err)
	}

	meta := &output.TranscriptMetadata{
		GameID:      req.GameID,
		Version:     req.Version,
		StoragePath: contentPath,
		Size:        int64(len(req.Content)),
		SavedAt:     time.Now().UTC(),
	}

	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	metaPath := filepath.Join(gameDir, metadataName(req.Version))
	if err := os.WriteFile(metaPath, metaJSON, 0644); err != nil {
		return nil, fmt.Errorf("write metadata: %w", err)
	}

	return meta, nil
}

// LoadTranscript retrieves a stored transcript
func (g *LocalArchiveGateway) LoadTranscript(ctx context.Context, gameID string, version int) ([]byte, error) {
	path := filepath.Join(g.baseDir, gameID, transcriptName(version))
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	return data, nil
}

// ListTranscripts lists stored transcript metadata for a game, oldest first
func (g *LocalArchiveGateway) ListTranscripts(ctx context.Context, gameID string) ([]*output.TranscriptMetadata, error) {
	gameDir := filepath.Join(g.baseDir, gameID)
	entries, err := os.ReadDir(gameDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read game directory: %w", err)
	}

	var metas []*output.TranscriptMetadata
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "v") || !strings.HasSuffix(name, ".meta.json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(gameDir, name))
		if err != nil {
			return nil, fmt.Errorf("read metadata %s: %w", name, err)
		}
		var meta output.TranscriptMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			return nil, fmt.Errorf("parse metadata %s: %w", name, err)
		}
		metas = append(metas, &meta)
	}

	sort.Slice(metas, func(i, j int) bool { return metas[i].Version < metas[j].Version })
	return metas, nil
}

func transcriptName(version int) string {
	return "v" + strconv.Itoa(version) + ".txt"
}

func metadataName(version int) string {
	return "v" + strconv.Itoa(version) + ".meta.json"
}
