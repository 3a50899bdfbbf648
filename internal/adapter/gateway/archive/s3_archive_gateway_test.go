package archive

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fablestep/fablestep/internal/application/port/output"
)

func TestS3ArchiveGateway_SaveAndLoadTranscript(t *testing.T) {
	mockClient := NewMockS3Client()
	gateway := NewS3ArchiveGatewayWithClient(mockClient, "test-bucket", "test-prefix")
	ctx := context.Background()

	content := []byte("Game 01X\nVersion 3, section 12\n")
	meta, err := gateway.SaveTranscript(ctx, output.SaveTranscriptRequest{
		GameID:  "game-001",
		Version: 3,
		Content: content,
	})
	require.NoError(t, err)
	assert.Equal(t, "game-001", meta.GameID)
	assert.Equal(t, 3, meta.Version)
	assert.Equal(t, int64(len(content)), meta.Size)
	assert.Equal(t, "s3://test-bucket/test-prefix/transcripts/game-001/v3/content", meta.StoragePath)

	// Two objects per transcript: content + metadata.json
	assert.Equal(t, 2, mockClient.ObjectCount())

	loaded, err := gateway.LoadTranscript(ctx, "game-001", 3)
	require.NoError(t, err)
	assert.Equal(t, content, loaded)
}

func TestS3ArchiveGateway_LoadTranscript_NotFound(t *testing.T) {
	gateway := NewS3ArchiveGatewayWithClient(NewMockS3Client(), "test-bucket", "")

	_, err := gateway.LoadTranscript(context.Background(), "nope", 1)
	assert.Error(t, err)
}

func TestS3ArchiveGateway_ListTranscripts(t *testing.T) {
	gateway := NewS3ArchiveGatewayWithClient(NewMockS3Client(), "test-bucket", "p")
	ctx := context.Background()

	for _, version := range []int{3, 1, 2} {
		_, err := gateway.SaveTranscript(ctx, output.SaveTranscriptRequest{
			GameID:  "game-002",
			Version: version,
			Content: []byte("transcript"),
		})
		require.NoError(t, err)
	}
	_, err := gateway.SaveTranscript(ctx, output.SaveTranscriptRequest{
		GameID:  "other-game",
		Version: 1,
		Content: []byte("transcript"),
	})
	require.NoError(t, err)

	metas, err := gateway.ListTranscripts(ctx, "game-002")
	require.NoError(t, err)
	require.Len(t, metas, 3)

	// Oldest version first
	for i, meta := range metas {
		assert.Equal(t, i+1, meta.Version)
		assert.Equal(t, "game-002", meta.GameID)
	}
}

func TestS3ArchiveGateway_ListTranscripts_Empty(t *testing.T) {
	gateway := NewS3ArchiveGatewayWithClient(NewMockS3Client(), "test-bucket", "")

	metas, err := gateway.ListTranscripts(context.Background(), "game-003")
	require.NoError(t, err)
	assert.Empty(t, metas)
}

func TestS3ArchiveGateway_DeleteTranscript(t *testing.T) {
	mockClient := NewMockS3Client()
	gateway := NewS3ArchiveGatewayWithClient(mockClient, "test-bucket", "")
	ctx := context.Background()

	_, err := gateway.SaveTranscript(ctx, output.SaveTranscriptRequest{
		GameID:  "game-004",
		Version: 1,
		Content: []byte("transcript"),
	})
	require.NoError(t, err)

	require.NoError(t, gateway.DeleteTranscript(ctx, "game-004", 1))
	assert.Equal(t, 0, mockClient.ObjectCount())
}
