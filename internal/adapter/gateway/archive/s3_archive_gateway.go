package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/fablestep/fablestep/internal/application/port/output"
)

// S3ArchiveGateway implements ArchiveGateway using AWS S3.
// Bucket structure: s3://<bucket>/<prefix>/transcripts/<gameID>/v<version>/
//   - content: the rendered transcript
//   - metadata.json: transcript metadata
type S3ArchiveGateway struct {
	client     S3API // Use interface for testability
	bucketName string
	prefix     string
}

// S3Config holds S3 archive gateway configuration
type S3Config struct {
	BucketName string // S3 bucket name
	Prefix     string // Optional key prefix
	Region     string // AWS region (optional, uses default if empty)
}

// NewS3ArchiveGateway creates an S3-backed transcript archive
func NewS3ArchiveGateway(cfg S3Config) (*S3ArchiveGateway, error) {
	awsCfg, err := config.LoadDefaultConfig(context.Background())
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	if cfg.Region != "" {
		awsCfg.Region = cfg.Region
	}

	return &S3ArchiveGateway{
		client:     s3.NewFromConfig(awsCfg),
		bucketName: cfg.BucketName,
		prefix:     cfg.Prefix,
	}, nil
}

// NewS3ArchiveGatewayWithClient creates an S3-backed transcript archive
// with a custom client. This is primarily used for testing with mocks.
func NewS3ArchiveGatewayWithClient(client S3API, bucketName, prefix string) *S3ArchiveGateway {
	return &S3ArchiveGateway{
		client:     client,
		bucketName: bucketName,
		prefix:     prefix,
	}
}

var _ output.ArchiveGateway = (*S3ArchiveGateway)(nil)

// SaveTranscript uploads a transcript and its metadata
func (g *S3ArchiveGateway) SaveTranscript(ctx context.Context, req output.SaveTranscriptRequest) (*output.TranscriptMetadata, error) {
	contentKey := g.buildKey("transcripts", req.GameID, versionSegment(req.Version), "content")

	_, err := g.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(g.bucketName),
		Key:         aws.String(contentKey),
		Body:        bytes.NewReader(req.Content),
		ContentType: aws.String("text/plain; charset=utf-8"),
		Metadata: map[string]string{
			"game-id":     req.GameID,
			"version":     fmt.Sprintf("%d", req.Version),
			"uploaded-at": time.Now().Format(time.RFC3339),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("upload transcript to S3: %w", err)
	}

	meta := &output.TranscriptMetadata{
		GameID:      req.GameID,
		Version:     req.Version,
		StoragePath: fmt.Sprintf("s3://%s/%s", g.bucketName, contentKey),
		Size:        int64(len(req.Content)),
		SavedAt:     time.Now().UTC(),
	}

	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}

	metadataKey := g.buildKey("transcripts", req.GameID, versionSegment(req.Version), "metadata.json")
	_, err = g.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(g.bucketName),
		Key:         aws.String(metadataKey),
		Body:        bytes.NewReader(metaJSON),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return nil, fmt.Errorf("upload metadata to S3: %w", err)
	}

	return meta, nil
}

// LoadTranscript downloads a stored transcript
func (g *S3ArchiveGateway) LoadTranscript(ctx context.Context, gameID string, version int) ([]byte, error) {
	key := g.buildKey("transcripts", gameID, versionSegment(version), "content")

	result, err := g.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(g.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("download transcript from S3: %w", err)
	}
	defer result.Body.Close()

	content, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	return content, nil
}

// ListTranscripts lists stored transcript metadata for a game, oldest first
func (g *S3ArchiveGateway) ListTranscripts(ctx context.Context, gameID string) ([]*output.TranscriptMetadata, error) {
	prefix := g.buildKey("transcripts", gameID) + "/"

	listOutput, err := g.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(g.bucketName),
		Prefix: aws.String(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("list S3 objects: %w", err)
	}

	var metas []*output.TranscriptMetadata
	for _, obj := range listOutput.Contents {
		key := aws.ToString(obj.Key)
		if !strings.HasSuffix(key, "metadata.json") {
			continue
		}

		metadataObj, err := g.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(g.bucketName),
			Key:    aws.String(key),
		})
		if err != nil {
			// Skip transcripts with download errors
			continue
		}

		metaJSON, err := io.ReadAll(metadataObj.Body)
		metadataObj.Body.Close()
		if err != nil {
			continue
		}

		var meta output.TranscriptMetadata
		if err := json.Unmarshal(metaJSON, &meta); err != nil {
			continue
		}
		metas = append(metas, &meta)
	}

	sort.Slice(metas, func(i, j int) bool { return metas[i].Version < metas[j].Version })
	return metas, nil
}

// DeleteTranscript removes a transcript and its metadata (utility method)
func (g *S3ArchiveGateway) DeleteTranscript(ctx context.Context, gameID string, version int) error {
	contentKey := g.buildKey("transcripts", gameID, versionSegment(version), "content")
	metadataKey := g.buildKey("transcripts", gameID, versionSegment(version), "metadata.json")

	_, err := g.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(g.bucketName),
		Key:    aws.String(contentKey),
	})
	if err != nil {
		return fmt.Errorf("delete transcript from S3: %w", err)
	}

	_, err = g.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(g.bucketName),
		Key:    aws.String(metadataKey),
	})
	if err != nil {
		return fmt.Errorf("delete metadata from S3: %w", err)
	}

	return nil
}

func (g *S3ArchiveGateway) buildKey(parts ...string) string {
	if g.prefix != "" {
		parts = append([]string{g.prefix}, parts...)
	}
	return strings.Join(parts, "/")
}

func versionSegment(version int) string {
	return fmt.Sprintf("v%d", version)
}
