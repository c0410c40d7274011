package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/johnquangdev/shot-analyzer/pkg/config"
)

// ErrObjectNotFound is returned when a referenced video does not exist
var ErrObjectNotFound = errors.New("object not found")

// ErrObjectTooLarge is returned when a video exceeds the configured limit
var ErrObjectTooLarge = errors.New("object exceeds size limit")

// MinIOClient reads submitted videos from object storage.
// Videos are owned by the uploader; this client never writes or deletes.
type MinIOClient struct {
	client          *minio.Client
	bucket          string
	maxBytes        int64
	retryMaxElapsed time.Duration
	logger          *zap.Logger
}

// NewMinIOClient creates a new MinIO client
func NewMinIOClient(cfg *config.StorageConfig, logger *zap.Logger) (*MinIOClient, error) {
	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &MinIOClient{
		client:          minioClient,
		bucket:          cfg.BucketName,
		maxBytes:        cfg.MaxVideoBytes,
		retryMaxElapsed: cfg.RetryMaxElapsed,
		logger:          logger,
	}, nil
}

// ParseObjectURI splits a video reference into bucket and key.
// Accepts s3://bucket/key, minio://bucket/key or a bare key in the default bucket.
func ParseObjectURI(uri, defaultBucket string) (string, string, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return "", "", fmt.Errorf("empty video uri")
	}

	for _, scheme := range []string{"s3://", "minio://"} {
		if !strings.HasPrefix(uri, scheme) {
			continue
		}
		rest := strings.TrimPrefix(uri, scheme)
		bucket, key, ok := strings.Cut(rest, "/")
		if !ok || bucket == "" || key == "" {
			return "", "", fmt.Errorf("invalid video uri %q", uri)
		}
		return bucket, key, nil
	}

	if strings.Contains(uri, "://") {
		return "", "", fmt.Errorf("unsupported video uri scheme %q", uri)
	}
	if defaultBucket == "" {
		return "", "", fmt.Errorf("no bucket for video key %q", uri)
	}
	return defaultBucket, strings.TrimPrefix(uri, "/"), nil
}

// Download reads a whole video into memory, retrying transient failures
// with exponential backoff. Missing or oversized objects fail immediately.
func (m *MinIOClient) Download(ctx context.Context, uri string) ([]byte, error) {
	bucket, key, err := ParseObjectURI(uri, m.bucket)
	if err != nil {
		return nil, err
	}

	var data []byte
	attempt := 0
	operation := func() error {
		attempt++
		data, err = m.download(ctx, bucket, key)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrObjectNotFound) || errors.Is(err, ErrObjectTooLarge) {
			return backoff.Permanent(err)
		}
		if m.logger != nil {
			m.logger.Warn("🔁 Video download failed, retrying",
				zap.String("bucket", bucket),
				zap.String("key", key),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
		}
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	if m.retryMaxElapsed > 0 {
		b.MaxElapsedTime = m.retryMaxElapsed
	}
	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return nil, fmt.Errorf("failed to download %s/%s: %w", bucket, key, err)
	}
	return data, nil
}

func (m *MinIOClient) download(ctx context.Context, bucket, key string) ([]byte, error) {
	obj, err := m.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, classify(err)
	}
	defer obj.Close()

	info, err := obj.Stat()
	if err != nil {
		return nil, classify(err)
	}
	if m.maxBytes > 0 && info.Size > m.maxBytes {
		return nil, fmt.Errorf("%w: %d > %d bytes", ErrObjectTooLarge, info.Size, m.maxBytes)
	}

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, classify(err)
	}
	return data, nil
}

func classify(err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return fmt.Errorf("%w: %v", ErrObjectNotFound, err)
	}
	return err
}

// GetBucketInfo returns information about the bucket and connection
func (m *MinIOClient) GetBucketInfo(ctx context.Context) (map[string]interface{}, error) {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}

	return map[string]interface{}{
		"bucket":        m.bucket,
		"bucket_exists": exists,
		"endpoint":      m.client.EndpointURL().String(),
	}, nil
}
