// Package storage keeps the raw uploaded batch files in S3-compatible object
// storage so a disputed ingestion can be audited against its source document.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"path"
	"path/filepath"
	"time"

	"salesops_backend/platform/config"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// PresignedURLTTL bounds the lifetime of download links to batch files.
const PresignedURLTTL = 15 * time.Minute

// BatchFileStore archives uploaded lead files in MinIO. A nil store is a
// valid no-op: ingestion proceeds without archiving when MinIO is not
// configured.
type BatchFileStore struct {
	client *minio.Client
	bucket string
}

func NewBatchFileStore(cfg config.StorageConfig) (*BatchFileStore, error) {
	if !cfg.IsMinIOEnabled() {
		return nil, nil
	}

	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &BatchFileStore{
		client: client,
		bucket: cfg.GetMinioBucketBatchFiles(),
	}, nil
}

// EnsureBucketExists creates the archive bucket if it does not exist.
func (s *BatchFileStore) EnsureBucketExists(ctx context.Context) error {
	if s == nil {
		return nil
	}

	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
		}
	}
	return nil
}

// ArchiveBatchFile implements ports.BatchArchiver. The object key embeds the
// batch ID so the stored file can always be traced back to its batch row.
func (s *BatchFileStore) ArchiveBatchFile(ctx context.Context, batchID uuid.UUID, fileName string, data []byte) (string, bool, error) {
	if s == nil {
		return "", false, nil
	}

	ext := path.Ext(fileName)
	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	fileKey := filepath.ToSlash(filepath.Join("batches", batchID.String(), fileName))
	_, err := s.client.PutObject(ctx, s.bucket, fileKey, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", false, fmt.Errorf("failed to archive batch file %s: %w", fileKey, err)
	}
	return fileKey, true, nil
}

// PresignDownload creates a short-lived download URL for an archived file.
func (s *BatchFileStore) PresignDownload(ctx context.Context, fileKey string) (string, error) {
	if s == nil {
		return "", fmt.Errorf("batch file storage is not configured")
	}

	u, err := s.client.PresignedGetObject(ctx, s.bucket, fileKey, PresignedURLTTL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to presign download for %s: %w", fileKey, err)
	}
	return u.String(), nil
}
