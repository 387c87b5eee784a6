package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/mrcode/diabetes-dashboard/internal/config"
)

// ArchivePrefix is the object key prefix for uploaded reports
const ArchivePrefix = "reports"

// Archive keeps a copy of exported reports
type Archive interface {
	Put(ctx context.Context, filename string, data []byte) (string, error)
}

// MinioArchive uploads reports to an S3-compatible bucket
type MinioArchive struct {
	client *minio.Client
	bucket string
}

// NewMinioArchive connects to the bucket described by cfg. The bucket must
// already exist.
func NewMinioArchive(cfg config.ReportConfig) (*MinioArchive, error) {
	if !cfg.ArchiveEnabled() {
		return nil, errors.New("report archive is not configured")
	}
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	return &MinioArchive{client: client, bucket: cfg.Bucket}, nil
}

// Put stores data under reports/<filename> and returns the object key
func (m *MinioArchive) Put(ctx context.Context, filename string, data []byte) (string, error) {
	key := path.Join(ArchivePrefix, path.Base(filename))
	_, err := m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/pdf",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s to bucket %s: %w", key, m.bucket, err)
	}
	return key, nil
}
