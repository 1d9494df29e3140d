package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"aper/internal/platform/config"
)

var ErrNotConfigured = errors.New("object storage not configured")

type Store struct {
	client *minio.Client
	bucket string
}

// New returns nil and ErrNotConfigured when no export endpoint is set.
func New(cfg config.Config) (*Store, error) {
	if cfg.ExportEndpoint == "" || cfg.ExportBucket == "" {
		return nil, ErrNotConfigured
	}
	client, err := minio.New(cfg.ExportEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.ExportAccessKey, cfg.ExportSecretKey, ""),
		Secure: cfg.ExportUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("object storage client: %w", err)
	}
	return &Store{client: client, bucket: cfg.ExportBucket}, nil
}

func (s *Store) Bucket() string {
	return s.bucket
}

// EnsureBucket creates the export bucket when it does not exist.
func (s *Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("bucket lookup: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket: %w", err)
	}
	return nil
}

func (s *Store) Put(ctx context.Context, name, contentType string, data []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, name, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", name, err)
	}
	return nil
}
