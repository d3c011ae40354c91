// Package storage persists uploaded images in an object bucket, with
// GCS and MinIO backends behind one interface.
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/imago3d/apiserver/config"
)

// ObjectStorage defines the object operations the upload flow uses.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Bucket() string
}

// Open selects and constructs the configured backend. An empty backend
// name returns (nil, nil): the upload feature is disabled.
func Open(ctx context.Context, cfg config.StorageConfig) (ObjectStorage, error) {
	switch cfg.Backend {
	case "":
		return nil, nil
	case "gcs":
		return NewGCSBackend(ctx, cfg.GCS)
	case "minio":
		return NewMinioBackend(cfg.Minio)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
