// Package storage provides the S3-compatible object store used for exported
// plan snapshots.
package storage

import (
	"context"
	"io"
	"strings"
)

// ObjectStorage is the capability the snapshot service needs from an object
// store.
type ObjectStorage interface {
	// EnsureBucket creates the backing bucket when missing
	EnsureBucket(ctx context.Context) error

	// Upload stores an object under key
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error

	// Download retrieves an object; the caller closes the reader
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// GetURL returns the public URL for an object
	GetURL(key string) string

	// Delete removes an object
	Delete(ctx context.Context, key string) error

	// Exists reports whether an object is present
	Exists(ctx context.Context, key string) (bool, error)
}

// BackendType identifies the flavor of S3-compatible service behind an
// endpoint.
type BackendType string

const (
	BackendR2           BackendType = "r2"
	BackendS3           BackendType = "s3"
	BackendS3Compatible BackendType = "s3compatible"
)

// New creates an ObjectStorage for the configured endpoint, detecting the
// backend flavor when cfg.Type is empty.
func New(cfg *Config) (ObjectStorage, error) {
	if cfg.Type == "" {
		cfg.Type = detectBackend(cfg.Endpoint)
	}
	return newS3Storage(cfg)
}

func detectBackend(endpoint string) BackendType {
	endpoint = strings.ToLower(endpoint)
	switch {
	case strings.Contains(endpoint, "r2.cloudflarestorage.com"):
		return BackendR2
	case strings.Contains(endpoint, "amazonaws.com"):
		return BackendS3
	default:
		return BackendS3Compatible
	}
}
