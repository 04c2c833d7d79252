package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

var ErrNotFound = errors.New("file not found")

type FileStorage interface {
	// Upload stores the content under key and returns the stored key.
	Upload(ctx context.Context, file io.Reader, key string, contentType string) (string, error)

	// Download retrieves a file. Callers close the reader.
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	Delete(ctx context.Context, key string) error

	// GetURL returns a public or presigned URL valid for expiry.
	GetURL(ctx context.Context, key string, expiry time.Duration) (string, error)

	Exists(ctx context.Context, key string) (bool, error)
}
