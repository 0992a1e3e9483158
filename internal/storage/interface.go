package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned when no blob exists under the requested key
var ErrNotFound = errors.New("blob not found")

// BlobStorage is a flat key/value store for crate tarballs.
// Keys use forward slashes regardless of the backend.
type BlobStorage interface {
	// Store saves content under key, replacing any previous blob
	Store(ctx context.Context, key string, content io.Reader, contentType string) error

	// Retrieve opens the blob stored under key
	Retrieve(ctx context.Context, key string) (io.ReadCloser, error)

	Exists(ctx context.Context, key string) (bool, error)
}

// CrateStore reads and writes crate tarballs by name and version
type CrateStore interface {
	Get(ctx context.Context, name, vers string) ([]byte, error)
	Put(ctx context.Context, name, vers string, data []byte) error
}
