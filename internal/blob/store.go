// Package blob provides repository backends on top of simple key/value blob stores:
// the local filesystem (also used as the local cache) and S3-compatible object storage.
package blob

import (
	"context"
	"errors"
)

// ErrNotFound is returned by a BlobStore when a key does not exist.
var ErrNotFound = errors.New("blob not found")

// BlobStore defines the interface for abstract storage backends.
// Keys are slash-separated paths relative to the store root.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]string, error)
}
