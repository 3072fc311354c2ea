package storage

import (
	"context"
	"io"
)

// BlobStore abstracts the backing store for uploaded file bytes. Metadata
// lives in PostgreSQL; the store only deals in opaque keys.
type BlobStore interface {
	// Put streams a blob to the store under the given key.
	Put(ctx context.Context, key string, r io.Reader) error

	// Get opens a blob for reading. The caller must close the returned
	// reader.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes a blob. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Ping verifies the store is reachable, for readiness checks.
	Ping(ctx context.Context) error
}
