// Package blob abstracts the binary storage backend for generated recordings.
package blob

import (
	"context"
	"io"
)

// Info aggregates object count and total size across the store.
type Info struct {
	FileCount  int   `json:"file_count"`
	TotalBytes int64 `json:"total_bytes"`
}

// Store is a blob store addressed by file name.
type Store interface {
	// Write stores the payload under key. size may be -1 if unknown.
	Write(ctx context.Context, key string, r io.Reader, size int64) error

	// Read opens the payload stored under key.
	Read(ctx context.Context, key string) (io.ReadCloser, int64, error)

	// Delete removes the payload stored under key.
	Delete(ctx context.Context, key string) error

	// Exists reports whether a payload is stored under key.
	Exists(ctx context.Context, key string) (bool, error)

	// PublicURL returns the address callers use to play the payload.
	PublicURL(key string) string

	// Stat walks the store and aggregates file count and byte size.
	Stat(ctx context.Context) (Info, error)
}
