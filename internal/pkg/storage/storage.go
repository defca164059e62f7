package storage

import (
	"context"
	"io"
)

// Storage is an object store for generated files such as ledger exports.
type Storage interface {
	// Put stores reader under key, replacing any existing object.
	Put(ctx context.Context, key string, reader io.Reader, contentType string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	// URL returns where the object can be downloaded.
	URL(key string) string
}
