// Package evidence defines the blob store for photo evidence attached to
// completed tasks. Implementations exist for the local filesystem and GCS.
package evidence

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound indicates no object exists under the requested key.
var ErrNotFound = errors.New("evidence object not found")

// Store is the photo evidence blob store.
type Store interface {
	// Save writes the object under key, overwriting any previous content.
	Save(ctx context.Context, key string, r io.Reader) error

	// Open returns a reader for the object under key.
	// Returns ErrNotFound if it doesn't exist.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the object under key.
	// Returns ErrNotFound if it doesn't exist.
	Delete(ctx context.Context, key string) error
}
