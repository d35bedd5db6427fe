//go:generate mockgen -destination=mocks/etag.go . ETagStore
package download

import (
	"context"
	"io"
)

// ETagStore persists the ETag last received for a destination file. The
// storage format (sidecar file, extended attribute, database) is up to the
// implementation; see package etag. Implementations must be safe for
// concurrent use across different paths.
type ETagStore interface {
	// Get returns the stored ETag for path, or "" if none is stored.
	Get(path string) (string, error)
	// Set records etag for path.
	Set(path, etag string) error
	// Delete forgets the ETag for path. Deleting a missing entry is not an error.
	Delete(path string) error
}

// ContentChecker inspects a downloaded file and reports whether it is usable.
// It receives the file from its first byte.
type ContentChecker func(r io.Reader) bool

// PostProcessor transforms the file at path in place (e.g. decompression)
// after it passed the content check and before it is promoted.
type PostProcessor func(ctx context.Context, path string) error
