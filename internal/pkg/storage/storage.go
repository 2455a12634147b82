package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by Download when nothing is stored at path.
var ErrNotFound = errors.New("storage: object not found")

// BlobStorage stores opaque objects under slash-separated keys. Upload
// replaces an existing object atomically: readers see either the old or the
// new content, never a partial write.
type BlobStorage interface {
	// Upload writes the object and returns the cleaned key
	Upload(ctx context.Context, file io.Reader, path string, contentType string) (string, error)

	// Download retrieves an object
	Download(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete removes an object; deleting a missing object is not an error
	Delete(ctx context.Context, path string) error

	// Exists checks if an object exists
	Exists(ctx context.Context, path string) (bool, error)

	Close() error
}
