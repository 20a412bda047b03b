package storage

import (
	"errors"
	"io"
)

// ErrInvalidName is returned for blob names that could escape the store.
var ErrInvalidName = errors.New("invalid blob name")

// BlobStore is durable storage for uploaded file bytes, addressed by
// generated names that are never derived from user-supplied filenames.
type BlobStore interface {
	// Save writes the reader's contents to a new blob and returns its
	// generated name.
	Save(r io.Reader) (name string, size int64, err error)

	// Open opens a blob for reading.
	Open(name string) (io.ReadSeekCloser, error)

	// Remove deletes a blob. Removing an absent blob is not an error.
	Remove(name string) error
}
