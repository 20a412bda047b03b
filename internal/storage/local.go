package storage

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	nameAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	nameLength   = 21
)

// LocalBlobStore keeps blobs as flat files under a single directory. The
// directory doubles as the static /uploads root served by the HTTP layer.
type LocalBlobStore struct {
	dir string
}

// NewLocalBlobStore creates the directory if needed and returns the store.
func NewLocalBlobStore(dir string) (*LocalBlobStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &LocalBlobStore{dir: dir}, nil
}

// Dir returns the backing directory.
func (s *LocalBlobStore) Dir() string {
	return s.dir
}

// Save writes the reader's contents under a freshly generated name.
func (s *LocalBlobStore) Save(r io.Reader) (string, int64, error) {
	name, err := gonanoid.Generate(nameAlphabet, nameLength)
	if err != nil {
		return "", 0, err
	}
	name += ".pdf"

	f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", 0, err
	}

	size, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(filepath.Join(s.dir, name))
		return "", 0, err
	}

	return name, size, nil
}

// Open opens a blob for reading.
func (s *LocalBlobStore) Open(name string) (io.ReadSeekCloser, error) {
	if !validName(name) {
		return nil, ErrInvalidName
	}
	return os.Open(filepath.Join(s.dir, name))
}

// Remove deletes a blob, tolerating an already-missing file.
func (s *LocalBlobStore) Remove(name string) error {
	if !validName(name) {
		return ErrInvalidName
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// validName rejects anything that is not a bare generated filename.
func validName(name string) bool {
	return name != "" &&
		!strings.ContainsAny(name, "/\\") &&
		name == filepath.Base(name) &&
		!strings.HasPrefix(name, ".")
}
