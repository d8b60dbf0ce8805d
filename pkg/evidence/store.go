// Package evidence persists episode snapshot frames. Each captured
// frame is stored once per episode, addressed by an opaque reference.
package evidence

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a reference does not resolve.
var ErrNotFound = errors.New("evidence: not found")

// Store is the persistence interface for evidence frames.
type Store interface {
	// Save persists a JPEG and returns its opaque reference.
	Save(jpeg []byte) (ref string, err error)

	// Load retrieves the JPEG for a reference.
	Load(ref string) ([]byte, error)
}

// FileStore stores evidence as id-addressed JPEG files in a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates a file store rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("evidence: create directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Save writes the JPEG under a fresh uuid reference. The write goes to
// a temp file first and is renamed into place, so readers never see a
// partial frame.
func (s *FileStore) Save(jpeg []byte) (string, error) {
	ref := uuid.New().String() + ".jpg"
	path := filepath.Join(s.dir, ref)

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, jpeg, 0644); err != nil {
		return "", fmt.Errorf("evidence: write: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("evidence: rename: %w", err)
	}

	return ref, nil
}

// Load reads the JPEG for a reference. References are opaque file names;
// anything trying to escape the store directory resolves to nothing.
func (s *FileStore) Load(ref string) ([]byte, error) {
	if ref == "" || ref != filepath.Base(ref) || strings.HasPrefix(ref, ".") {
		return nil, ErrNotFound
	}

	data, err := os.ReadFile(filepath.Join(s.dir, ref))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("evidence: read: %w", err)
	}
	return data, nil
}

// Ensure FileStore implements Store
var _ Store = (*FileStore)(nil)
