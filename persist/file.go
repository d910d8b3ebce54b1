package persist

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// FileStore keeps the snapshot in a local file.
type FileStore struct {
	path string
}

// NewFileStore keeps the snapshot at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load returns the saved snapshot or ErrNotFound.
func (s *FileStore) Load(context.Context) ([]byte, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}

	return b, err
}

// Save replaces the snapshot. The file is written to a temporary name and renamed.
func (s *FileStore) Save(_ context.Context, b []byte) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)

		return err
	}

	return nil
}
