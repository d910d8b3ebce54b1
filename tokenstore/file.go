package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// TokenKey is the name the token is stored under.
const TokenKey = "token"

// File keeps the token in a file readable only by the current user.
type File struct {
	path string
}

// NewFile stores the token at path. An empty path means <user config dir>/shopcache/token.
func NewFile(path string) (*File, error) {
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("locate config dir: %w", err)
		}
		path = filepath.Join(dir, "shopcache", TokenKey)
	}

	return &File{path: path}, nil
}

// Path returns the location of the token file.
func (f *File) Path() string { return f.path }

// Token returns the stored token, or an empty string when the file does not exist.
func (f *File) Token(context.Context) (string, error) {
	b, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}

	return strings.TrimSpace(string(b)), nil
}

// SetToken writes token with 0600 permissions. An empty token removes the file.
func (f *File) SetToken(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return f.Clear(ctx)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(token), 0o600); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		_ = os.Remove(tmp)

		return fmt.Errorf("write token: %w", err)
	}

	return nil
}

// Clear removes the token file.
func (f *File) Clear(context.Context) error {
	err := os.Remove(f.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove token: %w", err)
	}

	return nil
}
