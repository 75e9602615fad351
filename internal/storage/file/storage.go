// Package file stores credential slots as files in a directory, one file per slot.
package file

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/mcoot/proplatform/internal/storage"
)

const (
	dirMode  = 0o700
	fileMode = 0o600
)

// Storage is a file-backed implementation of the storage interface
type Storage struct {
	dir string
}

// New creates a file storage rooted at dir. The directory is created on first write.
func New(dir string) *Storage {
	return &Storage{dir: dir}
}

// Ensure Storage implements the interface
var _ storage.TokenStore = (*Storage)(nil)

// Dir returns the directory holding the slot files
func (s *Storage) Dir() string {
	return s.dir
}

func (s *Storage) path(slot string) (string, error) {
	if slot == "" || strings.ContainsAny(slot, `/\`) || slot == "." || slot == ".." {
		return "", fmt.Errorf("invalid slot name %q", slot)
	}
	return filepath.Join(s.dir, slot), nil
}

func (s *Storage) Get(ctx context.Context, slot string) (string, error) {
	path, err := s.path(slot)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	return string(data), nil
}

// Set writes the slot via a temp file and rename, so a crash never leaves half a token
func (s *Storage) Set(ctx context.Context, slot, value string) error {
	path, err := s.path(slot)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(s.dir, dirMode); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	if err := atomic.WriteFile(path, bytes.NewReader([]byte(value))); err != nil {
		return err
	}
	return os.Chmod(path, fileMode)
}

func (s *Storage) Delete(ctx context.Context, slot string) error {
	path, err := s.path(slot)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
