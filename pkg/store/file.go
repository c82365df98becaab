package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// File keeps one JSON document per slot under a directory.
// Writes go to a temp file that is renamed over the slot file.
type File struct {
	dir string
}

func NewFile(dir string) (*File, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("store/file: dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store/file: can't create %s: %w", dir, err)
	}
	return &File{dir: dir}, nil
}

func (f *File) path(slot Slot) string {
	return filepath.Join(f.dir, string(slot)+".json")
}

func (f *File) Load(_ context.Context, slot Slot) ([]byte, error) {
	data, err := os.ReadFile(f.path(slot))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("store/file: failed reading %s: %w", slot, err)
	}
	return data, nil
}

func (f *File) Save(_ context.Context, slot Slot, data []byte) error {
	tmp, err := os.CreateTemp(f.dir, "."+string(slot)+"-*")
	if err != nil {
		return fmt.Errorf("store/file: failed creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("store/file: failed writing %s: %w", slot, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("store/file: failed syncing %s: %w", slot, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("store/file: failed closing %s: %w", slot, err)
	}
	if err := os.Rename(tmpName, f.path(slot)); err != nil {
		return fmt.Errorf("store/file: failed replacing %s: %w", slot, err)
	}
	return nil
}
