package allowlist

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Samuelzila/grammar-police/internal/model"
)

// DefaultFilePath matches the location the bot has always used.
const DefaultFilePath = "./authorized_users"

// FileBackend keeps the allow-list as a JSON array in a single file.
type FileBackend struct {
	path string
}

func NewFileBackend(path string) *FileBackend {
	if path == "" {
		path = DefaultFilePath
	}
	return &FileBackend{path: path}
}

func (b *FileBackend) Load(_ context.Context) ([]model.SenderID, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []model.SenderID{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", b.path, err)
	}
	return decode(data)
}

// Save writes a sibling temp file and renames it over the old record, so readers
// see either the previous list or the new one.
func (b *FileBackend) Save(_ context.Context, senders []model.SenderID) error {
	data, err := encode(senders)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(b.path), "."+filepath.Base(b.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpName, b.path); err != nil {
		return fmt.Errorf("replacing %s: %w", b.path, err)
	}
	return nil
}
