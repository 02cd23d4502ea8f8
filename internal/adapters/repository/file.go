package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/okian/streak/internal/domain/model"
)

const dayLogsFile = "daylogs.json"

// FileBackend stores each user's collection as one JSON file under
// <root>/<user>/daylogs.json.
type FileBackend struct {
	root string
}

// NewFileBackend returns a backend rooted at dir, creating it if needed.
func NewFileBackend(dir string) (*FileBackend, error) {
	if dir == "" {
		return nil, errors.New("file backend: empty data directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("file backend: create %s: %w", dir, err)
	}
	return &FileBackend{root: dir}, nil
}

// Name implements Backend.
func (f *FileBackend) Name() string { return "file" }

func (f *FileBackend) path(userID string) string {
	return filepath.Join(f.root, userID, dayLogsFile)
}

// Load implements Backend. A missing file is an empty collection.
func (f *FileBackend) Load(ctx context.Context, userID string) ([]model.DayLog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(f.path(userID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decode(b)
}

// Save implements Backend. The file is replaced atomically so a failed write
// leaves the previous collection in place.
func (f *FileBackend) Save(ctx context.Context, userID string, logs []model.DayLog) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := encode(logs)
	if err != nil {
		return err
	}
	dir := filepath.Dir(f.path(userID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, dayLogsFile+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after a successful rename

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.path(userID))
}
