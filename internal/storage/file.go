package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// FileStore implements SessionStore on the local filesystem, one file per
// key under a data directory. It is the default backend for local play,
// where no Redis is running. Each write goes through a temp file and rename,
// so an individual key is never observed half-written; a crash between keys
// of a multi-key write is handled by the resume fallback upstream.
type FileStore struct {
	dir    string
	logger *slog.Logger
}

var _ SessionStore = (*FileStore)(nil)

// NewFileStore creates a file store rooted at dir, creating it if needed.
func NewFileStore(dir string, logger *slog.Logger) (*FileStore, error) {
	if dir == "" {
		dir = "./data"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	return &FileStore{dir: dir, logger: logger}, nil
}

func (f *FileStore) Ping(ctx context.Context) error {
	if _, err := os.Stat(f.dir); err != nil {
		return fmt.Errorf("data dir unavailable: %w", err)
	}
	return nil
}

func (f *FileStore) Close() error {
	return nil
}

func (f *FileStore) path(key string) string {
	return filepath.Join(f.dir, key+".json")
}

func (f *FileStore) Get(ctx context.Context, key string) (string, error) {
	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			f.logger.Debug("Session key not found", "key", key)
			return "", nil
		}
		f.logger.Error("Failed to read session key", "key", key, "error", err)
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	return string(data), nil
}

func (f *FileStore) Set(ctx context.Context, key, value string) error {
	tmp, err := os.CreateTemp(f.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", key, err)
	}

	if _, err := tmp.WriteString(value); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp file for %s: %w", key, err)
	}

	if err := os.Rename(tmp.Name(), f.path(key)); err != nil {
		_ = os.Remove(tmp.Name())
		f.logger.Error("Failed to commit session key", "key", key, "error", err)
		return fmt.Errorf("failed to commit %s: %w", key, err)
	}
	return nil
}

func (f *FileStore) SetMulti(ctx context.Context, entries map[string]string) error {
	for key, value := range entries {
		if err := f.Set(ctx, key, value); err != nil {
			return err
		}
	}
	return nil
}

func (f *FileStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		if err := os.Remove(f.path(key)); err != nil && !os.IsNotExist(err) {
			f.logger.Error("Failed to delete session key", "key", key, "error", err)
			return fmt.Errorf("failed to delete %s: %w", key, err)
		}
	}
	return nil
}

func (f *FileStore) Exists(ctx context.Context, keys ...string) (bool, error) {
	for _, key := range keys {
		if _, err := os.Stat(f.path(key)); err == nil {
			return true, nil
		} else if !os.IsNotExist(err) {
			return false, fmt.Errorf("failed to stat %s: %w", key, err)
		}
	}
	return false, nil
}
