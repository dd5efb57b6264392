package storage

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func setupFileStore(t *testing.T) *FileStore {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	store, err := NewFileStore(t.TempDir(), logger)
	if err != nil {
		t.Fatalf("Failed to create file store: %v", err)
	}
	return store
}

func TestFileStore_SetAndGet(t *testing.T) {
	store := setupFileStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "rpg_state_v1", "PLAYING"); err != nil {
		t.Fatalf("Failed to set: %v", err)
	}

	value, err := store.Get(ctx, "rpg_state_v1")
	if err != nil {
		t.Fatalf("Failed to get: %v", err)
	}
	if value != "PLAYING" {
		t.Errorf("Expected PLAYING, got %q", value)
	}
}

func TestFileStore_GetMissingKey(t *testing.T) {
	store := setupFileStore(t)

	value, err := store.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Expected no error for missing key, got: %v", err)
	}
	if value != "" {
		t.Errorf("Expected empty value, got %q", value)
	}
}

func TestFileStore_Overwrite(t *testing.T) {
	store := setupFileStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "rpg_state_v1", "CHARACTER_CREATION"); err != nil {
		t.Fatalf("Failed to set: %v", err)
	}
	if err := store.Set(ctx, "rpg_state_v1", "PLAYING"); err != nil {
		t.Fatalf("Failed to overwrite: %v", err)
	}

	value, err := store.Get(ctx, "rpg_state_v1")
	if err != nil {
		t.Fatalf("Failed to get: %v", err)
	}
	if value != "PLAYING" {
		t.Errorf("Expected overwritten value, got %q", value)
	}
}

func TestFileStore_SetMultiAndDel(t *testing.T) {
	store := setupFileStore(t)
	ctx := context.Background()

	entries := map[string]string{
		"rpg_logs_v1":  `[{"id":"1"}]`,
		"rpg_party_v1": `[]`,
	}
	if err := store.SetMulti(ctx, entries); err != nil {
		t.Fatalf("Failed to set multi: %v", err)
	}

	exists, err := store.Exists(ctx, "rpg_logs_v1")
	if err != nil {
		t.Fatalf("Failed to check exists: %v", err)
	}
	if !exists {
		t.Error("Expected key to exist")
	}

	if err := store.Del(ctx, "rpg_logs_v1", "rpg_party_v1", "never_written"); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}

	exists, err = store.Exists(ctx, "rpg_logs_v1", "rpg_party_v1")
	if err != nil {
		t.Fatalf("Failed to check exists: %v", err)
	}
	if exists {
		t.Error("Expected keys to be gone after delete")
	}
}

func TestFileStore_NoTempFilesLeftBehind(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	dir := t.TempDir()
	store, err := NewFileStore(dir, logger)
	if err != nil {
		t.Fatalf("Failed to create file store: %v", err)
	}

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if err := store.Set(ctx, "rpg_logs_v1", "[]"); err != nil {
			t.Fatalf("Failed to set: %v", err)
		}
	}

	matches, err := filepath.Glob(filepath.Join(dir, "*.tmp"))
	if err != nil {
		t.Fatalf("Glob failed: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("Expected no temp files, found %v", matches)
	}
}
