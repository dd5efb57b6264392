package storage

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	store := NewRedisStore(mr.Addr(), logger)

	return store, mr
}

func TestRedisStore_SetAndGet(t *testing.T) {
	store, mr := setupTestRedis(t)
	defer mr.Close()
	defer func() { _ = store.Close() }()

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

func TestRedisStore_GetMissingKey(t *testing.T) {
	store, mr := setupTestRedis(t)
	defer mr.Close()
	defer func() { _ = store.Close() }()

	value, err := store.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Expected no error for missing key, got: %v", err)
	}
	if value != "" {
		t.Errorf("Expected empty value for missing key, got %q", value)
	}
}

func TestRedisStore_SetMulti(t *testing.T) {
	store, mr := setupTestRedis(t)
	defer mr.Close()
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	entries := map[string]string{
		"rpg_logs_v1":        `[]`,
		"rpg_party_v1":       `[]`,
		"rpg_state_v1":       "CHARACTER_CREATION",
		"rpg_options_v1":     `[]`,
		"rpg_roll_v1":        "null",
		"rpg_active_char_v1": "0",
	}

	if err := store.SetMulti(ctx, entries); err != nil {
		t.Fatalf("Failed to set multi: %v", err)
	}

	for key, want := range entries {
		got, err := store.Get(ctx, key)
		if err != nil {
			t.Fatalf("Failed to get %s: %v", key, err)
		}
		if got != want {
			t.Errorf("Key %s: expected %q, got %q", key, want, got)
		}
	}
}

func TestRedisStore_DelAndExists(t *testing.T) {
	store, mr := setupTestRedis(t)
	defer mr.Close()
	defer func() { _ = store.Close() }()

	ctx := context.Background()

	if err := store.Set(ctx, "rpg_logs_v1", "[]"); err != nil {
		t.Fatalf("Failed to set: %v", err)
	}

	exists, err := store.Exists(ctx, "rpg_logs_v1", "rpg_party_v1")
	if err != nil {
		t.Fatalf("Failed to check exists: %v", err)
	}
	if !exists {
		t.Error("Expected at least one key to exist")
	}

	if err := store.Del(ctx, "rpg_logs_v1", "rpg_party_v1"); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}

	exists, err = store.Exists(ctx, "rpg_logs_v1")
	if err != nil {
		t.Fatalf("Failed to check exists: %v", err)
	}
	if exists {
		t.Error("Expected key to be gone after delete")
	}
}

func TestRedisStore_Ping(t *testing.T) {
	store, mr := setupTestRedis(t)
	defer func() { _ = store.Close() }()

	if err := store.Ping(context.Background()); err != nil {
		t.Errorf("Expected ping to succeed: %v", err)
	}

	mr.Close()
	if err := store.Ping(context.Background()); err == nil {
		t.Error("Expected ping to fail after server shutdown")
	}
}
