package session

import (
	"context"
	"strconv"
	"testing"

	"github.com/mestre-rpg/mestre/internal/storage"
	"github.com/mestre-rpg/mestre/pkg/actor"
	"github.com/mestre-rpg/mestre/pkg/chat"
)

func testSnapshot(t *testing.T) *Snapshot {
	t.Helper()
	c, err := actor.NewCharacter(testSetup("Arwen"))
	if err != nil {
		t.Fatalf("Failed to build character: %v", err)
	}
	return &Snapshot{
		Log: []chat.LogEntry{
			chat.NewEntry(chat.SenderNarrator, "Bem-vindo, aventureiro!"),
			chat.NewEntry(chat.SenderPlayer, "Exploro a caverna"),
		},
		Party:       []*actor.Character{c},
		Phase:       PhasePlaying,
		Options:     []string{"Continuar", "Observar ao redor", "Esperar"},
		PendingRoll: &chat.PendingRoll{Type: "Destreza"},
		ActiveIndex: 0,
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	store := storage.NewMockStore()
	ctx := context.Background()
	snap := testSnapshot(t)

	if err := SaveSnapshot(ctx, store, snap); err != nil {
		t.Fatalf("Failed to save snapshot: %v", err)
	}
	if store.Len() != len(sessionKeys) {
		t.Errorf("Expected %d keys, got %d", len(sessionKeys), store.Len())
	}

	got, err := LoadSnapshot(ctx, store)
	if err != nil {
		t.Fatalf("Failed to load snapshot: %v", err)
	}
	if got == nil {
		t.Fatal("Expected a snapshot, got nil")
	}
	if len(got.Log) != 2 || got.Log[0].Text != "Bem-vindo, aventureiro!" {
		t.Errorf("Log did not round-trip: %+v", got.Log)
	}
	if got.Log[0].ID != snap.Log[0].ID {
		t.Errorf("Expected entry ID %s, got %s", snap.Log[0].ID, got.Log[0].ID)
	}
	if len(got.Party) != 1 || got.Party[0].Spec.Name != "Arwen" {
		t.Errorf("Party did not round-trip: %+v", got.Party)
	}
	if got.Party[0].Actor == nil {
		t.Error("Expected party member actor to be rebuilt on load")
	}
	if got.Phase != PhasePlaying {
		t.Errorf("Expected phase %s, got %s", PhasePlaying, got.Phase)
	}
	if len(got.Options) != 3 || got.Options[2] != "Esperar" {
		t.Errorf("Options did not round-trip: %v", got.Options)
	}
	if got.PendingRoll == nil || got.PendingRoll.Type != "Destreza" {
		t.Errorf("Pending roll did not round-trip: %+v", got.PendingRoll)
	}
	if got.ActiveIndex != 0 {
		t.Errorf("Expected active index 0, got %d", got.ActiveIndex)
	}
}

func TestSnapshotRoundTrip_NoRoll(t *testing.T) {
	store := storage.NewMockStore()
	ctx := context.Background()
	snap := testSnapshot(t)
	snap.PendingRoll = nil
	snap.Options = nil

	if err := SaveSnapshot(ctx, store, snap); err != nil {
		t.Fatalf("Failed to save snapshot: %v", err)
	}
	got, err := LoadSnapshot(ctx, store)
	if err != nil {
		t.Fatalf("Failed to load snapshot: %v", err)
	}
	if got.PendingRoll != nil {
		t.Errorf("Expected no pending roll, got %+v", got.PendingRoll)
	}
	if len(got.Options) != 0 {
		t.Errorf("Expected no options, got %v", got.Options)
	}
}

func TestLoadSnapshot_Absent(t *testing.T) {
	store := storage.NewMockStore()
	got, err := LoadSnapshot(context.Background(), store)
	if err != nil {
		t.Fatalf("Expected absence to be nil, nil; got error: %v", err)
	}
	if got != nil {
		t.Errorf("Expected nil snapshot, got %+v", got)
	}
}

func TestLoadSnapshot_Corrupt(t *testing.T) {
	tests := []struct {
		name string
		key  string
		raw  string
	}{
		{"corrupt log", KeyLogs, "{not json"},
		{"corrupt party", KeyParty, "also not json]"},
		{"corrupt options", KeyOptions, "{{"},
		{"corrupt roll", KeyPendingRoll, "<xml/>"},
		{"corrupt active index", KeyActiveChar, "first"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := storage.NewMockStore()
			ctx := context.Background()
			if err := SaveSnapshot(ctx, store, testSnapshot(t)); err != nil {
				t.Fatalf("Failed to save snapshot: %v", err)
			}
			if err := store.Set(ctx, tt.key, tt.raw); err != nil {
				t.Fatalf("Failed to corrupt key: %v", err)
			}

			if _, err := LoadSnapshot(ctx, store); err == nil {
				t.Error("Expected corrupt snapshot to fail loading")
			}
		})
	}
}

func TestLoadSnapshot_UnknownPhase(t *testing.T) {
	store := storage.NewMockStore()
	ctx := context.Background()
	if err := SaveSnapshot(ctx, store, testSnapshot(t)); err != nil {
		t.Fatalf("Failed to save snapshot: %v", err)
	}
	if err := store.Set(ctx, KeyPhase, "DREAMING"); err != nil {
		t.Fatalf("Failed to overwrite phase: %v", err)
	}

	got, err := LoadSnapshot(ctx, store)
	if err != nil {
		t.Fatalf("Failed to load snapshot: %v", err)
	}
	if got.Phase != PhasePlaying {
		t.Errorf("Expected unknown phase to fall back to %s, got %s", PhasePlaying, got.Phase)
	}
}

func TestLoadSnapshot_ClampsActiveIndex(t *testing.T) {
	store := storage.NewMockStore()
	ctx := context.Background()
	if err := SaveSnapshot(ctx, store, testSnapshot(t)); err != nil {
		t.Fatalf("Failed to save snapshot: %v", err)
	}
	if err := store.Set(ctx, KeyActiveChar, strconv.Itoa(7)); err != nil {
		t.Fatalf("Failed to overwrite index: %v", err)
	}

	got, err := LoadSnapshot(ctx, store)
	if err != nil {
		t.Fatalf("Failed to load snapshot: %v", err)
	}
	if got.ActiveIndex != 0 {
		t.Errorf("Expected stale index clamped to 0, got %d", got.ActiveIndex)
	}
}

func TestHasSnapshot(t *testing.T) {
	store := storage.NewMockStore()
	ctx := context.Background()

	ok, err := HasSnapshot(ctx, store)
	if err != nil {
		t.Fatalf("Failed to probe snapshot: %v", err)
	}
	if ok {
		t.Error("Expected no snapshot on an empty store")
	}

	// The log alone is not resumable.
	if err := store.Set(ctx, KeyLogs, `[]`); err != nil {
		t.Fatalf("Failed to seed store: %v", err)
	}
	ok, err = HasSnapshot(ctx, store)
	if err != nil {
		t.Fatalf("Failed to probe snapshot: %v", err)
	}
	if ok {
		t.Error("Expected log without party not to count as a saved game")
	}

	if err := SaveSnapshot(ctx, store, testSnapshot(t)); err != nil {
		t.Fatalf("Failed to save snapshot: %v", err)
	}
	ok, err = HasSnapshot(ctx, store)
	if err != nil {
		t.Fatalf("Failed to probe snapshot: %v", err)
	}
	if !ok {
		t.Error("Expected a saved game after a full snapshot")
	}
}

func TestClearSnapshot(t *testing.T) {
	store := storage.NewMockStore()
	ctx := context.Background()
	if err := SaveSnapshot(ctx, store, testSnapshot(t)); err != nil {
		t.Fatalf("Failed to save snapshot: %v", err)
	}

	if err := ClearSnapshot(ctx, store); err != nil {
		t.Fatalf("Failed to clear snapshot: %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("Expected all keys removed, %d remain", store.Len())
	}
}
