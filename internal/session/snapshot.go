package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/mestre-rpg/mestre/internal/storage"
	"github.com/mestre-rpg/mestre/pkg/actor"
	"github.com/mestre-rpg/mestre/pkg/chat"
)

// Fixed session keys. Each field is serialized independently under its own
// key; a full snapshot is the six keys together.
const (
	KeyLogs        = "rpg_logs_v1"
	KeyParty       = "rpg_party_v1"
	KeyPhase       = "rpg_state_v1"
	KeyOptions     = "rpg_options_v1"
	KeyPendingRoll = "rpg_roll_v1"
	KeyActiveChar  = "rpg_active_char_v1"
)

var sessionKeys = []string{KeyLogs, KeyParty, KeyPhase, KeyOptions, KeyPendingRoll, KeyActiveChar}

// Snapshot is the persisted serialization of a session, used for resume.
type Snapshot struct {
	Log         []chat.LogEntry
	Party       []*actor.Character
	Phase       Phase
	Options     []string
	PendingRoll *chat.PendingRoll
	ActiveIndex int
}

// SaveSnapshot writes all six session keys in a single multi-key operation.
func SaveSnapshot(ctx context.Context, store storage.SessionStore, snap *Snapshot) error {
	logs, err := json.Marshal(snap.Log)
	if err != nil {
		return fmt.Errorf("failed to marshal log: %w", err)
	}
	party, err := json.Marshal(snap.Party)
	if err != nil {
		return fmt.Errorf("failed to marshal party: %w", err)
	}
	options, err := json.Marshal(snap.Options)
	if err != nil {
		return fmt.Errorf("failed to marshal options: %w", err)
	}
	roll, err := json.Marshal(snap.PendingRoll)
	if err != nil {
		return fmt.Errorf("failed to marshal pending roll: %w", err)
	}

	entries := map[string]string{
		KeyLogs:        string(logs),
		KeyParty:       string(party),
		KeyPhase:       string(snap.Phase),
		KeyOptions:     string(options),
		KeyPendingRoll: string(roll),
		KeyActiveChar:  strconv.Itoa(snap.ActiveIndex),
	}
	if err := store.SetMulti(ctx, entries); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// HasSnapshot reports whether a resumable session exists: both the log and
// the party keys must be present.
func HasSnapshot(ctx context.Context, store storage.SessionStore) (bool, error) {
	logs, err := store.Get(ctx, KeyLogs)
	if err != nil {
		return false, err
	}
	party, err := store.Get(ctx, KeyParty)
	if err != nil {
		return false, err
	}
	return logs != "" && party != "", nil
}

// LoadSnapshot reads and parses a persisted session. Returns (nil, nil) when
// no snapshot exists. Any parse failure is an error: the caller must discard
// the snapshot and start a new game rather than restore partially.
func LoadSnapshot(ctx context.Context, store storage.SessionStore) (*Snapshot, error) {
	logsRaw, err := store.Get(ctx, KeyLogs)
	if err != nil {
		return nil, err
	}
	partyRaw, err := store.Get(ctx, KeyParty)
	if err != nil {
		return nil, err
	}
	if logsRaw == "" || partyRaw == "" {
		return nil, nil
	}

	snap := &Snapshot{}
	if err := json.Unmarshal([]byte(logsRaw), &snap.Log); err != nil {
		return nil, fmt.Errorf("corrupt log snapshot: %w", err)
	}
	if err := json.Unmarshal([]byte(partyRaw), &snap.Party); err != nil {
		return nil, fmt.Errorf("corrupt party snapshot: %w", err)
	}

	phaseRaw, err := store.Get(ctx, KeyPhase)
	if err != nil {
		return nil, err
	}
	snap.Phase = ParsePhase(phaseRaw)

	optionsRaw, err := store.Get(ctx, KeyOptions)
	if err != nil {
		return nil, err
	}
	if optionsRaw != "" {
		if err := json.Unmarshal([]byte(optionsRaw), &snap.Options); err != nil {
			return nil, fmt.Errorf("corrupt options snapshot: %w", err)
		}
	}

	rollRaw, err := store.Get(ctx, KeyPendingRoll)
	if err != nil {
		return nil, err
	}
	if rollRaw != "" {
		if err := json.Unmarshal([]byte(rollRaw), &snap.PendingRoll); err != nil {
			return nil, fmt.Errorf("corrupt pending roll snapshot: %w", err)
		}
	}

	activeRaw, err := store.Get(ctx, KeyActiveChar)
	if err != nil {
		return nil, err
	}
	if activeRaw != "" {
		index, err := strconv.Atoi(activeRaw)
		if err != nil {
			return nil, fmt.Errorf("corrupt active character snapshot: %w", err)
		}
		snap.ActiveIndex = index
	}

	// Clamp a stale index instead of rejecting the whole snapshot.
	if snap.ActiveIndex < 0 || snap.ActiveIndex >= len(snap.Party) {
		snap.ActiveIndex = 0
	}

	return snap, nil
}

// ClearSnapshot removes all six session keys unconditionally.
func ClearSnapshot(ctx context.Context, store storage.SessionStore) error {
	if err := store.Del(ctx, sessionKeys...); err != nil {
		return fmt.Errorf("failed to clear snapshot: %w", err)
	}
	return nil
}
