// Package session implements the session state machine and turn protocol:
// the finite phases of a game, the append-only log feeding a bounded history
// window to the oracle, roll gating, and the persistence commit points.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"unicode/utf8"

	"github.com/mestre-rpg/mestre/internal/services"
	"github.com/mestre-rpg/mestre/internal/storage"
	"github.com/mestre-rpg/mestre/pkg/actor"
	"github.com/mestre-rpg/mestre/pkg/chat"
	"github.com/mestre-rpg/mestre/pkg/prompts"
)

// HistoryLimit is the recency window sent to the oracle: only the most
// recent entries contribute, older history is dropped.
const HistoryLimit = 10

// ErrTurnInFlight is returned when a turn is submitted while the narrator is
// still composing. Submissions are rejected, never queued.
var ErrTurnInFlight = errors.New("a turn is already in flight")

// Engine owns a single session: its phase, log, party and roll gate. All
// mutation goes through the engine, which persists at each commit point and
// notifies subscribers. One oracle call may be in flight at a time.
type Engine struct {
	store  storage.SessionStore
	oracle services.Oracle
	logger *slog.Logger

	mu               sync.Mutex
	phase            Phase
	log              []chat.LogEntry
	party            actor.Party
	options          []string
	pendingRoll      *chat.PendingRoll
	busy             bool
	credentialPrompt bool

	updates chan struct{}
}

// View is a read-only copy of session state for the presentation layer.
type View struct {
	Phase            Phase
	Log              []chat.LogEntry
	Party            []actor.CharacterSpec
	ActiveIndex      int
	Options          []string
	PendingRoll      *chat.PendingRoll
	Busy             bool
	CredentialPrompt bool
}

// NewEngine creates an engine in the Landing phase.
func NewEngine(store storage.SessionStore, oracle services.Oracle, logger *slog.Logger) *Engine {
	return &Engine{
		store:   store,
		oracle:  oracle,
		logger:  logger,
		phase:   PhaseLanding,
		updates: make(chan struct{}, 1),
	}
}

// Updates signals after every committed state change. The channel is
// best-effort: a slow consumer coalesces signals instead of blocking the
// engine.
func (e *Engine) Updates() <-chan struct{} {
	return e.updates
}

func (e *Engine) notify() {
	select {
	case e.updates <- struct{}{}:
	default:
	}
}

// View returns a copy of the current session state.
func (e *Engine) View() View {
	e.mu.Lock()
	defer e.mu.Unlock()

	v := View{
		Phase:            e.phase,
		Log:              append([]chat.LogEntry(nil), e.log...),
		ActiveIndex:      e.party.ActiveIndex,
		Options:          append([]string(nil), e.options...),
		Busy:             e.busy,
		CredentialPrompt: e.credentialPrompt,
	}
	for _, m := range e.party.Members {
		v.Party = append(v.Party, *m.Spec)
	}
	if e.pendingRoll != nil {
		roll := *e.pendingRoll
		v.PendingRoll = &roll
	}
	return v
}

// HasSavedGame reports whether a resumable snapshot exists.
func (e *Engine) HasSavedGame(ctx context.Context) bool {
	ok, err := HasSnapshot(ctx, e.store)
	if err != nil {
		e.logger.Warn("Failed to probe saved game", "error", err)
		return false
	}
	return ok
}

// StartNewGame clears any persisted session and asks the oracle for the
// opening narration. On success the session enters CharacterCreation with a
// single narrator entry; on failure it returns to Landing and the error is
// surfaced to the caller.
func (e *Engine) StartNewGame(ctx context.Context) error {
	e.mu.Lock()
	if e.busy {
		e.mu.Unlock()
		return ErrTurnInFlight
	}
	e.phase = PhaseInitializing
	e.log = nil
	e.party = actor.Party{}
	e.options = nil
	e.pendingRoll = nil
	e.mu.Unlock()
	e.notify()

	// Intentional full reset, not a merge.
	if err := ClearSnapshot(ctx, e.store); err != nil {
		e.logger.Warn("Failed to clear persisted session", "error", err)
	}

	greeting, err := e.oracle.OpenSession(ctx)
	if err != nil {
		e.mu.Lock()
		e.phase = PhaseLanding
		e.mu.Unlock()
		e.notify()
		return fmt.Errorf("failed to start game: %w", err)
	}

	e.mu.Lock()
	e.log = []chat.LogEntry{chat.NewEntry(chat.SenderNarrator, greeting)}
	e.phase = PhaseCharacterCreation
	e.persistLocked(ctx)
	e.mu.Unlock()
	e.notify()
	return nil
}

// Resume restores a persisted session. A missing or corrupt snapshot falls
// back to a brand-new game; the session is never left partially restored.
func (e *Engine) Resume(ctx context.Context) error {
	snap, err := LoadSnapshot(ctx, e.store)
	if err != nil {
		e.logger.Warn("Discarding corrupt session snapshot", "error", err)
		return e.StartNewGame(ctx)
	}
	if snap == nil {
		return e.StartNewGame(ctx)
	}

	e.mu.Lock()
	e.log = snap.Log
	e.party = actor.Party{Members: snap.Party, ActiveIndex: snap.ActiveIndex}
	e.phase = snap.Phase
	e.options = snap.Options
	e.pendingRoll = snap.PendingRoll
	e.mu.Unlock()
	e.notify()

	e.logger.Info("Session resumed", "phase", snap.Phase, "entries", len(snap.Log), "party", len(snap.Party))
	return nil
}

// AddCharacter validates and appends a new party member during character
// creation. Validation failure blocks the append and is returned to the
// caller for correction; nothing is persisted.
func (e *Engine) AddCharacter(ctx context.Context, setup actor.Setup) error {
	c, err := actor.NewCharacter(setup)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase != PhaseCharacterCreation {
		return fmt.Errorf("cannot add a character in phase %s", e.phase)
	}
	e.party.Add(c)
	e.persistLocked(ctx)
	e.notify()
	return nil
}

// RemoveCharacter drops a party member during character creation. The
// active-character index is re-clamped.
func (e *Engine) RemoveCharacter(ctx context.Context, i int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase != PhaseCharacterCreation {
		return fmt.Errorf("cannot remove a character in phase %s", e.phase)
	}
	if err := e.party.Remove(i); err != nil {
		return err
	}
	e.persistLocked(ctx)
	e.notify()
	return nil
}

// SetActiveCharacter switches which party member the player acts as.
func (e *Engine) SetActiveCharacter(ctx context.Context, i int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.party.SetActive(i); err != nil {
		return err
	}
	e.persistLocked(ctx)
	e.notify()
	return nil
}

// FinishParty closes character creation and starts play with one synthesized
// opening turn describing the full party and its genre. Fails on an empty
// party.
func (e *Engine) FinishParty(ctx context.Context) error {
	e.mu.Lock()
	if e.phase != PhaseCharacterCreation {
		e.mu.Unlock()
		return fmt.Errorf("cannot finish party in phase %s", e.phase)
	}
	if e.party.Len() == 0 {
		e.mu.Unlock()
		return fmt.Errorf("party cannot be empty")
	}
	e.phase = PhasePlaying
	opening := prompts.AdventureStart(e.party.Genre(), e.party.Describe())
	e.persistLocked(ctx)
	e.mu.Unlock()
	e.notify()

	return e.SubmitTurn(ctx, opening)
}

// SubmitTurn runs one player turn through the oracle. Blank input is a
// no-op. A turn already in flight rejects the submission. Oracle failures
// are absorbed as fallback narrator entries; the method itself only reports
// gating errors.
func (e *Engine) SubmitTurn(ctx context.Context, text string) error {
	if !chat.ValidateTurnText(text) {
		return nil
	}

	e.mu.Lock()
	if e.phase != PhasePlaying {
		e.mu.Unlock()
		return fmt.Errorf("cannot submit a turn in phase %s", e.phase)
	}
	if e.busy {
		e.mu.Unlock()
		return ErrTurnInFlight
	}
	e.busy = true

	// The window is built before the new entry lands: the player's message
	// travels separately as the current turn.
	history := chat.HistoryWindow(e.log, HistoryLimit)
	e.log = append(e.log, chat.NewEntry(chat.SenderPlayer, text))
	e.options = nil
	e.persistLocked(ctx)
	e.mu.Unlock()
	e.notify()

	result, err := e.oracle.Chat(ctx, history, text)
	if err != nil {
		e.completeFailedTurn(ctx, err)
		return nil
	}

	imageURL := ""
	if utf8.RuneCountInString(result.Narration) > prompts.SceneImageThreshold {
		url, imgErr := e.oracle.SceneImage(ctx, prompts.ScenePrompt(result.Narration))
		if imgErr != nil {
			// Non-fatal: the turn completes without an image.
			e.logger.Warn("Scene image generation failed", "error", imgErr)
		} else {
			imageURL = url
		}
	}

	e.mu.Lock()
	e.busy = false
	entry := chat.NewEntry(chat.SenderNarrator, result.Narration)
	entry.SuggestedOptions = result.Options
	entry.PendingRoll = result.RequiresRoll
	entry.SceneImageURL = imageURL
	e.log = append(e.log, entry)
	e.options = result.Options
	if result.RequiresRoll != nil {
		e.pendingRoll = result.RequiresRoll
	}
	e.persistLocked(ctx)
	e.mu.Unlock()
	e.notify()
	return nil
}

func (e *Engine) completeFailedTurn(ctx context.Context, err error) {
	e.mu.Lock()
	e.busy = false
	if services.IsCredentialError(err) {
		e.logger.Error("Oracle credential failure", "error", err)
		e.log = append(e.log, chat.NewEntry(chat.SenderNarrator, prompts.MsgCredentialFailure))
		e.credentialPrompt = true
	} else {
		e.logger.Error("Oracle turn failed", "error", err)
		e.log = append(e.log, chat.NewEntry(chat.SenderNarrator, prompts.MsgOracleUnreachable))
	}
	e.persistLocked(ctx)
	e.mu.Unlock()
	e.notify()
}

// ResolveRoll reports a die outcome for the pending roll. The gate clears
// synchronously, before the oracle round-trip, so a second roll cannot be
// queued mid-flight.
func (e *Engine) ResolveRoll(ctx context.Context, outcome int) error {
	e.mu.Lock()
	if e.pendingRoll == nil {
		e.mu.Unlock()
		return fmt.Errorf("no pending roll to resolve")
	}
	active := e.party.Active()
	if active == nil {
		e.mu.Unlock()
		return fmt.Errorf("no active character to roll for")
	}
	rollType := e.pendingRoll.Type
	e.pendingRoll = nil
	text := prompts.RollTurn(active.Spec.Name, rollType, outcome)
	e.persistLocked(ctx)
	e.mu.Unlock()
	e.notify()

	return e.SubmitTurn(ctx, text)
}

// AcknowledgeCredentialPrompt clears the credential-reselection flag after
// the player has been shown the prompt.
func (e *Engine) AcknowledgeCredentialPrompt() {
	e.mu.Lock()
	e.credentialPrompt = false
	e.mu.Unlock()
	e.notify()
}

// Reset erases the persisted session and returns to Landing.
func (e *Engine) Reset(ctx context.Context) error {
	if err := ClearSnapshot(ctx, e.store); err != nil {
		return err
	}

	e.mu.Lock()
	e.phase = PhaseLanding
	e.log = nil
	e.party = actor.Party{}
	e.options = nil
	e.pendingRoll = nil
	e.busy = false
	e.credentialPrompt = false
	e.mu.Unlock()
	e.notify()
	return nil
}

// persistLocked writes the full six-key snapshot at a commit point. Only
// CharacterCreation and Playing persist. Callers hold e.mu. Autosave
// failures are logged, never fatal to the turn.
func (e *Engine) persistLocked(ctx context.Context) {
	if !e.phase.Persistable() {
		return
	}

	snap := &Snapshot{
		Log:         e.log,
		Party:       e.party.Members,
		Phase:       e.phase,
		Options:     e.options,
		PendingRoll: e.pendingRoll,
		ActiveIndex: e.party.ActiveIndex,
	}
	if err := SaveSnapshot(ctx, e.store, snap); err != nil {
		e.logger.Error("Autosave failed", "error", err)
	}
}
