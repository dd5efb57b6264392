package session

// Phase is the session's lifecycle state. Exactly one phase is active at a
// time; it drives which inputs are accepted and whether autosave runs.
type Phase string

const (
	PhaseLanding           Phase = "LANDING"
	PhaseInitializing      Phase = "INITIALIZING"
	PhaseCharacterCreation Phase = "CHARACTER_CREATION"
	PhasePlaying           Phase = "PLAYING"
)

// Valid reports whether p is one of the defined phases.
func (p Phase) Valid() bool {
	switch p {
	case PhaseLanding, PhaseInitializing, PhaseCharacterCreation, PhasePlaying:
		return true
	}
	return false
}

// Persistable reports whether autosave runs in this phase. Landing and
// Initializing never persist, so transient or empty state is never saved.
func (p Phase) Persistable() bool {
	return p == PhaseCharacterCreation || p == PhasePlaying
}

// ParsePhase restores a persisted phase. A missing or unknown value falls
// back to Playing, matching the resume contract.
func ParsePhase(s string) Phase {
	p := Phase(s)
	if !p.Valid() {
		return PhasePlaying
	}
	return p
}
