package actor

import (
	"fmt"
	"strings"
)

// Party is the ordered set of player characters in a session. Creation order
// is narrative turn order. ActiveIndex points at the character the player is
// currently acting as; it is persisted separately from the member list.
type Party struct {
	Members     []*Character
	ActiveIndex int
}

func (p *Party) Len() int {
	return len(p.Members)
}

// Add appends a character to the party.
func (p *Party) Add(c *Character) {
	p.Members = append(p.Members, c)
	p.clampActive()
}

// Remove drops the character at index i. ActiveIndex is re-clamped so the
// invariant 0 <= ActiveIndex < len holds whenever the party is non-empty.
func (p *Party) Remove(i int) error {
	if i < 0 || i >= len(p.Members) {
		return fmt.Errorf("party index out of range: %d", i)
	}
	p.Members = append(p.Members[:i], p.Members[i+1:]...)
	p.clampActive()
	return nil
}

// SetActive switches the acting character.
func (p *Party) SetActive(i int) error {
	if i < 0 || i >= len(p.Members) {
		return fmt.Errorf("party index out of range: %d", i)
	}
	p.ActiveIndex = i
	return nil
}

// Active returns the acting character, or nil for an empty party.
func (p *Party) Active() *Character {
	p.clampActive()
	if len(p.Members) == 0 {
		return nil
	}
	return p.Members[p.ActiveIndex]
}

func (p *Party) clampActive() {
	if p.ActiveIndex < 0 {
		p.ActiveIndex = 0
	}
	if len(p.Members) > 0 && p.ActiveIndex >= len(p.Members) {
		p.ActiveIndex = len(p.Members) - 1
	}
}

// Genre returns the adventure genre chosen by the first character, which
// sets the tone for the whole party.
func (p *Party) Genre() string {
	if len(p.Members) == 0 {
		return ""
	}
	return p.Members[0].Spec.Genre
}

// Describe renders the roster summary embedded in the opening story prompt.
func (p *Party) Describe() string {
	parts := make([]string, 0, len(p.Members))
	for _, c := range p.Members {
		s := c.Spec.Stats
		parts = append(parts, fmt.Sprintf(
			"%s (%s %s, FOR %d, DES %d, CON %d, INT %d, SAB %d, CAR %d)",
			c.Spec.Name, c.Spec.Race, c.Spec.Class,
			s.Forca, s.Destreza, s.Constituicao,
			s.Inteligencia, s.Sabedoria, s.Carisma,
		))
	}
	return strings.Join(parts, ", ")
}
