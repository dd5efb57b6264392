package actor

import (
	"encoding/json"
	"fmt"

	"github.com/jwebster45206/d20"
)

// Stat bounds enforced at creation time. The oracle may narrate values past
// the upper bound later; only creation is clamped.
const (
	StatMin = 8
	StatMax = 18
)

const (
	DefaultLevel = 1
	DefaultHP    = 20

	// Unarmored baseline. AC is narrative flavor only; no combat engine
	// consumes it.
	baseArmorClass = 10
)

// Stats holds the six core attributes. Names follow the adventure's
// Brazilian Portuguese convention.
type Stats struct {
	Forca        int `json:"forca"`
	Destreza     int `json:"destreza"`
	Constituicao int `json:"constituicao"`
	Inteligencia int `json:"inteligencia"`
	Sabedoria    int `json:"sabedoria"`
	Carisma      int `json:"carisma"`
}

// ToAttributes converts Stats to a map for d20.Actor compatibility.
func (s *Stats) ToAttributes() map[string]int {
	return map[string]int{
		"forca":        s.Forca,
		"destreza":     s.Destreza,
		"constituicao": s.Constituicao,
		"inteligencia": s.Inteligencia,
		"sabedoria":    s.Sabedoria,
		"carisma":      s.Carisma,
	}
}

// Clamped returns a copy with every attribute forced into [StatMin, StatMax].
func (s Stats) Clamped() Stats {
	clamp := func(v int) int {
		if v < StatMin {
			return StatMin
		}
		if v > StatMax {
			return StatMax
		}
		return v
	}
	return Stats{
		Forca:        clamp(s.Forca),
		Destreza:     clamp(s.Destreza),
		Constituicao: clamp(s.Constituicao),
		Inteligencia: clamp(s.Inteligencia),
		Sabedoria:    clamp(s.Sabedoria),
		Carisma:      clamp(s.Carisma),
	}
}

// Item is an inventory entry. IDs are unique within a character.
type Item struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CharacterSpec is the serializable specification for a party member.
type CharacterSpec struct {
	Name      string `json:"name"`
	Race      string `json:"race"`
	Class     string `json:"class"`
	Genre     string `json:"genre"` // adventure genre chosen at creation
	Level     int    `json:"level"`
	HP        int    `json:"hp"`
	MaxHP     int    `json:"maxHp"`
	Inventory []Item `json:"inventory"`
	Stats     Stats  `json:"stats"`
}

// Validate checks the identity fields required at character creation.
func (spec *CharacterSpec) Validate() error {
	if spec.Name == "" {
		return fmt.Errorf("name is required")
	}
	if spec.Genre == "" {
		return fmt.Errorf("genre is required")
	}
	if spec.Race == "" {
		return fmt.Errorf("race is required")
	}
	if spec.Class == "" {
		return fmt.Errorf("class is required")
	}
	return nil
}

// Character is the runtime representation of a party member.
type Character struct {
	Spec  *CharacterSpec
	Actor *d20.Actor // built at runtime from the spec
}

// Setup carries the character-creation form input.
type Setup struct {
	Name  string
	Genre Choice
	Race  Choice
	Class Choice
	Stats Stats
}

// NewCharacter validates a creation setup and builds a level-1 character
// with full HP and an empty inventory. Stats are clamped into the creation
// range.
func NewCharacter(setup Setup) (*Character, error) {
	spec := &CharacterSpec{
		Name:      setup.Name,
		Race:      setup.Race.Value,
		Class:     setup.Class.Value,
		Genre:     setup.Genre.Value,
		Level:     DefaultLevel,
		HP:        DefaultHP,
		MaxHP:     DefaultHP,
		Inventory: []Item{},
		Stats:     setup.Stats.Clamped(),
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return NewCharacterFromSpec(spec)
}

// NewCharacterFromSpec builds a Character from a spec, typically after
// loading from storage.
func NewCharacterFromSpec(spec *CharacterSpec) (*Character, error) {
	if spec == nil {
		return nil, fmt.Errorf("spec cannot be nil")
	}

	actor, err := buildActor(spec)
	if err != nil {
		return nil, err
	}

	return &Character{Spec: spec, Actor: actor}, nil
}

func buildActor(spec *CharacterSpec) (*d20.Actor, error) {
	actor, err := d20.NewActor(spec.Name).
		WithHP(spec.MaxHP).
		WithAC(baseArmorClass).
		WithAttributes(spec.Stats.ToAttributes()).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build actor: %w", err)
	}

	if spec.HP != spec.MaxHP && spec.HP > 0 {
		if err := actor.SetHP(spec.HP); err != nil {
			return nil, fmt.Errorf("failed to set HP: %w", err)
		}
	}

	return actor, nil
}

// AddItem appends an inventory item. Item IDs are unique within the
// character; a duplicate ID is rejected.
func (c *Character) AddItem(item Item) error {
	for _, existing := range c.Spec.Inventory {
		if existing.ID == item.ID {
			return fmt.Errorf("duplicate item id: %s", item.ID)
		}
	}
	c.Spec.Inventory = append(c.Spec.Inventory, item)
	return nil
}

// MarshalJSON serializes the character, reading current HP from the actor.
func (c *Character) MarshalJSON() ([]byte, error) {
	if c == nil {
		return []byte("null"), nil
	}
	if c.Actor == nil {
		return json.Marshal(c.Spec)
	}

	spec := *c.Spec
	spec.HP = c.Actor.HP()
	spec.MaxHP = c.Actor.MaxHP()
	return json.Marshal(&spec)
}

// UnmarshalJSON reconstructs a character and rebuilds its actor.
func (c *Character) UnmarshalJSON(data []byte) error {
	var spec CharacterSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return fmt.Errorf("failed to unmarshal character spec: %w", err)
	}
	if spec.Inventory == nil {
		spec.Inventory = []Item{}
	}

	actor, err := buildActor(&spec)
	if err != nil {
		return fmt.Errorf("failed to rebuild actor: %w", err)
	}

	c.Spec = &spec
	c.Actor = actor
	return nil
}
