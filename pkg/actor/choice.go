package actor

// Predefined selections offered by the character-creation form. A player may
// always type a custom value instead.
var (
	Genres  = []string{"Fantasia Medieval", "Cyberpunk", "Horror Cósmico", "Steampunk", "Pós-Apocalíptico"}
	Races   = []string{"Humano", "Elfo", "Anão", "Halfling", "Meio-Orc", "Draconato"}
	Classes = []string{"Guerreiro", "Mago", "Ladino", "Clérigo", "Bardo", "Patrulheiro"}
)

// Choice is a selectable creation field: either one of the predefined
// options or free text entered by the player.
type Choice struct {
	Value  string `json:"value"`
	Custom bool   `json:"custom,omitempty"`
}

// Predefined wraps one of the fixed options.
func Predefined(value string) Choice {
	return Choice{Value: value}
}

// Custom wraps player-entered free text.
func Custom(value string) Choice {
	return Choice{Value: value, Custom: true}
}

// Empty reports whether no selection was made.
func (c Choice) Empty() bool {
	return c.Value == ""
}
