package card

import "github.com/ginjaninja78/deck-csv-converter/internal/enum"

// Condition is the physical state of a card, ordered from best to worst.
type Condition int

const (
	_ Condition = iota // absent
	Mint
	NearMint
	Excellent
	Good
	LightlyPlayed
	Played
	Poor
)

var conditions = enum.New("Condition",
	enum.Member[Condition]{ID: Mint, Name: "Mint"},
	enum.Member[Condition]{ID: NearMint, Name: "NearMint"},
	enum.Member[Condition]{ID: Excellent, Name: "Excellent"},
	enum.Member[Condition]{ID: Good, Name: "Good"},
	enum.Member[Condition]{ID: LightlyPlayed, Name: "LightlyPlayed"},
	enum.Member[Condition]{ID: Played, Name: "Played"},
	enum.Member[Condition]{ID: Poor, Name: "Poor"},
)

// Conditions returns every condition in id order.
func Conditions() []Condition { return conditions.Values() }

// ConditionByName looks a condition up by its canonical name.
func ConditionByName(name string) (Condition, error) { return conditions.ByName(name) }

// ConditionByID looks a condition up by its stable id.
func ConditionByID(id int) (Condition, error) { return conditions.ByID(id) }

func (c Condition) ID() int        { return int(c) }
func (c Condition) String() string { return conditions.Name(c) }
func (c Condition) Valid() bool    { return conditions.Contains(c) }

// Compare orders conditions by id.
func (c Condition) Compare(other Condition) int { return enum.Compare(c, other) }
