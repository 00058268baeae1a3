package card

import "github.com/ginjaninja78/deck-csv-converter/internal/enum"

// Finish is the surface treatment of a printing.
type Finish int

const (
	_ Finish = iota // absent
	Normal
	Foil
	Etched
)

var finishes = enum.New("Finish",
	enum.Member[Finish]{ID: Normal, Name: "Normal"},
	enum.Member[Finish]{ID: Foil, Name: "Foil"},
	enum.Member[Finish]{ID: Etched, Name: "Etched"},
)

// Finishes returns every finish in id order.
func Finishes() []Finish { return finishes.Values() }

// FinishByName looks a finish up by its canonical name.
func FinishByName(name string) (Finish, error) { return finishes.ByName(name) }

// FinishByID looks a finish up by its stable id.
func FinishByID(id int) (Finish, error) { return finishes.ByID(id) }

func (f Finish) ID() int        { return int(f) }
func (f Finish) String() string { return finishes.Name(f) }
func (f Finish) Valid() bool    { return finishes.Contains(f) }
