// Package card defines the deck list record shapes and their enumerated attributes.
package card

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultLanguage is the language of a card when the export does not say.
const DefaultLanguage = "en"

// KnownLanguages are the printing language codes used by the card catalog.
var KnownLanguages = []string{
	"en", "es", "fr", "de", "it", "pt", "ja", "ko", "ru", "zhs", "zht",
	"he", "la", "grc", "ar", "sa", "ph",
}

// Printing identifies a specific printing of a card.
type Printing struct {
	Name            string
	SetName         string
	SetCode         string // always upper case
	CollectorNumber string
}

// NewPrinting builds a printing with a normalized set code.
func NewPrinting(name, setName, setCode, collectorNumber string) Printing {
	return Printing{
		Name:            name,
		SetName:         setName,
		SetCode:         strings.ToUpper(setCode),
		CollectorNumber: collectorNumber,
	}
}

// FrontFace returns the first face of a multi-faced name ("Fire // Ice" -> "Fire").
func FrontFace(name string) string {
	if i := strings.Index(name, " // "); i >= 0 {
		return name[:i]
	}
	return name
}

// IsMultiFaced reports whether name is a split or double-faced card name.
func IsMultiFaced(name string) bool {
	return strings.Contains(name, " // ")
}

// Physical is one line of a deck list.
type Physical struct {
	Quantity  int
	Printing  Printing
	Condition Condition // zero when the export has no condition
	Finish    Finish    // zero when the export has no finish
	Language  string
	PricePaid decimal.NullDecimal
}

// NewPhysical returns a line item with every optional field at its default.
func NewPhysical() Physical {
	return Physical{Language: DefaultLanguage}
}

// HasCondition reports whether a condition was recorded.
func (p Physical) HasCondition() bool { return p.Condition.Valid() }

// HasFinish reports whether a finish was recorded.
func (p Physical) HasFinish() bool { return p.Finish.Valid() }

func (p Physical) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%dx %s", p.Quantity, p.Printing.Name)
	if p.Printing.SetCode != "" {
		fmt.Fprintf(&b, " (%s", p.Printing.SetCode)
		if p.Printing.CollectorNumber != "" {
			fmt.Fprintf(&b, " %s", p.Printing.CollectorNumber)
		}
		b.WriteString(")")
	}
	if p.HasFinish() && p.Finish != Normal {
		fmt.Fprintf(&b, " *%s*", p.Finish)
	}
	return b.String()
}
