package transform

import (
	"strings"

	"github.com/ginjaninja78/deck-csv-converter/internal/card"
	"github.com/ginjaninja78/deck-csv-converter/internal/types"
	"github.com/ginjaninja78/deck-csv-converter/internal/vendor"
)

// CardName converts card names. For vendors exporting short names the
// abbreviation table from configuration is applied in both directions;
// names missing from the table fall back to the front-face rule on output
// and pass through unchanged on input.
type CardName struct {
	cfg vendor.CardNameConfig
}

// NewCardName returns a card name transformer for cfg.
func NewCardName(cfg vendor.CardNameConfig) CardName {
	return CardName{cfg: cfg}
}

// Parse returns the full card name.
func (c CardName) Parse(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", types.InvalidFormat(raw, "card name")
	}
	if !c.cfg.ShortNames {
		return name, nil
	}
	if full, ok := c.cfg.Expand(name); ok {
		return full, nil
	}
	return name, nil
}

// Format returns the name as the vendor writes it.
func (c CardName) Format(name string) (string, error) {
	if !c.cfg.ShortNames {
		return name, nil
	}
	if short, ok := c.cfg.Abbreviate(name); ok {
		return short, nil
	}
	return card.FrontFace(name), nil
}

// ShortNames reports whether the vendor abbreviates multi-faced names.
func (c CardName) ShortNames() bool {
	return c.cfg.ShortNames
}
