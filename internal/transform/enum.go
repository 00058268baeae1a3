package transform

import (
	"fmt"
	"strings"

	"github.com/ginjaninja78/deck-csv-converter/internal/card"
	"github.com/ginjaninja78/deck-csv-converter/internal/types"
	"github.com/ginjaninja78/deck-csv-converter/internal/vendor"
)

// Condition maps vendor condition tokens to card conditions through the 1:1
// table of the vendor configuration.
type Condition struct {
	cfg     vendor.ConditionConfig
	byToken map[string]card.Condition
}

// NewCondition builds the reverse token table for cfg.
func NewCondition(cfg vendor.ConditionConfig) Condition {
	byToken := make(map[string]card.Condition, 7)
	for _, c := range card.Conditions() {
		token, _ := cfg.Token(c)
		byToken[token] = c
	}
	return Condition{cfg: cfg, byToken: byToken}
}

// Parse matches raw against the vendor tokens. Surrounding whitespace is
// ignored unless the untrimmed cell is itself a token.
func (c Condition) Parse(raw string) (card.Condition, error) {
	if cond, ok := lookupToken(c.byToken, raw); ok {
		return cond, nil
	}
	return 0, types.InvalidFormat(raw, "condition", c.cfg.Tokens()...)
}

func (c Condition) Format(cond card.Condition) (string, error) {
	token, ok := c.cfg.Token(cond)
	if !ok {
		return "", types.NotFound("Condition", fmt.Sprint(int(cond)))
	}
	return token, nil
}

func (c Condition) Accepts(raw string) bool {
	_, ok := lookupToken(c.byToken, raw)
	return ok
}

// Finish maps vendor finish tokens to card finishes. Etched is only
// available when the vendor defines a token for it.
type Finish struct {
	vendorName string
	cfg        vendor.FinishConfig
	byToken    map[string]card.Finish
}

// NewFinish builds the reverse token table for cfg. vendorName is used in
// UnsupportedFeature errors.
func NewFinish(vendorName string, cfg vendor.FinishConfig) Finish {
	byToken := make(map[string]card.Finish, 3)
	for _, f := range card.Finishes() {
		if token, ok := cfg.Token(f); ok {
			byToken[token] = f
		}
	}
	return Finish{vendorName: vendorName, cfg: cfg, byToken: byToken}
}

func (f Finish) Parse(raw string) (card.Finish, error) {
	if finish, ok := lookupToken(f.byToken, raw); ok {
		return finish, nil
	}
	return 0, types.InvalidFormat(raw, "finish", f.cfg.Tokens()...)
}

func (f Finish) Format(finish card.Finish) (string, error) {
	if !finish.Valid() {
		return "", types.NotFound("Finish", fmt.Sprint(int(finish)))
	}
	token, ok := f.cfg.Token(finish)
	if !ok {
		return "", types.Unsupported(
			fmt.Sprintf("%s finish for vendor %s", finish, f.vendorName),
			finish.String(),
		)
	}
	return token, nil
}

func (f Finish) Accepts(raw string) bool {
	_, ok := lookupToken(f.byToken, raw)
	return ok
}

func lookupToken[T any](byToken map[string]T, raw string) (T, bool) {
	if v, ok := byToken[raw]; ok {
		return v, true
	}
	v, ok := byToken[strings.TrimSpace(raw)]
	return v, ok
}
