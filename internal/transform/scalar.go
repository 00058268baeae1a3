package transform

import (
	"slices"
	"strconv"
	"strings"

	"github.com/ginjaninja78/deck-csv-converter/internal/card"
	"github.com/ginjaninja78/deck-csv-converter/internal/types"
	"github.com/shopspring/decimal"
)

// UpperCase upper-cases values. It never fails.
type UpperCase struct{}

func (UpperCase) Parse(raw string) (string, error) {
	return strings.ToUpper(strings.TrimSpace(raw)), nil
}

func (UpperCase) Format(value string) (string, error) {
	return strings.ToUpper(value), nil
}

// Text passes values through, trimming surrounding whitespace on input.
type Text struct{}

func (Text) Parse(raw string) (string, error)     { return strings.TrimSpace(raw), nil }
func (Text) Format(value string) (string, error) { return value, nil }

// Quantity parses strictly positive integer counts.
type Quantity struct{}

func (Quantity) Parse(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 0, types.InvalidFormat(raw, "quantity")
	}
	return n, nil
}

func (Quantity) Format(n int) (string, error) {
	if n < 1 {
		return "", types.InvalidFormat(strconv.Itoa(n), "quantity")
	}
	return strconv.Itoa(n), nil
}

// Price parses decimal amounts, tolerating a leading currency symbol.
// An empty cell is an absent price.
type Price struct{}

var currencySymbols = []string{"$", "€", "£", "¥"}

func (Price) Parse(raw string) (decimal.NullDecimal, error) {
	value := strings.TrimSpace(raw)
	for _, symbol := range currencySymbols {
		value = strings.TrimPrefix(value, symbol)
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.NullDecimal{}, nil
	}

	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.NullDecimal{}, types.InvalidFormat(raw, "price")
	}
	if d.IsNegative() {
		return decimal.NullDecimal{}, types.InvalidFormat(raw, "price")
	}
	return decimal.NewNullDecimal(d), nil
}

func (Price) Format(value decimal.NullDecimal) (string, error) {
	if !value.Valid {
		return "", nil
	}
	return value.Decimal.StringFixed(2), nil
}

// Language normalizes language codes. An empty cell means the default
// language.
type Language struct{}

func (Language) Parse(raw string) (string, error) {
	code := strings.ToLower(strings.TrimSpace(raw))
	if code == "" {
		return card.DefaultLanguage, nil
	}
	if len(code) > 3 || strings.ContainsFunc(code, func(r rune) bool { return r < 'a' || r > 'z' }) {
		if full, ok := languageNames[code]; ok {
			return full, nil
		}
		return "", types.InvalidFormat(raw, "language code")
	}
	return code, nil
}

func (Language) Format(code string) (string, error) {
	if code == "" {
		return card.DefaultLanguage, nil
	}
	return code, nil
}

// IsKnownLanguage reports whether code is a catalog language code.
func IsKnownLanguage(code string) bool {
	return slices.Contains(card.KnownLanguages, code)
}

// Several vendors write the language out in full.
var languageNames = map[string]string{
	"english":             "en",
	"spanish":             "es",
	"french":              "fr",
	"german":              "de",
	"italian":             "it",
	"portuguese":          "pt",
	"japanese":            "ja",
	"korean":              "ko",
	"russian":             "ru",
	"chinese simplified":  "zhs",
	"simplified chinese":  "zhs",
	"chinese traditional": "zht",
	"traditional chinese": "zht",
}
