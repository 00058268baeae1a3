package validation

import (
	"testing"

	"github.com/ginjaninja78/deck-csv-converter/internal/card"
	"github.com/ginjaninja78/deck-csv-converter/internal/vendor"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rules(result *ValidationResult) []string {
	var out []string
	for _, e := range result.Errors {
		out = append(out, e.Field+":"+e.Rule)
	}
	return out
}

func TestValidateVendor(t *testing.T) {
	t.Run("Should accept every built-in vendor", func(t *testing.T) {
		for _, cfg := range vendor.Builtins() {
			result := ValidateVendor(cfg)
			assert.True(t, result.IsValid, "%s: %v", cfg.Name, result.Messages())
		}
	})

	t.Run("Should require the mandatory headers", func(t *testing.T) {
		result := ValidateVendor(vendor.Config{Name: "Broken"})
		assert.False(t, result.IsValid)
		assert.ElementsMatch(t, []string{"quantity:required", "card_name:required"}, rules(result))
	})

	t.Run("Should reject shared headers", func(t *testing.T) {
		cfg := vendor.Generic.Clone()
		cfg.SetName = vendor.Some("Name")
		result := ValidateVendor(cfg)
		assert.Equal(t, []string{"set_name:unique_header"}, rules(result))
		assert.Contains(t, result.Errors[0].Error(), "card_name")
	})

	t.Run("Should reject duplicate tokens", func(t *testing.T) {
		cfg := vendor.Generic.Clone()
		cfg.Condition = vendor.Some(vendor.ConditionConfig{
			Header: "Condition", Mint: "NM", NearMint: "NM", Excellent: "EX",
			Good: "GD", LightlyPlayed: "LP", Played: "PL", Poor: "PR",
		})
		cfg.Finish = vendor.Some(vendor.FinishConfig{Header: "Foil", Normal: "", Foil: "foil", Etched: vendor.Some("foil")})
		result := ValidateVendor(cfg)
		assert.ElementsMatch(t, []string{"condition:unique_token", "finish:unique_token"}, rules(result))
	})

	t.Run("Should check abbreviations and dialect", func(t *testing.T) {
		cfg := vendor.Generic.Clone()
		cfg.CardName.Abbreviations = map[string]string{"Fire": "Fire // Ice", "F": "Fire // Ice"}
		cfg.Delimiter = "::"
		cfg.Encoding = "nope-1"
		cfg.FilePatterns = []string{"[deck"}

		result := ValidateVendor(cfg)
		assert.ElementsMatch(t, []string{
			"card_name.abbreviations:unused",
			"card_name.abbreviations:unique_token",
			"delimiter:dialect",
			"encoding:dialect",
			"file_patterns:pattern",
		}, rules(result))
		assert.Equal(t, 1, result.WarningCount)
	})
}

func TestValidator_ValidateCard(t *testing.T) {
	v := NewValidator()

	t.Run("Should accept a plain record", func(t *testing.T) {
		c := card.NewPhysical()
		c.Quantity = 4
		c.Printing = card.NewPrinting("Lightning Bolt", "", "m10", "146")
		assert.Empty(t, v.ValidateCard(1, c))
	})

	t.Run("Should report record problems with their row", func(t *testing.T) {
		c := card.NewPhysical()
		c.Quantity = 0
		c.Language = "xx"
		c.Printing.CollectorNumber = "12"
		c.PricePaid = decimal.NewNullDecimal(decimal.NewFromInt(-1))

		errs := v.ValidateCard(9, c)
		require.Len(t, errs, 5)
		for _, e := range errs {
			assert.Equal(t, 9, e.RowNumber)
		}
		assert.Contains(t, errs[0].Error(), "row 9")
	})
}

func TestValidator_ValidateAll(t *testing.T) {
	good := card.NewPhysical()
	good.Quantity = 1
	good.Printing.Name = "Opt"

	huge := good
	huge.Quantity = 5000

	bad := good
	bad.Printing.Name = ""

	t.Run("Should count errors and warnings", func(t *testing.T) {
		result := NewValidator().ValidateAll([]card.Physical{good, huge, bad, bad})
		assert.False(t, result.IsValid)
		assert.Equal(t, 4, result.CardsValidated)
		assert.Equal(t, 2, result.ErrorCount)
		assert.Equal(t, 1, result.WarningCount)
		assert.Equal(t, 3, result.Errors[1].RowNumber)
	})

	t.Run("Should stop on the first error when asked", func(t *testing.T) {
		opts := DefaultValidationOptions()
		opts.StopOnFirstError = true
		result := NewValidatorWithOptions(opts).ValidateAll([]card.Physical{bad, bad})
		assert.Equal(t, 1, result.ErrorCount)
	})

	t.Run("Should treat warnings as errors when asked", func(t *testing.T) {
		opts := DefaultValidationOptions()
		opts.TreatWarningsAsErrors = true
		result := NewValidatorWithOptions(opts).ValidateAll([]card.Physical{huge})
		assert.False(t, result.IsValid)
		assert.Equal(t, 0, result.ErrorCount)
	})
}
