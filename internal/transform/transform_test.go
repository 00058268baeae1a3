package transform

import (
	"errors"
	"testing"

	"github.com/ginjaninja78/deck-csv-converter/internal/card"
	"github.com/ginjaninja78/deck-csv-converter/internal/types"
	"github.com/ginjaninja78/deck-csv-converter/internal/vendor"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCondition(t *testing.T) {
	cfg, ok := vendor.ManaBox.Condition.Get()
	require.True(t, ok)
	conv := NewCondition(cfg)

	t.Run("Should round trip every condition", func(t *testing.T) {
		for _, c := range card.Conditions() {
			token, err := conv.Format(c)
			require.NoError(t, err)
			parsed, err := conv.Parse(token)
			require.NoError(t, err)
			assert.Equal(t, c, parsed, "condition %s via %q", c, token)
		}
	})

	t.Run("Should parse vendor tokens", func(t *testing.T) {
		c, err := conv.Parse("near_mint")
		require.NoError(t, err)
		assert.Equal(t, card.NearMint, c)
		assert.True(t, conv.Accepts("light_played"))
		assert.False(t, conv.Accepts("LP"))
	})

	t.Run("Should reject unknown tokens naming the token set", func(t *testing.T) {
		_, err := conv.Parse("Damaged")
		require.Error(t, err)
		assert.True(t, errors.Is(err, types.ErrInvalidFormat))

		var ce *types.ConversionError
		require.True(t, errors.As(err, &ce))
		assert.Equal(t, "Damaged", ce.Value)
		assert.Equal(t, cfg.Tokens(), ce.Expected)
		assert.Contains(t, err.Error(), `"near_mint"`)
	})

	t.Run("Should ignore whitespace around tokens", func(t *testing.T) {
		c, err := conv.Parse("near_mint ")
		require.NoError(t, err)
		assert.Equal(t, card.NearMint, c)
		assert.True(t, conv.Accepts(" played"))
	})

	t.Run("Should fail formatting an absent condition", func(t *testing.T) {
		_, err := conv.Format(0)
		assert.True(t, errors.Is(err, types.ErrNotFound))
	})
}

func TestFinish(t *testing.T) {
	t.Run("Should round trip every finish the vendor supports", func(t *testing.T) {
		cfg, _ := vendor.ManaBox.Finish.Get()
		conv := NewFinish("ManaBox", cfg)
		for _, f := range card.Finishes() {
			token, err := conv.Format(f)
			require.NoError(t, err)
			parsed, err := conv.Parse(token)
			require.NoError(t, err)
			assert.Equal(t, f, parsed)
		}
	})

	t.Run("Should treat an empty token as a real value when configured", func(t *testing.T) {
		cfg, _ := vendor.Moxfield.Finish.Get()
		conv := NewFinish("Moxfield", cfg)

		f, err := conv.Parse("")
		require.NoError(t, err)
		assert.Equal(t, card.Normal, f)

		token, err := conv.Format(card.Normal)
		require.NoError(t, err)
		assert.Equal(t, "", token)
	})

	t.Run("Should ignore whitespace around tokens", func(t *testing.T) {
		cfg, _ := vendor.ManaBox.Finish.Get()
		f, err := NewFinish("ManaBox", cfg).Parse(" foil ")
		require.NoError(t, err)
		assert.Equal(t, card.Foil, f)

		moxCfg, _ := vendor.Moxfield.Finish.Get()
		f, err = NewFinish("Moxfield", moxCfg).Parse("  ")
		require.NoError(t, err)
		assert.Equal(t, card.Normal, f)
	})

	t.Run("Should not support etched without a token", func(t *testing.T) {
		cfg, _ := vendor.DragonShield.Finish.Get()
		conv := NewFinish("DragonShield", cfg)

		_, err := conv.Format(card.Etched)
		require.Error(t, err)
		assert.True(t, errors.Is(err, types.ErrUnsupportedFeature))
		assert.Contains(t, err.Error(), "DragonShield")

		_, err = conv.Parse("Etched")
		assert.True(t, errors.Is(err, types.ErrInvalidFormat))
	})

	t.Run("Should fail formatting an absent finish", func(t *testing.T) {
		cfg, _ := vendor.ManaBox.Finish.Get()
		_, err := NewFinish("ManaBox", cfg).Format(0)
		assert.True(t, errors.Is(err, types.ErrNotFound))
	})
}

func TestUpperCase(t *testing.T) {
	var conv UpperCase

	got, err := conv.Parse("mid")
	require.NoError(t, err)
	assert.Equal(t, "MID", got)

	got, err = conv.Parse("")
	require.NoError(t, err)
	assert.Equal(t, "", got)

	got, err = conv.Format("m10")
	require.NoError(t, err)
	assert.Equal(t, "M10", got)
}

func TestCardName(t *testing.T) {
	shortCfg := vendor.CardNameConfig{
		Header:        "Card Name",
		ShortNames:    true,
		Abbreviations: map[string]string{"Fire": "Fire // Ice"},
	}

	t.Run("Should pass names through for full-name vendors", func(t *testing.T) {
		conv := NewCardName(vendor.CardNameConfig{Header: "Name"})
		got, err := conv.Parse("Fire // Ice")
		require.NoError(t, err)
		assert.Equal(t, "Fire // Ice", got)

		out, err := conv.Format("Fire // Ice")
		require.NoError(t, err)
		assert.Equal(t, "Fire // Ice", out)
	})

	t.Run("Should expand and abbreviate through the table", func(t *testing.T) {
		conv := NewCardName(shortCfg)
		got, err := conv.Parse("Fire")
		require.NoError(t, err)
		assert.Equal(t, "Fire // Ice", got)

		out, err := conv.Format("Fire // Ice")
		require.NoError(t, err)
		assert.Equal(t, "Fire", out)
	})

	t.Run("Should fall back to the front face", func(t *testing.T) {
		conv := NewCardName(shortCfg)
		out, err := conv.Format("Delver of Secrets // Insectile Aberration")
		require.NoError(t, err)
		assert.Equal(t, "Delver of Secrets", out)

		got, err := conv.Parse("Delver of Secrets")
		require.NoError(t, err)
		assert.Equal(t, "Delver of Secrets", got)
	})

	t.Run("Should reject empty names", func(t *testing.T) {
		_, err := NewCardName(shortCfg).Parse("  ")
		assert.True(t, errors.Is(err, types.ErrInvalidFormat))
	})
}

func TestQuantity(t *testing.T) {
	var conv Quantity

	n, err := conv.Parse(" 4 ")
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	for _, raw := range []string{"", "0", "-1", "four", "1.5"} {
		_, err := conv.Parse(raw)
		assert.True(t, errors.Is(err, types.ErrInvalidFormat), "raw %q", raw)
	}

	_, err = conv.Format(0)
	assert.Error(t, err)
}

func TestPrice(t *testing.T) {
	var conv Price

	t.Run("Should parse amounts with currency symbols", func(t *testing.T) {
		p, err := conv.Parse("$1.5")
		require.NoError(t, err)
		require.True(t, p.Valid)
		assert.True(t, decimal.RequireFromString("1.5").Equal(p.Decimal))

		out, err := conv.Format(p)
		require.NoError(t, err)
		assert.Equal(t, "1.50", out)
	})

	t.Run("Should treat empty cells as absent", func(t *testing.T) {
		p, err := conv.Parse("")
		require.NoError(t, err)
		assert.False(t, p.Valid)

		out, err := conv.Format(p)
		require.NoError(t, err)
		assert.Equal(t, "", out)
	})

	t.Run("Should reject negative and malformed amounts", func(t *testing.T) {
		_, err := conv.Parse("-2")
		assert.True(t, errors.Is(err, types.ErrInvalidFormat))
		_, err = conv.Parse("abc")
		assert.True(t, errors.Is(err, types.ErrInvalidFormat))
	})
}

func TestLanguage(t *testing.T) {
	var conv Language

	cases := map[string]string{
		"":         "en",
		"EN":       "en",
		"ja":       "ja",
		"Japanese": "ja",
		"zhs":      "zhs",
	}
	for raw, want := range cases {
		got, err := conv.Parse(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	_, err := conv.Parse("Klingon")
	assert.True(t, errors.Is(err, types.ErrInvalidFormat))

	assert.True(t, IsKnownLanguage("de"))
	assert.False(t, IsKnownLanguage("xx"))
}
