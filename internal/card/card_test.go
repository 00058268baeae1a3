package card

import (
	"testing"

	"github.com/ginjaninja78/deck-csv-converter/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCondition(t *testing.T) {
	t.Run("Should declare seven conditions ordered by id", func(t *testing.T) {
		all := Conditions()
		require.Len(t, all, 7)
		assert.Equal(t, Mint, all[0])
		assert.Equal(t, Poor, all[6])
		for i := 1; i < len(all); i++ {
			assert.Negative(t, all[i-1].Compare(all[i]))
		}
	})

	t.Run("Should resolve by canonical name and id", func(t *testing.T) {
		c, err := ConditionByName("LightlyPlayed")
		require.NoError(t, err)
		assert.Equal(t, LightlyPlayed, c)
		assert.Equal(t, 5, c.ID())

		c, err = ConditionByID(2)
		require.NoError(t, err)
		assert.Equal(t, "NearMint", c.String())
	})

	t.Run("Should reject unknown names case-sensitively", func(t *testing.T) {
		_, err := ConditionByName("nearmint")
		assert.ErrorIs(t, err, types.ErrNotFound)
		assert.Contains(t, err.Error(), "Condition")
	})
}

func TestFinish(t *testing.T) {
	assert.Equal(t, []Finish{Normal, Foil, Etched}, Finishes())

	f, err := FinishByName("Etched")
	require.NoError(t, err)
	assert.Equal(t, Etched, f)

	_, err = FinishByID(4)
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.False(t, Finish(0).Valid())
}

func TestNewPhysical(t *testing.T) {
	p := NewPhysical()

	assert.Equal(t, DefaultLanguage, p.Language)
	assert.False(t, p.HasCondition())
	assert.False(t, p.HasFinish())
	assert.False(t, p.PricePaid.Valid)
}

func TestPrinting(t *testing.T) {
	p := NewPrinting("Fire // Ice", "Apocalypse", "apc", "128")
	assert.Equal(t, "APC", p.SetCode)

	assert.Equal(t, "Fire", FrontFace(p.Name))
	assert.Equal(t, "Opt", FrontFace("Opt"))
	assert.True(t, IsMultiFaced(p.Name))
	assert.False(t, IsMultiFaced("Opt"))
}

func TestPhysical_String(t *testing.T) {
	p := NewPhysical()
	p.Quantity = 4
	p.Printing = NewPrinting("Lightning Bolt", "", "m10", "146")
	p.Finish = Foil
	p.PricePaid = decimal.NewNullDecimal(decimal.RequireFromString("1.50"))

	assert.Equal(t, "4x Lightning Bolt (M10 146) *Foil*", p.String())
}
