package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversionError_Is(t *testing.T) {
	t.Run("Should match the sentinel of its own kind only", func(t *testing.T) {
		err := InvalidFormat("Damaged", "condition", "NM", "LP")

		assert.ErrorIs(t, err, ErrInvalidFormat)
		assert.NotErrorIs(t, err, ErrNotFound)
		assert.NotErrorIs(t, err, ErrMissingColumn)
	})

	t.Run("Should match through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("failed to read deck: %w", MissingColumn("Count"))

		assert.ErrorIs(t, err, ErrMissingColumn)
		assert.Equal(t, KindMissingColumn, KindOf(err))
	})
}

func TestConversionError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "missing column",
			err:  MissingColumn("Count"),
			want: `missing column "Count"`,
		},
		{
			name: "invalid format with expected set",
			err:  InvalidFormat("Damaged", "condition", "M", "NM"),
			want: `invalid format: "Damaged" is not a valid condition, expected one of ["M" "NM"]`,
		},
		{
			name: "unsupported feature",
			err:  Unsupported("etched finish for vendor DragonShield", "Etched"),
			want: "unsupported feature: etched finish for vendor DragonShield (Etched)",
		},
		{
			name: "not found",
			err:  NotFound("Condition", "Mint-ish"),
			want: `Condition not found: "Mint-ish"`,
		},
		{
			name: "located",
			err:  Locate(InvalidFormat("x", "quantity"), 3, "Count"),
			want: `invalid format: "x" is not a valid quantity (row 3, column "Count")`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestLocate(t *testing.T) {
	t.Run("Should keep existing location", func(t *testing.T) {
		first := Locate(NotFound("card", "Blorp"), 2, "Name")
		second := Locate(first, 9, "Other")

		var ce *ConversionError
		require.True(t, errors.As(second, &ce))
		assert.Equal(t, 2, ce.Row)
		assert.Equal(t, "Name", ce.Header)
	})

	t.Run("Should not mutate the original error", func(t *testing.T) {
		orig := InvalidFormat("0", "quantity")
		_ = Locate(orig, 4, "Count")

		assert.Zero(t, orig.Row)
		assert.Empty(t, orig.Header)
	})

	t.Run("Should wrap foreign errors", func(t *testing.T) {
		base := errors.New("boom")
		err := Locate(base, 1, "Name")

		assert.ErrorIs(t, err, base)
		assert.Contains(t, err.Error(), `row 1, column "Name"`)
	})

	t.Run("Should return nil for nil", func(t *testing.T) {
		assert.NoError(t, Locate(nil, 1, "Name"))
	})
}
