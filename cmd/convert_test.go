package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ginjaninja78/deck-csv-converter/internal/config"
	"github.com/ginjaninja78/deck-csv-converter/internal/converter"
	"github.com/ginjaninja78/deck-csv-converter/internal/types"
	"github.com/ginjaninja78/deck-csv-converter/internal/vendor"
	"github.com/ginjaninja78/deck-csv-converter/internal/xlsxio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupConvert resets the command globals and returns a scratch directory.
func setupConvert(t *testing.T) string {
	t.Helper()
	appConfig = config.DefaultMainConfig()
	registry = vendor.DefaultRegistry()
	convertFlags.from = ""
	convertFlags.to = ""
	convertFlags.input = "-"
	convertFlags.output = "-"
	convertFlags.format = ""
	convertFlags.sheet = ""
	convertFlags.enrich = false
	convertFlags.onError = ""
	convertFlags.noReport = false
	return t.TempDir()
}

func TestRunConvert(t *testing.T) {
	t.Run("Should require a source vendor when reading stdin", func(t *testing.T) {
		setupConvert(t)

		var stderr bytes.Buffer
		err := runConvert(context.Background(), &stderr)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--from is required")
	})

	t.Run("Should detect the source vendor from the file name", func(t *testing.T) {
		dir := setupConvert(t)
		input := filepath.Join(dir, "moxfield_deck.csv")
		require.NoError(t, os.WriteFile(input, []byte(moxfieldDeck), 0o644))
		convertFlags.input = input
		convertFlags.output = filepath.Join(dir, "deck.csv")

		var stderr bytes.Buffer
		require.NoError(t, runConvert(context.Background(), &stderr))

		data, err := os.ReadFile(convertFlags.output)
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		require.Len(t, lines, 2)
		assert.Equal(t, "2,Lightning Bolt,,M10,146,near_mint,foil,en,1.50", lines[1])
		assert.Contains(t, stderr.String(), "1 of 2 rows converted")
		assert.Contains(t, stderr.String(), "1 row(s) skipped")
	})

	t.Run("Should fail when the vendor cannot be detected", func(t *testing.T) {
		dir := setupConvert(t)
		input := filepath.Join(dir, "deck.csv")
		require.NoError(t, os.WriteFile(input, []byte(moxfieldDeck), 0o644))
		convertFlags.input = input

		err := runConvert(context.Background(), &bytes.Buffer{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot detect the vendor of deck.csv")
	})

	t.Run("Should remove the output when the conversion aborts", func(t *testing.T) {
		dir := setupConvert(t)
		input := filepath.Join(dir, "moxfield_deck.csv")
		require.NoError(t, os.WriteFile(input, []byte(moxfieldDeck), 0o644))
		convertFlags.input = input
		convertFlags.output = filepath.Join(dir, "deck.csv")
		convertFlags.onError = config.PolicyAbort

		err := runConvert(context.Background(), &bytes.Buffer{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, types.ErrInvalidFormat))

		var rowErr *converter.RowError
		require.True(t, errors.As(err, &rowErr))
		assert.Equal(t, 2, rowErr.Row)
		assert.NoFileExists(t, convertFlags.output)
	})

	t.Run("Should convert a workbook to CSV", func(t *testing.T) {
		dir := setupConvert(t)
		input := filepath.Join(dir, "deck.xlsx")
		require.NoError(t, xlsxio.WriteFile(input,
			[]string{"Count", "Name", "Edition", "Collector Number", "Condition", "Foil"},
			[][]string{
				{"2", "Lightning Bolt", "m10", "146", "NM", "foil"},
				{"4", "Island", "", "", "", ""},
			},
			xlsxio.DefaultOptions(),
		))
		convertFlags.from = "moxfield"
		convertFlags.to = "deckbox"
		convertFlags.input = input
		convertFlags.output = filepath.Join(dir, "deck.csv")
		convertFlags.noReport = true

		var stderr bytes.Buffer
		require.NoError(t, runConvert(context.Background(), &stderr))
		assert.Empty(t, stderr.String())

		data, err := os.ReadFile(convertFlags.output)
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		require.Len(t, lines, 3)
		assert.Equal(t, "Count,Name,Edition,Card Number,Condition,Foil,Language,My Price", lines[0])
		assert.Equal(t, "2,Lightning Bolt,,146,Near Mint,foil,en,", lines[1])
		assert.Equal(t, "4,Island,,,,,en,", lines[2])
	})

	t.Run("Should write a workbook when the output is xlsx", func(t *testing.T) {
		dir := setupConvert(t)
		input := filepath.Join(dir, "moxfield_deck.csv")
		require.NoError(t, os.WriteFile(input, []byte(moxfieldDeck), 0o644))
		convertFlags.input = input
		convertFlags.output = filepath.Join(dir, "deck.xlsx")

		require.NoError(t, runConvert(context.Background(), &bytes.Buffer{}))

		table, err := xlsxio.ReadFile(convertFlags.output, "")
		require.NoError(t, err)
		assert.Equal(t, []string{
			"Quantity", "Name", "Set name", "Set code", "Collector number",
			"Condition", "Foil", "Language", "Purchase price",
		}, table.Headers)
		require.Len(t, table.Rows, 1)
		assert.Equal(t, "Lightning Bolt", table.Rows[0].Values[1])
	})

	t.Run("Should reject unknown output formats", func(t *testing.T) {
		setupConvert(t)
		convertFlags.from = "moxfield"
		convertFlags.format = "json"

		err := runConvert(context.Background(), &bytes.Buffer{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown output format "json"`)
	})
}
