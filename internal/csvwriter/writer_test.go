package csvwriter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ginjaninja78/deck-csv-converter/internal/csvparser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrite(t *testing.T) {
	headers := []string{"Quantity", "Name"}
	rows := [][]string{{"1", "Fire // Ice"}, {"2", "Borrowing 100,000 Arrows"}}

	t.Run("Should quote cells that need it", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, headers, rows, DefaultOptions()))
		assert.Equal(t, "Quantity,Name\n1,Fire // Ice\n2,\"Borrowing 100,000 Arrows\"\n", buf.String())
	})

	t.Run("Should write dialect options", func(t *testing.T) {
		var buf bytes.Buffer
		opts := Options{Delimiter: "semicolon", Encoding: "utf-8-bom", CRLF: true, SepHint: true}
		require.NoError(t, Write(&buf, headers, rows[:1], opts))
		assert.Equal(t, "\uFEFFsep=;\r\nQuantity;Name\r\n1;Fire // Ice\r\n", buf.String())
	})

	t.Run("Should be readable by the parser", func(t *testing.T) {
		var buf bytes.Buffer
		opts := Options{Encoding: "windows-1252", SepHint: true, Delimiter: "|"}
		require.NoError(t, Write(&buf, headers, [][]string{{"1", "Lim-Dûl's Vault"}}, opts))

		table, err := csvparser.Parse(&buf, csvparser.Settings{Encoding: "windows-1252"})
		require.NoError(t, err)
		assert.Equal(t, headers, table.Headers)
		assert.Equal(t, "Lim-Dûl's Vault", table.Rows[0].Values[1])
	})
}

func TestWriter_Order(t *testing.T) {
	var buf bytes.Buffer
	w, err := New(&buf, DefaultOptions())
	require.NoError(t, err)

	assert.Error(t, w.WriteRow([]string{"1"}))
	require.NoError(t, w.WriteHeader([]string{"Quantity"}))
	assert.Error(t, w.WriteHeader([]string{"Quantity"}))
	require.NoError(t, w.WriteRow([]string{"1"}))
	require.NoError(t, w.Close())

	assert.Equal(t, 1, w.Rows())
	assert.True(t, strings.HasPrefix(buf.String(), "Quantity\n"))
}

func TestNew_InvalidOptions(t *testing.T) {
	_, err := New(&bytes.Buffer{}, Options{Delimiter: "ab"})
	assert.Error(t, err)

	_, err = New(&bytes.Buffer{}, Options{Encoding: "nope-42"})
	assert.Error(t, err)
}
