package csvparser

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"
)

func TestParse(t *testing.T) {
	t.Run("Should split headers and rows", func(t *testing.T) {
		table, err := Parse(strings.NewReader("Quantity,Name\n4,Lightning Bolt\n1,\"Fire // Ice\"\n"), Settings{})
		require.NoError(t, err)
		assert.Equal(t, []string{"Quantity", "Name"}, table.Headers)
		require.Len(t, table.Rows, 2)
		assert.Equal(t, []string{"1", "Fire // Ice"}, table.Rows[1].Values)
		assert.Equal(t, 2, table.Rows[1].Number)
		assert.Equal(t, 3, table.Rows[1].Line)
	})

	t.Run("Should skip empty rows but keep numbering", func(t *testing.T) {
		table, err := Parse(strings.NewReader("Quantity,Name\n\n,\n2,Opt\n"), Settings{})
		require.NoError(t, err)
		require.Len(t, table.Rows, 1)
		assert.Equal(t, 2, table.Rows[0].Number)
	})

	t.Run("Should strip a UTF-8 byte order mark", func(t *testing.T) {
		table, err := Parse(strings.NewReader("\xEF\xBB\xBFQuantity,Name\n1,Opt\n"), Settings{})
		require.NoError(t, err)
		assert.Equal(t, "Quantity", table.Headers[0])
	})

	t.Run("Should honour a sep hint line", func(t *testing.T) {
		table, err := Parse(strings.NewReader("\"sep=;\"\nQuantity;Card Name\n1;Opt\n"), Settings{})
		require.NoError(t, err)
		assert.Equal(t, ';', table.Delimiter)
		assert.Equal(t, []string{"Quantity", "Card Name"}, table.Headers)
		assert.Equal(t, []string{"1", "Opt"}, table.Rows[0].Values)
	})

	t.Run("Should resolve delimiter aliases", func(t *testing.T) {
		table, err := Parse(strings.NewReader("Quantity\tName\tSet\n1\t\tM10\n"), Settings{Delimiter: "tab"})
		require.NoError(t, err)
		assert.Equal(t, []string{"1", "", "M10"}, table.Rows[0].Values)
	})

	t.Run("Should skip preamble rows", func(t *testing.T) {
		table, err := Parse(strings.NewReader("Exported 2024-01-01\nQuantity,Name\n1,Opt\n"), Settings{SkipRows: 1})
		require.NoError(t, err)
		assert.Equal(t, []string{"Quantity", "Name"}, table.Headers)
	})

	t.Run("Should name blank headers by position", func(t *testing.T) {
		table, err := Parse(strings.NewReader("Quantity,,Name\n"), Settings{})
		require.NoError(t, err)
		assert.Equal(t, "Column_2", table.Headers[1])
		assert.Empty(t, table.Rows)
	})

	t.Run("Should fail on empty input", func(t *testing.T) {
		_, err := Parse(strings.NewReader("\n\n"), Settings{})
		assert.True(t, errors.Is(err, ErrEmptyFile))
	})
}

func TestParse_Encodings(t *testing.T) {
	t.Run("Should decode Windows-1252", func(t *testing.T) {
		table, err := Parse(strings.NewReader("Quantity,Name\n1,Lim-D\xfbl's Vault\n"), Settings{Encoding: "windows-1252"})
		require.NoError(t, err)
		assert.Equal(t, "Lim-Dûl's Vault", table.Rows[0].Values[1])
	})

	t.Run("Should decode UTF-16 with a byte order mark", func(t *testing.T) {
		encoded, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().String("Quantity,Name\n1,Jötun Grunt\n")
		require.NoError(t, err)

		table, err := Parse(strings.NewReader(encoded), Settings{Encoding: "UTF-16"})
		require.NoError(t, err)
		assert.Equal(t, "Jötun Grunt", table.Rows[0].Values[1])
	})

	t.Run("Should reject unknown encodings", func(t *testing.T) {
		_, err := Parse(strings.NewReader("a\n"), Settings{Encoding: "klingon-8"})
		assert.ErrorContains(t, err, "unsupported encoding")
	})
}

func TestSettings_Decoder(t *testing.T) {
	t.Run("Should strip the byte order mark for every UTF-8 alias", func(t *testing.T) {
		for _, name := range []string{"", "utf-8", "UTF_8", "utf8"} {
			decoder, err := Settings{Encoding: name}.Decoder()
			require.NoError(t, err, name)

			got, err := decoder.String("\xEF\xBB\xBFCount,Name")
			require.NoError(t, err, name)
			assert.Equal(t, "Count,Name", got, name)
		}
	})

	t.Run("Should reject unknown encodings", func(t *testing.T) {
		_, err := Settings{Encoding: "klingon-8"}.Decoder()
		assert.Error(t, err)
	})
}

func TestSettings_Comma(t *testing.T) {
	for alias, want := range map[string]rune{"": ',', "semicolon": ';', "PIPE": '|', "\\t": '\t', "#": '#'} {
		got, err := Settings{Delimiter: alias}.Comma()
		require.NoError(t, err, alias)
		assert.Equal(t, want, got, alias)
	}

	_, err := Settings{Delimiter: "::"}.Comma()
	assert.Error(t, err)
}

func TestOpenStreamingParser(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deck.csv")
	require.NoError(t, os.WriteFile(path, []byte("Count,Name\n2,Brainstorm\n3,Ponder\n"), 0o644))

	p, err := OpenStreamingParser(path, Settings{})
	require.NoError(t, err)
	defer p.Close()

	var names []string
	for p.Next() {
		names = append(names, p.Row().Values[1])
	}
	require.NoError(t, p.Err())
	assert.Equal(t, []string{"Brainstorm", "Ponder"}, names)

	table, err := ParseFile(path, Settings{})
	require.NoError(t, err)
	assert.Equal(t, path, table.Source)

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.csv"), Settings{})
	assert.Error(t, err)
}
