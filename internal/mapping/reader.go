package mapping

import (
	"strings"

	"github.com/ginjaninja78/deck-csv-converter/internal/card"
	"github.com/ginjaninja78/deck-csv-converter/internal/types"
)

type column struct {
	binding Binding
	index   int
}

// RowReader converts data rows of one file. It is created by Mapping.Open
// for a specific header row.
type RowReader struct {
	columns []column
	missing []string
}

// Open resolves the bindings against a file's header row. Header names are
// matched exactly first, then case-insensitively. When a header appears more
// than once the first occurrence is used.
func (m *Mapping) Open(headers []string) (*RowReader, error) {
	exact := make(map[string]int, len(headers))
	folded := make(map[string]int, len(headers))
	for i, h := range headers {
		h = strings.TrimSpace(h)
		if _, ok := exact[h]; !ok {
			exact[h] = i
		}
		key := strings.ToLower(h)
		if _, ok := folded[key]; !ok {
			folded[key] = i
		}
	}

	r := &RowReader{}
	for _, b := range m.bindings {
		idx, ok := exact[b.Header]
		if !ok {
			idx, ok = folded[strings.ToLower(b.Header)]
		}
		if !ok {
			if b.Required {
				return nil, types.MissingColumn(b.Header)
			}
			r.missing = append(r.missing, b.Header)
			continue
		}
		r.columns = append(r.columns, column{binding: b, index: idx})
	}
	return r, nil
}

// Missing lists the configured optional headers absent from the file.
func (r *RowReader) Missing() []string {
	return append([]string(nil), r.missing...)
}

// Read converts one data row. row is the 1-based data row index used in
// error context. Cells beyond the end of a short row read as empty.
func (r *RowReader) Read(row int, values []string) (card.Physical, error) {
	c := card.NewPhysical()
	for _, col := range r.columns {
		var raw string
		if col.index < len(values) {
			raw = values[col.index]
		}
		if col.binding.absent != nil && col.binding.absent(raw) {
			continue
		}
		if err := col.binding.parse(raw, &c); err != nil {
			located := types.Locate(err, row, col.binding.Header)
			if ce, ok := located.(*types.ConversionError); ok && ce.Value == "" {
				ce.Value = raw
			}
			return card.Physical{}, located
		}
	}
	return c, nil
}
