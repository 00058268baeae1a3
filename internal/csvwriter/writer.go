// =============================================================================
// Deck CSV Converter - CSV Writer Module
// =============================================================================
//
// This module writes deck lists in a vendor's CSV dialect. It receives the
// header row and already formatted cells from the mapping package and only
// deals with quoting, line endings and the output character set.
//
// OUTPUT OPTIONS:
//   - Delimiter (same aliases as the parser)
//   - Encoding: UTF-8 (default), "utf-8-bom", Windows-1252, ISO-8859-1, ...
//   - CRLF line endings, as spreadsheet tools write them
//   - An Excel "sep=" hint line, for tools that guess the delimiter
//
// =============================================================================

package csvwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/ginjaninja78/deck-csv-converter/internal/csvparser"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

const utf8BOM = "\uFEFF"

// =============================================================================
// OPTIONS
// =============================================================================

// Options controls the output dialect.
type Options struct {
	Delimiter string
	Encoding  string
	CRLF      bool
	SepHint   bool
}

// DefaultOptions returns comma separated UTF-8 with LF line endings.
func DefaultOptions() Options {
	return Options{Delimiter: ",", Encoding: "utf-8"}
}

func (o Options) encoder() (*encoding.Encoder, bool, error) {
	switch strings.ToLower(strings.ReplaceAll(o.Encoding, "_", "-")) {
	case "", "utf-8", "utf8":
		return nil, false, nil
	case "utf-8-bom", "utf8-bom":
		return nil, true, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252.NewEncoder(), false, nil
	case "iso-8859-1", "latin1", "latin-1":
		return charmap.ISO8859_1.NewEncoder(), false, nil
	}
	enc, err := htmlindex.Get(o.Encoding)
	if err != nil {
		return nil, false, fmt.Errorf("unsupported encoding %q: %w", o.Encoding, err)
	}
	return enc.NewEncoder(), false, nil
}

// =============================================================================
// WRITER
// =============================================================================

// Writer writes one CSV document. Close must be called to flush buffered
// output.
type Writer struct {
	csv     *csv.Writer
	encoded io.WriteCloser
	rows    int
	header  bool
}

// New prepares a writer on w.
func New(w io.Writer, opts Options) (*Writer, error) {
	comma, err := csvparser.Settings{Delimiter: opts.Delimiter}.Comma()
	if err != nil {
		return nil, err
	}
	enc, bom, err := opts.encoder()
	if err != nil {
		return nil, err
	}

	out := &Writer{}
	target := w
	if enc != nil {
		out.encoded = transform.NewWriter(w, encoding.HTMLEscapeUnsupported(enc))
		target = out.encoded
	}
	if bom {
		if _, err := io.WriteString(target, utf8BOM); err != nil {
			return nil, fmt.Errorf("failed to write byte order mark: %w", err)
		}
	}
	if opts.SepHint {
		eol := "\n"
		if opts.CRLF {
			eol = "\r\n"
		}
		if _, err := fmt.Fprintf(target, "sep=%c%s", comma, eol); err != nil {
			return nil, fmt.Errorf("failed to write sep line: %w", err)
		}
	}

	out.csv = csv.NewWriter(target)
	out.csv.Comma = comma
	out.csv.UseCRLF = opts.CRLF
	return out, nil
}

// WriteHeader writes the header row. It must be called once, before any
// data row.
func (w *Writer) WriteHeader(headers []string) error {
	if w.header {
		return fmt.Errorf("header already written")
	}
	if err := w.csv.Write(headers); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	w.header = true
	return nil
}

// WriteRow writes one data row.
func (w *Writer) WriteRow(values []string) error {
	if !w.header {
		return fmt.Errorf("row written before header")
	}
	if err := w.csv.Write(values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", w.rows+1, err)
	}
	w.rows++
	return nil
}

// Rows returns the number of data rows written.
func (w *Writer) Rows() int { return w.rows }

// Close flushes buffered rows. It does not close the underlying writer.
func (w *Writer) Close() error {
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	if w.encoded != nil {
		if err := w.encoded.Close(); err != nil {
			return fmt.Errorf("failed to flush encoder: %w", err)
		}
	}
	return nil
}

// Write writes a complete document.
func Write(w io.Writer, headers []string, rows [][]string, opts Options) error {
	out, err := New(w, opts)
	if err != nil {
		return err
	}
	if err := out.WriteHeader(headers); err != nil {
		return err
	}
	for _, row := range rows {
		if err := out.WriteRow(row); err != nil {
			return err
		}
	}
	return out.Close()
}
