// =============================================================================
// Deck CSV Converter - CSV Parser Module
// =============================================================================
//
// This module reads deck list CSV exports. It only splits the file into a
// header row and data rows; interpreting headers and cells is the job of the
// mapping package.
//
// FEATURES:
//   - Delimiter aliases (comma, semicolon, tab, pipe)
//   - Input encodings: UTF-8 (BOM stripped), UTF-16, Windows-1252, ISO-8859-1
//     and any other name known to the WHATWG encoding index
//   - Excel "sep=" hint lines, as written by Dragon Shield exports
//   - Skipped preamble rows and empty rows
//   - A streaming parser that holds one row in memory at a time
//
// =============================================================================

package csvparser

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrEmptyFile is returned when a file has no header row.
var ErrEmptyFile = errors.New("csv file is empty")

// =============================================================================
// SETTINGS
// =============================================================================

// Settings describes the dialect of a CSV file.
type Settings struct {
	// Delimiter is a single character or one of the aliases "comma",
	// "semicolon", "tab", "pipe". Empty means comma, unless the file starts
	// with a "sep=" line.
	Delimiter string

	// Encoding names the input character set. Empty means UTF-8.
	Encoding string

	// SkipRows is the number of lines to discard before the header row.
	SkipRows int
}

// Comma resolves the delimiter alias.
func (s Settings) Comma() (rune, error) {
	switch strings.ToLower(s.Delimiter) {
	case "", ",", "comma":
		return ',', nil
	case ";", "semicolon":
		return ';', nil
	case "\\t", "\t", "tab":
		return '\t', nil
	case "|", "pipe":
		return '|', nil
	}
	runes := []rune(s.Delimiter)
	if len(runes) != 1 || runes[0] == '"' || runes[0] == '\r' || runes[0] == '\n' {
		return 0, fmt.Errorf("invalid delimiter %q", s.Delimiter)
	}
	return runes[0], nil
}

// Decoder resolves the encoding name.
func (s Settings) Decoder() (*encoding.Decoder, error) {
	switch strings.ToLower(strings.ReplaceAll(s.Encoding, "_", "-")) {
	case "", "utf-8", "utf8":
		return &encoding.Decoder{Transformer: unicode.BOMOverride(unicode.UTF8.NewDecoder())}, nil
	case "utf-16", "utf16":
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder(), nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252.NewDecoder(), nil
	case "iso-8859-1", "latin1", "latin-1":
		return charmap.ISO8859_1.NewDecoder(), nil
	}
	enc, err := htmlindex.Get(s.Encoding)
	if err != nil {
		return nil, fmt.Errorf("unsupported encoding %q: %w", s.Encoding, err)
	}
	return enc.NewDecoder(), nil
}

// =============================================================================
// TABLE
// =============================================================================

// Row is one data row.
type Row struct {
	// Number is the 1-based data row index. Rows of empty cells are skipped
	// but still counted.
	Number int

	// Line is the line of the input the row starts on.
	Line int

	Values []string
}

// Table is a fully read CSV file.
type Table struct {
	Headers []string
	Rows    []Row

	// Source is the file path, or empty for streams.
	Source string

	// Delimiter is the delimiter actually used, after "sep=" detection.
	Delimiter rune
}

// Parse reads a whole CSV stream.
func Parse(r io.Reader, settings Settings) (*Table, error) {
	p, err := NewStreamingParser(r, settings)
	if err != nil {
		return nil, err
	}

	table := &Table{Headers: p.Headers(), Delimiter: p.Delimiter()}
	for p.Next() {
		table.Rows = append(table.Rows, p.Row())
	}
	if err := p.Err(); err != nil {
		return nil, err
	}
	return table, nil
}

// ParseFile reads a whole CSV file.
func ParseFile(path string, settings Settings) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	table, err := Parse(file, settings)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	table.Source = path
	return table, nil
}

// =============================================================================
// STREAMING PARSER
// =============================================================================

// StreamingParser reads a CSV stream one data row at a time.
//
// USAGE:
//
//	parser, err := csvparser.NewStreamingParser(r, settings)
//	if err != nil {
//	    return err
//	}
//	for parser.Next() {
//	    row := parser.Row()
//	}
//	if err := parser.Err(); err != nil {
//	    return err
//	}
type StreamingParser struct {
	reader    *csv.Reader
	closer    io.Closer
	headers   []string
	delimiter rune
	current   Row
	number    int
	err       error
}

// NewStreamingParser decodes r, applies the dialect and reads the header
// row.
func NewStreamingParser(r io.Reader, settings Settings) (*StreamingParser, error) {
	comma, err := settings.Comma()
	if err != nil {
		return nil, err
	}
	decoder, err := settings.Decoder()
	if err != nil {
		return nil, err
	}

	buffered := bufio.NewReader(transform.NewReader(r, decoder))

	for i := 0; i < settings.SkipRows; i++ {
		if _, err := buffered.ReadString('\n'); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, ErrEmptyFile
			}
			return nil, fmt.Errorf("error skipping row %d: %w", i+1, err)
		}
	}

	if settings.Delimiter == "" {
		if sep, ok, err := readSepHint(buffered); err != nil {
			return nil, err
		} else if ok {
			comma = sep
		}
	}

	reader := csv.NewReader(buffered)
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	// Trimming would swallow empty fields in tab-separated files.
	reader.TrimLeadingSpace = comma != '\t'

	p := &StreamingParser{reader: reader, delimiter: comma}
	if err := p.readHeaders(); err != nil {
		return nil, err
	}
	return p, nil
}

// OpenStreamingParser opens path for streaming. Close releases the file.
func OpenStreamingParser(path string, settings Settings) (*StreamingParser, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	p, err := NewStreamingParser(file, settings)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	p.closer = file
	return p, nil
}

// readSepHint consumes a leading "sep=X" line and returns X.
func readSepHint(r *bufio.Reader) (rune, bool, error) {
	peek, err := r.Peek(8)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return 0, false, fmt.Errorf("error reading first line: %w", err)
	}
	trimmed := bytes.TrimPrefix(peek, []byte{'"'})
	if !bytes.HasPrefix(bytes.ToLower(trimmed), []byte("sep=")) {
		return 0, false, nil
	}

	line, err := r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, false, fmt.Errorf("error reading sep line: %w", err)
	}
	line = strings.Trim(strings.TrimSpace(line), `"`)
	sep := []rune(line[len("sep="):])
	if len(sep) != 1 {
		return 0, false, fmt.Errorf("invalid sep line %q", line)
	}
	return sep[0], true, nil
}

func (p *StreamingParser) readHeaders() error {
	for {
		row, err := p.reader.Read()
		if errors.Is(err, io.EOF) {
			return ErrEmptyFile
		}
		if err != nil {
			return fmt.Errorf("error reading header row: %w", err)
		}
		if isRowEmpty(row) {
			continue
		}
		p.headers = cleanHeaders(row)
		return nil
	}
}

// cleanHeaders trims header names. Blank headers get a positional name so
// they can still be reported.
func cleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))
	for i, header := range headers {
		header = strings.TrimSpace(header)
		if header == "" {
			header = fmt.Sprintf("Column_%d", i+1)
		}
		cleaned[i] = header
	}
	return cleaned
}

// Next advances to the next non-empty row. Returns false at the end of the
// stream or on error.
func (p *StreamingParser) Next() bool {
	if p.err != nil {
		return false
	}

	for {
		row, err := p.reader.Read()
		if errors.Is(err, io.EOF) {
			return false
		}
		if err != nil {
			p.err = fmt.Errorf("error reading row %d: %w", p.number+1, err)
			return false
		}

		p.number++
		if isRowEmpty(row) {
			continue
		}

		line, _ := p.reader.FieldPos(0)
		p.current = Row{Number: p.number, Line: line, Values: row}
		return true
	}
}

// Row returns the current row. The Values slice is not reused.
func (p *StreamingParser) Row() Row { return p.current }

// Headers returns the header row.
func (p *StreamingParser) Headers() []string { return p.headers }

// Delimiter returns the delimiter in use.
func (p *StreamingParser) Delimiter() rune { return p.delimiter }

// Err returns the first read error.
func (p *StreamingParser) Err() error { return p.err }

// Close closes the underlying file when the parser owns one.
func (p *StreamingParser) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer.Close()
}

func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
