// =============================================================================
// Deck CSV Converter - XLSX Deck Lists
// =============================================================================
//
// This module reads and writes deck lists kept in Excel workbooks. A
// workbook deck list has the same shape as a CSV export: the header row is
// the first non-empty row of the sheet and every following non-empty row is
// one card. Reading produces a csvparser.Table so the rest of the pipeline
// does not care where the rows came from.
//
// =============================================================================

package xlsxio

import (
	"fmt"
	"io"
	"strings"

	"github.com/ginjaninja78/deck-csv-converter/internal/csvparser"
	"github.com/xuri/excelize/v2"
)

// DefaultSheet is the sheet name used when writing.
const DefaultSheet = "Deck"

// ReadFile reads the deck list from the named sheet of a workbook. An empty
// sheet name selects the first sheet.
func ReadFile(path, sheet string) (*csvparser.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	table, err := readSheet(f, sheet)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	table.Source = path
	return table, nil
}

// Read reads a workbook from a stream.
func Read(r io.Reader, sheet string) (*csvparser.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	return readSheet(f, sheet)
}

func readSheet(f *excelize.File, sheet string) (*csvparser.Table, error) {
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	if sheet == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}

	table := &csvparser.Table{Delimiter: ','}
	number := 0
	for i, row := range rows {
		if isRowEmpty(row) {
			if table.Headers != nil {
				number++
			}
			continue
		}
		if table.Headers == nil {
			table.Headers = cleanHeaders(row)
			continue
		}
		number++
		table.Rows = append(table.Rows, csvparser.Row{Number: number, Line: i + 1, Values: row})
	}
	if table.Headers == nil {
		return nil, csvparser.ErrEmptyFile
	}
	return table, nil
}

// Options controls workbook output.
type Options struct {
	Sheet string

	// BoldHeader styles the header row.
	BoldHeader bool

	// FreezeHeader keeps the header row visible while scrolling.
	FreezeHeader bool
}

// DefaultOptions returns the options used by the CLI.
func DefaultOptions() Options {
	return Options{Sheet: DefaultSheet, BoldHeader: true, FreezeHeader: true}
}

// Write writes a single-sheet workbook to w.
func Write(w io.Writer, headers []string, rows [][]string, opts Options) error {
	f, err := build(headers, rows, opts)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// WriteFile writes a single-sheet workbook to path.
func WriteFile(path string, headers []string, rows [][]string, opts Options) error {
	f, err := build(headers, rows, opts)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func build(headers []string, rows [][]string, opts Options) (*excelize.File, error) {
	sheet := opts.Sheet
	if sheet == "" {
		sheet = DefaultSheet
	}

	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	all := append([][]string{headers}, rows...)
	for i, row := range all {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			f.Close()
			return nil, err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if opts.BoldHeader && len(headers) > 0 {
		style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create header style: %w", err)
		}
		last, _ := excelize.CoordinatesToCellName(len(headers), 1)
		if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to style header: %w", err)
		}
	}

	if opts.FreezeHeader {
		if err := f.SetPanes(sheet, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		}); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to freeze header: %w", err)
		}
	}

	return f, nil
}

// IsWorkbook reports whether path names an Excel workbook.
func IsWorkbook(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".xlsx") || strings.HasSuffix(lower, ".xlsm")
}

func cleanHeaders(row []string) []string {
	headers := make([]string, len(row))
	for i, h := range row {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Column_%d", i+1)
		}
		headers[i] = h
	}
	return headers
}

func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
