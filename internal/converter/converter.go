// =============================================================================
// Deck CSV Converter - Converter Module
// =============================================================================
//
// This module contains the core conversion logic. It converts one deck list
// from the source vendor's format to the target vendor's format.
//
// CONVERSION PIPELINE (per row):
//   1. Read the row through the source vendor's column mapping
//   2. Validate the card record
//   3. Enrich the printing through the card catalog (optional)
//   4. Format the record through the target vendor's column mapping
//
// ERROR POLICY:
//   A row that fails any step is a RowError. Under the "skip" policy the row
//   is dropped and recorded; under "abort" the whole file fails. A missing
//   required column always fails the file.
//
// CONCURRENCY:
//   A Converter holds no per-file state and can convert several files at
//   once. The catalog implementation must be safe for concurrent use.
//
// =============================================================================

package converter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ginjaninja78/deck-csv-converter/internal/card"
	"github.com/ginjaninja78/deck-csv-converter/internal/catalog"
	"github.com/ginjaninja78/deck-csv-converter/internal/config"
	"github.com/ginjaninja78/deck-csv-converter/internal/csvparser"
	"github.com/ginjaninja78/deck-csv-converter/internal/csvwriter"
	"github.com/ginjaninja78/deck-csv-converter/internal/logger"
	"github.com/ginjaninja78/deck-csv-converter/internal/mapping"
	"github.com/ginjaninja78/deck-csv-converter/internal/types"
	"github.com/ginjaninja78/deck-csv-converter/internal/validation"
	"github.com/ginjaninja78/deck-csv-converter/internal/vendor"
	"github.com/ginjaninja78/deck-csv-converter/internal/xlsxio"
	"github.com/ginjaninja78/deck-csv-converter/pkg/utils"
	"github.com/google/uuid"
)

// Pipeline stages reported by RowError.
const (
	StageRead     = "read"
	StageValidate = "validate"
	StageEnrich   = "enrich"
	StageWrite    = "write"
)

// =============================================================================
// RESULT STRUCTURES
// =============================================================================

// RowError is a data row that could not be converted.
type RowError struct {
	// Row is the 1-based data row index.
	Row int

	// Line is the input line (CSV) or sheet row (XLSX) of the row.
	Line int

	// Stage is the pipeline step that failed.
	Stage string

	Err error
}

// Error implements the error interface.
func (e *RowError) Error() string {
	return fmt.Sprintf("%s failed at row %d: %v", e.Stage, e.Row, e.Err)
}

// Unwrap returns the underlying error.
func (e *RowError) Unwrap() error {
	return e.Err
}

// ProcessingStats contains statistics about one conversion.
type ProcessingStats struct {
	// RowsRead is the number of data rows seen.
	RowsRead int

	// CardsWritten is the number of rows emitted to the output.
	CardsWritten int

	// RowsSkipped is the number of rows dropped under the skip policy.
	RowsSkipped int

	// CardsEnriched is the number of records changed by a catalog lookup.
	CardsEnriched int

	// Warnings is the number of non-fatal validation problems.
	Warnings int

	ProcessingTime time.Duration
}

// Report is the outcome of converting one deck list.
type Report struct {
	Stats     ProcessingStats
	RowErrors []*RowError
	Warnings  []*validation.ValidationError

	// MissingColumns lists the source vendor's optional headers that the
	// input does not have.
	MissingColumns []string
}

// Output is a converted deck list.
type Output struct {
	Headers []string
	Rows    [][]string
}

// Result represents the outcome of processing a single file.
type Result struct {
	// RunID identifies the conversion in logs.
	RunID string

	// FilePath is the path to the input file that was processed.
	FilePath string

	// OutputFile is the path to the written file. Empty if processing failed.
	OutputFile string

	SourceVendor string
	TargetVendor string

	Success bool

	// Error contains the error if processing failed.
	Error error

	Report
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Options configures a Converter.
type Options struct {
	Source vendor.Config
	Target vendor.Config

	// Catalog enriches records. Nil disables enrichment.
	Catalog catalog.Catalog

	// ErrorPolicy is config.PolicySkip or config.PolicyAbort.
	// Default: config.PolicySkip
	ErrorPolicy string

	// Validator checks every record. Nil disables record checks.
	Validator *validation.Validator

	// Logger defaults to the package-level logger.
	Logger logger.Logger
}

// Converter converts deck lists between two vendor formats.
type Converter struct {
	source    *mapping.Mapping
	target    *mapping.Mapping
	catalog   catalog.Catalog
	policy    string
	validator *validation.Validator
	log       logger.Logger
}

// =============================================================================
// CONSTRUCTOR
// =============================================================================

// New creates a new Converter instance.
//
// PARAMETERS:
//   - opts: The source and target vendors and the optional collaborators.
//
// RETURNS:
//   - A new Converter, or an error for an unknown error policy.
func New(opts Options) (*Converter, error) {
	policy := strings.ToLower(opts.ErrorPolicy)
	switch policy {
	case "":
		policy = config.PolicySkip
	case config.PolicySkip, config.PolicyAbort:
	default:
		return nil, fmt.Errorf("unknown error policy %q", opts.ErrorPolicy)
	}

	log := opts.Logger
	if log == nil {
		log = logger.GetDefault()
	}

	return &Converter{
		source:    mapping.New(opts.Source),
		target:    mapping.New(opts.Target),
		catalog:   opts.Catalog,
		policy:    policy,
		validator: opts.Validator,
		log:       log.With("from", opts.Source.Name, "to", opts.Target.Name),
	}, nil
}

// Source returns the source vendor.
func (c *Converter) Source() vendor.Config { return c.source.Vendor() }

// Target returns the target vendor.
func (c *Converter) Target() vendor.Config { return c.target.Vendor() }

// =============================================================================
// CONVERSION
// =============================================================================

// Convert converts a fully read deck list. The report is returned even when
// the conversion fails.
func (c *Converter) Convert(ctx context.Context, table *csvparser.Table) (*Output, *Report, error) {
	out := &Output{Headers: c.target.Headers()}
	i := 0
	next := func() (csvparser.Row, bool, error) {
		if i >= len(table.Rows) {
			return csvparser.Row{}, false, nil
		}
		i++
		return table.Rows[i-1], true, nil
	}
	emit := func(values []string) error {
		out.Rows = append(out.Rows, values)
		return nil
	}

	report, err := c.run(ctx, table.Headers, next, emit)
	if err != nil {
		return nil, report, err
	}
	return out, report, nil
}

// Stream converts row by row from p to w. The header row is written before
// the first data row is read.
func (c *Converter) Stream(ctx context.Context, p *csvparser.StreamingParser, w *csvwriter.Writer) (*Report, error) {
	if err := w.WriteHeader(c.target.Headers()); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	next := func() (csvparser.Row, bool, error) {
		if p.Next() {
			return p.Row(), true, nil
		}
		return csvparser.Row{}, false, p.Err()
	}

	report, err := c.run(ctx, p.Headers(), next, w.WriteRow)
	if err != nil {
		return report, err
	}
	if err := w.Close(); err != nil {
		return report, fmt.Errorf("failed to flush output: %w", err)
	}
	return report, nil
}

func (c *Converter) run(
	ctx context.Context,
	headers []string,
	next func() (csvparser.Row, bool, error),
	emit func([]string) error,
) (*Report, error) {
	start := time.Now()
	report := &Report{}
	defer func() { report.Stats.ProcessingTime = time.Since(start) }()

	reader, err := c.source.Open(headers)
	if err != nil {
		return report, fmt.Errorf("input is not a %s deck list: %w", c.Source().Name, err)
	}
	report.MissingColumns = reader.Missing()
	if len(report.MissingColumns) > 0 {
		c.log.Debug("Optional columns not present in input", "columns", report.MissingColumns)
	}

	for {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		row, ok, err := next()
		if err != nil {
			return report, fmt.Errorf("failed to read input: %w", err)
		}
		if !ok {
			break
		}
		report.Stats.RowsRead++

		values, rowErr := c.convertRow(ctx, reader, row, report)
		if rowErr != nil {
			if errors.Is(rowErr.Err, context.Canceled) || errors.Is(rowErr.Err, context.DeadlineExceeded) {
				return report, rowErr.Err
			}
			report.RowErrors = append(report.RowErrors, rowErr)
			if c.policy == config.PolicyAbort {
				return report, rowErr
			}
			report.Stats.RowsSkipped++
			c.log.Warn("Skipping row", "row", row.Number, "line", row.Line, "stage", rowErr.Stage, "error", rowErr.Err)
			continue
		}

		if err := emit(values); err != nil {
			return report, fmt.Errorf("failed to write row %d: %w", row.Number, err)
		}
		report.Stats.CardsWritten++
	}

	c.log.Debug("Conversion complete",
		"rows", report.Stats.RowsRead,
		"written", report.Stats.CardsWritten,
		"skipped", report.Stats.RowsSkipped,
		"enriched", report.Stats.CardsEnriched)
	return report, nil
}

// convertRow runs one row through the pipeline.
func (c *Converter) convertRow(ctx context.Context, reader *mapping.RowReader, row csvparser.Row, report *Report) ([]string, *RowError) {
	fail := func(stage string, err error) *RowError {
		return &RowError{Row: row.Number, Line: row.Line, Stage: stage, Err: err}
	}

	// =========================================================================
	// STEP 1: READ
	// =========================================================================

	physical, err := reader.Read(row.Number, row.Values)
	if err != nil {
		return nil, fail(StageRead, err)
	}

	// =========================================================================
	// STEP 2: VALIDATE
	// =========================================================================

	if c.validator != nil {
		for _, problem := range c.validator.ValidateCard(row.Number, physical) {
			if problem.IsFatal() || c.validator.Options().TreatWarningsAsErrors {
				return nil, fail(StageValidate, problem)
			}
			report.Warnings = append(report.Warnings, problem)
			report.Stats.Warnings++
		}
	}

	// =========================================================================
	// STEP 3: ENRICH
	// =========================================================================

	if c.catalog != nil {
		enriched, changed, err := c.enrich(ctx, physical)
		if err != nil {
			return nil, fail(StageEnrich, types.Locate(err, row.Number, c.Source().CardName.Header))
		}
		if changed {
			report.Stats.CardsEnriched++
		}
		physical = enriched
	}

	// =========================================================================
	// STEP 4: FORMAT
	// =========================================================================

	values, err := c.target.Format(physical)
	if err != nil {
		return nil, fail(StageWrite, types.Locate(err, row.Number, ""))
	}
	return values, nil
}

// =============================================================================
// CATALOG ENRICHMENT
// =============================================================================

// needsEnrichment reports whether the record lacks printing details the
// target vendor exports, or carries a name the source may have shortened.
func (c *Converter) needsEnrichment(p card.Printing) bool {
	target := c.Target()
	switch {
	case c.Source().CardName.ShortNames:
		return true
	case target.SetName.IsSet() && p.SetName == "":
		return true
	case target.SetCode.IsSet() && p.SetCode == "":
		return true
	case target.CollectorNumber.IsSet() && p.CollectorNumber == "":
		return true
	}
	return false
}

// enrich resolves the record's printing through the catalog. A known set
// code and collector number select the exact printing; otherwise the card
// is looked up by name. Values read from the input are never replaced,
// except the name, which takes the catalog's canonical spelling.
func (c *Converter) enrich(ctx context.Context, physical card.Physical) (card.Physical, bool, error) {
	current := physical.Printing
	if !c.needsEnrichment(current) {
		return physical, false, nil
	}

	var found card.Printing
	var err error
	if current.SetCode != "" && current.CollectorNumber != "" {
		found, err = c.catalog.LookupPrinting(ctx, current.SetCode, current.CollectorNumber)
		if types.KindOf(err) == types.KindNotFound {
			c.log.Debug("Printing not in catalog, looking up by name",
				"set", current.SetCode, "number", current.CollectorNumber, "name", current.Name)
			found, err = c.catalog.Lookup(ctx, current.Name)
		}
	} else {
		found, err = c.catalog.Lookup(ctx, current.Name)
	}
	if err != nil {
		return physical, false, err
	}

	// Printing details of another set would contradict the input.
	samePrinting := current.SetCode == "" || strings.EqualFold(current.SetCode, found.SetCode)
	pick := func(have, catalogValue string) string {
		if have == "" && samePrinting {
			return catalogValue
		}
		return have
	}

	enriched := card.NewPrinting(
		found.Name,
		pick(current.SetName, found.SetName),
		pick(current.SetCode, found.SetCode),
		pick(current.CollectorNumber, found.CollectorNumber),
	)
	if enriched == current {
		return physical, false, nil
	}
	physical.Printing = enriched
	return physical, true, nil
}

// =============================================================================
// FILE PROCESSING
// =============================================================================

// FileOptions describes where and how ProcessFile writes its output.
type FileOptions struct {
	// OutputDir receives the converted file.
	OutputDir string

	// NameFormat is the output file name format, see
	// utils.GenerateOutputFileName.
	NameFormat string

	// Format is config.FormatCSV or config.FormatXLSX.
	Format string

	CSV  csvwriter.Options
	XLSX xlsxio.Options
}

// ProcessFile reads path in the source format, converts it and writes the
// result to the output directory.
func (c *Converter) ProcessFile(ctx context.Context, path string, opts FileOptions) Result {
	result := Result{
		RunID:        uuid.New().String(),
		FilePath:     path,
		SourceVendor: c.Source().Name,
		TargetVendor: c.Target().Name,
	}
	log := c.log.With("file", filepath.Base(path), "run_id", result.RunID)
	log.Info("Processing file")

	table, err := LoadTable(path, c.Source())
	if err != nil {
		result.Error = err
		return result
	}

	out, report, err := c.Convert(ctx, table)
	if report != nil {
		result.Report = *report
	}
	if err != nil {
		result.Error = err
		return result
	}

	format := strings.ToLower(opts.Format)
	if format == "" {
		format = config.FormatCSV
	}
	source := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	name := utils.GenerateOutputFileName(opts.NameFormat, map[string]string{
		"vendor": c.Target().Name,
		"source": source,
	}, "."+format)
	outputPath := filepath.Join(opts.OutputDir, name)

	if err := WriteOutput(outputPath, format, out, opts); err != nil {
		result.Error = err
		return result
	}

	result.OutputFile = outputPath
	result.Success = true
	log.Info("Wrote output",
		"output", outputPath,
		"cards", result.Stats.CardsWritten,
		"skipped", result.Stats.RowsSkipped)
	return result
}

// LoadTable reads a deck list from a CSV file in the vendor's dialect or
// from the first sheet of an XLSX workbook.
func LoadTable(path string, source vendor.Config) (*csvparser.Table, error) {
	if xlsxio.IsWorkbook(path) {
		table, err := xlsxio.ReadFile(path, "")
		if err != nil {
			return nil, fmt.Errorf("failed to read workbook: %w", err)
		}
		return table, nil
	}
	table, err := csvparser.ParseFile(path, SourceSettings(source))
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	return table, nil
}

// WriteOutput writes out to path as CSV or XLSX. A partially written file
// is removed.
func WriteOutput(path, format string, out *Output, opts FileOptions) (err error) {
	if format == config.FormatXLSX {
		if err := xlsxio.WriteFile(path, out.Headers, out.Rows, opts.XLSX); err != nil {
			return fmt.Errorf("failed to write workbook: %w", err)
		}
		return nil
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to close output file: %w", cerr)
		}
		if err != nil {
			os.Remove(path)
		}
	}()

	return WriteCSV(file, out, opts.CSV)
}

// WriteCSV writes out as CSV to w.
func WriteCSV(w io.Writer, out *Output, opts csvwriter.Options) error {
	if err := csvwriter.Write(w, out.Headers, out.Rows, opts); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return nil
}

// =============================================================================
// DIALECT HELPERS
// =============================================================================

// SourceSettings returns the CSV reader settings of a vendor.
func SourceSettings(v vendor.Config) csvparser.Settings {
	return csvparser.Settings{Delimiter: v.Delimiter, Encoding: v.Encoding}
}

// TargetOptions returns the CSV writer options for a vendor, with the
// configured output settings taking precedence.
func TargetOptions(v vendor.Config, settings config.OutputSettings) csvwriter.Options {
	opts := csvwriter.DefaultOptions()
	if v.Delimiter != "" {
		opts.Delimiter = v.Delimiter
	}
	if v.Encoding != "" {
		opts.Encoding = v.Encoding
	}
	if settings.Delimiter != "" {
		opts.Delimiter = settings.Delimiter
	}
	if settings.Encoding != "" {
		opts.Encoding = settings.Encoding
	}
	opts.CRLF = settings.CRLF
	opts.SepHint = settings.SepHint
	return opts
}
