package cmd

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/ginjaninja78/deck-csv-converter/internal/catalog"
	"github.com/ginjaninja78/deck-csv-converter/internal/config"
	"github.com/ginjaninja78/deck-csv-converter/internal/converter"
	"github.com/ginjaninja78/deck-csv-converter/internal/logger"
	"github.com/ginjaninja78/deck-csv-converter/internal/types"
	"github.com/ginjaninja78/deck-csv-converter/internal/validation"
	"github.com/ginjaninja78/deck-csv-converter/internal/vendor"
	"github.com/ginjaninja78/deck-csv-converter/pkg/utils"
)

// =============================================================================
// CONVERTER SETUP
// =============================================================================

// newCatalog builds the cached Scryfall client from the catalog settings.
func newCatalog(settings config.CatalogSettings) (catalog.Catalog, error) {
	clientCfg := catalog.DefaultClientConfig()
	if settings.BaseURL != "" {
		clientCfg.BaseURL = settings.BaseURL
	}
	if settings.UserAgent != "" {
		clientCfg.UserAgent = settings.UserAgent
	}
	clientCfg.Timeout = settings.Timeout
	clientCfg.MinInterval = settings.MinInterval
	clientCfg.RetryCount = settings.RetryCount
	clientCfg.Fuzzy = !settings.ExactOnly

	cache, err := catalog.NewCache(catalog.NewScryfallClient(clientCfg), settings.CacheSize)
	if err != nil {
		return nil, err
	}
	return cache, nil
}

// newValidator builds the record validator from the validation settings.
func newValidator(settings config.ValidationSettings) *validation.Validator {
	options := validation.DefaultValidationOptions()
	options.MaxQuantity = settings.MaxQuantity
	options.TreatWarningsAsErrors = settings.WarningsAsErrors
	if settings.SkipLanguageChecks {
		options.KnownLanguages = nil
	}
	return validation.NewValidatorWithOptions(options)
}

// newConverter wires a converter for one source/target pair. cat may be nil.
func newConverter(source, target vendor.Config, cat catalog.Catalog, policy string) (*converter.Converter, error) {
	return converter.New(converter.Options{
		Source:      source,
		Target:      target,
		Catalog:     cat,
		ErrorPolicy: policy,
		Validator:   newValidator(appConfig.Validation),
		Logger:      logger.GetDefault(),
	})
}

// =============================================================================
// ERROR LOG ENTRIES
// =============================================================================

// errorLogEntries turns a conversion result into error log entries.
func errorLogEntries(result converter.Result) []utils.ErrorLogEntry {
	now := time.Now()
	name := filepath.Base(result.FilePath)

	var entries []utils.ErrorLogEntry
	for _, rowErr := range result.RowErrors {
		entry := utils.ErrorLogEntry{
			Timestamp:    now,
			FileName:     name,
			ErrorType:    errorType(rowErr.Err),
			ErrorMessage: rowErr.Err.Error(),
			Stage:        rowErr.Stage,
			RowNumber:    rowErr.Row,
			LineNumber:   rowErr.Line,
		}

		var ce *types.ConversionError
		var ve *validation.ValidationError
		switch {
		case errors.As(rowErr.Err, &ce):
			entry.FieldName = ce.Header
			entry.FieldValue = ce.Value
		case errors.As(rowErr.Err, &ve):
			entry.FieldName = ve.Field
			entry.FieldValue = ve.Value
		}
		entries = append(entries, entry)
	}

	for _, warning := range result.Warnings {
		entries = append(entries, utils.ErrorLogEntry{
			Timestamp:    now,
			FileName:     name,
			ErrorType:    "warning",
			ErrorMessage: warning.Message,
			Stage:        converter.StageValidate,
			RowNumber:    warning.RowNumber,
			FieldName:    warning.Field,
			FieldValue:   warning.Value,
		})
	}

	var rowErr *converter.RowError
	if result.Error != nil && !errors.As(result.Error, &rowErr) {
		entries = append(entries, utils.ErrorLogEntry{
			Timestamp:    now,
			FileName:     name,
			ErrorType:    errorType(result.Error),
			ErrorMessage: result.Error.Error(),
		})
	}
	return entries
}

func errorType(err error) string {
	var ve *validation.ValidationError
	if errors.As(err, &ve) {
		return "validation"
	}
	if kind := types.KindOf(err); kind != 0 {
		return kind.String()
	}
	return "error"
}

// =============================================================================
// OUTPUT
// =============================================================================

var (
	okMark   = color.New(color.FgGreen).SprintFunc()
	failMark = color.New(color.FgRed).SprintFunc()
	warnMark = color.New(color.FgYellow).SprintFunc()
	heading  = color.New(color.Bold).SprintFunc()
)

// printReport writes the statistics of one conversion.
func printReport(w io.Writer, report *converter.Report) {
	stats := report.Stats
	fmt.Fprintf(w, "%s %d of %d rows converted", okMark("✓"), stats.CardsWritten, stats.RowsRead)
	if stats.CardsEnriched > 0 {
		fmt.Fprintf(w, ", %d enriched", stats.CardsEnriched)
	}
	fmt.Fprintf(w, " in %s\n", stats.ProcessingTime.Round(time.Millisecond))

	if stats.RowsSkipped > 0 {
		fmt.Fprintf(w, "%s %d row(s) skipped\n", failMark("✗"), stats.RowsSkipped)
		for _, rowErr := range report.RowErrors {
			fmt.Fprintf(w, "    line %d: %v\n", rowErr.Line, rowErr.Err)
		}
	}
	for _, warning := range report.Warnings {
		fmt.Fprintf(w, "%s %s\n", warnMark("!"), warning.Error())
	}
}

// printSummary writes the totals of a batch run.
func printSummary(w io.Writer, summary utils.ProcessingSummary) {
	fmt.Fprintf(w, "\n%s\n", heading("=== Processing Complete ==="))
	fmt.Fprintf(w, "Target vendor:   %s\n", summary.TargetVendor)
	fmt.Fprintf(w, "Total files:     %d\n", summary.TotalFiles)
	fmt.Fprintf(w, "Successful:      %s\n", okMark(summary.SuccessfulFiles))
	if summary.FailedFiles > 0 {
		fmt.Fprintf(w, "Failed:          %s\n", failMark(summary.FailedFiles))
	} else {
		fmt.Fprintf(w, "Failed:          0\n")
	}
	fmt.Fprintf(w, "Cards written:   %d of %d rows\n", summary.CardsWritten, summary.TotalRows)
	if summary.RowsSkipped > 0 {
		fmt.Fprintf(w, "Rows skipped:    %s\n", warnMark(summary.RowsSkipped))
	}
	if summary.CardsEnriched > 0 {
		fmt.Fprintf(w, "Cards enriched:  %d\n", summary.CardsEnriched)
	}
	if summary.Warnings > 0 {
		fmt.Fprintf(w, "Warnings:        %s\n", warnMark(summary.Warnings))
	}
	fmt.Fprintf(w, "Time elapsed:    %s\n", summary.EndTime.Sub(summary.StartTime).Round(time.Millisecond))
}
