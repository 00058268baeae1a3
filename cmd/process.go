// =============================================================================
// Deck CSV Converter - Process Command
// =============================================================================
//
// This file defines the 'process' command, which converts every deck list in
// the input directory to the target vendor's format.
//
// COMMAND USAGE:
//   deckconv process [flags]
//
// FLAGS:
//   --dry-run : Convert without writing outputs, archiving or logs
//   --file    : Process only this file
//   --from    : Force the source vendor instead of detecting it
//   --to      : Target vendor (default: target_vendor from the config)
//   --enrich  : Complete printings through the card catalog
//
// PROCESSING PIPELINE:
//   1. Prepare directories and clean old archives
//   2. Discover deck lists in the input directory
//   3. For each file (concurrently, up to max_concurrency):
//      a. Detect the source vendor from the file name
//      b. Convert the file and write the output
//      c. Write the file's error log
//      d. Archive the input on success
//   4. Write the run summary
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/ginjaninja78/deck-csv-converter/internal/catalog"
	"github.com/ginjaninja78/deck-csv-converter/internal/config"
	"github.com/ginjaninja78/deck-csv-converter/internal/converter"
	"github.com/ginjaninja78/deck-csv-converter/internal/logger"
	"github.com/ginjaninja78/deck-csv-converter/internal/vendor"
	"github.com/ginjaninja78/deck-csv-converter/internal/xlsxio"
	"github.com/ginjaninja78/deck-csv-converter/pkg/utils"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var processFlags struct {
	dryRun bool
	file   string
	from   string
	to     string
	enrich bool
}

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Convert every deck list in the input directory",
	Long: `The process command scans the input directory for CSV and XLSX deck lists,
detects each file's vendor from its name and converts it to the target
vendor's format.

Files are processed concurrently. An error in one file does not affect the
others unless continue_on_error is disabled.

On success:
  - The converted deck list is placed in the output directory
  - The input is moved to the input archive
  - Skipped rows are listed in an error log in the logs directory

On error:
  - An error log is created in the logs directory
  - The input remains in the input directory

A processing summary is written to the logs directory after every run.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		return runProcess(ctx, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(processCmd)

	flags := processCmd.Flags()
	flags.BoolVar(&processFlags.dryRun, "dry-run", false, "Convert without writing outputs, archiving or logs")
	flags.StringVar(&processFlags.file, "file", "", "Process only this file")
	flags.StringVarP(&processFlags.from, "from", "f", "", "Force the source vendor")
	flags.StringVarP(&processFlags.to, "to", "t", "", "Target vendor")
	flags.BoolVar(&processFlags.enrich, "enrich", false, "Complete card printings through the Scryfall catalog")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// batch holds what every file of a run shares.
type batch struct {
	cfg     *config.MainConfig
	fm      *utils.FileManager
	target  vendor.Config
	source  *vendor.Config
	catalog catalog.Catalog
	dryRun  bool
}

func runProcess(ctx context.Context, out io.Writer) error {
	cfg := appConfig
	summary := utils.ProcessingSummary{
		RunID:     uuid.New().String(),
		StartTime: time.Now(),
	}
	log := logger.GetDefault().With("run_id", summary.RunID)
	ctx = logger.ContextWithLogger(ctx, log)

	// =========================================================================
	// STEP 1: PREPARE
	// =========================================================================

	b := &batch{cfg: cfg, dryRun: processFlags.dryRun}

	targetName := processFlags.to
	if targetName == "" {
		targetName = cfg.TargetVendor
	}
	target, err := registry.Lookup(targetName)
	if err != nil {
		return err
	}
	b.target = target
	summary.TargetVendor = target.Name

	sourceName := processFlags.from
	if sourceName == "" {
		sourceName = cfg.SourceVendor
	}
	if sourceName != "" {
		source, err := registry.Lookup(sourceName)
		if err != nil {
			return err
		}
		b.source = &source
	}

	if processFlags.enrich || cfg.Catalog.Enabled {
		if b.catalog, err = newCatalog(cfg.Catalog); err != nil {
			return fmt.Errorf("failed to set up catalog: %w", err)
		}
	}

	b.fm = utils.NewFileManager(cfg.InputDir, cfg.OutputDir, cfg.InputArchiveDir, cfg.LogsDir)
	b.fm.ArchiveOnSuccess = cfg.ArchiveInputs
	b.fm.UseTimestampSubdirs = cfg.ArchiveByDate
	if !b.dryRun {
		if err := b.fm.EnsureDirectories(); err != nil {
			return err
		}
		if cfg.ArchiveRetention > 0 {
			removed, err := utils.CleanOldArchives(cfg.InputArchiveDir, cfg.ArchiveRetention)
			if err != nil {
				log.Warn("Failed to clean old archives", "error", err)
			} else if removed > 0 {
				log.Info("Removed old archived inputs", "count", removed)
			}
		}
	}

	// =========================================================================
	// STEP 2: DISCOVER INPUT FILES
	// =========================================================================

	var files []string
	if processFlags.file != "" {
		files = []string{processFlags.file}
	} else {
		if files, err = b.fm.DiscoverInputFiles(); err != nil {
			return err
		}
	}
	if len(files) == 0 {
		fmt.Fprintln(out, "No deck lists found in the input directory.")
		return nil
	}
	log.Info("Processing files", "count", len(files), "target", target.Name, "dry_run", b.dryRun)

	// =========================================================================
	// STEP 3: PROCESS FILES CONCURRENTLY
	// =========================================================================

	results := make([]fileOutcome, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.MaxConcurrency)
	for i, path := range files {
		g.Go(func() error {
			result := b.processFile(gctx, path)
			results[i] = result
			if !result.Success && !cfg.ContinueOnError {
				return fmt.Errorf("%s: %w", filepath.Base(path), result.Error)
			}
			return nil
		})
	}
	runErr := g.Wait()

	// =========================================================================
	// STEP 4: SUMMARY
	// =========================================================================

	for _, result := range results {
		if result.FilePath == "" {
			// Not started after an earlier failure.
			continue
		}
		summary.TotalFiles++
		summary.TotalRows += result.Stats.RowsRead
		summary.CardsWritten += result.Stats.CardsWritten
		summary.RowsSkipped += result.Stats.RowsSkipped
		summary.CardsEnriched += result.Stats.CardsEnriched
		summary.Warnings += result.Stats.Warnings

		if result.Success {
			summary.SuccessfulFiles++
			summary.ProcessedFiles = append(summary.ProcessedFiles, utils.ProcessedFileInfo{
				InputFile:    result.FilePath,
				SourceVendor: result.SourceVendor,
				OutputFile:   result.OutputFile,
				ArchivePath:  result.ArchivePath,
				ErrorLog:     result.ErrorLog,
				Rows:         result.Stats.RowsRead,
				Cards:        result.Stats.CardsWritten,
				Skipped:      result.Stats.RowsSkipped,
				ProcessTime:  result.Stats.ProcessingTime,
			})
			fmt.Fprintf(out, "  %s %s -> %s (%d cards)\n",
				okMark("✓"), filepath.Base(result.FilePath), result.displayOutput(), result.Stats.CardsWritten)
		} else {
			summary.FailedFiles++
			summary.FailedFilesList = append(summary.FailedFilesList, utils.FailedFileInfo{
				InputFile:    result.FilePath,
				ErrorMessage: result.Error.Error(),
				ErrorType:    errorType(result.Error),
			})
			fmt.Fprintf(out, "  %s %s: %v\n", failMark("✗"), filepath.Base(result.FilePath), result.Error)
		}
	}
	summary.EndTime = time.Now()

	printSummary(out, summary)

	if !b.dryRun {
		path, err := utils.WriteSummaryLog(summary, cfg.LogsDir)
		if err != nil {
			log.Warn("Failed to write summary log", "error", err)
		} else {
			fmt.Fprintf(out, "Summary written to %s\n", path)
		}
	}

	if runErr != nil {
		return runErr
	}
	if summary.FailedFiles > 0 {
		return fmt.Errorf("%d of %d file(s) failed", summary.FailedFiles, summary.TotalFiles)
	}
	return nil
}

// =============================================================================
// PER-FILE PROCESSING
// =============================================================================

// fileOutcome is a conversion result plus what the batch did with the file
// afterwards.
type fileOutcome struct {
	converter.Result
	ArchivePath string
	ErrorLog    string
}

func (o fileOutcome) displayOutput() string {
	if o.OutputFile == "" {
		return "(dry run)"
	}
	return o.OutputFile
}

func (b *batch) processFile(ctx context.Context, path string) fileOutcome {
	log := logger.FromContext(ctx).With("file", filepath.Base(path))

	var result fileOutcome
	source, err := b.detectSource(path)
	if err == nil {
		var conv *converter.Converter
		if conv, err = newConverter(source, b.target, b.catalog, b.cfg.ErrorPolicy); err == nil {
			if b.dryRun {
				result.Result = dryRun(ctx, conv, path)
			} else {
				result.Result = conv.ProcessFile(ctx, path, b.fileOptions())
			}
		}
	}
	if err != nil {
		result.Result = converter.Result{FilePath: path, Error: err}
	}
	if b.dryRun {
		return result
	}

	if entries := errorLogEntries(result.Result); len(entries) > 0 {
		logPath, err := utils.WriteErrorLog(entries, b.cfg.LogsDir, path)
		if err != nil {
			log.Warn("Failed to write error log", "error", err)
		} else {
			result.ErrorLog = logPath
			log.Info("Wrote error log", "path", logPath, "entries", len(entries))
		}
	}

	if result.Success && b.cfg.ArchiveInputs {
		archived, err := b.fm.ArchiveInputFile(path)
		if err != nil {
			log.Warn("Failed to archive input", "error", err)
		} else {
			result.ArchivePath = archived
		}
	}
	return result
}

// detectSource returns the forced source vendor or matches the file name.
func (b *batch) detectSource(path string) (vendor.Config, error) {
	if b.source != nil {
		return *b.source, nil
	}
	if cfg, ok := registry.Match(path); ok {
		return cfg, nil
	}
	return vendor.Config{}, fmt.Errorf("no vendor file pattern matches %s (use --from or source_vendor)", filepath.Base(path))
}

func (b *batch) fileOptions() converter.FileOptions {
	xlsxOpts := xlsxio.DefaultOptions()
	xlsxOpts.Sheet = b.cfg.Output.Sheet
	return converter.FileOptions{
		OutputDir:  b.cfg.OutputDir,
		NameFormat: b.cfg.UUIDFormat,
		Format:     b.cfg.Output.Format,
		CSV:        converter.TargetOptions(b.target, b.cfg.Output),
		XLSX:       xlsxOpts,
	}
}

// dryRun converts path without writing anything.
func dryRun(ctx context.Context, conv *converter.Converter, path string) converter.Result {
	result := converter.Result{
		RunID:        uuid.New().String(),
		FilePath:     path,
		SourceVendor: conv.Source().Name,
		TargetVendor: conv.Target().Name,
	}
	table, err := converter.LoadTable(path, conv.Source())
	if err != nil {
		result.Error = err
		return result
	}
	_, report, err := conv.Convert(ctx, table)
	if report != nil {
		result.Report = *report
	}
	result.Error = err
	result.Success = err == nil
	return result
}
