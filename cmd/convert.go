// =============================================================================
// Deck CSV Converter - Convert Command
// =============================================================================
//
// This file defines the 'convert' command, which converts a single deck list.
//
// COMMAND USAGE:
//   deckconv convert --to manabox -i moxfield_deck.csv -o deck.csv
//   cat deck.csv | deckconv convert --from moxfield --to deckbox > out.csv
//
// FLAGS:
//   --from, -f   : Source vendor (detected from the input file name if omitted)
//   --to, -t     : Target vendor (default: target_vendor from the config)
//   --input, -i  : Input file, "-" for stdin
//   --output, -o : Output file, "-" for stdout
//   --format     : Output format, csv or xlsx (default: from the output extension)
//   --enrich     : Complete printings through the card catalog
//   --on-error   : skip or abort (default: error_policy from the config)
//
// CSV to CSV conversions stream row by row. Workbook input or output reads
// the whole deck list first.
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ginjaninja78/deck-csv-converter/internal/catalog"
	"github.com/ginjaninja78/deck-csv-converter/internal/config"
	"github.com/ginjaninja78/deck-csv-converter/internal/converter"
	"github.com/ginjaninja78/deck-csv-converter/internal/csvparser"
	"github.com/ginjaninja78/deck-csv-converter/internal/csvwriter"
	"github.com/ginjaninja78/deck-csv-converter/internal/logger"
	"github.com/ginjaninja78/deck-csv-converter/internal/vendor"
	"github.com/ginjaninja78/deck-csv-converter/internal/xlsxio"
	"github.com/spf13/cobra"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var convertFlags struct {
	from     string
	to       string
	input    string
	output   string
	format   string
	sheet    string
	enrich   bool
	onError  string
	noReport bool
}

// =============================================================================
// CONVERT COMMAND DEFINITION
// =============================================================================

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert one deck list to another vendor's format",
	Long: `The convert command reads a deck list in the source vendor's format and
writes it in the target vendor's format.

The source vendor is detected from the input file name through each vendor's
file patterns when --from is not given. Rows that cannot be converted are
skipped and reported on stderr, or stop the conversion with --on-error abort.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConvert(cmd.Context(), cmd.ErrOrStderr())
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)

	flags := convertCmd.Flags()
	flags.StringVarP(&convertFlags.from, "from", "f", "", "Source vendor")
	flags.StringVarP(&convertFlags.to, "to", "t", "", "Target vendor")
	flags.StringVarP(&convertFlags.input, "input", "i", "-", `Input file ("-" for stdin)`)
	flags.StringVarP(&convertFlags.output, "output", "o", "-", `Output file ("-" for stdout)`)
	flags.StringVar(&convertFlags.format, "format", "", "Output format: csv or xlsx")
	flags.StringVar(&convertFlags.sheet, "sheet", "", "Worksheet to read from a workbook input (default: first)")
	flags.BoolVar(&convertFlags.enrich, "enrich", false, "Complete card printings through the Scryfall catalog")
	flags.StringVar(&convertFlags.onError, "on-error", "", "Row error policy: skip or abort")
	flags.BoolVarP(&convertFlags.noReport, "quiet", "q", false, "Do not print the conversion report")
}

// =============================================================================
// CONVERSION
// =============================================================================

func runConvert(ctx context.Context, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	opts := convertFlags
	stdin := opts.input == "" || opts.input == "-"
	stdout := opts.output == "" || opts.output == "-"

	source, err := resolveSource(opts.from, opts.input, stdin)
	if err != nil {
		return err
	}
	targetName := opts.to
	if targetName == "" {
		targetName = appConfig.TargetVendor
	}
	target, err := registry.Lookup(targetName)
	if err != nil {
		return err
	}

	format := strings.ToLower(opts.format)
	if format == "" {
		format = config.FormatCSV
		if !stdout && xlsxio.IsWorkbook(opts.output) {
			format = config.FormatXLSX
		}
	}
	if format != config.FormatCSV && format != config.FormatXLSX {
		return fmt.Errorf("unknown output format %q (expected csv or xlsx)", opts.format)
	}

	policy := opts.onError
	if policy == "" {
		policy = appConfig.ErrorPolicy
	}

	var cat catalog.Catalog
	if opts.enrich || appConfig.Catalog.Enabled {
		if cat, err = newCatalog(appConfig.Catalog); err != nil {
			return fmt.Errorf("failed to set up catalog: %w", err)
		}
	}

	conv, err := newConverter(source, target, cat, policy)
	if err != nil {
		return err
	}
	ctx = logger.ContextWithLogger(ctx, logger.GetDefault())
	logger.Debug("Converting", "from", source.Name, "to", target.Name, "input", opts.input, "output", opts.output)

	// =========================================================================
	// OPEN INPUT AND OUTPUT
	// =========================================================================

	var in io.Reader = os.Stdin
	if !stdin {
		file, err := os.Open(opts.input)
		if err != nil {
			return fmt.Errorf("failed to open input: %w", err)
		}
		defer file.Close()
		in = file
	}

	var out io.Writer = os.Stdout
	if !stdout {
		file, err := os.Create(opts.output)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer file.Close()
		out = file
	}

	// =========================================================================
	// CONVERT
	// =========================================================================

	workbookIn := !stdin && xlsxio.IsWorkbook(opts.input)
	var report *converter.Report
	if !workbookIn && format == config.FormatCSV {
		report, err = streamCSV(ctx, conv, in, out)
	} else {
		report, err = convertTable(ctx, conv, in, out, workbookIn, format)
	}

	if report != nil && !opts.noReport {
		printReport(stderr, report)
	}
	if err != nil {
		if !stdout {
			os.Remove(opts.output)
		}
		return err
	}
	return nil
}

// resolveSource picks the source vendor from --from or the input file name.
func resolveSource(name, input string, stdin bool) (vendor.Config, error) {
	if name == "" {
		name = appConfig.SourceVendor
	}
	if name != "" {
		return registry.Lookup(name)
	}
	if stdin {
		return vendor.Config{}, fmt.Errorf("--from is required when reading from stdin")
	}
	if cfg, ok := registry.Match(input); ok {
		logger.Info("Detected source vendor from file name", "vendor", cfg.Name, "file", filepath.Base(input))
		return cfg, nil
	}
	return vendor.Config{}, fmt.Errorf("cannot detect the vendor of %s, use --from", filepath.Base(input))
}

func streamCSV(ctx context.Context, conv *converter.Converter, in io.Reader, out io.Writer) (*converter.Report, error) {
	p, err := csvparser.NewStreamingParser(in, converter.SourceSettings(conv.Source()))
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	defer p.Close()

	w, err := csvwriter.New(out, converter.TargetOptions(conv.Target(), appConfig.Output))
	if err != nil {
		return nil, err
	}
	return conv.Stream(ctx, p, w)
}

func convertTable(
	ctx context.Context,
	conv *converter.Converter,
	in io.Reader,
	out io.Writer,
	workbookIn bool,
	format string,
) (*converter.Report, error) {
	var table *csvparser.Table
	var err error
	if workbookIn {
		table, err = xlsxio.Read(in, convertFlags.sheet)
	} else {
		table, err = csvparser.Parse(in, converter.SourceSettings(conv.Source()))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	result, report, err := conv.Convert(ctx, table)
	if err != nil {
		return report, err
	}

	if format == config.FormatXLSX {
		xlsxOpts := xlsxio.DefaultOptions()
		xlsxOpts.Sheet = appConfig.Output.Sheet
		return report, xlsxio.Write(out, result.Headers, result.Rows, xlsxOpts)
	}
	return report, converter.WriteCSV(out, result, converter.TargetOptions(conv.Target(), appConfig.Output))
}
