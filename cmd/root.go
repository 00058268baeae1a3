// =============================================================================
// Deck CSV Converter - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. All other commands
// are attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (deckconv)
//   ├── convertCmd  (deckconv convert)
//   ├── processCmd  (deckconv process)
//   ├── vendorsCmd  (deckconv vendors)
//   ├── validateCmd (deckconv validate)
//   └── versionCmd  (deckconv version)
//
// CONFIGURATION:
//   Before any subcommand runs, the root command:
//   1. Sets up logging from --log-level, --log-json and --verbose
//   2. Loads the main configuration (--config)
//   3. Loads user vendor files into the vendor registry
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/ginjaninja78/deck-csv-converter/internal/config"
	"github.com/ginjaninja78/deck-csv-converter/internal/logger"
	"github.com/ginjaninja78/deck-csv-converter/internal/vendor"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// noColor disables coloured output.
var noColor bool

// appConfig and registry are set up by the root command before any
// subcommand runs.
var (
	appConfig *config.MainConfig
	registry  *vendor.Registry
)

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "deckconv",
	Short: "Deck CSV Converter - Convert deck lists between card collection sites",

	Long: `Deck CSV Converter converts trading card deck lists and collection exports
between the CSV formats of different marketplaces and collection managers.

Key Features:
  - Built-in formats for Moxfield, ManaBox, Dragon Shield, Deckbox,
    Archidekt and TCGplayer, plus user formats in YAML or TOML
  - Card data enrichment through the Scryfall catalog
  - CSV and XLSX input and output
  - Batch processing of an input directory with archival and error logs

Example Usage:
  deckconv convert --from moxfield --to manabox -i deck.csv -o out.csv
  deckconv process                     # Convert every file in the input directory
  deckconv vendors                     # List the known vendor formats
  deckconv validate vendors/*.yaml     # Check vendor files without converting`,

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initialize(cmd)
	},

	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("Error:"), err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	flags := rootCmd.PersistentFlags()

	flags.StringVar(&cfgFile, "config", "config.yaml", "Path to the main configuration file")
	flags.BoolP("verbose", "v", false, "Enable debug logging")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.Bool("log-json", false, "Write logs as JSON lines")
	flags.BoolVar(&noColor, "no-color", false, "Disable coloured output")
}

// initialize sets up logging, configuration and the vendor registry.
// The config file is optional unless --config was given explicitly.
func initialize(cmd *cobra.Command) error {
	if noColor || !term.IsTerminal(int(os.Stdout.Fd())) {
		color.NoColor = true
	}

	cfg, err := config.LoadOrDefault(cfgFile, cmd.Flags().Changed("config"))
	if err != nil {
		return err
	}

	logLevel, logJSON, verbose, err := logger.GetLoggerConfig(cmd)
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("log-level") {
		logLevel = cfg.LogLevel
	}
	if err := logger.SetupLogger(logLevel, logJSON || cfg.LogJSON, verbose); err != nil {
		return err
	}

	registry = vendor.DefaultRegistry()
	loaded, err := config.LoadVendorConfigs(cfg.VendorsDir, registry)
	if err != nil {
		return fmt.Errorf("failed to load vendor files: %w", err)
	}
	if len(loaded) > 0 {
		logger.Debug("Loaded user vendor formats", "dir", cfg.VendorsDir, "count", len(loaded))
	}

	appConfig = cfg
	return nil
}
