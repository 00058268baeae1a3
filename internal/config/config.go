// =============================================================================
// Deck CSV Converter - Configuration Module
// =============================================================================
//
// This module loads the application configuration and the user-defined
// vendor formats.
//
// CONFIGURATION FILES:
//   1. Main Config (config.yaml): directories, logging, output naming,
//      concurrency, error policy and catalog settings
//   2. Vendor files (vendors/*.yaml, *.yml, *.toml): additional vendor
//      formats, or variations of a built-in one via "extends"
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/ginjaninja78/deck-csv-converter/internal/logger"
	"gopkg.in/yaml.v3"
)

// Error policies for rows that fail to convert.
const (
	PolicySkip  = "skip"
	PolicyAbort = "abort"
)

// Output formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is scanned by the process command for deck lists.
	// Default: "./input"
	InputDir string `yaml:"input_dir"`

	// OutputDir receives converted deck lists.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// InputArchiveDir receives input files after successful conversion.
	// Default: "./input_archive"
	InputArchiveDir string `yaml:"input_archive_dir"`

	// LogsDir receives per-file error logs and the run summary.
	// Default: "./logs"
	LogsDir string `yaml:"logs_dir"`

	// VendorsDir holds user vendor definitions.
	// Default: "./vendors"
	VendorsDir string `yaml:"vendors_dir"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel: "debug", "info", "warn" or "error". Default: "info"
	LogLevel string `yaml:"log_level"`

	// LogJSON switches log output to JSON lines.
	LogJSON bool `yaml:"log_json"`

	// =========================================================================
	// CONVERSION SETTINGS
	// =========================================================================

	// SourceVendor forces the input vendor. Empty means detect it from the
	// file name through each vendor's file_patterns.
	SourceVendor string `yaml:"source_vendor"`

	// TargetVendor is the output vendor. Default: "ManaBox"
	TargetVendor string `yaml:"target_vendor"`

	// ErrorPolicy decides what happens to a row that fails to convert:
	// "skip" drops the row and records it in the error log, "abort" fails
	// the whole file. Default: "skip"
	ErrorPolicy string `yaml:"error_policy"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// UUIDFormat defines the output file name.
	// Placeholders:
	//   {uuid}      - A random UUID
	//   {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
	//   {vendor}    - Target vendor name, lower case
	//   {source}    - Input file name without extension
	// Default: "{vendor}_{timestamp}_{uuid}.csv"
	UUIDFormat string `yaml:"uuid_format"`

	Output OutputSettings `yaml:"output"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// MaxConcurrency is the maximum number of files converted at once.
	// Default: 4
	MaxConcurrency int `yaml:"max_concurrency"`

	// ContinueOnError keeps processing other files when one fails.
	ContinueOnError bool `yaml:"continue_on_error"`

	// ArchiveInputs moves converted inputs to InputArchiveDir.
	ArchiveInputs bool `yaml:"archive_inputs"`

	// ArchiveByDate archives into YYYY/MM/DD subdirectories.
	ArchiveByDate bool `yaml:"archive_by_date"`

	// ArchiveRetention removes archived inputs older than this at the start
	// of a run. Zero keeps them forever.
	ArchiveRetention time.Duration `yaml:"archive_retention"`

	Catalog CatalogSettings `yaml:"catalog"`

	Validation ValidationSettings `yaml:"validation"`
}

// OutputSettings controls the written file.
type OutputSettings struct {
	// Format is "csv" or "xlsx". Default: "csv"
	Format string `yaml:"format"`

	// Delimiter and Encoding override the target vendor's dialect.
	Delimiter string `yaml:"delimiter"`
	Encoding  string `yaml:"encoding"`

	CRLF    bool `yaml:"crlf"`
	SepHint bool `yaml:"sep_hint"`

	// Sheet names the worksheet of xlsx output. Default: "Deck"
	Sheet string `yaml:"sheet"`
}

// CatalogSettings configures card enrichment through the catalog API.
type CatalogSettings struct {
	Enabled   bool          `yaml:"enabled"`
	BaseURL   string        `yaml:"base_url"`
	UserAgent string        `yaml:"user_agent"`
	Timeout   time.Duration `yaml:"timeout"`

	// MinInterval spaces out requests. Default: 100ms
	MinInterval time.Duration `yaml:"min_interval"`

	RetryCount int `yaml:"retry_count"`
	CacheSize  int `yaml:"cache_size"`

	// ExactOnly disables the fuzzy name search fallback.
	ExactOnly bool `yaml:"exact_only"`
}

// ValidationSettings configures record checks.
type ValidationSettings struct {
	// MaxQuantity warns on larger counts. Default: 1000
	MaxQuantity int `yaml:"max_quantity"`

	WarningsAsErrors   bool `yaml:"warnings_as_errors"`
	SkipLanguageChecks bool `yaml:"skip_language_checks"`
}

// =============================================================================
// LOADING
// =============================================================================

// DefaultMainConfig returns a configuration with every default applied.
func DefaultMainConfig() *MainConfig {
	cfg := &MainConfig{ContinueOnError: true, ArchiveInputs: true}
	applyMainConfigDefaults(cfg)
	return cfg
}

// LoadMainConfig reads and validates the main configuration file.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &MainConfig{ContinueOnError: true, ArchiveInputs: true}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyMainConfigDefaults(cfg)

	if err := validateMainConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault loads configPath. A missing file is only an error when
// required is set; otherwise the defaults are returned.
func LoadOrDefault(configPath string, required bool) (*MainConfig, error) {
	cfg, err := LoadMainConfig(configPath)
	if err == nil {
		return cfg, nil
	}
	if !required && errors.Is(err, fs.ErrNotExist) {
		return DefaultMainConfig(), nil
	}
	return nil, err
}

func applyMainConfigDefaults(cfg *MainConfig) {
	if cfg.InputDir == "" {
		cfg.InputDir = "./input"
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "./output"
	}
	if cfg.InputArchiveDir == "" {
		cfg.InputArchiveDir = "./input_archive"
	}
	if cfg.LogsDir == "" {
		cfg.LogsDir = "./logs"
	}
	if cfg.VendorsDir == "" {
		cfg.VendorsDir = "./vendors"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.TargetVendor == "" {
		cfg.TargetVendor = "ManaBox"
	}
	if cfg.ErrorPolicy == "" {
		cfg.ErrorPolicy = PolicySkip
	}
	if cfg.UUIDFormat == "" {
		cfg.UUIDFormat = "{vendor}_{timestamp}_{uuid}.csv"
	}
	if cfg.MaxConcurrency == 0 {
		cfg.MaxConcurrency = 4
	}
	if cfg.Output.Format == "" {
		cfg.Output.Format = FormatCSV
	}
	if cfg.Output.Sheet == "" {
		cfg.Output.Sheet = "Deck"
	}
	if cfg.Catalog.MinInterval == 0 {
		cfg.Catalog.MinInterval = 100 * time.Millisecond
	}
	if cfg.Catalog.Timeout == 0 {
		cfg.Catalog.Timeout = 10 * time.Second
	}
	if cfg.Catalog.RetryCount == 0 {
		cfg.Catalog.RetryCount = 3
	}
	if cfg.Catalog.CacheSize == 0 {
		cfg.Catalog.CacheSize = 4096
	}
	if cfg.Validation.MaxQuantity == 0 {
		cfg.Validation.MaxQuantity = 1000
	}
}

func validateMainConfig(cfg *MainConfig) error {
	var problems []string

	if logger.ParseLevel(cfg.LogLevel) == logger.NoLevel {
		problems = append(problems, fmt.Sprintf("log_level %q is not one of debug, info, warn, error", cfg.LogLevel))
	}
	switch cfg.ErrorPolicy {
	case PolicySkip, PolicyAbort:
	default:
		problems = append(problems, fmt.Sprintf("error_policy %q is not one of skip, abort", cfg.ErrorPolicy))
	}
	switch strings.ToLower(cfg.Output.Format) {
	case FormatCSV, FormatXLSX:
		cfg.Output.Format = strings.ToLower(cfg.Output.Format)
	default:
		problems = append(problems, fmt.Sprintf("output.format %q is not one of csv, xlsx", cfg.Output.Format))
	}
	if cfg.MaxConcurrency < 1 {
		problems = append(problems, "max_concurrency must be at least 1")
	}
	if !strings.Contains(cfg.UUIDFormat, "{uuid}") && !strings.Contains(cfg.UUIDFormat, "{timestamp}") {
		problems = append(problems, "uuid_format must contain {uuid} or {timestamp} to keep output names unique")
	}
	if cfg.ArchiveRetention < 0 {
		problems = append(problems, "archive_retention cannot be negative")
	}
	if cfg.Catalog.CacheSize < 0 || cfg.Catalog.RetryCount < 0 {
		problems = append(problems, "catalog cache_size and retry_count cannot be negative")
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}
