package logger

import (
	"fmt"

	"github.com/spf13/cobra"
)

// SetupLogger initializes the default logger from command-line settings.
// verbose forces the debug level.
func SetupLogger(logLevel string, logJSON, verbose bool) error {
	level := ParseLevel(logLevel)
	if level == NoLevel {
		return fmt.Errorf("invalid log level %q (expected debug, info, warn or error)", logLevel)
	}
	if verbose {
		level = DebugLevel
	}

	cfg := DefaultConfig()
	cfg.Level = level
	cfg.JSON = logJSON
	cfg.AddSource = level == DebugLevel
	Init(cfg)
	return nil
}

// GetLoggerConfig reads the persistent logging flags of cmd.
func GetLoggerConfig(cmd *cobra.Command) (string, bool, bool, error) {
	logLevel, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return "", false, false, fmt.Errorf("failed to get log-level flag: %w", err)
	}

	logJSON, err := cmd.Flags().GetBool("log-json")
	if err != nil {
		return "", false, false, fmt.Errorf("failed to get log-json flag: %w", err)
	}

	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return "", false, false, fmt.Errorf("failed to get verbose flag: %w", err)
	}

	return logLevel, logJSON, verbose, nil
}
