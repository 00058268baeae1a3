// =============================================================================
// Deck CSV Converter - Validate Command
// =============================================================================
//
// COMMAND USAGE:
//   deckconv validate                    # Main config and every loaded vendor
//   deckconv validate vendors/mine.yaml  # Specific vendor files
//
// The main configuration and the vendors directory are loaded before the
// command runs, so reaching it means both are valid. Every registered vendor
// is then checked again to surface warnings.
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"

	"github.com/ginjaninja78/deck-csv-converter/internal/config"
	"github.com/ginjaninja78/deck-csv-converter/internal/mapping"
	"github.com/ginjaninja78/deck-csv-converter/internal/validation"
	"github.com/ginjaninja78/deck-csv-converter/internal/vendor"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [vendor files...]",
	Short: "Validate the configuration and vendor formats",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate(cmd.OutOrStdout(), args)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(out io.Writer, files []string) error {
	var configs []vendor.Config

	if len(files) == 0 {
		fmt.Fprintf(out, "%s main configuration (%s)\n", okMark("✓"), cfgFile)
		configs = registry.All()
	} else {
		for _, path := range files {
			cfg, err := loadVendorFile(path)
			if err != nil {
				fmt.Fprintf(out, "%s %s: %v\n", failMark("✗"), path, err)
				return fmt.Errorf("invalid vendor file %s", path)
			}
			configs = append(configs, cfg)
		}
	}

	failed := 0
	for _, cfg := range configs {
		result := validation.ValidateVendor(cfg)
		mark := okMark("✓")
		if !result.IsValid {
			mark = failMark("✗")
			failed++
		}
		fmt.Fprintf(out, "%s %s (%d columns)\n", mark, cfg.Name, len(mappingHeaders(cfg)))
		for _, problem := range result.Errors {
			if problem.IsFatal() {
				fmt.Fprintf(out, "    %s\n", failMark(problem.Error()))
			} else {
				fmt.Fprintf(out, "    %s\n", warnMark(problem.Error()))
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d vendor format(s) are invalid", failed)
	}
	return nil
}

// loadVendorFile builds a vendor from a single file, resolving "extends"
// against the registry.
func loadVendorFile(path string) (vendor.Config, error) {
	file, err := config.LoadVendorFile(path)
	if err != nil {
		return vendor.Config{}, err
	}
	var base *vendor.Config
	if file.Extends != "" {
		b, err := registry.Lookup(file.Extends)
		if err != nil {
			return vendor.Config{}, err
		}
		base = &b
	}
	return file.Build(base)
}

func mappingHeaders(cfg vendor.Config) []string {
	return mapping.New(cfg).Headers()
}
