// =============================================================================
// Deck CSV Converter - Vendors Command
// =============================================================================
//
// COMMAND USAGE:
//   deckconv vendors                         # List the known vendor formats
//   deckconv vendors show manabox            # Print a vendor as YAML
//   deckconv vendors show manabox --toml     # Print a vendor as TOML
//   deckconv vendors show manabox -o vendors/mine.yaml
//
// An exported vendor file is a starting point for a custom format: edit the
// headers and tokens, rename it and drop it into the vendors directory.
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/ginjaninja78/deck-csv-converter/internal/config"
	"github.com/spf13/cobra"
)

var vendorsFlags struct {
	toml   bool
	output string
}

var vendorsCmd = &cobra.Command{
	Use:   "vendors",
	Short: "List the known vendor formats",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		for _, cfg := range registry.All() {
			fmt.Fprintf(out, "%s %s\n", heading(fmt.Sprintf("%-14s", cfg.Name)), cfg.Description)
			fmt.Fprintf(out, "%-14s columns: %s\n", "", strings.Join(mappingHeaders(cfg), ", "))
			if len(cfg.FilePatterns) > 0 {
				fmt.Fprintf(out, "%-14s files:   %s\n", "", strings.Join(cfg.FilePatterns, ", "))
			}
		}
		return nil
	},
}

var vendorsShowCmd = &cobra.Command{
	Use:   "show <vendor>",
	Short: "Print a vendor format as a vendor file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := registry.Lookup(args[0])
		if err != nil {
			return err
		}

		file := config.NewVendorFile(cfg)
		var data []byte
		if vendorsFlags.toml || strings.HasSuffix(strings.ToLower(vendorsFlags.output), ".toml") {
			data, err = file.EncodeTOML()
		} else {
			data, err = file.EncodeYAML()
		}
		if err != nil {
			return fmt.Errorf("failed to encode vendor %s: %w", cfg.Name, err)
		}

		if vendorsFlags.output == "" {
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}
		if err := os.WriteFile(vendorsFlags.output, data, 0o644); err != nil {
			return fmt.Errorf("failed to write vendor file: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", vendorsFlags.output)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(vendorsCmd)
	vendorsCmd.AddCommand(vendorsShowCmd)

	vendorsShowCmd.Flags().BoolVar(&vendorsFlags.toml, "toml", false, "Print TOML instead of YAML")
	vendorsShowCmd.Flags().StringVarP(&vendorsFlags.output, "output", "o", "", "Write to a file instead of stdout")
}

