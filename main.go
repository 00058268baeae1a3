// =============================================================================
// Deck CSV Converter - Main Entry Point
// =============================================================================
//
// USAGE:
//   deckconv convert   - Convert one deck list between vendor formats
//   deckconv process   - Convert every deck list in the input directory
//   deckconv vendors   - List, show or export vendor formats
//   deckconv validate  - Validate configuration and vendor files
//   deckconv version   - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Card model, vendor formats, column mapping, I/O
//   - pkg/           : Shared file handling utilities
//   - vendors/       : User vendor formats (YAML or TOML)
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/deck-csv-converter/cmd"
)

func main() {
	cmd.Execute()
}
