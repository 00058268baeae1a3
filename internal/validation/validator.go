// =============================================================================
// Deck CSV Converter - Validation Engine
// =============================================================================
//
// This module validates the two inputs of a conversion:
//
//   1. Vendor configurations, before any file is touched. A config is valid
//      when its mandatory headers are set, no two fields share a header, and
//      its condition and finish tokens are unique (so every token parses back
//      to the value it was formatted from).
//   2. Card records, after a row has been read. These are business checks on
//      top of what the field transformers already enforce.
//
// ERROR HANDLING:
//   - Problems are collected, not returned one at a time
//   - Each problem has a severity: "error" is fatal, "warning" is reported
//     and processing continues
//
// =============================================================================

package validation

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/ginjaninja78/deck-csv-converter/internal/card"
	"github.com/ginjaninja78/deck-csv-converter/internal/csvparser"
	"github.com/ginjaninja78/deck-csv-converter/internal/vendor"
)

const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// ValidationError represents a single validation problem.
type ValidationError struct {
	// Severity is SeverityError or SeverityWarning.
	Severity string

	// Vendor is the vendor config being validated, if any.
	Vendor string

	// Field is the config entry or card field the problem belongs to.
	Field string

	// Value is the offending value.
	Value string

	// Rule names the violated rule, e.g. "unique_header".
	Rule string

	// Message is a human-readable description.
	Message string

	// RowNumber is the data row of a card problem. Zero for config problems.
	RowNumber int
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	var where string
	switch {
	case e.RowNumber > 0:
		where = fmt.Sprintf("row %d, field %s", e.RowNumber, e.Field)
	case e.Vendor != "":
		where = fmt.Sprintf("vendor %s, field %s", e.Vendor, e.Field)
	default:
		where = "field " + e.Field
	}
	return fmt.Sprintf("[%s] %s: %s (value: %q)", strings.ToUpper(e.Severity), where, e.Message, e.Value)
}

// IsFatal reports whether the problem stops processing.
func (e *ValidationError) IsFatal() bool {
	return e.Severity == SeverityError
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// ValidationResult collects the problems found by one validation run.
type ValidationResult struct {
	// IsValid is true if there are no fatal errors.
	IsValid bool

	Errors       []*ValidationError
	ErrorCount   int
	WarningCount int

	// CardsValidated counts the card records checked.
	CardsValidated int
}

func newResult() *ValidationResult {
	return &ValidationResult{IsValid: true}
}

func (r *ValidationResult) add(err *ValidationError, warningsAreErrors bool) {
	r.Errors = append(r.Errors, err)
	if err.IsFatal() {
		r.ErrorCount++
		r.IsValid = false
		return
	}
	r.WarningCount++
	if warningsAreErrors {
		r.IsValid = false
	}
}

// Messages returns the problem descriptions, in discovery order.
func (r *ValidationResult) Messages() []string {
	out := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		out[i] = e.Error()
	}
	return out
}

// =============================================================================
// VENDOR CONFIG VALIDATION
// =============================================================================

// ValidateVendor checks a vendor config.
func ValidateVendor(cfg vendor.Config) *ValidationResult {
	result := newResult()
	fail := func(severity, field, value, rule, format string, args ...any) {
		result.add(&ValidationError{
			Severity: severity,
			Vendor:   cfg.Name,
			Field:    field,
			Value:    value,
			Rule:     rule,
			Message:  fmt.Sprintf(format, args...),
		}, false)
	}

	if strings.TrimSpace(cfg.Name) == "" {
		fail(SeverityError, "name", cfg.Name, "required", "vendor name is required")
	}
	if strings.TrimSpace(cfg.Quantity) == "" {
		fail(SeverityError, "quantity", cfg.Quantity, "required", "quantity header is required")
	}
	if strings.TrimSpace(cfg.CardName.Header) == "" {
		fail(SeverityError, "card_name", cfg.CardName.Header, "required", "card name header is required")
	}

	// Header uniqueness, case-insensitive since reading falls back to
	// case-insensitive matching.
	seen := make(map[string]string)
	for _, h := range headerEntries(cfg) {
		if h.header == "" {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(h.header))
		if other, ok := seen[key]; ok {
			fail(SeverityError, h.field, h.header, "unique_header", "header is also used by %s", other)
			continue
		}
		seen[key] = h.field
	}

	if cc, ok := cfg.Condition.Get(); ok {
		for _, dup := range duplicates(cc.Tokens()) {
			fail(SeverityError, "condition", dup, "unique_token", "condition token is used for more than one condition")
		}
	}
	if fc, ok := cfg.Finish.Get(); ok {
		for _, dup := range duplicates(fc.Tokens()) {
			fail(SeverityError, "finish", dup, "unique_token", "finish token is used for more than one finish")
		}
	}

	if len(cfg.CardName.Abbreviations) > 0 {
		if !cfg.CardName.ShortNames {
			fail(SeverityWarning, "card_name.abbreviations", "", "unused",
				"abbreviations are ignored unless short_names is enabled")
		}
		full := make([]string, 0, len(cfg.CardName.Abbreviations))
		for _, name := range cfg.CardName.Abbreviations {
			full = append(full, name)
		}
		slices.Sort(full)
		for _, dup := range duplicates(full) {
			fail(SeverityError, "card_name.abbreviations", dup, "unique_token",
				"full name has more than one abbreviation")
		}
	}

	settings := csvparser.Settings{Delimiter: cfg.Delimiter, Encoding: cfg.Encoding}
	if _, err := settings.Comma(); err != nil {
		fail(SeverityError, "delimiter", cfg.Delimiter, "dialect", "%v", err)
	}
	if _, err := settings.Decoder(); err != nil {
		fail(SeverityError, "encoding", cfg.Encoding, "dialect", "%v", err)
	}

	for _, pattern := range cfg.FilePatterns {
		if _, err := filepath.Match(pattern, ""); err != nil {
			fail(SeverityError, "file_patterns", pattern, "pattern", "invalid file pattern: %v", err)
		}
	}

	return result
}

type headerEntry struct {
	field  string
	header string
}

func headerEntries(cfg vendor.Config) []headerEntry {
	entries := []headerEntry{
		{"quantity", cfg.Quantity},
		{"card_name", cfg.CardName.Header},
		{"set_name", cfg.SetName.OrElse("")},
		{"set_code", cfg.SetCode.OrElse("")},
		{"collector_number", cfg.CollectorNumber.OrElse("")},
	}
	if cc, ok := cfg.Condition.Get(); ok {
		entries = append(entries, headerEntry{"condition", cc.Header})
	}
	if fc, ok := cfg.Finish.Get(); ok {
		entries = append(entries, headerEntry{"finish", fc.Header})
	}
	return append(entries,
		headerEntry{"language", cfg.Language.OrElse("")},
		headerEntry{"price_paid", cfg.PricePaid.OrElse("")},
	)
}

// duplicates returns values occurring more than once, each reported once.
func duplicates(values []string) []string {
	counts := make(map[string]int, len(values))
	var dups []string
	for _, v := range values {
		counts[v]++
		if counts[v] == 2 {
			dups = append(dups, v)
		}
	}
	return dups
}

// =============================================================================
// CARD VALIDATION
// =============================================================================

// ValidationOptions contains options for card validation.
type ValidationOptions struct {
	// StopOnFirstError stops ValidateAll after the first fatal error.
	StopOnFirstError bool

	// TreatWarningsAsErrors makes warnings invalidate the result.
	TreatWarningsAsErrors bool

	// KnownLanguages are the accepted language codes. Empty disables the
	// check.
	KnownLanguages []string

	// MaxQuantity warns on implausible counts. Zero disables the check.
	MaxQuantity int
}

// DefaultValidationOptions returns the default validation options.
func DefaultValidationOptions() ValidationOptions {
	return ValidationOptions{
		KnownLanguages: card.KnownLanguages,
		MaxQuantity:    1000,
	}
}

// Validator checks card records.
type Validator struct {
	options ValidationOptions
}

// NewValidator creates a Validator with default options.
func NewValidator() *Validator {
	return NewValidatorWithOptions(DefaultValidationOptions())
}

// NewValidatorWithOptions creates a Validator with custom options.
func NewValidatorWithOptions(options ValidationOptions) *Validator {
	return &Validator{options: options}
}

// Options returns the validator's options.
func (v *Validator) Options() ValidationOptions {
	return v.options
}

// ValidateCard checks one record read from data row row.
func (v *Validator) ValidateCard(row int, c card.Physical) []*ValidationError {
	var errs []*ValidationError
	add := func(severity, field, value, rule, message string) {
		errs = append(errs, &ValidationError{
			Severity:  severity,
			Field:     field,
			Value:     value,
			Rule:      rule,
			Message:   message,
			RowNumber: row,
		})
	}

	if c.Quantity < 1 {
		add(SeverityError, "Quantity", fmt.Sprint(c.Quantity), "positive", "quantity must be at least 1")
	} else if v.options.MaxQuantity > 0 && c.Quantity > v.options.MaxQuantity {
		add(SeverityWarning, "Quantity", fmt.Sprint(c.Quantity), "max_quantity",
			fmt.Sprintf("quantity exceeds %d", v.options.MaxQuantity))
	}

	if strings.TrimSpace(c.Printing.Name) == "" {
		add(SeverityError, "CardName", c.Printing.Name, "required", "card name is required")
	}

	if c.Printing.CollectorNumber != "" && c.Printing.SetCode == "" && c.Printing.SetName == "" {
		add(SeverityWarning, "CollectorNumber", c.Printing.CollectorNumber, "needs_set",
			"collector number without a set is ambiguous")
	}

	if c.PricePaid.Valid && c.PricePaid.Decimal.IsNegative() {
		add(SeverityError, "PricePaid", c.PricePaid.Decimal.String(), "non_negative", "price paid cannot be negative")
	}

	if len(v.options.KnownLanguages) > 0 && c.Language != "" && !slices.Contains(v.options.KnownLanguages, c.Language) {
		add(SeverityWarning, "Language", c.Language, "known_language", "unknown language code")
	}

	return errs
}

// ValidateAll checks a list of records, numbering rows from 1.
func (v *Validator) ValidateAll(cards []card.Physical) *ValidationResult {
	result := newResult()
	for i, c := range cards {
		result.CardsValidated++
		for _, err := range v.ValidateCard(i+1, c) {
			result.add(err, v.options.TreatWarningsAsErrors)
			if err.IsFatal() && v.options.StopOnFirstError {
				return result
			}
		}
	}
	return result
}
