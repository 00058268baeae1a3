// =============================================================================
// Deck CSV Converter - Shared Error Types
// =============================================================================
//
// This package contains the error kinds shared by the enumeration, converter,
// mapping and catalog packages. Keeping them in a leaf package avoids import
// cycles between those modules.
//
// ERROR KINDS:
//   - MissingColumn      : a required header is absent from the input file
//   - InvalidFormat      : a cell value cannot be parsed by the active converter
//   - UnsupportedFeature : the vendor has no token for a requested value
//   - NotFound           : enumeration or catalog lookup miss
//
// Every error carries enough context (row, header, raw value) for the caller
// to decide whether to skip the row or abort the whole file.
//
// =============================================================================

package types

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// ERROR KINDS
// =============================================================================

// Kind classifies a ConversionError.
type Kind int

const (
	KindMissingColumn Kind = iota + 1
	KindInvalidFormat
	KindUnsupportedFeature
	KindNotFound
)

// Sentinels for errors.Is matching.
var (
	ErrMissingColumn      = errors.New("missing column")
	ErrInvalidFormat      = errors.New("invalid format")
	ErrUnsupportedFeature = errors.New("unsupported feature")
	ErrNotFound           = errors.New("not found")
)

// Sentinel returns the sentinel error for the kind.
func (k Kind) Sentinel() error {
	switch k {
	case KindMissingColumn:
		return ErrMissingColumn
	case KindInvalidFormat:
		return ErrInvalidFormat
	case KindUnsupportedFeature:
		return ErrUnsupportedFeature
	case KindNotFound:
		return ErrNotFound
	default:
		return nil
	}
}

// String returns the kind name as used in logs and error reports.
func (k Kind) String() string {
	switch k {
	case KindMissingColumn:
		return "MissingColumn"
	case KindInvalidFormat:
		return "InvalidFormat"
	case KindUnsupportedFeature:
		return "UnsupportedFeature"
	case KindNotFound:
		return "NotFound"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// =============================================================================
// CONVERSION ERROR
// =============================================================================

// ConversionError is the single error type produced by the mapping layer.
type ConversionError struct {
	// Kind is the error classification.
	Kind Kind

	// Row is the 1-based data row index. Zero when the error is not row-scoped.
	Row int

	// Header is the CSV column the error belongs to.
	Header string

	// Value is the offending raw value (cell, enum name, card name, ...).
	Value string

	// Subject names what was being looked up or converted,
	// e.g. "Condition", "card", "vendor ManaBox".
	Subject string

	// Expected lists the accepted values, when the set is known.
	Expected []string

	// Err is an optional underlying cause.
	Err error
}

// Error implements the error interface.
func (e *ConversionError) Error() string {
	var b strings.Builder

	switch e.Kind {
	case KindMissingColumn:
		fmt.Fprintf(&b, "missing column %q", e.Header)
	case KindInvalidFormat:
		fmt.Fprintf(&b, "invalid format: %q", e.Value)
		if e.Subject != "" {
			fmt.Fprintf(&b, " is not a valid %s", e.Subject)
		}
		if len(e.Expected) > 0 {
			fmt.Fprintf(&b, ", expected one of [%s]", quoteAll(e.Expected))
		}
	case KindUnsupportedFeature:
		fmt.Fprintf(&b, "unsupported feature: %s", e.Subject)
		if e.Value != "" {
			fmt.Fprintf(&b, " (%s)", e.Value)
		}
	case KindNotFound:
		fmt.Fprintf(&b, "%s not found: %q", e.Subject, e.Value)
	default:
		fmt.Fprintf(&b, "conversion error: %q", e.Value)
	}

	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}

	// Only MissingColumn already names its header in the message.
	switch {
	case e.Row > 0 && e.Header != "" && e.Kind != KindMissingColumn:
		fmt.Fprintf(&b, " (row %d, column %q)", e.Row, e.Header)
	case e.Row > 0:
		fmt.Fprintf(&b, " (row %d)", e.Row)
	case e.Header != "" && e.Kind != KindMissingColumn:
		fmt.Fprintf(&b, " (column %q)", e.Header)
	}

	return b.String()
}

// Is reports whether target is the sentinel of this error's kind.
func (e *ConversionError) Is(target error) bool {
	return target != nil && target == e.Kind.Sentinel()
}

// Unwrap returns the underlying cause.
func (e *ConversionError) Unwrap() error {
	return e.Err
}

// =============================================================================
// CONSTRUCTORS
// =============================================================================

// MissingColumn reports a required header absent from a file.
func MissingColumn(header string) *ConversionError {
	return &ConversionError{Kind: KindMissingColumn, Header: header}
}

// InvalidFormat reports a value the active converter cannot parse.
// subject describes what the value should have been, expected lists the
// accepted tokens when the set is closed.
func InvalidFormat(value, subject string, expected ...string) *ConversionError {
	return &ConversionError{
		Kind:     KindInvalidFormat,
		Value:    value,
		Subject:  subject,
		Expected: expected,
	}
}

// Unsupported reports a feature the vendor format cannot express.
func Unsupported(feature, value string) *ConversionError {
	return &ConversionError{Kind: KindUnsupportedFeature, Subject: feature, Value: value}
}

// NotFound reports an enumeration or catalog lookup miss.
func NotFound(subject, value string) *ConversionError {
	return &ConversionError{Kind: KindNotFound, Subject: subject, Value: value}
}

// Locate attaches row and column context to err. Context already present on
// the error is kept. Errors that are not ConversionErrors are wrapped with
// the location in their message.
func Locate(err error, row int, header string) error {
	if err == nil {
		return nil
	}

	var ce *ConversionError
	if errors.As(err, &ce) {
		located := *ce
		if located.Row == 0 {
			located.Row = row
		}
		if located.Header == "" {
			located.Header = header
		}
		return &located
	}

	return fmt.Errorf("row %d, column %q: %w", row, header, err)
}

// KindOf returns the kind of err, or zero when err is not a ConversionError.
func KindOf(err error) Kind {
	var ce *ConversionError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return 0
}

func quoteAll(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return strings.Join(quoted, " ")
}
