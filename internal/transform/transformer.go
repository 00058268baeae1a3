// =============================================================================
// Deck CSV Converter - Field Transformers
// =============================================================================
//
// This package converts single CSV cells to typed card values and back. Every
// transformer is a pure function of its input and the vendor configuration it
// was built from, so one instance may be shared by concurrent conversions.
//
// TRANSFORMERS:
//   - CardName  : vendor short names <-> full card names
//   - UpperCase : set codes
//   - Condition : vendor condition tokens <-> card.Condition
//   - Finish    : vendor finish tokens <-> card.Finish
//   - Quantity  : positive integers
//   - Price     : decimal amounts
//   - Language  : lower-case language codes
//
// ERRORS:
//   Parse fails with types.ErrInvalidFormat, Format fails with
//   types.ErrUnsupportedFeature (value the vendor cannot express) or
//   types.ErrNotFound (value outside the enumeration).
//
// =============================================================================

package transform

// Transformer converts between a raw cell string and a typed value.
type Transformer[T any] interface {
	Parse(raw string) (T, error)
	Format(value T) (string, error)
}

// TokenSet is implemented by transformers backed by a closed vocabulary.
type TokenSet interface {
	// Accepts reports whether raw is one of the vendor's tokens.
	Accepts(raw string) bool
}
