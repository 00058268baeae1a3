// =============================================================================
// Deck CSV Converter - Column Mapping
// =============================================================================
//
// This package binds a vendor's CSV headers to card fields and the
// transformers that convert them. A Mapping is built once per vendor config
// and is read-only afterwards; it is safe for concurrent use.
//
// READ:
//   Open matches the file's header row against the bindings by name (order
//   irrelevant). Required columns missing from the file fail immediately with
//   types.ErrMissingColumn; optional columns missing from the file are
//   skipped and their fields keep their defaults.
//
// WRITE:
//   Headers and Format emit columns in the declaration order of
//   vendor.Config, so the output column order is reproducible.
//
// =============================================================================

package mapping

import (
	"strings"

	"github.com/ginjaninja78/deck-csv-converter/internal/card"
	"github.com/ginjaninja78/deck-csv-converter/internal/enum"
	"github.com/ginjaninja78/deck-csv-converter/internal/transform"
	"github.com/ginjaninja78/deck-csv-converter/internal/types"
	"github.com/ginjaninja78/deck-csv-converter/internal/vendor"
)

// =============================================================================
// FIELDS
// =============================================================================

// Field identifies a logical card field.
type Field int

const (
	_ Field = iota
	Quantity
	CardName
	SetName
	SetCode
	CollectorNumber
	Condition
	Finish
	Language
	PricePaid
)

var fields = enum.New("Field",
	enum.Member[Field]{ID: Quantity, Name: "Quantity"},
	enum.Member[Field]{ID: CardName, Name: "CardName"},
	enum.Member[Field]{ID: SetName, Name: "SetName"},
	enum.Member[Field]{ID: SetCode, Name: "SetCode"},
	enum.Member[Field]{ID: CollectorNumber, Name: "CollectorNumber"},
	enum.Member[Field]{ID: Condition, Name: "Condition"},
	enum.Member[Field]{ID: Finish, Name: "Finish"},
	enum.Member[Field]{ID: Language, Name: "Language"},
	enum.Member[Field]{ID: PricePaid, Name: "PricePaid"},
)

func (f Field) String() string { return fields.Name(f) }

// =============================================================================
// BINDINGS
// =============================================================================

// Binding ties one vendor header to a card field.
type Binding struct {
	Field    Field
	Header   string
	Required bool

	// absent reports whether a raw cell should leave the field unset.
	absent func(raw string) bool
	parse  func(raw string, c *card.Physical) error
	format func(c card.Physical) (string, error)
}

// Mapping is the ordered binding list of one vendor.
type Mapping struct {
	vendor   vendor.Config
	bindings []Binding
}

// New builds the bindings for cfg. Fields the vendor does not export produce
// no binding.
func New(cfg vendor.Config) *Mapping {
	m := &Mapping{vendor: cfg}

	quantity := transform.Quantity{}
	m.add(Binding{
		Field:    Quantity,
		Header:   cfg.Quantity,
		Required: true,
		parse: func(raw string, c *card.Physical) (err error) {
			c.Quantity, err = quantity.Parse(raw)
			return err
		},
		format: func(c card.Physical) (string, error) { return quantity.Format(c.Quantity) },
	})

	name := transform.NewCardName(cfg.CardName)
	m.add(Binding{
		Field:    CardName,
		Header:   cfg.CardName.Header,
		Required: true,
		parse: func(raw string, c *card.Physical) (err error) {
			c.Printing.Name, err = name.Parse(raw)
			return err
		},
		format: func(c card.Physical) (string, error) { return name.Format(c.Printing.Name) },
	})

	if header, ok := cfg.SetName.Get(); ok {
		m.addText(SetName, header, transform.Text{}, func(c *card.Physical) *string { return &c.Printing.SetName })
	}
	if header, ok := cfg.SetCode.Get(); ok {
		m.addText(SetCode, header, transform.UpperCase{}, func(c *card.Physical) *string { return &c.Printing.SetCode })
	}
	if header, ok := cfg.CollectorNumber.Get(); ok {
		m.addText(CollectorNumber, header, transform.Text{}, func(c *card.Physical) *string { return &c.Printing.CollectorNumber })
	}

	if cc, ok := cfg.Condition.Get(); ok {
		conv := transform.NewCondition(cc)
		m.add(Binding{
			Field:  Condition,
			Header: cc.Header,
			absent: emptyUnlessToken(conv),
			parse: func(raw string, c *card.Physical) (err error) {
				c.Condition, err = conv.Parse(raw)
				return err
			},
			format: func(c card.Physical) (string, error) {
				if !c.HasCondition() {
					return "", nil
				}
				return conv.Format(c.Condition)
			},
		})
	}

	if fc, ok := cfg.Finish.Get(); ok {
		conv := transform.NewFinish(cfg.Name, fc)
		m.add(Binding{
			Field:  Finish,
			Header: fc.Header,
			absent: emptyUnlessToken(conv),
			parse: func(raw string, c *card.Physical) (err error) {
				c.Finish, err = conv.Parse(raw)
				return err
			},
			format: func(c card.Physical) (string, error) {
				if !c.HasFinish() {
					return "", nil
				}
				return conv.Format(c.Finish)
			},
		})
	}

	if header, ok := cfg.Language.Get(); ok {
		m.addText(Language, header, transform.Language{}, func(c *card.Physical) *string { return &c.Language })
	}

	if header, ok := cfg.PricePaid.Get(); ok {
		price := transform.Price{}
		m.add(Binding{
			Field:  PricePaid,
			Header: header,
			parse: func(raw string, c *card.Physical) (err error) {
				c.PricePaid, err = price.Parse(raw)
				return err
			},
			format: func(c card.Physical) (string, error) { return price.Format(c.PricePaid) },
		})
	}

	return m
}

func (m *Mapping) add(b Binding) {
	m.bindings = append(m.bindings, b)
}

func (m *Mapping) addText(field Field, header string, conv transform.Transformer[string], target func(*card.Physical) *string) {
	m.add(Binding{
		Field:  field,
		Header: header,
		parse: func(raw string, c *card.Physical) (err error) {
			*target(c), err = conv.Parse(raw)
			return err
		},
		format: func(c card.Physical) (string, error) { return conv.Format(*target(&c)) },
	})
}

// An empty enum cell means "not recorded" unless the vendor uses the empty
// string as a token.
func emptyUnlessToken(tokens transform.TokenSet) func(string) bool {
	return func(raw string) bool {
		return strings.TrimSpace(raw) == "" && !tokens.Accepts(raw)
	}
}

// Vendor returns the config the mapping was built from.
func (m *Mapping) Vendor() vendor.Config { return m.vendor }

// Bindings returns the bindings in output order.
func (m *Mapping) Bindings() []Binding {
	return append([]Binding(nil), m.bindings...)
}

// Binding returns the binding for field, if the vendor exports it.
func (m *Mapping) Binding(field Field) (Binding, bool) {
	for _, b := range m.bindings {
		if b.Field == field {
			return b, true
		}
	}
	return Binding{}, false
}

// Headers returns the output header row.
func (m *Mapping) Headers() []string {
	headers := make([]string, len(m.bindings))
	for i, b := range m.bindings {
		headers[i] = b.Header
	}
	return headers
}

// Format renders c as one output row, in Headers order. Errors carry the
// header of the failing column.
func (m *Mapping) Format(c card.Physical) ([]string, error) {
	row := make([]string, len(m.bindings))
	for i, b := range m.bindings {
		value, err := b.format(c)
		if err != nil {
			return nil, types.Locate(err, 0, b.Header)
		}
		row[i] = value
	}
	return row, nil
}
