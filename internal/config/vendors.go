package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ginjaninja78/deck-csv-converter/internal/validation"
	"github.com/ginjaninja78/deck-csv-converter/internal/vendor"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// VENDOR FILE STRUCTURE
// =============================================================================

// VendorFile is the on-disk form of a vendor format. Pointer fields tell an
// absent entry from an empty one: an empty finish token is a real token.
//
// A file may extend another vendor (built-in or user defined). Entries it
// sets replace the base's, entries listed under "remove" drop the base's
// column, everything else is inherited.
type VendorFile struct {
	Name         string   `yaml:"name" toml:"name"`
	Extends      string   `yaml:"extends,omitempty" toml:"extends,omitempty"`
	Description  string   `yaml:"description,omitempty" toml:"description,omitempty"`
	FilePatterns []string `yaml:"file_patterns,omitempty" toml:"file_patterns,omitempty"`
	Delimiter    *string  `yaml:"delimiter,omitempty" toml:"delimiter,omitempty"`
	Encoding     *string  `yaml:"encoding,omitempty" toml:"encoding,omitempty"`

	Quantity        *string        `yaml:"quantity,omitempty" toml:"quantity,omitempty"`
	CardName        *CardNameFile  `yaml:"card_name,omitempty" toml:"card_name,omitempty"`
	SetName         *string        `yaml:"set_name,omitempty" toml:"set_name,omitempty"`
	SetCode         *string        `yaml:"set_code,omitempty" toml:"set_code,omitempty"`
	CollectorNumber *string        `yaml:"collector_number,omitempty" toml:"collector_number,omitempty"`
	Condition       *ConditionFile `yaml:"condition,omitempty" toml:"condition,omitempty"`
	Finish          *FinishFile    `yaml:"finish,omitempty" toml:"finish,omitempty"`
	Language        *string        `yaml:"language,omitempty" toml:"language,omitempty"`
	PricePaid       *string        `yaml:"price_paid,omitempty" toml:"price_paid,omitempty"`

	// NameAbbreviations maps vendor short names to full card names.
	NameAbbreviations map[string]string `yaml:"name_abbreviations,omitempty" toml:"name_abbreviations,omitempty"`

	// Remove lists inherited optional columns this vendor does not have.
	Remove []string `yaml:"remove,omitempty" toml:"remove,omitempty"`
}

// CardNameFile is the card_name entry of a vendor file.
type CardNameFile struct {
	Header     *string `yaml:"header,omitempty" toml:"header,omitempty"`
	ShortNames *bool   `yaml:"short_names,omitempty" toml:"short_names,omitempty"`
}

// ConditionFile is the condition entry of a vendor file.
type ConditionFile struct {
	Header        *string `yaml:"header,omitempty" toml:"header,omitempty"`
	Mint          *string `yaml:"mint,omitempty" toml:"mint,omitempty"`
	NearMint      *string `yaml:"near_mint,omitempty" toml:"near_mint,omitempty"`
	Excellent     *string `yaml:"excellent,omitempty" toml:"excellent,omitempty"`
	Good          *string `yaml:"good,omitempty" toml:"good,omitempty"`
	LightlyPlayed *string `yaml:"lightly_played,omitempty" toml:"lightly_played,omitempty"`
	Played        *string `yaml:"played,omitempty" toml:"played,omitempty"`
	Poor          *string `yaml:"poor,omitempty" toml:"poor,omitempty"`
}

// FinishFile is the finish entry of a vendor file.
type FinishFile struct {
	Header *string `yaml:"header,omitempty" toml:"header,omitempty"`
	Normal *string `yaml:"normal,omitempty" toml:"normal,omitempty"`
	Foil   *string `yaml:"foil,omitempty" toml:"foil,omitempty"`
	Etched *string `yaml:"etched,omitempty" toml:"etched,omitempty"`
}

// Optional column names accepted by "remove".
var removable = []string{
	"set_name", "set_code", "collector_number", "condition", "finish", "language", "price_paid",
}

// =============================================================================
// BUILDING
// =============================================================================

// Build resolves the file into a vendor config on top of base. base is nil
// for files without "extends".
func (f *VendorFile) Build(base *vendor.Config) (vendor.Config, error) {
	var cfg vendor.Config
	if base != nil {
		cfg = base.Clone()
	}

	cfg.Name = strings.TrimSpace(f.Name)
	if f.Description != "" {
		cfg.Description = f.Description
	}
	if f.FilePatterns != nil {
		cfg.FilePatterns = append([]string(nil), f.FilePatterns...)
	} else if base != nil {
		// Inherited patterns would make detection ambiguous.
		cfg.FilePatterns = nil
	}
	setString(&cfg.Delimiter, f.Delimiter)
	setString(&cfg.Encoding, f.Encoding)
	setString(&cfg.Quantity, f.Quantity)

	if f.CardName != nil {
		setString(&cfg.CardName.Header, f.CardName.Header)
		if f.CardName.ShortNames != nil {
			cfg.CardName.ShortNames = *f.CardName.ShortNames
		}
	}
	if f.NameAbbreviations != nil {
		cfg.CardName.Abbreviations = make(map[string]string, len(f.NameAbbreviations))
		for short, full := range f.NameAbbreviations {
			cfg.CardName.Abbreviations[short] = full
		}
	}

	setOptional(&cfg.SetName, f.SetName)
	setOptional(&cfg.SetCode, f.SetCode)
	setOptional(&cfg.CollectorNumber, f.CollectorNumber)
	setOptional(&cfg.Language, f.Language)
	setOptional(&cfg.PricePaid, f.PricePaid)

	if f.Condition != nil {
		cc, err := f.Condition.build(cfg.Condition)
		if err != nil {
			return vendor.Config{}, err
		}
		cfg.Condition = vendor.Some(cc)
	}
	if f.Finish != nil {
		fc, err := f.Finish.build(cfg.Finish)
		if err != nil {
			return vendor.Config{}, err
		}
		cfg.Finish = vendor.Some(fc)
	}

	for _, field := range f.Remove {
		switch strings.ToLower(strings.TrimSpace(field)) {
		case "set_name":
			cfg.SetName = vendor.None[string]()
		case "set_code":
			cfg.SetCode = vendor.None[string]()
		case "collector_number":
			cfg.CollectorNumber = vendor.None[string]()
		case "condition":
			cfg.Condition = vendor.None[vendor.ConditionConfig]()
		case "finish":
			cfg.Finish = vendor.None[vendor.FinishConfig]()
		case "language":
			cfg.Language = vendor.None[string]()
		case "price_paid":
			cfg.PricePaid = vendor.None[string]()
		default:
			return vendor.Config{}, fmt.Errorf("cannot remove %q (removable: %s)", field, strings.Join(removable, ", "))
		}
	}

	return cfg, nil
}

func (c *ConditionFile) build(inherited vendor.Optional[vendor.ConditionConfig]) (vendor.ConditionConfig, error) {
	cc, _ := inherited.Get()
	setString(&cc.Header, c.Header)
	setString(&cc.Mint, c.Mint)
	setString(&cc.NearMint, c.NearMint)
	setString(&cc.Excellent, c.Excellent)
	setString(&cc.Good, c.Good)
	setString(&cc.LightlyPlayed, c.LightlyPlayed)
	setString(&cc.Played, c.Played)
	setString(&cc.Poor, c.Poor)

	if !inherited.IsSet() {
		// Without a base every token must be spelled out; an empty condition
		// token is almost always a typo.
		missing := []string{}
		for name, token := range map[string]*string{
			"mint": c.Mint, "near_mint": c.NearMint, "excellent": c.Excellent, "good": c.Good,
			"lightly_played": c.LightlyPlayed, "played": c.Played, "poor": c.Poor,
		} {
			if token == nil {
				missing = append(missing, name)
			}
		}
		if len(missing) > 0 {
			slices.Sort(missing)
			return vendor.ConditionConfig{}, fmt.Errorf("condition tokens missing: %s", strings.Join(missing, ", "))
		}
	}
	if strings.TrimSpace(cc.Header) == "" {
		return vendor.ConditionConfig{}, fmt.Errorf("condition header is required")
	}
	return cc, nil
}

func (f *FinishFile) build(inherited vendor.Optional[vendor.FinishConfig]) (vendor.FinishConfig, error) {
	fc, _ := inherited.Get()
	setString(&fc.Header, f.Header)
	setString(&fc.Normal, f.Normal)
	setString(&fc.Foil, f.Foil)
	if f.Etched != nil {
		fc.Etched = vendor.Some(*f.Etched)
	}

	if !inherited.IsSet() && (f.Normal == nil || f.Foil == nil) {
		return vendor.FinishConfig{}, fmt.Errorf("finish tokens normal and foil are required")
	}
	if strings.TrimSpace(fc.Header) == "" {
		return vendor.FinishConfig{}, fmt.Errorf("finish header is required")
	}
	return fc, nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setOptional(dst *vendor.Optional[string], src *string) {
	if src != nil {
		*dst = vendor.Some(*src)
	}
}

// =============================================================================
// FILE I/O
// =============================================================================

// IsVendorFile reports whether path has a vendor file extension.
func IsVendorFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".toml":
		return true
	}
	return false
}

// LoadVendorFile decodes a vendor file, choosing the format by extension.
func LoadVendorFile(path string) (*VendorFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var file VendorFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		md, err := toml.Decode(string(data), &file)
		if err != nil {
			return nil, fmt.Errorf("failed to parse file: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("unknown keys: %v", undecoded)
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&file); err != nil {
			return nil, fmt.Errorf("failed to parse file: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported vendor file type %q", filepath.Ext(path))
	}

	if strings.TrimSpace(file.Name) == "" {
		file.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return &file, nil
}

// NewVendorFile converts a config back to its file form, for exporting a
// vendor as a starting point for a custom one.
func NewVendorFile(cfg vendor.Config) *VendorFile {
	ptr := func(s string) *string { return &s }
	optional := func(o vendor.Optional[string]) *string {
		if v, ok := o.Get(); ok {
			return &v
		}
		return nil
	}

	shortNames := cfg.CardName.ShortNames
	file := &VendorFile{
		Name:              cfg.Name,
		Description:       cfg.Description,
		FilePatterns:      cfg.FilePatterns,
		Quantity:          ptr(cfg.Quantity),
		CardName:          &CardNameFile{Header: ptr(cfg.CardName.Header), ShortNames: &shortNames},
		SetName:           optional(cfg.SetName),
		SetCode:           optional(cfg.SetCode),
		CollectorNumber:   optional(cfg.CollectorNumber),
		Language:          optional(cfg.Language),
		PricePaid:         optional(cfg.PricePaid),
		NameAbbreviations: cfg.CardName.Abbreviations,
	}
	if cfg.Delimiter != "" {
		file.Delimiter = ptr(cfg.Delimiter)
	}
	if cfg.Encoding != "" {
		file.Encoding = ptr(cfg.Encoding)
	}
	if cc, ok := cfg.Condition.Get(); ok {
		file.Condition = &ConditionFile{
			Header:        ptr(cc.Header),
			Mint:          ptr(cc.Mint),
			NearMint:      ptr(cc.NearMint),
			Excellent:     ptr(cc.Excellent),
			Good:          ptr(cc.Good),
			LightlyPlayed: ptr(cc.LightlyPlayed),
			Played:        ptr(cc.Played),
			Poor:          ptr(cc.Poor),
		}
	}
	if fc, ok := cfg.Finish.Get(); ok {
		file.Finish = &FinishFile{
			Header: ptr(fc.Header),
			Normal: ptr(fc.Normal),
			Foil:   ptr(fc.Foil),
			Etched: optional(fc.Etched),
		}
	}
	return file
}

// EncodeYAML renders the file as YAML.
func (f *VendorFile) EncodeYAML() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeTOML renders the file as TOML.
func (f *VendorFile) EncodeTOML() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(f); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// =============================================================================
// DIRECTORY LOADING
// =============================================================================

// LoadVendorConfigs loads every vendor file in dir, resolves "extends"
// against the registry and the other files, validates the results and
// registers them. A missing directory is not an error.
func LoadVendorConfigs(dir string, registry *vendor.Registry) ([]vendor.Config, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list vendor files: %w", err)
	}

	type pending struct {
		path string
		file *VendorFile
	}
	var queue []pending
	for _, entry := range entries {
		if entry.IsDir() || !IsVendorFile(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		file, err := LoadVendorFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
		queue = append(queue, pending{path: path, file: file})
	}

	// Files may extend each other in any order; resolve until no progress.
	var loaded []vendor.Config
	for len(queue) > 0 {
		var next []pending
		for _, p := range queue {
			var base *vendor.Config
			if p.file.Extends != "" {
				b, err := registry.Lookup(p.file.Extends)
				if err != nil {
					next = append(next, p)
					continue
				}
				base = &b
			}

			cfg, err := p.file.Build(base)
			if err != nil {
				return nil, fmt.Errorf("failed to load %s: %w", p.path, err)
			}
			if result := validation.ValidateVendor(cfg); !result.IsValid {
				return nil, fmt.Errorf("invalid vendor %s: %s", p.path, strings.Join(result.Messages(), "; "))
			}
			registry.Register(cfg)
			loaded = append(loaded, cfg)
		}

		if len(next) == len(queue) {
			names := make([]string, len(next))
			for i, p := range next {
				names[i] = fmt.Sprintf("%s (extends %q)", p.path, p.file.Extends)
			}
			return nil, fmt.Errorf("unresolved vendor bases: %s", strings.Join(names, ", "))
		}
		queue = next
	}

	return loaded, nil
}
