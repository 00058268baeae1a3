// Package catalog resolves card names to canonical printings through a card
// database. The Scryfall client is the production implementation; Cache
// fronts any Catalog with an in-memory LRU.
package catalog

import (
	"context"
	"strings"

	"github.com/ginjaninja78/deck-csv-converter/internal/card"
	"github.com/ginjaninja78/deck-csv-converter/internal/types"
)

// Catalog looks up card printings. Unknown cards fail with types.ErrNotFound.
type Catalog interface {
	// Lookup resolves a card name, returning its default printing.
	Lookup(ctx context.Context, name string) (card.Printing, error)

	// LookupPrinting resolves a specific printing by set code and collector
	// number.
	LookupPrinting(ctx context.Context, setCode, collectorNumber string) (card.Printing, error)
}

// MapCatalog is a fixed in-memory catalog, used for offline runs and tests.
type MapCatalog struct {
	byName  map[string]card.Printing
	byPrint map[string]card.Printing
}

// NewMapCatalog indexes printings by name and by set/number. When several
// printings share a name the first one is the default.
func NewMapCatalog(printings ...card.Printing) *MapCatalog {
	m := &MapCatalog{
		byName:  make(map[string]card.Printing, len(printings)),
		byPrint: make(map[string]card.Printing, len(printings)),
	}
	for _, p := range printings {
		for _, key := range nameKeys(p.Name) {
			if _, ok := m.byName[key]; !ok {
				m.byName[key] = p
			}
		}
		m.byPrint[printKey(p.SetCode, p.CollectorNumber)] = p
	}
	return m
}

func (m *MapCatalog) Lookup(_ context.Context, name string) (card.Printing, error) {
	if p, ok := m.byName[normalize(name)]; ok {
		return p, nil
	}
	return card.Printing{}, types.NotFound("card", name)
}

func (m *MapCatalog) LookupPrinting(_ context.Context, setCode, collectorNumber string) (card.Printing, error) {
	if p, ok := m.byPrint[printKey(setCode, collectorNumber)]; ok {
		return p, nil
	}
	return card.Printing{}, types.NotFound("printing", setCode+" "+collectorNumber)
}

// A multi-faced card is also known by its front face.
func nameKeys(name string) []string {
	keys := []string{normalize(name)}
	if card.IsMultiFaced(name) {
		keys = append(keys, normalize(card.FrontFace(name)))
	}
	return keys
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func printKey(setCode, collectorNumber string) string {
	return strings.ToUpper(strings.TrimSpace(setCode)) + "/" + strings.TrimSpace(collectorNumber)
}
