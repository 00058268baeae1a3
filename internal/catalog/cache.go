package catalog

import (
	"context"

	"github.com/ginjaninja78/deck-csv-converter/internal/card"
	"github.com/ginjaninja78/deck-csv-converter/internal/types"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of lookups kept by NewCache when size is
// not positive.
const DefaultCacheSize = 4096

type entry struct {
	printing card.Printing
	err      error
}

// Cache memoizes lookups of another Catalog. NotFound results are cached
// too; transport errors are not.
type Cache struct {
	next    Catalog
	entries *lru.Cache[string, entry]
}

// NewCache wraps next.
func NewCache(next Catalog, size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	entries, err := lru.New[string, entry](size)
	if err != nil {
		return nil, err
	}
	return &Cache{next: next, entries: entries}, nil
}

func (c *Cache) Lookup(ctx context.Context, name string) (card.Printing, error) {
	return c.cached("name:"+normalize(name), func() (card.Printing, error) {
		return c.next.Lookup(ctx, name)
	})
}

func (c *Cache) LookupPrinting(ctx context.Context, setCode, collectorNumber string) (card.Printing, error) {
	return c.cached("print:"+printKey(setCode, collectorNumber), func() (card.Printing, error) {
		return c.next.LookupPrinting(ctx, setCode, collectorNumber)
	})
}

func (c *Cache) cached(key string, load func() (card.Printing, error)) (card.Printing, error) {
	if e, ok := c.entries.Get(key); ok {
		return e.printing, e.err
	}
	p, err := load()
	if err == nil || types.KindOf(err) == types.KindNotFound {
		c.entries.Add(key, entry{printing: p, err: err})
	}
	return p, err
}

// Len returns the number of cached lookups.
func (c *Cache) Len() int {
	return c.entries.Len()
}
