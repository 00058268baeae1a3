package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/ginjaninja78/deck-csv-converter/internal/card"
	"github.com/ginjaninja78/deck-csv-converter/internal/logger"
	"github.com/ginjaninja78/deck-csv-converter/internal/types"
	"github.com/go-resty/resty/v2"
)

// DefaultBaseURL is the public Scryfall API.
const DefaultBaseURL = "https://api.scryfall.com"

// ClientConfig configures the Scryfall client.
type ClientConfig struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration

	// MinInterval is the minimum delay between two requests. Scryfall asks
	// clients to stay under ten requests per second.
	MinInterval time.Duration

	RetryCount int

	// Fuzzy enables the fuzzy name search when an exact lookup misses.
	Fuzzy bool
}

// DefaultClientConfig returns the settings used when none are configured.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		BaseURL:     DefaultBaseURL,
		UserAgent:   "deckconv/1.0",
		Timeout:     10 * time.Second,
		MinInterval: 100 * time.Millisecond,
		RetryCount:  3,
		Fuzzy:       true,
	}
}

// ScryfallClient implements Catalog over the Scryfall REST API.
type ScryfallClient struct {
	client *resty.Client
	fuzzy  bool

	mu       sync.Mutex
	interval time.Duration
	last     time.Time
}

type scryfallCard struct {
	Name            string `json:"name"`
	Set             string `json:"set"`
	SetName         string `json:"set_name"`
	CollectorNumber string `json:"collector_number"`
}

type scryfallError struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Type    string `json:"type"`
	Details string `json:"details"`
}

// NewScryfallClient builds a client. Zero fields of cfg take their defaults.
func NewScryfallClient(cfg ClientConfig) *ScryfallClient {
	def := DefaultClientConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.RetryCount < 0 {
		cfg.RetryCount = 0
	}

	c := &ScryfallClient{fuzzy: cfg.Fuzzy, interval: cfg.MinInterval}
	c.client = resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", cfg.UserAgent).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(retryCondition).
		OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
			return c.throttle(r.Context())
		})
	return c
}

func retryCondition(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if r == nil {
		return false
	}
	code := r.StatusCode()
	return code == http.StatusTooManyRequests || code >= 500
}

// throttle spaces requests at least interval apart.
func (c *ScryfallClient) throttle(ctx context.Context) error {
	if c.interval <= 0 {
		return nil
	}
	c.mu.Lock()
	wait := time.Until(c.last.Add(c.interval))
	if wait < 0 {
		wait = 0
	}
	c.last = time.Now().Add(wait)
	c.mu.Unlock()

	if wait == 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Lookup resolves name with an exact search, then a fuzzy one.
func (c *ScryfallClient) Lookup(ctx context.Context, name string) (card.Printing, error) {
	p, err := c.named(ctx, "exact", name)
	if err == nil || !c.fuzzy || types.KindOf(err) != types.KindNotFound {
		return p, err
	}
	logger.FromContext(ctx).Debug("Exact card lookup missed, trying fuzzy search", "name", name)
	return c.named(ctx, "fuzzy", name)
}

func (c *ScryfallClient) named(ctx context.Context, mode, name string) (card.Printing, error) {
	return c.get(ctx, "card", name, func(r *resty.Request) (*resty.Response, error) {
		return r.SetQueryParam(mode, name).Get("/cards/named")
	})
}

// LookupPrinting resolves /cards/{set}/{number}.
func (c *ScryfallClient) LookupPrinting(ctx context.Context, setCode, collectorNumber string) (card.Printing, error) {
	subject := setCode + " " + collectorNumber
	path := fmt.Sprintf("/cards/%s/%s", url.PathEscape(setCode), url.PathEscape(collectorNumber))
	return c.get(ctx, "printing", subject, func(r *resty.Request) (*resty.Response, error) {
		return r.Get(path)
	})
}

func (c *ScryfallClient) get(
	ctx context.Context,
	subject, value string,
	do func(*resty.Request) (*resty.Response, error),
) (card.Printing, error) {
	var result scryfallCard
	var apiErr scryfallError

	resp, err := do(c.client.R().SetContext(ctx).SetResult(&result).SetError(&apiErr))
	if err != nil {
		return card.Printing{}, fmt.Errorf("catalog request failed: %w", err)
	}

	switch {
	case resp.StatusCode() == http.StatusNotFound:
		ce := types.NotFound(subject, value)
		if apiErr.Details != "" {
			ce.Err = errors.New(apiErr.Details)
		}
		return card.Printing{}, ce
	case resp.IsError():
		return card.Printing{}, fmt.Errorf("catalog returned %d for %s %q: %s", resp.StatusCode(), subject, value, apiErr.Details)
	}

	return card.NewPrinting(result.Name, result.SetName, result.Set, result.CollectorNumber), nil
}
