// Package currency resolves exchange rates between ISO 4217 currencies.
//
// The resolver is an injected dependency of the receipt flow: the ledger core
// never fetches rates itself, it only consumes the rate already stored on a
// receipt. The cache lives on the resolver instance, not in package state.
package currency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// ErrUnknownCurrency indicates a currency code the rate source does not know.
var ErrUnknownCurrency = errors.New("unknown currency")

// IsSupported reports whether code is a known ISO 4217 currency.
func IsSupported(code string) bool {
	return money.GetCurrency(strings.ToUpper(code)) != nil
}

// Resolver resolves an exchange rate from one currency to another.
type Resolver interface {
	Rate(ctx context.Context, from, to string) (decimal.Decimal, error)
}

// CachedResolver fetches rates from an open.er-api.com-compatible endpoint
// and caches each base currency's rate table for a TTL.
type CachedResolver struct {
	client  *http.Client
	baseURL string
	ttl     time.Duration

	mu    sync.Mutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	rates     map[string]float64
	fetchedAt time.Time
}

// rateResponse is the shape of the er-api latest-rates payload.
type rateResponse struct {
	Result string             `json:"result"`
	Rates  map[string]float64 `json:"rates"`
}

// NewCachedResolver creates a resolver against the given base URL
// (e.g. "https://open.er-api.com/v6/latest") with the given cache TTL.
func NewCachedResolver(baseURL string, ttl time.Duration) *CachedResolver {
	return &CachedResolver{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		ttl:     ttl,
		cache:   make(map[string]cacheEntry),
	}
}

// Rate returns the from→to exchange rate quantized to 6 fractional digits.
// Same-currency lookups return 1 without touching the network.
func (r *CachedResolver) Rate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	from = strings.ToUpper(from)
	to = strings.ToUpper(to)

	if from == to {
		return decimal.New(1, 0), nil
	}

	rates, err := r.rates(ctx, from)
	if err != nil {
		return decimal.Zero, err
	}

	rate, ok := rates[to]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownCurrency, to)
	}

	// Parse through strconv rather than NewFromFloat so the decimal matches
	// the rate as printed, then quantize to the stored precision.
	d, err := decimal.NewFromString(strconv.FormatFloat(rate, 'f', -1, 64))
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse rate %v: %w", rate, err)
	}
	return d.Round(6), nil
}

func (r *CachedResolver) rates(ctx context.Context, from string) (map[string]float64, error) {
	r.mu.Lock()
	entry, ok := r.cache[from]
	r.mu.Unlock()
	if ok && time.Since(entry.fetchedAt) < r.ttl {
		return entry.rates, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/"+from, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build rate request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rates for %s: %w", from, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rate source returned %d for %s", resp.StatusCode, from)
	}

	var payload rateResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode rate response: %w", err)
	}
	if len(payload.Rates) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCurrency, from)
	}

	r.mu.Lock()
	r.cache[from] = cacheEntry{rates: payload.Rates, fetchedAt: time.Now()}
	r.mu.Unlock()

	return payload.Rates, nil
}
