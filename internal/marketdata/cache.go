package marketdata

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"lv-tradesense/internal/model"
	"lv-tradesense/internal/types"
)

// QuoteCache keeps the last quote per symbol. Quotes older than maxAge are not served.
type QuoteCache struct {
	mu     sync.RWMutex
	data   map[string]model.Quote
	maxAge time.Duration
	now    func() time.Time
}

func NewQuoteCache(maxAge time.Duration) *QuoteCache {
	return &QuoteCache{data: map[string]model.Quote{}, maxAge: maxAge, now: time.Now}
}

func (c *QuoteCache) Set(q model.Quote) {
	if q.Symbol == "" || !q.Price.IsPositive() {
		return
	}
	c.mu.Lock()
	if prev, ok := c.data[q.Symbol]; !ok || !q.AsOf.Before(prev.AsOf) {
		c.data[q.Symbol] = q
	}
	c.mu.Unlock()
}

// Fresh returns the cached quote if it is young enough to act on.
func (c *QuoteCache) Fresh(symbol string) (model.Quote, bool) {
	c.mu.RLock()
	q, ok := c.data[symbol]
	c.mu.RUnlock()
	if !ok {
		return model.Quote{}, false
	}
	if c.maxAge > 0 && c.now().Sub(q.AsOf) > c.maxAge {
		return q, false
	}
	return q, true
}

// CachedProvider serves fresh cached quotes and falls back to its fetcher.
type CachedProvider struct {
	cache   *QuoteCache
	fetcher Fetcher
	bus     *Bus
}

func NewCachedProvider(cache *QuoteCache, fetcher Fetcher, bus *Bus) *CachedProvider {
	return &CachedProvider{cache: cache, fetcher: fetcher, bus: bus}
}

func (p *CachedProvider) GetPrice(ctx context.Context, symbol string) (model.Quote, error) {
	symbol = NormalizeSymbol(symbol)
	if symbol == "" {
		return model.Quote{}, fmt.Errorf("%w: empty symbol", ErrUnavailable)
	}
	if q, ok := p.cache.Fresh(symbol); ok {
		return q, nil
	}
	if p.fetcher == nil {
		return model.Quote{}, fmt.Errorf("%w: no quote for %s", ErrUnavailable, symbol)
	}
	q, err := p.fetcher.Fetch(ctx, symbol)
	if err != nil {
		log.Printf("[quotes] %s fetch %s failed: %v", p.fetcher.Name(), symbol, err)
		return model.Quote{}, fmt.Errorf("%w: %s: %v", ErrUnavailable, symbol, err)
	}
	if !q.Price.IsPositive() {
		return model.Quote{}, fmt.Errorf("%w: %s returned non-positive price", ErrUnavailable, symbol)
	}
	q.Symbol = symbol
	p.cache.Set(q)
	if p.bus != nil {
		p.bus.Publish(Event{Type: types.EventTypeQuote, Data: q})
	}
	if q2, ok := p.cache.Fresh(symbol); ok {
		return q2, nil
	}
	return model.Quote{}, fmt.Errorf("%w: %s quote is stale", ErrUnavailable, symbol)
}

// Set stores a quote directly, bypassing the fetcher.
func (p *CachedProvider) Set(q model.Quote) {
	q.Symbol = NormalizeSymbol(q.Symbol)
	p.cache.Set(q)
	if p.bus != nil {
		p.bus.Publish(Event{Type: types.EventTypeQuote, Data: q})
	}
}
