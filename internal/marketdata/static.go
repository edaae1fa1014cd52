package marketdata

import (
	"context"
	"fmt"
	"sync"
	"time"

	"lv-tradesense/internal/model"

	"github.com/shopspring/decimal"
)

// StaticFetcher serves operator-set prices. Used in development and tests.
type StaticFetcher struct {
	mu     sync.RWMutex
	prices map[string]decimal.Decimal
}

func NewStaticFetcher(prices map[string]decimal.Decimal) *StaticFetcher {
	f := &StaticFetcher{prices: make(map[string]decimal.Decimal, len(prices))}
	for sym, p := range prices {
		f.prices[NormalizeSymbol(sym)] = p
	}
	return f
}

func (f *StaticFetcher) Name() string { return "static" }

func (f *StaticFetcher) SetPrice(symbol string, price decimal.Decimal) {
	f.mu.Lock()
	f.prices[NormalizeSymbol(symbol)] = price
	f.mu.Unlock()
}

func (f *StaticFetcher) Fetch(_ context.Context, symbol string) (model.Quote, error) {
	f.mu.RLock()
	p, ok := f.prices[symbol]
	f.mu.RUnlock()
	if !ok {
		return model.Quote{}, fmt.Errorf("no static price for %s", symbol)
	}
	return model.Quote{Symbol: symbol, Price: p, AsOf: time.Now().UTC()}, nil
}
