package marketdata

import (
	"context"
	"errors"
	"strings"

	"lv-tradesense/internal/model"
)

var ErrUnavailable = errors.New("price unavailable")

// Provider returns a usable current quote or an error wrapping ErrUnavailable.
type Provider interface {
	GetPrice(ctx context.Context, symbol string) (model.Quote, error)
}

// Fetcher pulls a quote from an upstream source without caching.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, symbol string) (model.Quote, error)
}

var cryptoTickers = map[string]struct{}{
	"BTC": {}, "ETH": {}, "SOL": {}, "BNB": {},
}

// NormalizeSymbol upper-cases symbol and maps bare crypto tickers to their USD pair.
func NormalizeSymbol(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if _, ok := cryptoTickers[s]; ok {
		return s + "-USD"
	}
	return s
}
