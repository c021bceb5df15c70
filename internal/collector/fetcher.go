package collector

import (
	"context"

	"StockRanker/internal/model"
)

// SymbolLister lists the constituents of the reference index.
type SymbolLister interface {
	ListSymbols(ctx context.Context) ([]model.Symbol, error)
}

// TokenProvider obtains a bearer token for the history endpoints.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// HistoryFetcher retrieves the full daily close history of one ticker.
type HistoryFetcher interface {
	FetchHistory(ctx context.Context, ticker, token string) ([]model.PricePoint, error)
	Name() string
}

// Describer looks up a human readable name for a ticker.
type Describer interface {
	DisplayName(ctx context.Context, ticker, token string) (string, error)
}

// StaticToken is a TokenProvider for sources that need no login.
type StaticToken string

func (s StaticToken) Token(context.Context) (string, error) { return string(s), nil }
