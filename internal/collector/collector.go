package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"StockRanker/internal/model"
)

// ProgressFunc is told about each ticker just before it is fetched. An
// error aborts the batch.
type ProgressFunc func(model.Progress) error

// FetchResult describes the outcome of one ticker in a batch.
type FetchResult struct {
	Symbol  model.Symbol
	Points  int
	Elapsed time.Duration
	Err     error
}

// Collector fetches the history of every index constituent, strictly one
// ticker at a time.
type Collector struct {
	Directory SymbolLister
	Auth      TokenProvider
	Fetcher   HistoryFetcher
	Progress  ProgressFunc
	// AfterFetch, when set, observes every attempted ticker.
	AfterFetch func(FetchResult)

	log zerolog.Logger
}

// NewCollector creates a new Collector.
func NewCollector(dir SymbolLister, auth TokenProvider, fetcher HistoryFetcher, log zerolog.Logger) *Collector {
	return &Collector{
		Directory: dir,
		Auth:      auth,
		Fetcher:   fetcher,
		log:       log.With().Str("component", "collector").Logger(),
	}
}

// FetchAll lists the symbols, obtains one token for the batch, then fetches
// each ticker in discovery order. Any failure fails the batch; nothing
// partial is returned.
func (c *Collector) FetchAll(ctx context.Context) ([]model.StockSeries, error) {
	symbols, err := c.Directory.ListSymbols(ctx)
	if err != nil {
		return nil, fmt.Errorf("list symbols: %w", err)
	}
	token, err := c.Auth.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("get token: %w", err)
	}

	c.log.Info().Int("symbols", len(symbols)).Str("source", c.Fetcher.Name()).Msg("fetching price history")
	data := make([]model.StockSeries, 0, len(symbols))
	for i, s := range symbols {
		if c.Progress != nil {
			if err := c.Progress(model.Progress{Name: s.Name, Symbol: s.Ticker, Progress: i + 1}); err != nil {
				return nil, fmt.Errorf("report progress for %s: %w", s.Ticker, err)
			}
		}

		start := time.Now()
		points, err := c.Fetcher.FetchHistory(ctx, s.Ticker, token)
		if c.AfterFetch != nil {
			c.AfterFetch(FetchResult{Symbol: s, Points: len(points), Elapsed: time.Since(start), Err: err})
		}
		if err != nil {
			c.log.Error().Err(err).Str("ticker", s.Ticker).Msg("fetch failed, aborting batch")
			return nil, fmt.Errorf("fetch %s: %w", s.Ticker, err)
		}
		data = append(data, model.StockSeries{Name: s.Name, Symbol: s.Ticker, Data: points})
	}
	c.log.Info().Int("series", len(data)).Msg("price history fetched")
	return data, nil
}

// MockSource returns controllable fixed data for development and testing.
// Tickers without explicit data get a generated upward drifting series.
type MockSource struct {
	Symbols []model.Symbol
	Data    map[string][]model.PricePoint
	Days    int
	Start   time.Time
	Err     error // returned by every call when set

	Calls int // number of FetchHistory calls
}

func (m *MockSource) Name() string { return "mock" }

func (m *MockSource) ListSymbols(context.Context) ([]model.Symbol, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Symbols, nil
}

func (m *MockSource) Token(context.Context) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	return "mock-token", nil
}

func (m *MockSource) FetchHistory(_ context.Context, ticker, _ string) ([]model.PricePoint, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	if d, ok := m.Data[ticker]; ok {
		return d, nil
	}
	days := m.Days
	if days == 0 {
		days = 500
	}
	start := m.Start
	if start.IsZero() {
		start = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return generateMockPoints(float32(10+len(ticker)), days, start), nil
}

func (m *MockSource) DisplayName(_ context.Context, ticker, _ string) (string, error) {
	for _, s := range m.Symbols {
		if s.Ticker == ticker {
			return s.Name, nil
		}
	}
	return "", nil
}

func generateMockPoints(basePrice float32, count int, start time.Time) []model.PricePoint {
	points := make([]model.PricePoint, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float32(i-count/2)*0.001)
		points[i] = model.NewPricePoint(start.AddDate(0, 0, i).Format("2006-01-02"), p)
	}
	return points
}
