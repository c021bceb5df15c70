package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"StockRanker/internal/model"
)

const DefaultYahooBaseURL = "https://query1.finance.yahoo.com"

// YahooFetcher implements HistoryFetcher using the Yahoo Finance chart API.
// It needs no token, so it pairs with StaticToken.
type YahooFetcher struct {
	BaseURL   string
	Suffix    string            // exchange suffix appended to tickers
	SymbolMap map[string]string // explicit ticker overrides
	Client    *http.Client
	Retry     RetryPolicy
	log       zerolog.Logger
}

// NewYahooFetcher creates a fetcher for London-listed tickers.
func NewYahooFetcher(proxyURL string, log zerolog.Logger) *YahooFetcher {
	return &YahooFetcher{
		BaseURL:   DefaultYahooBaseURL,
		Suffix:    ".L",
		SymbolMap: map[string]string{},
		Client:    NewHTTPClient(proxyURL, DefaultTimeout),
		Retry:     DefaultRetryPolicy(),
		log:       log.With().Str("component", "yahoo").Logger(),
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

// yahooSymbol maps an LSE TIDM to a Yahoo ticker: "BP." -> "BP.L",
// "BT.A" -> "BT-A.L".
func (f *YahooFetcher) yahooSymbol(ticker string) string {
	if mapped, ok := f.SymbolMap[ticker]; ok {
		return mapped
	}
	t := strings.TrimSuffix(ticker, ".")
	t = strings.ReplaceAll(t, ".", "-")
	return t + f.Suffix
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchHistory downloads the full daily history. The token is ignored.
func (f *YahooFetcher) FetchHistory(ctx context.Context, ticker, _ string) ([]model.PricePoint, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=max",
		f.BaseURL, url.PathEscape(f.yahooSymbol(ticker)))

	policy := f.Retry
	policy.OnRetry = func(attempt int, err error) {
		f.log.Warn().Err(err).Str("ticker", ticker).Int("attempt", attempt).Msg("yahoo request failed, trying again")
		if f.Retry.OnRetry != nil {
			f.Retry.OnRetry(attempt, err)
		}
	}
	body, err := Retry(ctx, policy, func(ctx context.Context) ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", "Mozilla/5.0")
		return doRequest(f.Client, req, f.log)
	})
	if err != nil {
		return nil, fmt.Errorf("yahoo %s: %w", ticker, err)
	}
	return parseYahooChart(body)
}

func parseYahooChart(body []byte) ([]model.PricePoint, error) {
	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w: %w", model.ErrParse, err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s: %w", chart.Chart.Error.Description, model.ErrParse)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo: no data returned: %w", model.ErrParse)
	}

	result := chart.Chart.Result[0]
	closes := result.Indicators.Quote[0].Close
	points := make([]model.PricePoint, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue // holidays and gaps come back as null
		}
		date := time.Unix(ts, 0).UTC().Format("2006-01-02")
		points = append(points, model.NewPricePoint(date, float32(*closes[i])))
	}

	return sortByDate(points), nil
}

var _ HistoryFetcher = (*YahooFetcher)(nil)
