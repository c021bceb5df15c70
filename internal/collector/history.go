package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"StockRanker/internal/model"
)

const historyFrom = "1970-01-01T00:00:00"

// FetchHistory resolves ticker to its RIC and downloads the whole daily
// close history up to the end of today (UTC). Only the history request is
// retried.
func (c *LSEClient) FetchHistory(ctx context.Context, ticker, token string) ([]model.PricePoint, error) {
	ric, err := c.resolveRIC(ctx, ticker)
	if err != nil {
		return nil, err
	}

	policy := c.retry
	policy.OnRetry = func(attempt int, err error) {
		c.log.Warn().Err(err).Str("ticker", ticker).Int("attempt", attempt).Msg("history request failed, trying again")
		if c.retry.OnRetry != nil {
			c.retry.OnRetry(attempt, err)
		}
	}
	body, err := Retry(ctx, policy, func(ctx context.Context) ([]byte, error) {
		return c.historyRequest(ctx, ric, token)
	})
	if err != nil {
		return nil, fmt.Errorf("history %s: %w", ticker, err)
	}

	points, err := parseHistory(body)
	if err != nil {
		return nil, fmt.Errorf("history %s: %w", ticker, err)
	}
	c.log.Debug().Str("ticker", ticker).Str("ric", ric).Int("points", len(points)).Msg("history fetched")
	return points, nil
}

func (c *LSEClient) historyRequest(ctx context.Context, ric, token string) ([]byte, error) {
	now := c.now().UTC()
	to := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 0, time.UTC).Format("2006-01-02T15:04:05")
	u := fmt.Sprintf("%s/rest/api/timeseries/historical?ric=%s&fids=_DATE_END,CLOSE_PRC,HIGH_1,OPEN_PRC,LOW_1"+
		"&samples=D&appendRecentData=all&toDate=%s&fromDate=%s",
		c.widgetsURL, url.QueryEscape(ric), to, historyFrom)

	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("jwt", token)
	return c.do(ctx, req)
}

// parseHistory reads {"data": [{"_DATE_END": ..., "CLOSE_PRC": ...}]}.
// Records missing either field, or with an unreadable price, are skipped.
// A date reported twice keeps its first record.
func parseHistory(body []byte) ([]model.PricePoint, error) {
	var resp struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode history: %w: %w", model.ErrParse, err)
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("history: data %w: %w", errNoField, model.ErrParse)
	}

	points := make([]model.PricePoint, 0, len(resp.Data))
	for _, raw := range resp.Data {
		var rec struct {
			Date  any `json:"_DATE_END"`
			Close any `json:"CLOSE_PRC"`
		}
		if err := json.Unmarshal(raw, &rec); err != nil {
			continue
		}
		date, ok := rec.Date.(string)
		if !ok {
			continue
		}
		price, ok := toPrice(rec.Close)
		if !ok {
			continue
		}
		points = append(points, model.NewPricePoint(date, price))
	}
	return sortByDate(points), nil
}

// sortByDate orders points by date and keeps the first point of each date.
func sortByDate(points []model.PricePoint) []model.PricePoint {
	slices.SortStableFunc(points, func(a, b model.PricePoint) int { return strings.Compare(a.Date, b.Date) })
	return slices.CompactFunc(points, func(a, b model.PricePoint) bool { return a.Date == b.Date })
}

// toPrice accepts the price as a decimal string (what the API sends) or a
// JSON number.
func toPrice(v any) (float32, bool) {
	switch p := v.(type) {
	case string:
		f, err := strconv.ParseFloat(p, 32)
		if err != nil {
			return 0, false
		}
		return float32(f), true
	case float64:
		return float32(p), true
	default:
		return 0, false
	}
}

// resolveRIC translates an exchange ticker into the Refinitiv instrument
// code. Results are remembered for the life of the client.
func (c *LSEClient) resolveRIC(ctx context.Context, ticker string) (string, error) {
	c.mu.Lock()
	ric, ok := c.rics[ticker]
	c.mu.Unlock()
	if ok {
		return ric, nil
	}

	u := fmt.Sprintf("%s/gw/feedhandler/translate/ric?category=EQUITY&tidm=%s", c.lseURL, url.QueryEscape(ticker))
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}
	body, err := c.do(ctx, req)
	if err != nil {
		return "", fmt.Errorf("translate %s: %w", ticker, err)
	}
	var resp []struct {
		RIC string `json:"ric"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode translate %s: %w: %w", ticker, model.ErrParse, err)
	}
	if len(resp) == 0 || resp[0].RIC == "" {
		return "", fmt.Errorf("translate %s: ric %w: %w", ticker, errNoField, model.ErrParse)
	}

	c.mu.Lock()
	c.rics[ticker] = resp[0].RIC
	c.mu.Unlock()
	return resp[0].RIC, nil
}

// DisplayName returns the quote display name of ticker, or "" when the
// quote info carries none.
func (c *LSEClient) DisplayName(ctx context.Context, ticker, token string) (string, error) {
	ric, err := c.resolveRIC(ctx, ticker)
	if err != nil {
		return "", err
	}
	u := fmt.Sprintf("%s/rest/api/quote/info?rics=%s&fids=x._DSPLY_NAME", c.widgetsURL, url.QueryEscape(ric))
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("jwt", token)
	body, err := c.do(ctx, req)
	if err != nil {
		return "", fmt.Errorf("quote info %s: %w", ticker, err)
	}
	var resp struct {
		Data []map[string]any `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode quote info %s: %w: %w", ticker, model.ErrParse, err)
	}
	if len(resp.Data) == 0 {
		return "", nil
	}
	name, _ := resp.Data[0]["x._DSPLY_NAME"].(string)
	return name, nil
}

var (
	_ SymbolLister   = (*LSEClient)(nil)
	_ TokenProvider  = (*LSEClient)(nil)
	_ HistoryFetcher = (*LSEClient)(nil)
	_ Describer      = (*LSEClient)(nil)
)
