// Package fred reads economic series from the St. Louis Fed API.
package fred

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"

	"StockRanker/internal/collector"
	"StockRanker/internal/model"
)

const DefaultBaseURL = "https://api.stlouisfed.org/fred"

// Series is one FRED series. Values are kept as the API returns them; a
// missing observation is ".".
type Series struct {
	Title string      `json:"title"`
	Data  [][2]string `json:"data"`
}

// Client queries FRED.
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
	log     zerolog.Logger
}

// NewClient creates a client with optional proxy support.
func NewClient(apiKey, proxyURL string, log zerolog.Logger) *Client {
	return &Client{
		BaseURL: DefaultBaseURL,
		APIKey:  apiKey,
		HTTP:    collector.NewHTTPClient(proxyURL, collector.DefaultTimeout),
		log:     log.With().Str("component", "fred").Logger(),
	}
}

// Series fetches the observations and title of code. Observations without
// a date or value are dropped; a missing title is an error.
func (c *Client) Series(ctx context.Context, code string) (*Series, error) {
	var obs struct {
		Observations *[]struct {
			Date  *string `json:"date"`
			Value *string `json:"value"`
		} `json:"observations"`
	}
	if err := c.get(ctx, "series/observations", code, &obs); err != nil {
		return nil, err
	}
	if obs.Observations == nil {
		return nil, fmt.Errorf("fred %s: no observations: %w", code, model.ErrParse)
	}

	data := make([][2]string, 0, len(*obs.Observations))
	for _, o := range *obs.Observations {
		if o.Date == nil || o.Value == nil {
			continue
		}
		data = append(data, [2]string{*o.Date, *o.Value})
	}

	var meta struct {
		Seriess []struct {
			Title *string `json:"title"`
		} `json:"seriess"`
	}
	if err := c.get(ctx, "series", code, &meta); err != nil {
		return nil, err
	}
	if len(meta.Seriess) == 0 || meta.Seriess[0].Title == nil {
		return nil, fmt.Errorf("fred %s: no series title: %w", code, model.ErrParse)
	}

	c.log.Debug().Str("series", code).Int("observations", len(data)).Msg("fred series fetched")
	return &Series{Title: *meta.Seriess[0].Title, Data: data}, nil
}

func (c *Client) get(ctx context.Context, endpoint, code string, v any) error {
	q := url.Values{}
	q.Set("series_id", code)
	q.Set("api_key", c.APIKey)
	q.Set("file_type", "json")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/"+endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("fred %s: %w: %w", endpoint, model.ErrNetwork, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fred %s: status %d: %w", endpoint, resp.StatusCode, model.ErrNetwork)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("fred %s: %w: %w", endpoint, model.ErrParse, err)
	}
	return nil
}
