package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"StockRanker/internal/model"
)

// Identifiers of the constituents table on the LSE index page.
const (
	constituentsTabID     = "1602cf04-c25b-4ea0-a9d6-64040d217877"
	constituentsComponent = "block_content%3Aafe540a2-2a0c-46af-8497-407dc4c7fd71"
)

// ListSymbols reads every result page of the index constituents table, in
// order. A failing page fails the whole listing.
func (c *LSEClient) ListSymbols(ctx context.Context) ([]model.Symbol, error) {
	var symbols []model.Symbol
	for page := 0; page < c.pages; page++ {
		got, err := c.symbolPage(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("list symbols page %d: %w", page, err)
		}
		symbols = append(symbols, got...)
	}
	c.log.Info().Str("index", c.index).Int("pages", c.pages).Int("symbols", len(symbols)).Msg("symbols listed")
	return symbols, nil
}

func (c *LSEClient) symbolPage(ctx context.Context, page int) ([]model.Symbol, error) {
	payload := fmt.Sprintf(`{"path": "ftse-constituents", `+
		`"parameters": "indexname%%3D%s%%26tab%%3Dtable%%26page%%3D%d%%26tabId%%3D%s", `+
		`"components": [{"componentId": "%s"}]}`,
		c.index, page, constituentsTabID, constituentsComponent)

	req, err := http.NewRequest(http.MethodPost, c.lseURL+"/v1/components/refresh", bytes.NewBufferString(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	return parseConstituents(body)
}

// parseConstituents extracts (issuer name, TIDM) pairs from a components
// response, shaped [ {content: [ {value: {content: [records]}} ]} ].
// Records without both fields are skipped.
func parseConstituents(body []byte) ([]model.Symbol, error) {
	var blocks []struct {
		Content []json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(body, &blocks); err != nil {
		return nil, fmt.Errorf("decode components: %w: %w", model.ErrParse, err)
	}
	if len(blocks) == 0 || len(blocks[0].Content) == 0 {
		return nil, fmt.Errorf("components: no content block: %w", model.ErrParse)
	}

	var component struct {
		Value *struct {
			Content []json.RawMessage `json:"content"`
		} `json:"value"`
	}
	if err := json.Unmarshal(blocks[0].Content[0], &component); err != nil {
		return nil, fmt.Errorf("decode component: %w: %w", model.ErrParse, err)
	}
	if component.Value == nil || component.Value.Content == nil {
		return nil, fmt.Errorf("components: no constituents table: %w", model.ErrParse)
	}

	symbols := make([]model.Symbol, 0, len(component.Value.Content))
	for _, raw := range component.Value.Content {
		var rec struct {
			IssuerName any `json:"issuername"`
			TIDM       any `json:"tidm"`
		}
		if err := json.Unmarshal(raw, &rec); err != nil {
			continue
		}
		name, okName := rec.IssuerName.(string)
		ticker, okTicker := rec.TIDM.(string)
		if !okName || !okTicker {
			continue
		}
		symbols = append(symbols, model.Symbol{Name: name, Ticker: ticker})
	}
	return symbols, nil
}

var errNoField = errors.New("field missing")
