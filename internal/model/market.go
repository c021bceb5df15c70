package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// PricePoint is one daily close. On the wire it is a [date, close] pair.
type PricePoint struct {
	_msgpack struct{} `msgpack:",as_array"`

	Date  string
	Close float32
}

// NewPricePoint builds a PricePoint.
func NewPricePoint(date string, close float32) PricePoint {
	return PricePoint{Date: date, Close: close}
}

func (p PricePoint) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{p.Date, p.Close})
}

func (p *PricePoint) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("price point: %w", err)
	}
	if len(raw) != 2 {
		return fmt.Errorf("price point: want 2 elements, got %d", len(raw))
	}
	if isNull(raw[0]) || isNull(raw[1]) {
		return fmt.Errorf("price point: null element")
	}
	if err := json.Unmarshal(raw[0], &p.Date); err != nil {
		return fmt.Errorf("price point date: %w", err)
	}
	if err := json.Unmarshal(raw[1], &p.Close); err != nil {
		return fmt.Errorf("price point close: %w", err)
	}
	return nil
}

func isNull(b json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(b), []byte("null"))
}

// Symbol is one index constituent as listed by the symbol directory.
type Symbol struct {
	Name   string
	Ticker string
}

// StockSeries is the full daily history of one ticker, ascending by date.
// It is the unit stored in the history cache.
type StockSeries struct {
	Name   string       `json:"name" msgpack:"name"`
	Symbol string       `json:"symbol" msgpack:"symbol"`
	Data   []PricePoint `json:"data" msgpack:"data"`
}

// Closes extracts close prices from points, widened to float64.
func Closes(points []PricePoint) []float64 {
	closes := make([]float64, len(points))
	for i, p := range points {
		closes[i] = float64(p.Close)
	}
	return closes
}
