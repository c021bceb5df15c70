package model

import (
	"encoding/json"
	"math"
)

// DatedValue is one sample of a derived series. On the wire it is a
// [date, value] pair, like PricePoint.
type DatedValue struct {
	Date  string
	Value float64
}

func (d DatedValue) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{d.Date, finiteOrNil(d.Value)})
}

// AnalysedStock holds every metric derived for one stock in a single run.
// It is never persisted.
type AnalysedStock struct {
	Name             string
	Symbol           string
	Data             []PricePoint // trimmed history
	MovingAverage    []DatedValue
	MonthChange      float64 // percent, over the last 30 averaged samples
	GrowthScore      float64
	Volatility       float64
	Unpredictability float64
	Score            float64 // composite; may be NaN or ±Inf
}

// MarshalJSON writes non-finite metrics as null since JSON has no NaN or Inf.
func (a AnalysedStock) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name             string       `json:"name"`
		Symbol           string       `json:"symbol"`
		Data             []PricePoint `json:"data"`
		MovingAverage    []DatedValue `json:"movingavg"`
		MonthChange      *float64     `json:"monthinc"`
		GrowthScore      *float64     `json:"growthscore"`
		Volatility       *float64     `json:"volatility"`
		Unpredictability *float64     `json:"unpredictability"`
		Score            *float64     `json:"score"`
	}{
		Name:             a.Name,
		Symbol:           a.Symbol,
		Data:             a.Data,
		MovingAverage:    a.MovingAverage,
		MonthChange:      finiteOrNil(a.MonthChange),
		GrowthScore:      finiteOrNil(a.GrowthScore),
		Volatility:       finiteOrNil(a.Volatility),
		Unpredictability: finiteOrNil(a.Unpredictability),
		Score:            finiteOrNil(a.Score),
	})
}

func finiteOrNil(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
