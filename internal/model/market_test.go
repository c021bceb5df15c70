package model

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStockSeries_JSONShape(t *testing.T) {
	s := StockSeries{
		Name:   "Acme",
		Symbol: "ACM",
		Data:   []PricePoint{NewPricePoint("2024-01-02", 1.5), NewPricePoint("2024-01-03", 2)},
	}
	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Acme","symbol":"ACM","data":[["2024-01-02",1.5],["2024-01-03",2]]}`, string(data))

	var back StockSeries
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, s, back)
}

func TestPricePoint_RejectsBadShape(t *testing.T) {
	for _, in := range []string{
		`["2024-01-02"]`,
		`["2024-01-02", 1, 2]`,
		`["2024-01-02", null]`,
		`[1, 2]`,
		`{"date":"2024-01-02"}`,
		`["2024-01-02", "1.5"]`,
	} {
		var p PricePoint
		assert.Error(t, json.Unmarshal([]byte(in), &p), in)
	}
}

func TestAnalysedStock_NonFiniteAsNull(t *testing.T) {
	a := AnalysedStock{Name: "Flat", Symbol: "FLT", Score: math.NaN(), Volatility: 0, GrowthScore: math.Inf(1)}
	data, err := json.Marshal(a)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Nil(t, out["score"])
	assert.Nil(t, out["growthscore"])
	assert.Equal(t, 0.0, out["volatility"])
	assert.Equal(t, "FLT", out["symbol"])
}
