package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockRanker/internal/model"
)

func scored(scores ...float64) []model.AnalysedStock {
	stocks := make([]model.AnalysedStock, len(scores))
	for i, s := range scores {
		stocks[i] = model.AnalysedStock{Symbol: string(rune('A' + i)), Score: s}
	}
	return stocks
}

func TestRank_NaN(t *testing.T) {
	ranked := Rank(scored(5.0, math.NaN(), 10.0))
	require.Len(t, ranked, 3)
	assert.Equal(t, 10.0, ranked[0].Score)
	assert.Equal(t, 5.0, ranked[1].Score)
	assert.True(t, math.IsNaN(ranked[2].Score))
}

func TestRank_NonFinite(t *testing.T) {
	ranked := Rank(scored(math.Inf(-1), math.NaN(), 1, math.Inf(1), -3, math.NaN()))
	got := make([]string, len(ranked))
	for i, s := range ranked {
		got[i] = s.Symbol
	}
	// +Inf, 1, -3, -Inf, then both NaNs in input order
	assert.Equal(t, []string{"D", "C", "E", "A", "B", "F"}, got)
}

func TestRank_Empty(t *testing.T) {
	assert.Empty(t, Rank(nil))
}

func TestTop(t *testing.T) {
	ranked := Rank(scored(1, 2, 3))
	assert.Len(t, Top(ranked, 2), 2)
	assert.Len(t, Top(ranked, 10), 3)
	assert.Len(t, Top(ranked, -1), 3)
}
