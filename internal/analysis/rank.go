package analysis

import (
	"cmp"
	"slices"

	"StockRanker/internal/model"
)

// Rank sorts stocks by composite score, highest first, in place and returns
// the slice. cmp.Compare gives a total order over floats: +Inf leads,
// -Inf follows every finite score, and NaN sorts last. Ties keep their
// input order.
func Rank(stocks []model.AnalysedStock) []model.AnalysedStock {
	slices.SortStableFunc(stocks, func(a, b model.AnalysedStock) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return stocks
}

// Top returns at most n leading stocks of an already ranked slice.
func Top(ranked []model.AnalysedStock, n int) []model.AnalysedStock {
	if n < 0 || n >= len(ranked) {
		return ranked
	}
	return ranked[:n]
}
