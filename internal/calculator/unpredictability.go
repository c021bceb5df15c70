package calculator

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"StockRanker/internal/model"
)

// Unpredictability normalises the prices by the first one, takes a centred
// moving average with the given half window, and averages
// 2^(centred - normalised) over every covered point.
//
// The measure is asymmetric: prices above their local average weigh less
// than prices below it. Series too short for one full window give NaN.
func Unpredictability(points []model.PricePoint, half int) float64 {
	if len(points) == 0 {
		return math.NaN()
	}
	normed := model.Closes(points)
	first := normed[0]
	for i := range normed {
		normed[i] /= first
	}

	centred := CentredMovingAverage(normed, half)
	if len(centred) == 0 {
		return math.NaN()
	}
	deviation := make([]float64, len(centred))
	for i, avg := range centred {
		deviation[i] = math.Exp2(avg - normed[half+i])
	}
	return stat.Mean(deviation, nil)
}
