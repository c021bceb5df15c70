package calculator

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Volatility annualises the population standard deviation of the
// step-over-step ratios of ma (expressed as percentages). Lower is calmer.
func Volatility(ma []float64) float64 {
	if len(ma) < 2 {
		return math.NaN()
	}
	ratios := make([]float64, len(ma)-1)
	for i := range ratios {
		ratios[i] = 100 * ma[i+1] / ma[i]
	}
	n := float64(len(ratios))
	return 100 * stat.PopStdDev(ratios, nil) / math.Sqrt(n/365)
}
