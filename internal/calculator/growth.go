package calculator

import (
	"cmp"
	"math"
)

// MonthChange returns the percentage change between the value `samples`
// positions before the end and the final value.
func MonthChange(ma []float64, samples int) float64 {
	if samples <= 0 || len(ma) < samples {
		return math.NaN()
	}
	start := ma[len(ma)-samples]
	end := ma[len(ma)-1]
	return (end - start) / start * 100
}

// YearFactor is the ratio of the final value to the value `samples`
// positions earlier, or 1 when the series is too short.
func YearFactor(ma []float64, samples int) float64 {
	if samples <= 0 || len(ma) < samples {
		return 1.0
	}
	return ma[len(ma)-1] / ma[len(ma)-samples]
}

// RecentRun measures the latest unbroken monotonic run of ma, walking back
// from the end. The direction is that of the final step; the walk stops at
// the first step going the other way. The returned run counts the steps
// visited, including the one that broke the trend. momentum is the percent
// change across the run scaled by log2(run)+1.
func RecentRun(ma []float64) (momentum float64, run int) {
	if len(ma) < 2 {
		return 0, 0
	}
	last := ma[len(ma)-1]
	dir := cmp.Compare(last, ma[len(ma)-2])

	prev := last
	for i := len(ma) - 2; i >= 0; i-- {
		run++
		if cmp.Compare(prev, ma[i]) != dir {
			break
		}
		prev = ma[i]
	}

	pct := 100 * (last - prev) / prev
	return pct * (math.Log2(float64(run)) + 1), run
}

// GrowthScore is the recent-run momentum multiplied by the year factor.
// A falling year (factor below 1) shrinks the score towards zero rather
// than flipping its sign.
func GrowthScore(ma []float64, yearSamples int) float64 {
	momentum, _ := RecentRun(ma)
	return momentum * YearFactor(ma, yearSamples)
}
