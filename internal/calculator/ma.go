package calculator

import (
	"errors"

	"StockRanker/internal/model"
)

// Trim keeps the most recent n points. Shorter series are returned whole.
func Trim(points []model.PricePoint, n int) []model.PricePoint {
	if n < 0 || len(points) <= n {
		return points
	}
	return points[len(points)-n:]
}

// MovingAverage computes the trailing simple moving average of the close
// prices over the given period. Each output sample carries the date of the
// last point in its window, so the result has len(points)-period+1 samples,
// or none when the series is shorter than the period.
func MovingAverage(points []model.PricePoint, period int) ([]model.DatedValue, error) {
	if period <= 0 {
		return nil, errors.New("period must be positive")
	}
	if len(points) < period {
		return nil, nil
	}
	result := make([]model.DatedValue, 0, len(points)-period+1)
	sum := 0.0
	for i, p := range points {
		sum += float64(p.Close)
		if i+1 < period {
			continue
		}
		result = append(result, model.DatedValue{Date: p.Date, Value: sum / float64(period)})
		sum -= float64(points[i+1-period].Close)
	}
	return result, nil
}

// CentredMovingAverage averages each value with the half values on either
// side of it. Only positions with a full window are covered, so the result
// has len(values)-2*half samples; sample k is centred on values[half+k].
//
// The window is held as a trailing and a leading accumulator seeded from the
// first full window. The trailing sum slides with the centre. The leading
// sum admits values[i+half] and drops values[i+1] at each centre i, so past
// the first sample it drifts from a true sliding window. Unpredictability
// scores are defined by this sequence.
func CentredMovingAverage(values []float64, half int) []float64 {
	n := len(values) - 2*half
	if half < 0 || n <= 0 {
		return nil
	}
	width := float64(2*half + 1)

	var trailing, leading float64
	for _, v := range values[:half] {
		trailing += v
	}
	for _, v := range values[half+1 : 2*half+1] {
		leading += v
	}

	result := make([]float64, 0, n)
	for i := half; i < half+n; i++ {
		centre := values[i]
		result = append(result, (trailing+centre+leading)/width)
		trailing += centre - values[i-half]
		leading += values[i+half] - values[i+1]
	}
	return result
}

// Values strips the dates from a derived series.
func Values(series []model.DatedValue) []float64 {
	values := make([]float64, len(series))
	for i, s := range series {
		values[i] = s.Value
	}
	return values
}
