package calculator

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockRanker/internal/model"
)

func makePoints(closes ...float32) []model.PricePoint {
	points := make([]model.PricePoint, len(closes))
	for i, c := range closes {
		points[i] = model.NewPricePoint(fmt.Sprintf("day-%04d", i), c)
	}
	return points
}

func flatPoints(n int, price float32) []model.PricePoint {
	closes := make([]float32, n)
	for i := range closes {
		closes[i] = price
	}
	return makePoints(closes...)
}

func TestMovingAverage_Length(t *testing.T) {
	points := flatPoints(10, 100)
	tests := []struct {
		period int
		want   int
	}{
		{1, 10},
		{3, 8},
		{10, 1},
		{11, 0},
		{50, 0},
	}
	for _, tt := range tests {
		ma, err := MovingAverage(points, tt.period)
		require.NoError(t, err)
		assert.Len(t, ma, tt.want, "period %d", tt.period)
	}
}

func TestMovingAverage_Values(t *testing.T) {
	ma, err := MovingAverage(makePoints(1, 2, 3, 4, 5), 2)
	require.NoError(t, err)
	require.Len(t, ma, 4)

	assert.Equal(t, []float64{1.5, 2.5, 3.5, 4.5}, Values(ma))
	assert.Equal(t, "day-0001", ma[0].Date)
	assert.Equal(t, "day-0004", ma[3].Date)
}

func TestMovingAverage_InvalidPeriod(t *testing.T) {
	_, err := MovingAverage(makePoints(1, 2), 0)
	assert.Error(t, err)
}

func TestTrim(t *testing.T) {
	long := flatPoints(4000, 1)
	trimmed := Trim(long, 3650)
	require.Len(t, trimmed, 3650)
	assert.Equal(t, long[len(long)-1], trimmed[len(trimmed)-1])
	assert.Equal(t, long[350], trimmed[0])

	short := flatPoints(20, 1)
	assert.Len(t, Trim(short, 3650), 20)
}

func TestCentredMovingAverage_Linear(t *testing.T) {
	values := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	got := CentredMovingAverage(values, 2)
	assert.InDeltaSlice(t, []float64{2, 2.8, 3.6, 4.4, 5.2, 6}, got, 1e-12)
}

func TestCentredMovingAverage_LeadingSequence(t *testing.T) {
	// Squares make the admitted/dropped pair visible: a true sliding window
	// would give 6, 11, 18, 27 for the samples centred on 2..5.
	values := []float64{0, 1, 4, 9, 16, 25, 36, 49}
	got := CentredMovingAverage(values, 2)
	require.Len(t, got, 4)
	assert.InDeltaSlice(t, []float64{6, 9.2, 14, 20.4}, got, 1e-12)
}

func TestCentredMovingAverage_Flat(t *testing.T) {
	values := make([]float64, 30)
	for i := range values {
		values[i] = 3
	}
	got := CentredMovingAverage(values, 5)
	require.Len(t, got, 20)
	for _, v := range got {
		assert.InDelta(t, 3.0, v, 1e-12)
	}
}

func TestCentredMovingAverage_TooShort(t *testing.T) {
	assert.Empty(t, CentredMovingAverage([]float64{1, 2, 3, 4}, 2))
	assert.Empty(t, CentredMovingAverage(nil, 50))
}
