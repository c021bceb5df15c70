package calculator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecentRun(t *testing.T) {
	tests := []struct {
		name     string
		ma       []float64
		run      int
		momentum float64
	}{
		{
			name:     "rise then fall",
			ma:       []float64{1, 2, 3, 2, 1},
			run:      3,
			momentum: 100 * (1.0 - 3.0) / 3.0 * (math.Log2(3) + 1),
		},
		{
			name:     "fall then rise",
			ma:       []float64{5, 4, 3, 4, 5, 6},
			run:      4,
			momentum: 300,
		},
		{
			name:     "monotonic",
			ma:       []float64{1, 2, 4},
			run:      2,
			momentum: 600,
		},
		{
			name:     "flat",
			ma:       []float64{100, 100, 100, 100, 100, 100, 100, 100, 100, 100},
			run:      9,
			momentum: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			momentum, run := RecentRun(tt.ma)
			assert.Equal(t, tt.run, run)
			assert.InDelta(t, tt.momentum, momentum, 1e-9)
		})
	}
}

func TestRecentRun_TooShort(t *testing.T) {
	momentum, run := RecentRun([]float64{1})
	assert.Zero(t, momentum)
	assert.Zero(t, run)
}

func TestYearFactor(t *testing.T) {
	assert.Equal(t, 1.0, YearFactor(ramp(364), 365))

	ma := ramp(400)
	assert.InDelta(t, 400.0/36.0, YearFactor(ma, 365), 1e-12)
}

func TestMonthChange(t *testing.T) {
	ma := ramp(40)
	assert.InDelta(t, (40.0-11.0)/11.0*100, MonthChange(ma, 30), 1e-12)
	assert.True(t, math.IsNaN(MonthChange(ramp(10), 30)))
}

func TestGrowthScore_AppliesYearFactor(t *testing.T) {
	ma := ramp(365)
	momentum, run := RecentRun(ma)
	assert.Equal(t, 364, run)
	assert.InDelta(t, momentum*365, GrowthScore(ma, 365), 1e-6)

	// A shorter history is not adjusted.
	short := ramp(100)
	m, _ := RecentRun(short)
	assert.Equal(t, m, GrowthScore(short, 365))
}

func TestGrowthScore_FallingYearShrinksScore(t *testing.T) {
	ma := make([]float64, 400)
	for i := range ma {
		ma[i] = 1000 - float64(i)
	}
	// Turn the last step upwards so the run is short and positive.
	ma[len(ma)-1] = ma[len(ma)-2] + 1

	momentum, _ := RecentRun(ma)
	score := GrowthScore(ma, 365)
	assert.Greater(t, momentum, 0.0)
	assert.Greater(t, score, 0.0)
	assert.Less(t, score, momentum)
}

// ramp returns 1, 2, ..., n.
func ramp(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i + 1)
	}
	return out
}
