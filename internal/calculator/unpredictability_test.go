package calculator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnpredictability_Flat(t *testing.T) {
	assert.Equal(t, 1.0, Unpredictability(flatPoints(300, 5), 50))
}

func TestUnpredictability_RisingRamp(t *testing.T) {
	// Normalised closes are 1..8; the centred averages on 3..6 come out as
	// 3, 3.8, 4.6, 5.4 because the leading sum trails the window.
	got := Unpredictability(makePoints(2, 4, 6, 8, 10, 12, 14, 16), 2)
	want := (1 + math.Exp2(-0.2) + math.Exp2(-0.4) + math.Exp2(-0.6)) / 4
	assert.InDelta(t, want, got, 1e-9)
	assert.Less(t, got, 1.0)
}

func TestUnpredictability_PenalisesDips(t *testing.T) {
	base := flatPoints(300, 10)
	dip := flatPoints(300, 10)
	spike := flatPoints(300, 10)
	dip[150].Close = 5
	spike[150].Close = 15

	flat := Unpredictability(base, 50)
	assert.Greater(t, Unpredictability(dip, 50), flat)
	// 2^x is not symmetric: a dip of the same size costs more than a spike.
	assert.Greater(t, Unpredictability(dip, 50), Unpredictability(spike, 50))
}

func TestUnpredictability_TooShort(t *testing.T) {
	assert.True(t, math.IsNaN(Unpredictability(flatPoints(100, 5), 50)))
	assert.True(t, math.IsNaN(Unpredictability(nil, 50)))
}
