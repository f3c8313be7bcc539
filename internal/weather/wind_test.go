package weather

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWindDirectionFromDegrees(t *testing.T) {
	tests := []struct {
		deg   float64
		label string
		shift int
	}{
		{0, "North", 0},
		{22.4, "North", 0},
		{359.9, "North", 0},
		{337.5, "North", 0},
		{22.5, "North-East", 2},
		{90, "East", 4},
		{112.5, "South-East", 2},
		{180, "South", -3},
		{225, "South-West", -2},
		{270, "West", -4},
		{337.4, "North-West", -1},
		{-45, "North-West", -1},
		{405, "North-East", 2},
	}

	for _, tt := range tests {
		got := WindDirectionFromDegrees(tt.deg)
		assert.Equal(t, tt.label, got.Label, "degrees %v", tt.deg)
		assert.Equal(t, tt.shift, got.Transposition, "degrees %v", tt.deg)
		assert.Equal(t, tt.deg, got.Degrees)
	}
}

func TestMeanBearingWrapsAroundNorth(t *testing.T) {
	mean := meanBearing([]float64{350, 10})
	assert.True(t, mean < 1 || mean > 359, "got %v", mean)
	assert.InDelta(t, 90, meanBearing([]float64{90}), 1e-9)
	assert.Equal(t, 0.0, meanBearing(nil))
}
