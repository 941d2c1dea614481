package ship

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

func TestMapAngles(t *testing.T) {
	assert.InDelta(t, 3*math.Pi/2, MapZeroToTwoPi(-math.Pi/2), 1e-12)
	assert.InDelta(t, 0.5, MapZeroToTwoPi(0.5+4*math.Pi), 1e-12)
	assert.InDelta(t, math.Pi, MapMinusPiToPi(math.Pi), 1e-12)
	assert.InDelta(t, math.Pi, MapMinusPiToPi(-math.Pi), 1e-12)
	assert.InDelta(t, -math.Pi/2, MapMinusPiToPi(3*math.Pi/2), 1e-12)

	assert.InDelta(t, -178.0, WrapDegrees180(182), 1e-12)
	assert.InDelta(t, 10.0, WrapDegrees180(370), 1e-12)
	assert.InDelta(t, -180.0, WrapDegrees180(180), 1e-12)
}

func TestShortestArc(t *testing.T) {
	deg := mgl64.DegToRad
	tests := []struct {
		name     string
		from, to float64
		want     float64
	}{
		{"Same Angle", deg(30), deg(30), 0},
		{"Positive Small", deg(10), deg(40), deg(30)},
		{"Negative Small", deg(40), deg(10), deg(-30)},
		{"Across Pi Positive", deg(170), deg(-170), deg(20)},
		{"Across Pi Negative", deg(-170), deg(170), deg(-20)},
		{"Unnormalized Inputs", deg(10 + 720), deg(-10 - 360), deg(-20)},
		{"Opposite", 0, math.Pi, math.Pi},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ShortestArc(tt.from, tt.to)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.LessOrEqual(t, math.Abs(got), math.Pi+1e-12)
		})
	}
}
