package physics

import (
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

func unitBox(x, y, z float64) AABB {
	return NewAABB(x, y, z, x+1, y+1, z+1)
}

func TestScalingToAvoidCollision(t *testing.T) {
	tests := []struct {
		name     string
		d        mgl64.Vec3
		moving   AABB
		external AABB
		want     float64
	}{
		{
			name:     "Half Way Along X",
			d:        mgl64.Vec3{1, 0, 0},
			moving:   unitBox(0, 0, 0),
			external: unitBox(1.5, 0, 0),
			want:     0.5,
		},
		{
			name:     "Negative Direction",
			d:        mgl64.Vec3{0, -2, 0},
			moving:   unitBox(0, 3, 0),
			external: unitBox(0, 1.5, 0),
			want:     0.25,
		},
		{
			name:     "Moving Away",
			d:        mgl64.Vec3{-1, 0, 0},
			moving:   unitBox(0, 0, 0),
			external: unitBox(1.5, 0, 0),
			want:     1.0,
		},
		{
			name:     "Already Touching",
			d:        mgl64.Vec3{1, 0, 0},
			moving:   unitBox(0, 0, 0),
			external: unitBox(1, 0, 0),
			want:     0.0,
		},
		{
			name:     "Touching Within Rounding",
			d:        mgl64.Vec3{0, -0.5, 0},
			moving:   unitBox(0, 1-1e-13, 0),
			external: unitBox(0, 0, 0),
			want:     0.0,
		},
		{
			name:     "No Motion",
			d:        mgl64.Vec3{},
			moving:   unitBox(0, 0, 0),
			external: unitBox(0.5, 0, 0),
			want:     1.0,
		},
		{
			name:     "Axis Violated First Wins",
			d:        mgl64.Vec3{1, 1, 0},
			moving:   unitBox(0, 0, 0),
			external: unitBox(1.25, 1.75, 0),
			want:     0.75,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ScalingToAvoidCollision(tt.d, tt.moving, tt.external), 1e-12)
		})
	}
}

func TestScalingAlwaysInUnitInterval(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 2000; i++ {
		d := mgl64.Vec3{rng.Float64()*4 - 2, rng.Float64()*4 - 2, rng.Float64()*4 - 2}
		moving := unitBox(rng.Float64()*4-2, rng.Float64()*4-2, rng.Float64()*4-2)
		external := unitBox(rng.Float64()*4-2, rng.Float64()*4-2, rng.Float64()*4-2)

		s := ScalingToAvoidCollision(d, moving, external)
		assert.GreaterOrEqual(t, s, 0.0)
		assert.LessOrEqual(t, s, 1.0)
	}
}

func TestAvoidCollisions(t *testing.T) {
	current := unitBox(0, 0, 0)
	d := mgl64.Vec3{1, 0, 0}
	moving := []MovingBox{{Current: current, Next: current.Offset(d)}}

	t.Run("No Overlap", func(t *testing.T) {
		scale, collided := AvoidCollisions(d, moving, []AABB{unitBox(5, 0, 0), unitBox(1, 2, 0)})
		assert.False(t, collided)
		assert.Equal(t, 1.0, scale)
	})

	t.Run("Minimum Over Pairs", func(t *testing.T) {
		scale, collided := AvoidCollisions(d, moving, []AABB{unitBox(1.5, 0, 0), unitBox(1.25, 0.5, 0)})
		assert.True(t, collided)
		assert.InDelta(t, 0.25, scale, 1e-12)
	})
}
