package vec

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

func TestFloorVec3(t *testing.T) {
	assert.Equal(t, Vec3{X: -1, Y: 63, Z: 0}, FloorVec3(mgl64.Vec3{-0.2, 63.99, 0.5}))
	assert.Equal(t, Vec3{X: -2, Y: -1, Z: 3}, FloorVec3(mgl64.Vec3{-1.0001, -1, 3}))
}

func TestVec3Ops(t *testing.T) {
	a := Vec3{X: 1, Y: 2, Z: 3}
	b := Vec3{X: -4, Y: 0, Z: 7}

	assert.Equal(t, Vec3{X: -3, Y: 2, Z: 10}, a.Add(b))
	assert.Equal(t, Vec3{X: 5, Y: 2, Z: -4}, a.Sub(b))
	assert.True(t, a.Add(b).Sub(b).Equals(a))
	assert.Equal(t, mgl64.Vec3{1.5, 2.5, 3.5}, a.Center())
	assert.Equal(t, mgl64.Vec3{-4, 0, 7}, b.Float())
}

func TestSetOrder(t *testing.T) {
	s := NewSet(
		Vec3{X: 1, Y: 0, Z: 0},
		Vec3{X: 0, Y: 1, Z: 0},
		Vec3{X: 0, Y: 0, Z: 5},
		Vec3{X: 0, Y: 0, Z: 1},
	)
	s.Add(Vec3{X: 0, Y: 0, Z: 1})

	assert.Equal(t, []Vec3{
		{X: 0, Y: 0, Z: 1},
		{X: 0, Y: 0, Z: 5},
		{X: 0, Y: 1, Z: 0},
		{X: 1, Y: 0, Z: 0},
	}, s.Sorted())

	other := NewSet(Vec3{X: 0, Y: 1, Z: 0}, Vec3{X: 9, Y: 9, Z: 9})
	assert.Equal(t, []Vec3{{X: 0, Y: 0, Z: 1}, {X: 0, Y: 0, Z: 5}, {X: 1, Y: 0, Z: 0}}, s.Diff(other))
	assert.Empty(t, NewSet().Diff(other))
	assert.False(t, s.Contains(Vec3{X: 9, Y: 9, Z: 9}))
}
