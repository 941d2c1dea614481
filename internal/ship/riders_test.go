package ship

import (
	"fmt"
	"testing"

	"github.com/annel0/voxel-ships/internal/lattice"
	"github.com/annel0/voxel-ships/internal/material"
	"github.com/annel0/voxel-ships/internal/vec"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func raftAtLevel(level int) map[vec.Vec3]material.BlockID {
	out := make(map[vec.Vec3]material.BlockID)
	for c, id := range lattice.Raft(3, 3, material.PlanksBlockID) {
		out[c.Add(vec.Vec3{Y: level})] = id
	}
	return out
}

func TestRidersOnAnyLevel(t *testing.T) {
	for _, level := range []int{0, 3, -1, -2, -5} {
		t.Run(fmt.Sprintf("level %d", level), func(t *testing.T) {
			world := newTestWorld(-100, UnknownWaterHeight)
			s := newTestShip(world, raftAtLevel(level), mgl64.Vec3{0, 10, 0}, quietOptions())

			// верх плота в мире на 10 + level + 1
			deck := float64(11 + level)
			rider := newTestEntity("rider", mgl64.Vec3{1.5, deck, 1.5})
			hovering := newTestEntity("hovering", mgl64.Vec3{0.5, deck + 1, 0.5})
			world.entities = append(world.entities, rider, hovering)

			assert.True(t, s.IsEntityCloseEnoughToRide(rider.BoundingBox()))
			assert.False(t, s.IsEntityCloseEnoughToRide(hovering.BoundingBox()))

			riders := s.Riders()
			require.Len(t, riders, 1)
			assert.Equal(t, "rider", riders[0].EntityID())

			s.SetVelocity(Velocity{Linear: mgl64.Vec3{0.5, 0, -0.25}})
			res := s.Tick()
			require.True(t, res.Moved)
			assert.Equal(t, 1, res.Riders)

			want := mgl64.Vec3{1.5, deck, 1.5}.Add(res.Delta)
			assert.InDelta(t, 0, rider.pose.Position.Sub(want).Len(), 1e-9)
			assert.Equal(t, mgl64.Vec3{0.5, deck + 1, 0.5}, hovering.pose.Position)
		})
	}
}

func TestRidersOnShipLaunchedFromMast(t *testing.T) {
	world := newTestWorld(0, UnknownWaterHeight)
	buildInWorld(world, lattice.Raft(3, 3, material.PlanksBlockID), vec.Vec3{X: 10, Y: 20, Z: 10})
	world.SetBlockID(vec.Vec3{X: 11, Y: 21, Z: 11}, material.LogBlockID)
	world.SetBlockID(vec.Vec3{X: 11, Y: 22, Z: 11}, material.LogBlockID)

	// затравка на верхушке мачты: палуба оказывается на уровне -2
	seed := vec.Vec3{X: 11, Y: 22, Z: 11}
	s, err := Launch("mast", world, world.materials, seed, 100, UnknownWaterHeight, quietOptions())
	require.NoError(t, err)
	bounds, ok := s.Blocks().BoundingBox()
	require.True(t, ok)
	require.Equal(t, -2, bounds.Min.Y)

	rider := newTestEntity("rider", mgl64.Vec3{10.5, 21, 10.5})
	world.entities = append(world.entities, rider)

	riders := s.Riders()
	require.Len(t, riders, 1)

	s.SetVelocity(Velocity{Linear: mgl64.Vec3{0, 0, 0.5}, Yaw: 0.05})
	res := s.Tick()
	require.True(t, res.Moved)
	assert.Equal(t, 1, res.Riders)

	// пассажир остался на том же блоке палубы
	local := s.Frame().WorldToBlocks(rider.pose.Position)
	assert.InDelta(t, -0.5, local[0], 1e-9)
	assert.InDelta(t, -1, local[1], 1e-9)
	assert.InDelta(t, -0.5, local[2], 1e-9)
}
