package ship

import (
	"testing"

	"github.com/annel0/voxel-ships/internal/lattice"
	"github.com/annel0/voxel-ships/internal/material"
	"github.com/annel0/voxel-ships/internal/vec"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWaterTestShip(t *testing.T) (*testWorld, *Ship) {
	t.Helper()
	world := newTestWorld(0, 12)
	// корпус сидит в воде на два блока, клетка (1,1,1) запирает воздух
	s := newTestShip(world, lattice.Hull(3, 3, 1, material.PlanksBlockID), mgl64.Vec3{0, 10, 0}, quietOptions())
	return world, s
}

func TestUpdateWaterDisplacesOnlyChanges(t *testing.T) {
	world, s := newWaterTestShip(t)

	writes := s.UpdateWater()
	require.Greater(t, writes, 0)
	assert.Equal(t, writes, world.writes)
	assert.Equal(t, material.AirWallBlockID, world.BlockID(vec.Vec3{X: 1, Y: 11, Z: 1}))
	// выше поверхности вода не трогается
	assert.Equal(t, material.AirBlockID, world.BlockID(vec.Vec3{X: 1, Y: 12, Z: 1}))

	for _, c := range s.DisplacedWater() {
		assert.Less(t, c.Y, 12)
		assert.Equal(t, material.AirWallBlockID, world.BlockID(c))
	}

	// поза не менялась, записывать нечего
	assert.Zero(t, s.UpdateWater())
}

func TestWaterIsRestoredWhenHullLeaves(t *testing.T) {
	world, s := newWaterTestShip(t)
	first := s.UpdateWater()
	require.Greater(t, first, 0)
	displaced := s.DisplacedWater()

	// корпус поднят из воды, запертого воздуха ниже поверхности нет
	p := s.Pose()
	p.Position[1] += 5
	s.SetPose(p)

	assert.Equal(t, len(displaced), s.UpdateWater())
	assert.Empty(t, s.DisplacedWater())
	for _, c := range displaced {
		assert.Equal(t, material.WaterBlockID, world.BlockID(c))
	}
}

func TestDestroyRestoresWater(t *testing.T) {
	world, s := newWaterTestShip(t)
	require.Greater(t, s.UpdateWater(), 0)

	// кто-то поставил камень на место заглушки
	taken := vec.Vec3{X: 0, Y: 10, Z: 0}
	require.Equal(t, material.AirWallBlockID, world.BlockID(taken))
	world.SetBlockID(taken, material.StoneBlockID)

	s.Destroy()
	assert.Equal(t, StateDestroyed, s.State())
	assert.Equal(t, material.WaterBlockID, world.BlockID(vec.Vec3{X: 1, Y: 11, Z: 1}))
	assert.Equal(t, material.StoneBlockID, world.BlockID(taken))
	assert.Empty(t, s.DisplacedWater())

	// повторный вызов ничего не пишет
	writes := world.writes
	s.Destroy()
	assert.Equal(t, writes, world.writes)
}

func TestTickMovesWaterWithHull(t *testing.T) {
	world, s := newWaterTestShip(t)
	require.Greater(t, s.UpdateWater(), 0)

	s.SetVelocity(Velocity{Linear: mgl64.Vec3{2, 0, 0}})
	res := s.Tick()
	require.True(t, res.Moved)
	assert.Greater(t, res.WaterWrites, 0)

	for _, c := range s.DisplacedWater() {
		assert.Equal(t, material.AirWallBlockID, world.BlockID(c))
	}
	// клетка, из которой корпус ушёл, снова вода
	assert.Equal(t, material.WaterBlockID, world.BlockID(vec.Vec3{X: 0, Y: 11, Z: 1}))
}

func TestWaterRevertKeepsForeignBlocks(t *testing.T) {
	world, s := newWaterTestShip(t)
	require.Greater(t, s.UpdateWater(), 0)
	displaced := s.DisplacedWater()

	taken := vec.Vec3{X: 0, Y: 10, Z: 0}
	require.Equal(t, material.AirWallBlockID, world.BlockID(taken))
	world.SetBlockID(taken, material.StoneBlockID)

	p := s.Pose()
	p.Position[1] += 5
	s.SetPose(p)

	// камень не наш, в воду возвращаются только заглушки
	assert.Equal(t, len(displaced)-1, s.UpdateWater())
	assert.Empty(t, s.DisplacedWater())
	assert.Equal(t, material.StoneBlockID, world.BlockID(taken))
	for _, c := range displaced {
		if c != taken {
			assert.Equal(t, material.WaterBlockID, world.BlockID(c))
		}
	}
}
