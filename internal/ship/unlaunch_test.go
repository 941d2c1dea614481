package ship

import (
	"fmt"
	"math"
	"testing"

	"github.com/annel0/voxel-ships/internal/lattice"
	"github.com/annel0/voxel-ships/internal/material"
	"github.com/annel0/voxel-ships/internal/physics"
	"github.com/annel0/voxel-ships/internal/vec"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// placeShip ставит блок (0,0,0) корабля в точку anchor при рыскании yaw
func placeShip(s *Ship, anchor mgl64.Vec3, yaw float64) {
	com := s.Physics().CenterOfMass()
	s.SetPose(Pose{Position: anchor.Add(physics.RotateYaw(com, yaw)), Yaw: yaw})
}

func TestUnlaunchRotationSnap(t *testing.T) {
	tests := []struct {
		name     string
		yawDeg   float64
		rotation int
		deltaDeg float64
		aligned  bool
	}{
		{"Zero", 0, 0, 0, true},
		{"Slightly Past Half Turn", 182, 2, -2, true},
		{"Slightly Before Quarter", 85, 1, 5, true},
		{"Negative", -93, 3, 3, true},
		{"Diagonal", 30, 0, -30, false},
		{"Full Turn", 360 + 3, 0, -3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestShip(nil, lattice.Raft(2, 3, material.PlanksBlockID), mgl64.Vec3{}, quietOptions())
			placeShip(s, mgl64.Vec3{4, 2, 4}, mgl64.DegToRad(tt.yawDeg))

			u := NewUnlauncher(s)
			assert.Equal(t, tt.rotation, u.Rotation())
			assert.InDelta(t, mgl64.DegToRad(tt.deltaDeg), u.DeltaRotation(), 1e-9)
			assert.Equal(t, tt.aligned, u.Flag(AlignedToDirection))
		})
	}
}

func TestUnlaunchCorrespondence(t *testing.T) {
	blocks := lattice.Raft(3, 2, material.PlanksBlockID)
	blocks[vec.Vec3{X: 2, Y: 1, Z: 0}] = material.HelmBlockID

	for rotation := 0; rotation < 4; rotation++ {
		yaw := math.Pi / 2 * float64(rotation)
		t.Run(fmt.Sprintf("Yaw %d", rotation*90), func(t *testing.T) {
			s := newTestShip(nil, blocks, mgl64.Vec3{}, quietOptions())
			placeShip(s, mgl64.Vec3{10, 3, -4}, yaw)

			u := NewUnlauncher(s)
			require.Equal(t, rotation, u.Rotation())
			assert.Equal(t, vec.Vec3{X: 10, Y: 3, Z: -4}, u.Translation())
			require.Len(t, u.Correspondence(), len(blocks))

			// каждый блок попадает в ту клетку мира, где лежит центр блока
			frame := s.Frame()
			placed := make(vec.Set)
			for c, w := range u.Correspondence() {
				center := frame.BlocksToWorld(c.Center())
				assert.Equal(t, vec.FloorVec3(center), w, "block %v", c)
				placed.Add(w)
			}
			assert.Len(t, placed, len(blocks), "соответствие взаимно однозначно")
		})
	}
}

func TestUnlaunchFlags(t *testing.T) {
	assert.False(t, AlignedToDirection.OverrideAllowed())
	assert.True(t, TouchingOnlySeparatorBlocks.OverrideAllowed())
	assert.Equal(t, "aligned_to_direction", AlignedToDirection.String())
	assert.Equal(t, "touching_only_separator_blocks", TouchingOnlySeparatorBlocks.String())

	t.Run("Touching Non Separator", func(t *testing.T) {
		world := newTestWorld(0, UnknownWaterHeight)
		// чужой корпус вплотную к месту спуска
		world.SetBlockID(vec.Vec3{X: 6, Y: 5, Z: 5}, material.PlanksBlockID)
		s := newTestShip(world, lattice.Raft(2, 2, material.PlanksBlockID), mgl64.Vec3{}, quietOptions())
		placeShip(s, mgl64.Vec3{4, 5, 4}, 0)

		u := NewUnlauncher(s)
		assert.True(t, u.Flag(AlignedToDirection))
		assert.False(t, u.Flag(TouchingOnlySeparatorBlocks))
		assert.Equal(t, []UnlaunchFlag{TouchingOnlySeparatorBlocks}, u.FailedFlags())

		assert.False(t, u.IsUnlaunchable(false))
		assert.True(t, u.IsUnlaunchable(true))
		err := u.Check(false)
		require.ErrorIs(t, err, ErrNotUnlaunchable)
		assert.Contains(t, err.Error(), "touching_only_separator_blocks")
		assert.NoError(t, u.Check(true))
	})

	t.Run("Not Aligned Cannot Be Overridden", func(t *testing.T) {
		world := newTestWorld(0, UnknownWaterHeight)
		s := newTestShip(world, lattice.Raft(2, 2, material.PlanksBlockID), mgl64.Vec3{}, quietOptions())
		placeShip(s, mgl64.Vec3{4, 5, 4}, mgl64.DegToRad(40))

		u := NewUnlauncher(s)
		assert.False(t, u.Flag(AlignedToDirection))
		assert.True(t, u.Flag(TouchingOnlySeparatorBlocks))
		assert.False(t, u.IsUnlaunchable(true))
		assert.ErrorIs(t, u.Check(true), ErrNotUnlaunchable)

		u.SnapToNearestDirection()
		assert.True(t, u.Flag(AlignedToDirection))
		assert.InDelta(t, 0, s.Pose().Yaw, 1e-12)
		assert.NoError(t, u.Check(false))
	})
}

func TestSnapToLaunchDirection(t *testing.T) {
	s := newTestShip(nil, lattice.Raft(2, 2, material.PlanksBlockID), mgl64.Vec3{}, quietOptions())
	placeShip(s, mgl64.Vec3{}, mgl64.DegToRad(170))

	u := NewUnlauncher(s)
	require.Equal(t, 2, u.Rotation())

	u.SnapToLaunchDirection()
	assert.Equal(t, 0.0, s.Pose().Yaw)
	assert.Equal(t, 0, u.Rotation())
	assert.InDelta(t, 0, u.DeltaRotation(), 1e-12)
}

func TestApplyUnlaunchMatchesBlocks(t *testing.T) {
	blocks := lattice.Raft(4, 3, material.PlanksBlockID)
	s := newTestShip(nil, blocks, mgl64.Vec3{}, quietOptions())
	placeShip(s, mgl64.Vec3{20.3, 7.4, -3.2}, mgl64.DegToRad(95))

	u := NewUnlauncher(s)
	require.Equal(t, 1, u.Rotation())

	frame := s.Frame()
	for c, w := range u.Correspondence() {
		// сущность стоит в центре верхней грани блока
		feet := c.Center().Add(mgl64.Vec3{0, 0.5, 0})
		e := newTestEntity("e", frame.BlocksToWorld(feet))
		e.pose.Yaw = 1

		u.ApplyUnlaunch(e)

		got := e.Pose().Position
		want := w.Center().Add(mgl64.Vec3{0, 0.5, 0})
		assert.InDelta(t, 0, got.Sub(want).Len(), 1e-9, "block %v", c)
		assert.InDelta(t, 1+u.DeltaRotation(), e.Pose().Yaw, 1e-12)
	}
}

func TestUnlaunchWritesBlocks(t *testing.T) {
	world := newTestWorld(0, 5)
	s := newTestShip(world, lattice.Hull(3, 3, 1, material.PlanksBlockID), mgl64.Vec3{10, 3, 10}, quietOptions())
	require.Greater(t, s.UpdateWater(), 0)

	u := NewUnlauncher(s)
	require.NoError(t, u.Check(false))
	assert.Equal(t, 2, u.WaterHeight())
	// запертый воздух ниже воды тоже переносится
	assert.Contains(t, u.Correspondence(), vec.Vec3{X: 1, Y: 1, Z: 1})

	u.Unlaunch()
	assert.Equal(t, StateDestroyed, s.State())

	for c := range lattice.Hull(3, 3, 1, material.PlanksBlockID) {
		assert.Equal(t, material.PlanksBlockID, world.BlockID(c.Add(vec.Vec3{X: 10, Y: 3, Z: 10})))
	}
	assert.Equal(t, material.AirBlockID, world.BlockID(vec.Vec3{X: 11, Y: 4, Z: 11}))
	// заглушки вне корпуса снова вода
	for x := 9; x <= 13; x++ {
		for z := 9; z <= 13; z++ {
			for y := 2; y <= 4; y++ {
				assert.NotEqual(t, material.AirWallBlockID, world.BlockID(vec.Vec3{X: x, Y: y, Z: z}))
			}
		}
	}
}
