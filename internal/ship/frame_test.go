package ship

import (
	"math"
	"math/rand"
	"testing"

	"github.com/annel0/voxel-ships/internal/lattice"
	"github.com/annel0/voxel-ships/internal/physics"
	"github.com/annel0/voxel-ships/internal/vec"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

func assertVecInDelta(t *testing.T, want, got mgl64.Vec3, delta float64) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], delta, "component %d: want %v got %v", i, want, got)
	}
}

func randomVec(rng *rand.Rand, scale float64) mgl64.Vec3 {
	return mgl64.Vec3{
		(rng.Float64()*2 - 1) * scale,
		(rng.Float64()*2 - 1) * scale,
		(rng.Float64()*2 - 1) * scale,
	}
}

func TestFrameRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 1000; i++ {
		f := Frame{
			Position:     randomVec(rng, 1000),
			Yaw:          (rng.Float64()*2 - 1) * 4 * math.Pi,
			CenterOfMass: randomVec(rng, 10),
		}
		p := randomVec(rng, 1000)

		assertVecInDelta(t, p, f.ShipToWorld(f.WorldToShip(p)), 1e-9)
		assertVecInDelta(t, p, f.BlocksToShip(f.ShipToBlocks(p)), 1e-9)
		assertVecInDelta(t, p, f.BlocksToWorld(f.WorldToBlocks(p)), 1e-9)
		assertVecInDelta(t, p, f.ShipToWorldDirection(f.WorldToShipDirection(p)), 1e-9)
	}
}

func TestFrameRotationConvention(t *testing.T) {
	f := Frame{Position: mgl64.Vec3{10, 5, 10}, Yaw: math.Pi / 2}

	// x' = x cos + z sin, z' = -x sin + z cos
	assertVecInDelta(t, mgl64.Vec3{10, 5, 9}, f.ShipToWorld(mgl64.Vec3{1, 0, 0}), 1e-12)
	assertVecInDelta(t, mgl64.Vec3{11, 5, 10}, f.ShipToWorld(mgl64.Vec3{0, 0, 1}), 1e-12)
	assertVecInDelta(t, mgl64.Vec3{0, 0, -1}, f.ShipToWorldDirection(mgl64.Vec3{1, 0, 0}), 1e-12)

	assert.InDelta(t, 2.0, f.WorldToBlocksY(7), 1e-12)
}

func TestFrameBoxes(t *testing.T) {
	t.Run("Rotated Box Is Widened", func(t *testing.T) {
		f := Frame{Yaw: math.Pi / 4}
		box := f.BlocksBoxToWorld(physics.NewAABB(0, 0, 0, 1, 1, 1)).BoundingBox()
		assert.InDelta(t, math.Sqrt2, box.Max[0]-box.Min[0], 1e-9)
		assert.InDelta(t, math.Sqrt2, box.Max[2]-box.Min[2], 1e-9)
		assert.InDelta(t, 1.0, box.Max[1]-box.Min[1], 1e-12)
	})

	t.Run("World To Blocks Keeps Size", func(t *testing.T) {
		f := Frame{Position: mgl64.Vec3{3, 4, 5}, Yaw: 1.1, CenterOfMass: mgl64.Vec3{1, 0.5, 1}}
		world := physics.NewAABB(2, 4, 4, 2.6, 5.8, 4.6)
		rotated := f.WorldBoxToBlocks(world)
		assertVecInDelta(t, world.HalfExtents(), rotated.Box.HalfExtents(), 1e-12)
		assertVecInDelta(t, f.WorldToBlocks(world.Center()), rotated.Box.Center(), 1e-12)
		assert.InDelta(t, 4.0-4+0.5, rotated.MinY(), 1e-12)
	})

	t.Run("Ship Bounding Box", func(t *testing.T) {
		bounds := lattice.Box{Min: vec.Vec3{}, Max: vec.Vec3{X: 2, Y: 0, Z: 4}}
		com := mgl64.Vec3{1.5, 0.5, 2.5}

		f := Frame{Position: mgl64.Vec3{10, 20, 30}, CenterOfMass: com}
		box := f.ShipBoundingBox(bounds)
		assertVecInDelta(t, mgl64.Vec3{8.5, 19.5, 27.5}, box.Min, 1e-12)
		assertVecInDelta(t, mgl64.Vec3{11.5, 20.5, 32.5}, box.Max, 1e-12)

		f.Yaw = math.Pi / 2
		box = f.ShipBoundingBox(bounds)
		assert.InDelta(t, 5.0, box.Max[0]-box.Min[0], 1e-9)
		assert.InDelta(t, 3.0, box.Max[2]-box.Min[2], 1e-9)
	})

	t.Run("Block World Box", func(t *testing.T) {
		f := Frame{Position: mgl64.Vec3{0.5, 0.5, 0.5}, CenterOfMass: mgl64.Vec3{0.5, 0.5, 0.5}}
		box := f.BlockWorldBox(vec.Vec3{X: 1, Y: 0, Z: 0})
		assertVecInDelta(t, mgl64.Vec3{1, 0, 0}, box.Min, 1e-12)
		assertVecInDelta(t, mgl64.Vec3{2, 1, 1}, box.Max, 1e-12)

		f.Yaw = math.Pi / 4
		box = f.BlockWorldBox(vec.Vec3{})
		assert.InDelta(t, math.Sqrt2/2, box.HalfExtents()[0], 1e-12)
		assert.InDelta(t, math.Sqrt2/2, box.HalfExtents()[1], 1e-12)
	})
}
