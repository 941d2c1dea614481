package ship

import (
	"math"

	"github.com/annel0/voxel-ships/internal/lattice"
	"github.com/annel0/voxel-ships/internal/material"
	"github.com/annel0/voxel-ships/internal/physics"
	"github.com/annel0/voxel-ships/internal/vec"
	"github.com/go-gl/mathgl/mgl64"
)

// testWorld океан: камень на y = floor, вода до waterHeight (не включая), выше воздух
type testWorld struct {
	materials   *material.Table
	floor       int
	waterHeight int
	blocks      map[vec.Vec3]material.BlockID
	entities    []*testEntity
	writes      int
}

func newTestWorld(floor, waterHeight int) *testWorld {
	return &testWorld{
		materials:   material.DefaultTable(),
		floor:       floor,
		waterHeight: waterHeight,
		blocks:      make(map[vec.Vec3]material.BlockID),
	}
}

func (w *testWorld) BlockID(pos vec.Vec3) material.BlockID {
	if id, ok := w.blocks[pos]; ok {
		return id
	}
	switch {
	case pos.Y <= w.floor:
		return material.StoneBlockID
	case pos.Y < w.waterHeight:
		return material.WaterBlockID
	default:
		return material.AirBlockID
	}
}

func (w *testWorld) SetBlockID(pos vec.Vec3, id material.BlockID) {
	w.blocks[pos] = id
	w.writes++
}

func (w *testWorld) EntitiesWithin(box physics.AABB) []Entity {
	out := make([]Entity, 0)
	for _, e := range w.entities {
		if e.BoundingBox().Intersects(box) {
			out = append(out, e)
		}
	}
	return out
}

func (w *testWorld) CollisionBoxes(box physics.AABB) []physics.AABB {
	out := make([]physics.AABB, 0)
	for x := int(math.Floor(box.Min[0])); x <= int(math.Floor(box.Max[0])); x++ {
		for y := int(math.Floor(box.Min[1])); y <= int(math.Floor(box.Max[1])); y++ {
			for z := int(math.Floor(box.Min[2])); z <= int(math.Floor(box.Max[2])); z++ {
				c := vec.Vec3{X: x, Y: y, Z: z}
				if w.materials.IsFluid(w.BlockID(c)) {
					continue
				}
				out = append(out, physics.AABB{Min: c.Float(), Max: c.Float().Add(mgl64.Vec3{1, 1, 1})})
			}
		}
	}
	return out
}

type testEntity struct {
	id       string
	pose     Pose
	velocity mgl64.Vec3
	half     mgl64.Vec3 // полуразмеры по x и z, высота в half[1]*2
}

func newTestEntity(id string, feet mgl64.Vec3) *testEntity {
	return &testEntity{
		id:   id,
		pose: Pose{Position: feet},
		half: mgl64.Vec3{0.3, 0.9, 0.3},
	}
}

func (e *testEntity) EntityID() string       { return e.id }
func (e *testEntity) Pose() Pose             { return e.pose }
func (e *testEntity) SetPose(p Pose)         { e.pose = p }
func (e *testEntity) Velocity() mgl64.Vec3   { return e.velocity }
func (e *testEntity) BoundingBox() physics.AABB {
	p := e.pose.Position
	return physics.NewAABB(p[0]-e.half[0], p[1], p[2]-e.half[2], p[0]+e.half[0], p[1]+2*e.half[1], p[2]+e.half[2])
}

// newTestShip активный корабль, блок (0,0,0) которого стоит в точке anchor при рыскании 0
func newTestShip(world *testWorld, blocks map[vec.Vec3]material.BlockID, anchor mgl64.Vec3, opts Options) *Ship {
	table := material.DefaultTable()
	var w World
	if world != nil {
		table = world.materials
		w = world
	}
	s := New("test-ship", w, table, opts)
	if err := s.SetBlocks(lattice.NewBlocks(blocks, table)); err != nil {
		panic(err)
	}
	s.SetPose(Pose{Position: anchor.Add(s.Physics().CenterOfMass())})
	if world != nil {
		s.SetWaterHeight(world.waterHeight)
	}
	return s
}

func quietOptions() Options {
	opts := DefaultOptions()
	opts.Collisions = false
	return opts
}
