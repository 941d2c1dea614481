package ship

import (
	"math"

	"github.com/annel0/voxel-ships/internal/lattice"
	"github.com/annel0/voxel-ships/internal/physics"
	"github.com/annel0/voxel-ships/internal/vec"
	"github.com/go-gl/mathgl/mgl64"
)

// Frame переводит координаты между пространствами мира, корабля и блоков.
//
// Пространство корабля: начало в позиции корабля, оси повёрнуты на Yaw.
// Пространство блоков: пространство корабля, сдвинутое на центр масс решётки,
// так что блок (0,0,0) занимает клетку [0,1]^3.
type Frame struct {
	Position     mgl64.Vec3
	Yaw          float64
	CenterOfMass mgl64.Vec3
}

// NewFrame создаёт систему координат для позы корабля
func NewFrame(pose Pose, centerOfMass mgl64.Vec3) Frame {
	return Frame{Position: pose.Position, Yaw: pose.Yaw, CenterOfMass: centerOfMass}
}

// WorldToShip переводит точку мира в пространство корабля
func (f Frame) WorldToShip(p mgl64.Vec3) mgl64.Vec3 {
	return physics.RotateYaw(p.Sub(f.Position), -f.Yaw)
}

// ShipToWorld переводит точку корабля в мир
func (f Frame) ShipToWorld(p mgl64.Vec3) mgl64.Vec3 {
	return physics.RotateYaw(p, f.Yaw).Add(f.Position)
}

// WorldToShipDirection поворачивает вектор мира в оси корабля
func (f Frame) WorldToShipDirection(v mgl64.Vec3) mgl64.Vec3 {
	return physics.RotateYaw(v, -f.Yaw)
}

// ShipToWorldDirection поворачивает вектор корабля в оси мира
func (f Frame) ShipToWorldDirection(v mgl64.Vec3) mgl64.Vec3 {
	return physics.RotateYaw(v, f.Yaw)
}

// ShipToBlocks переводит точку корабля в пространство блоков
func (f Frame) ShipToBlocks(p mgl64.Vec3) mgl64.Vec3 {
	return p.Add(f.CenterOfMass)
}

// BlocksToShip переводит точку блоков в пространство корабля
func (f Frame) BlocksToShip(p mgl64.Vec3) mgl64.Vec3 {
	return p.Sub(f.CenterOfMass)
}

// WorldToBlocks переводит точку мира в пространство блоков
func (f Frame) WorldToBlocks(p mgl64.Vec3) mgl64.Vec3 {
	return f.ShipToBlocks(f.WorldToShip(p))
}

// BlocksToWorld переводит точку блоков в мир
func (f Frame) BlocksToWorld(p mgl64.Vec3) mgl64.Vec3 {
	return f.ShipToWorld(f.BlocksToShip(p))
}

// WorldToBlocksY высота мира в пространстве блоков. Поворот по рысканию высоту не меняет.
func (f Frame) WorldToBlocksY(y float64) float64 {
	return y - f.Position[1] + f.CenterOfMass[1]
}

// WorldBoxToBlocks переводит коробку мира в пространство блоков.
// Центр переносится, размеры сохраняются, поворот хранится в RotatedBox.
func (f Frame) WorldBoxToBlocks(box physics.AABB) physics.RotatedBox {
	c := f.WorldToBlocks(box.Center())
	return physics.NewRotatedBox(physics.CenteredAABB(c, box.HalfExtents()), -f.Yaw)
}

// BlocksBoxToWorld переводит коробку пространства блоков в мир
func (f Frame) BlocksBoxToWorld(box physics.AABB) physics.RotatedBox {
	c := f.BlocksToWorld(box.Center())
	return physics.NewRotatedBox(physics.CenteredAABB(c, box.HalfExtents()), f.Yaw)
}

// ShipBoundingBox выровненная по осям коробка мира вокруг всей решётки
func (f Frame) ShipBoundingBox(bounds lattice.Box) physics.AABB {
	lo := f.BlocksToShip(bounds.Min.Float()).Add(f.Position)
	hi := f.BlocksToShip(bounds.Max.Add(vec.Vec3{X: 1, Y: 1, Z: 1}).Float()).Add(f.Position)
	rotated := physics.RotatedBox{
		Box:   physics.AABB{Min: lo, Max: hi},
		Yaw:   f.Yaw,
		Pivot: mgl64.Vec2{f.Position[0], f.Position[2]},
	}
	return rotated.BoundingBox()
}

// BlockWorldBox коробка мира для блока решётки: куб вокруг центра блока,
// достаточно большой, чтобы вместить повёрнутый блок
func (f Frame) BlockWorldBox(c vec.Vec3) physics.AABB {
	center := f.BlocksToWorld(c.Center())
	cos, sin := math.Cos(f.Yaw), math.Sin(f.Yaw)
	h := math.Max(math.Abs(cos-sin), math.Abs(sin+cos)) / 2
	return physics.CenteredAABB(center, mgl64.Vec3{h, h, h})
}
