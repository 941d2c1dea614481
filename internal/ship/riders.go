package ship

import (
	"math"

	"github.com/annel0/voxel-ships/internal/physics"
	"github.com/annel0/voxel-ships/internal/vec"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// RiderEpsilon допуск между низом сущности и верхом блока
	RiderEpsilon = 0.2

	riderSearchExpand = 0.5
)

// Riders сущности, стоящие на корабле
func (s *Ship) Riders() []Entity {
	if s.world == nil {
		return nil
	}
	box, ok := s.BoundingBox()
	if !ok {
		return nil
	}

	candidates := s.world.EntitiesWithin(box.Expand(riderSearchExpand))
	riders := make([]Entity, 0, len(candidates))
	for _, e := range candidates {
		// прыгающие и всплывающие не едут
		if e.EntityID() == s.id || e.Velocity()[1] > 0 {
			continue
		}
		if !s.IsEntityCloseEnoughToRide(e.BoundingBox()) {
			continue
		}
		riders = append(riders, e)
	}
	return riders
}

// IsEntityCloseEnoughToRide проверяет, что низ коробки сущности лежит на
// верхней грани какого-то блока решётки под ней
func (s *Ship) IsEntityCloseEnoughToRide(box physics.AABB) bool {
	frame := s.Frame()

	// ближайший уровень блока, на котором сущность может стоять; уровни бывают отрицательными
	y := int(math.Floor(frame.WorldToBlocksY(box.Min[1])+0.5)) - 1

	rotated := frame.WorldBoxToBlocks(box)
	for _, c := range s.blocks.XZRangeQuery(y, rotated.BoundingBox()) {
		if isBoxCloseEnoughToRide(rotated, c) {
			return true
		}
	}
	return false
}

func isBoxCloseEnoughToRide(box physics.RotatedBox, c vec.Vec3) bool {
	top := float64(c.Y + 1)
	return math.Abs(top-box.MinY()) <= RiderEpsilon
}

// moveRiders переносит пассажиров вместе с корпусом: сдвиг d и поворот на dYaw
// вокруг новой позиции корабля. Каждый пассажир получает одно и то же жёсткое
// смещение, смещения не накапливаются между пассажирами.
func (s *Ship) moveRiders(riders []Entity, d mgl64.Vec3, dYaw float64) {
	center := s.pose.Position
	for _, rider := range riders {
		p := rider.Pose()
		rel := p.Position.Add(d).Sub(center)
		rel = physics.RotateYaw(rel, dYaw)
		p.Position = center.Add(rel)
		p.Yaw += dYaw
		rider.SetPose(p)
	}
}
