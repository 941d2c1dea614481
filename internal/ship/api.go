package ship

import (
	"errors"

	"github.com/annel0/voxel-ships/internal/lattice"
	"github.com/annel0/voxel-ships/internal/material"
	"github.com/annel0/voxel-ships/internal/physics"
	"github.com/annel0/voxel-ships/internal/vec"
	"github.com/go-gl/mathgl/mgl64"
)

var (
	// ErrInvalidLattice решётка пуста, корабль из неё собрать нельзя
	ErrInvalidLattice = errors.New("invalid ship lattice")
	// ErrNotActive операция требует активного корабля
	ErrNotActive = errors.New("ship is not active")
	// ErrNotUnlaunchable флаги спуска не выполнены и не могут быть переопределены
	ErrNotUnlaunchable = errors.New("ship cannot be unlaunched here")
)

// Lattice воксельная решётка корабля и её геометрия
type Lattice interface {
	IsValid() bool
	Version() uint64
	Coords() []vec.Vec3
	BlockID(c vec.Vec3) material.BlockID
	SetBlockID(c vec.Vec3, id material.BlockID)
	BoundingBox() (lattice.Box, bool)
	Envelope(side lattice.Side) []vec.Vec3
	TrappedAir(level int) []vec.Vec3
	TrappedAirFromWaterHeight(h int) []vec.Vec3
	XZRangeQuery(y int, box physics.AABB) []vec.Vec3
	Tick()
}

// World доступ корабля к миру, в котором он плавает
type World interface {
	BlockID(pos vec.Vec3) material.BlockID
	SetBlockID(pos vec.Vec3, id material.BlockID)
	// EntitiesWithin сущности, чьи коробки пересекают box
	EntitiesWithin(box physics.AABB) []Entity
	// CollisionBoxes коробки статических блоков мира внутри box
	CollisionBoxes(box physics.AABB) []physics.AABB
}

// Entity сущность мира, которую корабль может перевозить
type Entity interface {
	EntityID() string
	Pose() Pose
	SetPose(p Pose)
	Velocity() mgl64.Vec3
	BoundingBox() physics.AABB
}

// Propulsion движитель корабля
type Propulsion interface {
	TotalThrust() float64
	FrontSide() lattice.Side
}

// Pose положение корабля или сущности в мире. Углы в радианах.
type Pose struct {
	Position mgl64.Vec3
	Yaw      float64
	Pitch    float64
}

// Velocity скорость за тик: линейная в блоках, угловая в радианах
type Velocity struct {
	Linear mgl64.Vec3
	Yaw    float64
}

// State состояние жизненного цикла корабля
type State int

const (
	StateInactive State = iota
	StateActive
	StateSunk
	StateDestroyed
)

// String возвращает имя состояния
func (s State) String() string {
	switch s {
	case StateInactive:
		return "inactive"
	case StateActive:
		return "active"
	case StateSunk:
		return "sunk"
	case StateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}
