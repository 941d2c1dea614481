package world

import (
	"sync"

	"github.com/annel0/voxel-ships/internal/physics"
	"github.com/annel0/voxel-ships/internal/ship"
	"github.com/go-gl/mathgl/mgl64"
)

// Entity сущность мира: игрок, NPC или предмет. Позиция - точка у ног.
type Entity struct {
	mu       sync.RWMutex
	id       string
	pose     ship.Pose
	velocity mgl64.Vec3
	size     mgl64.Vec3 // ширина, высота, глубина

	// index обновляется при каждом перемещении, если сущность добавлена в мир
	index *SpatialIndex
}

// NewEntity создаёт сущность с ногами в точке feet
func NewEntity(id string, feet mgl64.Vec3, size mgl64.Vec3) *Entity {
	return &Entity{
		id:   id,
		pose: ship.Pose{Position: feet},
		size: size,
	}
}

// EntityID идентификатор сущности
func (e *Entity) EntityID() string {
	return e.id
}

// Pose текущая поза
func (e *Entity) Pose() ship.Pose {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.pose
}

// SetPose перемещает сущность
func (e *Entity) SetPose(p ship.Pose) {
	e.mu.Lock()
	e.pose = p
	index := e.index
	e.mu.Unlock()

	if index != nil {
		index.Update(e)
	}
}

// Velocity скорость за тик
func (e *Entity) Velocity() mgl64.Vec3 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.velocity
}

// SetVelocity задаёт скорость
func (e *Entity) SetVelocity(v mgl64.Vec3) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.velocity = v
}

// BoundingBox коробка сущности в мире
func (e *Entity) BoundingBox() physics.AABB {
	e.mu.RLock()
	defer e.mu.RUnlock()

	p := e.pose.Position
	hx, hz := e.size[0]/2, e.size[2]/2
	return physics.NewAABB(p[0]-hx, p[1], p[2]-hz, p[0]+hx, p[1]+e.size[1], p[2]+hz)
}

func (e *Entity) attach(index *SpatialIndex) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.index = index
}
