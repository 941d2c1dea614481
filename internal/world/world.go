package world

import (
	"math"
	"sync"

	"github.com/annel0/voxel-ships/internal/logging"
	"github.com/annel0/voxel-ships/internal/material"
	"github.com/annel0/voxel-ships/internal/physics"
	"github.com/annel0/voxel-ships/internal/ship"
	"github.com/annel0/voxel-ships/internal/vec"
	"github.com/go-gl/mathgl/mgl64"
)

// World мир в памяти: чанки блоков 16x16x16, которые генерируются при первом
// обращении, и сущности в пространственном индексе
type World struct {
	materials *material.Table
	generator *SeabedGenerator

	chunks   map[vec.Vec3]*Chunk
	chunksMu sync.RWMutex

	entities *SpatialIndex

	listenersMu sync.RWMutex
	listeners   []BlockListener

	logger *logging.Logger
}

// New создаёт мир. Без генератора мир пустой (воздух), уровень воды неизвестен.
func New(materials *material.Table, generator *SeabedGenerator) *World {
	return &World{
		materials: materials,
		generator: generator,
		chunks:    make(map[vec.Vec3]*Chunk),
		entities:  NewSpatialIndex(ChunkSize),
		logger:    logging.GetComponentLogger("world"),
	}
}

// Materials таблица материалов мира
func (w *World) Materials() *material.Table {
	return w.materials
}

// WaterLevel уровень воды: вода в клетках с y < WaterLevel
func (w *World) WaterLevel() int {
	if w.generator == nil {
		return ship.UnknownWaterHeight
	}
	return w.generator.WaterLevel
}

// FloorHeight высота дна в колонне (x, z) по генератору
func (w *World) FloorHeight(x, z int) int {
	if w.generator == nil {
		return math.MinInt32
	}
	return w.generator.FloorHeight(x, z)
}

// getChunk возвращает чанк, генерируя его при необходимости
func (w *World) getChunk(coords vec.Vec3) *Chunk {
	w.chunksMu.RLock()
	c, ok := w.chunks[coords]
	w.chunksMu.RUnlock()
	if ok {
		return c
	}

	w.chunksMu.Lock()
	defer w.chunksMu.Unlock()
	if c, ok := w.chunks[coords]; ok {
		return c
	}
	if w.generator != nil {
		c = w.generator.GenerateChunk(coords)
	} else {
		c = NewChunk(coords)
	}
	w.chunks[coords] = c
	logging.Trace("чанк %v создан", coords)
	return c
}

// ChunkCount количество загруженных чанков
func (w *World) ChunkCount() int {
	w.chunksMu.RLock()
	defer w.chunksMu.RUnlock()
	return len(w.chunks)
}

// BlockID возвращает ID блока в мировых координатах
func (w *World) BlockID(pos vec.Vec3) material.BlockID {
	chunk, local := ChunkOf(pos)
	return w.getChunk(chunk).GetBlock(local)
}

// SetBlockID устанавливает блок в мировых координатах
func (w *World) SetBlockID(pos vec.Vec3, id material.BlockID) {
	chunk, local := ChunkOf(pos)
	old := w.getChunk(chunk).SetBlock(local, id)
	if old == id {
		return
	}

	w.listenersMu.RLock()
	listeners := w.listeners
	w.listenersMu.RUnlock()
	for _, l := range listeners {
		l(BlockChange{Position: pos, Old: old, New: id})
	}
}

// OnBlockChange подписывает listener на изменения блоков
func (w *World) OnBlockChange(listener BlockListener) {
	w.listenersMu.Lock()
	defer w.listenersMu.Unlock()
	w.listeners = append(w.listeners, listener)
}

// AddEntity добавляет сущность в мир
func (w *World) AddEntity(e *Entity) {
	e.attach(w.entities)
	w.entities.Insert(e)
	w.logger.Debug("сущность %s добавлена", e.EntityID())
}

// RemoveEntity удаляет сущность из мира
func (w *World) RemoveEntity(id string) {
	if e, ok := w.entities.Get(id); ok {
		e.attach(nil)
	}
	w.entities.Remove(id)
}

// Entity возвращает сущность по идентификатору
func (w *World) Entity(id string) (*Entity, bool) {
	return w.entities.Get(id)
}

// EntityCount количество сущностей в мире
func (w *World) EntityCount() int {
	return w.entities.GetEntityCount()
}

// EntitiesWithin сущности, чьи коробки пересекают box
func (w *World) EntitiesWithin(box physics.AABB) []ship.Entity {
	found := w.entities.QueryBox(box)
	out := make([]ship.Entity, 0, len(found))
	for _, e := range found {
		out = append(out, e)
	}
	return out
}

// CollisionBoxes коробки твёрдых блоков мира внутри box.
// Вода, воздух и заглушки не сталкиваются.
func (w *World) CollisionBoxes(box physics.AABB) []physics.AABB {
	minX, maxX := int(math.Floor(box.Min[0])), int(math.Floor(box.Max[0]))
	minY, maxY := int(math.Floor(box.Min[1])), int(math.Floor(box.Max[1]))
	minZ, maxZ := int(math.Floor(box.Min[2])), int(math.Floor(box.Max[2]))

	out := make([]physics.AABB, 0)
	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			for z := minZ; z <= maxZ; z++ {
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

// Place записывает блоки в мир со сдвигом origin
func (w *World) Place(blocks map[vec.Vec3]material.BlockID, origin vec.Vec3) {
	coords := make([]vec.Vec3, 0, len(blocks))
	for c := range blocks {
		coords = append(coords, c)
	}
	vec.SortCoords(coords)
	for _, c := range coords {
		w.SetBlockID(c.Add(origin), blocks[c])
	}
}

var (
	_ ship.World  = (*World)(nil)
	_ ship.Entity = (*Entity)(nil)
)
