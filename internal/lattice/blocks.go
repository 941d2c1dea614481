package lattice

import (
	"errors"
	"sync"

	"github.com/annel0/voxel-ships/internal/material"
	"github.com/annel0/voxel-ships/internal/vec"
)

// ErrEmptyLattice решётка без блоков не может стать кораблём
var ErrEmptyLattice = errors.New("lattice has no blocks")

// Blocks воксельная решётка корабля в пространстве блоков.
// Набор занятых координат меняется только через SetBlockID; каждое изменение
// набора увеличивает Version и сбрасывает кэш геометрии.
type Blocks struct {
	mu        sync.RWMutex
	blocks    map[vec.Vec3]material.BlockID
	materials *material.Table
	version   uint64

	// кэш, строится лениво
	coords    []vec.Vec3
	bounds    Box
	envelopes map[Side][]vec.Vec3
	trapped   map[int][]vec.Vec3
}

// NewBlocks создаёт решётку из карты координата -> ID блока.
// Воздух в решётку не попадает.
func NewBlocks(blocks map[vec.Vec3]material.BlockID, materials *material.Table) *Blocks {
	b := &Blocks{
		blocks:    make(map[vec.Vec3]material.BlockID, len(blocks)),
		materials: materials,
	}
	for c, id := range blocks {
		if id == material.AirBlockID {
			continue
		}
		b.blocks[c] = id
	}
	return b
}

// Materials таблица материалов, с которой построена решётка
func (b *Blocks) Materials() *material.Table {
	return b.materials
}

// IsValid решётка пригодна для корабля, если в ней есть хотя бы один блок
func (b *Blocks) IsValid() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.blocks) > 0
}

// Len количество блоков
func (b *Blocks) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.blocks)
}

// Version растёт при каждом изменении набора блоков
func (b *Blocks) Version() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.version
}

// Coords возвращает занятые координаты в порядке vec.Vec3.Less
func (b *Blocks) Coords() []vec.Vec3 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buildCoordsLocked()
	return b.coords
}

// BlockID возвращает ID блока или AirBlockID
func (b *Blocks) BlockID(c vec.Vec3) material.BlockID {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if id, ok := b.blocks[c]; ok {
		return id
	}
	return material.AirBlockID
}

// Has проверяет, занята ли координата
func (b *Blocks) Has(c vec.Vec3) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.blocks[c]
	return ok
}

// SetBlockID меняет блок. AirBlockID удаляет блок из решётки.
func (b *Blocks) SetBlockID(c vec.Vec3, id material.BlockID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	old, exists := b.blocks[c]
	if id == material.AirBlockID {
		if !exists {
			return
		}
		delete(b.blocks, c)
	} else {
		if exists && old == id {
			return
		}
		b.blocks[c] = id
	}

	b.version++
	b.invalidateLocked()
}

// BoundingBox целочисленные границы решётки. Для пустой решётки ok == false.
func (b *Blocks) BoundingBox() (Box, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buildCoordsLocked()
	return b.bounds, len(b.coords) > 0
}

// Snapshot копия карты блоков
func (b *Blocks) Snapshot() map[vec.Vec3]material.BlockID {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[vec.Vec3]material.BlockID, len(b.blocks))
	for c, id := range b.blocks {
		out[c] = id
	}
	return out
}

// Tick продвигает поведение тикаемых блоков
func (b *Blocks) Tick() {
	if b.materials == nil {
		return
	}
	for _, c := range b.Coords() {
		ticker, ok := b.materials.Ticker(b.BlockID(c))
		if !ok {
			continue
		}
		ticker.TickUpdate(b, c)
	}
}

func (b *Blocks) invalidateLocked() {
	b.coords = nil
	b.envelopes = nil
	b.trapped = nil
}

func (b *Blocks) buildCoordsLocked() {
	if b.coords != nil {
		return
	}
	coords := make([]vec.Vec3, 0, len(b.blocks))
	for c := range b.blocks {
		coords = append(coords, c)
	}
	vec.SortCoords(coords)
	b.coords = coords
	b.bounds, _ = BoxOf(coords)
}
