package world

import (
	"sync"

	"github.com/annel0/voxel-ships/internal/material"
	"github.com/annel0/voxel-ships/internal/vec"
)

// ChunkSize размер чанка по каждой оси
const ChunkSize = 16

// ChunkOf возвращает координаты чанка и локальные координаты блока внутри него
func ChunkOf(pos vec.Vec3) (chunk, local vec.Vec3) {
	chunk = vec.Vec3{X: floorDiv(pos.X), Y: floorDiv(pos.Y), Z: floorDiv(pos.Z)}
	local = vec.Vec3{X: pos.X - chunk.X*ChunkSize, Y: pos.Y - chunk.Y*ChunkSize, Z: pos.Z - chunk.Z*ChunkSize}
	return chunk, local
}

func floorDiv(v int) int {
	if v >= 0 {
		return v / ChunkSize
	}
	return -((-v + ChunkSize - 1) / ChunkSize)
}

// Chunk представляет участок мира размером 16x16x16 блоков
type Chunk struct {
	Coords vec.Vec3 // Координаты чанка в мире

	// Blocks[x][y][z]
	Blocks [ChunkSize][ChunkSize][ChunkSize]material.BlockID

	ChangeCounter int          // Счетчик изменений
	Mu            sync.RWMutex // Мьютекс для безопасного доступа
}

// NewChunk создаёт новый чанк с указанными координатами, заполненный воздухом
func NewChunk(coords vec.Vec3) *Chunk {
	return &Chunk{Coords: coords}
}

// GetBlock возвращает ID блока по локальным координатам
func (c *Chunk) GetBlock(local vec.Vec3) material.BlockID {
	c.Mu.RLock()
	defer c.Mu.RUnlock()
	return c.Blocks[local.X][local.Y][local.Z]
}

// SetBlock устанавливает блок по локальным координатам и возвращает прежний
func (c *Chunk) SetBlock(local vec.Vec3, id material.BlockID) material.BlockID {
	c.Mu.Lock()
	defer c.Mu.Unlock()

	old := c.Blocks[local.X][local.Y][local.Z]
	if old == id {
		return old
	}
	c.Blocks[local.X][local.Y][local.Z] = id
	c.ChangeCounter++
	return old
}

// HasChanges возвращает true, если в чанке есть изменения
func (c *Chunk) HasChanges() bool {
	c.Mu.RLock()
	defer c.Mu.RUnlock()
	return c.ChangeCounter > 0
}

// ClearChanges сбрасывает счетчик изменений
func (c *Chunk) ClearChanges() {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	c.ChangeCounter = 0
}
