package world

import (
	"fmt"
	"math"
	"sync"

	"github.com/annel0/voxel-ships/internal/physics"
)

// SpatialIndex пространственный индекс сущностей по ячейкам в плоскости XZ
type SpatialIndex struct {
	cellSize float64
	cells    map[cellKey]*cellData
	cellsMu  sync.RWMutex
	entities map[string]*indexedEntity
	entityMu sync.RWMutex
}

// cellKey представляет ключ ячейки в пространственной сетке
type cellKey struct {
	x, z int
}

// cellData хранит данные ячейки
type cellData struct {
	entities map[string]*indexedEntity
}

// indexedEntity представляет индексированную сущность
type indexedEntity struct {
	entity *Entity
	cells  map[cellKey]struct{}
}

// NewSpatialIndex создаёт новый пространственный индекс
func NewSpatialIndex(cellSize float64) *SpatialIndex {
	if cellSize <= 0 {
		cellSize = ChunkSize // Размер чанка по умолчанию
	}

	return &SpatialIndex{
		cellSize: cellSize,
		cells:    make(map[cellKey]*cellData),
		entities: make(map[string]*indexedEntity),
	}
}

// Insert добавляет сущность в индекс или обновляет её ячейки
func (si *SpatialIndex) Insert(e *Entity) {
	si.Update(e)
}

// Update пересчитывает ячейки, которые занимает сущность
func (si *SpatialIndex) Update(e *Entity) {
	newCells := si.getCellsForBox(e.BoundingBox())

	si.entityMu.Lock()
	defer si.entityMu.Unlock()
	si.cellsMu.Lock()
	defer si.cellsMu.Unlock()

	indexed, exists := si.entities[e.EntityID()]
	if !exists {
		indexed = &indexedEntity{entity: e, cells: make(map[cellKey]struct{})}
		si.entities[e.EntityID()] = indexed
	}

	// Удаляем из ячеек, которые сущность покинула
	for key := range indexed.cells {
		if _, keep := newCells[key]; keep {
			continue
		}
		si.removeFromCellLocked(key, e.EntityID())
	}

	// Добавляем в новые ячейки
	for key := range newCells {
		si.getOrCreateCell(key).entities[e.EntityID()] = indexed
	}
	indexed.cells = newCells
}

// Remove удаляет сущность из индекса
func (si *SpatialIndex) Remove(id string) {
	si.entityMu.Lock()
	defer si.entityMu.Unlock()

	indexed, exists := si.entities[id]
	if !exists {
		return
	}
	delete(si.entities, id)

	si.cellsMu.Lock()
	defer si.cellsMu.Unlock()
	for key := range indexed.cells {
		si.removeFromCellLocked(key, id)
	}
}

// Get возвращает сущность по идентификатору
func (si *SpatialIndex) Get(id string) (*Entity, bool) {
	si.entityMu.RLock()
	defer si.entityMu.RUnlock()
	indexed, ok := si.entities[id]
	if !ok {
		return nil, false
	}
	return indexed.entity, true
}

// QueryBox возвращает сущности, чьи коробки пересекают box
func (si *SpatialIndex) QueryBox(box physics.AABB) []*Entity {
	cells := si.getCellsForBox(box)

	seen := make(map[string]struct{})
	result := make([]*Entity, 0)

	si.cellsMu.RLock()
	candidates := make([]*Entity, 0)
	for key := range cells {
		cell, exists := si.cells[key]
		if !exists {
			continue
		}
		for id, indexed := range cell.entities {
			if _, wasSeen := seen[id]; wasSeen {
				continue
			}
			seen[id] = struct{}{}
			candidates = append(candidates, indexed.entity)
		}
	}
	si.cellsMu.RUnlock()

	// Проверяем пересечение уже без блокировки индекса
	for _, e := range candidates {
		if e.BoundingBox().Intersects(box) {
			result = append(result, e)
		}
	}
	return result
}

// GetCellCount возвращает количество активных ячеек
func (si *SpatialIndex) GetCellCount() int {
	si.cellsMu.RLock()
	defer si.cellsMu.RUnlock()
	return len(si.cells)
}

// GetEntityCount возвращает количество индексированных сущностей
func (si *SpatialIndex) GetEntityCount() int {
	si.entityMu.RLock()
	defer si.entityMu.RUnlock()
	return len(si.entities)
}

// GetStats возвращает статистику индекса
func (si *SpatialIndex) GetStats() string {
	si.cellsMu.RLock()
	cellCount := len(si.cells)
	maxEntitiesPerCell := 0
	for _, cell := range si.cells {
		maxEntitiesPerCell = max(maxEntitiesPerCell, len(cell.entities))
	}
	si.cellsMu.RUnlock()

	return fmt.Sprintf("SpatialIndex Stats: %d entities, %d cells, max %d entities/cell",
		si.GetEntityCount(), cellCount, maxEntitiesPerCell)
}

// getCellsForBox возвращает ключи ячеек, которые пересекаются с коробкой
func (si *SpatialIndex) getCellsForBox(box physics.AABB) map[cellKey]struct{} {
	minCellX := int(math.Floor(box.Min[0] / si.cellSize))
	minCellZ := int(math.Floor(box.Min[2] / si.cellSize))
	maxCellX := int(math.Floor(box.Max[0] / si.cellSize))
	maxCellZ := int(math.Floor(box.Max[2] / si.cellSize))

	cells := make(map[cellKey]struct{}, (maxCellX-minCellX+1)*(maxCellZ-minCellZ+1))
	for x := minCellX; x <= maxCellX; x++ {
		for z := minCellZ; z <= maxCellZ; z++ {
			cells[cellKey{x: x, z: z}] = struct{}{}
		}
	}
	return cells
}

// getOrCreateCell возвращает ячейку или создаёт новую
func (si *SpatialIndex) getOrCreateCell(key cellKey) *cellData {
	if cell, exists := si.cells[key]; exists {
		return cell
	}

	cell := &cellData{
		entities: make(map[string]*indexedEntity),
	}
	si.cells[key] = cell
	return cell
}

func (si *SpatialIndex) removeFromCellLocked(key cellKey, id string) {
	cell, exists := si.cells[key]
	if !exists {
		return
	}
	delete(cell.entities, id)
	if len(cell.entities) == 0 {
		delete(si.cells, key)
	}
}
