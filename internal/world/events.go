package world

import (
	"github.com/annel0/voxel-ships/internal/material"
	"github.com/annel0/voxel-ships/internal/vec"
)

// BlockChange изменение блока мира
type BlockChange struct {
	Position vec.Vec3         // Мировые координаты блока
	Old      material.BlockID // Блок до изменения
	New      material.BlockID // Блок после изменения
}

// BlockListener получает изменения блоков. Вызывается синхронно из SetBlockID.
type BlockListener func(change BlockChange)
