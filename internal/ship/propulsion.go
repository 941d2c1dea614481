package ship

import (
	"github.com/annel0/voxel-ships/internal/lattice"
	"github.com/annel0/voxel-ships/internal/material"
)

// BlockPropulsion движитель, тяга которого складывается из тяги блоков решётки
type BlockPropulsion struct {
	thrust float64 // сумма тяги, Н
	front  lattice.Side
	blocks int
}

// NewBlockPropulsion считает тягу решётки по таблице материалов
func NewBlockPropulsion(blocks Lattice, materials *material.Table, front lattice.Side) *BlockPropulsion {
	p := &BlockPropulsion{front: front}
	for _, c := range blocks.Coords() {
		t := materials.Thrust(blocks.BlockID(c))
		if t <= 0 {
			continue
		}
		p.thrust += t
		p.blocks++
	}
	return p
}

// TotalThrust полная тяга, Н
func (p *BlockPropulsion) TotalThrust() float64 {
	return p.thrust
}

// FrontSide сторона решётки, куда направлен нос
func (p *BlockPropulsion) FrontSide() lattice.Side {
	return p.front
}

// SetFrontSide меняет направление носа
func (p *BlockPropulsion) SetFrontSide(side lattice.Side) {
	p.front = side
}

// NumBlocks число блоков, дающих тягу
func (p *BlockPropulsion) NumBlocks() int {
	return p.blocks
}
