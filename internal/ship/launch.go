package ship

import (
	"errors"
	"fmt"

	"github.com/annel0/voxel-ships/internal/lattice"
	"github.com/annel0/voxel-ships/internal/material"
	"github.com/annel0/voxel-ships/internal/vec"
)

var (
	// ErrNothingToLaunch в затравочной клетке нет блока, из которого строится корабль
	ErrNothingToLaunch = errors.New("no ship block at seed")
	// ErrLaunchTooLarge связная конструкция больше допустимого размера
	ErrLaunchTooLarge = errors.New("ship is too large to launch")
)

// isShipMaterial блок может входить в корабль: не жидкость, не воздух и не грунт
func isShipMaterial(materials *material.Table, id material.BlockID) bool {
	if id == material.AirBlockID {
		return false
	}
	return !materials.IsFluid(id) && !materials.IsSeparator(id)
}

// CollectShipBlocks обходит связные (по граням) блоки корабля начиная с seed.
// Возвращает блоки в координатах мира.
func CollectShipBlocks(world World, materials *material.Table, seed vec.Vec3, maxBlocks int) (map[vec.Vec3]material.BlockID, error) {
	if !isShipMaterial(materials, world.BlockID(seed)) {
		return nil, ErrNothingToLaunch
	}

	found := map[vec.Vec3]material.BlockID{seed: world.BlockID(seed)}
	queue := []vec.Vec3{seed}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		for _, side := range sides {
			n := c.Add(side)
			if _, ok := found[n]; ok {
				continue
			}
			id := world.BlockID(n)
			if !isShipMaterial(materials, id) {
				continue
			}
			if len(found) >= maxBlocks {
				return nil, fmt.Errorf("%w: more than %d blocks", ErrLaunchTooLarge, maxBlocks)
			}
			found[n] = id
			queue = append(queue, n)
		}
	}
	return found, nil
}

// Launch вырезает конструкцию из мира и превращает её в корабль.
// Блок seed становится блоком (0,0,0) решётки; корабль ставится так, что
// блоки в мире не сдвигаются. На месте блоков остаётся вода ниже waterHeight
// и воздух выше.
func Launch(id string, world World, materials *material.Table, seed vec.Vec3, maxBlocks, waterHeight int, opts Options) (*Ship, error) {
	found, err := CollectShipBlocks(world, materials, seed, maxBlocks)
	if err != nil {
		return nil, err
	}

	local := make(map[vec.Vec3]material.BlockID, len(found))
	for w, bid := range found {
		local[w.Sub(seed)] = bid
	}
	blocks := lattice.NewBlocks(local, materials)

	s := New(id, world, materials, opts)
	if err := s.SetBlocks(blocks); err != nil {
		return nil, err
	}

	coords := make([]vec.Vec3, 0, len(found))
	for w := range found {
		coords = append(coords, w)
	}
	vec.SortCoords(coords)
	for _, w := range coords {
		if waterHeight != UnknownWaterHeight && w.Y < waterHeight {
			world.SetBlockID(w, material.WaterBlockID)
		} else {
			world.SetBlockID(w, material.AirBlockID)
		}
	}

	// блок (0,0,0) должен оказаться в клетке seed
	s.pose = Pose{Position: seed.Float().Add(s.physics.CenterOfMass())}
	s.waterHeight = waterHeight
	s.UpdateWater()

	s.logger.Info("корабль спущен из (%d,%d,%d)", seed.X, seed.Y, seed.Z)
	return s, nil
}
