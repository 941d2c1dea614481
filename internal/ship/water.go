package ship

import (
	"math"

	"github.com/annel0/voxel-ships/internal/material"
	"github.com/annel0/voxel-ships/internal/vec"
)

// waterBoxGrowth запас, на который растёт коробка блока воздуха при поиске воды мира
const waterBoxGrowth = 0.1

// DisplacedWaterCoords координаты мира с водой или воздухом, которые закрыты
// запертым воздухом корпуса при уровне воды waterHeight (пространство блоков)
func (s *Ship) DisplacedWaterCoords(waterHeight float64) vec.Set {
	out := make(vec.Set)
	if s.world == nil || s.waterHeight == UnknownWaterHeight {
		return out
	}

	frame := s.Frame()
	surface := s.waterHeight
	for _, c := range s.blocks.TrappedAir(int(math.Floor(waterHeight))) {
		box := frame.BlockWorldBox(c).Expand(waterBoxGrowth)

		minX, maxX := int(math.Floor(box.Min[0])), int(math.Floor(box.Max[0]))
		minY, maxY := int(math.Floor(box.Min[1])), min(int(math.Floor(box.Max[1])), surface-1)
		minZ, maxZ := int(math.Floor(box.Min[2])), int(math.Floor(box.Max[2]))
		for x := minX; x <= maxX; x++ {
			for z := minZ; z <= maxZ; z++ {
				for y := minY; y <= maxY; y++ {
					w := vec.Vec3{X: x, Y: y, Z: z}
					if s.isDisplaceable(s.world.BlockID(w)) {
						out.Add(w)
					}
				}
			}
		}
	}
	return out
}

func (s *Ship) isDisplaceable(id material.BlockID) bool {
	return id == material.AirWallBlockID || s.materials.IsFluid(id)
}

// moveWater заменяет воду под корпусом заглушками и возвращает воду туда,
// откуда корпус ушёл. Пишутся только изменившиеся координаты; возвращает число записей.
// Координаты, где заглушку уже заменил кто-то другой, не возвращаются в воду.
func (s *Ship) moveWater(waterHeight float64) int {
	current := s.DisplacedWaterCoords(waterHeight)
	writes := 0

	for _, c := range current.Diff(s.displaced) {
		s.world.SetBlockID(c, material.AirWallBlockID)
		writes++
	}
	for _, c := range s.displaced.Diff(current) {
		if s.world.BlockID(c) != material.AirWallBlockID {
			continue
		}
		s.world.SetBlockID(c, material.WaterBlockID)
		writes++
	}

	s.displaced = current
	return writes
}

// UpdateWater пересчитывает вытесненную воду для текущей позы
func (s *Ship) UpdateWater() int {
	if s.state != StateActive || s.world == nil || s.waterHeight == UnknownWaterHeight {
		return 0
	}
	return s.moveWater(s.waterHeightInBlocks())
}
