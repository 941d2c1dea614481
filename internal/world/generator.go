package world

import (
	"github.com/annel0/voxel-ships/internal/material"
	"github.com/annel0/voxel-ships/internal/util"
	"github.com/annel0/voxel-ships/internal/vec"
)

// Параметры дна по умолчанию
const (
	DefaultSeabedDepth  = 12   // Средняя глубина дна под поверхностью воды
	DefaultSeabedRelief = 16   // Размах высот дна
	DefaultNoiseScale   = 0.03 // Сглаженность рельефа
	sandLayer           = 2    // Толщина песка над камнем
)

// SeabedGenerator генерирует океан: рельеф дна из шума Перлина, вода до
// уровня WaterLevel, выше воздух. Где дно выше воды, получаются острова.
type SeabedGenerator struct {
	WaterLevel int     // Вода в клетках с y < WaterLevel
	Depth      int     // Средняя глубина дна
	Relief     int     // Размах высот дна
	NoiseScale float64 // Масштаб шума
	noise      *util.Noise
}

// NewSeabedGenerator создаёт генератор океана
func NewSeabedGenerator(seed int64, waterLevel int) *SeabedGenerator {
	return &SeabedGenerator{
		WaterLevel: waterLevel,
		Depth:      DefaultSeabedDepth,
		Relief:     DefaultSeabedRelief,
		NoiseScale: DefaultNoiseScale,
		noise:      util.NewNoise(seed),
	}
}

// FloorHeight высота верхнего твёрдого блока в колонне (x, z)
func (g *SeabedGenerator) FloorHeight(x, z int) int {
	n := g.noise.Noise2D(float64(x)*g.NoiseScale, float64(z)*g.NoiseScale)
	return g.WaterLevel - g.Depth + int((n-0.5)*float64(g.Relief))
}

// BlockAt блок, который генератор ставит в клетку pos
func (g *SeabedGenerator) BlockAt(pos vec.Vec3, floor int) material.BlockID {
	switch {
	case pos.Y > floor:
		if pos.Y < g.WaterLevel {
			return material.WaterBlockID
		}
		return material.AirBlockID
	case floor >= g.WaterLevel:
		// остров
		if pos.Y == floor {
			return material.GrassBlockID
		}
		if pos.Y > floor-sandLayer {
			return material.DirtBlockID
		}
		return material.StoneBlockID
	case pos.Y > floor-sandLayer:
		return material.SandBlockID
	default:
		return material.StoneBlockID
	}
}

// GenerateChunk генерирует чанк по его координатам
func (g *SeabedGenerator) GenerateChunk(coords vec.Vec3) *Chunk {
	chunk := NewChunk(coords)

	base := vec.Vec3{X: coords.X * ChunkSize, Y: coords.Y * ChunkSize, Z: coords.Z * ChunkSize}
	for x := 0; x < ChunkSize; x++ {
		for z := 0; z < ChunkSize; z++ {
			floor := g.FloorHeight(base.X+x, base.Z+z)
			for y := 0; y < ChunkSize; y++ {
				pos := vec.Vec3{X: base.X + x, Y: base.Y + y, Z: base.Z + z}
				chunk.Blocks[x][y][z] = g.BlockAt(pos, floor)
			}
		}
	}

	return chunk
}
