package lattice

import "github.com/annel0/voxel-ships/internal/vec"

// Box целочисленный ограничивающий параллелепипед, границы включительно
type Box struct {
	Min vec.Vec3
	Max vec.Vec3
}

// BoxOf строит минимальный Box вокруг координат. Для пустого списка ok == false.
func BoxOf(coords []vec.Vec3) (Box, bool) {
	if len(coords) == 0 {
		return Box{}, false
	}
	b := Box{Min: coords[0], Max: coords[0]}
	for _, c := range coords[1:] {
		b.Min.X = min(b.Min.X, c.X)
		b.Min.Y = min(b.Min.Y, c.Y)
		b.Min.Z = min(b.Min.Z, c.Z)
		b.Max.X = max(b.Max.X, c.X)
		b.Max.Y = max(b.Max.Y, c.Y)
		b.Max.Z = max(b.Max.Z, c.Z)
	}
	return b, true
}

// Contains проверяет, лежит ли координата внутри
func (b Box) Contains(c vec.Vec3) bool {
	return c.X >= b.Min.X && c.X <= b.Max.X &&
		c.Y >= b.Min.Y && c.Y <= b.Max.Y &&
		c.Z >= b.Min.Z && c.Z <= b.Max.Z
}

// Size количество блоков вдоль каждой оси
func (b Box) Size() vec.Vec3 {
	return vec.Vec3{
		X: b.Max.X - b.Min.X + 1,
		Y: b.Max.Y - b.Min.Y + 1,
		Z: b.Max.Z - b.Min.Z + 1,
	}
}
