package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// AABB вещественный ограничивающий параллелепипед, выровненный по осям
type AABB struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// NewAABB создаёт параллелепипед по двум углам
func NewAABB(minX, minY, minZ, maxX, maxY, maxZ float64) AABB {
	return AABB{
		Min: mgl64.Vec3{minX, minY, minZ},
		Max: mgl64.Vec3{maxX, maxY, maxZ},
	}
}

// CenteredAABB создаёт параллелепипед с центром c и полуразмерами h
func CenteredAABB(c, h mgl64.Vec3) AABB {
	return AABB{Min: c.Sub(h), Max: c.Add(h)}
}

// Center возвращает центр
func (b AABB) Center() mgl64.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// HalfExtents возвращает полуразмеры
func (b AABB) HalfExtents() mgl64.Vec3 {
	return b.Max.Sub(b.Min).Mul(0.5)
}

// Intersects проверяет строгое пересечение. Касание гранями пересечением не считается.
func (b AABB) Intersects(o AABB) bool {
	return b.Max[0] > o.Min[0] && b.Min[0] < o.Max[0] &&
		b.Max[1] > o.Min[1] && b.Min[1] < o.Max[1] &&
		b.Max[2] > o.Min[2] && b.Min[2] < o.Max[2]
}

// Expand расширяет параллелепипед на d во все стороны
func (b AABB) Expand(d float64) AABB {
	e := mgl64.Vec3{d, d, d}
	return AABB{Min: b.Min.Sub(e), Max: b.Max.Add(e)}
}

// Offset сдвигает параллелепипед
func (b AABB) Offset(d mgl64.Vec3) AABB {
	return AABB{Min: b.Min.Add(d), Max: b.Max.Add(d)}
}

// Corner возвращает один из восьми углов
func (b AABB) Corner(c Corner) mgl64.Vec3 {
	p := b.Min
	if c&cornerMaxX != 0 {
		p[0] = b.Max[0]
	}
	if c&cornerMaxY != 0 {
		p[1] = b.Max[1]
	}
	if c&cornerMaxZ != 0 {
		p[2] = b.Max[2]
	}
	return p
}

// Corner угол параллелепипеда, биты выбирают максимум по осям
type Corner uint8

const (
	cornerMaxX Corner = 1 << iota
	cornerMaxY
	cornerMaxZ
)

// TopCorners четыре угла верхней грани
var TopCorners = []Corner{
	cornerMaxY,
	cornerMaxY | cornerMaxX,
	cornerMaxY | cornerMaxZ,
	cornerMaxY | cornerMaxX | cornerMaxZ,
}

// RotateYaw поворачивает вектор вокруг оси Y на угол yaw (радианы)
func RotateYaw(p mgl64.Vec3, yaw float64) mgl64.Vec3 {
	xz := mgl64.Rotate2D(-yaw).Mul2x1(mgl64.Vec2{p[0], p[2]})
	return mgl64.Vec3{xz[0], p[1], xz[1]}
}

// RotatedBox параллелепипед, повёрнутый по рысканию вокруг вертикальной оси через Pivot
type RotatedBox struct {
	Box   AABB
	Yaw   float64    // радианы
	Pivot mgl64.Vec2 // x, z оси вращения
}

// NewRotatedBox поворачивает параллелепипед вокруг его центра
func NewRotatedBox(box AABB, yaw float64) RotatedBox {
	c := box.Center()
	return RotatedBox{Box: box, Yaw: yaw, Pivot: mgl64.Vec2{c[0], c[2]}}
}

// Corner возвращает повёрнутый угол
func (r RotatedBox) Corner(c Corner) mgl64.Vec3 {
	p := r.Box.Corner(c)
	rel := mgl64.Vec3{p[0] - r.Pivot[0], p[1], p[2] - r.Pivot[1]}
	rel = RotateYaw(rel, r.Yaw)
	return mgl64.Vec3{rel[0] + r.Pivot[0], rel[1], rel[2] + r.Pivot[1]}
}

// MinY нижняя граница. Поворот по рысканию её не меняет.
func (r RotatedBox) MinY() float64 {
	return r.Box.Min[1]
}

// MaxY верхняя граница
func (r RotatedBox) MaxY() float64 {
	return r.Box.Max[1]
}

// BoundingBox выровненный по осям параллелепипед вокруг повёрнутых углов верхней грани
func (r RotatedBox) BoundingBox() AABB {
	out := AABB{
		Min: mgl64.Vec3{math.Inf(1), r.Box.Min[1], math.Inf(1)},
		Max: mgl64.Vec3{math.Inf(-1), r.Box.Max[1], math.Inf(-1)},
	}
	for _, c := range TopCorners {
		p := r.Corner(c)
		out.Min[0] = math.Min(out.Min[0], p[0])
		out.Max[0] = math.Max(out.Max[0], p[0])
		out.Min[2] = math.Min(out.Min[2], p[2])
		out.Max[2] = math.Max(out.Max[2], p[2])
	}
	return out
}
