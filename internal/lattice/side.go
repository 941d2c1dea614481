package lattice

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Side грань блока или направление вдоль оси
type Side int

const (
	North  Side = iota // -Z
	South              // +Z
	East               // +X
	West               // -X
	Top                // +Y
	Bottom             // -Y
)

// Sides все грани в порядке объявления
var Sides = []Side{North, South, East, West, Top, Bottom}

// HorizontalSides грани, вдоль которых может быть нос корабля
var HorizontalSides = []Side{North, South, East, West}

var sideOffsets = [...][3]int{
	North:  {0, 0, -1},
	South:  {0, 0, 1},
	East:   {1, 0, 0},
	West:   {-1, 0, 0},
	Top:    {0, 1, 0},
	Bottom: {0, -1, 0},
}

var sideNames = [...]string{
	North:  "north",
	South:  "south",
	East:   "east",
	West:   "west",
	Top:    "top",
	Bottom: "bottom",
}

// String возвращает имя грани
func (s Side) String() string {
	if s < North || s > Bottom {
		return "unknown"
	}
	return sideNames[s]
}

// Valid проверяет, что значение является одной из шести граней
func (s Side) Valid() bool {
	return s >= North && s <= Bottom
}

// Dx смещение по X
func (s Side) Dx() int { return sideOffsets[s][0] }

// Dy смещение по Y
func (s Side) Dy() int { return sideOffsets[s][1] }

// Dz смещение по Z
func (s Side) Dz() int { return sideOffsets[s][2] }

// Normal единичная нормаль грани
func (s Side) Normal() mgl64.Vec3 {
	return mgl64.Vec3{float64(s.Dx()), float64(s.Dy()), float64(s.Dz())}
}

// Opposite противоположная грань
func (s Side) Opposite() Side {
	switch s {
	case North:
		return South
	case South:
		return North
	case East:
		return West
	case West:
		return East
	case Top:
		return Bottom
	default:
		return Top
	}
}

// ParseSide разбирает имя грани
func ParseSide(name string) (Side, bool) {
	for _, s := range Sides {
		if s.String() == name {
			return s, true
		}
	}
	return 0, false
}

// FractionSubmerged доля грани блока уровня y, находящаяся под водой.
// Для всех боковых граней результат одинаков.
func (s Side) FractionSubmerged(y int, waterHeight float64) float64 {
	switch s {
	case Top:
		if waterHeight >= float64(y+1) {
			return 1
		}
		return 0
	case Bottom:
		if waterHeight > float64(y) {
			return 1
		}
		return 0
	default:
		return math.Max(0, math.Min(1, waterHeight-float64(y)))
	}
}
