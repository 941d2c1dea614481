package ship

import "math"

const angleEpsilon = 1e-9

// MapZeroToTwoPi приводит угол к [0, 2π)
func MapZeroToTwoPi(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	if a >= 2*math.Pi {
		a = 0
	}
	return a
}

// MapMinusPiToPi приводит угол к (-π, π]
func MapMinusPiToPi(a float64) float64 {
	a = MapZeroToTwoPi(a)
	if a > math.Pi {
		a -= 2 * math.Pi
	}
	return a
}

// WrapDegrees180 приводит угол в градусах к [-180, 180)
func WrapDegrees180(deg float64) float64 {
	deg = math.Mod(deg+180, 360)
	if deg < 0 {
		deg += 360
	}
	return deg - 180
}

// ShortestArc знаковый угол кратчайшей дуги от from до to.
// Длина берётся по короткой дуге, знак проверяется тем, что поворот from на
// положительную дугу действительно приходит в to. Для ровно противоположных
// углов результат +π.
func ShortestArc(from, to float64) float64 {
	from = MapMinusPiToPi(from)
	to = MapMinusPiToPi(to)

	length := math.Abs(to - from)
	if length > math.Pi {
		length = 2*math.Pi - length
	}

	if !anglesEqual(MapMinusPiToPi(from+length), to) {
		return -length
	}
	return length
}

func anglesEqual(a, b float64) bool {
	d := math.Abs(MapMinusPiToPi(a - b))
	return d < angleEpsilon
}
