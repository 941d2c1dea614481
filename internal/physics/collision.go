package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ContactEpsilon зазоры меньше этого считаются касанием
const ContactEpsilon = 1e-9

// MovingBox блок движущейся решётки: текущее положение и положение после шага
type MovingBox struct {
	Current AABB
	Next    AABB
}

// ScalingToAvoidCollision возвращает долю перемещения d, после которой
// движущийся параллелепипед касается внешнего.
// По каждой оси с ненулевым движением считается доля, сокращающая зазор между
// ведущей гранью и встречной гранью до нуля; берётся максимум по осям.
// Отрицательный результат означает, что сближения не было, тогда возвращается 1.
// Результат всегда в [0,1].
func ScalingToAvoidCollision(d mgl64.Vec3, moving, external AABB) float64 {
	s := math.Inf(-1)
	for axis := 0; axis < 3; axis++ {
		var gap float64
		switch {
		case d[axis] > 0:
			gap = external.Min[axis] - moving.Max[axis]
		case d[axis] < 0:
			gap = external.Max[axis] - moving.Min[axis]
		default:
			continue
		}
		if math.Abs(gap) < ContactEpsilon {
			gap = 0
		}
		s = math.Max(s, gap/d[axis])
	}

	// нет ни одной оси с движением или настоящего сближения не было
	if s < 0 {
		return 1.0
	}
	return math.Min(s, 1.0)
}

// AvoidCollisions вычисляет общий коэффициент масштабирования перемещения d
// для всех пар (блок решётки, статический параллелепипед), которые пересекутся
// после шага. collided == true, если хотя бы одна пара пересекается.
// Функция не имеет побочных эффектов.
func AvoidCollisions(d mgl64.Vec3, moving []MovingBox, static []AABB) (scale float64, collided bool) {
	scale = 1.0
	for _, m := range moving {
		for _, box := range static {
			// пересекутся ли блоки на самом деле?
			if !box.Intersects(m.Next) {
				continue
			}
			collided = true
			scale = math.Min(scale, ScalingToAvoidCollision(d, m.Current, box))
		}
	}
	return scale, collided
}
