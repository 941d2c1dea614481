package lattice

import (
	"math"

	"github.com/annel0/voxel-ships/internal/physics"
	"github.com/annel0/voxel-ships/internal/vec"
)

// Envelope блоки решётки, обращённые наружу в направлении side:
// для каждой линии вдоль оси грани берётся крайний блок.
func (b *Blocks) Envelope(side Side) []vec.Vec3 {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.envelopes == nil {
		b.envelopes = make(map[Side][]vec.Vec3, len(Sides))
	}
	if env, ok := b.envelopes[side]; ok {
		return env
	}

	b.buildCoordsLocked()

	// ключ линии - координата с обнулённой осью грани
	extreme := make(map[vec.Vec3]vec.Vec3)
	for _, c := range b.coords {
		key := c
		var along int
		switch {
		case side.Dx() != 0:
			key.X, along = 0, c.X*side.Dx()
		case side.Dy() != 0:
			key.Y, along = 0, c.Y*side.Dy()
		default:
			key.Z, along = 0, c.Z*side.Dz()
		}

		cur, ok := extreme[key]
		if !ok {
			extreme[key] = c
			continue
		}
		var curAlong int
		switch {
		case side.Dx() != 0:
			curAlong = cur.X * side.Dx()
		case side.Dy() != 0:
			curAlong = cur.Y * side.Dy()
		default:
			curAlong = cur.Z * side.Dz()
		}
		if along > curAlong {
			extreme[key] = c
		}
	}

	env := make([]vec.Vec3, 0, len(extreme))
	for _, c := range extreme {
		env = append(env, c)
	}
	vec.SortCoords(env)
	b.envelopes[side] = env
	return env
}

// TrappedAir пустые клетки решётки на уровнях <= level, до которых не может
// добраться вода, если она стоит до уровня level включительно.
// Вода заходит снаружи ограничивающего параллелепипеда и течёт через все клетки,
// кроме водонепроницаемых блоков.
// Заливка не поднимается выше верхнего уровня решётки, поэтому вода не
// переливается через борт: открытый сверху корпус остаётся сухим внутри
// при любом level.
func (b *Blocks) TrappedAir(level int) []vec.Vec3 {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.trapped == nil {
		b.trapped = make(map[int][]vec.Vec3)
	}
	if air, ok := b.trapped[level]; ok {
		return air
	}

	b.buildCoordsLocked()
	air := b.computeTrappedAirLocked(level)
	b.trapped[level] = air
	return air
}

// TrappedAirFromWaterHeight воздух, запертый ниже поверхности воды на высоте h
func (b *Blocks) TrappedAirFromWaterHeight(h int) []vec.Vec3 {
	return b.TrappedAir(h - 1)
}

func (b *Blocks) computeTrappedAirLocked(level int) []vec.Vec3 {
	if len(b.coords) == 0 {
		return nil
	}

	// область заливки: решётка с запасом в одну клетку по бокам и снизу
	lo := vec.Vec3{X: b.bounds.Min.X - 1, Y: b.bounds.Min.Y - 1, Z: b.bounds.Min.Z - 1}
	hi := vec.Vec3{X: b.bounds.Max.X + 1, Y: min(level, b.bounds.Max.Y), Z: b.bounds.Max.Z + 1}
	if hi.Y < b.bounds.Min.Y {
		return []vec.Vec3{}
	}
	region := Box{Min: lo, Max: hi}

	blocked := func(c vec.Vec3) bool {
		id, ok := b.blocks[c]
		if !ok {
			return false
		}
		return b.materials == nil || b.materials.IsWatertight(id)
	}

	// заливаем воду со всех граничных клеток области
	wet := make(vec.Set)
	queue := make([]vec.Vec3, 0)
	for x := lo.X; x <= hi.X; x++ {
		for y := lo.Y; y <= hi.Y; y++ {
			for z := lo.Z; z <= hi.Z; z++ {
				onEdge := x == lo.X || x == hi.X || z == lo.Z || z == hi.Z || y == lo.Y
				if !onEdge {
					continue
				}
				c := vec.Vec3{X: x, Y: y, Z: z}
				if blocked(c) || wet.Contains(c) {
					continue
				}
				wet.Add(c)
				queue = append(queue, c)
			}
		}
	}

	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		for _, side := range Sides {
			n := vec.Vec3{X: c.X + side.Dx(), Y: c.Y + side.Dy(), Z: c.Z + side.Dz()}
			if !region.Contains(n) || wet.Contains(n) || blocked(n) {
				continue
			}
			wet.Add(n)
			queue = append(queue, n)
		}
	}

	air := make([]vec.Vec3, 0)
	for x := lo.X + 1; x < hi.X; x++ {
		for y := lo.Y + 1; y <= hi.Y; y++ {
			for z := lo.Z + 1; z < hi.Z; z++ {
				c := vec.Vec3{X: x, Y: y, Z: z}
				if _, occupied := b.blocks[c]; occupied || wet.Contains(c) {
					continue
				}
				air = append(air, c)
			}
		}
	}
	vec.SortCoords(air)
	return air
}

// XZRangeQuery блоки уровня y, чья клетка пересекается с box в плоскости XZ
func (b *Blocks) XZRangeQuery(y int, box physics.AABB) []vec.Vec3 {
	b.mu.RLock()
	defer b.mu.RUnlock()

	minX := int(math.Floor(box.Min[0]))
	maxX := int(math.Floor(box.Max[0]))
	minZ := int(math.Floor(box.Min[2]))
	maxZ := int(math.Floor(box.Max[2]))

	out := make([]vec.Vec3, 0)
	for x := minX; x <= maxX; x++ {
		for z := minZ; z <= maxZ; z++ {
			c := vec.Vec3{X: x, Y: y, Z: z}
			if _, ok := b.blocks[c]; ok {
				out = append(out, c)
			}
		}
	}
	return out
}
