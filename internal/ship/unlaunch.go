package ship

import (
	"fmt"
	"math"
	"strings"

	"github.com/annel0/voxel-ships/internal/material"
	"github.com/annel0/voxel-ships/internal/physics"
	"github.com/annel0/voxel-ships/internal/vec"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// alignedToleranceDeg допустимое отклонение рыскания от оси при спуске
	alignedToleranceDeg = 10.0
	// snapEpsilon погрешность, которую прощаем при округлении вверх по высоте
	snapEpsilon = 1e-9
)

// UnlaunchFlag условие, при котором корабль можно вернуть в мир
type UnlaunchFlag int

const (
	// AlignedToDirection рыскание близко к одной из осей
	AlignedToDirection UnlaunchFlag = iota
	// TouchingOnlySeparatorBlocks блоки корпуса касаются только разделителей
	TouchingOnlySeparatorBlocks
)

type unlaunchFlagBehavior struct {
	name          string
	allowOverride bool
	compute       func(u *Unlauncher) bool
}

var unlaunchFlagTable = [...]unlaunchFlagBehavior{
	AlignedToDirection: {
		name:          "aligned_to_direction",
		allowOverride: false,
		compute: func(u *Unlauncher) bool {
			deg := mgl64.RadToDeg(u.yaw)
			off := WrapDegrees180(deg - 90*math.Round(deg/90))
			return math.Abs(off) < alignedToleranceDeg
		},
	},
	TouchingOnlySeparatorBlocks: {
		name:          "touching_only_separator_blocks",
		allowOverride: true,
		compute: func(u *Unlauncher) bool {
			if u.world == nil {
				return true
			}
			placed := make(vec.Set, len(u.correspondence))
			for _, w := range u.correspondence {
				placed.Add(w)
			}
			for _, w := range placed.Sorted() {
				for _, side := range sides {
					n := w.Add(side)
					if placed.Contains(n) {
						continue
					}
					if !u.materials.IsSeparator(u.world.BlockID(n)) {
						return false
					}
				}
			}
			return true
		},
	},
}

var sides = []vec.Vec3{
	{X: 0, Y: 0, Z: -1}, {X: 0, Y: 0, Z: 1},
	{X: 1, Y: 0, Z: 0}, {X: -1, Y: 0, Z: 0},
	{X: 0, Y: 1, Z: 0}, {X: 0, Y: -1, Z: 0},
}

// UnlaunchFlags все флаги в порядке объявления
var UnlaunchFlags = []UnlaunchFlag{AlignedToDirection, TouchingOnlySeparatorBlocks}

// String имя флага
func (f UnlaunchFlag) String() string {
	if int(f) >= len(unlaunchFlagTable) || f < 0 {
		return "unknown"
	}
	return unlaunchFlagTable[f].name
}

// OverrideAllowed можно ли игнорировать флаг по решению хоста
func (f UnlaunchFlag) OverrideAllowed() bool {
	return unlaunchFlagTable[f].allowOverride
}

var (
	snapCos = [4]int{1, 0, -1, 0}
	snapSin = [4]int{0, 1, 0, -1}
)

// Unlauncher сопоставляет блоки корабля клеткам мира для возврата корабля в мир
type Unlauncher struct {
	ship      *Ship
	world     World
	materials *material.Table
	yaw       float64

	correspondence   map[vec.Vec3]vec.Vec3
	flags            []bool
	waterHeight      int        // уровень воды в пространстве блоков
	anchor           mgl64.Vec3 // блок (0,0,0) в мире до привязки
	translation      vec.Vec3
	deltaTranslation mgl64.Vec3
	rotation         int // число четвертей оборота
	deltaRotation    float64
}

// NewUnlauncher вычисляет соответствие и флаги для текущей позы корабля
func NewUnlauncher(s *Ship) *Unlauncher {
	u := &Unlauncher{
		ship:      s,
		world:     s.world,
		materials: s.materials,
	}
	u.compute()
	return u
}

func (u *Unlauncher) compute() {
	s := u.ship
	u.yaw = s.pose.Yaw

	// перенос: блок (0,0,0) в ближайшую клетку мира
	p := s.Frame().BlocksToWorld(mgl64.Vec3{})
	u.anchor = p
	u.translation = vec.Vec3{
		X: int(math.Floor(p[0] + 0.5)),
		Y: int(math.Ceil(p[1] - snapEpsilon)),
		Z: int(math.Floor(p[2] + 0.5)),
	}
	u.deltaTranslation = u.translation.Float().Sub(p)

	// уровень воды, ниже которого запертый воздух тоже переносится
	u.waterHeight = UnknownWaterHeight
	coords := vec.NewSet(s.blocks.Coords()...)
	if s.waterHeight != UnknownWaterHeight {
		u.waterHeight = int(math.Floor(float64(s.waterHeight)+0.5)) - u.translation.Y
		for _, c := range s.blocks.TrappedAirFromWaterHeight(u.waterHeight) {
			coords.Add(c)
		}
	}

	// поворот до ближайшей четверти
	yaw := MapZeroToTwoPi(u.yaw)
	u.rotation = ((int(yaw/(math.Pi/2)+0.5) % 4) + 4) % 4
	u.deltaRotation = math.Pi/2*float64(u.rotation) - yaw
	cos, sin := snapCos[u.rotation], snapSin[u.rotation]
	// поворот клетки вокруг её центра: сдвиг возвращает угол клетки на место
	ox, oz := (cos+sin-1)/2, (cos-sin-1)/2

	u.correspondence = make(map[vec.Vec3]vec.Vec3, len(coords))
	for c := range coords {
		w := vec.Vec3{
			X: c.X*cos + c.Z*sin + ox,
			Y: c.Y,
			Z: -c.X*sin + c.Z*cos + oz,
		}
		u.correspondence[c] = w.Add(u.translation)
	}

	u.flags = make([]bool, len(unlaunchFlagTable))
	for i, f := range unlaunchFlagTable {
		u.flags[i] = f.compute(u)
	}
}

// Correspondence координата блока -> координата мира. Карту нельзя менять.
func (u *Unlauncher) Correspondence() map[vec.Vec3]vec.Vec3 {
	return u.correspondence
}

// WaterHeight уровень воды в пространстве блоков после привязки
func (u *Unlauncher) WaterHeight() int { return u.waterHeight }

// Translation целочисленный перенос блока (0,0,0)
func (u *Unlauncher) Translation() vec.Vec3 { return u.translation }

// Rotation число четвертей оборота, 0..3
func (u *Unlauncher) Rotation() int { return u.rotation }

// DeltaRotation остаток поворота, радианы
func (u *Unlauncher) DeltaRotation() float64 { return u.deltaRotation }

// DeltaTranslation остаток переноса
func (u *Unlauncher) DeltaTranslation() mgl64.Vec3 { return u.deltaTranslation }

// Flag значение флага
func (u *Unlauncher) Flag(f UnlaunchFlag) bool {
	return u.flags[f]
}

// FailedFlags флаги, которые не выполнены
func (u *Unlauncher) FailedFlags() []UnlaunchFlag {
	out := make([]UnlaunchFlag, 0)
	for _, f := range UnlaunchFlags {
		if !u.flags[f] {
			out = append(out, f)
		}
	}
	return out
}

// IsUnlaunchable все флаги выполнены, либо невыполненные можно переопределить при override
func (u *Unlauncher) IsUnlaunchable(override bool) bool {
	for _, f := range UnlaunchFlags {
		if !u.flags[f] && !(override && f.OverrideAllowed()) {
			return false
		}
	}
	return true
}

// Check возвращает ErrNotUnlaunchable с перечнем невыполненных флагов
func (u *Unlauncher) Check(override bool) error {
	if u.IsUnlaunchable(override) {
		return nil
	}
	names := make([]string, 0)
	for _, f := range u.FailedFlags() {
		names = append(names, f.String())
	}
	return fmt.Errorf("%w: %s", ErrNotUnlaunchable, strings.Join(names, ", "))
}

// SnapToNearestDirection поворачивает корабль к ближайшей оси и пересчитывает соответствие
func (u *Unlauncher) SnapToNearestDirection() {
	u.ship.pose.Yaw = math.Pi / 2 * float64(u.rotation)
	u.compute()
}

// SnapToLaunchDirection возвращает кораблю рыскание 0 и пересчитывает соответствие
func (u *Unlauncher) SnapToLaunchDirection() {
	u.ship.pose.Yaw = 0
	u.compute()
}

// ApplyUnlaunch переносит сущность тем же поворотом и переносом, что и блоки:
// поворот на DeltaRotation вокруг старого положения блока (0,0,0), затем перенос в клетку
func (u *Unlauncher) ApplyUnlaunch(e Entity) {
	p := e.Pose()
	rel := p.Position.Sub(u.anchor)
	rel[1] = 0
	rel = physics.RotateYaw(rel, u.deltaRotation)

	p.Position = mgl64.Vec3{
		float64(u.translation.X) + rel[0],
		p.Position[1] + u.deltaTranslation[1],
		float64(u.translation.Z) + rel[2],
	}
	p.Yaw += u.deltaRotation
	e.SetPose(p)
}

// Unlaunch уничтожает корабль и записывает его блоки в мир по соответствию.
// Клетки запертого воздуха становятся воздухом.
func (u *Unlauncher) Unlaunch() {
	s := u.ship
	s.Destroy()
	if u.world == nil {
		return
	}

	coords := make([]vec.Vec3, 0, len(u.correspondence))
	for c := range u.correspondence {
		coords = append(coords, c)
	}
	vec.SortCoords(coords)

	for _, c := range coords {
		w := u.correspondence[c]
		id := s.blocks.BlockID(c)
		u.world.SetBlockID(w, id)
	}
}
