package ship

import (
	"math"

	"github.com/annel0/voxel-ships/internal/lattice"
	"github.com/annel0/voxel-ships/internal/material"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	GramsPerKg                 = 1000.0
	AccelerationGravity        = 9.8 // м/с^2
	DragConstant               = 0.2
	AirDragConstant            = 0.0000001
	WaterDragConstant          = 0.0000003
	AngularAccelerationDivider = 5.0

	// TicksPerSecond частота симуляции, в которой выражены скорости "за тик"
	TicksPerSecond = 20.0

	topSpeedIterations = 1000
	topSpeedEpsilon    = 1e-2
)

// displacementEntry число вытесняющих блоков на уровне:
// atSurface - блоки, чьё основание на этом уровне, underwater - блоки ниже уровня
type displacementEntry struct {
	atSurface  int
	underwater int
}

// Physics модель вытеснения для одного снимка решётки.
// Строится один раз и дальше только читается; при изменении набора блоков
// строится заново.
type Physics struct {
	materials    *material.Table
	blocks       Lattice
	version      uint64
	minY, maxY   int
	displacement []displacementEntry // индекс: y - minY, уровни minY..maxY+1
	mass         float64
	centerOfMass mgl64.Vec3
	waterMass    float64

	equilibrium    float64
	hasEquilibrium bool
}

// NewPhysics строит модель вытеснения. Для пустой решётки возвращает ErrInvalidLattice.
func NewPhysics(blocks Lattice, materials *material.Table) (*Physics, error) {
	bounds, ok := blocks.BoundingBox()
	if !ok {
		return nil, ErrInvalidLattice
	}

	p := &Physics{
		materials:    materials,
		blocks:       blocks,
		version:      blocks.Version(),
		minY:         bounds.Min.Y,
		maxY:         bounds.Max.Y,
		displacement: make([]displacementEntry, bounds.Max.Y-bounds.Min.Y+2),
		waterMass:    materials.WaterBlockMass(),
	}

	coords := blocks.Coords()

	// водонепроницаемые блоки: на своём уровне у поверхности, выше - под водой
	for _, c := range coords {
		if !materials.IsWatertight(blocks.BlockID(c)) {
			continue
		}
		for y := c.Y; y <= p.maxY+1; y++ {
			e := &p.displacement[y-p.minY]
			if y == c.Y {
				e.atSurface++
			} else {
				e.underwater++
			}
		}
	}

	// запертый воздух тоже вытесняет воду
	for y := p.minY; y <= p.maxY+1; y++ {
		e := &p.displacement[y-p.minY]
		for _, c := range blocks.TrappedAir(y) {
			if c.Y == y {
				e.atSurface++
			} else {
				e.underwater++
			}
		}
	}

	var total float64
	var weighted, plain mgl64.Vec3
	for _, c := range coords {
		m := materials.Mass(blocks.BlockID(c))
		total += m
		weighted = weighted.Add(c.Center().Mul(m))
		plain = plain.Add(c.Center())
	}
	p.mass = total
	if total > 0 {
		p.centerOfMass = weighted.Mul(1 / total)
	} else {
		// невесомая решётка: берём геометрический центр
		p.centerOfMass = plain.Mul(1 / float64(len(coords)))
	}

	p.equilibrium, p.hasEquilibrium = p.computeEquilibriumWaterHeight()
	return p, nil
}

// Version версия решётки, по которой построена модель
func (p *Physics) Version() uint64 {
	return p.version
}

// Mass масса корабля, кг
func (p *Physics) Mass() float64 {
	return p.mass
}

// CenterOfMass центр масс в пространстве блоков
func (p *Physics) CenterOfMass() mgl64.Vec3 {
	return p.centerOfMass
}

func (p *Physics) entry(y int) (displacementEntry, bool) {
	if y < p.minY || y > p.maxY+1 {
		return displacementEntry{}, false
	}
	return p.displacement[y-p.minY], true
}

// DisplacedWaterMass масса воды, вытесненной при уровне воды waterHeight (пространство блоков)
func (p *Physics) DisplacedWaterMass(waterHeight float64) float64 {
	level := int(math.Floor(waterHeight))
	e, ok := p.entry(level)
	if !ok {
		if level > p.maxY+1 {
			// выше таблицы корабль погружён полностью
			e = p.displacement[len(p.displacement)-1]
			return float64(e.underwater+e.atSurface) * p.waterMass
		}
		return 0
	}
	fraction := lattice.North.FractionSubmerged(level, waterHeight)
	return (float64(e.underwater) + float64(e.atSurface)*fraction) * p.waterMass
}

// NetUpForce разность силы Архимеда и веса, Н. Положительная сила поднимает корабль.
func (p *Physics) NetUpForce(waterHeight float64) float64 {
	return (p.DisplacedWaterMass(waterHeight) - p.mass) * GramsPerKg * AccelerationGravity
}

// NetUpAcceleration ускорение от силы Архимеда и веса, блоков за тик^2
func (p *Physics) NetUpAcceleration(waterHeight float64) float64 {
	if p.mass <= 0 {
		return 0
	}
	return p.NetUpForce(waterHeight) / (p.mass * GramsPerKg) / (TicksPerSecond * TicksPerSecond)
}

// EquilibriumWaterHeight высота воды (пространство блоков), при которой корабль
// находится в равновесии. ok == false значит, что корабль тонет.
func (p *Physics) EquilibriumWaterHeight() (height float64, ok bool) {
	return p.equilibrium, p.hasEquilibrium
}

func (p *Physics) computeEquilibriumWaterHeight() (float64, bool) {
	// поднимаемся по уровням, пока полностью погружённый уровень не вытеснит больше массы корабля
	for y := p.minY; y <= p.maxY+1; y++ {
		e := p.displacement[y-p.minY]
		displaced := float64(e.underwater+e.atSurface) * p.waterMass
		if displaced > p.mass {
			return float64(y) + (p.mass-float64(e.underwater)*p.waterMass)/float64(e.atSurface)/p.waterMass, true
		}
	}
	return 0, false
}

// dragRate коэффициент логистической кривой для движения в направлении dir
// (пространство блоков). Каждая грань, смотрящая по движению, входит с весом косинуса.
func (p *Physics) dragRate(waterHeight float64, dir mgl64.Vec3) float64 {
	var air, water float64
	for _, side := range lattice.Sides {
		w := side.Normal().Dot(dir)
		if w <= 0 {
			continue
		}
		for _, c := range p.blocks.Envelope(side) {
			f := side.FractionSubmerged(c.Y, waterHeight)
			water += w * f
			air += w * (1 - f)
		}
	}
	return AirDragConstant*air + WaterDragConstant*water
}

// LinearDragCoefficient доля скорости v (пространство блоков), теряемая за тик
func (p *Physics) LinearDragCoefficient(waterHeight float64, v mgl64.Vec3) float64 {
	speed := v.Len()
	if speed == 0 {
		return 0
	}
	return logistic(speed, p.dragRate(waterHeight, v.Mul(1/speed)))
}

// AngularDragCoefficient доля угловой скорости, теряемая за тик
func (p *Physics) AngularDragCoefficient(yawSpeed float64) float64 {
	return logistic(math.Abs(yawSpeed), DragConstant)
}

// LinearAccelerationDueToDrag модуль замедления от сопротивления
func (p *Physics) LinearAccelerationDueToDrag(waterHeight float64, v mgl64.Vec3) float64 {
	return p.LinearDragCoefficient(waterHeight, v) * v.Len()
}

// AngularAccelerationDueToDrag модуль углового замедления
func (p *Physics) AngularAccelerationDueToDrag(yawSpeed float64) float64 {
	return p.AngularDragCoefficient(yawSpeed) * math.Abs(yawSpeed)
}

// LinearAccelerationDueToThrust ускорение от полной тяги, блоков за тик^2
func (p *Physics) LinearAccelerationDueToThrust(prop Propulsion) float64 {
	if prop == nil || p.mass <= 0 {
		return 0
	}
	return prop.TotalThrust() / p.mass
}

// AngularAccelerationDueToThrust угловое ускорение от полной тяги, радиан за тик^2
func (p *Physics) AngularAccelerationDueToThrust(prop Propulsion) float64 {
	return p.LinearAccelerationDueToThrust(prop) / AngularAccelerationDivider
}

// TopLinearSpeed численная оценка максимальной скорости вдоль носа движителя
// при равновесной осадке. Это неподвижная точка итерации, а не точное решение.
func (p *Physics) TopLinearSpeed(prop Propulsion) float64 {
	waterHeight, ok := p.EquilibriumWaterHeight()
	if !ok || prop == nil {
		return 0
	}

	dir := prop.FrontSide().Normal()
	accel := p.LinearAccelerationDueToThrust(prop)
	return solveTopSpeed(accel, func(speed float64) float64 {
		return p.LinearDragCoefficient(waterHeight, dir.Mul(speed))
	})
}

// TopAngularSpeed численная оценка максимальной угловой скорости
func (p *Physics) TopAngularSpeed(prop Propulsion) float64 {
	accel := p.AngularAccelerationDueToThrust(prop)
	return solveTopSpeed(accel, p.AngularDragCoefficient)
}

func solveTopSpeed(accel float64, dragCoefficient func(speed float64) float64) float64 {
	speed := 0.0
	for i := 0; i < topSpeedIterations; i++ {
		prev := speed
		speed += accel
		speed *= 1 - dragCoefficient(speed)
		if math.Abs(speed-prev) < topSpeedEpsilon {
			break
		}
	}
	return speed
}

func logistic(x, rate float64) float64 {
	return 2/(1+math.Exp(-rate*x-0.1)) - 1
}

// opposeDrag ограничивает замедление drag модулем скорости v и направляет против неё
func opposeDrag(v, drag float64) float64 {
	if v == 0 {
		return 0
	}
	return -math.Copysign(math.Min(math.Abs(drag), math.Abs(v)), v)
}
