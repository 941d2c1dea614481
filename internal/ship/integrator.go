package ship

import (
	"math"

	"github.com/annel0/voxel-ships/internal/physics"
	"github.com/go-gl/mathgl/mgl64"
)

// MoveEpsilon меньшие смещения за тик не применяются
const MoveEpsilon = 1e-3

// TickResult итог одного тика
type TickResult struct {
	Moved       bool
	Delta       mgl64.Vec3
	DeltaYaw    float64
	Riders      int
	WaterWrites int
	Collided    bool
	Corrected   bool
	Sunk        bool
	// Unlaunch заполнен, если корабль затонул и был спущен на дно
	Unlaunch *Unlauncher
}

// Tick продвигает корабль на один тик симуляции
func (s *Ship) Tick() TickResult {
	var res TickResult
	if s.state != StateActive {
		return res
	}

	haveWater := s.waterHeight != UnknownWaterHeight
	waterHeight := s.waterHeightInBlocks()

	if haveWater {
		s.applyGravityAndBuoyancy(waterHeight)
	}
	s.applyThrustAndDrag(waterHeight)
	if s.opts.Collisions && s.world != nil {
		res.Collided = s.avoidCollisions()
	}

	d := s.velocity.Linear
	dYaw := s.velocity.Yaw

	if target, ok := s.takeServerPose(); ok {
		d = d.Add(target.Position.Sub(s.pose.Position))
		dYaw += ShortestArc(s.pose.Yaw, target.Yaw)
		s.pose.Pitch = target.Pitch
		res.Corrected = true
	}

	if math.Abs(d[0]) >= MoveEpsilon || math.Abs(d[1]) >= MoveEpsilon ||
		math.Abs(d[2]) >= MoveEpsilon || math.Abs(dYaw) >= MoveEpsilon {
		riders := s.Riders()

		s.pose.Position = s.pose.Position.Add(d)
		s.pose.Yaw += dYaw

		s.moveRiders(riders, d, dYaw)
		if haveWater {
			res.WaterWrites = s.moveWater(s.waterHeightInBlocks())
		}

		res.Moved = true
		res.Delta = d
		res.DeltaYaw = dYaw
		res.Riders = len(riders)
	}

	if haveWater && s.isSunk(s.waterHeightInBlocks()) {
		s.logger.Warn("корабль затонул на (%.1f,%.1f,%.1f)", s.pose.Position[0], s.pose.Position[1], s.pose.Position[2])
		s.state = StateSunk

		u := NewUnlauncher(s)
		u.SnapToNearestDirection()
		u.Unlaunch()

		res.Sunk = true
		res.Unlaunch = u
		return res
	}

	s.blocks.Tick()
	return res
}

// waterHeightInBlocks уровень воды в пространстве блоков
func (s *Ship) waterHeightInBlocks() float64 {
	return s.Frame().WorldToBlocksY(float64(s.waterHeight))
}

func (s *Ship) applyGravityAndBuoyancy(waterHeight float64) {
	vy := s.velocity.Linear[1] + s.physics.NetUpAcceleration(waterHeight)

	drag := s.physics.LinearAccelerationDueToDrag(waterHeight, mgl64.Vec3{0, vy, 0})
	vy += opposeDrag(vy, drag)

	s.velocity.Linear[1] = vy
}

func (s *Ship) applyThrustAndDrag(waterHeight float64) {
	ResetPilotActions(&s.throttle, s.pilotActions, s.oldPilotActions)
	ApplyPilotActions(&s.throttle, s.pilotActions)
	s.oldPilotActions = s.pilotActions
	s.throttle.Clamp()

	frame := s.Frame()

	// сопротивление против горизонтальной скорости
	horizontal := mgl64.Vec3{s.velocity.Linear[0], 0, s.velocity.Linear[2]}
	if speed := horizontal.Len(); speed > 0 {
		drag := s.physics.LinearAccelerationDueToDrag(waterHeight, frame.WorldToShipDirection(horizontal))
		drag = math.Min(speed, drag)
		dir := horizontal.Mul(1 / speed)
		s.velocity.Linear[0] -= dir[0] * drag
		s.velocity.Linear[2] -= dir[2] * drag
	}

	if s.hasForwardSide {
		if s.sendPilot {
			s.pilotOutbox = &PilotCommand{
				ShipID:      s.id,
				Actions:     s.pilotActions,
				ForwardSide: s.forwardSide,
				Throttle:    s.throttle,
			}
			s.sendPilot = false
		}

		forward := frame.ShipToWorldDirection(s.forwardSide.Normal())
		thrust := s.physics.LinearAccelerationDueToThrust(s.propulsion) * float64(s.throttle.Linear) / LinearThrottleMax
		s.velocity.Linear[0] += forward[0] * thrust
		s.velocity.Linear[2] += forward[2] * thrust
	}

	angularThrust := s.physics.AngularAccelerationDueToThrust(s.propulsion) * float64(s.throttle.Angular) / AngularThrottleMax
	angularDrag := opposeDrag(s.velocity.Yaw, s.physics.AngularAccelerationDueToDrag(s.velocity.Yaw))
	s.velocity.Yaw += angularThrust + angularDrag
}

// avoidCollisions масштабирует линейную скорость так, чтобы блоки корабля не
// вошли в статические блоки мира. При любом столкновении поворот отменяется.
func (s *Ship) avoidCollisions() bool {
	bounds, ok := s.blocks.BoundingBox()
	if !ok {
		return false
	}

	current := s.Frame()
	next := current
	next.Position = next.Position.Add(s.velocity.Linear)
	next.Yaw += s.velocity.Yaw

	static := s.world.CollisionBoxes(next.ShipBoundingBox(bounds))
	if len(static) == 0 {
		return false
	}

	coords := s.blocks.Coords()
	moving := make([]physics.MovingBox, 0, len(coords))
	for _, c := range coords {
		moving = append(moving, physics.MovingBox{
			Current: current.BlockWorldBox(c),
			Next:    next.BlockWorldBox(c),
		})
	}

	scale, collided := physics.AvoidCollisions(s.velocity.Linear, moving, static)
	s.velocity.Linear = s.velocity.Linear.Mul(scale)
	if collided {
		s.velocity.Yaw = 0
	}
	return collided
}

func (s *Ship) isSunk(waterHeight float64) bool {
	bounds, ok := s.blocks.BoundingBox()
	if !ok {
		return false
	}
	underwater := waterHeight > float64(bounds.Max.Y)+s.opts.SinkMargin
	return s.velocity.Linear[1] == 0 && underwater
}
