package ship

import (
	"fmt"
	"sync"

	"github.com/annel0/voxel-ships/internal/lattice"
	"github.com/annel0/voxel-ships/internal/logging"
	"github.com/annel0/voxel-ships/internal/material"
	"github.com/annel0/voxel-ships/internal/physics"
	"github.com/annel0/voxel-ships/internal/vec"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// UnknownWaterHeight уровень воды ещё не определён
	UnknownWaterHeight = -1

	defaultSinkMargin = 1.5
)

// Options настройки корабля
type Options struct {
	// Collisions включает масштабирование шага при столкновении со статикой мира
	Collisions bool
	// SinkMargin на сколько блоков вода должна подняться над верхом корпуса, чтобы корабль затонул
	SinkMargin float64
	// FrontSide нос движителя по умолчанию
	FrontSide lattice.Side
}

// DefaultOptions настройки по умолчанию
func DefaultOptions() Options {
	return Options{
		Collisions: true,
		SinkMargin: defaultSinkMargin,
		FrontSide:  lattice.North,
	}
}

// Ship корабль из блоков, плавающий в мире.
// Tick и все изменяющие методы вызываются из одного потока симуляции;
// только почтовый ящик серверной поправки можно заполнять из других горутин.
type Ship struct {
	id        string
	opts      Options
	world     World
	materials *material.Table
	logger    *logging.Logger

	state      State
	blocks     Lattice
	physics    *Physics
	propulsion *BlockPropulsion

	pose     Pose
	velocity Velocity
	throttle Throttle

	pilotActions    PilotActions
	oldPilotActions PilotActions
	forwardSide     lattice.Side
	hasForwardSide  bool
	sendPilot       bool
	pilotOutbox     *PilotCommand

	correctionMu sync.Mutex
	correction   *Pose

	waterHeight int
	displaced   vec.Set
	tornDown    bool
}

// New создаёт неактивный корабль. Блоки задаются через SetBlocks.
func New(id string, world World, materials *material.Table, opts Options) *Ship {
	if opts.SinkMargin <= 0 {
		opts.SinkMargin = defaultSinkMargin
	}
	if !opts.FrontSide.Valid() {
		opts.FrontSide = lattice.North
	}
	return &Ship{
		id:          id,
		opts:        opts,
		world:       world,
		materials:   materials,
		logger:      logging.GetShipLogger().With("ship", id),
		state:       StateInactive,
		waterHeight: UnknownWaterHeight,
	}
}

// SetBlocks задаёт решётку и активирует корабль.
// Пустая решётка уничтожает корабль, мир при этом не трогается.
func (s *Ship) SetBlocks(blocks Lattice) error {
	if s.state == StateDestroyed || s.state == StateSunk {
		return ErrNotActive
	}
	if blocks == nil || !blocks.IsValid() {
		s.state = StateDestroyed
		s.logger.Error("решётка корабля пуста, корабль уничтожен")
		return ErrInvalidLattice
	}

	phys, err := NewPhysics(blocks, s.materials)
	if err != nil {
		s.state = StateDestroyed
		return fmt.Errorf("build ship physics: %w", err)
	}

	s.blocks = blocks
	s.physics = phys
	s.propulsion = NewBlockPropulsion(blocks, s.materials, s.opts.FrontSide)
	s.velocity = Velocity{}
	s.state = StateActive

	s.logger.Info("корабль активирован: %d блоков, масса %.0f кг", len(blocks.Coords()), phys.Mass())
	return nil
}

// RefreshPhysics перестраивает модель вытеснения, если набор блоков изменился.
// Позиция корабля сдвигается так, чтобы блоки остались на месте в мире.
func (s *Ship) RefreshPhysics() error {
	if s.state != StateActive {
		return ErrNotActive
	}
	if s.physics.Version() == s.blocks.Version() {
		return nil
	}
	if !s.blocks.IsValid() {
		s.Destroy()
		return ErrInvalidLattice
	}

	phys, err := NewPhysics(s.blocks, s.materials)
	if err != nil {
		return fmt.Errorf("rebuild ship physics: %w", err)
	}

	// блок (0,0,0) должен остаться в той же точке мира
	anchor := s.Frame().BlocksToWorld(vec.Vec3{}.Float())
	s.physics = phys
	s.propulsion = NewBlockPropulsion(s.blocks, s.materials, s.propulsion.FrontSide())
	s.pose.Position = s.pose.Position.Add(anchor.Sub(s.Frame().BlocksToWorld(vec.Vec3{}.Float())))
	return nil
}

// ID идентификатор корабля
func (s *Ship) ID() string { return s.id }

// State текущее состояние
func (s *Ship) State() State { return s.state }

// Blocks решётка корабля
func (s *Ship) Blocks() Lattice { return s.blocks }

// Physics модель вытеснения. nil для неактивного корабля.
func (s *Ship) Physics() *Physics { return s.physics }

// Propulsion движитель
func (s *Ship) Propulsion() *BlockPropulsion { return s.propulsion }

// Pose текущая поза
func (s *Ship) Pose() Pose { return s.pose }

// SetPose ставит корабль в позу без переноса пассажиров
func (s *Ship) SetPose(p Pose) { s.pose = p }

// Velocity текущая скорость
func (s *Ship) Velocity() Velocity { return s.velocity }

// SetVelocity задаёт скорость
func (s *Ship) SetVelocity(v Velocity) { s.velocity = v }

// Throttle положение рукояток
func (s *Ship) Throttle() Throttle { return s.throttle }

// SetThrottle задаёт рукоятки. Значения ограничиваются на следующем тике.
func (s *Ship) SetThrottle(t Throttle) { s.throttle = t }

// WaterHeight уровень воды в мире, целый блок; UnknownWaterHeight если не задан
func (s *Ship) WaterHeight() int { return s.waterHeight }

// SetWaterHeight задаёт уровень воды
func (s *Ship) SetWaterHeight(h int) { s.waterHeight = h }

// Frame система координат для текущей позы
func (s *Ship) Frame() Frame {
	if s.physics == nil {
		return NewFrame(s.pose, mgl64.Vec3{})
	}
	return NewFrame(s.pose, s.physics.CenterOfMass())
}

// BoundingBox коробка мира вокруг корабля
func (s *Ship) BoundingBox() (physics.AABB, bool) {
	if s.blocks == nil {
		return physics.AABB{}, false
	}
	bounds, ok := s.blocks.BoundingBox()
	if !ok {
		return physics.AABB{}, false
	}
	return s.Frame().ShipBoundingBox(bounds), true
}

// DisplacedWater координаты мира, занятые заглушками вместо воды
func (s *Ship) DisplacedWater() []vec.Vec3 {
	return s.displaced.Sorted()
}

// SetServerPose кладёт авторитетную позу в почтовый ящик.
// Новое значение заменяет необработанное старое.
func (s *Ship) SetServerPose(p Pose) {
	s.correctionMu.Lock()
	defer s.correctionMu.Unlock()
	s.correction = &p
}

func (s *Ship) takeServerPose() (Pose, bool) {
	s.correctionMu.Lock()
	defer s.correctionMu.Unlock()
	if s.correction == nil {
		return Pose{}, false
	}
	p := *s.correction
	s.correction = nil
	return p, true
}

// SetPilotActions задаёт действия пилота и нос корабля.
// sendChanges кладёт команду в исходящий ящик на следующем тике.
func (s *Ship) SetPilotActions(actions PilotActions, forward lattice.Side, sendChanges bool) {
	s.pilotActions = actions
	s.forwardSide = forward
	s.hasForwardSide = forward.Valid()
	s.sendPilot = sendChanges
}

// PilotActions активные действия пилота
func (s *Ship) PilotActions() PilotActions { return s.pilotActions }

// TakePilotCommand забирает команду пилота, если она была поставлена в очередь
func (s *Ship) TakePilotCommand() (PilotCommand, bool) {
	if s.pilotOutbox == nil {
		return PilotCommand{}, false
	}
	cmd := *s.pilotOutbox
	s.pilotOutbox = nil
	return cmd, true
}

// Destroy уничтожает корабль и возвращает воду на место заглушек.
// Координаты, которые уже поменял кто-то другой, не трогаются.
func (s *Ship) Destroy() {
	if s.tornDown {
		return
	}
	s.tornDown = true
	if s.state != StateSunk {
		s.state = StateDestroyed
	}

	if s.world != nil {
		for _, c := range s.displaced.Sorted() {
			if s.world.BlockID(c) == material.AirWallBlockID {
				s.world.SetBlockID(c, material.WaterBlockID)
			}
		}
	}
	s.displaced = nil

	s.logger.Info("корабль уничтожен")
}
