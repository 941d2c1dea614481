// Package fleet управляет кораблями на стороне хоста: спуск на воду,
// тиковый цикл, возврат кораблей в мир, сохранение и события.
package fleet

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/annel0/voxel-ships/internal/eventbus"
	"github.com/annel0/voxel-ships/internal/lattice"
	"github.com/annel0/voxel-ships/internal/logging"
	"github.com/annel0/voxel-ships/internal/material"
	"github.com/annel0/voxel-ships/internal/metrics"
	"github.com/annel0/voxel-ships/internal/observability"
	"github.com/annel0/voxel-ships/internal/ship"
	"github.com/annel0/voxel-ships/internal/storage"
	"github.com/annel0/voxel-ships/internal/vec"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// eventSource имя источника событий флота
const eventSource = "fleet"

// ErrUnknownShip корабля с таким идентификатором нет во флоте
var ErrUnknownShip = errors.New("unknown ship")

// World мир, в котором плавает флот
type World interface {
	ship.World
	// WaterLevel уровень моря или ship.UnknownWaterHeight
	WaterLevel() int
}

// ShipStore долговременное хранилище кораблей
type ShipStore interface {
	Save(ctx context.Context, rec *storage.ShipRecord) error
	Load(ctx context.Context, id string) (*storage.ShipRecord, error)
	Delete(ctx context.Context, id string) error
}

// Options настройки флота
type Options struct {
	// TickInterval период тика в Run
	TickInterval time.Duration
	// MaxBlocks предельный размер спускаемой конструкции
	MaxBlocks int
	// SaveEvery автосохранение каждые N тиков, 0 выключает
	SaveEvery int
	Ship      ship.Options
}

// DefaultOptions настройки по умолчанию: 20 тиков в секунду
func DefaultOptions() Options {
	return Options{
		TickInterval: 50 * time.Millisecond,
		MaxBlocks:    4096,
		Ship:         ship.DefaultOptions(),
	}
}

// Deps внешние сервисы флота. Любое поле может быть nil.
type Deps struct {
	Store   ShipStore
	Poses   storage.PoseRepo
	Bus     eventbus.EventBus
	Metrics *metrics.Simulation
	Tracer  trace.Tracer
}

// Manager владеет кораблями и двигает их в одном потоке симуляции
type Manager struct {
	mu        sync.Mutex
	world     World
	materials *material.Table
	opts      Options
	deps      Deps
	tracer    trace.Tracer
	logger    *logging.Logger

	ships map[string]*ship.Ship
	ticks uint64
}

// NewManager создаёт пустой флот
func NewManager(world World, materials *material.Table, opts Options, deps Deps) *Manager {
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultOptions().TickInterval
	}
	if opts.MaxBlocks <= 0 {
		opts.MaxBlocks = DefaultOptions().MaxBlocks
	}
	tracer := deps.Tracer
	if tracer == nil {
		tracer = observability.Tracer("fleet")
	}
	return &Manager{
		world:     world,
		materials: materials,
		opts:      opts,
		deps:      deps,
		tracer:    tracer,
		logger:    logging.GetFleetLogger(),
		ships:     make(map[string]*ship.Ship),
	}
}

// Ship возвращает корабль по идентификатору
func (m *Manager) Ship(id string) (*ship.Ship, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.ships[id]
	return s, ok
}

// IDs идентификаторы кораблей в порядке сортировки
func (m *Manager) IDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.idsLocked()
}

func (m *Manager) idsLocked() []string {
	ids := make([]string, 0, len(m.ships))
	for id := range m.ships {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Count количество кораблей во флоте
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ships)
}

// Ticks число выполненных тиков
func (m *Manager) Ticks() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ticks
}

// SetServerPose ставит авторитетную позу в почтовый ящик корабля
func (m *Manager) SetServerPose(id string, pose ship.Pose) error {
	s, ok := m.Ship(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownShip, id)
	}
	s.SetServerPose(pose)
	return nil
}

// Pilot задаёт действия рулевого
func (m *Manager) Pilot(id string, actions ship.PilotActions, forward lattice.Side) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.ships[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownShip, id)
	}
	s.SetPilotActions(actions, forward, true)
	return nil
}

// Launch вырезает конструкцию у seed из мира и добавляет её во флот
func (m *Manager) Launch(ctx context.Context, seed vec.Vec3) (*ship.Ship, error) {
	ctx, span := m.tracer.Start(ctx, "fleet.launch")
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.NewString()
	s, err := ship.Launch(id, m.world, m.materials, seed, m.opts.MaxBlocks, m.world.WaterLevel(), m.opts.Ship)
	if err != nil {
		recordError(span, err)
		return nil, fmt.Errorf("launch at %v: %w", seed, err)
	}
	m.ships[id] = s
	span.SetAttributes(shipAttributes(s)...)

	if m.deps.Metrics != nil {
		m.deps.Metrics.Launches.Inc()
	}
	m.logger.Info("корабль %s спущен: %d блоков", id, len(s.Blocks().Coords()))
	m.publish(ctx, eventbus.ShipLaunched, 5, shipEvent(s, ""))
	m.saveLocked(ctx, s)
	return s, nil
}

// Unlaunch возвращает корабль в мир в ближайшей осевой ориентации.
// override разрешает пропустить флаги, которые допускают переопределение.
// Пассажиры переносятся тем же поворотом и сдвигом, что и блоки.
func (m *Manager) Unlaunch(ctx context.Context, id string, override bool) (*ship.Unlauncher, error) {
	ctx, span := m.tracer.Start(ctx, "fleet.unlaunch")
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.ships[id]
	if !ok {
		err := fmt.Errorf("%w: %s", ErrUnknownShip, id)
		recordError(span, err)
		return nil, err
	}
	span.SetAttributes(shipAttributes(s)...)

	u := ship.NewUnlauncher(s)
	if err := u.Check(override); err != nil {
		if m.deps.Metrics != nil {
			m.deps.Metrics.Unlaunches.WithLabelValues("blocked").Inc()
		}
		recordError(span, err)
		return nil, err
	}

	riders := s.Riders()
	u.Unlaunch()
	for _, r := range riders {
		u.ApplyUnlaunch(r)
	}

	delete(m.ships, id)
	if m.deps.Metrics != nil {
		m.deps.Metrics.Unlaunches.WithLabelValues("ok").Inc()
	}
	m.logger.Info("корабль %s возвращён в мир: сдвиг %v, поворот %d", id, u.Translation(), u.Rotation())

	ev := shipEvent(s, "unlaunch")
	ev.Rotation = u.Rotation()
	ev.Translation = [3]int{u.Translation().X, u.Translation().Y, u.Translation().Z}
	m.publish(ctx, eventbus.ShipUnlaunched, 5, ev)
	m.forgetLocked(ctx, id)
	return u, nil
}

// Destroy уничтожает корабль без возврата блоков в мир
func (m *Manager) Destroy(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.ships[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownShip, id)
	}
	s.Destroy()
	m.removeDestroyedLocked(ctx, s, "destroyed by host")
	return nil
}

func (m *Manager) removeDestroyedLocked(ctx context.Context, s *ship.Ship, reason string) {
	delete(m.ships, s.ID())
	if m.deps.Metrics != nil {
		m.deps.Metrics.Destroyed.Inc()
	}
	m.publish(ctx, eventbus.ShipDestroyed, 5, shipEvent(s, reason))
	m.forgetLocked(ctx, s.ID())
}

// Run тикает флот с периодом TickInterval до отмены ctx.
// При выходе сохраняет все корабли.
func (m *Manager) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.opts.TickInterval)
	defer ticker.Stop()

	m.logger.Info("цикл флота запущен, период %v", m.opts.TickInterval)
	for {
		select {
		case <-ctx.Done():
			saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			m.SaveAll(saveCtx)
			m.logger.Info("цикл флота остановлен после %d тиков", m.Ticks())
			return nil
		case <-ticker.C:
			m.Tick(ctx)
		}
	}
}

// publish отправляет событие, ошибки шины только логируются
func (m *Manager) publish(ctx context.Context, eventType string, priority int, payload eventbus.ShipEvent) {
	if m.deps.Bus == nil {
		return
	}
	ev, err := eventbus.NewEnvelope(eventSource, eventType, priority, payload)
	if err != nil {
		m.logger.Error("событие %s не собрано: %v", eventType, err)
		return
	}
	ev.CorrelationID = payload.ShipID
	if err := m.deps.Bus.Publish(ctx, ev); err != nil {
		m.logger.Warn("событие %s для %s не опубликовано: %v", eventType, payload.ShipID, err)
	}
}

func shipEvent(s *ship.Ship, reason string) eventbus.ShipEvent {
	p := s.Pose()
	blocks := 0
	if l := s.Blocks(); l != nil {
		blocks = len(l.Coords())
	}
	return eventbus.ShipEvent{
		ShipID:   s.ID(),
		Position: p.Position,
		Yaw:      p.Yaw,
		Blocks:   blocks,
		Reason:   reason,
	}
}
