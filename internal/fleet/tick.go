package fleet

import (
	"context"
	"errors"
	"time"

	"github.com/annel0/voxel-ships/internal/eventbus"
	"github.com/annel0/voxel-ships/internal/ship"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TickReport итог тика флота
type TickReport struct {
	Tick      uint64
	Ships     int
	Moved     int
	Sunk      []string
	Destroyed []string
	// PilotCommands изменения рулевого, которые хост может разослать
	PilotCommands []ship.PilotCommand
}

// Tick продвигает все корабли на один тик в порядке идентификаторов.
// Затонувшие и уничтоженные корабли убираются из флота.
func (m *Manager) Tick(ctx context.Context) TickReport {
	started := time.Now()
	ctx, span := m.tracer.Start(ctx, "fleet.tick")
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.ticks++
	report := TickReport{Tick: m.ticks}

	blocks := 0
	for _, id := range m.idsLocked() {
		s := m.ships[id]

		if err := s.RefreshPhysics(); err != nil {
			if errors.Is(err, ship.ErrInvalidLattice) {
				report.Destroyed = append(report.Destroyed, id)
				m.removeDestroyedLocked(ctx, s, "empty lattice")
				continue
			}
			if !errors.Is(err, ship.ErrNotActive) {
				m.logger.Error("физика корабля %s не пересобрана: %v", id, err)
			}
		}

		res := s.Tick()
		m.recordTick(res)
		if res.Moved {
			report.Moved++
		}
		if cmd, ok := s.TakePilotCommand(); ok {
			report.PilotCommands = append(report.PilotCommands, cmd)
		}

		switch s.State() {
		case ship.StateSunk:
			report.Sunk = append(report.Sunk, id)
			m.handleSunkLocked(ctx, s, res.Unlaunch)
			continue
		case ship.StateDestroyed:
			report.Destroyed = append(report.Destroyed, id)
			m.removeDestroyedLocked(ctx, s, "destroyed during tick")
			continue
		}
		blocks += len(s.Blocks().Coords())
	}
	report.Ships = len(m.ships)

	if m.opts.SaveEvery > 0 && m.ticks%uint64(m.opts.SaveEvery) == 0 {
		m.saveAllLocked(ctx)
	}

	span.SetAttributes(
		attribute.Int64("fleet.tick", int64(report.Tick)),
		attribute.Int("fleet.ships", report.Ships),
		attribute.Int("fleet.moved", report.Moved),
	)
	if mt := m.deps.Metrics; mt != nil {
		mt.Ticks.Inc()
		mt.ActiveShips.Set(float64(report.Ships))
		mt.ShipBlocks.Set(float64(blocks))
		mt.TickDuration.Observe(time.Since(started).Seconds())
	}
	return report
}

func (m *Manager) recordTick(res ship.TickResult) {
	mt := m.deps.Metrics
	if mt == nil {
		return
	}
	mt.WaterWrites.Add(float64(res.WaterWrites))
	mt.RidersMoved.Add(float64(res.Riders))
	if res.Collided {
		mt.Collisions.Inc()
	}
	if res.Corrected {
		mt.Corrections.Inc()
	}
}

// handleSunkLocked убирает затонувший корабль. Его блоки уже лежат на дне.
func (m *Manager) handleSunkLocked(ctx context.Context, s *ship.Ship, u *ship.Unlauncher) {
	delete(m.ships, s.ID())
	if m.deps.Metrics != nil {
		m.deps.Metrics.Sunk.Inc()
	}

	ev := shipEvent(s, "sunk")
	if u != nil {
		ev.Rotation = u.Rotation()
		ev.Translation = [3]int{u.Translation().X, u.Translation().Y, u.Translation().Z}
	}
	m.logger.Warn("корабль %s затонул, блоки перенесены в %v", s.ID(), ev.Translation)
	m.publish(ctx, eventbus.ShipSunk, 7, ev)
	m.forgetLocked(ctx, s.ID())
}

func shipAttributes(s *ship.Ship) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("ship.id", s.ID()),
		attribute.String("ship.state", s.State().String()),
	}
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
