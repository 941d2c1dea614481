package fleet

import (
	"context"
	"fmt"

	"github.com/annel0/voxel-ships/internal/eventbus"
	"github.com/annel0/voxel-ships/internal/lattice"
	"github.com/annel0/voxel-ships/internal/material"
	"github.com/annel0/voxel-ships/internal/ship"
	"github.com/annel0/voxel-ships/internal/storage"
	"github.com/annel0/voxel-ships/internal/vec"
)

// Save сохраняет один корабль
func (m *Manager) Save(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.ships[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownShip, id)
	}
	return m.saveLocked(ctx, s)
}

// SaveAll сохраняет все корабли и их позы
func (m *Manager) SaveAll(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveAllLocked(ctx)
}

func (m *Manager) saveAllLocked(ctx context.Context) {
	ctx, span := m.tracer.Start(ctx, "fleet.save_all")
	defer span.End()

	if m.deps.Poses != nil && len(m.ships) > 0 {
		poses := make(map[string]ship.Pose, len(m.ships))
		for id, s := range m.ships {
			poses[id] = s.Pose()
		}
		if err := m.deps.Poses.BatchSave(ctx, poses); err != nil {
			recordError(span, err)
			m.logger.Error("позы флота не сохранены: %v", err)
		}
	}

	if m.deps.Store == nil {
		return
	}
	for _, id := range m.idsLocked() {
		if err := m.saveRecordLocked(ctx, m.ships[id]); err != nil {
			recordError(span, err)
		}
	}
}

// saveLocked сохраняет корабль в оба хранилища
func (m *Manager) saveLocked(ctx context.Context, s *ship.Ship) error {
	if m.deps.Poses != nil {
		if err := m.deps.Poses.Save(ctx, s.ID(), s.Pose()); err != nil {
			m.logger.Error("поза корабля %s не сохранена: %v", s.ID(), err)
			return fmt.Errorf("save pose %s: %w", s.ID(), err)
		}
	}
	if m.deps.Store == nil {
		return nil
	}
	return m.saveRecordLocked(ctx, s)
}

func (m *Manager) saveRecordLocked(ctx context.Context, s *ship.Ship) error {
	rec := &storage.ShipRecord{
		ID:          s.ID(),
		Blocks:      toBlocks(s.Blocks(), m.materials),
		Pose:        s.Pose(),
		WaterHeight: s.WaterHeight(),
	}
	if err := m.deps.Store.Save(ctx, rec); err != nil {
		if m.deps.Metrics != nil {
			m.deps.Metrics.Saves.WithLabelValues("error").Inc()
		}
		m.logger.Error("корабль %s не сохранён: %v", s.ID(), err)
		return fmt.Errorf("save ship %s: %w", s.ID(), err)
	}
	if m.deps.Metrics != nil {
		m.deps.Metrics.Saves.WithLabelValues("ok").Inc()
	}
	m.publish(ctx, eventbus.ShipSaved, 1, shipEvent(s, ""))
	return nil
}

// forgetLocked удаляет корабль из хранилищ
func (m *Manager) forgetLocked(ctx context.Context, id string) {
	if m.deps.Poses != nil {
		if err := m.deps.Poses.Delete(ctx, id); err != nil {
			m.logger.Warn("поза корабля %s не удалена: %v", id, err)
		}
	}
	if m.deps.Store != nil {
		if err := m.deps.Store.Delete(ctx, id); err != nil {
			m.logger.Warn("корабль %s не удалён из хранилища: %v", id, err)
		}
	}
}

// Restore загружает корабль из хранилища и возвращает его во флот.
// Поза из репозитория поз новее, чем поза в записи корабля.
// Корабль без известного уровня воды получает уровень моря.
func (m *Manager) Restore(ctx context.Context, id string) (*ship.Ship, error) {
	ctx, span := m.tracer.Start(ctx, "fleet.restore")
	defer span.End()

	if m.deps.Store == nil {
		return nil, fmt.Errorf("%w: no ship store", storage.ErrShipNotFound)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.ships[id]; ok {
		return nil, fmt.Errorf("ship %s is already in the fleet", id)
	}

	rec, err := m.deps.Store.Load(ctx, id)
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	pose := rec.Pose
	if m.deps.Poses != nil {
		if p, found, err := m.deps.Poses.Load(ctx, id); err != nil {
			m.logger.Warn("поза корабля %s не загружена: %v", id, err)
		} else if found {
			pose = p
		}
	}

	s := ship.New(id, m.world, m.materials, m.opts.Ship)
	if err := s.SetBlocks(rec.Blocks); err != nil {
		recordError(span, err)
		return nil, fmt.Errorf("restore ship %s: %w", id, err)
	}
	s.SetPose(pose)
	waterHeight := rec.WaterHeight
	if waterHeight == ship.UnknownWaterHeight {
		waterHeight = m.world.WaterLevel()
	}
	s.SetWaterHeight(waterHeight)
	s.UpdateWater()

	m.ships[id] = s
	span.SetAttributes(shipAttributes(s)...)
	m.logger.Info("корабль %s восстановлен (формат v%d)", id, rec.Version)
	return s, nil
}

// toBlocks приводит решётку корабля к хранимому виду
func toBlocks(l ship.Lattice, materials *material.Table) *lattice.Blocks {
	if b, ok := l.(*lattice.Blocks); ok {
		return b
	}
	blocks := make(map[vec.Vec3]material.BlockID)
	for _, c := range l.Coords() {
		blocks[c] = l.BlockID(c)
	}
	return lattice.NewBlocks(blocks, materials)
}
