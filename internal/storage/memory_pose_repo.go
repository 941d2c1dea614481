package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/annel0/voxel-ships/internal/ship"
)

// MemoryPoseRepo реализует PoseRepo в памяти.
// Используется, когда внешние хранилища не настроены, и в тестах.
type MemoryPoseRepo struct {
	mu   sync.RWMutex
	data map[string]ship.Pose
}

// NewMemoryPoseRepo создает репозиторий поз в памяти
func NewMemoryPoseRepo() *MemoryPoseRepo {
	return &MemoryPoseRepo{
		data: make(map[string]ship.Pose),
	}
}

// Save сохраняет позу корабля в памяти
func (r *MemoryPoseRepo) Save(ctx context.Context, shipID string, pose ship.Pose) error {
	if err := validatePose(shipID, pose); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.data[shipID] = pose
	return nil
}

// Load загружает позу корабля из памяти
func (r *MemoryPoseRepo) Load(ctx context.Context, shipID string) (ship.Pose, bool, error) {
	if shipID == "" {
		return ship.Pose{}, false, fmt.Errorf("пустой идентификатор корабля")
	}

	select {
	case <-ctx.Done():
		return ship.Pose{}, false, ctx.Err()
	default:
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	pose, exists := r.data[shipID]
	return pose, exists, nil
}

// Delete удаляет позу корабля. Отсутствующая поза не ошибка.
func (r *MemoryPoseRepo) Delete(ctx context.Context, shipID string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.data, shipID)
	return nil
}

// BatchSave сохраняет позы атомарно: при ошибке валидации ничего не пишется
func (r *MemoryPoseRepo) BatchSave(ctx context.Context, poses map[string]ship.Pose) error {
	if len(poses) == 0 {
		return nil
	}

	for id, pose := range poses {
		if err := validatePose(id, pose); err != nil {
			return fmt.Errorf("batch: %w", err)
		}
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for id, pose := range poses {
		r.data[id] = pose
	}
	return nil
}

// Count возвращает количество сохранённых поз
func (r *MemoryPoseRepo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.data)
}

// Clear удаляет все позы
func (r *MemoryPoseRepo) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data = make(map[string]ship.Pose)
}

// Close ничего не делает
func (r *MemoryPoseRepo) Close() error { return nil }
