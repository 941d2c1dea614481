package storage

import (
	"context"
	"fmt"
	"math"

	"github.com/annel0/voxel-ships/internal/ship"
)

// PoseRepo хранит последние позы кораблей.
// Нужен для быстрого восстановления позиции и для серверной поправки
// после перезапуска, без чтения всей решётки из ShipStore.
type PoseRepo interface {
	// Save сохраняет позу корабля.
	Save(ctx context.Context, shipID string, pose ship.Pose) error

	// Load загружает позу корабля.
	// Возвращает false, если поза не сохранялась.
	Load(ctx context.Context, shipID string) (ship.Pose, bool, error)

	// Delete удаляет позу корабля.
	Delete(ctx context.Context, shipID string) error

	// BatchSave сохраняет позы нескольких кораблей (автосохранение флота).
	BatchSave(ctx context.Context, poses map[string]ship.Pose) error

	// Close освобождает соединения.
	Close() error
}

// validatePose отклоняет пустой идентификатор и нечисловые компоненты
func validatePose(shipID string, pose ship.Pose) error {
	if shipID == "" {
		return fmt.Errorf("пустой идентификатор корабля")
	}
	values := []float64{pose.Position[0], pose.Position[1], pose.Position[2], pose.Yaw, pose.Pitch}
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("недействительная поза корабля %s: %v", shipID, pose)
		}
	}
	return nil
}

var (
	_ PoseRepo = (*MemoryPoseRepo)(nil)
	_ PoseRepo = (*RedisPoseRepo)(nil)
	_ PoseRepo = (*MariaPoseRepo)(nil)
)
