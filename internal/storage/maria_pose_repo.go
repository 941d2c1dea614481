package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/annel0/voxel-ships/internal/ship"
	_ "github.com/go-sql-driver/mysql"
)

// MariaPoseRepo реализует PoseRepo для MariaDB/MySQL.
// Позы хранятся в таблице ship_poses.
type MariaPoseRepo struct {
	db *sql.DB
}

const upsertPoseQuery = `
	INSERT INTO ship_poses (ship_id, x, y, z, yaw, pitch)
	VALUES (?, ?, ?, ?, ?, ?)
	ON DUPLICATE KEY UPDATE
		x = VALUES(x),
		y = VALUES(y),
		z = VALUES(z),
		yaw = VALUES(yaw),
		pitch = VALUES(pitch),
		updated_at = CURRENT_TIMESTAMP
`

// NewMariaPoseRepo подключается к базе и создаёт таблицу, если её нет.
//
// Параметры:
//
//	dsn - строка подключения к базе данных (user:pass@tcp(host:port)/dbname)
func NewMariaPoseRepo(ctx context.Context, dsn string) (*MariaPoseRepo, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к MariaDB: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось проверить соединение с MariaDB: %w", err)
	}

	repo := &MariaPoseRepo{db: db}
	if err := repo.createTable(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось создать таблицу: %w", err)
	}

	return repo, nil
}

// createTable создает таблицу ship_poses, если она не существует
func (r *MariaPoseRepo) createTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS ship_poses (
			ship_id    VARCHAR(64) PRIMARY KEY,
			x          DOUBLE      NOT NULL,
			y          DOUBLE      NOT NULL,
			z          DOUBLE      NOT NULL,
			yaw        DOUBLE      NOT NULL,
			pitch      DOUBLE      NOT NULL DEFAULT 0,
			updated_at TIMESTAMP   DEFAULT CURRENT_TIMESTAMP
			           ON UPDATE   CURRENT_TIMESTAMP,
			INDEX idx_updated_at (updated_at)
		) ENGINE=InnoDB
	`

	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("ошибка создания таблицы ship_poses: %w", err)
	}
	return nil
}

// Save сохраняет позу корабля
func (r *MariaPoseRepo) Save(ctx context.Context, shipID string, pose ship.Pose) error {
	if err := validatePose(shipID, pose); err != nil {
		return err
	}

	_, err := r.db.ExecContext(ctx, upsertPoseQuery, shipID,
		pose.Position[0], pose.Position[1], pose.Position[2], pose.Yaw, pose.Pitch)
	if err != nil {
		return fmt.Errorf("ошибка сохранения позы корабля %s: %w", shipID, err)
	}
	return nil
}

// Load загружает позу корабля
func (r *MariaPoseRepo) Load(ctx context.Context, shipID string) (ship.Pose, bool, error) {
	if shipID == "" {
		return ship.Pose{}, false, fmt.Errorf("пустой идентификатор корабля")
	}

	query := `SELECT x, y, z, yaw, pitch FROM ship_poses WHERE ship_id = ?`

	var pose ship.Pose
	err := r.db.QueryRowContext(ctx, query, shipID).Scan(
		&pose.Position[0], &pose.Position[1], &pose.Position[2], &pose.Yaw, &pose.Pitch)
	if errors.Is(err, sql.ErrNoRows) {
		return ship.Pose{}, false, nil
	}
	if err != nil {
		return ship.Pose{}, false, fmt.Errorf("ошибка загрузки позы корабля %s: %w", shipID, err)
	}
	return pose, true, nil
}

// Delete удаляет позу корабля. Отсутствующая поза не ошибка.
func (r *MariaPoseRepo) Delete(ctx context.Context, shipID string) error {
	query := `DELETE FROM ship_poses WHERE ship_id = ?`

	if _, err := r.db.ExecContext(ctx, query, shipID); err != nil {
		return fmt.Errorf("ошибка удаления позы корабля %s: %w", shipID, err)
	}
	return nil
}

// BatchSave сохраняет позы в одной транзакции
func (r *MariaPoseRepo) BatchSave(ctx context.Context, poses map[string]ship.Pose) error {
	if len(poses) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertPoseQuery)
	if err != nil {
		return fmt.Errorf("ошибка подготовки запроса: %w", err)
	}
	defer stmt.Close()

	for shipID, pose := range poses {
		if err := validatePose(shipID, pose); err != nil {
			return fmt.Errorf("batch: %w", err)
		}
		_, err = stmt.ExecContext(ctx, shipID,
			pose.Position[0], pose.Position[1], pose.Position[2], pose.Yaw, pose.Pitch)
		if err != nil {
			return fmt.Errorf("ошибка сохранения позы корабля %s в batch: %w", shipID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return nil
}

// Close закрывает соединение с базой данных
func (r *MariaPoseRepo) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}
