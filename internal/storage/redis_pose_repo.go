package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/annel0/voxel-ships/internal/logging"
	"github.com/annel0/voxel-ships/internal/ship"
	"github.com/go-redis/redis/v8"
)

// RedisPoseRepo хранит позы кораблей в Redis.
// Save копит позы в буфере, буфер сбрасывается пайплайном по таймеру
// или при заполнении.
type RedisPoseRepo struct {
	client      *redis.Client
	keyPrefix   string
	ttl         time.Duration
	batchSize   int
	batchMu     sync.Mutex
	batchBuffer map[string]storedPose
	batchTicker *time.Ticker
	shutdown    chan struct{}
	wg          sync.WaitGroup
	logger      *logging.Logger
}

// storedPose представление позы в Redis
type storedPose struct {
	ShipID    string     `json:"ship_id"`
	Position  [3]float64 `json:"position"`
	Yaw       float64    `json:"yaw"`
	Pitch     float64    `json:"pitch"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (p storedPose) pose() ship.Pose {
	return ship.Pose{Position: p.Position, Yaw: p.Yaw, Pitch: p.Pitch}
}

// RedisConfig содержит настройки подключения к Redis
type RedisConfig struct {
	Addr         string        // Адрес Redis сервера
	Password     string        // Пароль (пустой если не требуется)
	DB           int           // Номер базы данных
	KeyPrefix    string        // Префикс для ключей
	TTL          time.Duration // Время жизни записей
	BatchSize    int           // Размер батча для записи
	BatchFlushMs int           // Интервал сброса батча в миллисекундах
}

// DefaultRedisConfig возвращает конфигурацию по умолчанию
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Addr:         "localhost:6379",
		KeyPrefix:    "ships:pose:",
		TTL:          10 * time.Minute,
		BatchSize:    100,
		BatchFlushMs: 100,
	}
}

// NewRedisPoseRepo подключается к Redis и запускает фоновый сброс батчей
func NewRedisPoseRepo(ctx context.Context, config *RedisConfig) (*RedisPoseRepo, error) {
	if config == nil {
		config = DefaultRedisConfig()
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 1
	}
	if config.BatchFlushMs <= 0 {
		config.BatchFlushMs = 100
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	repo := &RedisPoseRepo{
		client:      client,
		keyPrefix:   config.KeyPrefix,
		ttl:         config.TTL,
		batchSize:   config.BatchSize,
		batchBuffer: make(map[string]storedPose),
		batchTicker: time.NewTicker(time.Duration(config.BatchFlushMs) * time.Millisecond),
		shutdown:    make(chan struct{}),
		logger:      logging.GetStorageLogger(),
	}

	repo.wg.Add(1)
	go repo.batchFlusher()

	repo.logger.Info("подключено к Redis %s", config.Addr)
	return repo, nil
}

// Save кладёт позу в батч-буфер
func (r *RedisPoseRepo) Save(ctx context.Context, shipID string, pose ship.Pose) error {
	if err := validatePose(shipID, pose); err != nil {
		return err
	}

	r.batchMu.Lock()
	r.batchBuffer[shipID] = storedPose{
		ShipID:    shipID,
		Position:  pose.Position,
		Yaw:       pose.Yaw,
		Pitch:     pose.Pitch,
		UpdatedAt: time.Now(),
	}

	// Если буфер заполнен, сбрасываем немедленно
	if len(r.batchBuffer) >= r.batchSize {
		batch := r.batchBuffer
		r.batchBuffer = make(map[string]storedPose)
		r.batchMu.Unlock()

		return r.flushBatch(ctx, batch)
	}

	r.batchMu.Unlock()
	return nil
}

// Load читает позу. Несброшенный буфер имеет приоритет над Redis.
func (r *RedisPoseRepo) Load(ctx context.Context, shipID string) (ship.Pose, bool, error) {
	r.batchMu.Lock()
	if p, ok := r.batchBuffer[shipID]; ok {
		r.batchMu.Unlock()
		return p.pose(), true, nil
	}
	r.batchMu.Unlock()

	data, err := r.client.Get(ctx, r.keyPrefix+shipID).Result()
	if errors.Is(err, redis.Nil) {
		return ship.Pose{}, false, nil
	} else if err != nil {
		return ship.Pose{}, false, fmt.Errorf("failed to get pose: %w", err)
	}

	var p storedPose
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return ship.Pose{}, false, fmt.Errorf("failed to unmarshal pose: %w", err)
	}
	return p.pose(), true, nil
}

// Delete удаляет позу из буфера и из Redis
func (r *RedisPoseRepo) Delete(ctx context.Context, shipID string) error {
	r.batchMu.Lock()
	delete(r.batchBuffer, shipID)
	r.batchMu.Unlock()

	if err := r.client.Del(ctx, r.keyPrefix+shipID).Err(); err != nil {
		return fmt.Errorf("failed to delete pose: %w", err)
	}
	return nil
}

// BatchSave пишет позы одним пайплайном, минуя буфер
func (r *RedisPoseRepo) BatchSave(ctx context.Context, poses map[string]ship.Pose) error {
	batch := make(map[string]storedPose, len(poses))
	now := time.Now()
	for id, pose := range poses {
		if err := validatePose(id, pose); err != nil {
			return fmt.Errorf("batch: %w", err)
		}
		batch[id] = storedPose{ShipID: id, Position: pose.Position, Yaw: pose.Yaw, Pitch: pose.Pitch, UpdatedAt: now}
	}

	// более старые значения из буфера не должны перезаписать батч
	r.batchMu.Lock()
	for id := range batch {
		delete(r.batchBuffer, id)
	}
	r.batchMu.Unlock()

	return r.flushBatch(ctx, batch)
}

// Close останавливает сброс, дописывает буфер и закрывает соединение
func (r *RedisPoseRepo) Close() error {
	close(r.shutdown)
	r.wg.Wait()
	r.batchTicker.Stop()

	r.batchMu.Lock()
	batch := r.batchBuffer
	r.batchBuffer = make(map[string]storedPose)
	r.batchMu.Unlock()

	if err := r.flushBatch(context.Background(), batch); err != nil {
		r.logger.Error("не удалось сбросить батч при закрытии: %v", err)
	}
	return r.client.Close()
}

// batchFlusher периодически сбрасывает батч-буфер
func (r *RedisPoseRepo) batchFlusher() {
	defer r.wg.Done()

	for {
		select {
		case <-r.shutdown:
			return
		case <-r.batchTicker.C:
			r.batchMu.Lock()
			if len(r.batchBuffer) == 0 {
				r.batchMu.Unlock()
				continue
			}
			batch := r.batchBuffer
			r.batchBuffer = make(map[string]storedPose)
			r.batchMu.Unlock()

			if err := r.flushBatch(context.Background(), batch); err != nil {
				r.logger.Error("не удалось сбросить батч поз: %v", err)
			}
		}
	}
}

// flushBatch записывает батч поз в Redis
func (r *RedisPoseRepo) flushBatch(ctx context.Context, batch map[string]storedPose) error {
	if len(batch) == 0 {
		return nil
	}

	pipe := r.client.Pipeline()
	for shipID, p := range batch {
		data, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("failed to marshal pose %s: %w", shipID, err)
		}
		pipe.Set(ctx, r.keyPrefix+shipID, data, r.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to flush %d poses: %w", len(batch), err)
	}
	r.logger.Debug("сброшено поз в Redis: %d", len(batch))
	return nil
}
