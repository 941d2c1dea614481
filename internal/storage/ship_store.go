package storage

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/annel0/voxel-ships/internal/lattice"
	"github.com/annel0/voxel-ships/internal/logging"
	"github.com/annel0/voxel-ships/internal/material"
	"github.com/annel0/voxel-ships/internal/ship"
	"github.com/dgraph-io/badger/v3"
)

var (
	// ErrShipNotFound корабль с таким идентификатором не сохранён
	ErrShipNotFound = errors.New("ship not found")
	// ErrUnknownRecordVersion запись сохранена неизвестной версией формата
	ErrUnknownRecordVersion = errors.New("unknown ship record version")
	// ErrStoreClosed хранилище уже закрыто
	ErrStoreClosed = errors.New("ship store is closed")
)

const shipKeyPrefix = "ship:"

// ShipRecord сохраняемое состояние корабля
type ShipRecord struct {
	ID          string
	Blocks      *lattice.Blocks
	Pose        ship.Pose
	WaterHeight int
	// Version версия формата, которой запись была прочитана. При записи игнорируется.
	Version uint8
}

// recordHeader заголовок записи V2
type recordHeader struct {
	Position    [3]float64 `json:"position"`
	Yaw         float64    `json:"yaw"`
	Pitch       float64    `json:"pitch"`
	WaterHeight int        `json:"water_height"`
}

// recordCodec чтение и запись одной версии формата
type recordCodec struct {
	read  func(data []byte, materials *material.Table, rec *ShipRecord) error
	write func(rec *ShipRecord) ([]byte, error)
}

// CurrentRecordVersion версия, которой пишутся новые записи
const CurrentRecordVersion uint8 = 2

// recordCodecs таблица версий формата. Старые версии только читаются.
var recordCodecs = map[uint8]recordCodec{
	// V1: только решётка, поза и уровень воды неизвестны
	1: {
		read: func(data []byte, materials *material.Table, rec *ShipRecord) error {
			blocks, err := lattice.Decode(data, materials)
			if err != nil {
				return err
			}
			rec.Blocks = blocks
			rec.WaterHeight = ship.UnknownWaterHeight
			return nil
		},
		write: func(rec *ShipRecord) ([]byte, error) {
			return lattice.Encode(rec.Blocks)
		},
	},
	// V2: длина заголовка, JSON заголовок с позой и уровнем воды, решётка
	2: {
		read: func(data []byte, materials *material.Table, rec *ShipRecord) error {
			n, read := binary.Uvarint(data)
			if read <= 0 || uint64(len(data)-read) < n {
				return fmt.Errorf("%w: bad header length", lattice.ErrCorruptBlob)
			}
			var h recordHeader
			if err := json.Unmarshal(data[read:read+int(n)], &h); err != nil {
				return fmt.Errorf("decode record header: %w", err)
			}
			blocks, err := lattice.Decode(data[read+int(n):], materials)
			if err != nil {
				return err
			}
			rec.Blocks = blocks
			rec.Pose = ship.Pose{Position: h.Position, Yaw: h.Yaw, Pitch: h.Pitch}
			rec.WaterHeight = h.WaterHeight
			return nil
		},
		write: func(rec *ShipRecord) ([]byte, error) {
			header, err := json.Marshal(recordHeader{
				Position:    rec.Pose.Position,
				Yaw:         rec.Pose.Yaw,
				Pitch:       rec.Pose.Pitch,
				WaterHeight: rec.WaterHeight,
			})
			if err != nil {
				return nil, fmt.Errorf("encode record header: %w", err)
			}
			blob, err := lattice.Encode(rec.Blocks)
			if err != nil {
				return nil, err
			}
			out := binary.AppendUvarint(nil, uint64(len(header)))
			out = append(out, header...)
			return append(out, blob...), nil
		},
	},
}

// ShipStore хранилище кораблей на BadgerDB
type ShipStore struct {
	db        *badger.DB
	dbPath    string
	materials *material.Table
	mutex     sync.RWMutex
	isReady   bool
	logger    *logging.Logger
}

// NewShipStore открывает хранилище кораблей в каталоге dataPath/ships
func NewShipStore(dataPath string, materials *material.Table) (*ShipStore, error) {
	dbPath := filepath.Join(dataPath, "ships")
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil // Отключаем логирование BadgerDB

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}

	return &ShipStore{
		db:        db,
		dbPath:    dbPath,
		materials: materials,
		isReady:   true,
		logger:    logging.GetStorageLogger(),
	}, nil
}

// Close закрывает хранилище
func (s *ShipStore) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.isReady {
		return nil
	}

	s.isReady = false
	return s.db.Close()
}

// Save записывает корабль текущей версией формата
func (s *ShipStore) Save(ctx context.Context, rec *ShipRecord) error {
	return s.SaveVersion(ctx, rec, CurrentRecordVersion)
}

// SaveVersion записывает корабль указанной версией формата
func (s *ShipStore) SaveVersion(ctx context.Context, rec *ShipRecord, version uint8) error {
	codec, ok := recordCodecs[version]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownRecordVersion, version)
	}
	if rec.ID == "" {
		return fmt.Errorf("пустой идентификатор корабля")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := codec.write(rec)
	if err != nil {
		return fmt.Errorf("ошибка сериализации корабля %s: %w", rec.ID, err)
	}
	data := append([]byte{version}, payload...)

	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if !s.isReady {
		return ErrStoreClosed
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(shipKeyPrefix+rec.ID), data)
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения в BadgerDB: %w", err)
	}

	s.logger.Debug("корабль %s сохранён (v%d, %d байт)", rec.ID, version, len(data))
	return nil
}

// Load читает корабль. Возвращает ErrShipNotFound, если записи нет.
func (s *ShipStore) Load(ctx context.Context, id string) (*ShipRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if !s.isReady {
		return nil, ErrStoreClosed
	}

	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(shipKeyPrefix + id))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrShipNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty record", lattice.ErrCorruptBlob)
	}
	codec, ok := recordCodecs[data[0]]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownRecordVersion, data[0])
	}

	rec := &ShipRecord{ID: id, Version: data[0]}
	if err := codec.read(data[1:], s.materials, rec); err != nil {
		return nil, fmt.Errorf("ошибка чтения корабля %s: %w", id, err)
	}
	return rec, nil
}

// Delete удаляет корабль. Отсутствующая запись не ошибка.
func (s *ShipStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if !s.isReady {
		return ErrStoreClosed
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(shipKeyPrefix + id))
	})
}

// List возвращает идентификаторы всех сохранённых кораблей
func (s *ShipStore) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if !s.isReady {
		return nil, ErrStoreClosed
	}

	ids := make([]string, 0)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(shipKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			ids = append(ids, strings.TrimPrefix(string(it.Item().Key()), shipKeyPrefix))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка обхода BadgerDB: %w", err)
	}
	return ids, nil
}
