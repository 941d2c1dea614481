package blocksync

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/annel0/voxel-ships/internal/eventbus"
	"github.com/annel0/voxel-ships/internal/logging"
	"github.com/annel0/voxel-ships/internal/material"
	"github.com/annel0/voxel-ships/internal/vec"
)

// BlockSetter принимает изменения блоков (реплика мира)
type BlockSetter interface {
	SetBlockID(pos vec.Vec3, id material.BlockID)
}

// SyncConsumer слушает пакеты изменений блоков других узлов и применяет их к реплике.
type SyncConsumer struct {
	sub    eventbus.Subscription
	target BlockSetter
	source string
	logger *logging.Logger

	applied  atomic.Uint64
	rejected atomic.Uint64
}

// NewSyncConsumer подписывает target на пакеты изменений.
// Пакеты с источником source (свои же) пропускаются.
func NewSyncConsumer(ctx context.Context, bus eventbus.EventBus, target BlockSetter, source string) (*SyncConsumer, error) {
	if target == nil {
		return nil, fmt.Errorf("sync consumer: target is nil")
	}
	sc := &SyncConsumer{
		target: target,
		source: source,
		logger: logging.GetSyncLogger(),
	}
	sub, err := bus.Subscribe(ctx, eventbus.Filter{Types: []string{BlocksChanged}}, sc.handle)
	if err != nil {
		return nil, err
	}
	sc.sub = sub
	return sc, nil
}

func (sc *SyncConsumer) handle(ctx context.Context, ev *eventbus.Envelope) {
	if sc.source != "" && ev.Source == sc.source {
		return
	}

	changes, err := Decode(ev)
	if err != nil {
		sc.rejected.Add(1)
		sc.logger.Warn("пакет %s от %s отклонён: %v", ev.ID, ev.Source, err)
		return
	}

	for _, ch := range changes {
		sc.target.SetBlockID(ch.Position, ch.New)
	}
	sc.applied.Add(uint64(len(changes)))
	sc.logger.Debug("пакет %s от %s: применено %d изменений", ev.ID, ev.Source, len(changes))
}

// Applied возвращает число применённых изменений
func (sc *SyncConsumer) Applied() uint64 { return sc.applied.Load() }

// Rejected возвращает число отклонённых пакетов
func (sc *SyncConsumer) Rejected() uint64 { return sc.rejected.Load() }

// Stop отписывает потребителя
func (sc *SyncConsumer) Stop() { sc.sub.Unsubscribe() }
