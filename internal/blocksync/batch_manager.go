package blocksync

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/annel0/voxel-ships/internal/eventbus"
	"github.com/annel0/voxel-ships/internal/logging"
	"github.com/annel0/voxel-ships/internal/vec"
	"github.com/annel0/voxel-ships/internal/world"
	"github.com/google/uuid"
)

// BlocksChanged тип события с пакетом изменений блоков мира
const BlocksChanged = "WorldBlocksChanged"

const batchPriority = 5

// BatchManager накапливает изменения блоков мира и отправляет их пакетами через EventBus.
// Повторные записи в одну клетку до сброса сливаются в одно изменение.
type BatchManager struct {
	mu      sync.Mutex
	buf     []world.BlockChange
	index   map[vec.Vec3]int
	flushCh chan struct{}

	capacity   int
	flushEvery time.Duration
	bus        eventbus.EventBus
	source     string
	compressor DeltaCompressor
	logger     *logging.Logger

	seq       atomic.Uint64
	batches   atomic.Uint64
	published atomic.Uint64
}

// NewBatchManager создаёт менеджер с лимитом буфера и интервалом отправки.
// Заполнение буфера до capacity вызывает досрочный сброс в Run.
func NewBatchManager(bus eventbus.EventBus, source string, capacity int, flushEvery time.Duration, compressor DeltaCompressor) *BatchManager {
	if compressor == nil {
		compressor = NewPassthroughCompressor()
	}
	if capacity <= 0 {
		capacity = 1024
	}
	if flushEvery <= 0 {
		flushEvery = time.Second
	}
	return &BatchManager{
		index:      make(map[vec.Vec3]int),
		flushCh:    make(chan struct{}, 1),
		capacity:   capacity,
		flushEvery: flushEvery,
		bus:        bus,
		source:     source,
		compressor: compressor,
		logger:     logging.GetSyncLogger(),
	}
}

// AddChange добавляет изменение в буфер. Подходит как world.BlockListener.
func (bm *BatchManager) AddChange(ch world.BlockChange) {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if i, ok := bm.index[ch.Position]; ok {
		bm.buf[i].New = ch.New
		return
	}
	bm.index[ch.Position] = len(bm.buf)
	bm.buf = append(bm.buf, ch)

	if len(bm.buf) >= bm.capacity {
		select {
		case bm.flushCh <- struct{}{}:
		default:
		}
	}
}

// Pending возвращает число изменений в буфере
func (bm *BatchManager) Pending() int {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	return len(bm.buf)
}

// Batches возвращает число отправленных пакетов
func (bm *BatchManager) Batches() uint64 {
	return bm.batches.Load()
}

// Published возвращает число отправленных изменений
func (bm *BatchManager) Published() uint64 {
	return bm.published.Load()
}

// Run сбрасывает буфер по таймеру и при переполнении до отмены контекста.
// Остаток буфера отправляется перед выходом.
func (bm *BatchManager) Run(ctx context.Context) {
	ticker := time.NewTicker(bm.flushEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			bm.flushLogged(ctx)
		case <-bm.flushCh:
			bm.flushLogged(ctx)
		case <-ctx.Done():
			stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			bm.flushLogged(stopCtx)
			cancel()
			return
		}
	}
}

func (bm *BatchManager) flushLogged(ctx context.Context) {
	if err := bm.Flush(ctx); err != nil {
		bm.logger.Warn("пакет изменений блоков не отправлен: %v", err)
	}
}

// Flush отсылает накопленные изменения единым сообщением.
// Клетки, вернувшиеся к исходному блоку, не отправляются.
func (bm *BatchManager) Flush(ctx context.Context) error {
	bm.mu.Lock()
	changes := make([]world.BlockChange, 0, len(bm.buf))
	for _, ch := range bm.buf {
		if ch.Old != ch.New {
			changes = append(changes, ch)
		}
	}
	bm.buf = bm.buf[:0]
	clear(bm.index)
	bm.mu.Unlock()

	if len(changes) == 0 {
		return nil
	}

	payload, err := bm.compressor.Compress(changes)
	if err != nil {
		return err
	}

	seq := bm.seq.Add(1)
	env := &eventbus.Envelope{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Source:    bm.source,
		EventType: BlocksChanged,
		Version:   1,
		Priority:  batchPriority,
		Payload:   payload,
		Metadata: map[string]string{
			"encoding": bm.compressor.Encoding(),
			"seq":      strconv.FormatUint(seq, 10),
		},
	}
	if err := bm.bus.Publish(ctx, env); err != nil {
		return err
	}

	bm.batches.Add(1)
	bm.published.Add(uint64(len(changes)))
	bm.logger.Debug("пакет %d: %d изменений, %d байт", seq, len(changes), len(payload))
	return nil
}
