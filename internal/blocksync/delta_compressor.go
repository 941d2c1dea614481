package blocksync

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/annel0/voxel-ships/internal/eventbus"
	"github.com/annel0/voxel-ships/internal/material"
	"github.com/annel0/voxel-ships/internal/vec"
	"github.com/annel0/voxel-ships/internal/world"
	"github.com/klauspost/compress/gzip"
)

// ErrCorruptBatch пакет изменений не удалось разобрать
var ErrCorruptBatch = errors.New("corrupt block batch")

// Имена кодировок в Envelope.Metadata["encoding"]
const (
	EncodingRaw  = "raw"
	EncodingGzip = "gzip"
)

// DeltaCompressor кодирует/декодирует пакет изменений блоков.
type DeltaCompressor interface {
	Encoding() string
	Compress(changes []world.BlockChange) ([]byte, error)
	Decompress(payload []byte) ([]world.BlockChange, error)
}

// CompressorFor возвращает компрессор по имени кодировки
func CompressorFor(encoding string) (DeltaCompressor, error) {
	switch encoding {
	case EncodingRaw, "":
		return NewPassthroughCompressor(), nil
	case EncodingGzip:
		return NewSmartCompressor(), nil
	default:
		return nil, fmt.Errorf("unknown batch encoding %q", encoding)
	}
}

type passthroughCompressor struct{}

// NewPassthroughCompressor кодирует изменения varint'ами без сжатия
func NewPassthroughCompressor() DeltaCompressor { return &passthroughCompressor{} }

func (p *passthroughCompressor) Encoding() string { return EncodingRaw }

// Формат: [count] затем для каждого изменения [x y z] zigzag varint и [old new] uvarint.
func (p *passthroughCompressor) Compress(changes []world.BlockChange) ([]byte, error) {
	buf := make([]byte, 0, 1+len(changes)*8)
	buf = binary.AppendUvarint(buf, uint64(len(changes)))
	for _, c := range changes {
		buf = binary.AppendVarint(buf, int64(c.Position.X))
		buf = binary.AppendVarint(buf, int64(c.Position.Y))
		buf = binary.AppendVarint(buf, int64(c.Position.Z))
		buf = binary.AppendUvarint(buf, uint64(c.Old))
		buf = binary.AppendUvarint(buf, uint64(c.New))
	}
	return buf, nil
}

func (p *passthroughCompressor) Decompress(payload []byte) ([]world.BlockChange, error) {
	r := bytes.NewReader(payload)
	count, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, fmt.Errorf("%w: count: %v", ErrCorruptBatch, err)
	}
	// каждое изменение занимает минимум 5 байт
	if count > uint64(len(payload)) {
		return nil, fmt.Errorf("%w: count %d exceeds payload", ErrCorruptBatch, count)
	}

	res := make([]world.BlockChange, 0, count)
	for i := uint64(0); i < count; i++ {
		var coords [3]int64
		for k := range coords {
			if coords[k], err = binary.ReadVarint(r); err != nil {
				return nil, fmt.Errorf("%w: change %d: %v", ErrCorruptBatch, i, err)
			}
		}
		var ids [2]uint64
		for k := range ids {
			if ids[k], err = binary.ReadUvarint(r); err != nil {
				return nil, fmt.Errorf("%w: change %d: %v", ErrCorruptBatch, i, err)
			}
			if ids[k] > uint64(^material.BlockID(0)) {
				return nil, fmt.Errorf("%w: change %d: block id %d", ErrCorruptBatch, i, ids[k])
			}
		}
		res = append(res, world.BlockChange{
			Position: vec.Vec3{X: int(coords[0]), Y: int(coords[1]), Z: int(coords[2])},
			Old:      material.BlockID(ids[0]),
			New:      material.BlockID(ids[1]),
		})
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorruptBatch, r.Len())
	}
	return res, nil
}

// smartCompressor применяет gzip поверх passthrough-кодировки
type smartCompressor struct {
	raw passthroughCompressor
}

// NewSmartCompressor создаёт gzip-компрессор
func NewSmartCompressor() DeltaCompressor { return &smartCompressor{} }

func (s *smartCompressor) Encoding() string { return EncodingGzip }

func (s *smartCompressor) Compress(changes []world.BlockChange) ([]byte, error) {
	raw, err := s.raw.Compress(changes)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(raw); err != nil {
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *smartCompressor) Decompress(payload []byte) ([]world.BlockChange, error) {
	gz, err := gzip.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptBatch, err)
	}
	defer gz.Close()

	raw, err := io.ReadAll(gz)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptBatch, err)
	}
	return s.raw.Decompress(raw)
}

// Decode разбирает пакет изменений из события по его кодировке
func Decode(ev *eventbus.Envelope) ([]world.BlockChange, error) {
	if ev.EventType != BlocksChanged {
		return nil, fmt.Errorf("unexpected event type %q", ev.EventType)
	}
	c, err := CompressorFor(ev.Metadata["encoding"])
	if err != nil {
		return nil, err
	}
	return c.Decompress(ev.Payload)
}
