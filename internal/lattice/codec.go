package lattice

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/annel0/voxel-ships/internal/material"
	"github.com/annel0/voxel-ships/internal/vec"
	"github.com/klauspost/compress/zstd"
)

// ErrCorruptBlob блоб решётки не удалось разобрать
var ErrCorruptBlob = errors.New("corrupt lattice blob")

// Формат блоба: магия, версия, затем zstd(count, [dx dy dz id]...)
// с координатами, закодированными varint-разностями от предыдущей.
var blobMagic = []byte("VSLB")

const blobVersion byte = 1

var (
	encoderOnce sync.Once
	encoder     *zstd.Encoder
	decoderOnce sync.Once
	decoder     *zstd.Decoder
)

func zstdEncoder() *zstd.Encoder {
	encoderOnce.Do(func() {
		encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	})
	return encoder
}

func zstdDecoder() *zstd.Decoder {
	decoderOnce.Do(func() {
		decoder, _ = zstd.NewReader(nil)
	})
	return decoder
}

// Encode сериализует решётку в непрозрачный блоб
func Encode(b *Blocks) ([]byte, error) {
	coords := b.Coords()

	raw := make([]byte, 0, 8+len(coords)*6)
	raw = binary.AppendUvarint(raw, uint64(len(coords)))
	prev := vec.Vec3{}
	for _, c := range coords {
		d := c.Sub(prev)
		raw = binary.AppendVarint(raw, int64(d.X))
		raw = binary.AppendVarint(raw, int64(d.Y))
		raw = binary.AppendVarint(raw, int64(d.Z))
		raw = binary.AppendUvarint(raw, uint64(b.BlockID(c)))
		prev = c
	}

	out := make([]byte, 0, len(blobMagic)+1+len(raw)/2)
	out = append(out, blobMagic...)
	out = append(out, blobVersion)
	out = zstdEncoder().EncodeAll(raw, out)
	return out, nil
}

// Decode восстанавливает решётку из блоба
func Decode(data []byte, materials *material.Table) (*Blocks, error) {
	if len(data) < len(blobMagic)+1 || !bytes.Equal(data[:len(blobMagic)], blobMagic) {
		return nil, fmt.Errorf("%w: bad header", ErrCorruptBlob)
	}
	if v := data[len(blobMagic)]; v != blobVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorruptBlob, v)
	}

	raw, err := zstdDecoder().DecodeAll(data[len(blobMagic)+1:], nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptBlob, err)
	}

	r := bytes.NewReader(raw)
	count, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, fmt.Errorf("%w: block count: %v", ErrCorruptBlob, err)
	}
	if count > uint64(len(raw)) {
		return nil, fmt.Errorf("%w: block count %d exceeds payload", ErrCorruptBlob, count)
	}

	blocks := make(map[vec.Vec3]material.BlockID, count)
	prev := vec.Vec3{}
	for i := uint64(0); i < count; i++ {
		var d [3]int64
		for axis := range d {
			if d[axis], err = binary.ReadVarint(r); err != nil {
				return nil, fmt.Errorf("%w: block %d: %v", ErrCorruptBlob, i, err)
			}
		}
		id, err := binary.ReadUvarint(r)
		if err != nil {
			return nil, fmt.Errorf("%w: block %d id: %v", ErrCorruptBlob, i, err)
		}
		c := prev.Add(vec.Vec3{X: int(d[0]), Y: int(d[1]), Z: int(d[2])})
		blocks[c] = material.BlockID(id)
		prev = c
	}

	return NewBlocks(blocks, materials), nil
}
