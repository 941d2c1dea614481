package lattice

import (
	"testing"

	"github.com/annel0/voxel-ships/internal/material"
	"github.com/annel0/voxel-ships/internal/physics"
	"github.com/annel0/voxel-ships/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFractionSubmerged(t *testing.T) {
	for _, side := range HorizontalSides {
		assert.Equal(t, 0.0, side.FractionSubmerged(3, 2.5), side.String())
		assert.InDelta(t, 0.25, side.FractionSubmerged(3, 3.25), 1e-12, side.String())
		assert.Equal(t, 1.0, side.FractionSubmerged(3, 7), side.String())
	}
	assert.Equal(t, 0.0, Top.FractionSubmerged(3, 3.5))
	assert.Equal(t, 1.0, Top.FractionSubmerged(3, 4))
	assert.Equal(t, 1.0, Bottom.FractionSubmerged(3, 3.5))
}

func TestSideOpposite(t *testing.T) {
	for _, side := range Sides {
		o := side.Opposite()
		assert.Equal(t, side, o.Opposite())
		assert.Equal(t, -side.Dx(), o.Dx())
		assert.Equal(t, -side.Dy(), o.Dy())
		assert.Equal(t, -side.Dz(), o.Dz())

		parsed, ok := ParseSide(side.String())
		require.True(t, ok)
		assert.Equal(t, side, parsed)
	}
}

func TestBlocksBasics(t *testing.T) {
	b := NewBlocks(Raft(3, 2, material.PlanksBlockID), material.DefaultTable())

	assert.True(t, b.IsValid())
	assert.Equal(t, 6, b.Len())

	box, ok := b.BoundingBox()
	require.True(t, ok)
	assert.Equal(t, vec.Vec3{X: 0, Y: 0, Z: 0}, box.Min)
	assert.Equal(t, vec.Vec3{X: 2, Y: 0, Z: 1}, box.Max)

	t.Run("Version Changes Only With Block Set", func(t *testing.T) {
		v := b.Version()
		b.SetBlockID(vec.Vec3{X: 0, Y: 0, Z: 0}, material.PlanksBlockID)
		assert.Equal(t, v, b.Version(), "тот же блок не меняет версию")

		b.SetBlockID(vec.Vec3{X: 0, Y: 1, Z: 0}, material.LogBlockID)
		assert.Equal(t, v+1, b.Version())
		assert.Equal(t, 7, len(b.Coords()))

		b.SetBlockID(vec.Vec3{X: 0, Y: 1, Z: 0}, material.AirBlockID)
		assert.Equal(t, v+2, b.Version())
		assert.Equal(t, 6, len(b.Coords()))
	})

	t.Run("Empty", func(t *testing.T) {
		empty := NewBlocks(map[vec.Vec3]material.BlockID{{}: material.AirBlockID}, nil)
		assert.False(t, empty.IsValid())
		_, ok := empty.BoundingBox()
		assert.False(t, ok)
	})
}

func TestEnvelope(t *testing.T) {
	b := NewBlocks(Hull(3, 3, 1, material.PlanksBlockID), material.DefaultTable())

	east := b.Envelope(East)
	for _, c := range east {
		assert.Equal(t, 2, c.X)
	}
	// 3 по z на двух уровнях
	assert.Len(t, east, 6)

	top := b.Envelope(Top)
	assert.Len(t, top, 9)
	assert.Contains(t, top, vec.Vec3{X: 1, Y: 0, Z: 1}, "центр днища открыт сверху")

	bottom := b.Envelope(Bottom)
	for _, c := range bottom {
		assert.Equal(t, 0, c.Y)
	}
}

func TestTrappedAir(t *testing.T) {
	table := material.DefaultTable()
	hull := NewBlocks(Hull(3, 3, 2, material.PlanksBlockID), table)

	t.Run("Below Hull", func(t *testing.T) {
		assert.Empty(t, hull.TrappedAir(-1))
	})

	t.Run("Open Hull Holds Air", func(t *testing.T) {
		assert.Empty(t, hull.TrappedAir(0))
		assert.Equal(t, []vec.Vec3{{X: 1, Y: 1, Z: 1}}, hull.TrappedAir(1))
		assert.Equal(t, []vec.Vec3{{X: 1, Y: 1, Z: 1}, {X: 1, Y: 2, Z: 1}}, hull.TrappedAir(2))
		// выше бортов клеток не прибавляется
		assert.Len(t, hull.TrappedAir(10), 2)
	})

	t.Run("From Water Height", func(t *testing.T) {
		assert.Equal(t, hull.TrappedAir(1), hull.TrappedAirFromWaterHeight(2))
	})

	t.Run("Leaky Wall", func(t *testing.T) {
		blocks := Hull(3, 3, 2, material.PlanksBlockID)
		blocks[vec.Vec3{X: 0, Y: 1, Z: 1}] = material.WoolBlockID
		leaky := NewBlocks(blocks, table)
		assert.Empty(t, leaky.TrappedAir(2))
	})

	t.Run("Cache Invalidated", func(t *testing.T) {
		b := NewBlocks(Hull(3, 3, 1, material.PlanksBlockID), table)
		require.Len(t, b.TrappedAir(1), 1)
		b.SetBlockID(vec.Vec3{X: 1, Y: 1, Z: 1}, material.PlanksBlockID)
		assert.Empty(t, b.TrappedAir(1))
	})
}

func TestXZRangeQuery(t *testing.T) {
	b := NewBlocks(Raft(4, 4, material.PlanksBlockID), material.DefaultTable())

	got := b.XZRangeQuery(0, physics.NewAABB(0.5, 0, 0.5, 1.5, 2, 1.2))
	assert.ElementsMatch(t, []vec.Vec3{
		{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0},
		{X: 0, Y: 0, Z: 1}, {X: 1, Y: 0, Z: 1},
	}, got)

	assert.Empty(t, b.XZRangeQuery(1, physics.NewAABB(0, 0, 0, 3, 2, 3)))
}

type countingTicker struct {
	ticks []vec.Vec3
}

func (c *countingTicker) TickUpdate(api material.BlockAPI, pos vec.Vec3) {
	c.ticks = append(c.ticks, pos)
}

func TestTick(t *testing.T) {
	table := material.DefaultTable()
	ticker := &countingTicker{}
	table.RegisterTicker(material.HelmBlockID, ticker)

	blocks := Raft(2, 2, material.PlanksBlockID)
	blocks[vec.Vec3{X: 1, Y: 1, Z: 1}] = material.HelmBlockID
	b := NewBlocks(blocks, table)

	b.Tick()
	b.Tick()
	assert.Equal(t, []vec.Vec3{{X: 1, Y: 1, Z: 1}, {X: 1, Y: 1, Z: 1}}, ticker.ticks)
}
