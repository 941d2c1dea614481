package world

import (
	"testing"

	"github.com/annel0/voxel-ships/internal/physics"
	"github.com/annel0/voxel-ships/internal/ship"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpatialIndexCells(t *testing.T) {
	si := NewSpatialIndex(16)

	// сущность на границе ячеек занимает обе
	e := NewEntity("e", mgl64.Vec3{16, 0, 0.5}, playerSize)
	si.Insert(e)
	assert.Equal(t, 2, si.GetCellCount())
	assert.Equal(t, 1, si.GetEntityCount())

	e.pose = ship.Pose{Position: mgl64.Vec3{-8, 0, -8}}
	si.Update(e)
	assert.Equal(t, 1, si.GetCellCount())
	require.Len(t, si.QueryBox(physics.NewAABB(-9, 0, -9, -7, 1, -7)), 1)
	assert.Empty(t, si.QueryBox(physics.NewAABB(15, 0, 0, 17, 1, 1)))

	si.Remove("e")
	assert.Zero(t, si.GetCellCount())
	assert.Zero(t, si.GetEntityCount())
	assert.Contains(t, si.GetStats(), "0 entities")
}
