package lattice

import (
	"github.com/annel0/voxel-ships/internal/material"
	"github.com/annel0/voxel-ships/internal/vec"
)

// Raft плоский плот width x length из одного слоя блоков id на уровне y = 0
func Raft(width, length int, id material.BlockID) map[vec.Vec3]material.BlockID {
	out := make(map[vec.Vec3]material.BlockID, width*length)
	for x := 0; x < width; x++ {
		for z := 0; z < length; z++ {
			out[vec.Vec3{X: x, Y: 0, Z: z}] = id
		}
	}
	return out
}

// Hull открытый сверху корпус: днище width x length на y = 0 и борта высотой wall
func Hull(width, length, wall int, id material.BlockID) map[vec.Vec3]material.BlockID {
	out := Raft(width, length, id)
	for y := 1; y <= wall; y++ {
		for x := 0; x < width; x++ {
			for z := 0; z < length; z++ {
				if x == 0 || z == 0 || x == width-1 || z == length-1 {
					out[vec.Vec3{X: x, Y: y, Z: z}] = id
				}
			}
		}
	}
	return out
}
