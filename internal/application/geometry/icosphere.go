package geometry

import (
	"math"

	"asset-forge/internal/domain/entity"
)

// MaxSubdivision 细分层级上限，层级 7 已有 16 万余个顶点
const MaxSubdivision = 7

// UnitIcosphere 单位二十面球体，level 次细分
// 顶点数 10*4^level+2，面数 20*4^level
func UnitIcosphere(level int) *entity.Mesh {
	level = clampLevel(level)
	t := (1 + math.Sqrt(5)) / 2
	vertices := []entity.Vec3{
		{-1, t, 0}, {1, t, 0}, {-1, -t, 0}, {1, -t, 0},
		{0, -1, t}, {0, 1, t}, {0, -1, -t}, {0, 1, -t},
		{t, 0, -1}, {t, 0, 1}, {-t, 0, -1}, {-t, 0, 1},
	}
	for i := range vertices {
		vertices[i] = vertices[i].Normalize()
	}
	faces := []entity.Face{
		{0, 11, 5}, {0, 5, 1}, {0, 1, 7}, {0, 7, 10}, {0, 10, 11},
		{1, 5, 9}, {5, 11, 4}, {11, 10, 2}, {10, 7, 6}, {7, 1, 8},
		{3, 9, 4}, {3, 4, 2}, {3, 2, 6}, {3, 6, 8}, {3, 8, 9},
		{4, 9, 5}, {2, 4, 11}, {6, 2, 10}, {8, 6, 7}, {9, 8, 1},
	}

	for l := 0; l < level; l++ {
		cache := make(map[uint64]uint32, len(faces)*3/2)
		midpoint := func(a, b uint32) uint32 {
			if a > b {
				a, b = b, a
			}
			key := uint64(a)<<32 | uint64(b)
			if idx, ok := cache[key]; ok {
				return idx
			}
			idx := uint32(len(vertices))
			vertices = append(vertices, vertices[a].Add(vertices[b]).Normalize())
			cache[key] = idx
			return idx
		}
		next := make([]entity.Face, 0, len(faces)*4)
		for _, f := range faces {
			ab := midpoint(f[0], f[1])
			bc := midpoint(f[1], f[2])
			ca := midpoint(f[2], f[0])
			next = append(next,
				entity.Face{f[0], ab, ca},
				entity.Face{f[1], bc, ab},
				entity.Face{f[2], ca, bc},
				entity.Face{ab, bc, ca},
			)
		}
		faces = next
	}
	return entity.NewMesh(vertices, faces)
}

// projectRadial 把单位球面上的每个方向投射到 radius(d) 处，拓扑不变
func projectRadial(sphere *entity.Mesh, radius func(d entity.Vec3) float64) *entity.Mesh {
	out := sphere.Clone()
	for i, d := range out.Vertices {
		out.Vertices[i] = d.Scale(radius(d))
	}
	out.ComputeNormals()
	return out
}

func clampLevel(level int) int {
	if level < 0 {
		return 0
	}
	if level > MaxSubdivision {
		return MaxSubdivision
	}
	return level
}
