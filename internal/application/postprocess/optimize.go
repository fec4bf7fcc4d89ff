package postprocess

import (
	"math"

	"asset-forge/internal/domain/entity"
)

// mergeEpsilon 合并重复顶点的距离量化步长
const mergeEpsilon = 1e-8

// Optimize 合并重复顶点，删除退化面、重复面与未引用顶点
func Optimize(m *entity.Mesh) *entity.Mesh {
	out := m.Clone()
	if out.IsEmpty() {
		return out
	}

	remap := make([]uint32, len(out.Vertices))
	seen := make(map[[3]int64]uint32, len(out.Vertices))
	for i, v := range out.Vertices {
		key := [3]int64{quantize(v[0]), quantize(v[1]), quantize(v[2])}
		if first, ok := seen[key]; ok {
			remap[i] = first
			continue
		}
		seen[key] = uint32(i)
		remap[i] = uint32(i)
	}

	faces := out.Faces[:0]
	unique := make(map[entity.Face]struct{}, len(out.Faces))
	for _, f := range out.Faces {
		f = entity.Face{remap[f[0]], remap[f[1]], remap[f[2]]}
		if f[0] == f[1] || f[1] == f[2] || f[0] == f[2] {
			continue
		}
		key := canonical(f)
		if _, dup := unique[key]; dup {
			continue
		}
		unique[key] = struct{}{}
		faces = append(faces, f)
	}
	out.Faces = faces
	out.Compact()
	if m.HasNormals() {
		out.ComputeNormals()
	}
	return out
}

func quantize(x float64) int64 {
	return int64(math.Round(x / mergeEpsilon))
}

// canonical 旋转到最小下标在首位，保留绕序
func canonical(f entity.Face) entity.Face {
	switch {
	case f[1] < f[0] && f[1] < f[2]:
		return entity.Face{f[1], f[2], f[0]}
	case f[2] < f[0] && f[2] < f[1]:
		return entity.Face{f[2], f[0], f[1]}
	}
	return f
}
