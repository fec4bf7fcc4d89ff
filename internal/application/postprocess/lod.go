package postprocess

import (
	"strconv"

	"asset-forge/internal/domain/entity"
)

// LOD 一个细节层级
type LOD struct {
	Level int
	Name  string
	Mesh  *entity.Mesh
}

// LODTarget level 级的目标面数：max(4, F/2^level)
func LODTarget(faceCount, level int) int {
	return max(minClosedFaces, faceCount>>level)
}

// GenerateLOD 生成 level 级 LOD，level 0 返回副本
func GenerateLOD(m *entity.Mesh, level int) *entity.Mesh {
	if level <= 0 {
		return m.Clone()
	}
	return DecimateTo(m, LODTarget(m.FaceCount(), level))
}

// GenerateLODs 依次生成 1..levels 级 LOD，命名 lod1、lod2 ...
func GenerateLODs(m *entity.Mesh, levels int) []LOD {
	out := make([]LOD, 0, levels)
	for level := 1; level <= levels; level++ {
		out = append(out, LOD{Level: level, Name: lodName(level), Mesh: GenerateLOD(m, level)})
	}
	return out
}

func lodName(level int) string {
	return "lod" + strconv.Itoa(level)
}
