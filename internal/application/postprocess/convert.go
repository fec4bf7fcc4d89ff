package postprocess

import (
	"asset-forge/internal/domain/entity"
	"asset-forge/internal/infrastructure/meshio"
)

// ConvertFormat 把网格编码为 glb 或 obj
func ConvertFormat(m *entity.Mesh, format string) ([]byte, error) {
	f, err := meshio.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	return meshio.Encode(m, f)
}
