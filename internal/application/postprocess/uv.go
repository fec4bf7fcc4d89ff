package postprocess

import (
	"math"

	"asset-forge/internal/domain/entity"
)

// AddUVs 以包围盒中心做球面投影生成纹理坐标，已有 UV 时原样返回副本
func AddUVs(m *entity.Mesh) *entity.Mesh {
	out := m.Clone()
	if out.HasUVs() || out.VertexCount() == 0 {
		return out
	}
	c := out.Center()
	out.UVs = make([][2]float64, len(out.Vertices))
	for i, v := range out.Vertices {
		d := v.Sub(c)
		l := d.Len()
		if l == 0 {
			out.UVs[i] = [2]float64{0.5, 0.5}
			continue
		}
		u := 0.5 + math.Atan2(d[2], d[0])/(2*math.Pi)
		w := 0.5 + math.Asin(math.Max(-1, math.Min(1, d[1]/l)))/math.Pi
		out.UVs[i] = [2]float64{u, w}
	}
	return out
}
