// Package analysis 计算网格质量指标并给出校验结论
package analysis

import (
	"math"

	"asset-forge/internal/domain/entity"
)

// MeshCodec 用于往返加载检查的编解码器
type MeshCodec interface {
	Encode(m *entity.Mesh) ([]byte, error)
	Decode(data []byte) (*entity.Mesh, error)
}

// Validator 网格指标计算器
type Validator struct {
	codec MeshCodec
}

// NewValidator 创建指标计算器
func NewValidator(codec MeshCodec) *Validator {
	return &Validator{codec: codec}
}

// Compute 计算全部指标，不修改输入网格
// encoded 为已编码的主文件内容，为空时由 codec 现场编码
func (v *Validator) Compute(m *entity.Mesh, encoded []byte) *entity.MeshMetrics {
	metrics := Geometry(m)
	if m.IsEmpty() {
		metrics.LoadError = "mesh is empty"
		return metrics
	}
	if len(encoded) == 0 {
		data, err := v.codec.Encode(m)
		if err != nil {
			metrics.LoadError = err.Error()
			return metrics
		}
		encoded = data
	}
	metrics.FileSizeBytes = int64(len(encoded))
	metrics.FileSizeMB = float64(len(encoded)) / (1024 * 1024)

	if err := v.CheckLoadable(m, encoded); err != nil {
		metrics.LoadError = err.Error()
	} else {
		metrics.Loadable = true
	}
	return metrics
}

// CheckLoadable 解码 encoded 并核对顶点数与面数
func (v *Validator) CheckLoadable(m *entity.Mesh, encoded []byte) error {
	back, err := v.codec.Decode(encoded)
	if err != nil {
		return err
	}
	if back.VertexCount() != m.VertexCount() || back.FaceCount() != m.FaceCount() {
		return &countMismatchError{
			wantV: m.VertexCount(), wantF: m.FaceCount(),
			gotV: back.VertexCount(), gotF: back.FaceCount(),
		}
	}
	return nil
}

// Geometry 只基于几何计算的指标，不涉及文件
func Geometry(m *entity.Mesh) *entity.MeshMetrics {
	metrics := &entity.MeshMetrics{
		VertexCount:      m.VertexCount(),
		FaceCount:        m.FaceCount(),
		IsEmpty:          m.IsEmpty(),
		HasUVCoordinates: m.HasUVs(),
		HasVertexNormals: m.HasNormals(),
	}
	if m.VertexCount() > 0 {
		lo, hi := m.Bounds()
		metrics.BoundingBox = entity.BoundingBox{Min: lo, Max: hi, Size: hi.Sub(lo)}
	}
	if m.FaceCount() == 0 {
		return metrics
	}

	topo := Topology(m)
	metrics.EdgeCount = topo.Edges
	metrics.IsWatertight = topo.Watertight
	metrics.IsWindingConsistent = topo.WindingConsistent
	metrics.Volume = math.Abs(SignedVolume(m))

	areas := make([]float64, len(m.Faces))
	for i := range m.Faces {
		areas[i] = m.FaceArea(i)
		metrics.SurfaceArea += areas[i]
	}
	metrics.TriangleQuality = triangleQuality(areas)
	metrics.AspectRatio = aspectRatio(m)
	return metrics
}

// TopologyInfo 边拓扑统计
type TopologyInfo struct {
	Edges             int
	BoundaryEdges     int
	NonManifoldEdges  int
	Watertight        bool
	WindingConsistent bool
}

// Topology 统计无向边，闭合要求每条边恰好被两个面共享
// 绕序一致要求每条有向边最多出现一次
func Topology(m *entity.Mesh) TopologyInfo {
	undirected := make(map[uint64]int, len(m.Faces)*3/2)
	directed := make(map[uint64]int, len(m.Faces)*3)
	for _, f := range m.Faces {
		for k := 0; k < 3; k++ {
			a, b := f[k], f[(k+1)%3]
			directed[edgeKey(a, b)]++
			if a > b {
				a, b = b, a
			}
			undirected[edgeKey(a, b)]++
		}
	}
	info := TopologyInfo{Edges: len(undirected), WindingConsistent: true}
	for _, n := range undirected {
		switch {
		case n == 1:
			info.BoundaryEdges++
		case n > 2:
			info.NonManifoldEdges++
		}
	}
	for _, n := range directed {
		if n > 1 {
			info.WindingConsistent = false
			break
		}
	}
	info.Watertight = len(undirected) > 0 && info.BoundaryEdges == 0 && info.NonManifoldEdges == 0
	return info
}

// SignedVolume 散度定理求有向体积，法线朝外时为正
func SignedVolume(m *entity.Mesh) float64 {
	vol := 0.0
	for _, f := range m.Faces {
		a, b, c := m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]
		vol += a.Dot(b.Cross(c))
	}
	return vol / 6
}

func edgeKey(a, b uint32) uint64 {
	return uint64(a)<<32 | uint64(b)
}

func triangleQuality(areas []float64) *entity.TriangleQuality {
	q := &entity.TriangleQuality{MinArea: math.Inf(1), MaxArea: math.Inf(-1)}
	sum := 0.0
	for _, a := range areas {
		q.MinArea = math.Min(q.MinArea, a)
		q.MaxArea = math.Max(q.MaxArea, a)
		sum += a
	}
	q.MeanArea = sum / float64(len(areas))
	variance := 0.0
	for _, a := range areas {
		d := a - q.MeanArea
		variance += d * d
	}
	q.StdArea = math.Sqrt(variance / float64(len(areas)))
	return q
}

// aspectRatio 每个三角形最长边与最短边之比，跳过零长度边
func aspectRatio(m *entity.Mesh) *entity.AspectRatio {
	r := &entity.AspectRatio{Min: math.Inf(1), Max: math.Inf(-1)}
	n := 0
	for _, f := range m.Faces {
		a, b, c := m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]
		e1, e2, e3 := b.Sub(a).Len(), c.Sub(b).Len(), a.Sub(c).Len()
		shortest := math.Min(e1, math.Min(e2, e3))
		if shortest == 0 {
			continue
		}
		ratio := math.Max(e1, math.Max(e2, e3)) / shortest
		r.Min = math.Min(r.Min, ratio)
		r.Max = math.Max(r.Max, ratio)
		r.Mean += ratio
		n++
	}
	if n == 0 {
		return &entity.AspectRatio{Min: 1, Max: 1, Mean: 1}
	}
	r.Mean /= float64(n)
	return r
}
