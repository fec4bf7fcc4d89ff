package entity

import (
	"fmt"
	"math"
)

// Face 三角面，按逆时针顺序引用顶点下标
type Face [3]uint32

// Mesh 三角网格
// Normals 与 UVs 可为空；非空时长度与 Vertices 一致
type Mesh struct {
	Vertices []Vec3       `json:"vertices"`
	Faces    []Face       `json:"faces"`
	Normals  []Vec3       `json:"normals,omitempty"`
	UVs      [][2]float64 `json:"uvs,omitempty"`
}

// NewMesh 创建网格
func NewMesh(vertices []Vec3, faces []Face) *Mesh {
	return &Mesh{Vertices: vertices, Faces: faces}
}

// VertexCount 顶点数
func (m *Mesh) VertexCount() int {
	if m == nil {
		return 0
	}
	return len(m.Vertices)
}

// FaceCount 三角面数
func (m *Mesh) FaceCount() int {
	if m == nil {
		return 0
	}
	return len(m.Faces)
}

// IsEmpty 没有顶点或没有面
func (m *Mesh) IsEmpty() bool {
	return m.VertexCount() == 0 || m.FaceCount() == 0
}

// HasNormals 是否带顶点法线
func (m *Mesh) HasNormals() bool {
	return m != nil && len(m.Normals) > 0 && len(m.Normals) == len(m.Vertices)
}

// HasUVs 是否带纹理坐标
func (m *Mesh) HasUVs() bool {
	return m != nil && len(m.UVs) > 0 && len(m.UVs) == len(m.Vertices)
}

// Validate 检查面下标越界与退化引用
func (m *Mesh) Validate() error {
	n := uint32(len(m.Vertices))
	for i, f := range m.Faces {
		for _, idx := range f {
			if idx >= n {
				return fmt.Errorf("face %d references vertex %d, mesh has %d vertices", i, idx, n)
			}
		}
		if f[0] == f[1] || f[1] == f[2] || f[0] == f[2] {
			return fmt.Errorf("face %d is degenerate: %v", i, f)
		}
	}
	for i, v := range m.Vertices {
		for _, c := range v {
			if math.IsNaN(c) || math.IsInf(c, 0) {
				return fmt.Errorf("vertex %d has non-finite coordinate", i)
			}
		}
	}
	if len(m.Normals) > 0 && len(m.Normals) != len(m.Vertices) {
		return fmt.Errorf("normals length %d does not match vertices %d", len(m.Normals), len(m.Vertices))
	}
	if len(m.UVs) > 0 && len(m.UVs) != len(m.Vertices) {
		return fmt.Errorf("uvs length %d does not match vertices %d", len(m.UVs), len(m.Vertices))
	}
	return nil
}

// Clone 深拷贝
func (m *Mesh) Clone() *Mesh {
	if m == nil {
		return nil
	}
	cp := &Mesh{
		Vertices: append([]Vec3(nil), m.Vertices...),
		Faces:    append([]Face(nil), m.Faces...),
	}
	if len(m.Normals) > 0 {
		cp.Normals = append([]Vec3(nil), m.Normals...)
	}
	if len(m.UVs) > 0 {
		cp.UVs = append([][2]float64(nil), m.UVs...)
	}
	return cp
}

// Bounds 轴对齐包围盒
func (m *Mesh) Bounds() (lo, hi Vec3) {
	if len(m.Vertices) == 0 {
		return Vec3{}, Vec3{}
	}
	lo, hi = m.Vertices[0], m.Vertices[0]
	for _, v := range m.Vertices[1:] {
		for k := 0; k < 3; k++ {
			lo[k] = math.Min(lo[k], v[k])
			hi[k] = math.Max(hi[k], v[k])
		}
	}
	return lo, hi
}

// Center 包围盒中心
func (m *Mesh) Center() Vec3 {
	lo, hi := m.Bounds()
	return lo.Add(hi).Scale(0.5)
}

// BoundingRadius 顶点到包围盒中心的最大距离
func (m *Mesh) BoundingRadius() float64 {
	c := m.Center()
	r := 0.0
	for _, v := range m.Vertices {
		r = math.Max(r, v.Sub(c).Len())
	}
	return r
}

// FaceNormal 面法线（未单位化，长度为面积的两倍）
func (m *Mesh) FaceNormal(i int) Vec3 {
	f := m.Faces[i]
	a, b, c := m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]
	return b.Sub(a).Cross(c.Sub(a))
}

// FaceArea 面面积
func (m *Mesh) FaceArea(i int) float64 {
	return m.FaceNormal(i).Len() / 2
}

// ComputeNormals 按面积加权累加面法线得到顶点法线
func (m *Mesh) ComputeNormals() {
	normals := make([]Vec3, len(m.Vertices))
	for i, f := range m.Faces {
		n := m.FaceNormal(i)
		for _, idx := range f {
			normals[idx] = normals[idx].Add(n)
		}
	}
	for i := range normals {
		normals[i] = normals[i].Normalize()
	}
	m.Normals = normals
}

// ReferencedVertices 被面引用的顶点标记
func (m *Mesh) ReferencedVertices() []bool {
	used := make([]bool, len(m.Vertices))
	for _, f := range m.Faces {
		used[f[0]], used[f[1]], used[f[2]] = true, true, true
	}
	return used
}

// Compact 删除未被引用的顶点并重排下标
func (m *Mesh) Compact() {
	used := m.ReferencedVertices()
	remap := make([]uint32, len(m.Vertices))
	vertices := make([]Vec3, 0, len(m.Vertices))
	var normals []Vec3
	var uvs [][2]float64
	for i, ok := range used {
		if !ok {
			continue
		}
		remap[i] = uint32(len(vertices))
		vertices = append(vertices, m.Vertices[i])
		if m.HasNormals() {
			normals = append(normals, m.Normals[i])
		}
		if m.HasUVs() {
			uvs = append(uvs, m.UVs[i])
		}
	}
	for i, f := range m.Faces {
		m.Faces[i] = Face{remap[f[0]], remap[f[1]], remap[f[2]]}
	}
	m.Vertices = vertices
	m.Normals = normals
	m.UVs = uvs
}
