// Package procedural 由提示词与参数生成确定性的网格
package procedural

import (
	"math"
	"slices"

	"asset-forge/internal/application/geometry"
	"asset-forge/internal/domain/entity"
)

// 形变常量
const (
	// displacementUnit 每单位 guidance 对应的位移，相对包围半径
	displacementUnit = 0.01
	// displacementClamp 正态采样截断，单位为标准差
	displacementClamp = 3.0

	spikeFraction = 0.12
	spikeLength   = 0.35

	smoothPasses = 3
	smoothLambda = 0.5

	twistMaxAngle = math.Pi / 2
)

// DeformParams 形变参数
type DeformParams struct {
	Seed          int64
	GuidanceScale float64
	Modifiers     []entity.Modifier
}

// Deform 沿顶点法线做种子化随机位移，再应用修饰
// 只移动顶点，面与拓扑保持不变；输入网格不被修改
func Deform(base *entity.Mesh, p DeformParams) *entity.Mesh {
	m := base.Clone()
	if m.IsEmpty() {
		return m
	}
	if !m.HasNormals() {
		m.ComputeNormals()
	}
	rng := geometry.NewRandom(p.Seed)
	radius := m.BoundingRadius()

	amp := p.GuidanceScale * displacementUnit * radius
	for i := range m.Vertices {
		n := math.Max(-displacementClamp, math.Min(displacementClamp, rng.Normal()))
		m.Vertices[i] = m.Vertices[i].Add(m.Normals[i].Scale(n * amp))
	}
	m.ComputeNormals()

	if len(p.Modifiers) > 0 {
		switch p.Modifiers[0] {
		case entity.ModifierSpiky:
			spike(m, rng, radius)
		case entity.ModifierSmooth:
			smooth(m)
		case entity.ModifierTwisted:
			twist(m)
		}
		m.ComputeNormals()
	}
	return m
}

// spike 随机选取一部分顶点沿法线外推
func spike(m *entity.Mesh, rng *geometry.Random, radius float64) {
	count := max(1, int(math.Round(spikeFraction*float64(len(m.Vertices)))))
	order := make([]int, len(m.Vertices))
	for i := range order {
		order[i] = i
	}
	// 部分 Fisher-Yates 洗牌
	for i := 0; i < count; i++ {
		j := i + rng.IntN(len(order)-i)
		order[i], order[j] = order[j], order[i]
	}
	for _, idx := range order[:count] {
		m.Vertices[idx] = m.Vertices[idx].Add(m.Normals[idx].Scale(spikeLength * radius))
	}
}

// smooth 拉普拉斯平滑
func smooth(m *entity.Mesh) {
	neighbors := adjacency(m)
	for pass := 0; pass < smoothPasses; pass++ {
		next := make([]entity.Vec3, len(m.Vertices))
		for i, v := range m.Vertices {
			if len(neighbors[i]) == 0 {
				next[i] = v
				continue
			}
			var avg entity.Vec3
			for _, n := range neighbors[i] {
				avg = avg.Add(m.Vertices[n])
			}
			avg = avg.Scale(1 / float64(len(neighbors[i])))
			next[i] = v.Lerp(avg, smoothLambda)
		}
		m.Vertices = next
	}
}

// twist 绕 Y 轴扭转，扭转角随高度线性增加
func twist(m *entity.Mesh) {
	lo, hi := m.Bounds()
	height := hi[1] - lo[1]
	if height <= 0 {
		return
	}
	c := m.Center()
	for i, v := range m.Vertices {
		angle := (v[1] - lo[1]) / height * twistMaxAngle
		sin, cos := math.Sincos(angle)
		x, z := v[0]-c[0], v[2]-c[2]
		m.Vertices[i] = entity.Vec3{c[0] + x*cos - z*sin, v[1], c[2] + x*sin + z*cos}
	}
}

// adjacency 顶点邻接表，邻居按下标升序以保证求和顺序固定
func adjacency(m *entity.Mesh) [][]uint32 {
	neighbors := make([][]uint32, len(m.Vertices))
	for _, f := range m.Faces {
		for k := 0; k < 3; k++ {
			a, b := f[k], f[(k+1)%3]
			neighbors[a] = append(neighbors[a], b)
			neighbors[b] = append(neighbors[b], a)
		}
	}
	for i := range neighbors {
		slices.Sort(neighbors[i])
		neighbors[i] = slices.Compact(neighbors[i])
	}
	return neighbors
}
