// Package postprocess 网格后处理：减面、LOD、UV、整理与格式转换
package postprocess

import (
	"container/heap"
	"math"
	"slices"

	"asset-forge/internal/domain/entity"
)

// minClosedFaces 闭合网格的最少面数
const minClosedFaces = 4

// Decimate 减面到 fraction 比例，结果面数不超过 floor(F*fraction)
func Decimate(m *entity.Mesh, fraction float64) *entity.Mesh {
	if fraction >= 1 {
		return m.Clone()
	}
	target := int(math.Floor(float64(m.FaceCount()) * math.Max(fraction, 0)))
	return DecimateTo(m, target)
}

// DecimateTo 二次误差边折叠减面到 target 个面以内
// 折叠保持流形与闭合，折叠候选耗尽时按面顺序截断
func DecimateTo(m *entity.Mesh, target int) *entity.Mesh {
	if m.FaceCount() <= target {
		return m.Clone()
	}
	d := newDecimator(m)
	d.run(target)
	return d.result(target, m.HasNormals())
}

type collapse struct {
	cost   float64
	a, b   uint32
	verA   int
	verB   int
	target entity.Vec3
}

type collapseHeap []collapse

func (h collapseHeap) Len() int { return len(h) }

func (h collapseHeap) Less(i, j int) bool {
	if h[i].cost != h[j].cost {
		return h[i].cost < h[j].cost
	}
	if h[i].a != h[j].a {
		return h[i].a < h[j].a
	}
	return h[i].b < h[j].b
}

func (h collapseHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *collapseHeap) Push(x any) { *h = append(*h, x.(collapse)) }

func (h *collapseHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

type decimator struct {
	src       *entity.Mesh
	pos       []entity.Vec3
	faces     []entity.Face
	faceAlive []bool
	vertAlive []bool
	version   []int
	quadrics  []quadric
	incident  [][]int
	alive     int
	queue     collapseHeap
}

func newDecimator(m *entity.Mesh) *decimator {
	d := &decimator{
		src:       m,
		pos:       append([]entity.Vec3(nil), m.Vertices...),
		faces:     append([]entity.Face(nil), m.Faces...),
		faceAlive: make([]bool, len(m.Faces)),
		vertAlive: make([]bool, len(m.Vertices)),
		version:   make([]int, len(m.Vertices)),
		quadrics:  make([]quadric, len(m.Vertices)),
		incident:  make([][]int, len(m.Vertices)),
		alive:     len(m.Faces),
	}
	for i, f := range d.faces {
		d.faceAlive[i] = true
		n := m.FaceNormal(i)
		area := n.Len() / 2
		if area > 0 {
			n = n.Normalize()
			q := planeQuadric(n, -n.Dot(d.pos[f[0]]), area)
			for _, v := range f {
				d.quadrics[v] = d.quadrics[v].add(q)
			}
		}
		for _, v := range f {
			d.incident[v] = append(d.incident[v], i)
			d.vertAlive[v] = true
		}
	}
	for i, f := range d.faces {
		for k := 0; k < 3; k++ {
			a, b := f[k], f[(k+1)%3]
			// 每条内部边只在 a<b 的方向入队一次
			if a < b || !d.hasDirected(b, a, i) {
				d.push(a, b)
			}
		}
	}
	return d
}

// hasDirected 除 skip 外是否存在包含有向边 a->b 的面
func (d *decimator) hasDirected(a, b uint32, skip int) bool {
	for _, fi := range d.incident[a] {
		if fi == skip {
			continue
		}
		f := d.faces[fi]
		for k := 0; k < 3; k++ {
			if f[k] == a && f[(k+1)%3] == b {
				return true
			}
		}
	}
	return false
}

func (d *decimator) push(a, b uint32) {
	if a > b {
		a, b = b, a
	}
	q := d.quadrics[a].add(d.quadrics[b])
	pa, pb := d.pos[a], d.pos[b]
	mid := pa.Lerp(pb, 0.5)

	best, ok := q.optimal()
	if !ok || best.Sub(mid).Len() > 2*pa.Sub(pb).Len() {
		best = mid
		cost := q.error(mid)
		for _, p := range []entity.Vec3{pa, pb} {
			if c := q.error(p); c < cost {
				best, cost = p, c
			}
		}
	}
	heap.Push(&d.queue, collapse{
		cost:   math.Max(0, q.error(best)),
		a:      a,
		b:      b,
		verA:   d.version[a],
		verB:   d.version[b],
		target: best,
	})
}

func (d *decimator) run(target int) {
	heap.Init(&d.queue)
	for d.alive > target && d.queue.Len() > 0 {
		c := heap.Pop(&d.queue).(collapse)
		if !d.vertAlive[c.a] || !d.vertAlive[c.b] || d.version[c.a] != c.verA || d.version[c.b] != c.verB {
			continue
		}
		if d.alive <= minClosedFaces {
			break
		}
		if !d.canCollapse(c.a, c.b, c.target) {
			continue
		}
		d.collapse(c.a, c.b, c.target)
	}
}

func (d *decimator) liveFaces(v uint32) []int {
	out := d.incident[v][:0]
	for _, fi := range d.incident[v] {
		if d.faceAlive[fi] {
			out = append(out, fi)
		}
	}
	d.incident[v] = out
	return out
}

func (d *decimator) ring(v uint32) []uint32 {
	var out []uint32
	for _, fi := range d.liveFaces(v) {
		for _, u := range d.faces[fi] {
			if u != v {
				out = append(out, u)
			}
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func contains(f entity.Face, v uint32) bool {
	return f[0] == v || f[1] == v || f[2] == v
}

// canCollapse 链接条件与翻面检查
func (d *decimator) canCollapse(a, b uint32, p entity.Vec3) bool {
	shared := 0
	for _, fi := range d.liveFaces(a) {
		if contains(d.faces[fi], b) {
			shared++
		}
	}
	if shared != 2 {
		return false
	}
	ra, rb := d.ring(a), d.ring(b)
	common := 0
	for _, u := range ra {
		if _, found := slices.BinarySearch(rb, u); found {
			common++
		}
	}
	if common != 2 {
		return false
	}

	for _, v := range [2]uint32{a, b} {
		for _, fi := range d.liveFaces(v) {
			f := d.faces[fi]
			if contains(f, a) && contains(f, b) {
				continue
			}
			before := d.faceNormal(f, v, d.pos[v])
			after := d.faceNormal(f, v, p)
			if after.Len() <= 1e-12 || before.Dot(after) <= 0 {
				return false
			}
		}
	}
	return true
}

// faceNormal 把顶点 v 换到 p 后的面法线
func (d *decimator) faceNormal(f entity.Face, v uint32, p entity.Vec3) entity.Vec3 {
	var pts [3]entity.Vec3
	for k, idx := range f {
		if idx == v {
			pts[k] = p
		} else {
			pts[k] = d.pos[idx]
		}
	}
	return pts[1].Sub(pts[0]).Cross(pts[2].Sub(pts[0]))
}

// collapse 把 b 并入 a
func (d *decimator) collapse(a, b uint32, p entity.Vec3) {
	d.pos[a] = p
	d.quadrics[a] = d.quadrics[a].add(d.quadrics[b])
	for _, fi := range d.liveFaces(b) {
		f := d.faces[fi]
		if contains(f, a) {
			d.faceAlive[fi] = false
			d.alive--
			continue
		}
		for k := range f {
			if f[k] == b {
				f[k] = a
			}
		}
		d.faces[fi] = f
		d.incident[a] = append(d.incident[a], fi)
	}
	d.vertAlive[b] = false
	d.incident[b] = nil
	d.version[a]++

	for _, u := range d.ring(a) {
		d.push(a, u)
	}
}

func (d *decimator) result(target int, withNormals bool) *entity.Mesh {
	faces := make([]entity.Face, 0, d.alive)
	for i, f := range d.faces {
		if d.faceAlive[i] {
			faces = append(faces, f)
		}
	}
	if len(faces) > target {
		faces = faces[:max(target, 0)]
	}
	out := &entity.Mesh{Vertices: d.pos, Faces: faces}
	if d.src.HasUVs() {
		out.UVs = append([][2]float64(nil), d.src.UVs...)
	}
	out.Compact()
	if withNormals {
		out.ComputeNormals()
	}
	return out
}
