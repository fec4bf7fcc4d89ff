// Package geometry 构建参数化的基础网格
package geometry

import (
	"fmt"
	"math"

	"asset-forge/internal/domain/entity"
)

// Sphere 半径为 radius 的二十面球体
func Sphere(radius float64, level int) *entity.Mesh {
	return projectRadial(UnitIcosphere(level), func(entity.Vec3) float64 { return radius })
}

// Cube 边长为 size 的立方体，由球面径向投射得到
func Cube(size float64, level int) *entity.Mesh {
	half := size / 2
	return projectRadial(UnitIcosphere(level), func(d entity.Vec3) float64 {
		m := math.Max(math.Abs(d[0]), math.Max(math.Abs(d[1]), math.Abs(d[2])))
		return half / m
	})
}

// Cylinder 沿 Y 轴的圆柱，原点位于中心
func Cylinder(radius, height float64, level int) *entity.Mesh {
	half := height / 2
	return projectRadial(UnitIcosphere(level), func(d entity.Vec3) float64 {
		t := math.Inf(1)
		if rho := math.Hypot(d[0], d[2]); rho > 0 {
			t = radius / rho
		}
		if d[1] != 0 {
			t = math.Min(t, half/math.Abs(d[1]))
		}
		return t
	})
}

// Cone 顶点在 +Y、底面在 -Y 的圆锥，原点位于半高处
func Cone(radius, height float64, level int) *entity.Mesh {
	half := height / 2
	return projectRadial(UnitIcosphere(level), func(d entity.Vec3) float64 {
		t := math.Inf(1)
		if d[1] < 0 {
			t = half / -d[1]
		}
		// 侧面：rho*t = radius*(half - t*dy)/height
		if den := math.Hypot(d[0], d[2]) + radius*d[1]/height; den > 0 {
			t = math.Min(t, (radius/2)/den)
		}
		return t
	})
}

// stoneLumps 石块表面起伏的隆起数量
const stoneLumps = 12

// Stone 带低频噪声起伏的石块，noiseScale 为相对半径的起伏幅度
func Stone(radius, noiseScale float64, level int, seed int64) *entity.Mesh {
	rng := NewRandom(seed)
	centers := make([]entity.Vec3, stoneLumps)
	weights := make([]float64, stoneLumps)
	for i := range centers {
		centers[i] = rng.UnitVector()
		weights[i] = rng.Normal()
	}
	return projectRadial(UnitIcosphere(level), func(d entity.Vec3) float64 {
		n := 0.0
		for i, c := range centers {
			n += weights[i] * math.Exp(-4*(1-d.Dot(c)))
		}
		return radius * math.Max(0.2, 1+noiseScale*n)
	})
}

// Torus 位于 XZ 平面的圆环，level 决定环向与管向的分段数
func Torus(majorRadius, minorRadius float64, level int) *entity.Mesh {
	level = clampLevel(level)
	scale := 1
	if level > 1 {
		scale = 1 << (level - 1)
	}
	nu, nv := 12*scale, 6*scale

	vertices := make([]entity.Vec3, 0, nu*nv)
	for i := 0; i < nu; i++ {
		u := 2 * math.Pi * float64(i) / float64(nu)
		for j := 0; j < nv; j++ {
			v := 2 * math.Pi * float64(j) / float64(nv)
			r := majorRadius + minorRadius*math.Cos(v)
			vertices = append(vertices, entity.Vec3{r * math.Cos(u), minorRadius * math.Sin(v), r * math.Sin(u)})
		}
	}
	idx := func(i, j int) uint32 { return uint32((i%nu)*nv + j%nv) }
	faces := make([]entity.Face, 0, 2*nu*nv)
	for i := 0; i < nu; i++ {
		for j := 0; j < nv; j++ {
			a, b, c, d := idx(i, j), idx(i+1, j), idx(i+1, j+1), idx(i, j+1)
			faces = append(faces, entity.Face{a, d, c}, entity.Face{a, c, b})
		}
	}
	m := entity.NewMesh(vertices, faces)
	m.ComputeNormals()
	return m
}

// Build 按形状与预设构建基础网格
func Build(kind entity.ShapeKind, p Preset, level int, seed int64) (*entity.Mesh, error) {
	switch kind {
	case entity.ShapeCube:
		return Cube(p.Size, level), nil
	case entity.ShapeCone:
		return Cone(p.Radius, p.Height, level), nil
	case entity.ShapeCylinder:
		return Cylinder(p.Radius, p.Height, level), nil
	case entity.ShapeStone:
		return Stone(p.Radius, p.NoiseScale, level, seed), nil
	case entity.ShapeTorus:
		return Torus(p.Radius, p.MinorRadius, level), nil
	case entity.ShapeIcosphere, entity.ShapeDefault:
		return Sphere(p.Radius, level), nil
	default:
		return nil, fmt.Errorf("unsupported shape %q", kind)
	}
}
