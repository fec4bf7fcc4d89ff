package postprocess

import (
	"math"

	"asset-forge/internal/domain/entity"
)

// quadric 对称 4x4 误差矩阵的上三角
type quadric [10]float64

func planeQuadric(n entity.Vec3, d, weight float64) quadric {
	a, b, c := n[0], n[1], n[2]
	return quadric{
		a * a * weight, a * b * weight, a * c * weight, a * d * weight,
		b * b * weight, b * c * weight, b * d * weight,
		c * c * weight, c * d * weight,
		d * d * weight,
	}
}

func (q quadric) add(o quadric) quadric {
	for i := range q {
		q[i] += o[i]
	}
	return q
}

// error 点 p 的二次误差
func (q quadric) error(p entity.Vec3) float64 {
	x, y, z := p[0], p[1], p[2]
	return q[0]*x*x + 2*q[1]*x*y + 2*q[2]*x*z + 2*q[3]*x +
		q[4]*y*y + 2*q[5]*y*z + 2*q[6]*y +
		q[7]*z*z + 2*q[8]*z +
		q[9]
}

// optimal 求误差最小点，矩阵奇异时返回 false
func (q quadric) optimal() (entity.Vec3, bool) {
	a := [3][3]float64{
		{q[0], q[1], q[2]},
		{q[1], q[4], q[5]},
		{q[2], q[5], q[7]},
	}
	b := entity.Vec3{-q[3], -q[6], -q[8]}
	det := det3(a)
	scale := math.Abs(q[0]) + math.Abs(q[4]) + math.Abs(q[7])
	if scale == 0 || math.Abs(det) < 1e-10*scale*scale*scale {
		return entity.Vec3{}, false
	}
	var x entity.Vec3
	for col := 0; col < 3; col++ {
		m := a
		for row := 0; row < 3; row++ {
			m[row][col] = b[row]
		}
		x[col] = det3(m) / det
	}
	return x, true
}

func det3(m [3][3]float64) float64 {
	return m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
}
