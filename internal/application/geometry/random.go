package geometry

import (
	"math"
	"math/rand/v2"
)

// pcgStream 固定流号，保证同一种子在不同进程中得到相同序列
const pcgStream = 0x9e3779b97f4a7c15

// Random 可复现的随机源
// 正态分布采样在本地实现，不依赖标准库算法细节
type Random struct {
	r     *rand.Rand
	spare float64
	has   bool
}

// NewRandom 以种子创建随机源
func NewRandom(seed int64) *Random {
	return &Random{r: rand.New(rand.NewPCG(uint64(seed), pcgStream))}
}

// Float64 返回 [0,1) 均匀分布
func (g *Random) Float64() float64 {
	return float64(g.r.Uint64()>>11) / (1 << 53)
}

// IntN 返回 [0,n) 均匀整数
func (g *Random) IntN(n int) int {
	return int(g.r.Uint64() % uint64(n))
}

// Normal 标准正态分布，Box-Muller 变换
func (g *Random) Normal() float64 {
	if g.has {
		g.has = false
		return g.spare
	}
	u1 := g.Float64()
	for u1 == 0 {
		u1 = g.Float64()
	}
	u2 := g.Float64()
	mag := math.Sqrt(-2 * math.Log(u1))
	g.spare = mag * math.Sin(2*math.Pi*u2)
	g.has = true
	return mag * math.Cos(2*math.Pi*u2)
}

// UnitVector 单位球面上的均匀方向
func (g *Random) UnitVector() [3]float64 {
	for {
		x, y, z := g.Normal(), g.Normal(), g.Normal()
		l := math.Sqrt(x*x + y*y + z*z)
		if l > 1e-9 {
			return [3]float64{x / l, y / l, z / l}
		}
	}
}
