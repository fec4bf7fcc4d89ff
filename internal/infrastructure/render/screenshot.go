// Package render 网格预览图的软件光栅化
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"sort"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/chewxy/math32"
	"golang.org/x/image/vector"

	"asset-forge/internal/domain/entity"
)

// DefaultSize 预览图默认边长
const DefaultSize = 512

var (
	background = color.RGBA{R: 173, G: 216, B: 230, A: 255}
	baseColor  = [3]float32{200, 190, 175}
)

// Options 渲染参数
type Options struct {
	Size int
	// ViewDir 从目标指向相机的方向
	ViewDir [3]float32
	// LightDir 指向光源的方向
	LightDir [3]float32
}

// DefaultOptions 斜上方视角
func DefaultOptions() Options {
	return Options{
		Size:     DefaultSize,
		ViewDir:  [3]float32{1, 0.8, 1.2},
		LightDir: [3]float32{0.5, 1, 0.7},
	}
}

type projected struct {
	x, y, depth float32
}

type triangle struct {
	pts   [3]projected
	depth float32
	shade float32
}

// Render 画家算法按深度排序、背面剔除、平面着色
func Render(m *entity.Mesh, opts Options) (*image.RGBA, error) {
	if m.IsEmpty() {
		return nil, fmt.Errorf("render: mesh is empty")
	}
	if opts.Size <= 0 {
		opts.Size = DefaultSize
	}
	size := float32(opts.Size)
	img := image.NewRGBA(image.Rect(0, 0, opts.Size, opts.Size))
	draw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	view := normalize(opts.ViewDir)
	light := normalize(opts.LightDir)
	right := normalize(cross([3]float32{0, 1, 0}, view))
	up := cross(view, right)

	c := m.Center()
	pts := make([]projected, len(m.Vertices))
	extent := float32(0)
	for i, v := range m.Vertices {
		d := [3]float32{float32(v[0] - c[0]), float32(v[1] - c[1]), float32(v[2] - c[2])}
		p := projected{x: dot(d, right), y: dot(d, up), depth: dot(d, view)}
		extent = math32.Max(extent, math32.Max(math32.Abs(p.x), math32.Abs(p.y)))
		pts[i] = p
	}
	if extent == 0 {
		extent = 1
	}
	// 留 10% 边距
	scale := size * 0.45 / extent
	for i := range pts {
		pts[i].x = size/2 + pts[i].x*scale
		pts[i].y = size/2 - pts[i].y*scale
	}

	tris := make([]triangle, 0, len(m.Faces))
	for i, f := range m.Faces {
		n := m.FaceNormal(i).Normalize()
		normal := [3]float32{float32(n[0]), float32(n[1]), float32(n[2])}
		if dot(normal, view) <= 0 {
			continue
		}
		t := triangle{pts: [3]projected{pts[f[0]], pts[f[1]], pts[f[2]]}}
		t.depth = (t.pts[0].depth + t.pts[1].depth + t.pts[2].depth) / 3
		t.shade = 0.35 + 0.65*math32.Max(0, dot(normal, light))
		tris = append(tris, t)
	}
	sort.SliceStable(tris, func(i, j int) bool { return tris[i].depth < tris[j].depth })

	z := vector.NewRasterizer(1, 1)
	for _, t := range tris {
		fill(img, z, t)
	}
	return img, nil
}

// fill 只在三角形包围盒内光栅化
func fill(img *image.RGBA, z *vector.Rasterizer, t triangle) {
	minX, minY := t.pts[0].x, t.pts[0].y
	maxX, maxY := minX, minY
	for _, p := range t.pts[1:] {
		minX, maxX = math32.Min(minX, p.x), math32.Max(maxX, p.x)
		minY, maxY = math32.Min(minY, p.y), math32.Max(maxY, p.y)
	}
	r := image.Rect(int(math32.Floor(minX)), int(math32.Floor(minY)), int(math32.Ceil(maxX))+1, int(math32.Ceil(maxY))+1).
		Intersect(img.Bounds())
	if r.Empty() {
		return
	}
	ox, oy := float32(r.Min.X), float32(r.Min.Y)
	z.Reset(r.Dx(), r.Dy())
	z.MoveTo(t.pts[0].x-ox, t.pts[0].y-oy)
	z.LineTo(t.pts[1].x-ox, t.pts[1].y-oy)
	z.LineTo(t.pts[2].x-ox, t.pts[2].y-oy)
	z.ClosePath()

	col := color.RGBA{
		R: uint8(baseColor[0] * t.shade),
		G: uint8(baseColor[1] * t.shade),
		B: uint8(baseColor[2] * t.shade),
		A: 255,
	}
	z.Draw(img, r, image.NewUniform(col), image.Point{})
}

// SaveScreenshot 渲染并写出 PNG 文件
func SaveScreenshot(path string, m *entity.Mesh, opts Options) error {
	img, err := Render(m, opts)
	if err != nil {
		return err
	}
	if err := imgio.Save(path, img, imgio.PNGEncoder()); err != nil {
		return fmt.Errorf("save screenshot: %w", err)
	}
	return nil
}

// EncodePNG 渲染并把 PNG 写入 w
func EncodePNG(w io.Writer, m *entity.Mesh, opts Options) error {
	img, err := Render(m, opts)
	if err != nil {
		return err
	}
	return imgio.PNGEncoder()(w, img)
}

func dot(a, b [3]float32) float32 { return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] }

func cross(a, b [3]float32) [3]float32 {
	return [3]float32{a[1]*b[2] - a[2]*b[1], a[2]*b[0] - a[0]*b[2], a[0]*b[1] - a[1]*b[0]}
}

func normalize(a [3]float32) [3]float32 {
	l := math32.Sqrt(dot(a, a))
	if l == 0 {
		return a
	}
	return [3]float32{a[0] / l, a[1] / l, a[2] / l}
}
