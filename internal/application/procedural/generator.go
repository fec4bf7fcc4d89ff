package procedural

import (
	"fmt"

	"asset-forge/internal/application/geometry"
	"asset-forge/internal/domain/entity"
	"asset-forge/internal/domain/service"
)

// Output 生成结果
type Output struct {
	Shape     entity.ShapeKind
	Modifiers []entity.Modifier
	Mesh      *entity.Mesh
}

// Generator 提示词驱动的程序化网格生成器
type Generator struct {
	presets geometry.Presets
}

// NewGenerator 创建生成器
func NewGenerator(presets geometry.Presets) *Generator {
	if presets == nil {
		presets = geometry.DefaultPresets()
	}
	return &Generator{presets: presets}
}

// Presets 当前使用的形状预设
func (g *Generator) Presets() geometry.Presets {
	return g.presets
}

// Generate 选择形状、按 steps 细分、按 seed 与 guidance_scale 形变
// 相同请求总是得到逐字节相同的顶点与面
func (g *Generator) Generate(req entity.GenerationRequest) (*Output, error) {
	shape := service.SelectShape(req.Prompt)
	modifiers := service.DetectModifiers(req.Prompt)

	base, err := geometry.Build(shape, g.presets.For(shape), req.SubdivisionLevel(), req.Seed)
	if err != nil {
		return nil, fmt.Errorf("build base mesh: %w", err)
	}
	mesh := Deform(base, DeformParams{
		Seed:          req.Seed,
		GuidanceScale: req.GuidanceScale,
		Modifiers:     modifiers,
	})
	return &Output{Shape: shape, Modifiers: modifiers, Mesh: mesh}, nil
}
