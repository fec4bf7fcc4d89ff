package geometry

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"asset-forge/internal/domain/entity"
)

// Preset 形状尺寸参数，不同形状只使用其中一部分字段
type Preset struct {
	Size        float64 `yaml:"size" json:"size,omitempty"`
	Radius      float64 `yaml:"radius" json:"radius,omitempty"`
	Height      float64 `yaml:"height" json:"height,omitempty"`
	MinorRadius float64 `yaml:"minor_radius" json:"minor_radius,omitempty"`
	NoiseScale  float64 `yaml:"noise_scale" json:"noise_scale,omitempty"`
}

// Presets 各形状的预设
type Presets map[entity.ShapeKind]Preset

// DefaultPresets 内置预设
func DefaultPresets() Presets {
	return Presets{
		entity.ShapeCube:      {Size: 1.0},
		entity.ShapeCone:      {Radius: 0.5, Height: 1.0},
		entity.ShapeCylinder:  {Radius: 0.5, Height: 1.0},
		entity.ShapeIcosphere: {Radius: 0.5},
		entity.ShapeStone:     {Radius: 0.5, NoiseScale: 0.15},
		entity.ShapeTorus:     {Radius: 0.5, MinorRadius: 0.15},
		entity.ShapeDefault:   {Radius: 0.5},
	}
}

// For 取形状预设，default 回退到 icosphere
func (p Presets) For(kind entity.ShapeKind) Preset {
	if v, ok := p[kind]; ok {
		return v
	}
	return p[entity.ShapeIcosphere]
}

// LoadPresets 从 YAML 文件读取预设，未给出的字段使用内置值
// path 为空时直接返回内置预设
func LoadPresets(path string) (Presets, error) {
	presets := DefaultPresets()
	if path == "" {
		return presets, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read shape presets: %w", err)
	}
	return ParsePresets(data)
}

// ParsePresets 解析 YAML 预设并与内置值合并
func ParsePresets(data []byte) (Presets, error) {
	var raw map[string]Preset
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse shape presets: %w", err)
	}
	presets := DefaultPresets()
	for name, override := range raw {
		kind, err := entity.ParseShapeKind(name)
		if err != nil {
			return nil, fmt.Errorf("parse shape presets: %w", err)
		}
		merged := presets[kind]
		mergeFloat(&merged.Size, override.Size)
		mergeFloat(&merged.Radius, override.Radius)
		mergeFloat(&merged.Height, override.Height)
		mergeFloat(&merged.MinorRadius, override.MinorRadius)
		mergeFloat(&merged.NoiseScale, override.NoiseScale)
		if err := merged.Validate(kind); err != nil {
			return nil, err
		}
		presets[kind] = merged
	}
	return presets, nil
}

func mergeFloat(dst *float64, v float64) {
	if v != 0 {
		*dst = v
	}
}

// Validate 校验形状用到的尺寸为正且有限，torus 的管半径须小于主半径
func (p Preset) Validate(kind entity.ShapeKind) error {
	for _, v := range []float64{p.Size, p.Radius, p.Height, p.MinorRadius, p.NoiseScale} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("shape %s: dimensions must be finite and non-negative", kind)
		}
	}
	for field, v := range p.required(kind) {
		if v <= 0 {
			return fmt.Errorf("shape %s: %s must be positive", kind, field)
		}
	}
	if kind == entity.ShapeTorus && p.MinorRadius >= p.Radius {
		return fmt.Errorf("shape torus: minor_radius %.3f must be below radius %.3f", p.MinorRadius, p.Radius)
	}
	return nil
}

func (p Preset) required(kind entity.ShapeKind) map[string]float64 {
	switch kind {
	case entity.ShapeCube:
		return map[string]float64{"size": p.Size}
	case entity.ShapeCone, entity.ShapeCylinder:
		return map[string]float64{"radius": p.Radius, "height": p.Height}
	case entity.ShapeTorus:
		return map[string]float64{"radius": p.Radius, "minor_radius": p.MinorRadius}
	default:
		return map[string]float64{"radius": p.Radius}
	}
}
