package entity

import (
	"fmt"
	"strings"
)

// ShapeKind 基础形状
type ShapeKind string

const (
	ShapeCube      ShapeKind = "cube"
	ShapeCone      ShapeKind = "cone"
	ShapeStone     ShapeKind = "stone"
	ShapeIcosphere ShapeKind = "icosphere"
	ShapeTorus     ShapeKind = "torus"
	ShapeCylinder  ShapeKind = "cylinder"
	// ShapeDefault 无关键词命中时的兜底形状，按二十面球体构建
	ShapeDefault ShapeKind = "default"
)

// AllShapes 所有可显式指定的形状
var AllShapes = []ShapeKind{ShapeCube, ShapeCone, ShapeStone, ShapeIcosphere, ShapeTorus, ShapeCylinder}

// ParseShapeKind 解析形状名称
func ParseShapeKind(s string) (ShapeKind, error) {
	k := ShapeKind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllShapes {
		if k == known {
			return k, nil
		}
	}
	if k == ShapeDefault {
		return k, nil
	}
	return "", fmt.Errorf("unknown shape %q", s)
}

// Modifier 提示词修饰，作用于形变之后
type Modifier string

const (
	ModifierSpiky   Modifier = "spiky"
	ModifierSmooth  Modifier = "smooth"
	ModifierTwisted Modifier = "twisted"
)
