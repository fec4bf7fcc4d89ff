package service

import (
	"strings"
	"unicode"

	"asset-forge/internal/domain/entity"
)

type shapeKeywords struct {
	kind  entity.ShapeKind
	words []string
}

// 按优先级排列，先命中者胜出
var shapeVocabulary = []shapeKeywords{
	{entity.ShapeCube, []string{"cube", "box", "square", "crate", "block"}},
	{entity.ShapeCone, []string{"cone", "pyramid"}},
	{entity.ShapeStone, []string{"stone", "rock", "boulder", "pebble"}},
	{entity.ShapeTorus, []string{"torus", "ring", "donut", "doughnut"}},
	{entity.ShapeCylinder, []string{"cylinder", "tube", "pipe", "barrel", "pillar"}},
	{entity.ShapeIcosphere, []string{"sphere", "icosphere", "ball", "round", "orb", "planet"}},
}

type modifierKeywords struct {
	modifier entity.Modifier
	words    []string
}

var modifierVocabulary = []modifierKeywords{
	{entity.ModifierSpiky, []string{"spiky", "sharp", "spike", "thorny"}},
	{entity.ModifierSmooth, []string{"smooth", "soft"}},
	{entity.ModifierTwisted, []string{"twisted", "spiral", "twist"}},
}

// SelectShape 根据提示词选择基础形状，无命中时返回 ShapeDefault
func SelectShape(prompt string) entity.ShapeKind {
	tokens := tokenize(prompt)
	for _, sk := range shapeVocabulary {
		if matchAny(tokens, sk.words) {
			return sk.kind
		}
	}
	return entity.ShapeDefault
}

// DetectModifiers 提取修饰词，只保留第一个命中的修饰
func DetectModifiers(prompt string) []entity.Modifier {
	tokens := tokenize(prompt)
	for _, mk := range modifierVocabulary {
		if matchAny(tokens, mk.words) {
			return []entity.Modifier{mk.modifier}
		}
	}
	return nil
}

func tokenize(prompt string) []string {
	return strings.FieldsFunc(strings.ToLower(prompt), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func matchAny(tokens, words []string) bool {
	for _, tok := range tokens {
		for _, w := range words {
			if tok == w || tok == w+"s" || tok == w+"es" {
				return true
			}
		}
	}
	return false
}
