package geometry

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asset-forge/internal/domain/entity"
)

func TestParsePresetsMergesDefaults(t *testing.T) {
	presets, err := ParsePresets([]byte("cube:\n  size: 2.0\ntorus:\n  minor_radius: 0.2\n"))
	require.NoError(t, err)

	assert.Equal(t, 2.0, presets.For(entity.ShapeCube).Size)
	assert.Equal(t, 0.5, presets.For(entity.ShapeTorus).Radius)
	assert.Equal(t, 0.2, presets.For(entity.ShapeTorus).MinorRadius)
	assert.Equal(t, 0.15, presets.For(entity.ShapeStone).NoiseScale)
}

func TestParsePresetsRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"unknown shape": "teapot:\n  size: 1\n",
		"negative":      "cube:\n  size: -1\n",
		"fat torus":     "torus:\n  radius: 0.2\n  minor_radius: 0.3\n",
		"bad yaml":      "cube: [",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParsePresets([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadPresets(t *testing.T) {
	presets, err := LoadPresets("")
	require.NoError(t, err)
	assert.Equal(t, DefaultPresets(), presets)

	path := filepath.Join(t.TempDir(), "shapes.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cone:\n  height: 3\n"), 0o644))
	presets, err = LoadPresets(path)
	require.NoError(t, err)
	assert.Equal(t, 3.0, presets.For(entity.ShapeCone).Height)

	_, err = LoadPresets(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestPresetsForDefaultFallsBackToIcosphere(t *testing.T) {
	p := Presets{entity.ShapeIcosphere: {Radius: 0.7}}
	assert.Equal(t, 0.7, p.For(entity.ShapeDefault).Radius)
}

func TestPresetValidate(t *testing.T) {
	tests := []struct {
		name   string
		kind   entity.ShapeKind
		preset Preset
		ok     bool
	}{
		{"cube", entity.ShapeCube, Preset{Size: 1}, true},
		{"zero radius", entity.ShapeIcosphere, Preset{Radius: 0}, false},
		{"negative size", entity.ShapeCube, Preset{Size: -2}, false},
		{"cone without height", entity.ShapeCone, Preset{Radius: 0.5}, false},
		{"fat torus", entity.ShapeTorus, Preset{Radius: 0.3, MinorRadius: 0.3}, false},
		{"torus", entity.ShapeTorus, Preset{Radius: 1, MinorRadius: 0.3}, true},
		{"NaN radius", entity.ShapeStone, Preset{Radius: math.NaN()}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.preset.Validate(tt.kind)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
