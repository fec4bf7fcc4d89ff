package asset

import (
	stderrors "errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asset-forge/internal/application/geometry"
	"asset-forge/internal/domain/entity"
	"asset-forge/internal/infrastructure/meshio"
	"asset-forge/pkg/errors"
)

func TestExportShapeWritesFiles(t *testing.T) {
	dir := t.TempDir()
	spec := ShapeSpec{
		Shape:        entity.ShapeIcosphere,
		Seed:         42,
		Subdivisions: 2,
		Preset:       geometry.Preset{Radius: 1},
	}

	md, err := ExportShape(t.Context(), dir, "ball", spec, 64)
	require.NoError(t, err)

	for _, f := range []string{"ball.glb", "ball.obj", "ball_screenshot.png", "ball_metadata.json"} {
		assert.FileExists(t, filepath.Join(dir, f))
	}
	assert.Equal(t, 162, md.Metrics.VertexCount)
	assert.Equal(t, 320, md.Metrics.FaceCount)
	assert.True(t, md.Metrics.IsWatertight)

	mesh, err := meshio.ReadGLBFile(md.SavedFiles["glb"])
	require.NoError(t, err)
	assert.Equal(t, 320, mesh.FaceCount())
}

func TestExportShapeStoneIsDeterministic(t *testing.T) {
	spec := ShapeSpec{
		Shape:        entity.ShapeStone,
		Seed:         7,
		Subdivisions: 2,
		Preset:       geometry.Preset{Radius: 1, NoiseScale: 0.1},
	}

	a, err := ExportShape(t.Context(), t.TempDir(), "stone", spec, 32)
	require.NoError(t, err)
	b, err := ExportShape(t.Context(), t.TempDir(), "stone", spec, 32)
	require.NoError(t, err)

	assert.Equal(t, a.Metrics.Volume, b.Metrics.Volume)
	assert.Equal(t, a.Metrics.BoundingBox, b.Metrics.BoundingBox)
}

func TestExportShapeRejectsBadName(t *testing.T) {
	spec := ShapeSpec{Shape: entity.ShapeCube, Subdivisions: 1, Preset: geometry.Preset{Size: 1}}
	_, err := ExportShape(t.Context(), t.TempDir(), "../escape", spec, 32)
	assert.True(t, stderrors.Is(err, errors.ErrInvalidParam))
}

func TestDefaultShapeName(t *testing.T) {
	now := time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)
	assert.Equal(t, "torus_20240305_140709", DefaultShapeName(entity.ShapeTorus, now))
}

func TestExportShapeRejectsDegeneratePreset(t *testing.T) {
	tests := map[string]ShapeSpec{
		"zero radius":   {Shape: entity.ShapeIcosphere, Subdivisions: 1, Preset: geometry.Preset{Radius: 0}},
		"negative size": {Shape: entity.ShapeCube, Subdivisions: 1, Preset: geometry.Preset{Size: -1}},
		"fat torus":     {Shape: entity.ShapeTorus, Subdivisions: 1, Preset: geometry.Preset{Radius: 0.3, MinorRadius: 0.5}},
	}
	for name, spec := range tests {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			_, err := ExportShape(t.Context(), dir, "bad", spec, 32)
			assert.True(t, stderrors.Is(err, errors.ErrInvalidParam))
			assert.NoFileExists(t, filepath.Join(dir, "bad.glb"))
		})
	}
}
