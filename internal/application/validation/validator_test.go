package validation

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asset-forge/internal/application/geometry"
	"asset-forge/internal/domain/entity"
	"asset-forge/internal/infrastructure/meshio"
	"asset-forge/pkg/errors"
)

func writeGLB(t *testing.T, dir, name string, m *entity.Mesh) string {
	t.Helper()
	data, err := meshio.EncodeGLB(m)
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestValidateFileClosedMesh(t *testing.T) {
	dir := t.TempDir()
	m := geometry.Cube(1, 1)
	m.ComputeNormals()
	path := writeGLB(t, dir, "cube.glb", m)

	report := NewValidator(1).ValidateFile(t.Context(), path)
	require.Empty(t, report.Error)
	assert.True(t, report.ValidationPassed)
	for name, ok := range report.Checks {
		assert.True(t, ok, name)
	}
	assert.Positive(t, report.FileSizeBytes)
	assert.True(t, report.Metrics.Loadable)
}

func TestValidateFileOpenTriangle(t *testing.T) {
	dir := t.TempDir()
	tri := entity.NewMesh([]entity.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}, []entity.Face{{0, 1, 2}})
	path := writeGLB(t, dir, "tri.glb", tri)

	report := NewValidator(1).ValidateFile(t.Context(), path)
	require.Empty(t, report.Error)
	assert.False(t, report.ValidationPassed)
	assert.True(t, report.Checks[CheckMinimumGeometry])
	assert.False(t, report.Checks[CheckManifold])
	assert.False(t, report.Checks[CheckPositiveVolume])
}

func TestValidateFileGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.glb")
	require.NoError(t, os.WriteFile(path, []byte("not a glb"), 0o644))

	report := NewValidator(1).ValidateFile(t.Context(), path)
	assert.False(t, report.ValidationPassed)
	assert.NotEmpty(t, report.Error)
	assert.Equal(t, int64(9), report.FileSizeBytes)
}

func TestChecksThresholds(t *testing.T) {
	m := &entity.MeshMetrics{
		VertexCount:  10,
		FaceCount:    MaxFaces + 1,
		IsWatertight: true,
		Volume:       1,
		FileSizeMB:   MaxFileSizeMB + 1,
	}
	checks := Checks(m)
	assert.False(t, checks[CheckPolycount])
	assert.False(t, checks[CheckFileSize])
	assert.True(t, checks[CheckNormals])
}

func TestValidateDir(t *testing.T) {
	dir := t.TempDir()
	writeGLB(t, dir, "b_sphere.glb", geometry.Sphere(1, 1))
	writeGLB(t, dir, "a_cube.glb", geometry.Cube(1, 1))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c_broken.glb"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0o644))

	report, err := NewValidator(2).ValidateDir(t.Context(), dir)
	require.NoError(t, err)

	require.Equal(t, 3, report.TotalFiles)
	assert.Equal(t, 2, report.PassedFiles)
	assert.Equal(t, 1, report.FailedFiles)
	assert.InDelta(t, 2.0/3.0, report.SuccessRate, 1e-9)
	assert.Equal(t, "a_cube.glb", filepath.Base(report.Files[0].FilePath))
	assert.Equal(t, "c_broken.glb", filepath.Base(report.Failed()[0].FilePath))

	require.NotNil(t, report.Aggregate)
	assert.Equal(t, 2, report.Aggregate.WatertightCount)
	assert.Equal(t, 160, report.Aggregate.TotalFaces)

	out := filepath.Join(dir, "reports", "metrics.json")
	require.NoError(t, WriteReport(out, report))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.EqualValues(t, 3, decoded["total_files"])
}

func TestValidateDirMissing(t *testing.T) {
	_, err := NewValidator(1).ValidateDir(t.Context(), filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, errors.ErrFileNotFound)
}

func TestValidateDirEmpty(t *testing.T) {
	report, err := NewValidator(1).ValidateDir(t.Context(), t.TempDir())
	require.NoError(t, err)
	assert.Zero(t, report.TotalFiles)
	assert.Nil(t, report.Aggregate)
	assert.NotNil(t, report.Files)
}
