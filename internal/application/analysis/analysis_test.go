package analysis

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asset-forge/internal/application/geometry"
	"asset-forge/internal/domain/entity"
	"asset-forge/internal/infrastructure/meshio"
)

func unitTetra() *entity.Mesh {
	return entity.NewMesh(
		[]entity.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
		[]entity.Face{{0, 2, 1}, {0, 1, 3}, {0, 3, 2}, {1, 2, 3}},
	)
}

func TestGeometryTetrahedron(t *testing.T) {
	m := Geometry(unitTetra())
	assert.Equal(t, 4, m.VertexCount)
	assert.Equal(t, 4, m.FaceCount)
	assert.Equal(t, 6, m.EdgeCount)
	assert.True(t, m.IsWatertight)
	assert.True(t, m.IsWindingConsistent)
	assert.InDelta(t, 1.0/6, m.Volume, 1e-12)
	assert.InDelta(t, 1.5+math.Sqrt(3)/2, m.SurfaceArea, 1e-12)
	assert.Equal(t, entity.Vec3{1, 1, 1}, m.BoundingBox.Size)
	require.NotNil(t, m.TriangleQuality)
	assert.InDelta(t, 0.5, m.TriangleQuality.MinArea, 1e-12)
	require.NotNil(t, m.AspectRatio)
	assert.InDelta(t, math.Sqrt2, m.AspectRatio.Max, 1e-12)
}

func TestTopologyOpenAndFlipped(t *testing.T) {
	open := unitTetra()
	open.Faces = open.Faces[:3]
	info := Topology(open)
	assert.False(t, info.Watertight)
	assert.Equal(t, 3, info.BoundaryEdges)

	flipped := unitTetra()
	flipped.Faces[0] = entity.Face{0, 1, 2}
	info = Topology(flipped)
	assert.True(t, info.Watertight)
	assert.False(t, info.WindingConsistent)
}

func TestComputeRoundTrip(t *testing.T) {
	v := NewValidator(meshio.Codec{})
	m := geometry.Cube(1, 2)
	metrics := v.Compute(m, nil)
	assert.True(t, metrics.Loadable)
	assert.Empty(t, metrics.LoadError)
	assert.Greater(t, metrics.FileSizeBytes, int64(0))
	assert.True(t, metrics.IsWatertight)
	assert.Greater(t, metrics.Volume, 0.6)
	assert.LessOrEqual(t, metrics.Volume, 1.0+1e-9)
}

type brokenCodec struct{}

func (brokenCodec) Encode(*entity.Mesh) ([]byte, error) { return []byte("x"), nil }

func (brokenCodec) Decode([]byte) (*entity.Mesh, error) { return nil, errors.New("corrupt") }

func TestComputeUnloadable(t *testing.T) {
	metrics := NewValidator(brokenCodec{}).Compute(unitTetra(), nil)
	assert.False(t, metrics.Loadable)
	assert.Equal(t, "corrupt", metrics.LoadError)

	report := ValidateQuality(metrics)
	assert.False(t, report.Passed)
	assert.Contains(t, report.Errors, "Mesh failed loadability test")
}

func TestComputeEmpty(t *testing.T) {
	metrics := NewValidator(meshio.Codec{}).Compute(entity.NewMesh(nil, nil), nil)
	assert.True(t, metrics.IsEmpty)
	assert.False(t, metrics.Loadable)

	report := ValidateQuality(metrics)
	assert.False(t, report.Passed)
	assert.ElementsMatch(t, []string{
		"Mesh has no vertices", "Mesh has no faces", "Mesh is empty", "Mesh failed loadability test",
	}, report.Errors)
}

func TestValidateQualityWarnings(t *testing.T) {
	report := ValidateQuality(&entity.MeshMetrics{
		VertexCount: WarnVertexCount + 1, FaceCount: WarnFaceCount + 1, Loadable: true,
	})
	assert.True(t, report.Passed)
	assert.Len(t, report.Warnings, 4)
	assert.Empty(t, report.Errors)
}

func TestCompare(t *testing.T) {
	a := &entity.MeshMetrics{VertexCount: 100, FaceCount: 200, Volume: 2, SurfaceArea: 4, FileSizeBytes: 1000}
	b := &entity.MeshMetrics{VertexCount: 50, FaceCount: 100, Volume: 1, SurfaceArea: 3}
	c := Compare(a, b)
	assert.Equal(t, -50, c.VertexCountDiff)
	assert.Equal(t, -100, c.FaceCountDiff)
	assert.Equal(t, 0.5, c.VolumeRatio)
	assert.Equal(t, 0.75, c.SurfaceAreaRatio)
	assert.Equal(t, 0.0, c.FileSizeRatio)

	assert.Equal(t, 0.0, Compare(b, a).FileSizeRatio)
}
