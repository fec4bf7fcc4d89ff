package postprocess

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"asset-forge/internal/application/analysis"
	"asset-forge/internal/application/geometry"
	"asset-forge/internal/application/procedural"
	"asset-forge/internal/domain/entity"
)

func TestGenerateLODBounds(t *testing.T) {
	gen := procedural.NewGenerator(nil)
	rapid.Check(t, func(t *rapid.T) {
		req := entity.GenerationRequest{
			Prompt:        rapid.SampledFrom([]string{"spiky cube", "rock", "donut", "pyramid", "smooth ball"}).Draw(t, "prompt"),
			Seed:          rapid.Int64Range(0, 1000).Draw(t, "seed"),
			Steps:         rapid.IntRange(10, 29).Draw(t, "steps"),
			GuidanceScale: rapid.Float64Range(5, 15).Draw(t, "guidance"),
		}
		out, err := gen.Generate(req)
		require.NoError(t, err)
		faces := out.Mesh.FaceCount()

		lod1 := GenerateLOD(out.Mesh, 1)
		lod2 := GenerateLOD(out.Mesh, 2)
		require.LessOrEqual(t, lod1.FaceCount(), faces/2)
		require.LessOrEqual(t, lod2.FaceCount(), faces/4)
		require.NoError(t, lod1.Validate())
		require.NoError(t, lod2.Validate())
		for i, used := range lod2.ReferencedVertices() {
			require.True(t, used, "vertex %d dangling", i)
		}
	})
}

func TestDecimateKeepsSphereClosed(t *testing.T) {
	sphere := geometry.Sphere(0.5, 2)
	lod := Decimate(sphere, 0.5)

	assert.LessOrEqual(t, lod.FaceCount(), 160)
	topo := analysis.Topology(lod)
	assert.True(t, topo.Watertight)
	assert.True(t, topo.WindingConsistent)
	assert.InDelta(t, analysis.SignedVolume(sphere), analysis.SignedVolume(lod), 0.1)
	assert.True(t, lod.HasNormals())
}

func TestDecimateIsDeterministic(t *testing.T) {
	m := geometry.Stone(0.5, 0.2, 2, 5)
	a := DecimateTo(m, 100)
	b := DecimateTo(m, 100)
	assert.Equal(t, a.Vertices, b.Vertices)
	assert.Equal(t, a.Faces, b.Faces)
}

func TestDecimateFallbackTruncates(t *testing.T) {
	tetra := entity.NewMesh(
		[]entity.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
		[]entity.Face{{0, 2, 1}, {0, 1, 3}, {0, 3, 2}, {1, 2, 3}},
	)
	out := DecimateTo(tetra, 2)
	assert.Equal(t, []entity.Face{{0, 2, 1}, {0, 1, 3}}, out.Faces)
	assert.Equal(t, 4, out.VertexCount())

	out = DecimateTo(tetra, 1)
	assert.Equal(t, 1, out.FaceCount())
	assert.Equal(t, 3, out.VertexCount())
}

func TestDecimateNoopWhenBelowTarget(t *testing.T) {
	m := geometry.Sphere(1, 0)
	out := Decimate(m, 1.0)
	assert.Equal(t, m.Faces, out.Faces)

	out = DecimateTo(m, 100)
	assert.Equal(t, m.FaceCount(), out.FaceCount())
}

func TestGenerateLODs(t *testing.T) {
	m := geometry.Sphere(0.5, 3)
	lods := GenerateLODs(m, 2)
	require.Len(t, lods, 2)
	assert.Equal(t, "lod1", lods[0].Name)
	assert.Equal(t, "lod2", lods[1].Name)
	assert.LessOrEqual(t, lods[0].Mesh.FaceCount(), LODTarget(m.FaceCount(), 1))
	assert.Equal(t, 4, LODTarget(10, 3))
	assert.Equal(t, 0, GenerateLOD(m, 0).FaceCount()-m.FaceCount())
}

func TestAddUVs(t *testing.T) {
	m := AddUVs(geometry.Cube(1, 1))
	require.True(t, m.HasUVs())
	for _, uv := range m.UVs {
		assert.GreaterOrEqual(t, uv[0], 0.0)
		assert.LessOrEqual(t, uv[0], 1.0)
		assert.GreaterOrEqual(t, uv[1], 0.0)
		assert.LessOrEqual(t, uv[1], 1.0)
	}

	m.UVs[0] = [2]float64{0.123, 0.456}
	again := AddUVs(m)
	assert.Equal(t, [2]float64{0.123, 0.456}, again.UVs[0])
}

func TestOptimizeMergesDuplicates(t *testing.T) {
	// 两个三角形组成的四边形，公共边顶点重复存储
	quad := entity.NewMesh(
		[]entity.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 0, 0}, {1, 1, 0}, {0, 1, 0}, {5, 5, 5}},
		[]entity.Face{{0, 1, 2}, {3, 4, 5}, {0, 1, 2}, {0, 0, 1}},
	)
	out := Optimize(quad)
	assert.Equal(t, 4, out.VertexCount())
	assert.Equal(t, 2, out.FaceCount())
	require.NoError(t, out.Validate())
}

func TestConvertFormat(t *testing.T) {
	m := geometry.Sphere(0.5, 1)
	glb, err := ConvertFormat(m, "glb")
	require.NoError(t, err)
	assert.Equal(t, "glTF", string(glb[:4]))

	obj, err := ConvertFormat(m, "OBJ")
	require.NoError(t, err)
	assert.Equal(t, 80, strings.Count(string(obj), "\nf "))

	_, err = ConvertFormat(m, "ply")
	assert.Error(t, err)
}
