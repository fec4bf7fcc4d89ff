package experiment

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asset-forge/internal/application/analysis"
	"asset-forge/internal/application/asset"
	"asset-forge/internal/application/procedural"
	"asset-forge/internal/domain/entity"
	"asset-forge/internal/infrastructure/meshio"
	"asset-forge/pkg/errors"
)

type fakeGenerator struct {
	mu    sync.Mutex
	calls []string
	fail  func(req entity.GenerationRequest) bool
}

func (g *fakeGenerator) Generate(_ context.Context, jobID string, req entity.GenerationRequest) (*entity.GenerationResult, error) {
	g.mu.Lock()
	g.calls = append(g.calls, jobID)
	g.mu.Unlock()
	if g.fail != nil && g.fail(req) {
		return nil, errors.ErrGenerationFailed.WithDetail("boom")
	}
	faces := req.Steps * 10
	return &entity.GenerationResult{
		JobID: jobID,
		Shape: entity.ShapeCube,
		Metrics: &entity.MeshMetrics{
			VertexCount:   faces / 2,
			FaceCount:     faces,
			Volume:        req.GuidanceScale,
			SurfaceArea:   float64(req.Seed),
			FileSizeBytes: int64(faces * 100),
			FileSizeMB:    float64(faces*100) / (1024 * 1024),
			Loadable:      true,
			IsWatertight:  true,
		},
		Quality: &entity.QualityReport{Passed: true},
	}, nil
}

func TestDefaultGrid(t *testing.T) {
	g := DefaultGrid()
	assert.Equal(t, 27, g.Size())
	assert.Equal(t, []int64{42, 123, 456}, g.Seeds)
}

func TestRunOrderAndSummary(t *testing.T) {
	gen := &fakeGenerator{}
	res, err := NewRunner(gen, DefaultGrid()).Run(t.Context(), "a cube")
	require.NoError(t, err)

	require.Len(t, res.Runs, 27)
	assert.Equal(t, "experiment_001", res.Runs[0].JobID)
	assert.Equal(t, asset.Parameters{Seed: 42, Steps: 10, GuidanceScale: 5.0}, res.Runs[0].Parameters)
	assert.Equal(t, asset.Parameters{Seed: 42, Steps: 10, GuidanceScale: 7.5}, res.Runs[1].Parameters)
	assert.Equal(t, asset.Parameters{Seed: 456, Steps: 30, GuidanceScale: 10.0}, res.Runs[26].Parameters)
	assert.Equal(t, "experiment_027", res.Runs[26].JobID)

	// 基准在网格内，不额外生成
	assert.Len(t, gen.calls, 27)

	assert.Equal(t, 27, res.Summary.TotalExperiments)
	assert.Equal(t, 27, res.Summary.SuccessfulExperiments)
	assert.InDelta(t, 1.0, res.Summary.SuccessRate, 1e-9)

	steps := res.ParameterEffects["steps"]
	require.Len(t, steps, 3)
	assert.InDelta(t, 100, steps["10"]["face_count"].Mean, 1e-9)
	assert.InDelta(t, 300, steps["30"]["face_count"].Max, 1e-9)
	assert.InDelta(t, 0, steps["20"]["face_count"].Std, 1e-9)
	assert.Contains(t, res.ParameterEffects["guidance_scale"], "7.5")

	// 基准为 (42, 20, 7.5)：200 面
	assert.Equal(t, -100, res.Runs[0].Comparison.FaceCountDiff)

	require.NotNil(t, res.Quality)
	assert.InDelta(t, 1.0, res.Quality.WatertightRate, 1e-9)
	assert.InDelta(t, 200, res.Quality.AverageFaceCount, 1e-9)
	assert.Empty(t, res.Recommendations)
}

func TestRunToleratesFailures(t *testing.T) {
	gen := &fakeGenerator{fail: func(req entity.GenerationRequest) bool { return req.Steps == 30 }}
	res, err := NewRunner(gen, DefaultGrid()).Run(t.Context(), "a cube")
	require.NoError(t, err)

	assert.Equal(t, 9, res.Summary.FailedExperiments)
	assert.Equal(t, 18, res.Summary.SuccessfulExperiments)
	assert.NotContains(t, res.ParameterEffects["steps"], "30")
	for _, run := range res.Runs {
		if run.Parameters.Steps == 30 {
			assert.Contains(t, run.Error, "boom")
			assert.Nil(t, run.Comparison)
		}
	}
}

func TestRunBaselineOutsideGrid(t *testing.T) {
	gen := &fakeGenerator{}
	grid := Grid{Seeds: []int64{7}, Steps: []int{10}, GuidanceScales: []float64{5}}
	res, err := NewRunner(gen, grid).Run(t.Context(), "rock")
	require.NoError(t, err)

	assert.Equal(t, []string{"experiment_001", "baseline"}, gen.calls)
	require.NotNil(t, res.Runs[0].Comparison)
	assert.Equal(t, -100, res.Runs[0].Comparison.FaceCountDiff)
}

func TestRunAllFailed(t *testing.T) {
	gen := &fakeGenerator{fail: func(entity.GenerationRequest) bool { return true }}
	res, err := NewRunner(gen, Grid{Seeds: []int64{1}, Steps: []int{10}, GuidanceScales: []float64{5}}).Run(t.Context(), "x")
	require.NoError(t, err)
	assert.Nil(t, res.Quality)
	assert.Equal(t, []string{"No successful experiments to analyze"}, res.Recommendations)
}

func TestRunRejectsEmptyPrompt(t *testing.T) {
	_, err := NewRunner(&fakeGenerator{}, DefaultGrid()).Run(t.Context(), "")
	assert.ErrorIs(t, err, errors.ErrInvalidParam)
}

func TestComputeStat(t *testing.T) {
	s := computeStat([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.InDelta(t, 5, s.Mean, 1e-9)
	assert.InDelta(t, 2, s.Std, 1e-9)
	assert.Equal(t, 2.0, s.Min)
	assert.Equal(t, 9.0, s.Max)
	assert.Equal(t, Stat{}, computeStat(nil))
}

func TestRecommendations(t *testing.T) {
	recs := recommendations(&QualityRates{
		LoadabilityRate:    0.5,
		WatertightRate:     0.2,
		AverageFileSizeMB:  2,
		AverageVertexCount: 20000,
	})
	assert.Len(t, recs, 4)
}

func TestRunWithAssetService(t *testing.T) {
	dir := t.TempDir()
	svc := asset.NewService(
		procedural.NewGenerator(nil),
		analysis.NewValidator(meshio.Codec{}),
		asset.Config{OutputDir: dir, ScreenshotSize: 32},
	)
	grid := Grid{Seeds: []int64{42}, Steps: []int{10, 20}, GuidanceScales: []float64{7.5}}
	res, err := NewRunner(svc, grid).Run(t.Context(), "smooth stone")
	require.NoError(t, err)
	require.Equal(t, 2, res.Summary.SuccessfulExperiments)
	assert.Less(t, res.Runs[0].Metrics.FaceCount, res.Runs[1].Metrics.FaceCount)
	assert.Equal(t, 0, res.Runs[1].Comparison.FaceCountDiff)

	path, err := WriteResults(dir, res)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "experiment_001", asset.FileMain))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Contains(t, decoded, "parameter_effects")
	assert.Contains(t, decoded, "summary")
}
