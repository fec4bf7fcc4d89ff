// Package experiment 参数网格实验：批量生成并统计参数对网格的影响
package experiment

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"asset-forge/internal/application/analysis"
	"asset-forge/internal/application/asset"
	"asset-forge/internal/domain/entity"
	"asset-forge/pkg/errors"
	"asset-forge/pkg/logger"
)

// ResultsFile 汇总结果文件名
const ResultsFile = "experiment_results.json"

// Generator 执行一次资产生成
type Generator interface {
	Generate(ctx context.Context, jobID string, req entity.GenerationRequest) (*entity.GenerationResult, error)
}

// Grid 参数网格
type Grid struct {
	Seeds          []int64   `json:"seeds"`
	Steps          []int     `json:"steps"`
	GuidanceScales []float64 `json:"guidance_scales"`
}

// DefaultGrid 3×3×3 默认网格
func DefaultGrid() Grid {
	return Grid{
		Seeds:          []int64{42, 123, 456},
		Steps:          []int{10, 20, 30},
		GuidanceScales: []float64{5.0, 7.5, 10.0},
	}
}

// Size 组合数
func (g Grid) Size() int {
	return len(g.Seeds) * len(g.Steps) * len(g.GuidanceScales)
}

// Baseline 对比基准参数
var Baseline = asset.Parameters{Seed: 42, Steps: 20, GuidanceScale: 7.5}

// Run 单次实验
type Run struct {
	ExperimentID int                   `json:"experiment_id"`
	JobID        string                `json:"job_id"`
	Parameters   asset.Parameters      `json:"parameters"`
	Shape        entity.ShapeKind      `json:"shape,omitempty"`
	Metrics      *entity.MeshMetrics   `json:"metrics,omitempty"`
	Quality      *entity.QualityReport `json:"quality,omitempty"`
	Comparison   *analysis.Comparison  `json:"comparison,omitempty"`
	DurationMs   int64                 `json:"duration_ms"`
	Error        string                `json:"error,omitempty"`
}

// Succeeded 是否成功
func (r *Run) Succeeded() bool {
	return r.Error == "" && r.Metrics != nil
}

// Results 实验汇总
type Results struct {
	Prompt           string                                `json:"prompt"`
	Grid             Grid                                  `json:"parameter_ranges"`
	Baseline         asset.Parameters                      `json:"baseline"`
	Summary          Summary                               `json:"summary"`
	Runs             []*Run                                `json:"results"`
	ParameterEffects map[string]map[string]map[string]Stat `json:"parameter_effects"`
	Quality          *QualityRates                         `json:"quality_metrics,omitempty"`
	Recommendations  []string                              `json:"recommendations"`
	GeneratedAt      time.Time                             `json:"generated_at"`
}

// Runner 实验执行器
type Runner struct {
	generator Generator
	grid      Grid
}

// NewRunner 创建实验执行器，产物目录由 generator 决定
func NewRunner(generator Generator, grid Grid) *Runner {
	if grid.Size() == 0 {
		grid = DefaultGrid()
	}
	return &Runner{generator: generator, grid: grid}
}

// Run 按 seed → steps → guidance 的顺序执行全部组合，单次失败不中断
func (r *Runner) Run(ctx context.Context, prompt string) (*Results, error) {
	if prompt == "" {
		return nil, errors.InvalidParam("prompt must not be empty")
	}

	total := r.grid.Size()
	runs := make([]*Run, 0, total)
	for _, seed := range r.grid.Seeds {
		for _, steps := range r.grid.Steps {
			for _, gs := range r.grid.GuidanceScales {
				params := asset.Parameters{Seed: seed, Steps: steps, GuidanceScale: gs}
				run := r.runOne(ctx, len(runs)+1, fmt.Sprintf("experiment_%03d", len(runs)+1), prompt, params)
				logger.Info(ctx, "experiment finished",
					"experiment", run.ExperimentID,
					"total", total,
					"seed", seed,
					"steps", steps,
					"guidance_scale", gs,
					"error", run.Error,
				)
				runs = append(runs, run)
			}
		}
	}

	baseline := findRun(runs, Baseline)
	if baseline == nil || !baseline.Succeeded() {
		baseline = r.runOne(ctx, 0, "baseline", prompt, Baseline)
	}
	if baseline.Succeeded() {
		for _, run := range runs {
			if run.Succeeded() {
				cmp := analysis.Compare(baseline.Metrics, run.Metrics)
				run.Comparison = &cmp
			}
		}
	}

	res := &Results{
		Prompt:           prompt,
		Grid:             r.grid,
		Baseline:         Baseline,
		Summary:          summarize(runs),
		Runs:             runs,
		ParameterEffects: parameterEffects(runs),
		Quality:          qualityRates(runs),
		GeneratedAt:      time.Now().UTC(),
	}
	res.Recommendations = recommendations(res.Quality)
	return res, nil
}

func (r *Runner) runOne(ctx context.Context, id int, jobID, prompt string, params asset.Parameters) *Run {
	run := &Run{ExperimentID: id, JobID: jobID, Parameters: params}
	req := entity.GenerationRequest{
		Prompt:        prompt,
		Seed:          params.Seed,
		Steps:         params.Steps,
		GuidanceScale: params.GuidanceScale,
	}
	if err := req.Validate(); err != nil {
		run.Error = errors.Describe(err)
		return run
	}

	start := time.Now()
	result, err := r.generator.Generate(ctx, jobID, req)
	run.DurationMs = time.Since(start).Milliseconds()
	if err != nil {
		run.Error = errors.Describe(err)
		return run
	}
	run.Shape = result.Shape
	run.Metrics = result.Metrics
	run.Quality = result.Quality
	return run
}

func findRun(runs []*Run, params asset.Parameters) *Run {
	for _, run := range runs {
		if run.Parameters == params {
			return run
		}
	}
	return nil
}

// WriteResults 写出汇总 JSON
func WriteResults(dir string, res *Results) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create results dir: %w", err)
	}
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal results: %w", err)
	}
	path := filepath.Join(dir, ResultsFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write results: %w", err)
	}
	return path, nil
}
