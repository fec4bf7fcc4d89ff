// Package asset 资产生成流水线：网格、LOD、预览图、指标与元数据
package asset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"asset-forge/internal/application/analysis"
	"asset-forge/internal/application/postprocess"
	"asset-forge/internal/application/procedural"
	"asset-forge/internal/domain/entity"
	"asset-forge/internal/infrastructure/meshio"
	"asset-forge/internal/infrastructure/render"
	"asset-forge/pkg/errors"
	"asset-forge/pkg/logger"
	"asset-forge/pkg/metrics"
	"asset-forge/pkg/tracer"
)

// Config 产物输出配置
type Config struct {
	OutputDir      string
	ScreenshotSize int
}

// MeshGenerator 由请求生成网格
type MeshGenerator interface {
	Generate(req entity.GenerationRequest) (*procedural.Output, error)
}

// Service 资产生成服务
type Service struct {
	generator MeshGenerator
	validator *analysis.Validator
	cfg       Config
}

// NewService 创建资产生成服务
func NewService(generator MeshGenerator, validator *analysis.Validator, cfg Config) *Service {
	if cfg.OutputDir == "" {
		cfg.OutputDir = "outputs"
	}
	if cfg.ScreenshotSize <= 0 {
		cfg.ScreenshotSize = render.DefaultSize
	}
	return &Service{generator: generator, validator: validator, cfg: cfg}
}

// OutputDir 产物根目录
func (s *Service) OutputDir() string {
	return s.cfg.OutputDir
}

// ArtifactPath 任务产物的磁盘路径，拒绝越出任务目录的文件名
func (s *Service) ArtifactPath(jobID, name string) (string, error) {
	if !safeSegment(jobID) || !safeSegment(name) {
		return "", errors.ErrFileNotFound.WithDetail(name)
	}
	return filepath.Join(s.cfg.OutputDir, jobID, name), nil
}

func safeSegment(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, `/\`)
}

// Generate 执行一次完整生成，并把产物写入 OutputDir/jobID
func (s *Service) Generate(ctx context.Context, jobID string, req entity.GenerationRequest) (*entity.GenerationResult, error) {
	ctx, span := tracer.Start(ctx, "asset.Generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("job.id", jobID),
		attribute.Int64("request.seed", req.Seed),
		attribute.Int("request.steps", req.Steps),
	)
	ctx = logger.WithContext(ctx, logger.JobIDKey, jobID)

	jobDir, err := s.ArtifactPath(jobID, FileMain)
	if err != nil {
		return nil, errors.ErrInvalidParam.WithDetail("invalid job id")
	}
	jobDir = filepath.Dir(jobDir)

	start := time.Now()
	out, err := s.generator.Generate(req)
	if err != nil {
		metrics.AssetGenerationTotal.WithLabelValues("unknown", "failed").Inc()
		return nil, errors.ErrGenerationFailed.WithError(err)
	}
	shape := string(out.Shape)
	result, err := s.build(ctx, jobDir, jobID, req, out)
	if err != nil {
		metrics.AssetGenerationTotal.WithLabelValues(shape, "failed").Inc()
		span.RecordError(err)
		return nil, err
	}
	metrics.AssetGenerationTotal.WithLabelValues(shape, "completed").Inc()
	metrics.AssetGenerationDuration.WithLabelValues(shape).Observe(time.Since(start).Seconds())
	metrics.MeshFaceCount.WithLabelValues(shape).Observe(float64(result.Mesh.FaceCount()))

	logger.Info(ctx, "asset generated",
		"shape", shape,
		"vertices", result.Metrics.VertexCount,
		"faces", result.Metrics.FaceCount,
		"watertight", result.Metrics.IsWatertight,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

func (s *Service) build(ctx context.Context, jobDir, jobID string, req entity.GenerationRequest, out *procedural.Output) (*entity.GenerationResult, error) {
	mesh := postprocess.AddUVs(out.Mesh)
	if mesh.IsEmpty() {
		return nil, errors.ErrEmptyGeometry.WithDetail(fmt.Sprintf("%d vertices, %d faces", mesh.VertexCount(), mesh.FaceCount()))
	}

	mainGLB, err := meshio.EncodeGLB(mesh)
	if err != nil {
		return nil, errors.ErrUnloadableMesh.WithError(err)
	}
	if err := s.validator.CheckLoadable(mesh, mainGLB); err != nil {
		return nil, errors.ErrUnloadableMesh.WithError(err)
	}

	lods := postprocess.GenerateLODs(mesh, 2)
	lodFiles := map[string][]byte{}
	lodFaces := make(map[string]int, len(lods))
	for _, lod := range lods {
		data, err := meshio.EncodeGLB(lod.Mesh)
		if err != nil {
			return nil, errors.ErrUnloadableMesh.WithDetail(lod.Name).WithError(err)
		}
		lodFiles[lod.Name+".glb"] = data
		lodFaces[lod.Name] = lod.Mesh.FaceCount()
	}

	if err := os.MkdirAll(jobDir, 0o755); err != nil {
		return nil, errors.ErrStorage.WithError(err)
	}

	screenshot := FileScreenshot
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error { return writeFile(filepath.Join(jobDir, FileMain), mainGLB) })
	for name, data := range lodFiles {
		g.Go(func() error { return writeFile(filepath.Join(jobDir, name), data) })
	}
	g.Go(func() error {
		opts := render.DefaultOptions()
		opts.Size = s.cfg.ScreenshotSize
		if err := render.SaveScreenshot(filepath.Join(jobDir, FileScreenshot), mesh, opts); err != nil {
			// 预览图失败不影响任务结果
			logger.Warn(ctx, "screenshot failed", "error", err)
			screenshot = ""
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, errors.ErrStorage.WithError(err)
	}

	m := s.validator.Compute(mesh, mainGLB)
	quality := analysis.ValidateQuality(m)
	if quality.Passed {
		metrics.QualityCheckTotal.WithLabelValues("passed").Inc()
	} else {
		metrics.QualityCheckTotal.WithLabelValues("failed").Inc()
	}

	files := map[string]string{
		"main":     FileMain,
		"lod1":     FileLOD1,
		"lod2":     FileLOD2,
		"metadata": FileMetadata,
	}
	if screenshot != "" {
		files["screenshot"] = screenshot
	}

	md := Metadata{
		JobID:  jobID,
		Prompt: req.Prompt,
		Parameters: Parameters{
			Seed:          req.Seed,
			Steps:         req.Steps,
			GuidanceScale: req.GuidanceScale,
		},
		Shape:     out.Shape,
		Modifiers: out.Modifiers,
		Files:     FileSet{Main: FileMain, LODs: []string{FileLOD1, FileLOD2}, Screenshot: screenshot},
		Metrics:   m,
		Quality:   quality,
		LODs:      lodFaces,
		Status:    entity.JobStatusCompleted,
	}
	if err := writeJSON(filepath.Join(jobDir, FileMetadata), md); err != nil {
		return nil, errors.ErrStorage.WithError(err)
	}

	return &entity.GenerationResult{
		JobID:     jobID,
		Shape:     out.Shape,
		Modifiers: out.Modifiers,
		Mesh:      mesh,
		Metrics:   m,
		Quality:   quality,
		LODs:      lodFaces,
		Files:     files,
	}, nil
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
