// Package validation 批量校验磁盘上的 GLB 资产
package validation

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"asset-forge/internal/application/analysis"
	"asset-forge/internal/domain/entity"
	"asset-forge/internal/infrastructure/meshio"
	"asset-forge/pkg/errors"
	"asset-forge/pkg/logger"
)

// 校验阈值
const (
	MaxFaces      = 100000
	MaxFileSizeMB = 50.0
)

// 校验项名称
const (
	CheckMinimumGeometry = "has_minimum_geometry"
	CheckManifold        = "is_manifold"
	CheckNormals         = "has_normals"
	CheckPolycount       = "reasonable_polycount"
	CheckPositiveVolume  = "positive_volume"
	CheckFileSize        = "file_size_reasonable"
)

// FileReport 单个文件的校验结果
type FileReport struct {
	FilePath         string              `json:"file_path"`
	FileSizeBytes    int64               `json:"file_size_bytes"`
	FileSizeMB       float64             `json:"file_size_mb"`
	Metrics          *entity.MeshMetrics `json:"metrics,omitempty"`
	Checks           map[string]bool     `json:"validation_checks,omitempty"`
	ValidationPassed bool                `json:"validation_passed"`
	Error            string              `json:"error,omitempty"`
}

// Aggregate 通过校验文件的汇总
type Aggregate struct {
	TotalVertices   int     `json:"total_vertices"`
	TotalFaces      int     `json:"total_faces"`
	TotalVolume     float64 `json:"total_volume"`
	TotalFileSizeMB float64 `json:"total_file_size_mb"`
	WatertightCount int     `json:"watertight_count"`
	NormalsCount    int     `json:"normals_count"`
}

// Report 目录校验报告
type Report struct {
	Timestamp   time.Time     `json:"timestamp"`
	TotalFiles  int           `json:"total_files"`
	PassedFiles int           `json:"passed_files"`
	FailedFiles int           `json:"failed_files"`
	SuccessRate float64       `json:"success_rate"`
	Aggregate   *Aggregate    `json:"aggregate,omitempty"`
	Files       []*FileReport `json:"metrics"`
}

// Failed 失败文件
func (r *Report) Failed() []*FileReport {
	var out []*FileReport
	for _, f := range r.Files {
		if !f.ValidationPassed {
			out = append(out, f)
		}
	}
	return out
}

// Validator 资产校验器
type Validator struct {
	metrics     *analysis.Validator
	concurrency int
}

// NewValidator 创建资产校验器
func NewValidator(concurrency int) *Validator {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Validator{
		metrics:     analysis.NewValidator(meshio.Codec{}),
		concurrency: concurrency,
	}
}

// ValidateFile 加载文件并执行全部校验项，加载失败记录在报告中而非返回错误
func (v *Validator) ValidateFile(ctx context.Context, path string) *FileReport {
	report := &FileReport{FilePath: path}
	if info, err := os.Stat(path); err == nil {
		report.FileSizeBytes = info.Size()
		report.FileSizeMB = float64(info.Size()) / (1024 * 1024)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		report.Error = err.Error()
		return report
	}
	mesh, err := meshio.DecodeGLB(data)
	if err != nil {
		report.Error = err.Error()
		logger.Warn(ctx, "asset failed to load", "path", path, "error", err)
		return report
	}

	m := v.metrics.Compute(mesh, data)
	report.Metrics = m
	report.Checks = Checks(m)
	report.ValidationPassed = allPassed(report.Checks)
	return report
}

// Checks 对指标执行校验项，有面即可推导面法线
func Checks(m *entity.MeshMetrics) map[string]bool {
	return map[string]bool{
		CheckMinimumGeometry: m.VertexCount >= 3 && m.FaceCount >= 1,
		CheckManifold:        m.IsWatertight,
		CheckNormals:         m.HasVertexNormals || m.FaceCount > 0,
		CheckPolycount:       m.FaceCount <= MaxFaces,
		CheckPositiveVolume:  m.Volume > 0,
		CheckFileSize:        m.FileSizeMB <= MaxFileSizeMB,
	}
}

func allPassed(checks map[string]bool) bool {
	for _, ok := range checks {
		if !ok {
			return false
		}
	}
	return true
}

// ValidateDir 校验目录下全部 .glb 文件（不递归），按文件名排序
func (v *Validator) ValidateDir(ctx context.Context, dir string) (*Report, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ErrFileNotFound.WithDetail(dir)
		}
		return nil, fmt.Errorf("failed to read dir: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".glb") {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)

	files := make([]*FileReport, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(v.concurrency)
	for i, p := range paths {
		g.Go(func() error {
			files[i] = v.ValidateFile(gctx, p)
			return nil
		})
	}
	_ = g.Wait()

	report := Summarize(files)
	logger.Info(ctx, "asset validation finished",
		"dir", dir,
		"total", report.TotalFiles,
		"passed", report.PassedFiles,
	)
	return report, nil
}

// Summarize 汇总文件结果
func Summarize(files []*FileReport) *Report {
	report := &Report{
		Timestamp:  time.Now().UTC(),
		TotalFiles: len(files),
		Files:      files,
	}
	if report.Files == nil {
		report.Files = []*FileReport{}
	}

	agg := &Aggregate{}
	for _, f := range files {
		if !f.ValidationPassed {
			report.FailedFiles++
			continue
		}
		report.PassedFiles++
		m := f.Metrics
		agg.TotalVertices += m.VertexCount
		agg.TotalFaces += m.FaceCount
		agg.TotalVolume += m.Volume
		agg.TotalFileSizeMB += m.FileSizeMB
		if m.IsWatertight {
			agg.WatertightCount++
		}
		if f.Checks[CheckNormals] {
			agg.NormalsCount++
		}
	}
	if report.TotalFiles > 0 {
		report.SuccessRate = float64(report.PassedFiles) / float64(report.TotalFiles)
	}
	if report.PassedFiles > 0 {
		report.Aggregate = agg
	}
	return report
}

// WriteReport 写出报告 JSON
func WriteReport(path string, report *Report) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create report dir: %w", err)
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
