package asset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"asset-forge/internal/application/analysis"
	"asset-forge/internal/application/geometry"
	"asset-forge/internal/domain/entity"
	"asset-forge/internal/infrastructure/meshio"
	"asset-forge/internal/infrastructure/render"
	"asset-forge/pkg/errors"
	"asset-forge/pkg/logger"
)

// ShapeSpec 显式指定的形状参数
type ShapeSpec struct {
	Shape        entity.ShapeKind `json:"shape"`
	Seed         int64            `json:"seed"`
	Subdivisions int              `json:"subdivisions"`
	Preset       geometry.Preset  `json:"preset"`
}

// ShapeMetadata 写入 <name>_metadata.json 的内容
type ShapeMetadata struct {
	Name        string              `json:"name"`
	Parameters  ShapeSpec           `json:"parameters"`
	Metrics     *entity.MeshMetrics `json:"metrics"`
	SavedFiles  map[string]string   `json:"saved_files"`
	GeneratedAt time.Time           `json:"generated_at"`
}

// DefaultShapeName 未指定名称时使用 <shape>_<时间戳>
func DefaultShapeName(kind entity.ShapeKind, now time.Time) string {
	return fmt.Sprintf("%s_%s", kind, now.Format("20060102_150405"))
}

// ExportShape 构建单个形状并写出 GLB、OBJ、预览图与元数据
func ExportShape(ctx context.Context, dir, name string, spec ShapeSpec, screenshotSize int) (*ShapeMetadata, error) {
	if name == "" {
		name = DefaultShapeName(spec.Shape, time.Now())
	}
	if !safeSegment(name) {
		return nil, errors.InvalidParam("invalid asset name %q", name)
	}

	if err := spec.Preset.Validate(spec.Shape); err != nil {
		return nil, errors.InvalidParam("%s", err.Error())
	}

	mesh, err := geometry.Build(spec.Shape, spec.Preset, spec.Subdivisions, spec.Seed)
	if err != nil {
		return nil, errors.ErrInvalidParam.WithError(err)
	}
	if mesh.IsEmpty() {
		return nil, errors.ErrEmptyGeometry.WithDetail(string(spec.Shape))
	}
	if !mesh.HasNormals() {
		mesh.ComputeNormals()
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.ErrStorage.WithError(err)
	}

	glb, err := meshio.EncodeGLB(mesh)
	if err != nil {
		return nil, errors.ErrGenerationFailed.WithError(err)
	}
	obj, err := meshio.EncodeOBJ(mesh)
	if err != nil {
		return nil, errors.ErrGenerationFailed.WithError(err)
	}

	saved := map[string]string{
		"glb":        filepath.Join(dir, name+".glb"),
		"obj":        filepath.Join(dir, name+".obj"),
		"screenshot": filepath.Join(dir, name+"_screenshot.png"),
	}
	if err := writeFile(saved["glb"], glb); err != nil {
		return nil, errors.ErrStorage.WithError(err)
	}
	if err := writeFile(saved["obj"], obj); err != nil {
		return nil, errors.ErrStorage.WithError(err)
	}

	opts := render.DefaultOptions()
	if screenshotSize > 0 {
		opts.Size = screenshotSize
	}
	if err := render.SaveScreenshot(saved["screenshot"], mesh, opts); err != nil {
		// 预览图失败不影响网格产物
		logger.Warn(ctx, "failed to save screenshot", "name", name, "error", err)
		delete(saved, "screenshot")
	}

	md := &ShapeMetadata{
		Name:        name,
		Parameters:  spec,
		Metrics:     analysis.NewValidator(meshio.Codec{}).Compute(mesh, glb),
		SavedFiles:  saved,
		GeneratedAt: time.Now().UTC(),
	}
	if err := writeJSON(filepath.Join(dir, name+"_metadata.json"), md); err != nil {
		return nil, errors.ErrStorage.WithError(err)
	}

	logger.Info(ctx, "shape exported",
		"name", name,
		"shape", spec.Shape,
		"vertices", md.Metrics.VertexCount,
		"faces", md.Metrics.FaceCount,
	)
	return md, nil
}
