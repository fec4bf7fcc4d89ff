package asset

import (
	"encoding/json"
	"fmt"
	"os"

	"asset-forge/internal/domain/entity"
)

// 产物文件名
const (
	FileMain       = "main.glb"
	FileLOD1       = "lod1.glb"
	FileLOD2       = "lod2.glb"
	FileScreenshot = "screenshot.png"
	FileMetadata   = "metadata.json"
)

// Parameters 生成参数
type Parameters struct {
	Seed          int64   `json:"seed"`
	Steps         int     `json:"steps"`
	GuidanceScale float64 `json:"guidance_scale"`
}

// FileSet 产物文件引用
type FileSet struct {
	Main       string   `json:"main"`
	LODs       []string `json:"lods"`
	Screenshot string   `json:"screenshot"`
}

// Metadata 写入 metadata.json 的内容
type Metadata struct {
	JobID      string                `json:"job_id"`
	Prompt     string                `json:"prompt"`
	Parameters Parameters            `json:"parameters"`
	Shape      entity.ShapeKind      `json:"shape"`
	Modifiers  []entity.Modifier     `json:"modifiers"`
	Files      FileSet               `json:"files"`
	Metrics    *entity.MeshMetrics   `json:"metrics"`
	Quality    *entity.QualityReport `json:"quality"`
	LODs       map[string]int        `json:"lods"`
	Status     entity.JobStatus      `json:"status"`
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ReadMetadata 读取任务目录下的 metadata.json
func ReadMetadata(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	var md Metadata
	if err := json.Unmarshal(data, &md); err != nil {
		return nil, fmt.Errorf("parse metadata: %w", err)
	}
	return &md, nil
}
