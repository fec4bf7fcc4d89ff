package analysis

import "asset-forge/internal/domain/entity"

// Comparison b 相对于 a 的差异，比值在分母为零时为 0
type Comparison struct {
	VertexCountDiff  int     `json:"vertex_count_diff"`
	FaceCountDiff    int     `json:"face_count_diff"`
	VolumeDiff       float64 `json:"volume_diff"`
	SurfaceAreaDiff  float64 `json:"surface_area_diff"`
	VolumeRatio      float64 `json:"volume_ratio"`
	SurfaceAreaRatio float64 `json:"surface_area_ratio"`
	FileSizeRatio    float64 `json:"file_size_ratio"`
}

// Compare 比较两份指标
func Compare(a, b *entity.MeshMetrics) Comparison {
	return Comparison{
		VertexCountDiff:  b.VertexCount - a.VertexCount,
		FaceCountDiff:    b.FaceCount - a.FaceCount,
		VolumeDiff:       b.Volume - a.Volume,
		SurfaceAreaDiff:  b.SurfaceArea - a.SurfaceArea,
		VolumeRatio:      ratio(b.Volume, a.Volume),
		SurfaceAreaRatio: ratio(b.SurfaceArea, a.SurfaceArea),
		FileSizeRatio:    ratio(float64(b.FileSizeBytes), float64(a.FileSizeBytes)),
	}
}

func ratio(num, den float64) float64 {
	if den <= 0 {
		return 0
	}
	return num / den
}
