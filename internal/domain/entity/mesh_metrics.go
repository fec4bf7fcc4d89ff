package entity

// BoundingBox 包围盒
type BoundingBox struct {
	Min  Vec3 `json:"min"`
	Max  Vec3 `json:"max"`
	Size Vec3 `json:"size"`
}

// TriangleQuality 三角形面积分布
type TriangleQuality struct {
	MinArea  float64 `json:"min_area"`
	MaxArea  float64 `json:"max_area"`
	MeanArea float64 `json:"mean_area"`
	StdArea  float64 `json:"std_area"`
}

// AspectRatio 三角形长短边比分布
type AspectRatio struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
}

// MeshMetrics 网格质量指标
type MeshMetrics struct {
	VertexCount         int              `json:"vertex_count"`
	FaceCount           int              `json:"face_count"`
	EdgeCount           int              `json:"edge_count"`
	Volume              float64          `json:"volume"`
	SurfaceArea         float64          `json:"surface_area"`
	BoundingBox         BoundingBox      `json:"bounding_box"`
	IsWatertight        bool             `json:"is_watertight"`
	IsWindingConsistent bool             `json:"is_winding_consistent"`
	IsEmpty             bool             `json:"is_empty"`
	HasUVCoordinates    bool             `json:"has_uv_coordinates"`
	HasVertexNormals    bool             `json:"has_vertex_normals"`
	FileSizeBytes       int64            `json:"file_size_bytes,omitempty"`
	FileSizeMB          float64          `json:"file_size_mb,omitempty"`
	Loadable            bool             `json:"loadable"`
	LoadError           string           `json:"load_error,omitempty"`
	TriangleQuality     *TriangleQuality `json:"triangle_quality,omitempty"`
	AspectRatio         *AspectRatio     `json:"aspect_ratio,omitempty"`
}

// QualityReport 质量校验结果
type QualityReport struct {
	Passed   bool     `json:"passed"`
	Warnings []string `json:"warnings"`
	Errors   []string `json:"errors"`
}
