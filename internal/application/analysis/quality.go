package analysis

import "asset-forge/internal/domain/entity"

// 性能告警阈值
const (
	WarnVertexCount = 100000
	WarnFaceCount   = 50000
)

// ValidateQuality 根据指标给出校验结论，有错误即不通过
func ValidateQuality(m *entity.MeshMetrics) *entity.QualityReport {
	r := &entity.QualityReport{Passed: true, Warnings: []string{}, Errors: []string{}}
	fail := func(msg string) {
		r.Errors = append(r.Errors, msg)
		r.Passed = false
	}

	if m.VertexCount == 0 {
		fail("Mesh has no vertices")
	}
	if m.FaceCount == 0 {
		fail("Mesh has no faces")
	}
	if m.IsEmpty {
		fail("Mesh is empty")
	}

	if m.VertexCount > WarnVertexCount {
		r.Warnings = append(r.Warnings, "High vertex count may impact performance")
	}
	if m.FaceCount > WarnFaceCount {
		r.Warnings = append(r.Warnings, "High face count may impact performance")
	}
	if !m.IsWatertight {
		r.Warnings = append(r.Warnings, "Mesh is not watertight")
	}
	if !m.HasUVCoordinates {
		r.Warnings = append(r.Warnings, "Mesh lacks UV coordinates")
	}

	if !m.Loadable {
		fail("Mesh failed loadability test")
	}
	return r
}
