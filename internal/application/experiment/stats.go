package experiment

import (
	"math"
	"strconv"
)

// Stat 一组数值的统计量，Std 为总体标准差
type Stat struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

func computeStat(values []float64) Stat {
	if len(values) == 0 {
		return Stat{}
	}
	s := Stat{Min: values[0], Max: values[0]}
	sum := 0.0
	for _, v := range values {
		sum += v
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	}
	s.Mean = sum / float64(len(values))
	variance := 0.0
	for _, v := range values {
		d := v - s.Mean
		variance += d * d
	}
	s.Std = math.Sqrt(variance / float64(len(values)))
	return s
}

// Summary 成功率与耗时
type Summary struct {
	TotalExperiments      int     `json:"total_experiments"`
	SuccessfulExperiments int     `json:"successful_experiments"`
	FailedExperiments     int     `json:"failed_experiments"`
	SuccessRate           float64 `json:"success_rate"`
	MeanDurationMs        float64 `json:"mean_duration_ms"`
}

func summarize(runs []*Run) Summary {
	s := Summary{TotalExperiments: len(runs)}
	var durations []float64
	for _, run := range runs {
		if run.Succeeded() {
			s.SuccessfulExperiments++
			durations = append(durations, float64(run.DurationMs))
		} else {
			s.FailedExperiments++
		}
	}
	if s.TotalExperiments > 0 {
		s.SuccessRate = float64(s.SuccessfulExperiments) / float64(s.TotalExperiments)
	}
	s.MeanDurationMs = computeStat(durations).Mean
	return s
}

// 参与分组统计的指标
var effectMetrics = []struct {
	name  string
	value func(r *Run) float64
}{
	{"vertex_count", func(r *Run) float64 { return float64(r.Metrics.VertexCount) }},
	{"face_count", func(r *Run) float64 { return float64(r.Metrics.FaceCount) }},
	{"volume", func(r *Run) float64 { return r.Metrics.Volume }},
	{"surface_area", func(r *Run) float64 { return r.Metrics.SurfaceArea }},
	{"file_size", func(r *Run) float64 { return float64(r.Metrics.FileSizeBytes) }},
}

// parameterEffects 参数名 → 参数取值 → 指标名 → 统计量
func parameterEffects(runs []*Run) map[string]map[string]map[string]Stat {
	keys := map[string]func(r *Run) string{
		"seed":           func(r *Run) string { return strconv.FormatInt(r.Parameters.Seed, 10) },
		"steps":          func(r *Run) string { return strconv.Itoa(r.Parameters.Steps) },
		"guidance_scale": func(r *Run) string { return strconv.FormatFloat(r.Parameters.GuidanceScale, 'f', -1, 64) },
	}

	effects := make(map[string]map[string]map[string]Stat, len(keys))
	for param, key := range keys {
		groups := map[string][]*Run{}
		for _, run := range runs {
			if run.Succeeded() {
				k := key(run)
				groups[k] = append(groups[k], run)
			}
		}
		byValue := make(map[string]map[string]Stat, len(groups))
		for value, group := range groups {
			stats := make(map[string]Stat, len(effectMetrics))
			for _, m := range effectMetrics {
				values := make([]float64, len(group))
				for i, run := range group {
					values[i] = m.value(run)
				}
				stats[m.name] = computeStat(values)
			}
			byValue[value] = stats
		}
		effects[param] = byValue
	}
	return effects
}

// QualityRates 质量比例与均值
type QualityRates struct {
	LoadabilityRate    float64 `json:"loadability_rate"`
	WatertightRate     float64 `json:"watertight_rate"`
	UVCoverageRate     float64 `json:"uv_coverage_rate"`
	PassedRate         float64 `json:"passed_rate"`
	AverageVertexCount float64 `json:"average_vertex_count"`
	AverageFaceCount   float64 `json:"average_face_count"`
	AverageFileSizeMB  float64 `json:"average_file_size_mb"`
}

func qualityRates(runs []*Run) *QualityRates {
	var ok []*Run
	for _, run := range runs {
		if run.Succeeded() {
			ok = append(ok, run)
		}
	}
	if len(ok) == 0 {
		return nil
	}

	q := &QualityRates{}
	n := float64(len(ok))
	for _, run := range ok {
		m := run.Metrics
		if m.Loadable {
			q.LoadabilityRate++
		}
		if m.IsWatertight {
			q.WatertightRate++
		}
		if m.HasUVCoordinates {
			q.UVCoverageRate++
		}
		if run.Quality != nil && run.Quality.Passed {
			q.PassedRate++
		}
		q.AverageVertexCount += float64(m.VertexCount)
		q.AverageFaceCount += float64(m.FaceCount)
		q.AverageFileSizeMB += m.FileSizeMB
	}
	q.LoadabilityRate /= n
	q.WatertightRate /= n
	q.UVCoverageRate /= n
	q.PassedRate /= n
	q.AverageVertexCount /= n
	q.AverageFaceCount /= n
	q.AverageFileSizeMB /= n
	return q
}

func recommendations(q *QualityRates) []string {
	if q == nil {
		return []string{"No successful experiments to analyze"}
	}
	recs := []string{}
	if q.LoadabilityRate < 0.9 {
		recs = append(recs, "Improve mesh generation to increase loadability rate")
	}
	if q.WatertightRate < 0.5 {
		recs = append(recs, "Consider improving mesh topology for better watertightness")
	}
	if q.AverageFileSizeMB > 1.0 {
		recs = append(recs, "Consider implementing better mesh compression")
	}
	if q.AverageVertexCount > 10000 {
		recs = append(recs, "Consider reducing mesh complexity for better performance")
	}
	return recs
}
