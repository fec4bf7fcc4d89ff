package entity

import (
	"strings"

	"asset-forge/pkg/errors"
)

// 请求参数取值范围
const (
	MinSteps         = 10
	MaxSteps         = 50
	MinGuidanceScale = 5.0
	MaxGuidanceScale = 15.0
	MinSeed          = 0
	MaxSeed          = 1<<32 - 1
	MaxPromptLength  = 1000
)

// GenerationRequest 生成请求，提交后不可变
type GenerationRequest struct {
	Prompt        string  `json:"prompt"`
	Seed          int64   `json:"seed"`
	Steps         int     `json:"steps"`
	GuidanceScale float64 `json:"guidance_scale"`
}

// Validate 校验参数范围，失败时返回 InvalidParameter
func (r GenerationRequest) Validate() error {
	prompt := strings.TrimSpace(r.Prompt)
	if prompt == "" {
		return errors.InvalidParam("prompt must not be empty")
	}
	if len(r.Prompt) > MaxPromptLength {
		return errors.InvalidParam("prompt must be at most %d characters, got %d", MaxPromptLength, len(r.Prompt))
	}
	if r.Seed < MinSeed || r.Seed > MaxSeed {
		return errors.InvalidParam("seed must be in [%d, %d], got %d", MinSeed, int64(MaxSeed), r.Seed)
	}
	if r.Steps < MinSteps || r.Steps > MaxSteps {
		return errors.InvalidParam("steps must be in [%d, %d], got %d", MinSteps, MaxSteps, r.Steps)
	}
	// NaN 同样视为越界
	if !(r.GuidanceScale >= MinGuidanceScale && r.GuidanceScale <= MaxGuidanceScale) {
		return errors.InvalidParam("guidance_scale must be in [%.1f, %.1f], got %g", MinGuidanceScale, MaxGuidanceScale, r.GuidanceScale)
	}
	return nil
}

// SubdivisionLevel 由 steps 推导细分层级：10-19→1, 20-29→2, ... 50→5
func (r GenerationRequest) SubdivisionLevel() int {
	return SubdivisionLevelForSteps(r.Steps)
}

// SubdivisionLevelForSteps 细分层级，steps 越大网格越精细
func SubdivisionLevelForSteps(steps int) int {
	if steps < MinSteps {
		steps = MinSteps
	}
	return 1 + (steps-MinSteps)/10
}
