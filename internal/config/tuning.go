// Package config holds the tuning configuration for the composition
// evaluation engine. Every empirically tuned banding constant (margin
// ladders, step and tilt bands, gate thresholds, focal tolerances) lives
// here as data so it can be retuned without touching control flow.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig represents the root configuration for tuning parameters.
// Fields are pointers so a partial JSON file only overrides what it names;
// the Get* accessors supply defaults for everything else.
type TuningConfig struct {
	// Visibility / detection params
	KeypointMinConfidence *float64 `json:"keypoint_min_confidence,omitempty"`
	MinSubjectBoxArea     *float64 `json:"min_subject_box_area,omitempty"`

	// Margin balance ladder (fractions of frame size)
	BalancePerfect   *float64 `json:"balance_perfect,omitempty"`
	BalanceGood      *float64 `json:"balance_good,omitempty"`
	BalanceMinor     *float64 `json:"balance_minor,omitempty"`
	BottomCropped    *float64 `json:"bottom_cropped,omitempty"`
	BottomDeviation  *float64 `json:"bottom_deviation,omitempty"`
	HorizontalWeight *float64 `json:"horizontal_weight,omitempty"`
	VerticalWeight   *float64 `json:"vertical_weight,omitempty"`
	BottomWeight     *float64 `json:"bottom_weight,omitempty"`

	// Gate thresholds [0,1]
	FramingThreshold     *float64 `json:"framing_threshold,omitempty"`
	PositionThreshold    *float64 `json:"position_threshold,omitempty"`
	CompressionThreshold *float64 `json:"compression_threshold,omitempty"`
	PoseThreshold        *float64 `json:"pose_threshold,omitempty"`

	// Framing gate params
	ScaleTolerance    *float64 `json:"scale_tolerance,omitempty"`
	ShotDistancePenal *float64 `json:"shot_distance_penalty,omitempty"`

	// Position gate params
	CentroidOffsetTolerance *float64 `json:"centroid_offset_tolerance,omitempty"`
	SpanRatioTolerance      *float64 `json:"span_ratio_tolerance,omitempty"`
	TopAnchorTolerance      *float64 `json:"top_anchor_tolerance,omitempty"`

	// Compression gate params
	FocalToleranceMM  *int     `json:"focal_tolerance_mm,omitempty"`
	CoverageTolerance *float64 `json:"coverage_tolerance,omitempty"`
	SoftConfidence    *float64 `json:"soft_confidence,omitempty"`

	// Pose gate params
	PoseAngleThresholdDeg *float64 `json:"pose_angle_threshold_deg,omitempty"`

	// Focal length estimation params
	BaseFocalMM     *int     `json:"base_focal_mm,omitempty"`
	FallbackFocalMM *int     `json:"fallback_focal_mm,omitempty"`
	CropFactor      *float64 `json:"crop_factor,omitempty"`

	// Stabilizer params
	StreakCap *int `json:"streak_cap,omitempty"`

	// Difficulty scaling
	DifficultyMultiplier *float64 `json:"difficulty_multiplier,omitempty"`
}

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file. Fields omitted
// from the JSON file retain their default values, so partial configs are
// safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from
// DefaultConfigPath, searching the current directory and common parent
// directories. Panics if the file cannot be loaded; intended for tests and
// binaries that have already validated config availability.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // from deeper packages
		"../../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	unitFields := map[string]*float64{
		"keypoint_min_confidence": c.KeypointMinConfidence,
		"framing_threshold":       c.FramingThreshold,
		"position_threshold":      c.PositionThreshold,
		"compression_threshold":   c.CompressionThreshold,
		"pose_threshold":          c.PoseThreshold,
		"soft_confidence":         c.SoftConfidence,
	}
	for name, v := range unitFields {
		if v != nil && (*v < 0 || *v > 1) {
			return fmt.Errorf("%s must be between 0 and 1, got %f", name, *v)
		}
	}
	if c.BalancePerfect != nil && c.BalanceGood != nil && *c.BalancePerfect > *c.BalanceGood {
		return fmt.Errorf("balance_perfect (%f) must not exceed balance_good (%f)", *c.BalancePerfect, *c.BalanceGood)
	}
	if c.BalanceGood != nil && c.BalanceMinor != nil && *c.BalanceGood > *c.BalanceMinor {
		return fmt.Errorf("balance_good (%f) must not exceed balance_minor (%f)", *c.BalanceGood, *c.BalanceMinor)
	}
	if c.StreakCap != nil && *c.StreakCap < 1 {
		return fmt.Errorf("streak_cap must be positive, got %d", *c.StreakCap)
	}
	if c.DifficultyMultiplier != nil && *c.DifficultyMultiplier <= 0 {
		return fmt.Errorf("difficulty_multiplier must be positive, got %f", *c.DifficultyMultiplier)
	}
	if c.BaseFocalMM != nil && *c.BaseFocalMM <= 0 {
		return fmt.Errorf("base_focal_mm must be positive, got %d", *c.BaseFocalMM)
	}
	if c.CropFactor != nil && *c.CropFactor <= 0 {
		return fmt.Errorf("crop_factor must be positive, got %f", *c.CropFactor)
	}
	return nil
}

// GetKeypointMinConfidence returns the keypoint visibility threshold.
func (c *TuningConfig) GetKeypointMinConfidence() float64 {
	if c.KeypointMinConfidence == nil {
		return 0.3 // default
	}
	return *c.KeypointMinConfidence
}

// GetMinSubjectBoxArea returns the minimum normalized box area below which
// the gates short-circuit to a shared "no person" result.
func (c *TuningConfig) GetMinSubjectBoxArea() float64 {
	if c.MinSubjectBoxArea == nil {
		return 0.01 // default
	}
	return *c.MinSubjectBoxArea
}

// GetBalancePerfect returns the perfect-tier balance threshold.
func (c *TuningConfig) GetBalancePerfect() float64 {
	if c.BalancePerfect == nil {
		return 0.05 // default
	}
	return *c.BalancePerfect
}

// GetBalanceGood returns the good-tier balance threshold.
func (c *TuningConfig) GetBalanceGood() float64 {
	if c.BalanceGood == nil {
		return 0.10 // default
	}
	return *c.BalanceGood
}

// GetBalanceMinor returns the needs-minor-adjustment balance threshold.
func (c *TuningConfig) GetBalanceMinor() float64 {
	if c.BalanceMinor == nil {
		return 0.15 // default
	}
	return *c.BalanceMinor
}

// GetBottomCropped returns the negative bottom-margin threshold that flags
// a cropped subject.
func (c *TuningConfig) GetBottomCropped() float64 {
	if c.BottomCropped == nil {
		return -0.10 // default
	}
	return *c.BottomCropped
}

// GetBottomDeviation returns the bottom-margin deviation from reference
// that triggers the bottom-special override.
func (c *TuningConfig) GetBottomDeviation() float64 {
	if c.BottomDeviation == nil {
		return 0.15 // default
	}
	return *c.BottomDeviation
}

// GetHorizontalWeight returns the horizontal balance weight in the margin
// score aggregate.
func (c *TuningConfig) GetHorizontalWeight() float64 {
	if c.HorizontalWeight == nil {
		return 0.4 // default
	}
	return *c.HorizontalWeight
}

// GetVerticalWeight returns the vertical balance weight.
func (c *TuningConfig) GetVerticalWeight() float64 {
	if c.VerticalWeight == nil {
		return 0.3 // default
	}
	return *c.VerticalWeight
}

// GetBottomWeight returns the bottom-space weight.
func (c *TuningConfig) GetBottomWeight() float64 {
	if c.BottomWeight == nil {
		return 0.3 // default
	}
	return *c.BottomWeight
}

// GetFramingThreshold returns the framing gate pass threshold.
func (c *TuningConfig) GetFramingThreshold() float64 {
	if c.FramingThreshold == nil {
		return 0.70 // default
	}
	return *c.FramingThreshold
}

// GetPositionThreshold returns the position gate pass threshold.
func (c *TuningConfig) GetPositionThreshold() float64 {
	if c.PositionThreshold == nil {
		return 0.75 // default
	}
	return *c.PositionThreshold
}

// GetCompressionThreshold returns the compression gate pass threshold.
func (c *TuningConfig) GetCompressionThreshold() float64 {
	if c.CompressionThreshold == nil {
		return 0.80 // default
	}
	return *c.CompressionThreshold
}

// GetPoseThreshold returns the pose gate pass threshold.
func (c *TuningConfig) GetPoseThreshold() float64 {
	if c.PoseThreshold == nil {
		return 0.70 // default
	}
	return *c.PoseThreshold
}

// GetScaleTolerance returns the relative-scale tolerance applied when
// current and reference shot tiers already match.
func (c *TuningConfig) GetScaleTolerance() float64 {
	if c.ScaleTolerance == nil {
		return 0.30 // default
	}
	return *c.ScaleTolerance
}

// GetShotDistancePenalty returns the per-tier score penalty for a shot
// tier mismatch.
func (c *TuningConfig) GetShotDistancePenalty() float64 {
	if c.ShotDistancePenal == nil {
		return 0.15 // default
	}
	return *c.ShotDistancePenal
}

// GetCentroidOffsetTolerance returns the horizontal centroid offset
// tolerance for the position gate.
func (c *TuningConfig) GetCentroidOffsetTolerance() float64 {
	if c.CentroidOffsetTolerance == nil {
		return 0.08 // default
	}
	return *c.CentroidOffsetTolerance
}

// GetSpanRatioTolerance returns the vertical span ratio tolerance for the
// position gate.
func (c *TuningConfig) GetSpanRatioTolerance() float64 {
	if c.SpanRatioTolerance == nil {
		return 0.20 // default
	}
	return *c.SpanRatioTolerance
}

// GetTopAnchorTolerance returns the top-anchor delta tolerance for the
// position gate's tilt component.
func (c *TuningConfig) GetTopAnchorTolerance() float64 {
	if c.TopAnchorTolerance == nil {
		return 0.10 // default
	}
	return *c.TopAnchorTolerance
}

// GetFocalToleranceMM returns the 35mm-equivalent focal length difference
// tolerated by the compression gate.
func (c *TuningConfig) GetFocalToleranceMM() int {
	if c.FocalToleranceMM == nil {
		return 10 // default
	}
	return *c.FocalToleranceMM
}

// GetCoverageTolerance returns the post-zoom screen coverage deviation
// above which a zoom is compounded with a stance-distance change.
func (c *TuningConfig) GetCoverageTolerance() float64 {
	if c.CoverageTolerance == nil {
		return 0.15 // default
	}
	return *c.CoverageTolerance
}

// GetSoftConfidence returns the confidence floor below which a focal
// length estimate is treated as a soft signal.
func (c *TuningConfig) GetSoftConfidence() float64 {
	if c.SoftConfidence == nil {
		return 0.4 // default
	}
	return *c.SoftConfidence
}

// GetPoseAngleThresholdDeg returns the joint-angle deviation (degrees)
// above which the pose gate emits a correction.
func (c *TuningConfig) GetPoseAngleThresholdDeg() float64 {
	if c.PoseAngleThresholdDeg == nil {
		return 20.0 // default
	}
	return *c.PoseAngleThresholdDeg
}

// GetBaseFocalMM returns the 35mm-equivalent focal length at 1.0x zoom.
func (c *TuningConfig) GetBaseFocalMM() int {
	if c.BaseFocalMM == nil {
		return 24 // default: typical phone main camera
	}
	return *c.BaseFocalMM
}

// GetFallbackFocalMM returns the fixed fallback focal length.
func (c *TuningConfig) GetFallbackFocalMM() int {
	if c.FallbackFocalMM == nil {
		return 27 // default
	}
	return *c.FallbackFocalMM
}

// GetCropFactor returns the sensor crop factor used to convert native
// focal lengths to 35mm equivalents when metadata lacks the direct field.
func (c *TuningConfig) GetCropFactor() float64 {
	if c.CropFactor == nil {
		return 7.0 // default: typical phone main sensor
	}
	return *c.CropFactor
}

// GetStreakCap returns the number of consecutive frames the same action
// may persist before a forced recomputation.
func (c *TuningConfig) GetStreakCap() int {
	if c.StreakCap == nil {
		return 30 // default: ~1s at 30fps
	}
	return *c.StreakCap
}

// GetDifficultyMultiplier returns the global difficulty multiplier.
func (c *TuningConfig) GetDifficultyMultiplier() float64 {
	if c.DifficultyMultiplier == nil {
		return 1.0 // default
	}
	return *c.DifficultyMultiplier
}
