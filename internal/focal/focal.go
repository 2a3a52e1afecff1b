// Package focal resolves a 35mm-equivalent focal length from whatever
// signals a frame happens to carry. Signals are tried in a fixed priority
// order and every estimate carries a confidence so downstream scoring can
// soften its verdict when the number is a guess.
package focal

import (
	"github.com/framewise/framewise/internal/config"
)

// Source identifies how a focal length estimate was obtained.
type Source string

const (
	SourceEXIF          Source = "exif"
	SourceZoomFactor    Source = "zoom_factor"
	SourceDepthEstimate Source = "depth_estimate"
	SourceUserInput     Source = "user_input"
	SourceFallback      Source = "fallback"
)

// Confidence assigned per source. EXIF is authoritative; a crop-factor
// conversion of the native focal length is close but lens-dependent.
const (
	confEXIF       = 1.0
	confCropFactor = 0.7
	confZoom       = 0.9
	confFallback   = 0.2
)

// Info is a resolved 35mm-equivalent focal length.
type Info struct {
	MM         int
	Source     Source
	Confidence float64
}

// Soft reports whether this estimate is too weak to hard-fail a
// comparison against it: fallback estimates and anything below the
// configured confidence floor only ever produce advisory results.
func (i Info) Soft(minConfidence float64) bool {
	return i.Source == SourceFallback || i.Confidence < minConfidence
}

// Metadata is the per-frame capture metadata a camera stack may provide.
// Zero values mean "absent".
type Metadata struct {
	EXIFFocal35mm int     // 35mm-equivalent field from image metadata
	NativeFocalMM float64 // Physical lens focal length
	ZoomFactor    float64 // Digital/optical zoom multiplier, 1.0 = none
}

// EstimatorConfig holds the tunable constants of the estimation chain.
type EstimatorConfig struct {
	BaseFocalMM int     // Focal length at zoom factor 1.0
	FallbackMM  int     // Last-resort estimate
	CropFactor  float64 // Native sensor to 35mm conversion
}

// DefaultEstimatorConfig returns an estimator configuration from the
// canonical tuning defaults file.
func DefaultEstimatorConfig() EstimatorConfig {
	return EstimatorConfigFromTuning(config.MustLoadDefaultConfig())
}

// EstimatorConfigFromTuning builds an EstimatorConfig from a loaded
// TuningConfig.
func EstimatorConfigFromTuning(cfg *config.TuningConfig) EstimatorConfig {
	return EstimatorConfig{
		BaseFocalMM: cfg.GetBaseFocalMM(),
		FallbackMM:  cfg.GetFallbackFocalMM(),
		CropFactor:  cfg.GetCropFactor(),
	}
}

// Estimator resolves focal length through the priority chain:
// metadata, zoom factor, depth variance, fixed fallback.
type Estimator struct {
	cfg EstimatorConfig
}

// NewEstimator creates an estimator with the given configuration.
func NewEstimator(cfg EstimatorConfig) *Estimator {
	return &Estimator{cfg: cfg}
}

// Estimate runs the chain. The first signal that yields a usable number
// wins; the chain never fails outright, it degrades to the fallback.
// depth and box may be nil when the frame carries no depth grid.
func (e *Estimator) Estimate(meta Metadata, depth *DepthGrid, box *DepthRegion) Info {
	if info, ok := e.fromMetadata(meta); ok {
		return info
	}
	if info, ok := e.fromZoom(meta); ok {
		return info
	}
	if depth != nil {
		if info, ok := e.fromDepth(depth, box); ok {
			return info
		}
	}
	return Info{MM: e.cfg.FallbackMM, Source: SourceFallback, Confidence: confFallback}
}

// UserInput wraps an explicitly entered focal length. User input is
// trusted like EXIF.
func UserInput(mm int) Info {
	return Info{MM: mm, Source: SourceUserInput, Confidence: confEXIF}
}

func (e *Estimator) fromMetadata(meta Metadata) (Info, bool) {
	if meta.EXIFFocal35mm > 0 {
		return Info{MM: meta.EXIFFocal35mm, Source: SourceEXIF, Confidence: confEXIF}, true
	}
	if meta.NativeFocalMM > 0 {
		mm := int(meta.NativeFocalMM*e.cfg.CropFactor + 0.5)
		return Info{MM: mm, Source: SourceEXIF, Confidence: confCropFactor}, true
	}
	return Info{}, false
}

func (e *Estimator) fromZoom(meta Metadata) (Info, bool) {
	if meta.ZoomFactor <= 0 {
		return Info{}, false
	}
	mm := int(meta.ZoomFactor*float64(e.cfg.BaseFocalMM) + 0.5)
	return Info{MM: mm, Source: SourceZoomFactor, Confidence: confZoom}, true
}
