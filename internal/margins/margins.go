// Package margins converts subject bounding boxes into signed frame
// margins and scores their balance against a reference composition.
package margins

import (
	"math"

	"github.com/framewise/framewise/internal/config"
	"github.com/framewise/framewise/internal/geom"
)

// Margins holds the signed distance from the subject to each frame edge as
// a fraction of the frame dimension. Negative values mean the subject
// exceeds that edge; ratios are NOT pre-clamped so the sign survives for
// out-of-frame detection. Clamping to [-0.5, 0.5] happens only for the
// balance arithmetic.
type Margins struct {
	Left   float64
	Right  float64
	Top    float64
	Bottom float64
}

// Compute converts a normalized bounding box plus frame size to absolute
// pixel margins and back to signed ratios.
func Compute(box geom.BoundingBox, frameW, frameH float64) Margins {
	if frameW <= 0 || frameH <= 0 {
		return Margins{}
	}
	// Absolute margins in pixels, then normalized by the frame dimension.
	leftPx := box.MinX * frameW
	rightPx := (1 - box.MaxX) * frameW
	topPx := box.MinY * frameH
	bottomPx := (1 - box.MaxY) * frameH
	return Margins{
		Left:   leftPx / frameW,
		Right:  rightPx / frameW,
		Top:    topPx / frameH,
		Bottom: bottomPx / frameH,
	}
}

// Clamped returns the margins with every ratio clamped to [-0.5, 0.5].
func (m Margins) Clamped() Margins {
	return Margins{
		Left:   geom.ClampRatio(m.Left),
		Right:  geom.ClampRatio(m.Right),
		Top:    geom.ClampRatio(m.Top),
		Bottom: geom.ClampRatio(m.Bottom),
	}
}

// LeftOut reports whether the subject exceeds the left frame edge.
func (m Margins) LeftOut() bool { return m.Left < 0 }

// RightOut reports whether the subject exceeds the right frame edge.
func (m Margins) RightOut() bool { return m.Right < 0 }

// TopOut reports whether the subject exceeds the top frame edge.
func (m Margins) TopOut() bool { return m.Top < 0 }

// BottomOut reports whether the subject exceeds the bottom frame edge.
func (m Margins) BottomOut() bool { return m.Bottom < 0 }

// OutOfFrameCount returns how many edges the subject exceeds.
func (m Margins) OutOfFrameCount() int {
	n := 0
	for _, out := range []bool{m.LeftOut(), m.RightOut(), m.TopOut(), m.BottomOut()} {
		if out {
			n++
		}
	}
	return n
}

// VerticalPosition returns where the subject sits between the top (0) and
// bottom (1) of the frame, guarded against near-zero denominators.
func (m Margins) VerticalPosition() float64 {
	c := m.Clamped()
	return geom.SafeDiv(c.Top, c.Top+c.Bottom, 0.5)
}

// HighAngle flags likely camera elevation: more space below the subject
// than above it reads as the camera looking down.
func (m Margins) HighAngle() bool { return m.Bottom > m.Top }

// LowAngle flags likely camera depression: much more space above the
// subject than below it reads as the camera looking up.
func (m Margins) LowAngle() bool { return m.Top > m.Bottom }

// BalanceStatus grades how far a balance quantity drifted from reference.
type BalanceStatus string

const (
	StatusPerfect         BalanceStatus = "perfect"
	StatusGood            BalanceStatus = "good"
	StatusNeedsMinor      BalanceStatus = "needs_minor_adjustment"
	StatusNeedsAdjustment BalanceStatus = "needs_adjustment"
)

// AnalyzerConfig holds the balance ladder and banding parameters.
type AnalyzerConfig struct {
	Perfect          float64 // Ladder tier 1 (fraction of frame)
	Good             float64 // Ladder tier 2
	Minor            float64 // Ladder tier 3
	BottomCropped    float64 // Negative bottom margin flagging a crop
	BottomDeviation  float64 // Bottom deviation triggering the override
	HorizontalWeight float64 // Aggregate weights, sum ≈ 1
	VerticalWeight   float64
	BottomWeight     float64
}

// DefaultAnalyzerConfig returns an analyzer configuration from the
// canonical tuning defaults file.
func DefaultAnalyzerConfig() AnalyzerConfig {
	return AnalyzerConfigFromTuning(config.MustLoadDefaultConfig())
}

// AnalyzerConfigFromTuning builds an AnalyzerConfig from a loaded
// TuningConfig. Use this in production code where the TuningConfig is
// already loaded.
func AnalyzerConfigFromTuning(cfg *config.TuningConfig) AnalyzerConfig {
	return AnalyzerConfig{
		Perfect:          cfg.GetBalancePerfect(),
		Good:             cfg.GetBalanceGood(),
		Minor:            cfg.GetBalanceMinor(),
		BottomCropped:    cfg.GetBottomCropped(),
		BottomDeviation:  cfg.GetBottomDeviation(),
		HorizontalWeight: cfg.GetHorizontalWeight(),
		VerticalWeight:   cfg.GetVerticalWeight(),
		BottomWeight:     cfg.GetBottomWeight(),
	}
}

// Analyzer scores margin balance against a reference composition.
type Analyzer struct {
	cfg AnalyzerConfig
}

// NewAnalyzer creates an analyzer with the given configuration.
func NewAnalyzer(cfg AnalyzerConfig) *Analyzer {
	return &Analyzer{cfg: cfg}
}

// ladder grades an absolute drift through the 4-tier balance ladder.
func (a *Analyzer) ladder(drift float64) (BalanceStatus, float64) {
	abs := math.Abs(drift)
	switch {
	case abs < a.cfg.Perfect:
		return StatusPerfect, 0.95
	case abs < a.cfg.Good:
		return StatusGood, 0.85
	case abs < a.cfg.Minor:
		return StatusNeedsMinor, 0.70
	default:
		return StatusNeedsAdjustment, math.Max(0.50, 0.85-abs)
	}
}
