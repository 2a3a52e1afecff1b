package margins

import (
	"fmt"
	"math"
)

// StepBucket is a human distance bucket for lateral/stance moves.
type StepBucket int

const (
	StepsNone StepBucket = iota
	StepsHalf
	StepsOne
	StepsTwo
	StepsThree
	StepsFourPlus
)

var stepNames = map[StepBucket]string{
	StepsNone:     "barely",
	StepsHalf:     "half a step",
	StepsOne:      "one step",
	StepsTwo:      "two steps",
	StepsThree:    "three steps",
	StepsFourPlus: "four or more steps",
}

func (s StepBucket) String() string { return stepNames[s] }

// StepsForPercent converts a drift percentage to a step bucket using
// 10%-wide bands.
func StepsForPercent(percent float64) StepBucket {
	switch {
	case percent < 5:
		return StepsNone
	case percent < 10:
		return StepsHalf
	case percent < 20:
		return StepsOne
	case percent < 30:
		return StepsTwo
	case percent < 40:
		return StepsThree
	default:
		return StepsFourPlus
	}
}

// TiltDegrees converts a vertical drift percentage to a tilt angle.
func TiltDegrees(percent float64) int {
	switch {
	case percent < 5:
		return 2
	case percent < 10:
		return 5
	case percent < 15:
		return 8
	case percent < 20:
		return 10
	default:
		return int(math.Min(15, percent*0.5))
	}
}

// HorizontalBalance is the horizontal component of a margin analysis.
type HorizontalBalance struct {
	Status           BalanceStatus
	Score            float64 // [0,1]
	CurrentBalance   float64 // left - right, positive = subject sits right of center
	ReferenceBalance float64
	CenterShift      float64 // current balance drift relative to reference
	Direction        string  // "left", "right", or "" when within the good tier
	Steps            StepBucket
	Warning          string // Out-of-frame warning, empty when in frame
}

// VerticalBalance is the vertical component of a margin analysis.
type VerticalBalance struct {
	Status             BalanceStatus
	Score              float64
	CurrentPosition    float64 // Subject vertical position, 0 = top
	ReferencePosition  float64
	PositionDiff       float64
	Recommendation     TiltRecommendation
	Warning            string
	CurrentHighAngle   bool
	ReferenceHighAngle bool
}

// TiltKind selects between the visually distinct vertical corrections.
type TiltKind int

const (
	TiltNone TiltKind = iota
	TiltUp
	TiltDown
	// LowerCamera is recommended when high-angle framing coincides with a
	// subject sitting too low: dropping the camera height reads differently
	// from tilting and the two must not be conflated.
	LowerCamera
)

// TiltRecommendation is the vertical correction with its banded magnitude.
type TiltRecommendation struct {
	Kind    TiltKind
	Degrees int
}

// BottomAnalysis independently grades the bottom margin. Cropping always
// outranks balance tuning, so a crop or a large deviation here overrides
// the generic vertical feedback.
type BottomAnalysis struct {
	Status    BalanceStatus
	Score     float64
	Cropped   bool
	TooMuch   bool
	TooLittle bool
	Message   string
}

// Analysis is the combined margin evaluation for one frame.
type Analysis struct {
	Current    Margins
	Reference  Margins
	Horizontal HorizontalBalance
	Vertical   VerticalBalance
	Bottom     BottomAnalysis
	Score      float64 // Weighted aggregate [0,1]
	// CombinedCropWarning is set when opposing margins are both negative:
	// one "too close" message replaces the two per-edge warnings.
	CombinedCropWarning string
}

// Horizontal compares the left/right balance of current and reference
// margins through the 4-tier ladder.
func (a *Analyzer) Horizontal(curr, ref Margins) HorizontalBalance {
	cc, rc := curr.Clamped(), ref.Clamped()
	currBalance := cc.Left - cc.Right
	refBalance := rc.Left - rc.Right
	shift := currBalance - refBalance

	status, score := a.ladder(shift)
	hb := HorizontalBalance{
		Status:           status,
		Score:            score,
		CurrentBalance:   currBalance,
		ReferenceBalance: refBalance,
		CenterShift:      shift,
	}
	if math.Abs(shift) > a.cfg.Good {
		percent := math.Abs(shift) * 100
		hb.Steps = StepsForPercent(percent)
		if shift > 0 {
			// Too much space on the left: the subject drifted right, so the
			// camera pans right to re-center.
			hb.Direction = "right"
		} else {
			hb.Direction = "left"
		}
	}

	switch {
	case curr.LeftOut() && curr.RightOut():
		hb.Warning = "subject cropped on both sides - too close"
	case curr.LeftOut():
		hb.Warning = "subject exceeds the left edge"
	case curr.RightOut():
		hb.Warning = "subject exceeds the right edge"
	}
	return hb
}

// Vertical applies the balance ladder to the subject's vertical position
// difference, with the tilt magnitude banded separately in degrees.
func (a *Analyzer) Vertical(curr, ref Margins) VerticalBalance {
	currPos := curr.VerticalPosition()
	refPos := ref.VerticalPosition()
	diff := currPos - refPos

	status, score := a.ladder(diff)
	vb := VerticalBalance{
		Status:             status,
		Score:              score,
		CurrentPosition:    currPos,
		ReferencePosition:  refPos,
		PositionDiff:       diff,
		CurrentHighAngle:   curr.HighAngle(),
		ReferenceHighAngle: ref.HighAngle(),
	}

	if math.Abs(diff) > a.cfg.Good {
		degrees := TiltDegrees(math.Abs(diff) * 100)
		switch {
		case diff > 0 && curr.HighAngle():
			// High angle with the subject sitting lower than the reference:
			// lower the camera and level the angle instead of tilting further.
			vb.Recommendation = TiltRecommendation{Kind: LowerCamera, Degrees: degrees}
		case diff > 0:
			vb.Recommendation = TiltRecommendation{Kind: TiltDown, Degrees: degrees}
		default:
			vb.Recommendation = TiltRecommendation{Kind: TiltUp, Degrees: degrees}
		}
	}

	switch {
	case curr.TopOut() && curr.BottomOut():
		vb.Warning = "subject cropped top and bottom - too close"
	case curr.TopOut():
		vb.Warning = "head exceeds the top edge"
	case curr.BottomOut():
		vb.Warning = "feet exceed the bottom edge"
	}
	return vb
}

// Bottom independently analyzes the bottom margin for crops and large
// deviations from the reference.
func (a *Analyzer) Bottom(curr, ref Margins) BottomAnalysis {
	diff := math.Abs(curr.Bottom - ref.Bottom)
	ba := BottomAnalysis{}
	switch {
	case diff < a.cfg.Perfect:
		ba.Status, ba.Score = StatusPerfect, 0.95
	case diff < a.cfg.Good:
		ba.Status, ba.Score = StatusGood, 0.85
	case diff < a.cfg.Minor:
		ba.Status, ba.Score = StatusNeedsMinor, 0.75
	default:
		ba.Status, ba.Score = StatusNeedsAdjustment, math.Max(0.60, 0.90-diff)
	}

	switch {
	case curr.Bottom < a.cfg.BottomCropped:
		ba.Cropped = true
		ba.Message = "lower body cropped - raise the camera or step back"
	case curr.Bottom > ref.Bottom+a.cfg.BottomDeviation:
		ba.TooMuch = true
		ba.Message = "too much space below - lower the camera or move forward"
	case curr.Bottom < ref.Bottom-a.cfg.BottomDeviation:
		ba.TooLittle = true
		ba.Message = "not enough space below - raise the camera or step back"
	}
	return ba
}

// Evaluate runs the horizontal, vertical, and bottom analyses and blends
// their scores with the configured weights.
func (a *Analyzer) Evaluate(curr, ref Margins) Analysis {
	an := Analysis{
		Current:    curr,
		Reference:  ref,
		Horizontal: a.Horizontal(curr, ref),
		Vertical:   a.Vertical(curr, ref),
		Bottom:     a.Bottom(curr, ref),
	}
	an.Score = an.Horizontal.Score*a.cfg.HorizontalWeight +
		an.Vertical.Score*a.cfg.VerticalWeight +
		an.Bottom.Score*a.cfg.BottomWeight

	if (curr.LeftOut() && curr.RightOut()) || (curr.TopOut() && curr.BottomOut()) {
		an.CombinedCropWarning = "too close - subject cropped on opposing edges"
	}
	return an
}

// Describe renders the dominant correction as human-readable text.
func (an Analysis) Describe() string {
	if an.CombinedCropWarning != "" {
		return an.CombinedCropWarning
	}
	if an.Bottom.Message != "" {
		return an.Bottom.Message
	}
	if an.Vertical.Recommendation.Kind != TiltNone {
		switch an.Vertical.Recommendation.Kind {
		case LowerCamera:
			return fmt.Sprintf("lower the camera and level the angle by %d degrees", an.Vertical.Recommendation.Degrees)
		case TiltDown:
			return fmt.Sprintf("tilt the camera down %d degrees", an.Vertical.Recommendation.Degrees)
		case TiltUp:
			return fmt.Sprintf("tilt the camera up %d degrees", an.Vertical.Recommendation.Degrees)
		}
	}
	if an.Horizontal.Direction != "" {
		return fmt.Sprintf("move the camera %s by %s", an.Horizontal.Direction, an.Horizontal.Steps)
	}
	return ""
}
