// Package geom provides the shared geometric primitives for composition
// evaluation: keypoints, normalized bounding boxes, and the ratio helpers
// used by the margin and gate layers.
package geom

import "math"

// Numerical stability constants — not user-tunable.
const (
	// MinDenominator is the epsilon floor applied before any ratio division.
	MinDenominator = 1e-6
	// BoundsSlack relaxes the visibility bounds check so joints clipped just
	// outside the frame still count as visible.
	BoundsSlack = 0.1
)

// Keypoint is a single detected joint or landmark in normalized image
// coordinates. Coordinates may slightly exceed [0,1] for clipped joints.
type Keypoint struct {
	X          float64 // Normalized horizontal position [0,1]
	Y          float64 // Normalized vertical position [0,1], 0 = top
	Confidence float64 // Detector confidence [0,1]
}

// Visible reports whether the keypoint clears the confidence threshold and
// lies within the relaxed frame bounds.
func (k Keypoint) Visible(minConfidence float64) bool {
	if k.Confidence < minConfidence {
		return false
	}
	return k.X >= -BoundsSlack && k.X <= 1+BoundsSlack &&
		k.Y >= -BoundsSlack && k.Y <= 1+BoundsSlack
}

// BoundingBox is a normalized axis-aligned rectangle. Margins derived from
// it may be negative when the subject exceeds the frame.
type BoundingBox struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// Width returns the normalized box width.
func (b BoundingBox) Width() float64 { return b.MaxX - b.MinX }

// Height returns the normalized box height.
func (b BoundingBox) Height() float64 { return b.MaxY - b.MinY }

// Area returns the normalized box area.
func (b BoundingBox) Area() float64 { return b.Width() * b.Height() }

// CenterX returns the horizontal center of the box.
func (b BoundingBox) CenterX() float64 { return (b.MinX + b.MaxX) / 2 }

// CenterY returns the vertical center of the box.
func (b BoundingBox) CenterY() float64 { return (b.MinY + b.MaxY) / 2 }

// Valid reports whether the box has positive extent in both dimensions.
func (b BoundingBox) Valid() bool {
	return b.Width() > 0 && b.Height() > 0
}

// BoxFromKeypoints computes the tight bounding box of all visible keypoints.
// Returns false when no keypoint clears the visibility predicate.
func BoxFromKeypoints(kps []Keypoint, minConfidence float64) (BoundingBox, bool) {
	box := BoundingBox{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}
	found := false
	for _, kp := range kps {
		if !kp.Visible(minConfidence) {
			continue
		}
		found = true
		box.MinX = math.Min(box.MinX, kp.X)
		box.MinY = math.Min(box.MinY, kp.Y)
		box.MaxX = math.Max(box.MaxX, kp.X)
		box.MaxY = math.Max(box.MaxY, kp.Y)
	}
	if !found {
		return BoundingBox{}, false
	}
	return box, true
}

// ClampRatio clamps a signed margin ratio to [-0.5, 0.5]. Raw ratios keep
// their sign for out-of-frame detection; clamping applies only to the
// balance arithmetic downstream.
func ClampRatio(v float64) float64 {
	if v < -0.5 {
		return -0.5
	}
	if v > 0.5 {
		return 0.5
	}
	return v
}

// Clamp01 clamps a score to [0, 1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// SafeDiv divides num by den, substituting fallback when the denominator is
// below the epsilon floor or the result would not be finite.
func SafeDiv(num, den, fallback float64) float64 {
	if math.Abs(den) < MinDenominator {
		return fallback
	}
	v := num / den
	if !Finite(v) {
		return fallback
	}
	return v
}

// Finite reports whether v is neither NaN nor infinite.
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
