// Package body derives per-frame body structure from noisy whole-body
// keypoint detections and classifies shot framing from it.
package body

import (
	"math"

	"github.com/framewise/framewise/internal/geom"
)

// Tier identifies the coarsest visible body region, used to infer framing
// robustly under partial occlusion.
type Tier int

const (
	TierNone Tier = iota
	TierFace
	TierShoulders
	TierHips
	TierKnees
	TierAnkles
)

var tierNames = map[Tier]string{
	TierNone:      "none",
	TierFace:      "face",
	TierShoulders: "shoulders",
	TierHips:      "hips",
	TierKnees:     "knees",
	TierAnkles:    "ankles",
}

func (t Tier) String() string { return tierNames[t] }

// Structure holds the per-frame derived body geometry. It is recomputed
// every frame and never persisted.
type Structure struct {
	CentroidX    float64 // Mean of visible structural anchors [0,1]
	CentroidY    float64
	TopAnchorY   float64 // Min y of head anchors [0,1]
	VerticalSpan float64 // lowestTierY - topAnchorY, for cross-frame scale comparison
	LowestTier   Tier
	VisibleCount int // Keypoints clearing the visibility predicate
	FaceVisible  int // Visible face-contour landmarks
}

// Structural anchor indices used for the centroid: head and torso joints
// that stay stable across poses.
var structuralAnchors = []int{
	geom.IdxNose, geom.IdxLeftEye, geom.IdxRightEye,
	geom.IdxLeftEar, geom.IdxRightEar,
	geom.IdxLeftShoulder, geom.IdxRightShoulder,
	geom.IdxLeftHip, geom.IdxRightHip,
}

// minStructuralAnchors is the minimum visible structural anchors before the
// centroid falls back to the face contour. Back-facing and extreme-close
// subjects often hide the torso joints entirely.
const minStructuralAnchors = 3

// headAnchors are the candidates for the top anchor, probed before the
// face-contour and shoulder fallbacks.
var headAnchors = []int{
	geom.IdxNose, geom.IdxLeftEye, geom.IdxRightEye,
	geom.IdxLeftEar, geom.IdxRightEar,
}

// ExtractStructure derives the body structure from a keypoint set. Returns
// false when nothing visible could anchor the structure.
func ExtractStructure(kps []geom.Keypoint, minConfidence float64) (Structure, bool) {
	s := Structure{LowestTier: TierNone}
	for _, kp := range kps {
		if kp.Visible(minConfidence) {
			s.VisibleCount++
		}
	}
	if s.VisibleCount == 0 {
		return Structure{}, false
	}
	s.FaceVisible = geom.CountVisible(kps, geom.FaceStart, geom.FaceCount, minConfidence)

	cx, cy, ok := centroid(kps, minConfidence)
	if !ok {
		return Structure{}, false
	}
	s.CentroidX, s.CentroidY = cx, cy

	s.TopAnchorY = topAnchorY(kps, minConfidence)
	s.LowestTier = LowestVisibleTier(kps, minConfidence)
	s.VerticalSpan = math.Max(0, lowestTierY(kps, minConfidence)-s.TopAnchorY)
	return s, true
}

// centroid averages the visible structural anchors, falling back to the
// face contour when fewer than minStructuralAnchors are visible.
func centroid(kps []geom.Keypoint, minConfidence float64) (x, y float64, ok bool) {
	var sumX, sumY float64
	n := 0
	for _, idx := range structuralAnchors {
		kp := geom.At(kps, idx)
		if kp.Visible(minConfidence) {
			sumX += kp.X
			sumY += kp.Y
			n++
		}
	}
	if n >= minStructuralAnchors {
		return sumX / float64(n), sumY / float64(n), true
	}

	sumX, sumY = 0, 0
	n = 0
	for i := geom.FaceStart; i < geom.FaceStart+geom.FaceCount; i++ {
		kp := geom.At(kps, i)
		if kp.Visible(minConfidence) {
			sumX += kp.X
			sumY += kp.Y
			n++
		}
	}
	if n == 0 {
		return 0, 0, false
	}
	return sumX / float64(n), sumY / float64(n), true
}

// topAnchorY returns the minimum y of the visible head anchors, falling
// back to the face contour and finally the shoulders.
func topAnchorY(kps []geom.Keypoint, minConfidence float64) float64 {
	if y, ok := minYOf(kps, headAnchors, minConfidence); ok {
		return y
	}
	minY := math.Inf(1)
	found := false
	for i := geom.FaceStart; i < geom.FaceStart+geom.FaceCount; i++ {
		kp := geom.At(kps, i)
		if kp.Visible(minConfidence) && kp.Y < minY {
			minY = kp.Y
			found = true
		}
	}
	if found {
		return minY
	}
	if y, ok := minYOf(kps, []int{geom.IdxLeftShoulder, geom.IdxRightShoulder}, minConfidence); ok {
		return y
	}
	return 0
}

func minYOf(kps []geom.Keypoint, idxs []int, minConfidence float64) (float64, bool) {
	minY := math.Inf(1)
	found := false
	for _, idx := range idxs {
		kp := geom.At(kps, idx)
		if kp.Visible(minConfidence) && kp.Y < minY {
			minY = kp.Y
			found = true
		}
	}
	return minY, found
}

// tierProbe pairs a tier with its joint indices, probed in descending
// anatomical order: the first tier with any visible joint wins. Probing
// tiers instead of taking the raw lowest point is robust to partial
// occlusion, unlike a pure box-height heuristic.
var tierProbes = []struct {
	tier Tier
	idxs []int
}{
	{TierAnkles, ankleAndFootIdxs()},
	{TierKnees, []int{geom.IdxLeftKnee, geom.IdxRightKnee}},
	{TierHips, []int{geom.IdxLeftHip, geom.IdxRightHip}},
	{TierShoulders, []int{geom.IdxLeftShoulder, geom.IdxRightShoulder}},
}

func ankleAndFootIdxs() []int {
	idxs := []int{geom.IdxLeftAnkle, geom.IdxRightAnkle}
	for i := geom.FootStart; i < geom.FootStart+geom.FootCount; i++ {
		idxs = append(idxs, i)
	}
	return idxs
}

// LowestVisibleTier probes ankles/feet, knees, hips, then shoulders and
// returns the first tier with any visible joint. TierFace when none.
func LowestVisibleTier(kps []geom.Keypoint, minConfidence float64) Tier {
	for _, probe := range tierProbes {
		for _, idx := range probe.idxs {
			if geom.At(kps, idx).Visible(minConfidence) {
				return probe.tier
			}
		}
	}
	return TierFace
}

// lowestTierY returns the max y among visible joints of the lowest visible
// tier, for the vertical span computation.
func lowestTierY(kps []geom.Keypoint, minConfidence float64) float64 {
	tier := LowestVisibleTier(kps, minConfidence)
	var idxs []int
	for _, probe := range tierProbes {
		if probe.tier == tier {
			idxs = probe.idxs
			break
		}
	}
	if idxs == nil {
		// Face tier: take the lowest visible head or contour point.
		maxY := 0.0
		for _, idx := range headAnchors {
			if kp := geom.At(kps, idx); kp.Visible(minConfidence) && kp.Y > maxY {
				maxY = kp.Y
			}
		}
		for i := geom.FaceStart; i < geom.FaceStart+geom.FaceCount; i++ {
			if kp := geom.At(kps, i); kp.Visible(minConfidence) && kp.Y > maxY {
				maxY = kp.Y
			}
		}
		return maxY
	}
	maxY := 0.0
	for _, idx := range idxs {
		if kp := geom.At(kps, idx); kp.Visible(minConfidence) && kp.Y > maxY {
			maxY = kp.Y
		}
	}
	return maxY
}
