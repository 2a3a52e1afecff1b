package body

import "github.com/framewise/framewise/internal/geom"

// ShotType is an ordinal classification of how tightly the subject is
// framed, from tier 0 (tightest) to tier 7 (widest).
type ShotType int

const (
	ShotExtremeCloseUp ShotType = iota
	ShotCloseUp
	ShotHeadAndShoulders
	ShotBust
	ShotWaist
	ShotThigh
	ShotKnee
	ShotFull

	// ShotTierCount is the number of shot tiers.
	ShotTierCount = 8
)

var shotNames = [ShotTierCount]string{
	"extreme close-up",
	"close-up",
	"head and shoulders",
	"bust shot",
	"waist shot",
	"thigh shot",
	"knee shot",
	"full shot",
}

func (s ShotType) String() string {
	if s < 0 || s >= ShotTierCount {
		return "unknown"
	}
	return shotNames[s]
}

// Distance returns the ordinal distance between two shot tiers, symmetric
// and bounded to [0, 7].
func (s ShotType) Distance(o ShotType) int {
	d := int(s) - int(o)
	if d < 0 {
		d = -d
	}
	return d
}

// Wider reports whether s frames the subject more loosely than o.
func (s ShotType) Wider(o ShotType) bool { return s > o }

// Tighter reports whether s frames the subject more closely than o.
func (s ShotType) Tighter(o ShotType) bool { return s < o }

// Secondary-cue thresholds for keypoint classification.
const (
	// faceContourCloseUp is the minimum visible face-contour landmarks for a
	// face-tier detection to count as a close-up rather than an extreme
	// close-up (a full contour means the whole face is in frame).
	faceContourCloseUp = 30
	// faceContourHeadAndShoulders splits the shoulder tier: a dense face
	// contour means the framing is head-and-shoulders; a sparse one means
	// the subject is turned away and the cut is at bust height.
	faceContourHeadAndShoulders = 50
)

// ShotFromKeypoints classifies the shot tier from the most specific visible
// body tier, refined by secondary cues: elbow presence splits waist vs
// thigh framing at the hip tier, and the visible face-landmark count splits
// head-and-shoulders vs bust at the shoulder tier.
//
// ShotFromKeypoints and ShotFromBoxHeight are alternative estimators of the
// same ordinal quantity; the keypoint path is preferred whenever a full
// body detection is available.
func ShotFromKeypoints(kps []geom.Keypoint, minConfidence float64) ShotType {
	tier := LowestVisibleTier(kps, minConfidence)
	faceVisible := geom.CountVisible(kps, geom.FaceStart, geom.FaceCount, minConfidence)

	switch tier {
	case TierAnkles:
		return ShotFull
	case TierKnees:
		return ShotKnee
	case TierHips:
		if elbowVisible(kps, minConfidence) {
			return ShotThigh
		}
		return ShotWaist
	case TierShoulders:
		if faceVisible > faceContourHeadAndShoulders {
			return ShotHeadAndShoulders
		}
		return ShotBust
	default:
		// Face tier or nothing below the face: the contour density decides
		// between a framed close-up and an extreme close-up.
		if faceVisible >= faceContourCloseUp {
			return ShotCloseUp
		}
		return ShotExtremeCloseUp
	}
}

// Box-height bands for the fallback classifier. The subject's normalized
// box height grows as framing tightens and the body is progressively
// cropped out of frame.
var boxHeightBands = []struct {
	minHeight float64
	shot      ShotType
}{
	{1.00, ShotExtremeCloseUp},
	{0.95, ShotCloseUp},
	{0.85, ShotHeadAndShoulders},
	{0.75, ShotBust},
	{0.65, ShotWaist},
	{0.55, ShotThigh},
	{0.45, ShotKnee},
}

// ShotFromBoxHeight classifies the shot tier from the subject box height as
// a fraction of the frame. Used when fewer than a full body detection (17
// keypoints) is visible.
func ShotFromBoxHeight(heightRatio float64) ShotType {
	for _, band := range boxHeightBands {
		if heightRatio >= band.minHeight {
			return band.shot
		}
	}
	return ShotFull
}

func elbowVisible(kps []geom.Keypoint, minConfidence float64) bool {
	return geom.At(kps, geom.IdxLeftElbow).Visible(minConfidence) ||
		geom.At(kps, geom.IdxRightElbow).Visible(minConfidence)
}
