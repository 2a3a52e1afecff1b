package geom

// Whole-body keypoint layout: body (17, COCO order), feet (6), face contour
// (68), hands (2×21). The pose producer emits up to WholeBodyCount points
// per frame; fewer than BodyCount visible triggers the box-height fallback
// in the shot classifier.
const (
	IdxNose          = 0
	IdxLeftEye       = 1
	IdxRightEye      = 2
	IdxLeftEar       = 3
	IdxRightEar      = 4
	IdxLeftShoulder  = 5
	IdxRightShoulder = 6
	IdxLeftElbow     = 7
	IdxRightElbow    = 8
	IdxLeftWrist     = 9
	IdxRightWrist    = 10
	IdxLeftHip       = 11
	IdxRightHip      = 12
	IdxLeftKnee      = 13
	IdxRightKnee     = 14
	IdxLeftAnkle     = 15
	IdxRightAnkle    = 16

	BodyCount = 17

	FootStart = 17
	FootCount = 6

	FaceStart = 23
	FaceCount = 68

	HandStart = 91
	HandCount = 42

	WholeBodyCount = 133
)

// At returns the keypoint at index i, or a zero-confidence keypoint when the
// slice is shorter than i+1. Downstream code never indexes raw slices so a
// body-only detection (17 points) flows through the same paths as a
// whole-body one (133 points).
func At(kps []Keypoint, i int) Keypoint {
	if i < 0 || i >= len(kps) {
		return Keypoint{}
	}
	return kps[i]
}

// CountVisible returns how many keypoints in the index range [start, start+n)
// clear the visibility predicate.
func CountVisible(kps []Keypoint, start, n int, minConfidence float64) int {
	count := 0
	for i := start; i < start+n; i++ {
		if At(kps, i).Visible(minConfidence) {
			count++
		}
	}
	return count
}
