// Package gates scores a live frame against a reference composition along
// five independent dimensions. Each gate is a pure function of the frame's
// observation and the reference snapshot; the only shared knob is a global
// difficulty multiplier.
package gates

import (
	"github.com/framewise/framewise/internal/body"
	"github.com/framewise/framewise/internal/focal"
	"github.com/framewise/framewise/internal/geom"
)

// GateIndex identifies one of the five composition gates. The order is
// load-bearing: feedback selection prefers fixing lower-indexed gates
// first, and the aspect gate supersedes everything.
type GateIndex int

const (
	GateAspectRatio GateIndex = iota
	GateFraming
	GatePosition
	GateCompression
	GatePose

	GateCount = 5
)

var gateNames = [GateCount]string{
	"aspect_ratio",
	"framing",
	"position",
	"compression",
	"pose",
}

func (g GateIndex) String() string {
	if g < 0 || g >= GateCount {
		return "unknown"
	}
	return gateNames[g]
}

// Result is one gate's verdict for one frame. Pass is derived, never
// stored independently of Score and Threshold.
type Result struct {
	Gate      GateIndex
	Score     float64 // [0,1]
	Threshold float64 // [0,1]
	Feedback  string  // Empty when passing
	Debug     map[string]float64
}

// Pass reports whether the gate cleared its threshold.
func (r Result) Pass() bool { return r.Score >= r.Threshold }

// Evaluation is the verdict of all five gates for one frame.
type Evaluation struct {
	Results [GateCount]Result
	// NoSubject marks a frame where gates 1-4 collapsed to a shared
	// "no person" result because the subject box was missing or tiny.
	NoSubject bool
}

// AllPassed reports whether every gate cleared its threshold.
func (e Evaluation) AllPassed() bool {
	for _, r := range e.Results {
		if !r.Pass() {
			return false
		}
	}
	return true
}

// FirstFailing returns the lowest-index failing gate.
func (e Evaluation) FirstFailing() (GateIndex, bool) {
	for i, r := range e.Results {
		if !r.Pass() {
			return GateIndex(i), true
		}
	}
	return 0, false
}

// MeanScore averages the five gate scores, for progress display.
func (e Evaluation) MeanScore() float64 {
	sum := 0.0
	for _, r := range e.Results {
		sum += r.Score
	}
	return sum / GateCount
}

// PoseRegion groups joint-angle deviations for correction priority.
// Declaration order is the fixed priority order.
type PoseRegion int

const (
	RegionShoulders PoseRegion = iota
	RegionFace
	RegionArms
	RegionLegs
)

var regionNames = map[PoseRegion]string{
	RegionShoulders: "shoulders",
	RegionFace:      "face",
	RegionArms:      "arms",
	RegionLegs:      "legs",
}

func (p PoseRegion) String() string { return regionNames[p] }

// JointDeviation is one joint-angle difference reported by the pose
// similarity backend.
type JointDeviation struct {
	Region  PoseRegion
	Joint   string  // e.g. "left_elbow"
	Degrees float64 // Absolute angular deviation
}

// PoseReport is the externally supplied pose-similarity result.
type PoseReport struct {
	Accuracy   float64 // Overall similarity [0,1]
	Deviations []JointDeviation
}

// Observation is everything measured from the live frame. Nil fields mean
// the corresponding signal producer had nothing this frame.
type Observation struct {
	Box         *geom.BoundingBox // Normalized subject box
	Keypoints   []geom.Keypoint
	AspectRatio float64
	Focal       focal.Info
	Pose        *PoseReport
}

// Reference is the precomputed snapshot of the photo being imitated,
// cached once and read-only per frame.
type Reference struct {
	Box         geom.BoundingBox
	Keypoints   []geom.Keypoint
	Shot        body.ShotType
	Focal       focal.Info
	AspectRatio float64
}
