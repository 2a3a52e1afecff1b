package gates

import (
	"fmt"
	"sort"
	"strings"
)

// maxPoseCorrections caps how many joint corrections one frame reports.
// More than two reads as noise to the person holding the camera.
const maxPoseCorrections = 2

// evalPose is Gate 4: the externally supplied pose-similarity accuracy is
// the score; the feedback names the worst joint deviations in a fixed
// region priority order.
func (s *System) evalPose(obs Observation, m float64) Result {
	r := Result{Gate: GatePose, Threshold: s.thresholdFor(GatePose, m)}

	if obs.Pose == nil {
		// No pose report this frame. Missing signals degrade softly, they
		// never fail the gate outright.
		r.Score = 1.0
		r.Debug = map[string]float64{"missing_report": 1}
		return r
	}

	r.Score = obs.Pose.Accuracy
	r.Debug = map[string]float64{"accuracy": obs.Pose.Accuracy}
	if r.Pass() {
		return r
	}

	minAngle := errorTolerance(s.cfg.PoseAngleThresholdDeg, m)
	devs := make([]JointDeviation, 0, len(obs.Pose.Deviations))
	for _, d := range obs.Pose.Deviations {
		if d.Degrees >= minAngle {
			devs = append(devs, d)
		}
	}
	sort.SliceStable(devs, func(i, j int) bool {
		if devs[i].Region != devs[j].Region {
			return devs[i].Region < devs[j].Region
		}
		return devs[i].Degrees > devs[j].Degrees
	})
	if len(devs) > maxPoseCorrections {
		devs = devs[:maxPoseCorrections]
	}

	parts := make([]string, 0, len(devs))
	for _, d := range devs {
		parts = append(parts, poseCorrection(d))
	}
	r.Feedback = strings.Join(parts, "; ")
	return r
}

func poseCorrection(d JointDeviation) string {
	deg := int(d.Degrees + 0.5)
	switch d.Region {
	case RegionShoulders:
		return fmt.Sprintf("level your shoulders (%d degrees off)", deg)
	case RegionFace:
		return fmt.Sprintf("turn your head (%d degrees off)", deg)
	default:
		joint := strings.ReplaceAll(d.Joint, "_", " ")
		return fmt.Sprintf("adjust your %s (%d degrees off)", joint, deg)
	}
}
