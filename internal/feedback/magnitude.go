package feedback

import (
	"fmt"

	"github.com/framewise/framewise/internal/margins"
)

// magnitude converts a severity into the action family's own bucket
// vocabulary: steps for moves, degrees for tilts, a qualitative level for
// zooms without a known ratio.
func magnitude(a Action, severity float64) string {
	switch a.Family() {
	case FamilyDistance:
		return stepMagnitude(severity)
	case FamilyPan:
		// Pan magnitudes carry the drift percentage alongside the steps.
		percent := int(severity * 40)
		return fmt.Sprintf("%s (%d%% off center)", margins.StepsForPercent(severity*40), percent)
	case FamilyTilt:
		return fmt.Sprintf("%d degrees", margins.TiltDegrees(severity*30))
	default:
		return zoomLevel(severity)
	}
}

// stepMagnitude buckets a severity into stance steps.
func stepMagnitude(severity float64) string {
	switch {
	case severity < 0.25:
		return "half a step"
	case severity < 0.5:
		return "one step"
	case severity < 0.75:
		return "two steps"
	default:
		return "three steps"
	}
}

func zoomLevel(severity float64) string {
	switch {
	case severity < 0.3:
		return "slightly"
	case severity < 0.6:
		return "moderately"
	default:
		return "significantly"
	}
}

// zoomMagnitude renders a known zoom ratio, used by the compression
// branch where the reference focal length implies an exact ratio.
func zoomMagnitude(ratio float64) string {
	return fmt.Sprintf("to %.1fx", ratio)
}
