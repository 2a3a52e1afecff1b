package gates

import (
	"fmt"
	"math"

	"github.com/framewise/framewise/internal/body"
	"github.com/framewise/framewise/internal/geom"
)

// focalScoreScale converts a focal-length difference in mm to a score
// penalty. 50mm of difference spends the whole [0,1] range, which lines
// the default threshold up with the default mm tolerance.
const focalScoreScale = 50.0

// evalCompression is Gate 3: does the lens perspective match the
// reference. A focal-length mismatch needs a coupled zoom+move: zooming
// alone changes subject size, moving alone changes compression, so the
// instruction always pairs them.
func (s *System) evalCompression(obs Observation, ref Reference, m float64) Result {
	r := Result{Gate: GateCompression, Threshold: s.thresholdFor(GateCompression, m)}

	// A guessed reference focal length must never hard-fail the frame.
	if ref.Focal.Soft(s.cfg.SoftConfidence) {
		r.Score = 1.0
		r.Debug = map[string]float64{"soft_pass": 1}
		return r
	}

	diff := math.Abs(float64(obs.Focal.MM - ref.Focal.MM))
	tol := errorTolerance(float64(s.cfg.FocalToleranceMM), m)
	r.Debug = map[string]float64{
		"current_mm":   float64(obs.Focal.MM),
		"reference_mm": float64(ref.Focal.MM),
		"diff_mm":      diff,
	}

	if diff > tol {
		r.Score = geom.Clamp01(1 - diff/focalScoreScale)
		if !r.Pass() {
			zoom := geom.SafeDiv(float64(ref.Focal.MM), float64(obs.Focal.MM), 1.0)
			r.Debug["zoom_ratio"] = zoom
			if zoom > 1 {
				r.Feedback = fmt.Sprintf("zoom in to %.1fx and move back to keep the subject size", zoom)
			} else {
				r.Feedback = fmt.Sprintf("zoom out to %.1fx and move closer to keep the subject size", zoom)
			}
		}
		return r
	}

	// Focal lengths agree. A pure distance mismatch is invisible to the
	// lens comparison, so cross-check the body's vertical span.
	currStruct, currOK := body.ExtractStructure(obs.Keypoints, s.cfg.KeypointMinConfidence)
	refStruct, refOK := body.ExtractStructure(ref.Keypoints, s.cfg.KeypointMinConfidence)
	if !currOK || !refOK {
		r.Score = 1.0
		return r
	}
	spanRatio := geom.SafeDiv(currStruct.VerticalSpan, refStruct.VerticalSpan, 1.0)
	dev := math.Abs(spanRatio - 1)
	r.Score = checkScore(dev, errorTolerance(s.cfg.SpanRatioTolerance, m))
	r.Debug["span_ratio"] = spanRatio
	if !r.Pass() {
		if spanRatio > 1 {
			r.Feedback = "subject too large - move back without zooming"
		} else {
			r.Feedback = "subject too small - move closer without zooming"
		}
	}
	return r
}
