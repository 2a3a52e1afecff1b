package gates

import (
	"fmt"
	"math"

	"github.com/framewise/framewise/internal/body"
	"github.com/framewise/framewise/internal/geom"
	"github.com/framewise/framewise/internal/margins"
)

// evalPosition is Gate 2: is the subject placed where the reference puts
// it. Keypoint alignment is preferred, margin comparison is the fallback,
// and an absolute rule-of-thirds check covers the no-reference case.
func (s *System) evalPosition(obs Observation, ref Reference, m float64) Result {
	r := Result{Gate: GatePosition, Threshold: s.thresholdFor(GatePosition, m)}

	currStruct, currOK := body.ExtractStructure(obs.Keypoints, s.cfg.KeypointMinConfidence)
	refStruct, refOK := body.ExtractStructure(ref.Keypoints, s.cfg.KeypointMinConfidence)

	switch {
	case currOK && refOK:
		s.positionFromStructure(&r, currStruct, refStruct, m)
	case ref.Box.Valid():
		s.positionFromMargins(&r, obs, ref)
	default:
		s.positionFromThirds(&r, obs)
	}
	return r
}

// positionCheck is one independently thresholded alignment dimension.
type positionCheck struct {
	name     string
	dev      float64 // Measured deviation
	tol      float64 // Accepted deviation
	feedback func(signed float64) string
	signed   float64 // Deviation with direction preserved
}

// positionFromStructure scores three independent alignment checks:
// horizontal centroid offset, vertical span ratio, and top-anchor height.
// The worst violation sets the score and the feedback.
func (s *System) positionFromStructure(r *Result, curr, ref body.Structure, m float64) {
	centroidOff := curr.CentroidX - ref.CentroidX
	spanRatio := geom.SafeDiv(curr.VerticalSpan, ref.VerticalSpan, 1.0)
	anchorOff := curr.TopAnchorY - ref.TopAnchorY

	checks := []positionCheck{
		{
			name:   "centroid_offset",
			dev:    math.Abs(centroidOff),
			tol:    errorTolerance(s.cfg.CentroidOffsetTolerance, m),
			signed: centroidOff,
			feedback: func(signed float64) string {
				steps := margins.StepsForPercent(math.Abs(signed) * 100)
				if signed > 0 {
					return fmt.Sprintf("move the camera right by %s", steps)
				}
				return fmt.Sprintf("move the camera left by %s", steps)
			},
		},
		{
			name:   "span_ratio",
			dev:    math.Abs(spanRatio - 1),
			tol:    errorTolerance(s.cfg.SpanRatioTolerance, m),
			signed: spanRatio - 1,
			feedback: func(signed float64) string {
				if signed > 0 {
					return "subject too large - step back"
				}
				return "subject too small - move closer"
			},
		},
		{
			name:   "top_anchor",
			dev:    math.Abs(anchorOff),
			tol:    errorTolerance(s.cfg.TopAnchorTolerance, m),
			signed: anchorOff,
			feedback: func(signed float64) string {
				deg := margins.TiltDegrees(math.Abs(signed) * 100)
				if signed > 0 {
					// Head rides low: aim lower to lift the subject in frame.
					return fmt.Sprintf("tilt the camera down %d degrees", deg)
				}
				return fmt.Sprintf("tilt the camera up %d degrees", deg)
			},
		},
	}

	r.Score = 1.0
	r.Debug = map[string]float64{}
	worst := -1
	for i, c := range checks {
		r.Debug[c.name] = c.signed
		score := checkScore(c.dev, c.tol)
		if score < r.Score {
			r.Score = score
			worst = i
		}
	}
	if !r.Pass() && worst >= 0 {
		r.Feedback = checks[worst].feedback(checks[worst].signed)
	}
}

// checkScore converts a deviation into a score that degrades linearly
// past the tolerance: exactly at tolerance scores 1.0, twice the
// tolerance scores 0.
func checkScore(dev, tol float64) float64 {
	if tol <= 0 {
		return 0
	}
	return geom.Clamp01(1 - math.Max(0, dev-tol)/tol)
}

func (s *System) positionFromMargins(r *Result, obs Observation, ref Reference) {
	curr := margins.Compute(*obs.Box, 1, 1)
	refM := margins.Compute(ref.Box, 1, 1)
	an := s.margins.Evaluate(curr, refM)
	r.Score = geom.Clamp01(an.Score)
	r.Debug = map[string]float64{
		"margin_score":       an.Score,
		"horizontal_balance": an.Horizontal.CurrentBalance,
		"vertical_position":  an.Vertical.CurrentPosition,
	}
	if !r.Pass() {
		r.Feedback = an.Describe()
	}
}

// thirdsAnchors are the horizontal positions a subject can sit at without
// a reference: either thirds line or dead center.
var thirdsAnchors = []float64{1.0 / 3.0, 0.5, 2.0 / 3.0}

func (s *System) positionFromThirds(r *Result, obs Observation) {
	cx := obs.Box.CenterX()
	best := math.Inf(1)
	nearest := 0.5
	for _, a := range thirdsAnchors {
		if d := math.Abs(cx - a); d < best {
			best, nearest = d, a
		}
	}
	// A sixth of the frame separates adjacent anchors; normalize so that
	// the midpoint between anchors scores zero.
	r.Score = geom.Clamp01(1 - best*6)
	r.Debug = map[string]float64{"thirds_distance": best}
	if !r.Pass() {
		if cx > nearest {
			r.Feedback = "move the camera right by half a step"
		} else {
			r.Feedback = "move the camera left by half a step"
		}
	}
}
