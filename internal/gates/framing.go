package gates

import (
	"math"

	"github.com/framewise/framewise/internal/body"
	"github.com/framewise/framewise/internal/geom"
	"github.com/framewise/framewise/internal/margins"
)

// evalFraming is Gate 1: is the subject framed at the same shot tier and
// distance as the reference. Keypoint classification is preferred; a
// sparse detection falls back to box height.
func (s *System) evalFraming(obs Observation, ref Reference, m float64) Result {
	r := Result{Gate: GateFraming, Threshold: s.thresholdFor(GateFraming, m)}

	curr := s.classifyShot(obs)
	r.Debug = map[string]float64{
		"current_shot":   float64(curr),
		"reference_shot": float64(ref.Shot),
	}

	if curr == ref.Shot {
		// Right category. Relative scale catches "right shot, wrong
		// distance": a bust framed twice as tall as the reference bust is
		// still wrong.
		ratio := geom.SafeDiv(obs.Box.Height(), ref.Box.Height(), 1.0)
		dev := math.Abs(ratio - 1)
		r.Score = checkScore(dev, errorTolerance(s.cfg.ScaleTolerance, m))
		r.Debug["scale_ratio"] = ratio
		if !r.Pass() {
			if ratio > 1 {
				r.Feedback = "subject too large - step back"
			} else {
				r.Feedback = "subject too small - move closer"
			}
		}
	} else {
		dist := curr.Distance(ref.Shot)
		r.Score = geom.Clamp01(1 - float64(dist)*s.cfg.ShotDistancePenalty)
		r.Debug["shot_distance"] = float64(dist)
		if !r.Pass() {
			if curr.Wider(ref.Shot) {
				r.Feedback = "framing is wider than the reference - move closer"
			} else {
				r.Feedback = "framing is tighter than the reference - step back"
			}
		}
	}

	// Clipping on two or more edges means no amount of stepping fixes the
	// framing: the subject is simply too close. That message wins.
	if !r.Pass() {
		if mg := margins.Compute(*obs.Box, 1, 1); mg.OutOfFrameCount() >= 2 {
			r.Feedback = "too close - subject cropped at the frame edges"
			r.Debug["edges_clipped"] = float64(mg.OutOfFrameCount())
		}
	}
	return r
}

// classifyShot prefers keypoint tiers and degrades to box height when the
// pose producer returned a sparse set.
func (s *System) classifyShot(obs Observation) body.ShotType {
	if len(obs.Keypoints) >= geom.BodyCount {
		return body.ShotFromKeypoints(obs.Keypoints, s.cfg.KeypointMinConfidence)
	}
	return body.ShotFromBoxHeight(obs.Box.Height())
}
