package pipeline

import (
	"errors"

	"github.com/framewise/framewise/internal/body"
	"github.com/framewise/framewise/internal/config"
	"github.com/framewise/framewise/internal/focal"
	"github.com/framewise/framewise/internal/gates"
	"github.com/framewise/framewise/internal/geom"
)

// ErrNoReferenceSubject reports a reference capture without a usable
// subject box.
var ErrNoReferenceSubject = errors.New("reference frame has no subject")

// BuildReference assembles a reference snapshot from one captured
// frame's signals: the shot category from keypoints (box height when the
// pose is sparse), the focal length from the estimation chain, and the
// raw geometry the gates compare against.
func BuildReference(cfg *config.TuningConfig, sig Signals, aspectRatio float64) (gates.Reference, error) {
	if sig.Box == nil || !sig.Box.Valid() {
		return gates.Reference{}, ErrNoReferenceSubject
	}

	minConf := cfg.GetKeypointMinConfidence()
	var shot body.ShotType
	if len(sig.Keypoints) >= geom.BodyCount {
		shot = body.ShotFromKeypoints(sig.Keypoints, minConf)
	} else {
		shot = body.ShotFromBoxHeight(sig.Box.Height())
	}

	est := focal.NewEstimator(focal.EstimatorConfigFromTuning(cfg))
	fi := est.Estimate(sig.Metadata, sig.Depth, depthRegion(sig))

	return gates.Reference{
		Box:         *sig.Box,
		Keypoints:   sig.Keypoints,
		Shot:        shot,
		Focal:       fi,
		AspectRatio: aspectRatio,
	}, nil
}
