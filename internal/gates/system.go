package gates

import (
	"fmt"
	"sync"

	"github.com/framewise/framewise/internal/config"
	"github.com/framewise/framewise/internal/geom"
	"github.com/framewise/framewise/internal/margins"
)

// NoSubjectFeedback is the shared message for frames without a usable
// subject box. It replaces per-gate feedback so the app never renders a
// blank or stale instruction.
const NoSubjectFeedback = "subject not detected - step into frame"

// SystemConfig holds every gate threshold and tolerance. Score-type
// thresholds loosen when divided by a difficulty multiplier above 1;
// error-type tolerances loosen when multiplied by it.
type SystemConfig struct {
	KeypointMinConfidence float64
	MinSubjectBoxArea     float64

	FramingThreshold     float64
	PositionThreshold    float64
	CompressionThreshold float64
	PoseThreshold        float64

	ScaleTolerance          float64 // Framing: same shot, wrong distance
	ShotDistancePenalty     float64 // Framing: per-tier ordinal penalty
	CentroidOffsetTolerance float64 // Position: horizontal drift
	SpanRatioTolerance      float64 // Position + compression cross-check
	TopAnchorTolerance      float64 // Position: vertical tilt proxy
	FocalToleranceMM        int     // Compression
	SoftConfidence          float64 // Compression: soft-pass floor
	PoseAngleThresholdDeg   float64 // Pose: per-joint report floor

	Margins margins.AnalyzerConfig
}

// DefaultSystemConfig returns a gate configuration from the canonical
// tuning defaults file.
func DefaultSystemConfig() SystemConfig {
	return SystemConfigFromTuning(config.MustLoadDefaultConfig())
}

// SystemConfigFromTuning builds a SystemConfig from a loaded TuningConfig.
func SystemConfigFromTuning(cfg *config.TuningConfig) SystemConfig {
	return SystemConfig{
		KeypointMinConfidence:   cfg.GetKeypointMinConfidence(),
		MinSubjectBoxArea:       cfg.GetMinSubjectBoxArea(),
		FramingThreshold:        cfg.GetFramingThreshold(),
		PositionThreshold:       cfg.GetPositionThreshold(),
		CompressionThreshold:    cfg.GetCompressionThreshold(),
		PoseThreshold:           cfg.GetPoseThreshold(),
		ScaleTolerance:          cfg.GetScaleTolerance(),
		ShotDistancePenalty:     cfg.GetShotDistancePenalty(),
		CentroidOffsetTolerance: cfg.GetCentroidOffsetTolerance(),
		SpanRatioTolerance:      cfg.GetSpanRatioTolerance(),
		TopAnchorTolerance:      cfg.GetTopAnchorTolerance(),
		FocalToleranceMM:        cfg.GetFocalToleranceMM(),
		SoftConfidence:          cfg.GetSoftConfidence(),
		PoseAngleThresholdDeg:   cfg.GetPoseAngleThresholdDeg(),
		Margins:                 margins.AnalyzerConfigFromTuning(cfg),
	}
}

// System evaluates the five gates. Safe for concurrent reads; the
// difficulty multiplier is the only mutable state.
type System struct {
	cfg     SystemConfig
	margins *margins.Analyzer

	mu         sync.Mutex
	difficulty float64
}

// NewSystem creates a gate system at difficulty 1.0.
func NewSystem(cfg SystemConfig) *System {
	return &System{
		cfg:        cfg,
		margins:    margins.NewAnalyzer(cfg.Margins),
		difficulty: 1.0,
	}
}

// SetDifficulty replaces the global difficulty multiplier. Values above 1
// loosen every non-aspect gate; values in (0,1) tighten them.
// Non-positive values reset to 1.
func (s *System) SetDifficulty(m float64) {
	if m <= 0 {
		m = 1.0
	}
	s.mu.Lock()
	s.difficulty = m
	s.mu.Unlock()
}

// Difficulty returns the current multiplier.
func (s *System) Difficulty() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.difficulty
}

// scoreThreshold scales a score-type threshold by the difficulty
// multiplier. Dividing loosens the bar when the multiplier exceeds 1.
func (s *System) scoreThreshold(base, m float64) float64 {
	return geom.Clamp01(base / m)
}

// errorTolerance scales an error-type tolerance. Multiplying widens the
// accepted error band when the multiplier exceeds 1.
func errorTolerance(base, m float64) float64 {
	return base * m
}

// Evaluate scores one frame against the reference. It is a pure function
// of its inputs and the current difficulty.
func (s *System) Evaluate(obs Observation, ref Reference) Evaluation {
	m := s.Difficulty()

	var ev Evaluation
	ev.Results[GateAspectRatio] = s.evalAspect(obs, ref)

	if !s.subjectPresent(obs) {
		ev.NoSubject = true
		for i := GateFraming; i <= GatePose; i++ {
			ev.Results[i] = Result{
				Gate:      i,
				Score:     0,
				Threshold: s.thresholdFor(i, m),
				Feedback:  NoSubjectFeedback,
			}
		}
		return ev
	}

	ev.Results[GateFraming] = s.evalFraming(obs, ref, m)
	ev.Results[GatePosition] = s.evalPosition(obs, ref, m)
	ev.Results[GateCompression] = s.evalCompression(obs, ref, m)
	ev.Results[GatePose] = s.evalPose(obs, m)
	return ev
}

func (s *System) subjectPresent(obs Observation) bool {
	if obs.Box == nil || !obs.Box.Valid() {
		return false
	}
	return obs.Box.Area() >= s.cfg.MinSubjectBoxArea
}

func (s *System) thresholdFor(g GateIndex, m float64) float64 {
	switch g {
	case GateFraming:
		return s.scoreThreshold(s.cfg.FramingThreshold, m)
	case GatePosition:
		return s.scoreThreshold(s.cfg.PositionThreshold, m)
	case GateCompression:
		return s.scoreThreshold(s.cfg.CompressionThreshold, m)
	case GatePose:
		return s.scoreThreshold(s.cfg.PoseThreshold, m)
	default:
		return 1.0
	}
}

// evalAspect is Gate 0: a binary match against the reference aspect
// ratio. The difficulty multiplier never touches it.
func (s *System) evalAspect(obs Observation, ref Reference) Result {
	r := Result{Gate: GateAspectRatio, Threshold: 1.0}
	if geom.AspectRatiosMatch(obs.AspectRatio, ref.AspectRatio) {
		r.Score = 1.0
		return r
	}
	r.Score = 0.0
	r.Feedback = fmt.Sprintf("switch aspect ratio to %s", geom.AspectRatioName(ref.AspectRatio))
	return r
}
