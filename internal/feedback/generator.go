package feedback

import (
	"math"

	"github.com/framewise/framewise/internal/config"
	"github.com/framewise/framewise/internal/gates"
	"github.com/framewise/framewise/internal/geom"
	"github.com/framewise/framewise/internal/monitoring"
)

// Kind distinguishes the three feedback states the app can render.
type Kind int

const (
	// KindAction is a camera instruction built from Action + Magnitude.
	KindAction Kind = iota
	// KindAspectSwitch asks for an aspect-ratio change and supersedes all
	// other feedback.
	KindAspectSwitch
	// KindNoSubject tells the user to step into frame.
	KindNoSubject
)

// UnifiedFeedback is the single instruction emitted for one frame.
type UnifiedFeedback struct {
	Kind            Kind
	Action          Action
	Magnitude       string
	Text            string
	AffectedGates   []gates.GateIndex
	ExpectedResults []string
	Priority        int // Lowest affected gate index; smaller is more urgent
}

// nearlyPassingMargin is how far below its threshold the framing score
// may sit while distance moves are still demoted in favor of tilt/pan.
const nearlyPassingMargin = 0.1

// sameFocalRatio bounds the zoom ratio treated as "focal lengths agree",
// where a compression failure must have come from the span cross-check.
const sameFocalRatio = 0.05

// Config holds the generator's tunables.
type Config struct {
	CoverageTolerance float64
	StreakCap         int
}

// DefaultConfig returns a generator configuration from the canonical
// tuning defaults file.
func DefaultConfig() Config {
	return ConfigFromTuning(config.MustLoadDefaultConfig())
}

// ConfigFromTuning builds a Config from a loaded TuningConfig.
func ConfigFromTuning(cfg *config.TuningConfig) Config {
	return Config{
		CoverageTolerance: cfg.GetCoverageTolerance(),
		StreakCap:         cfg.GetStreakCap(),
	}
}

// Snapshot carries the per-frame signals the generator needs beyond the
// gate evaluation itself.
type Snapshot struct {
	CurrentFocalMM    int
	ReferenceFocalMM  int
	Coverage          float64 // Subject box area as a fraction of the frame
	ReferenceCoverage float64
	FrontCamera       bool
}

// Generator collapses a gate evaluation into at most one stable
// instruction per frame.
type Generator struct {
	cfg  Config
	stab *Stabilizer
	logf func(format string, v ...interface{})
}

// NewGenerator creates a generator with a fresh stabilizer.
func NewGenerator(cfg Config) *Generator {
	return &Generator{
		cfg:  cfg,
		stab: NewStabilizer(cfg.StreakCap),
		logf: monitoring.Component("Feedback"),
	}
}

// Generate produces the frame's instruction, or nil when every gate
// passes. The result is already temporally stabilized and mirrored for
// the active camera.
func (g *Generator) Generate(ev gates.Evaluation, snap Snapshot) *UnifiedFeedback {
	if ev.AllPassed() {
		g.stab.Reset()
		return nil
	}

	// An aspect mismatch invalidates every other measurement: the frame
	// geometry itself is wrong. It bypasses candidate selection and
	// stabilization alike.
	if r := ev.Results[gates.GateAspectRatio]; !r.Pass() {
		return &UnifiedFeedback{
			Kind:          KindAspectSwitch,
			Text:          r.Feedback,
			AffectedGates: []gates.GateIndex{gates.GateAspectRatio},
		}
	}

	if ev.NoSubject {
		fb := &UnifiedFeedback{
			Kind:          KindNoSubject,
			Text:          gates.NoSubjectFeedback,
			AffectedGates: []gates.GateIndex{gates.GateFraming, gates.GatePosition, gates.GateCompression, gates.GatePose},
			Priority:      int(gates.GateFraming),
		}
		return g.stab.Apply(fb, snap.FrontCamera)
	}

	fresh := g.compute(ev, snap)
	return g.stab.Apply(fresh, snap.FrontCamera)
}

func (g *Generator) compute(ev gates.Evaluation, snap Snapshot) *UnifiedFeedback {
	comp := ev.Results[gates.GateCompression]
	if !comp.Pass() {
		ratio := geom.SafeDiv(float64(snap.ReferenceFocalMM), float64(snap.CurrentFocalMM), 1.0)
		if math.Abs(ratio-1) > sameFocalRatio {
			return g.zoomFeedback(ratio, snap)
		}
		// Focal lengths agree, so the failure came from the span
		// cross-check: treat it like any other extracted problem.
		problems := extractProblems(ev, []gates.GateIndex{gates.GateFraming, gates.GatePosition, gates.GateCompression})
		return g.fromProblems(problems, ev, snap, false)
	}

	// Compression is settled. Zoom actions are off the table so the next
	// nudge cannot reintroduce a focal mismatch.
	problems := extractProblems(ev, []gates.GateIndex{gates.GateFraming, gates.GatePosition})
	return g.fromProblems(problems, ev, snap, true)
}

// zoomFeedback builds the compression correction: the zoom ratio implied
// by the reference lens, compounded with a stance move when the post-zoom
// subject coverage would land visibly off the reference.
func (g *Generator) zoomFeedback(ratio float64, snap Snapshot) *UnifiedFeedback {
	predicted := snap.Coverage * ratio * ratio
	dev := math.Abs(geom.SafeDiv(predicted-snap.ReferenceCoverage, snap.ReferenceCoverage, 0))

	var action Action
	switch {
	case dev <= g.cfg.CoverageTolerance:
		if ratio > 1 {
			action = ActionZoomIn
		} else {
			action = ActionZoomOut
		}
	case predicted > snap.ReferenceCoverage:
		if ratio > 1 {
			action = ActionZoomInMoveBack
		} else {
			action = ActionZoomOutMoveBack
		}
	default:
		if ratio > 1 {
			action = ActionZoomInMoveForward
		} else {
			action = ActionZoomOutMoveForward
		}
	}

	mag := zoomMagnitude(ratio)
	g.logf("zoom ratio %.2f predicted coverage %.3f reference %.3f action %s", ratio, predicted, snap.ReferenceCoverage, action)
	return g.finish(action, mag, snap)
}

func (g *Generator) fromProblems(problems []GateProblem, ev gates.Evaluation, snap Snapshot, excludeZoom bool) *UnifiedFeedback {
	if len(problems) == 0 {
		return nil
	}
	framing := ev.Results[gates.GateFraming]
	nearly := framing.Score >= framing.Threshold-nearlyPassingMargin

	cands := enumerate(problems, excludeZoom)
	best, ok := pick(cands, nearly)
	if !ok {
		return nil
	}

	severity := math.Min(1, best.severity)
	mag := magnitude(best.action, severity)
	g.logf("picked %s from %d problems (resolved %d, severity %.2f)", best.action, len(problems), best.resolved, severity)
	return g.finish(best.action, mag, snap)
}

// finish mirrors the action for the front camera and assembles the final
// feedback value.
func (g *Generator) finish(action Action, mag string, snap Snapshot) *UnifiedFeedback {
	if snap.FrontCamera && action.MirrorsHorizontally() {
		action = action.Mirrored()
	}
	affected := action.ResolvesGates()
	expected := make([]string, 0, len(affected))
	priority := int(gates.GatePose)
	for _, gi := range affected {
		expected = append(expected, "improves "+gi.String())
		if int(gi) < priority {
			priority = int(gi)
		}
	}
	return &UnifiedFeedback{
		Kind:            KindAction,
		Action:          action,
		Magnitude:       mag,
		Text:            action.Instruction(mag),
		AffectedGates:   affected,
		ExpectedResults: expected,
		Priority:        priority,
	}
}
