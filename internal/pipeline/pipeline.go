// Package pipeline turns asynchronous per-frame signals (pose, detector,
// depth/metadata) into one gate evaluation and at most one instruction
// per frame. Evaluations never interleave: the stabilizer inside the
// feedback generator is shared mutable state, so frames run one at a
// time with a latest-wins slot for whatever arrives mid-evaluation.
package pipeline

import (
	"sync"
	"time"

	"github.com/framewise/framewise/internal/config"
	"github.com/framewise/framewise/internal/feedback"
	"github.com/framewise/framewise/internal/focal"
	"github.com/framewise/framewise/internal/gates"
	"github.com/framewise/framewise/internal/geom"
	"github.com/framewise/framewise/internal/monitoring"
)

// Signals is the assembled input of one frame. Pose and detection are
// required before evaluation; depth and metadata enrich the focal
// estimate when present.
type Signals struct {
	Seq       uint64
	Timestamp time.Time

	Keypoints []geom.Keypoint
	Pose      *gates.PoseReport

	Box *geom.BoundingBox

	Metadata focal.Metadata
	Depth    *focal.DepthGrid
}

// frameSlot tracks which producers have reported for a sequence number.
type frameSlot struct {
	sig      Signals
	poseIn   bool
	detectIn bool
}

// FrameResult is the committed output of one frame.
type FrameResult struct {
	Seq        uint64
	Timestamp  time.Time
	Evaluation gates.Evaluation
	Focal      focal.Info
	Feedback   *feedback.UnifiedFeedback
}

// Engine owns the whole evaluation path for one camera session.
type Engine struct {
	gates     *gates.System
	estimator *focal.Estimator
	generator *feedback.Generator
	logf      func(format string, v ...interface{})

	mu            sync.Mutex
	slots         map[uint64]*frameSlot
	inFlight      bool
	queued        *Signals // Latest-wins slot while an evaluation runs
	lastCommitted uint64
	committedAny  bool

	ref         *gates.Reference
	refCoverage float64
	aspectRatio float64
	frontCamera bool
	onResult    func(FrameResult)
}

// NewEngine builds an engine from a loaded tuning configuration.
func NewEngine(cfg *config.TuningConfig) *Engine {
	return &Engine{
		gates:     gates.NewSystem(gates.SystemConfigFromTuning(cfg)),
		estimator: focal.NewEstimator(focal.EstimatorConfigFromTuning(cfg)),
		generator: feedback.NewGenerator(feedback.ConfigFromTuning(cfg)),
		logf:      monitoring.Component("Pipeline"),
		slots:     map[uint64]*frameSlot{},
	}
}

// SetOutput registers the per-frame result callback. The callback runs on
// the evaluating goroutine; keep it cheap.
func (e *Engine) SetOutput(fn func(FrameResult)) {
	e.mu.Lock()
	e.onResult = fn
	e.mu.Unlock()
}

// SetReference installs the reference snapshot. Cached once; read-only
// per frame.
func (e *Engine) SetReference(ref gates.Reference) {
	e.mu.Lock()
	e.ref = &ref
	e.refCoverage = ref.Box.Area()
	e.mu.Unlock()
	e.logf("reference set: shot=%s focal=%dmm(%s)", ref.Shot, ref.Focal.MM, ref.Focal.Source)
}

// SetAspectRatio records the camera's current aspect-ratio selection.
func (e *Engine) SetAspectRatio(ratio float64) {
	e.mu.Lock()
	e.aspectRatio = ratio
	e.mu.Unlock()
}

// SetCameraFacing switches between rear and front camera. Pending partial
// frames are dropped; the stabilizer resets on its next application.
func (e *Engine) SetCameraFacing(front bool) {
	e.mu.Lock()
	if e.frontCamera != front {
		e.frontCamera = front
		e.slots = map[uint64]*frameSlot{}
		e.queued = nil
	}
	e.mu.Unlock()
}

// SetDifficulty forwards the adaptive-difficulty multiplier to the gate
// system.
func (e *Engine) SetDifficulty(m float64) {
	e.gates.SetDifficulty(m)
}

// SubmitPose delivers a frame's keypoints and pose-similarity report.
func (e *Engine) SubmitPose(seq uint64, ts time.Time, kps []geom.Keypoint, report *gates.PoseReport) {
	e.submit(seq, ts, func(s *frameSlot) {
		s.sig.Keypoints = kps
		s.sig.Pose = report
		s.poseIn = true
	})
}

// SubmitDetection delivers a frame's subject bounding box; nil means no
// subject was detected.
func (e *Engine) SubmitDetection(seq uint64, ts time.Time, box *geom.BoundingBox) {
	e.submit(seq, ts, func(s *frameSlot) {
		s.sig.Box = box
		s.detectIn = true
	})
}

// SubmitDepth delivers a frame's capture metadata and depth grid. Both
// are optional enrichments of the focal estimate and never gate the
// frame's evaluation.
func (e *Engine) SubmitDepth(seq uint64, ts time.Time, meta focal.Metadata, grid *focal.DepthGrid) {
	e.submit(seq, ts, func(s *frameSlot) {
		s.sig.Metadata = meta
		s.sig.Depth = grid
	})
}

func (e *Engine) submit(seq uint64, ts time.Time, fill func(*frameSlot)) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.committedAny && seq <= e.lastCommitted {
		debugf("frame %d: signal older than committed frame %d, dropped", seq, e.lastCommitted)
		return
	}

	slot, ok := e.slots[seq]
	if !ok {
		slot = &frameSlot{sig: Signals{Seq: seq, Timestamp: ts}}
		e.slots[seq] = slot
	}
	fill(slot)

	if !slot.poseIn || !slot.detectIn {
		return
	}
	delete(e.slots, seq)
	e.dispatchLocked(slot.sig)
}

// dispatchLocked starts an evaluation or parks the signals in the
// latest-wins slot. Caller holds e.mu.
func (e *Engine) dispatchLocked(sig Signals) {
	if e.inFlight {
		if e.queued == nil || sig.Seq > e.queued.Seq {
			if e.queued != nil {
				debugf("frame %d: displaced by %d in pending slot", e.queued.Seq, sig.Seq)
			}
			s := sig
			e.queued = &s
		}
		return
	}
	e.inFlight = true
	go e.run(sig)
}

func (e *Engine) run(sig Signals) {
	for {
		e.evaluate(sig)

		e.mu.Lock()
		if e.queued == nil {
			e.inFlight = false
			e.mu.Unlock()
			return
		}
		sig = *e.queued
		e.queued = nil
		e.mu.Unlock()
	}
}

func (e *Engine) evaluate(sig Signals) {
	e.mu.Lock()
	ref := e.ref
	aspect := e.aspectRatio
	front := e.frontCamera
	refCoverage := e.refCoverage
	e.mu.Unlock()

	if ref == nil {
		debugf("frame %d: no reference installed, skipped", sig.Seq)
		return
	}

	fi := e.estimator.Estimate(sig.Metadata, sig.Depth, depthRegion(sig))
	obs := gates.Observation{
		Box:         sig.Box,
		Keypoints:   sig.Keypoints,
		AspectRatio: aspect,
		Focal:       fi,
		Pose:        sig.Pose,
	}
	ev := e.gates.Evaluate(obs, *ref)

	// Commit before touching the stabilizer: a stale frame must never
	// move cross-frame state after a newer one has.
	e.mu.Lock()
	if e.committedAny && sig.Seq <= e.lastCommitted {
		e.mu.Unlock()
		debugf("frame %d: finished after frame %d committed, discarded", sig.Seq, e.lastCommitted)
		return
	}
	e.lastCommitted = sig.Seq
	e.committedAny = true
	// Partial slots the commit just made stale would otherwise sit in the
	// map forever: their completing signal is refused on arrival.
	for seq := range e.slots {
		if seq <= e.lastCommitted {
			delete(e.slots, seq)
		}
	}
	out := e.onResult
	e.mu.Unlock()

	coverage := 0.0
	if sig.Box != nil {
		coverage = sig.Box.Area()
	}
	fb := e.generator.Generate(ev, feedback.Snapshot{
		CurrentFocalMM:    fi.MM,
		ReferenceFocalMM:  ref.Focal.MM,
		Coverage:          coverage,
		ReferenceCoverage: refCoverage,
		FrontCamera:       front,
	})

	debugf("frame %d: mean=%.2f allPass=%v feedback=%v", sig.Seq, ev.MeanScore(), ev.AllPassed(), fb != nil)
	if out != nil {
		out(FrameResult{
			Seq:        sig.Seq,
			Timestamp:  sig.Timestamp,
			Evaluation: ev,
			Focal:      fi,
			Feedback:   fb,
		})
	}
}

// depthRegion projects the subject box into depth-grid coordinates for
// the foreground band.
func depthRegion(sig Signals) *focal.DepthRegion {
	if sig.Depth == nil || sig.Box == nil {
		return nil
	}
	g := sig.Depth
	return &focal.DepthRegion{
		MinRow: int(sig.Box.MinY * float64(g.Rows)),
		MaxRow: int(sig.Box.MaxY * float64(g.Rows)),
		MinCol: int(sig.Box.MinX * float64(g.Cols)),
		MaxCol: int(sig.Box.MaxX * float64(g.Cols)),
	}
}
