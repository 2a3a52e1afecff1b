package feedback

import (
	"strings"

	"github.com/framewise/framewise/internal/gates"
	"github.com/framewise/framewise/internal/geom"
)

// ProblemKind is the typed cause extracted from a failing gate's feedback
// text.
type ProblemKind int

const (
	ProblemUnknown ProblemKind = iota
	ProblemAspectMismatch
	ProblemNoSubject
	ProblemSubjectTooLarge
	ProblemSubjectTooSmall
	ProblemShotTooTight
	ProblemShotTooWide
	ProblemCroppedEdges
	ProblemOffCenterLeft  // camera must move left
	ProblemOffCenterRight // camera must move right
	ProblemSubjectLow     // camera must tilt down
	ProblemSubjectHigh    // camera must tilt up
	ProblemCameraHigh     // camera must come down
	ProblemCameraLow      // camera must come up
	ProblemNeedZoomIn
	ProblemNeedZoomOut
	ProblemPoseMismatch
)

var problemNames = map[ProblemKind]string{
	ProblemUnknown:         "unknown",
	ProblemAspectMismatch:  "aspect_mismatch",
	ProblemNoSubject:       "no_subject",
	ProblemSubjectTooLarge: "subject_too_large",
	ProblemSubjectTooSmall: "subject_too_small",
	ProblemShotTooTight:    "shot_too_tight",
	ProblemShotTooWide:     "shot_too_wide",
	ProblemCroppedEdges:    "cropped_edges",
	ProblemOffCenterLeft:   "off_center_left",
	ProblemOffCenterRight:  "off_center_right",
	ProblemSubjectLow:      "subject_low",
	ProblemSubjectHigh:     "subject_high",
	ProblemCameraHigh:      "camera_high",
	ProblemCameraLow:       "camera_low",
	ProblemNeedZoomIn:      "need_zoom_in",
	ProblemNeedZoomOut:     "need_zoom_out",
	ProblemPoseMismatch:    "pose_mismatch",
}

func (p ProblemKind) String() string { return problemNames[p] }

// GateProblem is one classified cause with its origin gate and severity.
type GateProblem struct {
	Gate     gates.GateIndex
	Kind     ProblemKind
	Severity float64 // [0,1]
}

// unknownSeverityScale discounts problems whose feedback text matched no
// pattern: a guess should never outrank a classified problem.
const unknownSeverityScale = 0.5

// textPattern maps a feedback-text fragment to a problem kind. Matching
// runs in declaration order and the first hit wins, so the more specific
// fragments come first. Classifying rendered text instead of structured
// diagnostics is fragile, but it decouples the gates' output format from
// this package entirely.
var textPatterns = []struct {
	fragment string
	kind     ProblemKind
}{
	{"switch aspect ratio", ProblemAspectMismatch},
	{"not detected", ProblemNoSubject},
	{"cropped", ProblemCroppedEdges},
	{"tighter than the reference", ProblemShotTooTight},
	{"wider than the reference", ProblemShotTooWide},
	{"lower the camera", ProblemCameraHigh},
	{"raise the camera", ProblemCameraLow},
	{"camera left", ProblemOffCenterLeft},
	{"camera right", ProblemOffCenterRight},
	{"tilt the camera down", ProblemSubjectLow},
	{"tilt the camera up", ProblemSubjectHigh},
	{"zoom in", ProblemNeedZoomIn},
	{"zoom out", ProblemNeedZoomOut},
	{"too large", ProblemSubjectTooLarge},
	{"step back", ProblemSubjectTooLarge},
	{"move back", ProblemSubjectTooLarge},
	{"too small", ProblemSubjectTooSmall},
	{"move closer", ProblemSubjectTooSmall},
	{"too close", ProblemSubjectTooLarge},
}

// classify matches one gate result's feedback text against the pattern
// table. Unmatched text yields a discounted generic problem rather than
// being dropped.
func classify(r gates.Result) GateProblem {
	severity := geom.Clamp01(1 - r.Score)
	if r.Gate == gates.GatePose {
		return GateProblem{Gate: r.Gate, Kind: ProblemPoseMismatch, Severity: severity}
	}
	text := strings.ToLower(r.Feedback)
	for _, p := range textPatterns {
		if strings.Contains(text, p.fragment) {
			return GateProblem{Gate: r.Gate, Kind: p.kind, Severity: severity}
		}
	}
	return GateProblem{Gate: r.Gate, Kind: ProblemUnknown, Severity: severity * unknownSeverityScale}
}

// extractProblems classifies the failing gates listed in include.
func extractProblems(ev gates.Evaluation, include []gates.GateIndex) []GateProblem {
	problems := make([]GateProblem, 0, len(include))
	for _, gi := range include {
		r := ev.Results[gi]
		if r.Pass() {
			continue
		}
		problems = append(problems, classify(r))
	}
	return problems
}
