package feedback

import (
	"sort"

	"github.com/framewise/framewise/internal/gates"
)

// problemActions is the static many-to-many table of plausible corrective
// actions per problem kind. Immutable lookup data, not dispatch.
var problemActions = map[ProblemKind][]Action{
	ProblemSubjectTooLarge: {ActionMoveBack},
	ProblemSubjectTooSmall: {ActionMoveForward},
	ProblemShotTooTight:    {ActionMoveBack, ActionZoomOut},
	ProblemShotTooWide:     {ActionMoveForward, ActionZoomIn},
	ProblemCroppedEdges:    {ActionMoveBack, ActionZoomOut},
	ProblemOffCenterLeft:   {ActionMoveLeft},
	ProblemOffCenterRight:  {ActionMoveRight},
	ProblemSubjectLow:      {ActionTiltDown},
	ProblemSubjectHigh:     {ActionTiltUp},
	ProblemCameraHigh:      {ActionTiltDown, ActionMoveBack},
	ProblemCameraLow:       {ActionTiltUp, ActionMoveBack},
	ProblemNeedZoomIn:      {ActionZoomIn, ActionZoomInMoveBack, ActionZoomInMoveForward},
	ProblemNeedZoomOut:     {ActionZoomOut, ActionZoomOutMoveBack, ActionZoomOutMoveForward},
	// A pattern miss still gets a guess: stepping back widens the view and
	// is the least damaging default.
	ProblemUnknown: {ActionMoveBack},
}

// correlations maps an unordered pair of co-occurring problem kinds to the
// single action that resolves both at once. A correlated hit outranks any
// single-problem candidate.
var correlations = []struct {
	a, b   ProblemKind
	action Action
}{
	{ProblemShotTooWide, ProblemSubjectLow, ActionTiltDown},
	{ProblemShotTooTight, ProblemSubjectHigh, ActionTiltUp},
	{ProblemSubjectTooSmall, ProblemNeedZoomIn, ActionZoomIn},
	{ProblemSubjectTooLarge, ProblemNeedZoomOut, ActionZoomOut},
	{ProblemCroppedEdges, ProblemSubjectTooLarge, ActionMoveBack},
}

// candidate is one scored corrective action under consideration.
type candidate struct {
	action     Action
	resolved   int             // Problems this action addresses
	lowestGate gates.GateIndex // Most fundamental gate touched
	severity   float64         // Summed severity of addressed problems
	correlated bool
}

// enumerate builds the candidate set for a problem list. When excludeZoom
// is set, every zoom-bearing action is dropped so a just-resolved
// compression match is not disturbed.
func enumerate(problems []GateProblem, excludeZoom bool) []candidate {
	byAction := map[Action]*candidate{}
	add := func(a Action, p GateProblem) {
		if excludeZoom && (a.Family() == FamilyZoom || a.Family() == FamilyZoomMove) {
			return
		}
		c, ok := byAction[a]
		if !ok {
			c = &candidate{action: a, lowestGate: p.Gate}
			byAction[a] = c
		}
		c.resolved++
		c.severity += p.Severity
		if p.Gate < c.lowestGate {
			c.lowestGate = p.Gate
		}
	}

	for _, p := range problems {
		for _, a := range problemActions[p.Kind] {
			add(a, p)
		}
	}

	for _, corr := range correlations {
		pa, aOK := findProblem(problems, corr.a)
		pb, bOK := findProblem(problems, corr.b)
		if !aOK || !bOK {
			continue
		}
		if excludeZoom && (corr.action.Family() == FamilyZoom || corr.action.Family() == FamilyZoomMove) {
			continue
		}
		c, ok := byAction[corr.action]
		if !ok {
			c = &candidate{action: corr.action, resolved: 2, lowestGate: minGate(pa.Gate, pb.Gate), severity: pa.Severity + pb.Severity}
			byAction[corr.action] = c
		}
		c.correlated = true
	}

	out := make([]candidate, 0, len(byAction))
	for _, c := range byAction {
		out = append(out, *c)
	}
	return out
}

func findProblem(problems []GateProblem, kind ProblemKind) (GateProblem, bool) {
	for _, p := range problems {
		if p.Kind == kind {
			return p, true
		}
	}
	return GateProblem{}, false
}

func minGate(a, b gates.GateIndex) gates.GateIndex {
	if a < b {
		return a
	}
	return b
}

// pick orders candidates: correlated resolutions first, then most
// problems resolved, then the lowest gate touched, then severity. When
// framing is nearly passing, tilt and pan outrank distance moves so the
// final nudge does not disturb a nearly settled framing.
func pick(cands []candidate, framingNearlyPassing bool) (candidate, bool) {
	if len(cands) == 0 {
		return candidate{}, false
	}
	sort.SliceStable(cands, func(i, j int) bool {
		ci, cj := cands[i], cands[j]
		if ci.correlated != cj.correlated {
			return ci.correlated
		}
		if framingNearlyPassing {
			di := ci.action.Family() == FamilyDistance
			dj := cj.action.Family() == FamilyDistance
			if di != dj {
				return dj
			}
		}
		if ci.resolved != cj.resolved {
			return ci.resolved > cj.resolved
		}
		if ci.lowestGate != cj.lowestGate {
			return ci.lowestGate < cj.lowestGate
		}
		if ci.severity != cj.severity {
			return ci.severity > cj.severity
		}
		// Full tie: candidates arrive in map order, so settle on the
		// action ordinal to keep selection deterministic.
		return ci.action < cj.action
	})
	return cands[0], true
}
