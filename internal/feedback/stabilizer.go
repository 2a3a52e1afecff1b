package feedback

import (
	"sync"
)

// Stabilizer keeps the emitted instruction from flickering between
// frames. It is the only cross-frame state in the evaluation path and is
// owned by its Generator, never shared.
type Stabilizer struct {
	mu        sync.Mutex
	streakCap int

	last   *UnifiedFeedback
	streak int
	front  bool
}

// NewStabilizer creates a stabilizer with the given streak cap. The cap
// bounds how long a held instruction can suppress a differing fresh one.
func NewStabilizer(streakCap int) *Stabilizer {
	if streakCap < 1 {
		streakCap = 1
	}
	return &Stabilizer{streakCap: streakCap}
}

// Reset drops all held state. Called when every gate passes.
func (s *Stabilizer) Reset() {
	s.mu.Lock()
	s.last = nil
	s.streak = 0
	s.mu.Unlock()
}

// Apply reconciles a freshly computed feedback with the held one:
//   - a camera-facing switch resets immediately
//   - a family change switches to the fresh instruction immediately
//   - the same action updates only its magnitude
//   - a differing action within the same family is suppressed until the
//     streak cap forces a recomputation
func (s *Stabilizer) Apply(fresh *UnifiedFeedback, frontCamera bool) *UnifiedFeedback {
	s.mu.Lock()
	defer s.mu.Unlock()

	if frontCamera != s.front {
		s.front = frontCamera
		s.last = nil
		s.streak = 0
	}

	if fresh == nil {
		s.last = nil
		s.streak = 0
		return nil
	}
	if fresh.Kind != KindAction || (s.last != nil && s.last.Kind != KindAction) {
		// Aspect and no-subject states pass through untouched.
		return s.adopt(fresh)
	}
	if s.last == nil {
		return s.adopt(fresh)
	}

	switch {
	case fresh.Action.Family() != s.last.Action.Family():
		return s.adopt(fresh)
	case fresh.Action == s.last.Action:
		s.streak++
		s.last = fresh
		return fresh
	default:
		s.streak++
		if s.streak >= s.streakCap {
			return s.adopt(fresh)
		}
		return s.last
	}
}

func (s *Stabilizer) adopt(fresh *UnifiedFeedback) *UnifiedFeedback {
	s.last = fresh
	s.streak = 1
	return fresh
}
