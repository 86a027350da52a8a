package progress

import "sync"

// Sequencer enforces the pipeline's ordering guarantees on a stream of
// updates: stages only move forward and percent values never decrease.
// Updates that would violate either rule are adjusted, not dropped, so
// observers still see every stage transition.
type Sequencer struct {
	mu          sync.Mutex
	lastStage   Stage
	lastPercent float64
	started     bool
	frozen      bool
}

// NewSequencer returns a Sequencer with no history.
func NewSequencer() *Sequencer {
	return &Sequencer{}
}

// Freeze stops percent values from advancing. Subsequent updates are clamped
// to the last observed percent; they are still delivered so a cancelled run
// can report its final stage.
func (s *Sequencer) Freeze() {
	s.mu.Lock()
	s.frozen = true
	s.mu.Unlock()
}

// Next normalizes a (stage, percent) sample against the history so far and
// records it. A stage that would step backwards is rewritten to the
// furthest stage seen; regressing or frozen percent values are pinned to
// the prior percent.
func (s *Sequencer) Next(stage Stage, percent float64) (Stage, float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started && Index(stage) < Index(s.lastStage) {
		stage = s.lastStage
	} else {
		s.lastStage = stage
	}
	s.started = true

	switch {
	case percent < 0:
		percent = s.lastPercent
	case s.frozen, percent < s.lastPercent:
		percent = s.lastPercent
	default:
		s.lastPercent = percent
	}
	return stage, percent
}

// Percent returns the highest percent observed so far.
func (s *Sequencer) Percent() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastPercent
}
