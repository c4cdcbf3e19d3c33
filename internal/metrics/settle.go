package metrics

import (
	"sync"

	"github.com/bamdow/folio/internal/physics"
)

// Settle measures how long a pile takes to come to rest: the simulated
// time after which kinetic energy stays below threshold for hold seconds.
// Value is -1 until that has happened.
type Settle struct {
	mu        sync.Mutex
	name      string
	threshold float64
	hold      float64
	calmSince float64
	calm      bool
	settledAt float64
	settled   bool
}

func NewSettle(threshold, hold float64) *Settle {
	return &Settle{name: "settle_time", threshold: threshold, hold: hold}
}

func (s *Settle) Name() string { return s.name }

func (s *Settle) OnStep(w *physics.World, t float64) {
	s.Observe(w.KineticEnergy(), t)
}

func (s *Settle) Observe(ke, t float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.settled {
		return
	}
	if ke >= s.threshold {
		s.calm = false
		return
	}
	if !s.calm {
		s.calm = true
		s.calmSince = t
	}
	if t-s.calmSince >= s.hold {
		s.settled = true
		s.settledAt = s.calmSince
	}
}

func (s *Settle) Settled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settled
}

func (s *Settle) Value() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.settled {
		return -1
	}
	return s.settledAt
}

func (s *Settle) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calm, s.settled = false, false
	s.calmSince, s.settledAt = 0, 0
}
