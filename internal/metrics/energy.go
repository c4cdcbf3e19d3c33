package metrics

import (
	"sync"

	"github.com/bamdow/folio/internal/physics"
)

// Energy records the total kinetic energy of the dynamic bodies after
// every step. Value is the most recent sample.
type Energy struct {
	mu      sync.Mutex
	name    string
	limit   int
	samples []float64
	peak    float64
}

// NewEnergy keeps at most limit samples; 0 keeps all of them.
func NewEnergy(limit int) *Energy {
	return &Energy{name: "kinetic_energy", limit: limit}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) OnStep(w *physics.World, t float64) {
	e.Observe(w.KineticEnergy())
}

func (e *Energy) Observe(ke float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.samples = append(e.samples, ke)
	if e.limit > 0 && len(e.samples) > e.limit {
		e.samples = e.samples[len(e.samples)-e.limit:]
	}
	if ke > e.peak {
		e.peak = ke
	}
}

func (e *Energy) Value() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.samples) == 0 {
		return 0
	}
	return e.samples[len(e.samples)-1]
}

func (e *Energy) Peak() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.peak
}

// Series returns a copy of the retained samples, oldest first.
func (e *Energy) Series() []float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]float64, len(e.samples))
	copy(out, e.samples)
	return out
}

func (e *Energy) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.samples = nil
	e.peak = 0
}
