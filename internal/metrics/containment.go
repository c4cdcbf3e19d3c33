package metrics

import (
	"sync"

	"github.com/bamdow/folio/internal/physics"
)

// Containment is the fraction of steps in which every body centre stayed
// between the walls and above the floor.
type Containment struct {
	mu         sync.Mutex
	name       string
	violations int
	samples    int
}

func NewContainment() *Containment {
	return &Containment{name: "containment"}
}

func (c *Containment) Name() string { return c.name }

func (c *Containment) OnStep(w *physics.World, t float64) {
	width, height := w.Bounds()
	c.Observe(w.Poses(), width, height)
}

func (c *Containment) Observe(poses []physics.Pose, width, height float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.samples++
	for _, p := range poses {
		if p.X < 0 || p.X > width || p.Y > height {
			c.violations++
			break
		}
	}
}

func (c *Containment) Value() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(c.violations)/float64(c.samples)
}

func (c *Containment) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.violations = 0
	c.samples = 0
}
