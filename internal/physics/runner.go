package physics

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Observer is notified after every step the Runner takes; t is the
// world's total simulated time.
type Observer interface {
	OnStep(w *World, t float64)
}

// Runner advances a World at a fixed rate on its own goroutine, independent
// of whoever renders the poses.
type Runner struct {
	world     *World
	hz        int
	observers []Observer

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	stopped bool
}

func NewRunner(w *World, hz int) *Runner {
	return &Runner{world: w, hz: hz}
}

func (r *Runner) AddObserver(o Observer) { r.observers = append(r.observers, o) }

func (r *Runner) dt() float64 { return 1 / float64(r.hz) }

func (r *Runner) validate() error {
	if r.hz <= 0 {
		return fmt.Errorf("step rate must be positive, got %d", r.hz)
	}
	return nil
}

// Start begins stepping until ctx is done or Stop is called. A runner can
// only be started once.
func (r *Runner) Start(ctx context.Context) error {
	if err := r.validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done != nil || r.stopped {
		return fmt.Errorf("runner already started")
	}

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})

	go r.loop(ctx, r.done)
	return nil
}

func (r *Runner) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	dt := r.dt()
	ticker := time.NewTicker(time.Duration(float64(time.Second) * dt))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.world.Step(dt)
			t, _ := r.world.Elapsed()
			for _, o := range r.observers {
				o.OnStep(r.world, t)
			}
		}
	}
}

// Stop halts the stepping goroutine and waits for it to exit. It is safe
// to call more than once and before Start.
func (r *Runner) Stop() {
	r.mu.Lock()
	r.stopped = true
	cancel, done := r.cancel, r.done
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// RunFor steps the world through d of simulated time without waiting on
// the wall clock. Observers see the world's total elapsed time, so
// consecutive calls continue one timeline. It returns the number of steps taken.
func (r *Runner) RunFor(ctx context.Context, d time.Duration) (int, error) {
	if err := r.validate(); err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %s", d)
	}

	dt := r.dt()
	steps := int(d.Seconds() / dt)
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return i, ctx.Err()
		default:
		}
		r.world.Step(dt)
		t, _ := r.world.Elapsed()
		for _, o := range r.observers {
			o.OnStep(r.world, t)
		}
	}
	return steps, nil
}
