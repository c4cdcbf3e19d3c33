package physics

import (
	"context"
	"sync"
	"testing"
	"time"
)

type countingObserver struct {
	mu    sync.Mutex
	steps int
	last  float64
}

func (o *countingObserver) OnStep(w *World, t float64) {
	o.mu.Lock()
	o.steps++
	o.last = t
	o.mu.Unlock()
}

func (o *countingObserver) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.steps
}

func TestRunnerRunFor(t *testing.T) {
	w := NewWorld(testOptions())
	r := NewRunner(w, 60)
	obs := &countingObserver{}
	r.AddObserver(obs)

	steps, err := r.RunFor(context.Background(), time.Second)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if steps != 60 || obs.count() != 60 {
		t.Errorf("expected 60 steps, got %d (observed %d)", steps, obs.count())
	}
	if _, n := w.Elapsed(); n != 60 {
		t.Errorf("expected world to take 60 steps, got %d", n)
	}
}

func TestRunnerInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		hz   int
		d    time.Duration
	}{
		{"zero rate", 0, time.Second},
		{"negative rate", -1, time.Second},
		{"zero duration", 60, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRunner(NewWorld(testOptions()), tt.hz)
			if _, err := r.RunFor(context.Background(), tt.d); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestRunnerRunForCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRunner(NewWorld(testOptions()), 60)
	steps, err := r.RunFor(ctx, time.Second)
	if err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if steps != 0 {
		t.Errorf("expected 0 steps, got %d", steps)
	}
}

func TestRunnerStartStop(t *testing.T) {
	w := NewWorld(testOptions())
	r := NewRunner(w, 200)
	obs := &countingObserver{}
	r.AddObserver(obs)

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := r.Start(context.Background()); err == nil {
		t.Error("expected second start to fail")
	}

	deadline := time.Now().Add(2 * time.Second)
	for obs.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if obs.count() == 0 {
		t.Fatal("runner never stepped")
	}

	r.Stop()
	r.Stop()

	after := obs.count()
	time.Sleep(30 * time.Millisecond)
	if obs.count() != after {
		t.Errorf("runner stepped after Stop: %d -> %d", after, obs.count())
	}
}

func TestRunnerStopBeforeStart(t *testing.T) {
	r := NewRunner(NewWorld(testOptions()), 60)
	r.Stop()
	if err := r.Start(context.Background()); err == nil {
		t.Error("expected start after stop to fail")
	}
}
