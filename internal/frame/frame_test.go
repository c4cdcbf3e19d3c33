package frame

import (
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestManualRunsOncePerFrame(t *testing.T) {
	m := NewManual()
	var order []int
	m.RequestFrame(func() { order = append(order, 1) })
	m.RequestFrame(func() { order = append(order, 2) })

	if n := m.Frame(); n != 2 {
		t.Errorf("expected 2 callbacks, got %d", n)
	}
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Errorf("expected request order, got %v", order)
	}
	if n := m.Frame(); n != 0 {
		t.Errorf("expected empty frame, got %d", n)
	}
	if m.Frames() != 2 {
		t.Errorf("expected 2 frames, got %d", m.Frames())
	}
}

func TestManualRescheduleWaitsForNextFrame(t *testing.T) {
	m := NewManual()
	runs := 0
	var loop func()
	loop = func() {
		runs++
		m.RequestFrame(loop)
	}
	m.RequestFrame(loop)

	for i := 0; i < 3; i++ {
		m.Frame()
	}
	if runs != 3 {
		t.Errorf("expected 3 runs, got %d", runs)
	}
	if m.Pending() != 1 {
		t.Errorf("expected 1 pending, got %d", m.Pending())
	}
}

func TestManualCancel(t *testing.T) {
	m := NewManual()
	ran := false
	h := m.RequestFrame(func() { ran = true })
	m.Cancel(h)
	m.Cancel(h)
	m.Frame()
	if ran {
		t.Error("cancelled callback ran")
	}
	if m.Pending() != 0 {
		t.Errorf("expected 0 pending, got %d", m.Pending())
	}
}

func TestTickerRunsAndCloses(t *testing.T) {
	tk := NewTicker(200)
	defer tk.Close()

	done := make(chan struct{})
	tk.RequestFrame(func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("frame never ran")
	}
}

func TestTickerCancelAndClose(t *testing.T) {
	tk := NewTicker(10)
	var ran atomic.Bool
	h := tk.RequestFrame(func() { ran.Store(true) })
	tk.Cancel(h)
	time.Sleep(20 * time.Millisecond)
	tk.Close()
	tk.Close()

	if ran.Load() {
		t.Error("cancelled callback ran")
	}
}
