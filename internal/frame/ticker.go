package frame

import (
	"sync"
	"time"
)

// Ticker is a Scheduler driven by the wall clock at a fixed frame rate.
type Ticker struct {
	q    queue
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

var _ Scheduler = (*Ticker)(nil)

// NewTicker starts a frame clock at fps frames per second. Close it to
// release its goroutine.
func NewTicker(fps int) *Ticker {
	if fps <= 0 {
		fps = 60
	}
	t := &Ticker{stop: make(chan struct{}), done: make(chan struct{})}
	go t.loop(time.Second / time.Duration(fps))
	return t
}

func (t *Ticker) loop(interval time.Duration) {
	defer close(t.done)
	tick := time.NewTicker(interval)
	defer tick.Stop()
	for {
		select {
		case <-t.stop:
			return
		case <-tick.C:
			for _, fn := range t.q.drain() {
				fn()
			}
		}
	}
}

func (t *Ticker) RequestFrame(fn func()) Handle { return t.q.add(fn) }
func (t *Ticker) Cancel(h Handle)               { t.q.cancel(h) }

// Close stops the clock and waits for an in-flight frame to finish.
// Pending callbacks never run. Close must not be called from a callback.
func (t *Ticker) Close() {
	t.once.Do(func() { close(t.stop) })
	<-t.done
}
