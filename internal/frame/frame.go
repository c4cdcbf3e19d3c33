// Package frame schedules work on display refreshes.
//
// A callback requested with RequestFrame runs once, on the next frame after
// the request. Callbacks requested while a frame is running wait for the
// following frame, so a callback that re-requests itself runs once per frame.
package frame

import "sync"

// Handle identifies a pending callback.
type Handle uint64

type Scheduler interface {
	RequestFrame(fn func()) Handle
	// Cancel drops a pending callback. Cancelling a handle that already ran
	// or was already cancelled does nothing.
	Cancel(h Handle)
}

// queue is the pending set shared by the schedulers.
type queue struct {
	mu      sync.Mutex
	next    Handle
	pending map[Handle]func()
	order   []Handle
}

func (q *queue) add(fn func()) Handle {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.pending == nil {
		q.pending = make(map[Handle]func())
	}
	q.next++
	q.pending[q.next] = fn
	q.order = append(q.order, q.next)
	return q.next
}

func (q *queue) cancel(h Handle) {
	q.mu.Lock()
	delete(q.pending, h)
	q.mu.Unlock()
}

// drain takes every callback pending at call time, in request order.
func (q *queue) drain() []func() {
	q.mu.Lock()
	defer q.mu.Unlock()
	fns := make([]func(), 0, len(q.order))
	for _, h := range q.order {
		if fn, ok := q.pending[h]; ok {
			fns = append(fns, fn)
			delete(q.pending, h)
		}
	}
	q.order = q.order[:0]
	return fns
}

func (q *queue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
