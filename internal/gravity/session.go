package gravity

import (
	"context"
	"sync"
	"time"

	"github.com/jakecoffman/cp/v2"

	"github.com/bamdow/folio/internal/dom"
	"github.com/bamdow/folio/internal/frame"
	"github.com/bamdow/folio/internal/physics"
)

type binding struct {
	id  physics.BodyID
	pin Pinned
}

// Body is a collider's current simulated state next to its pinned box.
type Body struct {
	Ref  string
	Pin  dom.Rect
	Pose physics.Pose
}

// Session is one gravity episode, from trigger to restore.
type Session struct {
	snap     *Snapshot
	bindings []binding

	// tickMu serialises frame ticks against stop so that no tick writes a
	// transform once the session is stopped.
	tickMu  sync.Mutex
	alive   bool
	world   *physics.World
	runner  *physics.Runner
	frames  frame.Scheduler
	pending frame.Handle

	ctx            context.Context
	cancel         context.CancelFunc
	armTimer       *time.Timer
	removeListener func()
	done           chan struct{}
	stopped        bool
}

func (s *Session) Snapshot() *Snapshot { return s.snap }

// World returns the live world, or nil once the session is stopped.
func (s *Session) World() *physics.World {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()
	return s.world
}

func (s *Session) Alive() bool {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()
	return s.alive
}

// Done is closed once the page has been restored.
func (s *Session) Done() <-chan struct{} { return s.done }

// Tick mirrors every body's pose onto its element as a transform relative
// to the pinned centre. It does nothing once the session is stopped.
func (s *Session) Tick(ctx context.Context, doc dom.Document) error {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()
	if !s.alive {
		return nil
	}

	updates := make([]dom.StyleUpdate, 0, len(s.bindings))
	for _, b := range s.bindings {
		pose, ok := s.world.Pose(b.id)
		if !ok {
			continue
		}
		cx, cy := b.pin.Center()
		updates = append(updates, dom.StyleUpdate{Ref: b.pin.Ref, Decls: []dom.Decl{
			{Property: "transform", Value: dom.Transform(pose.X-cx, pose.Y-cy, pose.Angle)},
		}})
	}
	if len(updates) == 0 {
		return nil
	}
	return doc.SetStyles(ctx, updates)
}

// Bodies returns the colliders' current poses, or nil once stopped.
func (s *Session) Bodies() []Body {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()
	if !s.alive {
		return nil
	}
	out := make([]Body, 0, len(s.bindings))
	for _, b := range s.bindings {
		if pose, ok := s.world.Pose(b.id); ok {
			out = append(out, Body{Ref: b.pin.Ref, Pin: b.pin.Rect, Pose: pose})
		}
	}
	return out
}

// push applies the repulsion law for a pointer-down at p to every body.
func (s *Session) push(p dom.Point, radius, k float64) []Kick {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()
	if !s.alive {
		return nil
	}

	pointer := cp.Vector{X: p.X, Y: p.Y}
	var kicks []Kick
	for _, b := range s.bindings {
		pose, ok := s.world.Pose(b.id)
		if !ok {
			continue
		}
		center := cp.Vector{X: pose.X, Y: pose.Y}
		j, ok := Impulse(pointer, center, radius, k)
		if !ok {
			continue
		}
		if err := s.world.ApplyImpulse(b.id, j); err != nil {
			continue
		}
		kicks = append(kicks, Kick{Ref: b.pin.Ref, Distance: pointer.Distance(center), Impulse: j})
	}
	return kicks
}

// stop runs the stop phase: listener, stepper, world, frame, references.
func (s *Session) stop() {
	if s.stopped {
		return
	}
	s.stopped = true

	if s.armTimer != nil {
		s.armTimer.Stop()
	}
	if s.removeListener != nil {
		s.removeListener()
		s.removeListener = nil
	}
	if s.runner != nil {
		s.runner.Stop()
	}
	if s.world != nil {
		s.world.Clear()
	}

	s.tickMu.Lock()
	s.alive = false
	if s.frames != nil {
		s.frames.Cancel(s.pending)
	}
	s.world = nil
	s.runner = nil
	s.tickMu.Unlock()

	s.cancel()
}
