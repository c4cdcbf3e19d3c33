package gravity

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bamdow/folio/internal/config"
	"github.com/bamdow/folio/internal/dom"
	"github.com/bamdow/folio/internal/frame"
	"github.com/bamdow/folio/internal/physics"
)

// EngineFactory builds the world for a new session.
type EngineFactory func(cfg *config.Config) (*physics.World, error)

// NewEngine is the default EngineFactory.
func NewEngine(cfg *config.Config) (*physics.World, error) {
	return physics.NewWorld(WorldOptions(cfg)), nil
}

// WorldOptions maps configuration onto world options.
func WorldOptions(cfg *config.Config) physics.Options {
	return physics.Options{
		Gravity:    cfg.Physics.Gravity,
		Iterations: cfg.Physics.Iterations,
		Damping:    physics.DampingFromAirFriction(cfg.Material.AirFriction),
		MaxSpeed:   cfg.Physics.MaxSpeed,
		Material: physics.Material{
			Density:    cfg.Material.Density,
			Elasticity: cfg.Material.Restitution,
			Friction:   cfg.Material.Friction,
		},
	}
}

type Option func(*Controller)

func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

func WithEngine(f EngineFactory) Option {
	return func(c *Controller) { c.newEngine = f }
}

// WithRand seeds the initial tilt of new bodies.
func WithRand(r *rand.Rand) Option {
	return func(c *Controller) { c.rng = r }
}

// WithoutRunner leaves stepping to the host, which calls Step.
func WithoutRunner() Option {
	return func(c *Controller) { c.hostStepped = true }
}

// Controller owns at most one gravity session over a document.
type Controller struct {
	doc         dom.Document
	frames      frame.Scheduler
	cfg         *config.Config
	log         *zap.Logger
	newEngine   EngineFactory
	rng         *rand.Rand
	hostStepped bool

	mu      sync.Mutex
	session *Session
}

func NewController(doc dom.Document, frames frame.Scheduler, cfg *config.Config, opts ...Option) (*Controller, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	c := &Controller{
		doc:       doc,
		frames:    frames,
		cfg:       cfg,
		log:       zap.NewNop(),
		newEngine: NewEngine,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Trigger starts a session. It reports false with a nil error when a
// session is already active or no engine could be built; neither is an
// error the user should see.
func (c *Controller) Trigger(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		c.log.Debug("trigger ignored, session already active")
		return false, nil
	}
	world, err := c.newEngine(c.cfg)
	if err != nil || world == nil {
		c.log.Warn("trigger ignored, physics engine unavailable", zap.Error(err))
		return false, nil
	}

	snap, err := Classify(ctx, c.doc, c.cfg.Classifier)
	if err != nil {
		return false, err
	}
	plan := BuildPlan(snap, c.cfg.Material, c.rng.Float64)

	if err := c.mutate(ctx, snap, plan, world); err != nil {
		c.rollback(ctx, snap)
		return false, err
	}

	s := &Session{
		snap:   snap,
		alive:  true,
		world:  world,
		frames: c.frames,
		done:   make(chan struct{}),
	}
	s.ctx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	for i, p := range plan.Pinned {
		s.bindings = append(s.bindings, binding{id: plan.ids[i], pin: p})
	}

	if !c.hostStepped {
		s.runner = physics.NewRunner(world, c.cfg.Physics.StepHz)
		if err := s.runner.Start(s.ctx); err != nil {
			s.stop()
			c.rollback(ctx, snap)
			return false, err
		}
	}
	c.session = s
	s.pending = c.frames.RequestFrame(c.frameLoop(s))
	c.arm(s)

	c.log.Info("gravity session started",
		zap.Int("colliders", len(snap.Colliders)),
		zap.Int("dissipators", len(snap.Dissipators)),
		zap.Float64("scroll_y", snap.Metrics.ScrollY))
	return true, nil
}

// mutate applies the trigger's writes in order: page lock, dissipators,
// then bodies and pins together.
func (c *Controller) mutate(ctx context.Context, snap *Snapshot, plan *Plan, world *physics.World) error {
	if err := c.doc.LockPage(ctx, snap.Metrics.ScrollHeight); err != nil {
		return fmt.Errorf("lock page: %w", err)
	}
	if len(plan.Dissipate) > 0 {
		if err := c.doc.SetStyles(ctx, plan.Dissipate); err != nil {
			return fmt.Errorf("dissipate: %w", err)
		}
	}

	world.AddBoundaries(plan.Width, plan.Height, c.cfg.Physics.Thickness)
	ids, err := world.AddBoxes(plan.Boxes)
	if err != nil {
		return fmt.Errorf("build bodies: %w", err)
	}
	plan.ids = ids

	if len(plan.Pins) > 0 {
		if err := c.doc.SetStyles(ctx, plan.Pins); err != nil {
			return fmt.Errorf("pin colliders: %w", err)
		}
	}
	return nil
}

func (c *Controller) rollback(ctx context.Context, snap *Snapshot) {
	ctx = context.WithoutCancel(ctx)
	if err := c.doc.ReplaceStyles(ctx, snap.Originals()); err != nil {
		c.log.Error("rollback styles", zap.Error(err))
	}
	if err := c.doc.UnlockPage(ctx); err != nil {
		c.log.Error("rollback page lock", zap.Error(err))
	}
}

func (c *Controller) frameLoop(s *Session) func() {
	var fn func()
	fn = func() {
		if err := s.Tick(s.ctx, c.doc); err != nil && s.ctx.Err() == nil {
			c.log.Warn("frame write failed", zap.Error(err))
		}
		s.tickMu.Lock()
		if s.alive {
			s.pending = c.frames.RequestFrame(fn)
		}
		s.tickMu.Unlock()
	}
	return fn
}

// arm attaches the pointer listener after the configured delay so the
// triggering click is not taken as a push.
func (c *Controller) arm(s *Session) {
	attach := func() {
		remove, err := c.doc.OnPointerDown(s.ctx, func(ev dom.PointerEvent) { c.PointerDown(ev) })
		if err != nil {
			c.log.Warn("attach pointer listener", zap.Error(err))
			return
		}
		s.removeListener = remove
	}

	delay := c.cfg.Force.ArmDelay
	if delay <= 0 {
		attach()
		return
	}
	s.armTimer = time.AfterFunc(delay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.session != s || s.stopped {
			return
		}
		attach()
	})
}

// PointerDown applies the repulsion impulse for one pointer-down event and
// returns the bodies it pushed.
func (c *Controller) PointerDown(ev dom.PointerEvent) []Kick {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.session
	if s == nil || s.stopped {
		return nil
	}
	kicks := s.push(ev.Page(), c.cfg.Force.Radius, c.cfg.Force.Magnitude)
	c.log.Debug("pointer down",
		zap.Float64("x", ev.Page().X),
		zap.Float64("y", ev.Page().Y),
		zap.Int("pushed", len(kicks)))
	return kicks
}

// Reset stops the session, animates every element back and restores the
// captured styles once the transition has run. The returned channel is
// closed after the restore. With no session it returns a closed channel
// and touches nothing.
func (c *Controller) Reset(ctx context.Context) (<-chan struct{}, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.session
	if s == nil {
		done := make(chan struct{})
		close(done)
		return done, nil
	}
	if s.stopped {
		return s.done, nil
	}

	s.stop()
	c.log.Info("gravity session stopping")

	snap := s.snap
	ctx = context.WithoutCancel(ctx)
	if err := c.animateBack(ctx, snap); err != nil {
		c.log.Warn("animate back", zap.Error(err))
	}

	time.AfterFunc(c.cfg.Teardown.Transition, func() { c.restore(ctx, s) })
	return s.done, nil
}

func (c *Controller) animateBack(ctx context.Context, snap *Snapshot) error {
	d := c.cfg.Teardown.Transition
	refs := make([]string, 0, len(snap.Colliders))
	updates := make([]dom.StyleUpdate, 0, len(snap.Colliders)+len(snap.Dissipators))

	for _, t := range snap.Colliders {
		refs = append(refs, t.Node.Ref)
		updates = append(updates, dom.StyleUpdate{Ref: t.Node.Ref, Decls: []dom.Decl{
			{Property: "transition", Value: fmt.Sprintf("transform %s %s", cssDuration(d), c.cfg.Teardown.Easing)},
			{Property: "transform", Value: dom.IdentityTransform},
		}})
	}
	for _, t := range snap.Dissipators {
		updates = append(updates, dom.StyleUpdate{Ref: t.Node.Ref, Decls: []dom.Decl{
			{Property: "transition", Value: fmt.Sprintf("all %s ease", cssDuration(d))},
			{Property: "transform", Value: "scale(1)"},
			{Property: "opacity", Value: "1"},
		}})
	}

	if len(refs) > 0 {
		if err := c.doc.FlushLayout(ctx, refs); err != nil {
			return fmt.Errorf("flush layout: %w", err)
		}
	}
	if len(updates) == 0 {
		return nil
	}
	return c.doc.SetStyles(ctx, updates)
}

func (c *Controller) restore(ctx context.Context, s *Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer close(s.done)

	if err := c.doc.ReplaceStyles(ctx, s.snap.Originals()); err != nil {
		c.log.Error("restore styles", zap.Error(err))
	}
	s.snap.Colliders, s.snap.Dissipators = nil, nil
	s.bindings = nil

	if err := c.doc.UnlockPage(ctx); err != nil {
		c.log.Error("unlock page", zap.Error(err))
	}
	if err := c.doc.ScrollTo(ctx, 0, s.snap.Metrics.ScrollY); err != nil {
		c.log.Error("restore scroll", zap.Error(err))
	}
	if c.session == s {
		c.session = nil
	}
	c.log.Info("gravity session restored")
}

// cssDuration formats d the way a stylesheet would, "1s" or "250ms".
func cssDuration(d time.Duration) string {
	if d%time.Second == 0 {
		return fmt.Sprintf("%ds", d/time.Second)
	}
	return fmt.Sprintf("%dms", d.Milliseconds())
}

// Step advances the world by dt when the host does the stepping.
func (c *Controller) Step(dt float64) {
	c.mu.Lock()
	s := c.session
	c.mu.Unlock()
	if s == nil {
		return
	}
	if w := s.World(); w != nil {
		w.Step(dt)
	}
}

// Active reports whether a session exists, including one animating back.
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil
}

// BodyCount is the number of dynamic bodies in the live world.
func (c *Controller) BodyCount() int {
	c.mu.Lock()
	s := c.session
	c.mu.Unlock()
	if s == nil {
		return 0
	}
	if w := s.World(); w != nil {
		return w.BodyCount()
	}
	return 0
}

// Session returns the current session, or nil.
func (c *Controller) Session() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

func (c *Controller) Config() *config.Config { return c.cfg }
