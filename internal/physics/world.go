package physics

import (
	"errors"
	"math"
	"sort"
	"sync"

	"github.com/jakecoffman/cp/v2"
)

var (
	ErrUnknownBody = errors.New("physics: unknown body")
	ErrBadBox      = errors.New("physics: box must have positive size")
)

// BodyID identifies a dynamic body for the lifetime of a World.
type BodyID int

// Box describes a dynamic rectangle centred at (X, Y) in page coordinates.
type Box struct {
	X, Y   float64
	W, H   float64
	Angle  float64
	Radius float64
}

// Material is shared by every dynamic body of a world.
type Material struct {
	Density    float64
	Elasticity float64
	Friction   float64
}

// Options configures a World. Damping is the fraction of velocity
// retained per second.
type Options struct {
	Gravity    float64
	Iterations int
	Damping    float64
	MaxSpeed   float64
	Material   Material
}

// Pose is the position and rotation of a body at one instant.
type Pose struct {
	ID    BodyID
	X, Y  float64
	Angle float64
}

// DampingFromAirFriction converts a per-60Hz-step velocity loss into the
// per-second retention factor the solver uses.
func DampingFromAirFriction(air float64) float64 {
	return math.Pow(1-air, 60)
}

// World is a chipmunk space with page-sized static boundaries. All methods
// are safe for concurrent use; a Step never interleaves with a read.
type World struct {
	mu      sync.Mutex
	space   *cp.Space
	opts    Options
	bodies  map[BodyID]*cp.Body
	statics []*cp.Body
	nextID  BodyID
	width   float64
	height  float64
	elapsed float64
	steps   int
}

func NewWorld(opts Options) *World {
	w := &World{opts: opts, bodies: make(map[BodyID]*cp.Body)}
	w.space = w.newSpace()
	return w
}

func (w *World) newSpace() *cp.Space {
	space := cp.NewSpace()
	if w.opts.Iterations > 0 {
		space.Iterations = uint(w.opts.Iterations)
	}
	space.SetGravity(cp.Vector{X: 0, Y: w.opts.Gravity})
	if w.opts.Damping > 0 {
		space.SetDamping(w.opts.Damping)
	}
	return space
}

// AddBoundaries installs a static floor whose top edge is at height and two
// walls just outside [0, width]. thickness is the depth of each boundary.
func (w *World) AddBoundaries(width, height, thickness float64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.width, w.height = width, height
	w.addStatic(width/2, height+thickness/2, width, thickness)
	w.addStatic(-thickness/2, height/2, thickness, height*2)
	w.addStatic(width+thickness/2, height/2, thickness, height*2)
}

func (w *World) addStatic(x, y, bw, bh float64) {
	body := cp.NewStaticBody()
	body.SetPosition(cp.Vector{X: x, Y: y})
	w.space.AddBody(body)
	shape := w.space.AddShape(cp.NewBox(body, bw, bh, 0))
	shape.SetElasticity(w.opts.Material.Elasticity)
	shape.SetFriction(w.opts.Material.Friction)
	w.statics = append(w.statics, body)
}

// AddBoxes adds every box in one batch and returns their ids in order.
func (w *World) AddBoxes(boxes []Box) ([]BodyID, error) {
	for _, b := range boxes {
		if b.W <= 0 || b.H <= 0 {
			return nil, ErrBadBox
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	ids := make([]BodyID, 0, len(boxes))
	for _, b := range boxes {
		mass := w.opts.Material.Density * b.W * b.H
		body := cp.NewBody(mass, cp.MomentForBox(mass, b.W, b.H))
		body.SetPosition(cp.Vector{X: b.X, Y: b.Y})
		body.SetAngle(b.Angle)
		w.space.AddBody(body)

		r := math.Min(b.Radius, math.Min(b.W, b.H)/2)
		shape := w.space.AddShape(cp.NewBox(body, b.W-2*r, b.H-2*r, r))
		shape.SetElasticity(w.opts.Material.Elasticity)
		shape.SetFriction(w.opts.Material.Friction)

		id := w.nextID
		w.nextID++
		w.bodies[id] = body
		ids = append(ids, id)
	}
	return ids, nil
}

func (w *World) Step(dt float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.space.Step(dt)
	w.elapsed += dt
	w.steps++
}

func (w *World) Pose(id BodyID) (Pose, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	body, ok := w.bodies[id]
	if !ok {
		return Pose{}, false
	}
	return poseOf(id, body), true
}

// Poses returns every dynamic body's pose ordered by id.
func (w *World) Poses() []Pose {
	w.mu.Lock()
	defer w.mu.Unlock()
	poses := make([]Pose, 0, len(w.bodies))
	for id, body := range w.bodies {
		poses = append(poses, poseOf(id, body))
	}
	sort.Slice(poses, func(i, j int) bool { return poses[i].ID < poses[j].ID })
	return poses
}

func poseOf(id BodyID, body *cp.Body) Pose {
	p := body.Position()
	return Pose{ID: id, X: p.X, Y: p.Y, Angle: body.Angle()}
}

// ApplyImpulse applies j at the body's centre of mass. The resulting speed
// is clamped to Options.MaxSpeed when set.
func (w *World) ApplyImpulse(id BodyID, j cp.Vector) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	body, ok := w.bodies[id]
	if !ok {
		return ErrUnknownBody
	}
	body.ApplyImpulseAtWorldPoint(j, body.Position())
	if limit := w.opts.MaxSpeed; limit > 0 {
		if v := body.Velocity(); v.Length() > limit {
			body.SetVelocityVector(v.Mult(limit / v.Length()))
		}
	}
	return nil
}

// Clear removes every body and shape and starts over with an empty space.
func (w *World) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.bodies = make(map[BodyID]*cp.Body)
	w.statics = nil
	w.space = w.newSpace()
	w.elapsed, w.steps = 0, 0
}

func (w *World) BodyCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.bodies)
}

// KineticEnergy sums the kinetic energy of the dynamic bodies.
func (w *World) KineticEnergy() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	var e float64
	for _, body := range w.bodies {
		e += body.KineticEnergy()
	}
	return e
}

// Bounds returns the page size given to AddBoundaries.
func (w *World) Bounds() (width, height float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.width, w.height
}

// Elapsed returns simulated seconds and steps since creation or Clear.
func (w *World) Elapsed() (float64, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.elapsed, w.steps
}
