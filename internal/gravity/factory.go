package gravity

import (
	"math"

	"github.com/bamdow/folio/internal/config"
	"github.com/bamdow/folio/internal/dom"
	"github.com/bamdow/folio/internal/physics"
)

// Plan is everything the factory derives from a snapshot before touching
// the world or the page.
type Plan struct {
	Boxes     []physics.Box
	Pins      []dom.StyleUpdate
	Dissipate []dom.StyleUpdate
	Pinned    []Pinned
	Width     float64
	Height    float64

	ids []physics.BodyID
}

// Pinned is a collider frozen at its page-space box. Pinned[i] belongs to
// Boxes[i].
type Pinned struct {
	Ref  string
	Rect dom.Rect
}

// Center is the frozen centre the render loop measures displacement from.
func (p Pinned) Center() (float64, float64) {
	return p.Rect.CenterX(), p.Rect.CenterY()
}

// BuildPlan converts colliders into bodies and pin styles and dissipators
// into fade styles. tilt returns a value in [0, 1) per body.
func BuildPlan(snap *Snapshot, mat config.MaterialConfig, tilt func() float64) *Plan {
	m := snap.Metrics
	plan := &Plan{Width: m.ViewportWidth, Height: m.ScrollHeight}

	for _, c := range snap.Colliders {
		rect := c.Node.Rect.Offset(m.ScrollX, m.ScrollY)
		plan.Boxes = append(plan.Boxes, physics.Box{
			X:      rect.CenterX(),
			Y:      rect.CenterY(),
			W:      rect.Width,
			H:      rect.Height,
			Angle:  (tilt() - 0.5) * mat.MaxTilt,
			Radius: math.Min(rect.Width, rect.Height) * mat.ChamferRatio,
		})
		plan.Pins = append(plan.Pins, dom.StyleUpdate{Ref: c.Node.Ref, Decls: pinDecls(rect)})
		plan.Pinned = append(plan.Pinned, Pinned{Ref: c.Node.Ref, Rect: rect})
	}

	for _, d := range snap.Dissipators {
		plan.Dissipate = append(plan.Dissipate, dom.StyleUpdate{Ref: d.Node.Ref, Decls: []dom.Decl{
			{Property: "transition", Value: "all 0.5s ease-out"},
			{Property: "transform", Value: "scale(0.8)"},
			{Property: "opacity", Value: "0"},
			{Property: "pointer-events", Value: "none"},
		}})
	}
	return plan
}

func pinDecls(r dom.Rect) []dom.Decl {
	return []dom.Decl{
		{Property: "box-sizing", Value: "border-box"},
		{Property: "position", Value: "absolute"},
		{Property: "left", Value: dom.Px(r.Left)},
		{Property: "top", Value: dom.Px(r.Top)},
		{Property: "width", Value: dom.Px(r.Width)},
		{Property: "height", Value: dom.Px(r.Height)},
		{Property: "margin", Value: "0"},
		{Property: "transform", Value: dom.IdentityTransform},
		{Property: "z-index", Value: "1000"},
		{Property: "pointer-events", Value: "none"},
		{Property: "transition", Value: "none"},
	}
}
