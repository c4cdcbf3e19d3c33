package gravity

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/bamdow/folio/internal/config"
	"github.com/bamdow/folio/internal/dom"
)

func TestBuildPlan(t *testing.T) {
	snap := &Snapshot{
		Metrics: dom.Metrics{ScrollX: 0, ScrollY: 300, ViewportWidth: 1000, ScrollHeight: 2000},
		Colliders: []Tracked{{
			Node: dom.Node{Ref: "e1", Rect: dom.Rect{Left: 10, Top: 20, Width: 100, Height: 50}},
		}},
		Dissipators: []Tracked{{Node: dom.Node{Ref: "e2"}, Role: RoleDissipator}},
	}
	mat := config.DefaultConfig().Material

	plan := BuildPlan(snap, mat, func() float64 { return 1 })

	if plan.Width != 1000 || plan.Height != 2000 {
		t.Errorf("expected 1000x2000 world, got %vx%v", plan.Width, plan.Height)
	}
	if len(plan.Boxes) != 1 {
		t.Fatalf("expected 1 box, got %d", len(plan.Boxes))
	}

	box := plan.Boxes[0]
	if box.X != 60 || box.Y != 345 {
		t.Errorf("expected centre (60, 345) in page space, got (%v, %v)", box.X, box.Y)
	}
	if box.W != 100 || box.H != 50 {
		t.Errorf("expected 100x50, got %vx%v", box.W, box.H)
	}
	if box.Radius != 5 {
		t.Errorf("expected chamfer 5, got %v", box.Radius)
	}
	if math.Abs(box.Angle-mat.MaxTilt/2) > 1e-12 {
		t.Errorf("expected tilt %v, got %v", mat.MaxTilt/2, box.Angle)
	}

	wantPin := []dom.Decl{
		{Property: "box-sizing", Value: "border-box"},
		{Property: "position", Value: "absolute"},
		{Property: "left", Value: "10px"},
		{Property: "top", Value: "320px"},
		{Property: "width", Value: "100px"},
		{Property: "height", Value: "50px"},
		{Property: "margin", Value: "0"},
		{Property: "transform", Value: "translate(0, 0) rotate(0deg)"},
		{Property: "z-index", Value: "1000"},
		{Property: "pointer-events", Value: "none"},
		{Property: "transition", Value: "none"},
	}
	if diff := cmp.Diff(wantPin, plan.Pins[0].Decls); diff != "" {
		t.Errorf("pin mismatch (-want +got):\n%s", diff)
	}

	wantFade := []dom.Decl{
		{Property: "transition", Value: "all 0.5s ease-out"},
		{Property: "transform", Value: "scale(0.8)"},
		{Property: "opacity", Value: "0"},
		{Property: "pointer-events", Value: "none"},
	}
	if diff := cmp.Diff(wantFade, plan.Dissipate[0].Decls); diff != "" {
		t.Errorf("dissipate mismatch (-want +got):\n%s", diff)
	}

	cx, cy := plan.Pinned[0].Center()
	if cx != box.X || cy != box.Y {
		t.Errorf("pinned centre (%v, %v) differs from body centre (%v, %v)", cx, cy, box.X, box.Y)
	}
}

func TestBuildPlanTiltRange(t *testing.T) {
	snap := &Snapshot{Colliders: []Tracked{{Node: dom.Node{Rect: dom.Rect{Width: 10, Height: 10}}}}}
	mat := config.MaterialConfig{MaxTilt: 0.05}

	for _, r := range []float64{0, 0.25, 0.5, 0.999} {
		plan := BuildPlan(snap, mat, func() float64 { return r })
		if a := plan.Boxes[0].Angle; a < -0.025 || a >= 0.025 {
			t.Errorf("tilt %v out of range for r=%v", a, r)
		}
	}
}
