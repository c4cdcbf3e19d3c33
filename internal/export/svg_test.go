package export

import (
	"math"
	"strings"
	"testing"

	"github.com/bamdow/folio/internal/dom"
	"github.com/bamdow/folio/internal/gravity"
	"github.com/bamdow/folio/internal/physics"
)

func TestPosesToSVG(t *testing.T) {
	bodies := []gravity.Body{{
		Ref:  "e4",
		Pin:  dom.Rect{Left: 100, Top: 400, Width: 300, Height: 40},
		Pose: physics.Pose{X: 250, Y: 1980, Angle: math.Pi / 2},
	}}

	svg := PosesToSVG(bodies, 1000, 2000)

	for _, want := range []string{
		`width="1000" height="2000"`,
		`<rect x="100.0" y="400.0" width="300.0" height="40.0"/>`,
		`data-ref="e4"`,
		`rx="4.0"`,
		`transform="translate(250.0 1980.0) rotate(90.00)"`,
	} {
		if !strings.Contains(svg, want) {
			t.Errorf("expected %q in output:\n%s", want, svg)
		}
	}
	if !strings.HasSuffix(svg, "</svg>") {
		t.Error("expected closed svg document")
	}
}

func TestSeriesToSVG(t *testing.T) {
	if SeriesToSVG([]float64{1}, 100, 50, "#fff") != "" {
		t.Error("expected empty output for a single sample")
	}

	svg := SeriesToSVG([]float64{0, 10, 5}, 100, 50, "#00ff00")
	if !strings.Contains(svg, `stroke="#00ff00"`) {
		t.Errorf("missing stroke color:\n%s", svg)
	}
	if got := strings.Count(svg, " L"); got != 2 {
		t.Errorf("expected 2 line segments, got %d", got)
	}
	if !strings.Contains(svg, "M0.0,") {
		t.Errorf("expected path to start at x=0:\n%s", svg)
	}
}
