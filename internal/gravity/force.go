package gravity

import (
	"math"

	"github.com/jakecoffman/cp/v2"
)

// Impulse is the repulsion a pointer-down at pointer gives a body centred
// at center: magnitude k*(1-d/radius) directed from the pointer to the
// body, or nothing when d >= radius.
func Impulse(pointer, center cp.Vector, radius, k float64) (cp.Vector, bool) {
	d := pointer.Distance(center)
	if d >= radius {
		return cp.Vector{}, false
	}
	mag := k * (1 - d/radius)
	angle := math.Atan2(center.Y-pointer.Y, center.X-pointer.X)
	return cp.Vector{X: math.Cos(angle) * mag, Y: math.Sin(angle) * mag}, true
}

// Kick records one impulse applied to a body.
type Kick struct {
	Ref      string
	Distance float64
	Impulse  cp.Vector
}
