// Package metrics observes a running world step by step.
package metrics

import "github.com/bamdow/folio/internal/physics"

// Metric is a physics.Observer that reduces the run to one number.
type Metric interface {
	physics.Observer
	Name() string
	Value() float64
	Reset()
}
