// Package cost scores mesh edges by how badly they approximate the target
// surface. Evaluators share a Cache so each live edge's midpoint is
// projected once no matter how many times it is scored.
package cost

import (
	"math"

	"github.com/chazu/facet/pkg/mesh"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/samber/lo"
)

// Polarity says which end of an evaluator's range is worst.
type Polarity int

const (
	Max Polarity = iota // larger is worse
	Min                 // smaller is worse
)

func (p Polarity) String() string {
	if p == Min {
		return "min"
	}
	return "max"
}

// Evaluator is a per-edge badness function.
type Evaluator interface {
	Cost(e *mesh.Edge) float64
	Polarity() Polarity
	// Range bounds the values Cost can return.
	Range() (lo, hi float64)
}

// Forgetter is implemented by evaluators and split policies that hold
// per-edge state which must be dropped once the edge is split.
type Forgetter interface {
	Forget(id mesh.EdgeID)
}

// Compile-time interface checks.
var (
	_ Evaluator = Sag{}
	_ Evaluator = Radial{}
	_ Evaluator = Ratio{}
	_ Evaluator = Magnitude{}
	_ Forgetter = (*Cache)(nil)
	_ Forgetter = Sag{}
)

// Sag is the distance between an edge's chord midpoint and its projection
// onto the surface. Zero means the chord already lies on the surface.
type Sag struct {
	*Cache
}

// Cost implements Evaluator.
func (s Sag) Cost(e *mesh.Edge) float64 {
	return s.Project(e).Point.Sub(e.Midpoint()).Length()
}

// Polarity implements Evaluator.
func (Sag) Polarity() Polarity { return Max }

// Range implements Evaluator.
func (Sag) Range() (float64, float64) { return 0, math.Inf(1) }

// Radial is how far the projected midpoint sits from a sphere of radius
// Reference about the origin.
type Radial struct {
	*Cache
	Reference float64
}

// Cost implements Evaluator.
func (r Radial) Cost(e *mesh.Edge) float64 {
	return math.Abs(r.Project(e).Point.Length() - r.Reference)
}

// Polarity implements Evaluator.
func (Radial) Polarity() Polarity { return Max }

// Range implements Evaluator.
func (Radial) Range() (float64, float64) { return 0, math.Inf(1) }

// Ratio compares the eye distance of the chord midpoint with that of its
// projection. Values near 1 mean the chord follows the surface along the
// viewing ray.
type Ratio struct {
	*Cache
	Eye v3.Vec
}

// Cost implements Evaluator.
func (r Ratio) Cost(e *mesh.Edge) float64 {
	d := r.Project(e).Point.Sub(r.Eye).Length()
	if d == 0 {
		return math.Inf(1)
	}
	return e.Midpoint().Sub(r.Eye).Length() / d
}

// Polarity implements Evaluator.
func (Ratio) Polarity() Polarity { return Min }

// Range implements Evaluator.
func (Ratio) Range() (float64, float64) { return 0, math.Inf(1) }

// Magnitude is the distance of the projected midpoint from the origin.
// It is a monitoring signal rather than a true badness.
type Magnitude struct {
	*Cache
}

// Cost implements Evaluator.
func (m Magnitude) Cost(e *mesh.Edge) float64 {
	return m.Project(e).Point.Length()
}

// Polarity implements Evaluator.
func (Magnitude) Polarity() Polarity { return Max }

// Range implements Evaluator.
func (Magnitude) Range() (float64, float64) { return 0, math.Inf(1) }

// Worse reports whether a is strictly worse than b under p.
func Worse(p Polarity, a, b float64) bool {
	if p == Min {
		return a < b
	}
	return a > b
}

// Extremal returns the worst live edge under ev. Ties go to the edge
// created first. NaN costs are never selected; ok is false when no edge
// has a comparable cost.
func Extremal(edges []*mesh.Edge, ev Evaluator) (worst *mesh.Edge, value float64, ok bool) {
	pol := ev.Polarity()
	costs := lo.Map(edges, func(e *mesh.Edge, _ int) float64 {
		if !e.Live() {
			return math.NaN()
		}
		return ev.Cost(e)
	})
	for i, c := range costs {
		if math.IsNaN(c) {
			continue
		}
		if !ok || Worse(pol, c, value) {
			worst, value, ok = edges[i], c, true
		}
	}
	return worst, value, ok
}

// Settled reports whether c is the best value ev can produce, so that no
// split could improve on it.
func Settled(ev Evaluator, c float64) bool {
	low, high := ev.Range()
	if ev.Polarity() == Min {
		return c >= high
	}
	return c <= low
}
