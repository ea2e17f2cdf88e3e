// Package project maps query points onto a target surface. Nearest
// minimises the distance to an explicit height field; Ray solves for the
// surface point seen from a fixed eye through the query point.
package project

import (
	"github.com/chazu/facet/pkg/solve"
	"github.com/chazu/facet/pkg/surface"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Projection is the outcome of projecting one query point.
type Projection struct {
	Point      v3.Vec
	Status     solve.Status
	Iterations int
	Measure    float64
	Err        error // non-nil when the solver stopped short of its tolerance
}

// Converged reports whether the solver met its tolerance.
func (p Projection) Converged() bool {
	return p.Status == solve.Converged
}

// Projector maps a query point to its counterpart on a surface.
// Projectors never fail: a solver that stops short still yields its
// best iterate, with the shortfall recorded in Projection.Err.
type Projector interface {
	Project(q v3.Vec) Projection
}

// Compile-time interface checks.
var (
	_ Projector = (*Nearest)(nil)
	_ Projector = (*Ray)(nil)
	_ Projector = Func(nil)
)

// Func adapts a plain mapping to Projector. The result always counts as
// converged.
type Func func(q v3.Vec) v3.Vec

// Project implements Projector.
func (f Func) Project(q v3.Vec) Projection {
	return Projection{Point: f(q), Status: solve.Converged}
}

// Nearest finds the point (x, y, h(x, y)) closest to the query by simplex
// minimisation over (x, y), starting from the query's own (x, y).
type Nearest struct {
	Surface surface.HeightField
	// Step is the initial simplex edge per axis; zero means solve.DefaultStep.
	Step     float64
	Settings solve.Settings
}

// Project implements Projector.
func (n *Nearest) Project(q v3.Vec) Projection {
	h := n.Surface
	f := func(x []float64) float64 {
		return surface.Point(h, x[0], x[1]).Sub(q).Length()
	}
	step := n.Step
	if step == 0 {
		step = solve.DefaultStep
	}
	res := solve.NelderMead(f, []float64{q.X, q.Y}, []float64{step, step}, n.Settings)
	return Projection{
		Point:      surface.Point(h, res.X[0], res.X[1]),
		Status:     res.Status,
		Iterations: res.Iterations,
		Measure:    res.Measure,
		Err:        res.Err(),
	}
}

// Guess selects the root finder's starting point.
type Guess int

const (
	FromQuery  Guess = iota // start at the query point
	FromOrigin              // start at the zero vector
)

func (g Guess) String() string {
	switch g {
	case FromQuery:
		return "query"
	case FromOrigin:
		return "origin"
	default:
		return "unknown"
	}
}

// Ray finds the point on Surface collinear with Eye and the query point
// by solving the ray system with a quasi-Newton root finder.
type Ray struct {
	Eye      v3.Vec
	Surface  surface.Implicit
	Guess    Guess
	Settings solve.Settings
}

// Project implements Projector.
func (r *Ray) Project(q v3.Vec) Projection {
	sys := surface.RaySystem{Eye: r.Eye, Query: q, Surface: r.Surface}
	if sys.Degenerate() {
		return Projection{
			Point:  q,
			Status: solve.Stalled,
			Err:    &solve.NonConvergenceError{Method: "broyden", Status: solve.Stalled},
		}
	}
	var x0 []float64
	switch r.Guess {
	case FromOrigin:
		x0 = []float64{0, 0, 0}
	default:
		x0 = []float64{q.X, q.Y, q.Z}
	}
	res := solve.Broyden(sys.Func(), x0, r.Settings)
	return Projection{
		Point:      v3.Vec{X: res.X[0], Y: res.X[1], Z: res.X[2]},
		Status:     res.Status,
		Iterations: res.Iterations,
		Measure:    res.Measure,
		Err:        res.Err(),
	}
}
