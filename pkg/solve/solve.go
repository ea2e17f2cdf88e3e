// Package solve provides bounded iterative solvers: derivative-free
// simplex minimisation and a quasi-Newton root finder for square
// nonlinear systems. Every solver stops after a fixed number of
// iterations and reports whether it met its tolerance.
package solve

import (
	"errors"
	"fmt"
	"time"
)

// Status is the outcome of a solver run.
type Status int

const (
	Converged            Status = iota // tolerance met
	MaxIterationsReached               // iteration cap hit first
	TimedOut                           // wall-clock ceiling hit first
	Stalled                            // no further progress possible (singular system)
)

func (s Status) String() string {
	switch s {
	case Converged:
		return "converged"
	case MaxIterationsReached:
		return "max-iterations"
	case TimedOut:
		return "timed-out"
	case Stalled:
		return "stalled"
	default:
		return "unknown"
	}
}

// Settings bounds a solver run.
type Settings struct {
	// Tolerance is the convergence threshold: simplex size for
	// minimisation, residual 2-norm for root finding.
	Tolerance float64
	// MaxIterations caps the number of iterations.
	MaxIterations int
	// Timeout, when positive, caps wall-clock time per run.
	Timeout time.Duration
}

// Default settings for each solver.
var (
	DefaultMinimizeSettings = Settings{Tolerance: 1e-7, MaxIterations: 500}
	DefaultRootSettings     = Settings{Tolerance: 1e-5, MaxIterations: 100}
)

func (s Settings) withDefaults(d Settings) Settings {
	if s.Tolerance <= 0 {
		s.Tolerance = d.Tolerance
	}
	if s.MaxIterations <= 0 {
		s.MaxIterations = d.MaxIterations
	}
	return s
}

func (s Settings) deadline() time.Time {
	if s.Timeout <= 0 {
		return time.Time{}
	}
	return time.Now().Add(s.Timeout)
}

func expired(deadline time.Time) bool {
	return !deadline.IsZero() && time.Now().After(deadline)
}

// Result is the best iterate of a solver run.
type Result struct {
	Method     string
	X          []float64
	Value      float64 // objective value, or residual norm for root finding
	Measure    float64 // the quantity compared against Tolerance
	Tolerance  float64
	Iterations int
	Status     Status
}

// Converged reports whether the run met its tolerance.
func (r Result) Converged() bool {
	return r.Status == Converged
}

// Err returns a *NonConvergenceError when the run did not converge.
func (r Result) Err() error {
	if r.Status == Converged {
		return nil
	}
	return &NonConvergenceError{
		Method:     r.Method,
		Status:     r.Status,
		Iterations: r.Iterations,
		Measure:    r.Measure,
		Tolerance:  r.Tolerance,
	}
}

// ErrNonConvergence matches every NonConvergenceError via errors.Is.
var ErrNonConvergence = errors.New("solver did not converge")

// NonConvergenceError reports a run that ended without meeting its
// tolerance. The best iterate is still usable.
type NonConvergenceError struct {
	Method     string
	Status     Status
	Iterations int
	Measure    float64
	Tolerance  float64
}

func (e *NonConvergenceError) Error() string {
	return fmt.Sprintf("%s: %s after %d iterations (measure %.3g, tolerance %.3g)",
		e.Method, e.Status, e.Iterations, e.Measure, e.Tolerance)
}

// Is makes errors.Is(err, ErrNonConvergence) true.
func (e *NonConvergenceError) Is(target error) bool {
	return target == ErrNonConvergence
}
