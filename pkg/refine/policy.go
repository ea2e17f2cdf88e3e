package refine

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/facet/pkg/cost"
	"github.com/chazu/facet/pkg/mesh"
	"github.com/chazu/facet/pkg/project"
	"github.com/chazu/facet/pkg/solve"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ErrInvalidConfiguration matches every ConfigError via errors.Is.
var ErrInvalidConfiguration = errors.New("invalid refinement configuration")

// ConfigError reports a configuration that can never be satisfied.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("refine: %s: %s", e.Field, e.Message)
}

// Is makes errors.Is(err, ErrInvalidConfiguration) true.
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfiguration
}

// ---------------------------------------------------------------------------
// Stopping policies
// ---------------------------------------------------------------------------

// StopPolicy decides when refinement halts, given the current worst edge
// cost and the live edge count.
type StopPolicy interface {
	Stop(worst float64, edges int) bool
	// Validate rejects settings that can never trigger under ev.
	Validate(ev cost.Evaluator) error
}

// Compile-time interface checks.
var (
	_ StopPolicy  = EdgeCount{}
	_ StopPolicy  = Threshold{}
	_ StopPolicy  = anyOf{}
	_ SplitPolicy = Midpoint{}
	_ SplitPolicy = Projected{}
	_ SplitPolicy = Cached{}
)

// EdgeCount stops once the live edge count exceeds Max.
type EdgeCount struct {
	Max int
}

// Stop implements StopPolicy.
func (p EdgeCount) Stop(_ float64, edges int) bool {
	return edges > p.Max
}

// Validate implements StopPolicy.
func (p EdgeCount) Validate(cost.Evaluator) error {
	if p.Max < 0 {
		return &ConfigError{Field: "stop.edges", Message: fmt.Sprintf("edge cap %d is negative", p.Max)}
	}
	return nil
}

func (p EdgeCount) String() string { return fmt.Sprintf("edges > %d", p.Max) }

// Threshold stops once the worst cost reaches Value: from above when
// Below is set (costs where larger is worse), from below otherwise.
// The comparison is inclusive.
type Threshold struct {
	Value float64
	Below bool
}

// Stop implements StopPolicy.
func (p Threshold) Stop(worst float64, _ int) bool {
	if p.Below {
		return worst <= p.Value
	}
	return worst >= p.Value
}

// Validate implements StopPolicy.
func (p Threshold) Validate(ev cost.Evaluator) error {
	if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
		return &ConfigError{Field: "stop.threshold", Message: "threshold must be finite"}
	}
	pol := ev.Polarity()
	if pol == cost.Max && !p.Below {
		return &ConfigError{Field: "stop.threshold",
			Message: "cost grows worse upward; refinement can only drive it below a threshold"}
	}
	if pol == cost.Min && p.Below {
		return &ConfigError{Field: "stop.threshold",
			Message: "cost grows worse downward; refinement can only drive it above a threshold"}
	}
	low, high := ev.Range()
	if p.Below && p.Value < low {
		return &ConfigError{Field: "stop.threshold",
			Message: fmt.Sprintf("threshold %g is below the lowest possible cost %g", p.Value, low)}
	}
	if !p.Below && p.Value > high {
		return &ConfigError{Field: "stop.threshold",
			Message: fmt.Sprintf("threshold %g is above the highest possible cost %g", p.Value, high)}
	}
	return nil
}

func (p Threshold) String() string {
	if p.Below {
		return fmt.Sprintf("cost <= %g", p.Value)
	}
	return fmt.Sprintf("cost >= %g", p.Value)
}

type anyOf []StopPolicy

// AnyOf stops as soon as any of ps does.
func AnyOf(ps ...StopPolicy) StopPolicy {
	return anyOf(ps)
}

func (a anyOf) Stop(worst float64, edges int) bool {
	for _, p := range a {
		if p.Stop(worst, edges) {
			return true
		}
	}
	return false
}

func (a anyOf) Validate(ev cost.Evaluator) error {
	if len(a) == 0 {
		return &ConfigError{Field: "stop", Message: "no stopping policy given"}
	}
	var errs []error
	for _, p := range a {
		if p == nil {
			errs = append(errs, &ConfigError{Field: "stop", Message: "nil stopping policy"})
			continue
		}
		if err := p.Validate(ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ---------------------------------------------------------------------------
// Split policies
// ---------------------------------------------------------------------------

// SplitPolicy chooses where the new vertex of a split edge goes. The
// returned projection carries the solver outcome; policies that do not
// solve report solve.Converged.
type SplitPolicy interface {
	Position(e *mesh.Edge) (v3.Vec, project.Projection)
}

// Midpoint splits at the chord midpoint.
type Midpoint struct{}

// Position implements SplitPolicy.
func (Midpoint) Position(e *mesh.Edge) (v3.Vec, project.Projection) {
	mid := e.Midpoint()
	return mid, project.Projection{Point: mid, Status: solve.Converged}
}

// Projected splits at the projection of the chord midpoint.
type Projected struct {
	Projector project.Projector
}

// Position implements SplitPolicy.
func (p Projected) Position(e *mesh.Edge) (v3.Vec, project.Projection) {
	proj := p.Projector.Project(e.Midpoint())
	return proj.Point, proj
}

// Cached splits at the projection already computed while scoring the edge.
type Cached struct {
	*cost.Cache
}

// Position implements SplitPolicy.
func (c Cached) Position(e *mesh.Edge) (v3.Vec, project.Projection) {
	proj := c.Project(e)
	return proj.Point, proj
}
