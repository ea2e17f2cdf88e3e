// Package refine drives greedy adaptive refinement: score every live edge,
// split the worst one at a position chosen by a split policy, and repeat
// until a stopping policy is satisfied.
package refine

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/chazu/facet/pkg/cost"
	"github.com/chazu/facet/pkg/mesh"
)

// State is the engine's lifecycle state.
type State int

const (
	Running   State = iota
	Converged       // stopping policy satisfied, or nothing left to gain
	Aborted         // mesh defect; the mesh is left at its last valid state
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Converged:
		return "converged"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Config assembles the policies driving an Engine.
type Config struct {
	Cost  cost.Evaluator
	Stop  StopPolicy
	Split SplitPolicy
	// MaxSplits caps the number of splits; 0 means unlimited.
	MaxSplits int
	// Logger receives iteration traces and solver notices; nil disables them.
	Logger *log.Logger
}

// Validate reports configurations that can never be satisfied.
func (c Config) Validate() error {
	var errs []error
	if c.Cost == nil {
		errs = append(errs, &ConfigError{Field: "cost", Message: "no cost evaluator"})
	}
	if c.Stop == nil {
		errs = append(errs, &ConfigError{Field: "stop", Message: "no stopping policy"})
	} else if c.Cost != nil {
		if err := c.Stop.Validate(c.Cost); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Split == nil {
		errs = append(errs, &ConfigError{Field: "split", Message: "no split policy"})
	}
	if c.MaxSplits < 0 {
		errs = append(errs, &ConfigError{Field: "max-splits", Message: fmt.Sprintf("%d is negative", c.MaxSplits)})
	}
	return errors.Join(errs...)
}

// Result summarises a run.
type Result struct {
	State    State
	Splits   int
	LastCost float64
	// NonConverged counts split positions taken from a solver's best
	// iterate rather than a converged solution.
	NonConverged int
	// Capped is set when MaxSplits ended the run.
	Capped bool
	Err    error
}

// Engine refines one mesh. It is not safe for concurrent use; independent
// meshes may be refined by independent engines in parallel.
type Engine struct {
	mesh *mesh.Mesh
	cfg  Config

	state        State
	splits       int
	lastCost     float64
	nonConverged int
	capped       bool
	err          error
}

// New validates cfg against m and returns an engine in the Running state.
func New(m *mesh.Mesh, cfg Config) (*Engine, error) {
	if m == nil {
		return nil, &ConfigError{Field: "mesh", Message: "no mesh"}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{mesh: m, cfg: cfg}, nil
}

// Mesh returns the mesh being refined.
func (e *Engine) Mesh() *mesh.Mesh { return e.mesh }

// State returns the current state.
func (e *Engine) State() State { return e.state }

// Step performs one selection and, unless the run stops, one split.
func (e *Engine) Step() (State, error) {
	if e.state != Running {
		return e.state, e.err
	}

	edges := e.mesh.Edges()
	worst, c, ok := cost.Extremal(edges, e.cfg.Cost)
	if !ok {
		e.logf("refine: no scorable edge among %d, stopping", len(edges))
		e.state = Converged
		return e.state, nil
	}
	e.lastCost = c

	switch {
	case e.cfg.Stop.Stop(c, len(edges)):
		e.logf("refine: stop after %d splits (cost %g, %d edges)", e.splits, c, len(edges))
		e.state = Converged
		return e.state, nil
	case cost.Settled(e.cfg.Cost, c):
		e.logf("refine: worst cost %g cannot improve, stopping after %d splits", c, e.splits)
		e.state = Converged
		return e.state, nil
	case e.cfg.MaxSplits > 0 && e.splits >= e.cfg.MaxSplits:
		e.logf("refine: split ceiling %d reached", e.cfg.MaxSplits)
		e.capped = true
		e.state = Converged
		return e.state, nil
	}

	pos, proj := e.cfg.Split.Position(worst)
	if !proj.Converged() {
		e.nonConverged++
		e.logf("refine: edge %d: using best iterate: %v", worst.ID, proj.Err)
	}

	id := worst.ID
	if _, _, err := e.mesh.SplitEdge(worst, pos); err != nil {
		e.err = fmt.Errorf("refine: split edge %d: %w", id, err)
		e.state = Aborted
		log.Printf("%v", e.err)
		return e.state, e.err
	}
	e.forget(id)
	e.splits++
	e.logf("refine: split %d: edge %d cost %g, %d edges", e.splits, id, c, e.mesh.EdgeCount())
	return e.state, nil
}

// Run steps until the engine leaves Running or ctx is done. A cancelled
// run stays Running and reports the context error.
func (e *Engine) Run(ctx context.Context) Result {
	for e.state == Running {
		if err := ctx.Err(); err != nil {
			r := e.Result()
			r.Err = fmt.Errorf("refine: %w", err)
			return r
		}
		e.Step()
	}
	return e.Result()
}

// Result reports the run so far.
func (e *Engine) Result() Result {
	return Result{
		State:        e.state,
		Splits:       e.splits,
		LastCost:     e.lastCost,
		NonConverged: e.nonConverged,
		Capped:       e.capped,
		Err:          e.err,
	}
}

func (e *Engine) forget(id mesh.EdgeID) {
	if f, ok := e.cfg.Cost.(cost.Forgetter); ok {
		f.Forget(id)
	}
	if f, ok := e.cfg.Split.(cost.Forgetter); ok {
		f.Forget(id)
	}
}

func (e *Engine) logf(format string, args ...any) {
	if e.cfg.Logger != nil {
		e.cfg.Logger.Printf(format, args...)
	}
}
