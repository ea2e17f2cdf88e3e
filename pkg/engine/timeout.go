package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chazu/facet/pkg/recipe"
)

// DefaultEvalTimeout bounds one evaluation when the engine has no limit of
// its own.
const DefaultEvalTimeout = 5 * time.Second

var (
	ErrEvalTimeout = errors.New("evaluation timed out")
	ErrSuperseded  = errors.New("evaluation superseded by newer request")
)

type evalResult struct {
	recipe *recipe.Recipe
	errors []EvalError
	err    error
}

// SetTimeout replaces the per-evaluation limit. Zero or less restores
// DefaultEvalTimeout.
func (e *Engine) SetTimeout(d time.Duration) {
	e.mu.Lock()
	e.timeout = d
	e.mu.Unlock()
}

func (e *Engine) limit() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.timeout <= 0 {
		return DefaultEvalTimeout
	}
	return e.timeout
}

func (e *Engine) current(gen uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.generation == gen
}

// await takes the evaluation result from ch. It gives up when ctx ends or
// the engine's limit passes; the evaluating goroutine keeps running and its
// late result is dropped. A result from an older generation is discarded.
func (e *Engine) await(ctx context.Context, ch <-chan evalResult, gen uint64) (*recipe.Recipe, []EvalError, error) {
	limit := e.limit()
	ctx, cancel := context.WithTimeout(ctx, limit)
	defer cancel()

	select {
	case res := <-ch:
		if !e.current(gen) {
			return nil, nil, ErrSuperseded
		}
		return res.recipe, res.errors, res.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, nil, fmt.Errorf("%w (limit %s)", ErrEvalTimeout, limit)
		}
		return nil, nil, fmt.Errorf("evaluation cancelled: %w", ctx.Err())
	}
}
