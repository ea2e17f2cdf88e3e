package solve

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rosenbrock(x []float64) float64 {
	a := 1 - x[0]
	b := x[1] - x[0]*x[0]
	return a*a + 100*b*b
}

func TestNelderMeadNearestPointOnSteepBowl(t *testing.T) {
	// Distance from the origin to (x, y, (x²+y²)^5) is minimised at the
	// origin itself.
	f := func(x []float64) float64 {
		z := math.Pow(x[0]*x[0]+x[1]*x[1], 5)
		return math.Sqrt(x[0]*x[0] + x[1]*x[1] + z*z)
	}
	res := NelderMead(f, []float64{0, 0}, []float64{1e-3, 1e-3}, Settings{Tolerance: 1e-7, MaxIterations: 1000})

	require.True(t, res.Converged(), "status %s", res.Status)
	assert.NoError(t, res.Err())
	assert.InDelta(t, 0, res.X[0], 1e-6)
	assert.InDelta(t, 0, res.X[1], 1e-6)
	assert.InDelta(t, 0, res.Value, 1e-6)
	assert.Less(t, res.Measure, 1e-7)
}

func TestNelderMeadRosenbrock(t *testing.T) {
	res := NelderMead(rosenbrock, []float64{-1.2, 1}, []float64{0.1, 0.1},
		Settings{Tolerance: 1e-10, MaxIterations: 5000})

	require.True(t, res.Converged(), "status %s after %d iterations", res.Status, res.Iterations)
	assert.InDelta(t, 1, res.X[0], 1e-3)
	assert.InDelta(t, 1, res.X[1], 1e-3)
}

func TestNelderMeadIterationCap(t *testing.T) {
	res := NelderMead(rosenbrock, []float64{-1.2, 1}, nil, Settings{Tolerance: 1e-12, MaxIterations: 3})

	assert.Equal(t, MaxIterationsReached, res.Status)
	assert.Equal(t, 3, res.Iterations)
	assert.ErrorIs(t, res.Err(), ErrNonConvergence)
	require.Len(t, res.X, 2)
	assert.LessOrEqual(t, res.Value, rosenbrock([]float64{-1.2, 1}))
}

func TestNelderMeadTimeout(t *testing.T) {
	res := NelderMead(rosenbrock, []float64{-1.2, 1}, nil,
		Settings{Tolerance: 1e-300, MaxIterations: 1 << 30, Timeout: time.Nanosecond})

	assert.Equal(t, TimedOut, res.Status)
	assert.ErrorIs(t, res.Err(), ErrNonConvergence)
}

func TestNelderMeadNaNTreatedAsWorst(t *testing.T) {
	f := func(x []float64) float64 {
		if x[0] < 0 {
			return math.NaN()
		}
		return (x[0] - 2) * (x[0] - 2)
	}
	res := NelderMead(f, []float64{1}, []float64{0.5}, Settings{Tolerance: 1e-9, MaxIterations: 500})

	require.True(t, res.Converged())
	assert.InDelta(t, 2, res.X[0], 1e-6)
}

func TestBroydenRayParaboloid(t *testing.T) {
	// Eye (0,0,1), query (1,1,0), surface z = x² + y².
	F := func(x, fx []float64) {
		fx[0] = x[1]*1 - x[0]*1
		fx[1] = (x[2]-1)*1 - x[0]*(-1)
		fx[2] = x[0]*x[0] + x[1]*x[1] - x[2]
	}
	res := Broyden(F, []float64{1, 1, 0}, Settings{Tolerance: 1e-5, MaxIterations: 100})

	require.True(t, res.Converged(), "status %s", res.Status)
	assert.Less(t, res.Value, 1e-5)
	assert.InDelta(t, 0.5, res.X[0], 1e-4)
	assert.InDelta(t, 0.5, res.X[1], 1e-4)
	assert.InDelta(t, 0.5, res.X[2], 1e-4)
}

func TestBroydenLinearSystem(t *testing.T) {
	F := func(x, fx []float64) {
		fx[0] = 2*x[0] + x[1] - 3
		fx[1] = x[0] - x[1]
	}
	res := Broyden(F, []float64{10, -4}, Settings{Tolerance: 1e-9})

	require.True(t, res.Converged())
	assert.InDelta(t, 1, res.X[0], 1e-7)
	assert.InDelta(t, 1, res.X[1], 1e-7)
}

func TestBroydenStartsAtRoot(t *testing.T) {
	F := func(x, fx []float64) { fx[0] = x[0] - 4 }
	res := Broyden(F, []float64{4}, Settings{})

	assert.True(t, res.Converged())
	assert.Equal(t, 0, res.Iterations)
	assert.Equal(t, []float64{4}, res.X)
}

func TestBroydenWithoutRootReportsBestIterate(t *testing.T) {
	F := func(x, fx []float64) { fx[0] = x[0]*x[0] + 1 }
	res := Broyden(F, []float64{0.5}, Settings{Tolerance: 1e-8, MaxIterations: 50})

	assert.NotEqual(t, Converged, res.Status)
	assert.ErrorIs(t, res.Err(), ErrNonConvergence)
	require.Len(t, res.X, 1)
	assert.GreaterOrEqual(t, res.Value, 1.0)
	assert.LessOrEqual(t, res.Value, 1.25)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "converged", Converged.String())
	assert.Equal(t, "max-iterations", MaxIterationsReached.String())
	assert.Equal(t, "timed-out", TimedOut.String())
	assert.Equal(t, "stalled", Stalled.String())
}
