package project

import (
	"math"
	"testing"

	"github.com/chazu/facet/pkg/solve"
	"github.com/chazu/facet/pkg/surface"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNearestOriginOnSteepBowl(t *testing.T) {
	p := &Nearest{Surface: surface.PowerRadial{Exponent: 5}}
	got := p.Project(v3.Vec{})

	require.True(t, got.Converged(), "status %s", got.Status)
	assert.NoError(t, got.Err)
	assert.InDelta(t, 0, got.Point.X, 1e-6)
	assert.InDelta(t, 0, got.Point.Y, 1e-6)
	assert.InDelta(t, 0, got.Point.Z, 1e-6)
}

func TestNearestResultLiesOnSurface(t *testing.T) {
	h := surface.Paraboloid{}
	p := &Nearest{Surface: h, Step: 0.05}

	for _, q := range []v3.Vec{
		{X: 0.5, Y: 0.5, Z: 0},
		{X: -0.3, Y: 0.2, Z: 1},
		{X: 1, Y: 0, Z: 0.2},
	} {
		got := p.Project(q)
		assert.InDelta(t, h.Height(got.Point.X, got.Point.Y), got.Point.Z, 1e-12)
		// Never farther than the vertical drop onto the surface.
		vertical := math.Abs(h.Height(q.X, q.Y) - q.Z)
		assert.LessOrEqual(t, got.Point.Sub(q).Length(), vertical+1e-9, "query %v", q)
	}
}

func TestNearestOnPlaneDropsVertically(t *testing.T) {
	p := &Nearest{Surface: surface.Flat{Z: 2}}
	got := p.Project(v3.Vec{X: 0.25, Y: -0.75, Z: 5})

	assert.InDelta(t, 0.25, got.Point.X, 1e-5)
	assert.InDelta(t, -0.75, got.Point.Y, 1e-5)
	assert.Equal(t, 2.0, got.Point.Z)
}

func TestNearestReportsIterationCap(t *testing.T) {
	p := &Nearest{
		Surface:  surface.Paraboloid{},
		Settings: solve.Settings{Tolerance: 1e-15, MaxIterations: 2},
	}
	got := p.Project(v3.Vec{X: 1, Y: 1, Z: 0})

	assert.False(t, got.Converged())
	assert.ErrorIs(t, got.Err, solve.ErrNonConvergence)
	assert.Equal(t, 2, got.Iterations)
}

func TestRayParaboloid(t *testing.T) {
	eye := v3.Vec{X: 0, Y: 0, Z: 1}
	target := surface.Graph{Field: surface.Paraboloid{}}
	q := v3.Vec{X: 1, Y: 1, Z: 0}

	for _, guess := range []Guess{FromQuery, FromOrigin} {
		t.Run(guess.String(), func(t *testing.T) {
			p := &Ray{Eye: eye, Surface: target, Guess: guess}
			got := p.Project(q)

			require.True(t, got.Converged(), "status %s", got.Status)
			res := surface.RaySystem{Eye: eye, Query: q, Surface: target}.Residual(got.Point)
			assert.Less(t, math.Sqrt(res[0]*res[0]+res[1]*res[1]+res[2]*res[2]), 1e-5)
			assert.InDelta(t, 0.5, got.Point.X, 1e-4)
			assert.InDelta(t, 0.5, got.Point.Y, 1e-4)
			assert.InDelta(t, 0.5, got.Point.Z, 1e-4)
		})
	}
}

func TestRaySphereHitsNearSide(t *testing.T) {
	eye := v3.Vec{X: 0, Y: 0, Z: 5}
	p := &Ray{Eye: eye, Surface: surface.Sphere{Radius: 1}}
	got := p.Project(v3.Vec{X: 0, Y: 0, Z: 0.9})

	require.True(t, got.Converged(), "status %s", got.Status)
	assert.InDelta(t, 0, got.Point.X, 1e-6)
	assert.InDelta(t, 0, got.Point.Y, 1e-6)
	assert.InDelta(t, 1, got.Point.Z, 1e-5)
}

func TestRayDegenerateQuery(t *testing.T) {
	eye := v3.Vec{X: 1, Y: 2, Z: 3}
	p := &Ray{Eye: eye, Surface: surface.Sphere{Radius: 1}}
	got := p.Project(eye)

	assert.Equal(t, solve.Stalled, got.Status)
	assert.ErrorIs(t, got.Err, solve.ErrNonConvergence)
	assert.Equal(t, eye, got.Point)
}

func TestFuncProjector(t *testing.T) {
	var p Projector = Func(func(q v3.Vec) v3.Vec { return v3.Vec{X: q.X, Y: q.Y} })
	got := p.Project(v3.Vec{X: 1, Y: 2, Z: 3})

	assert.True(t, got.Converged())
	assert.Equal(t, v3.Vec{X: 1, Y: 2}, got.Point)
}
