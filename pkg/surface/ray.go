package surface

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// RaySystem is the 3x3 nonlinear system whose root is the point P on
// Surface collinear with Eye and Query. Two equations keep P - Eye
// parallel to Query - Eye, the third is the surface equation.
type RaySystem struct {
	Eye     v3.Vec
	Query   v3.Vec
	Surface Implicit
}

// Degenerate reports whether the ray direction is undefined.
func (r RaySystem) Degenerate() bool {
	return r.Query.Sub(r.Eye).Length() == 0
}

// Residual evaluates the system at p.
//
// The parallel constraint uses the two components of (P-E)x(Q-E) that
// do not vanish identically: with k the dominant axis of Q-E, they are
// (P-E)_i*d_k - (P-E)_k*d_i for the remaining axes i.
func (r RaySystem) Residual(p v3.Vec) [3]float64 {
	d := comps(r.Query.Sub(r.Eye))
	w := comps(p.Sub(r.Eye))

	k := 0
	for i := 1; i < 3; i++ {
		if math.Abs(d[i]) > math.Abs(d[k]) {
			k = i
		}
	}
	i, j := (k+1)%3, (k+2)%3
	return [3]float64{
		w[i]*d[k] - w[k]*d[i],
		w[j]*d[k] - w[k]*d[j],
		r.Surface.Value(p),
	}
}

// Func returns the system in the slice form used by the solvers.
func (r RaySystem) Func() func(x, fx []float64) {
	return func(x, fx []float64) {
		res := r.Residual(v3.Vec{X: x[0], Y: x[1], Z: x[2]})
		copy(fx, res[:])
	}
}

func comps(v v3.Vec) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}
