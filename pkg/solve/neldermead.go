package solve

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// DefaultStep is the initial simplex edge used when no step is given.
const DefaultStep = 1e-3

// Simplex coefficients.
const (
	reflectCoef  = 1.0
	expandCoef   = 2.0
	contractCoef = 0.5
	shrinkCoef   = 0.5
)

// NelderMead minimises f starting from x0 with an initial simplex of
// x0 plus step[i] along each axis. It stops once the simplex size, the
// mean distance of its vertices from their centroid, falls below
// Settings.Tolerance. The best vertex is returned in every case.
func NelderMead(f func(x []float64) float64, x0, step []float64, s Settings) Result {
	s = s.withDefaults(DefaultMinimizeSettings)
	deadline := s.deadline()
	n := len(x0)

	eval := func(x []float64) float64 {
		v := f(x)
		if math.IsNaN(v) {
			return math.Inf(1)
		}
		return v
	}

	pts := make([][]float64, n+1)
	vals := make([]float64, n+1)
	for i := range pts {
		pts[i] = make([]float64, n)
		copy(pts[i], x0)
		if i > 0 {
			h := DefaultStep
			if len(step) == n && step[i-1] != 0 {
				h = step[i-1]
			}
			pts[i][i-1] += h
		}
		vals[i] = eval(pts[i])
	}

	res := Result{Method: "nelder-mead", Tolerance: s.Tolerance, Status: MaxIterationsReached}
	centroid := make([]float64, n)
	xr := make([]float64, n)
	xe := make([]float64, n)
	xc := make([]float64, n)

	for iter := 1; iter <= s.MaxIterations; iter++ {
		res.Iterations = iter
		lo, nh, hi := rank(vals)

		// Centroid of every vertex but the worst.
		for j := range centroid {
			centroid[j] = 0
		}
		for i, p := range pts {
			if i != hi {
				floats.Add(centroid, p)
			}
		}
		floats.Scale(1/float64(n), centroid)

		// xr = c + a(c - x_hi)
		floats.SubTo(xr, centroid, pts[hi])
		floats.AddScaledTo(xr, centroid, reflectCoef, xr)
		fr := eval(xr)

		switch {
		case fr < vals[lo]:
			floats.SubTo(xe, xr, centroid)
			floats.AddScaledTo(xe, centroid, expandCoef, xe)
			if fe := eval(xe); fe < fr {
				replace(pts, vals, hi, xe, fe)
			} else {
				replace(pts, vals, hi, xr, fr)
			}
		case fr < vals[nh]:
			replace(pts, vals, hi, xr, fr)
		default:
			if fr < vals[hi] {
				floats.SubTo(xc, xr, centroid)
			} else {
				floats.SubTo(xc, pts[hi], centroid)
			}
			floats.AddScaledTo(xc, centroid, contractCoef, xc)
			if fc := eval(xc); fc < math.Min(fr, vals[hi]) {
				replace(pts, vals, hi, xc, fc)
			} else {
				for i := range pts {
					if i == lo {
						continue
					}
					floats.Sub(pts[i], pts[lo])
					floats.Scale(shrinkCoef, pts[i])
					floats.Add(pts[i], pts[lo])
					vals[i] = eval(pts[i])
				}
			}
		}

		res.Measure = size(pts, centroid)
		if res.Measure < s.Tolerance {
			res.Status = Converged
			break
		}
		if expired(deadline) {
			res.Status = TimedOut
			break
		}
	}

	best, _, _ := rank(vals)
	res.X = append([]float64(nil), pts[best]...)
	res.Value = vals[best]
	return res
}

// rank returns the indices of the best, second worst and worst values.
func rank(vals []float64) (lo, nh, hi int) {
	lo, hi = 0, 0
	for i, v := range vals {
		if v < vals[lo] {
			lo = i
		}
		if v > vals[hi] {
			hi = i
		}
	}
	if hi == lo {
		// All equal: pick distinct indices so the simplex still moves.
		hi = len(vals) - 1
		if lo == hi {
			lo = 0
		}
	}
	nh = lo
	for i, v := range vals {
		if i != hi && v >= vals[nh] {
			nh = i
		}
	}
	return lo, nh, hi
}

func replace(pts [][]float64, vals []float64, i int, x []float64, v float64) {
	copy(pts[i], x)
	vals[i] = v
}

// size is the mean distance of the simplex vertices from their centroid.
// buf is scratch space of the vertex dimension.
func size(pts [][]float64, buf []float64) float64 {
	for j := range buf {
		buf[j] = 0
	}
	for _, p := range pts {
		floats.Add(buf, p)
	}
	floats.Scale(1/float64(len(pts)), buf)
	var sum float64
	for _, p := range pts {
		sum += floats.Distance(p, buf, 2)
	}
	return sum / float64(len(pts))
}
