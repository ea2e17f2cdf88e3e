package solve

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// maxBacktracks bounds the step halvings tried per Broyden iteration.
const maxBacktracks = 10

// Broyden finds a root of the square system F starting from x0 using
// Broyden's rank-one Jacobian updates. The Jacobian is seeded, and
// reseeded whenever a step fails to reduce the residual or the update
// goes singular, by forward differences. Convergence is ‖F(x)‖₂ below
// Settings.Tolerance; the iterate with the smallest residual is returned
// in every case.
func Broyden(F func(x, fx []float64), x0 []float64, s Settings) Result {
	s = s.withDefaults(DefaultRootSettings)
	deadline := s.deadline()
	n := len(x0)

	x := append([]float64(nil), x0...)
	fx := make([]float64, n)
	F(x, fx)
	norm := residualNorm(fx)

	res := Result{Method: "broyden", Tolerance: s.Tolerance, Status: MaxIterationsReached}
	best := append([]float64(nil), x...)
	bestNorm := norm

	if norm < s.Tolerance {
		res.Status = Converged
		res.X, res.Value, res.Measure = best, bestNorm, bestNorm
		return res
	}

	jac := mat.NewDense(n, n, nil)
	jacobian(F, x, fx, jac)
	fresh := true

	var dx mat.VecDense
	xn := make([]float64, n)
	fn := make([]float64, n)
	step := make([]float64, n)

	for iter := 1; iter <= s.MaxIterations; iter++ {
		res.Iterations = iter

		rhs := mat.NewVecDense(n, nil)
		rhs.ScaleVec(-1, mat.NewVecDense(n, fx))
		if err := dx.SolveVec(jac, rhs); singular(err) || !finiteSlice(dx.RawVector().Data) {
			if fresh {
				res.Status = Stalled
				break
			}
			jacobian(F, x, fx, jac)
			fresh = true
			continue
		}

		// Backtrack along the Newton direction until the residual drops.
		t := 1.0
		nn := math.Inf(1)
		for k := 0; k < maxBacktracks; k++ {
			for j := range xn {
				step[j] = t * dx.AtVec(j)
			}
			floats.AddTo(xn, x, step)
			F(xn, fn)
			if nn = residualNorm(fn); nn < norm {
				break
			}
			t /= 2
		}

		if !(nn < norm) {
			if fresh {
				res.Status = Stalled
				break
			}
			jacobian(F, x, fx, jac)
			fresh = true
			continue
		}

		// J += ((Δf - J·Δx) Δxᵀ) / (Δx·Δx)
		sv := mat.NewVecDense(n, append([]float64(nil), step...))
		var js mat.VecDense
		js.MulVec(jac, sv)
		df := make([]float64, n)
		floats.SubTo(df, fn, fx)
		u := mat.NewVecDense(n, nil)
		u.SubVec(mat.NewVecDense(n, df), &js)
		if ss := floats.Dot(step, step); ss > 0 {
			jac.RankOne(jac, 1/ss, u, sv)
		}
		fresh = false

		copy(x, xn)
		copy(fx, fn)
		norm = nn
		if norm < bestNorm {
			copy(best, x)
			bestNorm = norm
		}
		if norm < s.Tolerance {
			res.Status = Converged
			break
		}
		if expired(deadline) {
			res.Status = TimedOut
			break
		}
	}

	res.X, res.Value, res.Measure = best, bestNorm, bestNorm
	return res
}

// jacobian fills J with forward differences of F around x, where
// fx = F(x).
func jacobian(F func(x, fx []float64), x, fx []float64, J *mat.Dense) {
	n := len(x)
	xp := append([]float64(nil), x...)
	fp := make([]float64, n)
	sqrtEps := math.Sqrt(2.220446049250313e-16)
	for j := 0; j < n; j++ {
		h := sqrtEps * math.Max(math.Abs(x[j]), 1)
		xp[j] = x[j] + h
		F(xp, fp)
		for i := 0; i < n; i++ {
			J.Set(i, j, (fp[i]-fx[i])/h)
		}
		xp[j] = x[j]
	}
}

func residualNorm(fx []float64) float64 {
	if !finiteSlice(fx) {
		return math.Inf(1)
	}
	return floats.Norm(fx, 2)
}

// singular reports whether a solve failed outright. Finite condition
// warnings still yield a usable solution.
func singular(err error) bool {
	if err == nil {
		return false
	}
	var c mat.Condition
	if errors.As(err, &c) {
		return math.IsInf(float64(c), 1)
	}
	return true
}

func finiteSlice(v []float64) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
