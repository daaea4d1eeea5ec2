// Package numdiff cross-checks an analytic Jacobian against a
// central-difference approximation. It is a deliberately narrow
// rebuild of the finite-difference machinery a generic numerical
// toolkit would carry (forward differences, bound-constrained step
// adjustment, transposed output): equilibrium only ever calls Compare
// unbounded, on the central scheme, so those code paths never had a
// caller to keep them honest.
//
// # Reference
//
//   - https://en.wikipedia.org/wiki/Finite_difference
//   - https://github.com/scipy/scipy/blob/main/scipy/optimize/_numdiff.py
package numdiff

import (
	"fmt"
	"math"
)

var cubeEps = math.Pow(math.Nextafter(1, 2)-1, 1.0/3.0)

// centralDiff fills diff (length len(x0)*m, column j at diff[i+j*n])
// with a central-difference approximation of object's Jacobian at x0.
// object writes an m-vector into y given an n-vector x; x0 is mutated
// and restored around each evaluation.
func centralDiff(x0 []float64, m int, object func(x, y []float64), diff []float64) {
	n := len(x0)
	f1 := make([]float64, m)
	f2 := make([]float64, m)
	for i, v := range x0 {
		h := math.Copysign(cubeEps, v) * math.Max(1.0, math.Abs(v))
		x0[i] = v - h
		object(x0, f1)
		x0[i] = v + h
		object(x0, f2)
		x0[i] = v

		d := 1.0 / (2 * h)
		for j := 0; j < m; j++ {
			diff[i+j*n] = (f2[j] - f1[j]) * d
		}
	}
}

// Compare checks an analytic Jacobian against a central-difference
// approximation of object at x0, returning an error describing the
// largest disagreement if any entry differs by more than tol. n and m
// are object's input and output dimensions; jac must hold the analytic
// partials in the same n*m column-major layout centralDiff produces.
//
// Useful for cross-checking a hand-derived gradient or Hessian (treated
// as the Jacobian of the gradient) against a finite-difference estimate
// without repeating the differencing scheme at every call site.
func Compare(n, m int, object func(x, y []float64), jac []float64, x0 []float64, tol float64) error {
	if n != len(x0) || n*m != len(jac) {
		return fmt.Errorf("numdiff: dimension mismatch: n=%d m=%d len(x0)=%d len(jac)=%d", n, m, len(x0), len(jac))
	}

	x := append([]float64(nil), x0...)
	approx := make([]float64, n*m)
	centralDiff(x, m, object, approx)

	worst := 0.0
	worstAt := -1
	for i, a := range approx {
		d := math.Abs(a - jac[i])
		if d > worst {
			worst = d
			worstAt = i
		}
	}
	if worst > tol {
		return fmt.Errorf("numdiff: entry %d differs by %g (analytic=%g, approx=%g)", worstAt, worst, jac[worstAt], approx[worstAt])
	}
	return nil
}
