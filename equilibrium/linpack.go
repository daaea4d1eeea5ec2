// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package equilibrium

import "math"

// cholesky factors the upper triangle of an n x n symmetric matrix a,
// stored row-major with stride n, as a = Rᵀ*R with R upper triangular.
// The upper triangle of a is overwritten with R; the strict lower
// triangle is left untouched. Returns false the moment a leading minor
// turns out not to be positive definite, in which case a is left
// partially factored and must not be reused.
//
// Adapted from LINPACK's DPOFA (outer-product Cholesky factorization),
// specialized to row-major storage with unit stride.
func cholesky(a []float64, n int) bool {
	for j := 0; j < n; j++ {
		s := 0.0
		for k := 0; k < j; k++ {
			t := a[k*n+j] - dotColumn(a, n, k, j, k)
			t /= a[k*n+k]
			a[k*n+j] = t
			s += t * t
		}
		s = a[j*n+j] - s
		if s <= 0 {
			return false
		}
		a[j*n+j] = math.Sqrt(s)
	}
	return true
}

// dotColumn computes the inner product of the first count entries of
// columns col1 and col2 of an n-wide row-major matrix a.
func dotColumn(a []float64, n, col1, col2, count int) float64 {
	s := 0.0
	for i := 0; i < count; i++ {
		s += a[i*n+col1] * a[i*n+col2]
	}
	return s
}

// choleskySolve solves Rᵀ*R*x = b given the upper-triangular Cholesky
// factor R produced by cholesky, via a forward solve of Rᵀ*y = b
// followed by a backward solve of R*x = y. scratch must have length n
// and is used to hold y.
//
// Adapted from LINPACK's DTRSL triangular solve, specialized to the
// two triangular systems a Cholesky solve needs.
func choleskySolve(r []float64, n int, b, x, scratch []float64) {
	y := scratch

	// Forward solve Rᵀ*y = b: row j of Rᵀ is column j of R.
	y[0] = b[0] / r[0]
	for j := 1; j < n; j++ {
		s := 0.0
		for k := 0; k < j; k++ {
			s += r[k*n+j] * y[k]
		}
		y[j] = (b[j] - s) / r[j*n+j]
	}

	// Backward solve R*x = y.
	x[n-1] = y[n-1] / r[(n-1)*n+(n-1)]
	for j := n - 2; j >= 0; j-- {
		s := 0.0
		for k := j + 1; k < n; k++ {
			s += r[j*n+k] * x[k]
		}
		x[j] = (y[j] - s) / r[j*n+j]
	}
}
