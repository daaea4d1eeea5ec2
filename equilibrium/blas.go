// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package equilibrium

import "math"

// dot computes the inner product of two equal-length float64 vectors.
func dot(a, b []float64) float64 {
	s := 0.0
	for i, v := range a {
		s += v * b[i]
	}
	return s
}

// dotIntFloat computes the inner product of an int vector (monomer
// counts) and a float64 vector (mole fractions).
func dotIntFloat(a []int, b []float64) float64 {
	s := 0.0
	for i, v := range a {
		s += float64(v) * b[i]
	}
	return s
}

// sum adds up a float64 vector.
func sum(a []float64) float64 {
	s := 0.0
	for _, v := range a {
		s += v
	}
	return s
}

// norm computes the Euclidean length of a float64 vector.
func norm(a []float64) float64 {
	return math.Sqrt(dot(a, a))
}

// matVec computes out = H*v for an n x n matrix H stored row-major.
func matVec(h []float64, v, out []float64, n int) {
	for i := 0; i < n; i++ {
		out[i] = dot(h[i*n:i*n+n], v)
	}
}
