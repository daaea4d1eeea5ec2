// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package equilibrium

import "math"

// evalX maps a dual vector lambda to complex mole fractions x, writing
// into x (length numTotal). logx[j] = -G[j] + dot(lambda, AT[j]); any
// entry exceeding maxLogX would overflow exp, and evalX stops there and
// reports the overflow rather than calling math.Exp on it.
func (o *Optimizer) evalX(x, lambda []float64) bool {
	for j := 0; j < o.numTotal; j++ {
		logx := -o.g[j] + dotIntFloat(o.at[j], lambda)
		if logx > maxLogX {
			return false
		}
		x[j] = math.Exp(logx)
	}
	return true
}

// evalGrad computes the gradient of -h(lambda): grad[i] = -X0[i] + dot(x, A[i]).
func (o *Optimizer) evalGrad(grad, x []float64) {
	for i := 0; i < o.numSS; i++ {
		grad[i] = -o.x0[i] + dotIntFloat(o.a[i], x)
	}
}

// evalHessian fills the upper triangle of the numSS x numSS Hessian of
// -h(lambda), stored row-major with stride numSS in hes, then mirrors it
// into the lower triangle. avec is a caller-supplied scratch buffer of
// length numTotal reused across the (m,n) pairs to avoid per-pair
// allocation.
func (o *Optimizer) evalHessian(hes, x, avec []float64) {
	n := o.numSS
	for col := 0; col < n; col++ {
		for row := 0; row <= col; row++ {
			am, an := o.a[row], o.a[col]
			for j := 0; j < o.numTotal; j++ {
				avec[j] = float64(am[j]) * float64(an[j])
			}
			hes[row*n+col] = dot(x, avec)
		}
	}
	for row := 1; row < n; row++ {
		for col := 0; col < row; col++ {
			hes[row*n+col] = hes[col*n+row]
		}
	}
}

// negDualObjective evaluates -h(lambda) = Σx - dot(lambda, X0), the
// quantity the trust-region method minimizes (negh in the original).
func (o *Optimizer) negDualObjective(lambda, x []float64) float64 {
	return sum(x) - dot(lambda, o.x0)
}

// freeEnergy converts a converged solution to the free energy of the
// solution, in kcal per liter: the reference term over monomer targets
// plus the complex term over positive mole fractions, scaled by
// kT*MolesWaterPerLiter.
func (o *Optimizer) freeEnergy(x []float64) float64 {
	fe := 0.0
	for i := 0; i < o.numSS; i++ {
		fe += o.x0[i] * (1.0 - math.Log(o.x0[i]))
	}
	for j := 0; j < o.numTotal; j++ {
		if x[j] > 0 {
			fe += x[j] * (math.Log(x[j]) + o.g[j] - 1.0)
		}
	}
	return fe * o.kt * o.molesWaterPerLiter
}
