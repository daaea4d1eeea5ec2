// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package equilibrium

import "math"

// stepTag classifies how searchDir produced its step, mirroring the
// six outcomes of the original getSearchDir.
type stepTag int

const (
	// tagNewton: the unconstrained Newton step lay inside the trust
	// region and was taken as-is.
	tagNewton stepTag = iota + 1
	// tagCauchy: the Cauchy step reached (or exceeded) the trust-region
	// boundary; the scaled Cauchy direction was taken.
	tagCauchy
	// tagDogleg: neither pure step applied; the dogleg interpolation
	// between the Cauchy and Newton points found a boundary crossing.
	tagDogleg
	// tagCholFailForcedCauchy: Cholesky factorization of the Hessian
	// failed and the Cauchy step lies inside the trust region; with no
	// Newton point to interpolate towards, the full Cauchy step was taken.
	tagCholFailForcedCauchy
	// tagCholFailIrrelevant: Cholesky factorization failed, but the
	// Cauchy step would have been taken regardless since it alone
	// reaches the boundary.
	tagCholFailIrrelevant
	// tagDoglegFailed: the dogleg quadratic had no root in [0,1]; this
	// should not happen given how the problem is constructed, and falls
	// back to the pure Cauchy direction.
	tagDoglegFailed
)

// searchDir computes the trust-region step into ws.p and reports how it
// got there. Notation follows Nocedal & Wright, Numerical Optimization
// (1999), page 71 (dogleg method) built on the trust-region subproblem
// of page 68. grad and hes (row-major, stride numSS) must already
// reflect the current iterate.
func (o *Optimizer) searchDir(ws *Workspace, grad, hes []float64, delta float64) stepTag {
	n := o.numSS
	p := ws.p
	delta2 := delta * delta

	// Newton step: solve Hes*pB = -Grad via the Cholesky factorization
	// of Hes. Only the upper triangle is read/written by cholesky, so a
	// copy of just that triangle suffices.
	for row := 0; row < n; row++ {
		for col := row; col < n; col++ {
			ws.hesCopy[row*n+col] = hes[row*n+col]
		}
	}
	cholOK := cholesky(ws.hesCopy, n)

	var pB2 float64
	if cholOK {
		choleskySolve(ws.hesCopy, n, grad, ws.pB, ws.scratch)
		for i := 0; i < n; i++ {
			ws.pB[i] = -ws.pB[i]
		}
		pB2 = dot(ws.pB, ws.pB)
		if pB2 <= delta2 {
			copy(p, ws.pB)
			return tagNewton
		}
	}

	// Cauchy step: steepest descent scaled to minimize the quadratic
	// model along -Grad.
	matVec(hes, grad, ws.hGrad, n)
	magGrad2 := dot(grad, grad)
	magGradHGrad := dot(grad, ws.hGrad)
	coeff := magGrad2 / magGradHGrad
	for i := 0; i < n; i++ {
		ws.pU[i] = -coeff * grad[i]
	}
	pU2 := dot(ws.pU, ws.pU)

	if pU2 >= delta2 {
		tau := math.Sqrt(delta2 / pU2)
		for i := 0; i < n; i++ {
			p[i] = tau * ws.pU[i]
		}
		if !cholOK {
			return tagCholFailIrrelevant
		}
		return tagCauchy
	}

	if !cholOK {
		copy(p, ws.pU)
		return tagCholFailForcedCauchy
	}

	// Dogleg: find tau in [0,1] with ||pU + tau*(pB-pU)||^2 = delta2.
	pBpU := dot(ws.pB, ws.pU)
	a := pB2 + pU2 - 2.0*pBpU
	b := 2.0 * (pBpU - pU2)
	c := pU2 - delta2
	sgnb := 1.0
	if b < 0 {
		sgnb = -1.0
	}
	q := -0.5 * (b + sgnb*math.Sqrt(b*b-4.0*a*c))
	x1 := q / a
	x2 := c / q

	switch {
	case x2 >= 0 && x2 <= 1.0:
		for i := 0; i < n; i++ {
			p[i] = ws.pU[i] + x2*(ws.pB[i]-ws.pU[i])
		}
		return tagDogleg
	case x1 >= 0 && x1 <= 1.0:
		for i := 0; i < n; i++ {
			p[i] = ws.pU[i] + x1*(ws.pB[i]-ws.pU[i])
		}
		return tagDogleg
	default:
		copy(p, ws.pU)
		return tagDoglegFailed
	}
}

// CauchyPoint computes the pure steepest-descent trust-region step
// (Nocedal & Wright, eq. 4.7/4.8) for the given gradient and Hessian at
// radius delta, writing into out (length NumSpecies). It does not
// consult the Newton direction at all and is never used by Fit's own
// search, kept as an inexpensive alternative for callers that want a
// plain steepest-descent step without the dogleg interpolation.
func (o *Optimizer) CauchyPoint(out, grad, hes []float64, delta float64) {
	n := o.numSS
	hGrad := make([]float64, n)
	matVec(hes, grad, hGrad, n)

	normGrad := norm(grad)
	numerator := normGrad * normGrad * normGrad
	denominator := delta * dot(grad, hGrad)
	tau := numerator / denominator
	if tau > 1.0 {
		tau = 1.0
	}
	coeff := -tau * delta / normGrad
	for i := 0; i < n; i++ {
		out[i] = coeff * grad[i]
	}
}
