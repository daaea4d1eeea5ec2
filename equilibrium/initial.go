// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package equilibrium

import "math"

// initialGuess fills lambda with a fresh starting dual vector: every
// entry set to the smallest per-complex value that keeps every log mole
// fraction at or below maxLogX, i.e.
//
//	LambdaVal = min_j (maxLogX + G[j]) / Σ_i AT[j][i]
//
// If perturb is true (every attempt after the first), lambda is then
// randomly perturbed by perturbLambda. Finally, every inert monomer's
// entry is overwritten with its closed-form value log(X0[i]) + G[j*],
// which also undoes whatever the perturbation did to that entry — an
// inert species' dual variable is exact and never needs searching.
func (o *Optimizer) initialGuess(lambda []float64, ws *Workspace, perturb bool) {
	lambdaVal := (maxLogX + o.g[0]) / o.colSum[0]
	for j := 1; j < o.numTotal; j++ {
		v := (maxLogX + o.g[j]) / o.colSum[j]
		if v < lambdaVal {
			lambdaVal = v
		}
	}
	for i := range lambda {
		lambda[i] = lambdaVal
	}

	if perturb {
		o.perturbLambda(lambda, ws)
	}

	for _, im := range o.inert {
		lambda[im.species] = math.Log(o.x0[im.species]) + o.g[im.complex]
	}
}

// perturbLambda redraws lambda around its current values by
// PerturbScale*U(-1,1) per entry, retrying with a halved scale whenever
// the draw would overflow evalX, until one doesn't. Used to escape a
// trust-region attempt that stalled at the trust-region radius floor.
func (o *Optimizer) perturbLambda(lambda []float64, ws *Workspace) {
	rng := ws.ensureRNG(o.seed)
	scale := o.stop.PerturbScale
	for {
		for i := range lambda {
			ws.newLambda[i] = lambda[i] + scale*2.0*(rng.Float64()-0.5)
		}
		if o.evalX(ws.dummyX, ws.newLambda) {
			copy(lambda, ws.newLambda)
			return
		}
		scale /= 2.0
	}
}
