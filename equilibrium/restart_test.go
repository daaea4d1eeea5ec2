// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package equilibrium

import "testing"

// TestForcedRestartEventuallyConverges exercises the perturbed-restart
// path end to end. Species a, b form complexes {a, b, ab}; a's target
// X0 is close to the largest mole fraction maxLogX allows (e^1) while
// b's is small, so the fresh (unperturbed) initial guess -- which places
// every species at the same lambda -- needs a large, lopsided correction
// for a alone. With DeltaBar set far above the size of that correction,
// the trust-region loop takes the raw Newton step on every iteration
// regardless of how many times it gets rejected, so the attempt
// overflows evalX identically MaxNoStep times running and stalls
// without ever moving lambda. A perturbed restart redraws lambda
// away from that exact alignment, and with a MaxTrial budget this
// generous, convergence from one of the perturbed starts is overwhelmingly
// likely.
func TestForcedRestartEventuallyConverges(t *testing.T) {
	p := &Problem{
		A: [][]int{
			{1, 0, 1},
			{0, 1, 1},
		},
		G:                  []float64{0, 0, -3},
		X0:                 []float64{2, 0.05},
		KT:                 kTRoom(),
		MolesWaterPerLiter: 55.14,
		Stop: Termination{
			MaxIters:     500,
			Tol:          1e-9,
			DeltaBar:     2_000_000,
			Eta:          0.1,
			MaxNoStep:    9,
			MaxTrial:     50,
			PerturbScale: 1.0,
		},
		Seed: 7,
	}
	o, err := p.New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	w := o.Init()
	r := o.Fit(w)

	if r.NumTrials <= 1 {
		t.Fatalf("expected the unperturbed attempt to stall and trigger at least one restart, got NumTrials=%d", r.NumTrials)
	}
	if !r.OK {
		t.Fatalf("expected eventual convergence after %d trials", r.NumTrials)
	}
	if len(r.X) != o.numTotal {
		t.Fatalf("expected x of length %d, got %d", o.numTotal, len(r.X))
	}
	for j, xj := range r.X {
		if xj < 0 {
			t.Fatalf("x[%d] = %v is negative", j, xj)
		}
	}
}
