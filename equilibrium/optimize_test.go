// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package equilibrium

import (
	"math"
	"testing"
)

func kTRoom() float64 { return 0.5933 }

// dimerProblem builds the two-monomer system from the corpus test: a,b
// forming complexes {a, b, ab, aa, bb}, plus an inert species c that
// only ever appears in its own singleton complex.
func dimerProblem(t *testing.T) *Optimizer {
	t.Helper()
	p := &Problem{
		A: [][]int{
			// a   b   ab  aa  bb  c
			{1, 0, 1, 2, 0, 0},
			{0, 1, 1, 0, 2, 0},
			{0, 0, 0, 0, 0, 1},
		},
		G:                  []float64{0, 0, -6.0, -3.0, -4.0, 0},
		X0:                 []float64{1e-6, 1e-6, 1e-7},
		KT:                 kTRoom(),
		MolesWaterPerLiter: 55.14,
		Stop: Termination{
			MaxIters:     500,
			Tol:          1e-12,
			DeltaBar:     5.0,
			Eta:          1e-4,
			MaxNoStep:    50,
			MaxTrial:     20,
			PerturbScale: 1.0,
		},
		Seed: 1,
	}
	o, err := p.New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return o
}

func TestTrivialSingleComplex(t *testing.T) {
	p := &Problem{
		A:                  [][]int{{1}},
		G:                  []float64{0},
		X0:                 []float64{3.5e-6},
		KT:                 kTRoom(),
		MolesWaterPerLiter: 55.14,
		Stop:               baseStop(),
	}
	o, err := p.New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	w := o.Init()
	r := o.Fit(w)

	if !r.OK {
		t.Fatal("expected convergence on trivial m=n=1 system")
	}
	if math.Abs(r.X[0]-p.X0[0]) > 1e-9*p.X0[0] {
		t.Fatalf("x = %v, want %v", r.X[0], p.X0[0])
	}
	if r.NumTrials != 1 {
		t.Fatalf("expected a single attempt, got %d", r.NumTrials)
	}
}

func TestSingleStrandAggregation(t *testing.T) {
	// Species: a. Complexes: a, aa, aaa.
	p := &Problem{
		A:                  [][]int{{1, 2, 3}},
		G:                  []float64{0, -1, -2},
		X0:                 []float64{1e-4},
		KT:                 kTRoom(),
		MolesWaterPerLiter: 55.14,
		Stop:               baseStop(),
	}
	o, err := p.New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	w := o.Init()
	r := o.Fit(w)

	if !r.OK {
		t.Fatal("expected convergence")
	}
	massBalance := 1*r.X[0] + 2*r.X[1] + 3*r.X[2]
	if math.Abs(massBalance-p.X0[0]) > p.Stop.Tol*p.X0[0]*10 {
		t.Fatalf("mass balance violated: got %v, want %v", massBalance, p.X0[0])
	}
	for j, xj := range r.X {
		if xj < 0 || math.IsNaN(xj) || math.IsInf(xj, 0) {
			t.Fatalf("x[%d] = %v is not a finite non-negative value", j, xj)
		}
	}
}

func TestInertMonomerExact(t *testing.T) {
	o := dimerProblem(t)
	w := o.Init()
	r := o.Fit(w)

	if !r.OK {
		t.Fatal("expected convergence")
	}
	// c (species 2) is inert and only appears in complex 5.
	want := o.x0[2]
	got := r.X[5]
	if math.Abs(got-want) > 1e-8*want {
		t.Fatalf("inert complex mole fraction = %v, want %v", got, want)
	}
}

func TestMassBalanceAtConvergence(t *testing.T) {
	o := dimerProblem(t)
	w := o.Init()
	r := o.Fit(w)

	if !r.OK {
		t.Fatal("expected convergence")
	}
	for i := 0; i < o.numSS; i++ {
		balance := dotIntFloat(o.a[i], r.X)
		tol := o.stop.Tol * o.x0[i]
		if math.Abs(balance-o.x0[i]) > tol*10 {
			t.Fatalf("species %d mass balance: got %v, want %v (tol %v)", i, balance, o.x0[i], tol)
		}
	}
}

func TestMassActionIdentity(t *testing.T) {
	o := dimerProblem(t)
	w := o.Init()
	r := o.Fit(w)

	if !r.OK {
		t.Fatal("expected convergence")
	}
	// log x[ab] = -G[ab] + lambda[a] + lambda[b]
	lhs := math.Log(r.X[2])
	rhs := -o.g[2] + r.Lambda[0] + r.Lambda[1]
	if math.Abs(lhs-rhs) > 1e-6 {
		t.Fatalf("mass-action identity violated for ab: log x = %v, want %v", lhs, rhs)
	}
}

func TestOutputsFiniteAndNonNegative(t *testing.T) {
	o := dimerProblem(t)
	w := o.Init()
	r := o.Fit(w)

	for j, xj := range r.X {
		if xj < 0 || math.IsNaN(xj) || math.IsInf(xj, 0) {
			t.Fatalf("x[%d] = %v is not finite and non-negative", j, xj)
		}
	}
}

func TestExhaustsMaxTrialWithPartialX(t *testing.T) {
	stop := baseStop()
	stop.MaxIters = 1
	stop.MaxTrial = 1
	stop.Tol = 1e-14 // unreachable in a single iteration
	p := &Problem{
		A: [][]int{
			{1, 0, 1, 2, 0},
			{0, 1, 1, 0, 2},
		},
		G:                  []float64{0, 0, -6.0, -3.0, -4.0},
		X0:                 []float64{1e-6, 1e-6},
		KT:                 kTRoom(),
		MolesWaterPerLiter: 55.14,
		Stop:               stop,
	}
	o, err := p.New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	w := o.Init()
	r := o.Fit(w)

	if r.OK {
		t.Fatal("expected non-convergence with MaxIters=MaxTrial=1 and an unreachable tolerance")
	}
	if len(r.X) != o.numTotal {
		t.Fatalf("expected partial x of length %d, got %d", o.numTotal, len(r.X))
	}
	if r.NumTrials != 1 {
		t.Fatalf("expected exactly one attempt, got %d", r.NumTrials)
	}
}

func TestDeterministicAcrossRepeatedCalls(t *testing.T) {
	o1 := dimerProblem(t)
	o2 := dimerProblem(t)

	r1 := o1.Fit(o1.Init())
	r2 := o2.Fit(o2.Init())

	if !r1.OK || !r2.OK {
		t.Fatal("expected both calls to converge")
	}
	for j := range r1.X {
		if r1.X[j] != r2.X[j] {
			t.Fatalf("non-deterministic result at x[%d]: %v vs %v", j, r1.X[j], r2.X[j])
		}
	}
}

func TestRadiusGrowsAcrossIterations(t *testing.T) {
	// A deltaBar small enough that early steps are cut at the trust-region
	// boundary lets a well-predicted boundary step expand the radius past
	// its conservative starting value at least once.
	o := dimerProblem(t)
	w := o.Init()
	w.Log.Level = LogIter

	deltaBar := 1.0
	grew := false
	prevDelta := 0.99 * deltaBar
	o.initialGuess(w.lambda, w, false)
	if !o.evalX(w.x, w.lambda) {
		t.Fatal("unexpected overflow on fresh initial guess")
	}
	o.evalGrad(w.grad, w.x)

	delta := prevDelta
	for iters := 0; iters < o.stop.MaxIters && !checkTol(w.grad, w.absTol); iters++ {
		o.evalHessian(w.hes, w.x, w.avec)
		o.searchDir(w, w.grad, w.hes, delta)
		r := o.rho(w, w.lambda, w.p, w.grad, w.x, w.hes)

		switch {
		case r < 0.25:
			delta /= 4.0
		case r > 0.75 && math.Abs(norm(w.p)-delta) < numPrecision:
			newDelta := math.Min(2.0*delta, deltaBar)
			if newDelta > delta {
				grew = true
			}
			delta = newDelta
		}
		if r > o.stop.Eta {
			for i := range w.lambda {
				w.lambda[i] += w.p[i]
			}
		}
		if !o.evalX(w.x, w.lambda) {
			t.Fatal("unexpected overflow")
		}
		o.evalGrad(w.grad, w.x)
	}

	if !grew {
		t.Fatal("radius never grew across the iterations")
	}
}
