// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package equilibrium

import (
	"math/rand"
	"time"
)

// defaultSeed derives a seed from the platform clock when a Problem
// leaves Seed at zero, mirroring the original program's GetRandSeed
// fallback (there, the wall clock; here too, as the nanoseconds since
// the Unix epoch that time.Now().UnixNano() reports).
func defaultSeed() uint64 {
	return uint64(time.Now().UnixNano())
}

// Workspace holds every scratch buffer a Fit call needs, sized once for
// an Optimizer and reused across calls. To avoid race conditions,
// separate workspaces need to be created for each goroutine, but
// multiple workspaces can share one Optimizer.
type Workspace struct {
	numSS, numTotal int

	lambda, x, grad []float64
	hes, hesCopy    []float64 // numSS x numSS, row-major
	p, pB, pU       []float64
	hGrad, hp       []float64
	scratch         []float64 // Cholesky solve's forward-solve buffer
	newLambda       []float64
	newX            []float64
	dummyX          []float64 // perturbLambda's overflow probe
	avec            []float64 // evalHessian's per-pair scratch
	absTol          []float64

	rng *rand.Rand

	// Log receives solver trace if non-nil. The zero value discards
	// everything.
	Log Logger
}

func (w *Workspace) ensureRNG(seed uint64) *rand.Rand {
	if w.rng == nil {
		s := seed
		if s == 0 {
			s = defaultSeed()
		}
		w.rng = rand.New(rand.NewSource(int64(s)))
	}
	return w.rng
}

// RunStats tallies how searchDir resolved each iteration of the final
// attempt of a Fit call (the counters restart with every attempt): how
// many pure Newton steps, pure Cauchy steps,
// dogleg interpolations, and how often Cholesky or the dogleg root
// solve had to fall back. Purely diagnostic; not consulted by the
// convergence decision.
type RunStats struct {
	Newton               int
	Cauchy               int
	Dogleg               int
	CholFailForcedCauchy int
	CholFailIrrelevant   int
	DoglegFailed         int
}

func (s *RunStats) record(tag stepTag) {
	switch tag {
	case tagNewton:
		s.Newton++
	case tagCauchy:
		s.Cauchy++
	case tagDogleg:
		s.Dogleg++
	case tagCholFailForcedCauchy:
		s.CholFailForcedCauchy++
	case tagCholFailIrrelevant:
		s.CholFailIrrelevant++
	case tagDoglegFailed:
		s.DoglegFailed++
	}
}

// Summary reports how a Fit call reached its result.
type Summary struct {
	NumTrials  int // attempts started, including the unperturbed first
	NumIters   int // trust-region iterations spent in the final attempt
	Stats      RunStats
	FreeEnergy float64 // kcal per liter of solution; only meaningful if OK
}

// Result is the outcome of a Fit call.
type Result struct {
	OK     bool      // whether the final attempt converged within tolerance
	X      []float64 // equilibrium mole fraction of every complex
	Lambda []float64 // the dual variables (chemical potentials) at X
	Summary
}

// Init allocates a Workspace sized for o. Reuse it across Fit calls on
// the same Optimizer to avoid repeated allocation.
func (o *Optimizer) Init() *Workspace {
	n, t := o.numSS, o.numTotal
	w := &Workspace{
		numSS: n, numTotal: t,
		lambda: make([]float64, n), x: make([]float64, t), grad: make([]float64, n),
		hes: make([]float64, n*n), hesCopy: make([]float64, n*n),
		p: make([]float64, n), pB: make([]float64, n), pU: make([]float64, n),
		hGrad: make([]float64, n), hp: make([]float64, n),
		scratch:   make([]float64, n),
		newLambda: make([]float64, n), newX: make([]float64, t), dummyX: make([]float64, t),
		avec:   make([]float64, t),
		absTol: make([]float64, n),
	}
	for i, v := range o.x0 {
		w.absTol[i] = o.stop.Tol * v
	}
	return w
}

// Fit computes equilibrium mole fractions for the Optimizer's problem,
// using w for all scratch state. Whenever an attempt stalls or fails
// to converge within Stop.MaxIters, it retries from a perturbed initial
// guess, making at most Stop.MaxTrial attempts in all (the first one
// included), per spec.md's restart-on-stall policy.
func (o *Optimizer) Fit(w *Workspace) *Result {
	if w.numSS != o.numSS || w.numTotal != o.numTotal {
		panic("workspace dimension not match spec")
	}

	var stats RunStats
	var last attemptResult
	trial := 0

	// The original C driver's outer loop continues while the *previous*
	// attempt's gradient fails tolerance and trials remain; since no
	// attempt has run yet, the first iteration here always executes.
	for {
		perturb := trial >= 1
		o.initialGuess(w.lambda, w, perturb)

		stats = RunStats{}
		last = o.runAttempt(w, &stats, &w.Log, trial+1)

		if last.overflowed {
			OverflowHandler(&OverflowError{Trial: trial + 1})
			return &Result{OK: false, Summary: Summary{NumTrials: trial + 1, Stats: stats}}
		}

		trial++
		w.Log.logf(LogSummary, "trial=%d iters=%d converged=%t", trial, last.iters, last.converged)

		if last.converged || trial >= o.stop.MaxTrial {
			break
		}
	}

	res := &Result{
		OK:     last.converged,
		X:      append([]float64(nil), w.x...),
		Lambda: append([]float64(nil), w.lambda...),
		Summary: Summary{
			NumTrials: trial,
			NumIters:  last.iters,
			Stats:     stats,
		},
	}
	if res.OK {
		res.FreeEnergy = o.freeEnergy(w.x)
	}
	return res
}
