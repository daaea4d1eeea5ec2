// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package equilibrium

import "math"

// numPrecision bounds the float64 slack used when deciding whether a
// step landed exactly on the trust-region boundary (Nocedal & Wright's
// radius-growth test compares ||p|| to delta up to this tolerance).
const numPrecision = 1e-8

// checkTol reports whether every gradient entry is within its absolute
// tolerance, i.e. whether the current lambda already solves the dual
// problem to the requested precision.
func checkTol(grad, absTol []float64) bool {
	for i, g := range grad {
		if math.Abs(g) > absTol[i] {
			return false
		}
	}
	return true
}

// rho evaluates the ratio of actual to predicted reduction in -h for
// the candidate step p taken from lambda (Nocedal & Wright eq. 4.4,
// 4.1). A trial lambda+p that overflows evalX cannot be evaluated
// directly; since the predicted-reduction denominator is always
// positive, such an overflow is reported as rho = -1, rejecting the
// step without it ever being treated as an error.
func (o *Optimizer) rho(ws *Workspace, lambda, p, grad, x, hes []float64) float64 {
	negh := o.negDualObjective(lambda, x)

	for i := range ws.newLambda {
		ws.newLambda[i] = lambda[i] + p[i]
	}

	if !o.evalX(ws.newX, ws.newLambda) {
		return -1.0
	}

	newNegh := o.negDualObjective(ws.newLambda, ws.newX)

	matVec(hes, p, ws.hp, o.numSS)
	pHp := dot(p, ws.hp)

	return (negh - newNegh) / (-dot(grad, p) - pHp/2.0)
}

// attemptResult is the outcome of one trust-region attempt from a
// single initial lambda: either it converged, or it ran out of
// iterations, or it stalled (MaxNoStep consecutive rejected steps), or
// the initial guess itself overflowed evalX before any iteration could
// run at all.
type attemptResult struct {
	converged  bool
	overflowed bool
	iters      int
}

// runAttempt drives the trust-region loop to convergence, exhaustion of
// MaxIters, or MaxNoStep consecutive rejected steps, starting from the
// lambda already staged in ws.lambda (set by initialGuess) and updating
// ws.lambda/ws.x/ws.grad in place as it goes. Per-iteration fallback
// counts are accumulated into stats.
//
// The initial evalX call can genuinely overflow: an unperturbed first
// attempt is never checked for overflow before this point, unlike a
// perturbed restart's lambda, which perturbLambda already validated.
// This is the original program's unrecoverable overflow case and is
// reported rather than panicked on.
func (o *Optimizer) runAttempt(ws *Workspace, stats *RunStats, log *Logger, trial int) attemptResult {
	lambda, x, grad := ws.lambda, ws.x, ws.grad

	if !o.evalX(x, lambda) {
		return attemptResult{overflowed: true}
	}
	o.evalGrad(grad, x)

	delta := 0.99 * o.stop.DeltaBar
	nNoStep := 0
	iters := 0

	for iters < o.stop.MaxIters && !checkTol(grad, ws.absTol) && nNoStep < o.stop.MaxNoStep {
		o.evalHessian(ws.hes, x, ws.avec)

		tag := o.searchDir(ws, grad, ws.hes, delta)
		stats.record(tag)

		r := o.rho(ws, lambda, ws.p, grad, x, ws.hes)

		switch {
		case r < 0.25:
			delta /= 4.0
		case r > 0.75 && math.Abs(norm(ws.p)-delta) < numPrecision:
			delta = math.Min(2.0*delta, o.stop.DeltaBar)
		}

		if r > o.stop.Eta {
			for i := range lambda {
				lambda[i] += ws.p[i]
			}
			nNoStep = 0
		} else {
			nNoStep++
		}

		log.logf(LogIter, "trial=%d iter=%d rho=%.6g delta=%.6g tag=%d", trial, iters, r, delta, tag)

		if !o.evalX(x, lambda) {
			panic("equilibrium: lambda overflowed after an accepted/rejected step; already validated by rho")
		}
		o.evalGrad(grad, x)

		iters++
	}

	return attemptResult{converged: checkTol(grad, ws.absTol), iters: iters}
}
