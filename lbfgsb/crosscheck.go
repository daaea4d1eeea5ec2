// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package lbfgsb is an unmodified vendored copy of the bound-constrained
// L-BFGS-B quasi-Newton solver this module was forked from (cauchy.go,
// driver.go, linesearch.go, linpack.go, minpack.go, optimize.go,
// project.go, subsapce.go, update.go). It is carried whole, not adapted:
// the generalized Cauchy point, subspace minimization, and L-BFGS update
// steps it implements are a single cohesive algorithm with no
// equilibrium-specific seam to generalize, and equilibrium only needs
// it as an independent method to cross-check its own trust-region
// solve against (see equilibrium's TestCrossCheckAgainstLBFGSB). Only
// this file is new: Unconstrained is the one entry point equilibrium
// actually calls, and it skips the vendored package's own test suite
// (which exercises bound handling equilibrium never uses) rather than
// carrying it as further unexercised bulk.
package lbfgsb

// Unconstrained builds an n-dimensional L-BFGS-B optimizer with no
// bounds on any variable, using m correction pairs and stop as its
// termination criteria. It exists for callers that only ever solve
// unconstrained problems and would otherwise repeat the same
// nil-Bounds Problem literal at every call site — for example an
// independent quasi-Newton cross-check of a convex solver that has no
// notion of bounds of its own.
func Unconstrained(n, m int, eval Evaluation, stop Termination) (*Optimizer, error) {
	p := Problem{N: n, M: m, Eval: eval, Stop: stop}
	return p.New(nil)
}
