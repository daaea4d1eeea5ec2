// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package equilibrium

import (
	"errors"
	"fmt"
)

// maxLogX bounds the exponent argument passed to exp when mapping a dual
// vector to mole fractions (Dirks et al., "Thermodynamic analysis of
// interacting nucleic acid strands"). A value near this bound corresponds
// to a mole fraction of about e^1 ≈ 2.7, comfortably above anything a
// dilute aqueous system can actually reach.
const maxLogX = 1.0

// Termination controls the trust-region driver's stopping and restart
// policy. See Nocedal & Wright, Numerical Optimization (1999), ch. 4,
// for the ρ/δ update this tunes.
type Termination struct {
	// MaxIters bounds the number of trust-region iterations within a
	// single attempt.
	MaxIters int
	// Tol is the relative gradient tolerance: convergence requires
	// |g[i]| <= Tol*X0[i] for every monomer i.
	Tol float64
	// DeltaBar caps the trust-region radius.
	DeltaBar float64
	// Eta gates step acceptance; 0 < Eta < 0.25.
	Eta float64
	// MaxNoStep is the number of consecutive rejected steps that ends
	// an attempt and triggers a perturbed restart.
	MaxNoStep int
	// MaxTrial bounds the total number of attempts: the unperturbed
	// first attempt plus every perturbed restart.
	MaxTrial int
	// PerturbScale is the half-width of the uniform perturbation applied
	// to lambda on restart; it is halved whenever a draw overflows.
	PerturbScale float64
}

// Problem specifies a dilute multi-species aggregation system: a
// stoichiometry matrix A, per-complex standard free energies G and
// target monomer mole fractions X0.
type Problem struct {
	// A[i][j] is the number of monomers of species i in complex j.
	A [][]int
	// G holds the standard free energy of every complex, in units of
	// kT, ordered identically to the columns of A.
	G []float64
	// X0 holds the target mole fraction of every monomer species; every
	// entry must be strictly positive.
	X0 []float64
	// KT is kT, in kcal/mol.
	KT float64
	// MolesWaterPerLiter converts the dimensionless free energy sum
	// into kcal per liter of solution.
	MolesWaterPerLiter float64
	// Stop configures the trust-region driver.
	Stop Termination
	// Seed drives the perturbed-restart random offsets. Zero derives a
	// seed from the platform clock the first time a restart occurs.
	Seed uint64
}

// inertMonomer is a monomer whose row of A has a single nonzero entry:
// it participates only in its own singleton complex, so its dual
// variable has a closed-form solution and never needs iteration.
type inertMonomer struct {
	species int // i
	complex int // j*, the unique column with A[i][j*] != 0
}

// problemSpec is the immutable, precomputed form of Problem an Optimizer
// carries. It is built once by Problem.New and never mutated.
type problemSpec struct {
	numSS, numTotal int
	a               [][]int     // numSS x numTotal
	at              [][]int     // numTotal x numSS, transpose of a
	g               []float64   // numTotal
	x0              []float64   // numSS
	kt              float64
	molesWaterPerLiter float64
	stop            Termination
	seed            uint64
	inert           []inertMonomer
	colSum          []float64 // per complex j, sum_i AT[j][i] as float64
}

// Optimizer is a validated, immutable problem ready to be solved. Build
// one with (*Problem).New and drive it with a per-call Workspace.
type Optimizer struct {
	problemSpec
}

// New validates the problem and precomputes the artifacts the solver
// needs on every call (transpose, per-complex atom counts, inert-monomer
// table). The Problem is never mutated afterward and may be reused to
// build further Optimizers.
func (p *Problem) New() (*Optimizer, error) {
	numSS := len(p.A)
	var numTotal int
	if numSS > 0 {
		numTotal = len(p.A[0])
	}

	stop := p.Stop
	var err error
	switch {
	case numSS == 0:
		err = errors.New("equilibrium: stoichiometry matrix A has no rows")
	case numTotal == 0:
		err = errors.New("equilibrium: stoichiometry matrix A has no columns")
	case len(p.G) != numTotal:
		err = errors.New("equilibrium: G length must equal the number of complexes")
	case len(p.X0) != numSS:
		err = errors.New("equilibrium: X0 length must equal the number of monomer species")
	case p.KT <= 0:
		err = errors.New("equilibrium: KT must be positive")
	case p.MolesWaterPerLiter <= 0:
		err = errors.New("equilibrium: MolesWaterPerLiter must be positive")
	case stop.MaxIters < 1:
		err = errors.New("equilibrium: MaxIters must be at least 1")
	case stop.Tol <= 0:
		err = errors.New("equilibrium: Tol must be positive")
	case stop.DeltaBar <= 0:
		err = errors.New("equilibrium: DeltaBar must be positive")
	case stop.Eta <= 0 || stop.Eta >= 0.25:
		err = errors.New("equilibrium: Eta must satisfy 0 < Eta < 0.25")
	case stop.MaxNoStep < 1:
		err = errors.New("equilibrium: MaxNoStep must be at least 1")
	case stop.MaxTrial < 1:
		err = errors.New("equilibrium: MaxTrial must be at least 1")
	case stop.PerturbScale <= 0:
		err = errors.New("equilibrium: PerturbScale must be positive")
	}
	if err != nil {
		return nil, err
	}

	for i, row := range p.A {
		if len(row) != numTotal {
			return nil, fmt.Errorf("equilibrium: row %d of A has %d columns, want %d", i, len(row), numTotal)
		}
		for j, v := range row {
			if v < 0 {
				return nil, fmt.Errorf("equilibrium: A[%d][%d] is negative", i, j)
			}
		}
	}
	for i, v := range p.X0 {
		if v <= 0 {
			return nil, fmt.Errorf("equilibrium: X0[%d] must be positive", i)
		}
	}

	at := make([][]int, numTotal)
	for j := 0; j < numTotal; j++ {
		at[j] = make([]int, numSS)
		for i := 0; i < numSS; i++ {
			at[j][i] = p.A[i][j]
		}
	}

	colSum := make([]float64, numTotal)
	for j := 0; j < numTotal; j++ {
		s := 0
		for i := 0; i < numSS; i++ {
			s += at[j][i]
		}
		colSum[j] = float64(s)
		if colSum[j] <= 0 {
			return nil, fmt.Errorf("equilibrium: complex %d contains no monomers", j)
		}
	}

	var inert []inertMonomer
	for i := 0; i < numSS; i++ {
		rowSum, nz := 0, -1
		for j, v := range p.A[i] {
			rowSum += v
			if v != 0 {
				nz = j
			}
		}
		if rowSum == 1 {
			inert = append(inert, inertMonomer{species: i, complex: nz})
		}
	}

	a := make([][]int, numSS)
	for i := range p.A {
		a[i] = append([]int(nil), p.A[i]...)
	}

	return &Optimizer{problemSpec{
		numSS:              numSS,
		numTotal:           numTotal,
		a:                  a,
		at:                 at,
		g:                  append([]float64(nil), p.G...),
		x0:                 append([]float64(nil), p.X0...),
		kt:                 p.KT,
		molesWaterPerLiter: p.MolesWaterPerLiter,
		stop:               stop,
		seed:               p.Seed,
		inert:              inert,
		colSum:             colSum,
	}}, nil
}

// NumSpecies returns the number of monomer species (rows of A).
func (o *Optimizer) NumSpecies() int { return o.numSS }

// NumComplexes returns the number of cataloged complexes (columns of A).
func (o *Optimizer) NumComplexes() int { return o.numTotal }
