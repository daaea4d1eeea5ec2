// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package equilibrium

import (
	"math"
	"testing"
)

func twoSpeciesOptimizer(t *testing.T) *Optimizer {
	t.Helper()
	p := &Problem{
		A:                  [][]int{{1, 0}, {0, 1}},
		G:                  []float64{0, 0},
		X0:                 []float64{1e-6, 1e-6},
		KT:                 kTRoom(),
		MolesWaterPerLiter: 55.14,
		Stop:               baseStop(),
	}
	o, err := p.New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return o
}

func TestSearchDirBranches(t *testing.T) {
	o := twoSpeciesOptimizer(t)

	spd := []float64{4, 0, 0, 1} // positive definite
	indef := []float64{1, 2, 2, 1} // not positive definite
	grad := []float64{2, 1}
	gradB := []float64{1, 1}

	cases := []struct {
		name  string
		hes   []float64
		grad  []float64
		delta float64
		want  stepTag
	}{
		{"newton inside trust region", spd, grad, 2.0, tagNewton},
		{"cauchy at boundary", spd, grad, 0.1, tagCauchy},
		{"dogleg interpolation", spd, grad, 0.9, tagDogleg},
		{"cholesky fails, cauchy irrelevant to the failure", indef, gradB, 0.3, tagCholFailIrrelevant},
		{"cholesky fails, forced onto cauchy", indef, gradB, 0.6, tagCholFailForcedCauchy},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w := o.Init()
			got := o.searchDir(w, c.grad, c.hes, c.delta)
			if got != c.want {
				t.Fatalf("tag = %v, want %v (p=%v)", got, c.want, w.p)
			}
			if norm(w.p) > c.delta+1e-6 {
				t.Fatalf("||p|| = %v exceeds trust-region radius %v", norm(w.p), c.delta)
			}
		})
	}
}

func TestCauchyPointHelper(t *testing.T) {
	o := twoSpeciesOptimizer(t)
	hes := []float64{4, 0, 0, 1}
	grad := []float64{2, 1}
	delta := 0.1

	out := make([]float64, 2)
	o.CauchyPoint(out, grad, hes, delta)

	if math.Abs(norm(out)-delta) > 1e-9 {
		t.Fatalf("||CauchyPoint|| = %v, want %v", norm(out), delta)
	}
	// The Cauchy point always points along -grad.
	ratio := out[0] / grad[0]
	if math.Abs(out[1]/grad[1]-ratio) > 1e-9 {
		t.Fatalf("CauchyPoint is not parallel to -grad: out=%v grad=%v", out, grad)
	}
	if ratio >= 0 {
		t.Fatalf("CauchyPoint should point opposite the gradient, got ratio %v", ratio)
	}
}
