package snapshot

import (
	"math"
	"testing"

	"github.com/samgagnon/cmfast"
	"github.com/samgagnon/cmfast/cosmology"
	"github.com/samgagnon/cmfast/halobox"
)

func testContext(t *testing.T) *cmfast.Context {
	t.Helper()
	p := cmfast.Params{
		HIIDim:          8,
		DimF:            1.0,
		BoxLen:          50.0,
		RBubbleMin:      2.0,
		RBubbleMax:      40.0,
		RXLyMax:         300.0,
		NShell:          10,
		NXHII:           20,
		NSpecMax:        10,
		AlphaX:          1.0,
		MTurnFloor:      5e8,
		YHe:             0.245,
		BaryonFraction:  0.16,
		FStar10:         0.05,
		AlphaStar:       0.5,
		FEsc10:          0.1,
		AlphaEsc:        -0.5,
		Zeta:            40.0,
		HIIRoundErr:     1e-6,
		EpsDensityFloor: 1e-6,
		TStar:           0.5,
	}
	f := cmfast.Flags{
		BubbleAlgorithm: cmfast.SphereAlgorithm,
		Filter:          cmfast.TophatReal,
		NoRNG:           true,
	}
	ctx, err := cmfast.NewContext(p, f, cosmology.Planck18(), nil)
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	return ctx
}

// TestRunTwoStepsPreservesInvariants drives the orchestrator across two
// successive redshift steps in non-halo mode and checks the global
// invariants of spec.md §8 hold throughout.
func TestRunTwoStepsPreservesInvariants(t *testing.T) {
	ctx := testContext(t)
	n := ctx.Params.HIIDim
	delta := cmfast.NewGrid(n, n, n, "1")
	perturb := &halobox.PerturbField{Delta: delta}

	res, err := Run(ctx, 15.0, 16.0, perturb, nil, nil)
	if err != nil {
		t.Fatalf("Run step 1: %v", err)
	}
	checkInvariants(t, res)

	res2, err := Run(ctx, 14.0, 15.0, perturb, nil, res.Prev)
	if err != nil {
		t.Fatalf("Run step 2: %v", err)
	}
	checkInvariants(t, res2)
}

func checkInvariants(t *testing.T, res *Result) {
	t.Helper()
	for i, xe := range res.Ts.Xe.Elements {
		if xe < 0 || xe > 1 {
			t.Fatalf("cell %d: xe=%g out of [0,1]", i, xe)
		}
		if res.Ts.Ts.Elements[i] < 0 {
			t.Fatalf("cell %d: Ts=%g must be >= 0", i, res.Ts.Ts.Elements[i])
		}
		if res.Ts.Tk.Elements[i] <= 0 {
			t.Fatalf("cell %d: Tk=%g must be > 0", i, res.Ts.Tk.Elements[i])
		}
	}
	for i, xh := range res.Ionized.XH.Elements {
		if xh < 0 || xh > 1 {
			t.Fatalf("cell %d: xH=%g out of [0,1]", i, xh)
		}
		zre := res.Ionized.ZRe.Elements[i]
		if zre != -1 && zre <= 0 {
			t.Fatalf("cell %d: zRe=%g invalid", i, zre)
		}
		if math.IsNaN(res.Ionized.MFP.Elements[i]) || res.Ionized.MFP.Elements[i] < 0 {
			t.Fatalf("cell %d: MFP=%g must be >= 0", i, res.Ionized.MFP.Elements[i])
		}
	}
}
