package ionize

import (
	"math"
	"testing"

	"github.com/samgagnon/cmfast"
	"github.com/samgagnon/cmfast/cosmology"
)

func testContext(t *testing.T, zeta, hiiRoundErr float64) *cmfast.Context {
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
		Zeta:            zeta,
		HIIRoundErr:     hiiRoundErr,
		EpsDensityFloor: 1e-6,
	}
	f := cmfast.Flags{
		BubbleAlgorithm: cmfast.SphereAlgorithm,
		Filter:          cmfast.TophatReal,
	}
	ctx, err := cmfast.NewContext(p, f, cosmology.Planck18(), nil)
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	return ctx
}

// TestComputeIonizedBoxNeutralStart covers scenario S1: at high redshift
// with a negligible expected ionised fraction, the HII_ROUND_ERR early-out
// leaves the box fully neutral.
func TestComputeIonizedBoxNeutralStart(t *testing.T) {
	ctx := testContext(t, 1.0, 0.5)
	n := ctx.Params.HIIDim
	delta := cmfast.NewGrid(n, n, n, "1")

	out, err := ComputeIonizedBox(ctx, 30.0, 31.0, delta, nil, nil, nil)
	if err != nil {
		t.Fatalf("ComputeIonizedBox: %v", err)
	}
	for i, v := range out.XH.Elements {
		if v != 1 {
			t.Fatalf("cell %d: XH=%g, want 1 (neutral start)", i, v)
		}
	}
	for i, v := range out.ZRe.Elements {
		if v != -1 {
			t.Fatalf("cell %d: ZRe=%g, want -1 (never ionised)", i, v)
		}
	}
}

// TestComputeIonizedBoxMonotonicInZeta covers scenario S4: increasing the
// ionising efficiency zeta can only increase (never decrease) the ionised
// fraction of the box, all else equal.
func TestComputeIonizedBoxMonotonicInZeta(t *testing.T) {
	n := 8
	delta := cmfast.NewGrid(n, n, n, "1")

	ionisedFraction := func(zeta float64) float64 {
		ctx := testContext(t, zeta, 1e-6)
		out, err := ComputeIonizedBox(ctx, 12.0, 13.0, delta, nil, nil, nil)
		if err != nil {
			t.Fatalf("ComputeIonizedBox: %v", err)
		}
		sum := 0.0
		for _, v := range out.XH.Elements {
			sum += 1 - v
		}
		return sum / float64(len(out.XH.Elements))
	}

	low := ionisedFraction(20.0)
	high := ionisedFraction(200.0)
	if high < low-1e-9 {
		t.Fatalf("ionised fraction decreased with larger zeta: low=%g high=%g", low, high)
	}
}

// TestComputeIonizedBoxPartialResidual covers scenario S5: a cell that
// never crosses the full ionisation criterion at any smoothing radius
// still receives a partial residual x_H in (0, 1) on the cell-scale (last)
// R, with z_re left unset.
func TestComputeIonizedBoxPartialResidual(t *testing.T) {
	ctx := testContext(t, 5.0, 1e-6)
	n := ctx.Params.HIIDim
	delta := cmfast.NewGrid(n, n, n, "1")

	out, err := ComputeIonizedBox(ctx, 12.0, 13.0, delta, nil, nil, nil)
	if err != nil {
		t.Fatalf("ComputeIonizedBox: %v", err)
	}
	for i, v := range out.XH.Elements {
		if v <= 0 || v >= 1 {
			t.Fatalf("cell %d: XH=%g, want a partial residual in (0,1)", i, v)
		}
		if out.ZRe.Elements[i] != -1 {
			t.Fatalf("cell %d: ZRe=%g, want -1 (partial residual, never fully ionised)", i, out.ZRe.Elements[i])
		}
	}
}

func TestComputeIonizedBoxInvariants(t *testing.T) {
	ctx := testContext(t, 40.0, 1e-6)
	n := ctx.Params.HIIDim
	delta := cmfast.NewGrid(n, n, n, "1")
	out, err := ComputeIonizedBox(ctx, 10.0, 11.0, delta, nil, nil, nil)
	if err != nil {
		t.Fatalf("ComputeIonizedBox: %v", err)
	}
	for i, v := range out.XH.Elements {
		if v < 0 || v > 1 {
			t.Fatalf("cell %d: XH=%g out of [0,1]", i, v)
		}
		if v < 1 && out.ZRe.Elements[i] != -1 && out.ZRe.Elements[i] <= 0 {
			t.Fatalf("cell %d: ZRe=%g invalid for an ionised cell", i, out.ZRe.Elements[i])
		}
		if math.IsNaN(out.TkAllGas.Elements[i]) || out.TkAllGas.Elements[i] <= 0 {
			t.Fatalf("cell %d: TkAllGas=%g must be positive", i, out.TkAllGas.Elements[i])
		}
	}
}
