package halobox

import (
	"math"
	"testing"

	"github.com/samgagnon/cmfast"
	"github.com/samgagnon/cmfast/cosmology"
)

func testContext(t *testing.T, n int) *cmfast.Context {
	t.Helper()
	p := cmfast.Params{
		HIIDim:         n,
		DimF:           1.0,
		BoxLen:         32.0,
		AlphaStar:      0.5,
		AlphaStarMini:  0.0,
		AlphaEsc:       -0.5,
		FStar10:        0.05,
		FStar7Mini:     0.001,
		FEsc10:         0.1,
		FEscMini:       0.1,
		MTurnFloor:     5e8,
		TStar:          0.5,
		LXSFRNorm:      3e40,
		BaryonFraction: 0.16,
		Seed:           1,
	}
	f := cmfast.Flags{UseHaloField: true, NoRNG: true}
	ctx, err := cmfast.NewContext(p, f, cosmology.Planck18(), nil)
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	return ctx
}

func TestComputeHaloBoxDeterministicSingleHalo(t *testing.T) {
	n := 16
	ctx := testContext(t, n)
	delta := cmfast.NewGrid(n, n, n, "1")
	perturb := &PerturbField{Delta: delta}
	halos := &cmfast.HaloCatalogue{Halos: []cmfast.Halo{
		{X: 0, Y: 0, Z: 0, Mass: 1e10},
	}}

	box, err := ComputeHaloBox(ctx, 7.0, perturb, halos, nil)
	if err != nil {
		t.Fatalf("ComputeHaloBox: %v", err)
	}

	cellVol := math.Pow(ctx.Params.BoxLen/float64(n), 3)
	idx0 := box.HaloMass.Idx(0, 0, 0)

	t0 := ComputeTurnovers(7.0, 0, -1, 0, 0, ctx.Cosmo, ctx.Params)
	tH := ctx.Cosmo.TH(7.0)
	props := Compute(halos.Halos[0], t0, 7.0, tH, ctx.Params)

	wantMass := 1e10 / cellVol
	if got := box.HaloMass.Elements[idx0]; math.Abs(got-wantMass)/wantMass > 1e-6 {
		t.Fatalf("HaloMass[0,0,0] = %g, want %g", got, wantMass)
	}
	wantStellar := props.StellarMass / cellVol
	if got := box.StellarMass.Elements[idx0]; math.Abs(got-wantStellar)/math.Max(wantStellar, 1e-30) > 1e-6 {
		t.Fatalf("StellarMass[0,0,0] = %g, want %g", got, wantStellar)
	}

	for i, v := range box.HaloMass.Elements {
		if i == idx0 {
			continue
		}
		if v != 0 {
			t.Fatalf("expected zero HaloMass away from the single halo, got %g at cell %d", v, i)
		}
	}
}

func TestMeanFixIdentity(t *testing.T) {
	n := 8
	g := cmfast.NewGrid(n, n, n, "1")
	for i := range g.Elements {
		g.Elements[i] = float64(i%5) + 1
	}
	var sum float64
	for _, v := range g.Elements {
		sum += v
	}
	boxMean := sum / float64(len(g.Elements))
	expected := boxMean * 2.5

	MeanFix(g, expected)

	var newSum float64
	for _, v := range g.Elements {
		newSum += v
	}
	newMean := newSum / float64(len(g.Elements))
	if math.Abs(newMean-expected)/expected > 1e-6 {
		t.Fatalf("MeanFix: box mean = %g, want %g", newMean, expected)
	}
}
