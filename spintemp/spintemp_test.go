package spintemp

import (
	"math"
	"testing"

	"github.com/samgagnon/cmfast"
	"github.com/samgagnon/cmfast/cosmology"
	"github.com/samgagnon/cmfast/shells"
)

func testContext(t *testing.T, n int) *cmfast.Context {
	t.Helper()
	p := cmfast.Params{
		HIIDim:     n,
		DimF:       1.0,
		BoxLen:     50.0,
		RXLyMax:    300.0,
		NShell:     10,
		NXHII:      20,
		NSpecMax:   10,
		AlphaX:     1.0,
		MTurnFloor: 5e8,
		YHe:        0.245,
	}
	f := cmfast.Flags{UseTsFluct: true}
	ctx, err := cmfast.NewContext(p, f, cosmology.Planck18(), nil)
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	return ctx
}

func TestComputeSpinTemperatureAboveZHeatMax(t *testing.T) {
	n := 8
	ctx := testContext(t, n)
	delta := cmfast.NewGrid(n, n, n, "1")
	out, err := ComputeSpinTemperature(ctx, 50.0, 51.0, delta, nil, &XraySourceBox{}, 1e-4)
	if err != nil {
		t.Fatalf("ComputeSpinTemperature: %v", err)
	}
	wantTk := ctx.Cosmo.TRecfast(50.0)
	for i, v := range out.Tk.Elements {
		if math.Abs(v-wantTk) > 1e-9 {
			t.Fatalf("cell %d: Tk=%g, want %g (Recfast closed form)", i, v, wantTk)
		}
	}
}

func TestComputeSpinTemperatureUniformBelowZHeatMax(t *testing.T) {
	n := 8
	ctx := testContext(t, n)
	delta := cmfast.NewGrid(n, n, n, "1") // constant delta = 0

	sfr := cmfast.NewGrid(n, n, n, "Msun/yr/Mpc^3")
	for i := range sfr.Elements {
		sfr.Elements[i] = 1.0
	}

	// Build xrs with the same schedule ComputeSpinTemperature will derive
	// internally, so shell counts line up.
	massOfR := func(R float64) float64 { return ctx.Cosmo.RtoM(R) }
	sched, err := shells.Build(20.0, ctx.Params, ctx.Cosmo, massOfR)
	if err != nil {
		t.Fatalf("building test schedule: %v", err)
	}
	xrs := BuildFromHaloField(sched, sfr, ctx.Params.BoxLen, ctx.Params.DimF)

	out, err := ComputeSpinTemperature(ctx, 20.0, 21.0, delta, nil, xrs, 1e-4)
	if err != nil {
		t.Fatalf("ComputeSpinTemperature: %v", err)
	}

	first := out.Ts.Elements[0]
	for i, v := range out.Ts.Elements {
		if math.Abs(v-first) > 1e-6*math.Max(math.Abs(first), 1) {
			t.Fatalf("cell %d: Ts=%g not uniform with cell 0 Ts=%g", i, v, first)
		}
		if v <= 0 {
			t.Fatalf("cell %d: Ts=%g must be positive", i, v)
		}
	}
	for _, v := range out.Tk.Elements {
		if v <= 0 {
			t.Fatalf("Tk must stay positive, got %g", v)
		}
	}
	for _, v := range out.Xe.Elements {
		if v < 0 || v > 1 {
			t.Fatalf("xe out of [0,1]: %g", v)
		}
	}
}
