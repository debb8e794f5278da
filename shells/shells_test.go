package shells

import (
	"testing"

	"github.com/samgagnon/cmfast"
	"github.com/samgagnon/cmfast/cosmology"
)

func testParams() cmfast.Params {
	return cmfast.Params{
		HIIDim:     32,
		DimF:       1.0,
		BoxLen:     100.0,
		RXLyMax:    500.0,
		NShell:     20,
		MTurnFloor: 5e8,
	}
}

func TestBuildScheduleMonotonic(t *testing.T) {
	k := cosmology.Planck18()
	p := testParams()
	massOfR := func(R float64) float64 { return k.RtoM(R) }
	s, err := Build(8.0, p, k, massOfR)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(s.Shells) != p.NShell {
		t.Fatalf("expected %d shells, got %d", p.NShell, len(s.Shells))
	}
	for i := 1; i < len(s.Shells); i++ {
		if s.Shells[i].Z >= s.Shells[i-1].Z {
			t.Fatalf("shell %d: z not strictly decreasing: %g >= %g", i, s.Shells[i].Z, s.Shells[i-1].Z)
		}
		if s.Shells[i].R <= s.Shells[i-1].R {
			t.Fatalf("shell %d: R not strictly increasing: %g <= %g", i, s.Shells[i].R, s.Shells[i-1].R)
		}
	}
}

func TestBuildRejectsSmallNShell(t *testing.T) {
	k := cosmology.Planck18()
	p := testParams()
	p.NShell = 1
	if _, err := Build(8.0, p, k, func(R float64) float64 { return k.RtoM(R) }); err == nil {
		t.Fatal("expected error for NShell < 2")
	}
}

func TestAccumulateShellSplitsContinuumAndInjected(t *testing.T) {
	emis := func(nuPrime float64, pop int) float64 { return 1.0 }
	s := AccumulateShell(10.0, 9.0, 10, true, emis)
	if s.Cont <= 0 {
		t.Fatalf("expected positive continuum term, got %g", s.Cont)
	}
	if s.Inj <= 0 {
		t.Fatalf("expected positive injected term with minihalos on, got %g", s.Inj)
	}
	if s.LyNto2 <= 0 {
		t.Fatalf("expected positive n>2 recycling sum, got %g", s.LyNto2)
	}
}

func TestApplyPrefactorScales(t *testing.T) {
	s := SpectralSums{Cont: 1, Inj: 2, LyNto2: 3, LW: 4}
	out := s.ApplyPrefactor(10.0, 9.0)
	want := 11.0 * 11.0 * 10.0
	if out.Cont != 1*want {
		t.Fatalf("expected Cont scaled by %g, got %g", want, out.Cont)
	}
}

func TestEdgeWeightFindsPartialFraction(t *testing.T) {
	// contributes() stops being true exactly halfway through the interval.
	contributes := func(z float64) bool { return z > 9.5 }
	frac := EdgeWeight(10.0, 9.0, 10, 1000, 10.0, contributes)
	if frac < 0.45 || frac > 0.55 {
		t.Fatalf("expected fraction near 0.5, got %g", frac)
	}
}
