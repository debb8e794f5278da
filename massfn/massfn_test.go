package massfn

import (
	"math"
	"testing"

	"github.com/samgagnon/cmfast/cosmology"
)

const rhoM0Test = 2.775e11 * 0.3111 * 0.6766 * 0.6766 // Msun/Mpc^3, Planck18

func testStarParams() StarParams {
	return StarParams{
		FStar10:        0.05,
		AlphaStar:      0.5,
		FEsc10:         0.1,
		AlphaEsc:       -0.5,
		MLimStar:       1e8,
		MLimEsc:        1e8,
		BaryonFraction: 0.16,
	}
}

func TestFcollGeneralMonotonicInMmin(t *testing.T) {
	k := cosmology.Planck18()
	z := 8.0
	f1 := FcollGeneral(z, 1e8, 1e14, k, rhoM0Test)
	f2 := FcollGeneral(z, 1e9, 1e14, k, rhoM0Test)
	if !(f1 > f2) {
		t.Fatalf("Fcoll should decrease as Mmin rises: Fcoll(1e8)=%g Fcoll(1e9)=%g", f1, f2)
	}
	if f1 < 0 || f1 > 1 || f2 < 0 || f2 > 1 {
		t.Fatalf("Fcoll out of [0,1]: f1=%g f2=%g", f1, f2)
	}
}

func TestFcollGeneralMonotonicInRedshift(t *testing.T) {
	k := cosmology.Planck18()
	fLow := FcollGeneral(6.0, 1e9, 1e14, k, rhoM0Test)
	fHigh := FcollGeneral(12.0, 1e9, 1e14, k, rhoM0Test)
	if !(fLow > fHigh) {
		t.Fatalf("collapsed fraction should fall with increasing z: z=6 -> %g, z=12 -> %g", fLow, fHigh)
	}
}

func TestNionGeneralNonNegative(t *testing.T) {
	k := cosmology.Planck18()
	p := testStarParams()
	n := NionGeneral(8.0, 1e8, 1e13, k, rhoM0Test, p)
	if n < 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		t.Fatalf("NionGeneral produced invalid value: %g", n)
	}
}

func TestSFRDGeneralPositive(t *testing.T) {
	k := cosmology.Planck18()
	p := testStarParams()
	s := SFRDGeneral(8.0, 1e8, 1e13, k, rhoM0Test, 0.5, p)
	if s <= 0 {
		t.Fatalf("SFRDGeneral should be positive, got %g", s)
	}
}

func TestFcollDeltaMonotonicInDelta(t *testing.T) {
	k := cosmology.Planck18()
	low := FcollDelta(-0.5, 8.0, 1e9, 1e12, k)
	high := FcollDelta(1.0, 8.0, 1e9, 1e12, k)
	if !(high >= low) {
		t.Fatalf("FcollDelta should increase with delta: low=%g high=%g", low, high)
	}
	if low < 0 || low > 1 || high < 0 || high > 1 {
		t.Fatalf("FcollDelta out of [0,1]: low=%g high=%g", low, high)
	}
}

func TestFcollDeltaZeroAboveCond(t *testing.T) {
	k := cosmology.Planck18()
	// Mmin == Mcond: no resolved collapsed mass beyond the condition itself
	// at sub-critical delta.
	f := FcollDelta(0.0, 8.0, 1e12, 1e12, k)
	if f != 0 {
		t.Fatalf("expected 0 when Mmin==Mcond at sub-critical delta, got %g", f)
	}
}

func TestDFcollDzDeltaSign(t *testing.T) {
	k := cosmology.Planck18()
	// Collapsed fraction falls with increasing z, so its z-derivative
	// should be negative.
	d := DFcollDzDelta(0.0, 8.0, 1e9, 1e12, k)
	if d > 0 {
		t.Fatalf("expected non-positive dFcoll/dz, got %g", d)
	}
}

func TestTable1DClampAndInterpolate(t *testing.T) {
	tbl, err := NewTable1D("unit_test", 0, 10, 11, func(x float64) float64 { return x * x })
	if err != nil {
		t.Fatalf("NewTable1D: %v", err)
	}
	if got := tbl.Eval(-5); got != 0 {
		t.Fatalf("expected clamp to lo, got %g", got)
	}
	if got := tbl.Eval(15); got != 100 {
		t.Fatalf("expected clamp to hi, got %g", got)
	}
	if got := tbl.Eval(5); math.Abs(got-25) > 1e-6 {
		t.Fatalf("expected ~25 at exact grid point, got %g", got)
	}
}

func TestTable2DBilinear(t *testing.T) {
	tbl, err := NewTable2D("unit_test_2d", 0, 10, 11, 0, 10, 11, func(x, y float64) float64 { return x + y })
	if err != nil {
		t.Fatalf("NewTable2D: %v", err)
	}
	if got := tbl.Eval(2.5, 3.5); math.Abs(got-6.0) > 1e-6 {
		t.Fatalf("expected 6 at (2.5,3.5), got %g", got)
	}
}

func TestNewTable1DRejectsBadRange(t *testing.T) {
	if _, err := NewTable1D("bad", 10, 0, 5, func(x float64) float64 { return x }); err == nil {
		t.Fatal("expected error for hi < lo")
	}
}
