package cmfast

import (
	"math"
	"math/rand"
	"testing"
)

func TestForwardInverseFFTRoundTrip(t *testing.T) {
	n := 8
	g := NewGrid(n, n, n, "1")
	rng := rand.New(rand.NewSource(1))
	for i := range g.Elements {
		g.Elements[i] = rng.NormFloat64()
	}

	k := ForwardFFT(g, 20.0, 1.0)
	back := InverseFFT(k, "1")

	for i := range g.Elements {
		if math.Abs(back.Elements[i]-g.Elements[i]) > 1e-5*math.Max(1, math.Abs(g.Elements[i])) {
			t.Fatalf("cell %d: round trip %g != original %g", i, back.Elements[i], g.Elements[i])
		}
	}
}

func TestForwardFFTConstantFieldIsDCOnly(t *testing.T) {
	n := 8
	g := NewGrid(n, n, n, "1")
	for i := range g.Elements {
		g.Elements[i] = 3.0
	}
	k := ForwardFFT(g, 20.0, 1.0)
	for i := 0; i < k.Nx; i++ {
		for j := 0; j < k.Ny; j++ {
			for kk := 0; kk < k.Nzh; kk++ {
				v := k.At(i, j, kk)
				if i == 0 && j == 0 && kk == 0 {
					continue
				}
				if math.Abs(real(v)) > 1e-8 || math.Abs(imag(v)) > 1e-8 {
					t.Fatalf("non-DC mode (%d,%d,%d) nonzero: %v", i, j, kk, v)
				}
			}
		}
	}
}

func TestFilterNoOpBelowCellSize(t *testing.T) {
	n := 8
	g := NewGrid(n, n, n, "1")
	rng := rand.New(rand.NewSource(2))
	for i := range g.Elements {
		g.Elements[i] = rng.NormFloat64()
	}
	k := ForwardFFT(g, 20.0, 1.0)
	cellSize := k.L / float64(k.Nx)
	filtered := Filter(k, TophatReal, cellSize/2, 0)
	for i := range k.Elements {
		if filtered.Elements[i] != k.Elements[i] {
			t.Fatalf("cell %d: filter below cell size modified k-grid", i)
		}
	}
}

func TestClipAndExtrema(t *testing.T) {
	n := 4
	g := NewGrid(n, n, n, "1")
	for i := range g.Elements {
		g.Elements[i] = float64(i) - 5
	}
	ex := ClipAndExtrema(g, -1, 10)
	if ex.Min != -1 {
		t.Fatalf("min=%g, want -1", ex.Min)
	}
	for _, v := range g.Elements {
		if v < -1 || v > 10 {
			t.Fatalf("value %g outside clip range", v)
		}
	}
}
