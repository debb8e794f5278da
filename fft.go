package cmfast

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// KGrid is the k-space counterpart of Grid: a dense complex lattice of
// shape (Nx, Ny, Nzh) where Nzh = Nz/2+1, the canonical real-to-complex
// FFT layout of spec.md §3. A KGrid is only ever produced by ForwardFFT;
// constructing one from a raw slice elsewhere would let real-space and
// k-space interpretations of the same memory get punned together, which
// spec.md §9 calls out as a re-architecture target to forbid.
type KGrid struct {
	Elements       []complex128
	Nx, Ny, Nz     int // Nz is the *real*-grid axis length this was built from
	Nzh            int // Nz/2 + 1
	L              float64
	L_F            float64 // non-cubic box factor along z (Nz = ceil(f*Nx))
}

func newKGrid(nx, ny, nz int, l, lF float64) *KGrid {
	nzh := nz/2 + 1
	return &KGrid{
		Elements: make([]complex128, nx*ny*nzh),
		Nx:       nx, Ny: ny, Nz: nz, Nzh: nzh,
		L: l, L_F: lF,
	}
}

func (g *KGrid) idx(i, j, k int) int { return (i*g.Ny+j)*g.Nzh + k }

// At returns the complex value at k-space index (i, j, k).
func (g *KGrid) At(i, j, k int) complex128 { return g.Elements[g.idx(i, j, k)] }

// Set assigns the complex value at k-space index (i, j, k).
func (g *KGrid) Set(i, j, k int, v complex128) { g.Elements[g.idx(i, j, k)] = v }

// Clone returns a deep copy of g.
func (g *KGrid) Clone() *KGrid {
	o := *g
	o.Elements = make([]complex128, len(g.Elements))
	copy(o.Elements, g.Elements)
	return &o
}

// Kmag returns the physical wavenumber magnitude |k| for k-space index
// (i, j, k), i.e. 2*pi times the signed cycle count divided by the box
// length, in inverse units of L (the box is assumed periodic with side L
// along x, y and L*L_F along z).
func (g *KGrid) Kmag(i, j, k int) float64 {
	kx := freqIndex(i, g.Nx) * 2 * math.Pi / g.L
	ky := freqIndex(j, g.Ny) * 2 * math.Pi / g.L
	kz := float64(k) * 2 * math.Pi / (g.L * g.L_F) // r2c: k only ranges over non-negative frequencies
	return math.Sqrt(kx*kx + ky*ky + kz*kz)
}

// freqIndex maps a 0-based FFT bin index to a signed cycle count in
// (-n/2, n/2]: bins up to n/2 map to themselves, later bins to i-n.
func freqIndex(i, n int) float64 {
	if i <= n/2 {
		return float64(i)
	}
	return float64(i - n)
}

// ForwardFFT transforms g to k-space via three passes of 1-D DFTs (one per
// axis), dividing the result by the total real-cell count so that
// InverseFFT(ForwardFFT(x)) == x (spec.md §4.1's normalisation contract).
// L and lF are the box side length and non-cubic factor, stored on the
// result for later filtering (spec.md §4.1's R-dependent kernels need
// physical k, not bin index).
func ForwardFFT(g *Grid, L, lF float64) *KGrid {
	nx, ny, nz := g.Nx, g.Ny, g.Nz
	out := newKGrid(nx, ny, nz, L, lF)
	nzh := out.Nzh

	// Stage 1: real FFT along z for every (x, y) fiber -> (nx, ny, nzh) complex.
	stage1 := make([]complex128, nx*ny*nzh)
	rfft := fourier.NewFFT(nz)
	ParallelFor(nx*ny, func(lin int) {
		i, j := lin/ny, lin%ny
		seq := make([]float64, nz)
		for k := 0; k < nz; k++ {
			seq[k] = g.Elements[g.Idx(i, j, k)]
		}
		dst := make([]complex128, nzh)
		rfft.Coefficients(dst, seq)
		base := (i*ny + j) * nzh
		copy(stage1[base:base+nzh], dst)
	})

	// Stage 2: complex FFT along y for every (x, kz) fiber.
	stage2 := make([]complex128, nx*ny*nzh)
	cfftY := fourier.NewCmplxFFT(ny)
	ParallelFor(nx*nzh, func(lin int) {
		i, k := lin/nzh, lin%nzh
		seq := make([]complex128, ny)
		for j := 0; j < ny; j++ {
			seq[j] = stage1[(i*ny+j)*nzh+k]
		}
		dst := make([]complex128, ny)
		cfftY.Coefficients(dst, seq)
		for j := 0; j < ny; j++ {
			stage2[(i*ny+j)*nzh+k] = dst[j]
		}
	})

	// Stage 3: complex FFT along x for every (ky, kz) fiber; normalise.
	cfftX := fourier.NewCmplxFFT(nx)
	total := complex(float64(nx*ny*nz), 0)
	ParallelFor(ny*nzh, func(lin int) {
		j, k := lin/nzh, lin%nzh
		seq := make([]complex128, nx)
		for i := 0; i < nx; i++ {
			seq[i] = stage2[(i*ny+j)*nzh+k]
		}
		dst := make([]complex128, nx)
		cfftX.Coefficients(dst, seq)
		for i := 0; i < nx; i++ {
			out.Elements[(i*ny+j)*nzh+k] = dst[i] / total
		}
	})
	return out
}

// InverseFFT transforms a KGrid built by ForwardFFT back to real space.
func InverseFFT(g *KGrid, units string) *Grid {
	nx, ny, nz, nzh := g.Nx, g.Ny, g.Nz, g.Nzh
	out := NewGrid(nx, ny, nz, units)

	total := complex(float64(nx*ny*nz), 0)
	scaled := make([]complex128, len(g.Elements))
	for i, v := range g.Elements {
		scaled[i] = v * total
	}

	// Inverse stage 3: complex inverse FFT along x.
	stage2 := make([]complex128, nx*ny*nzh)
	cfftX := fourier.NewCmplxFFT(nx)
	ParallelFor(ny*nzh, func(lin int) {
		j, k := lin/nzh, lin%nzh
		seq := make([]complex128, nx)
		for i := 0; i < nx; i++ {
			seq[i] = scaled[(i*ny+j)*nzh+k]
		}
		dst := make([]complex128, nx)
		cfftX.Sequence(dst, seq)
		for i := 0; i < nx; i++ {
			stage2[(i*ny+j)*nzh+k] = dst[i]
		}
	})

	// Inverse stage 2: complex inverse FFT along y.
	stage1 := make([]complex128, nx*ny*nzh)
	cfftY := fourier.NewCmplxFFT(ny)
	ParallelFor(nx*nzh, func(lin int) {
		i, k := lin/nzh, lin%nzh
		seq := make([]complex128, ny)
		for j := 0; j < ny; j++ {
			seq[j] = stage2[(i*ny+j)*nzh+k]
		}
		dst := make([]complex128, ny)
		cfftY.Sequence(dst, seq)
		for j := 0; j < ny; j++ {
			stage1[(i*ny+j)*nzh+k] = dst[j]
		}
	})

	// Inverse stage 1: real inverse FFT along z.
	rfft := fourier.NewFFT(nz)
	ParallelFor(nx*ny, func(lin int) {
		i, j := lin/ny, lin%ny
		base := (i*ny + j) * nzh
		cseq := make([]complex128, nzh)
		copy(cseq, stage1[base:base+nzh])
		dst := make([]float64, nz)
		rfft.Sequence(dst, cseq)
		for k := 0; k < nz; k++ {
			out.Elements[out.Idx(i, j, k)] = dst[k]
		}
	})
	return out
}
