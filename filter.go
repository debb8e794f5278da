package cmfast

import "math"

// FilterKind is the closed set of smoothing kernels spec.md §4.1 and §4.6
// select between.
type FilterKind int

const (
	// TophatReal is a real-space spherical tophat (the default excursion-
	// set smoothing kernel).
	TophatReal FilterKind = iota
	// TophatK is the equivalent tophat applied directly in k-space.
	TophatK
	// Gaussian smoothing.
	Gaussian
	// Annulus is a spherical shell [Rin, Rout] used by the spin-temperature
	// engine to isolate one shell's contribution (spec.md §4.1).
	Annulus
	// Exponential is an exponential-decay kernel with scale `arg`, used for
	// ionisation under the use_exp_filter flag.
	Exponential
)

// Filter multiplies every mode of g by a kind-specific window of radius R
// (and, for Annulus, inner radius `arg`; for Exponential, decay scale
// `arg`) and returns the filtered k-grid. g is not modified; R <= the cell
// size is a no-op (spec.md §4.1 "Filter arguments with R <= cell size are
// no-ops").
func Filter(g *KGrid, kind FilterKind, R, arg float64) *KGrid {
	cellSize := g.L / float64(g.Nx)
	if R <= cellSize {
		return g.Clone()
	}
	out := g.Clone()
	ParallelFor(g.Nx*g.Ny, func(lin int) {
		i, j := lin/g.Ny, lin%g.Ny
		for k := 0; k < g.Nzh; k++ {
			kmag := g.Kmag(i, j, k)
			w := filterKernel(kind, kmag, R, arg)
			out.Set(i, j, k, g.At(i, j, k)*complex(w, 0))
		}
	})
	return out
}

// filterKernel evaluates the real-valued multiplier for one (kind, |k|, R,
// arg) combination.
func filterKernel(kind FilterKind, kmag, R, arg float64) float64 {
	switch kind {
	case TophatReal:
		return tophatWindow(kmag, R)
	case TophatK:
		return tophatKWindow(kmag, R)
	case Gaussian:
		return gaussianWindow(kmag, R)
	case Annulus:
		// arg is the inner radius Rin; R is the outer radius Rout.
		// The shell's contribution is the outer tophat minus the inner one,
		// which isolates the spherical annulus [Rin, Rout] in k-space.
		return tophatWindow(kmag, R) - tophatWindow(kmag, arg)
	case Exponential:
		return exponentialWindow(kmag, arg)
	default:
		return 1
	}
}

// tophatWindow is the Fourier transform of a normalised real-space
// spherical tophat of radius R: W(k) = 3 (sin(kR) - kR cos(kR)) / (kR)^3.
func tophatWindow(kmag, R float64) float64 {
	if kmag == 0 || R == 0 {
		return 1
	}
	x := kmag * R
	return 3.0 * (math.Sin(x) - x*math.Cos(x)) / (x * x * x)
}

// tophatKWindow is the hard k-space spherical tophat: unity for modes
// inside the cutoff k <= 1/R and zero beyond it, distinct from
// tophatWindow's smooth real-space-tophat roll-off (spec.md §4.1's
// TophatK filter kind).
func tophatKWindow(kmag, R float64) float64 {
	if R == 0 {
		return 1
	}
	if kmag <= 1.0/R {
		return 1
	}
	return 0
}

// gaussianWindow is the Fourier transform of a normalised real-space
// Gaussian of characteristic scale R: W(k) = exp(-(kR)^2/2).
func gaussianWindow(kmag, R float64) float64 {
	x := kmag * R
	return math.Exp(-0.5 * x * x)
}

// exponentialWindow is the Fourier transform of a normalised exponential-
// decay real-space profile exp(-r/arg): W(k) = 1 / (1 + (k*arg)^2)^2.
func exponentialWindow(kmag, scale float64) float64 {
	x := kmag * scale
	denom := 1 + x*x
	return 1.0 / (denom * denom)
}
