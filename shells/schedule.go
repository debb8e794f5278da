// Package shells builds the per-snapshot shell schedule and spectral
// prefactors the spin-temperature engine filters its source grids at
// (spec.md §4.3).
package shells

import (
	"fmt"
	"math"

	"github.com/samgagnon/cmfast"
	"github.com/samgagnon/cmfast/cosmology"
)

// Shell is one record of the shell schedule S (spec.md §3).
type Shell struct {
	R         float64 // comoving radius, Mpc
	Z         float64 // z″_k, shell midpoint redshift
	ZEdge     float64 // far edge of the shell
	DZ        float64 // previous shell's far edge (z′ for k = 0) minus this shell's far edge
	DtDz      float64 // dt/dz at z″_k
	Growth    float64 // growth(z″_k)
	MMin      float64
	MMax      float64
	SigmaMin  float64
	SigmaMax  float64
}

// Schedule is the ordered shell list for one snapshot, strictly
// decreasing in Z and strictly increasing in R.
type Schedule struct {
	Shells []Shell
}

// Build constructs the shell schedule for snapshot redshift z, following
// R_0 = L*LF/N, R_{k+1} = R_k * (RXLyMax/R_0)^(1/(NShell-1)).
func Build(z float64, p cmfast.Params, k cosmology.Kernels, massOfR func(R float64) float64) (*Schedule, error) {
	if p.NShell < 2 {
		return nil, &cmfast.ValueError{Field: "NShell", Msg: fmt.Sprintf("must be >= 2, got %d", p.NShell)}
	}
	n := int(math.Ceil(p.DimF * float64(p.HIIDim)))
	r0 := p.BoxLen * p.DimF / float64(n)
	if r0 <= 0 {
		r0 = p.BoxLen / float64(p.HIIDim)
	}
	ratio := math.Pow(p.RXLyMax/r0, 1.0/float64(p.NShell-1))

	sched := &Schedule{Shells: make([]Shell, p.NShell)}
	R := r0
	zPrev := z
	for kk := 0; kk < p.NShell; kk++ {
		// Comoving distance to radius R maps to a lookback redshift via
		// dt/dz and the Hubble flow; integrate forward in small steps
		// from the previous shell's redshift rather than carrying a
		// separate cosmological-distance kernel.
		zEdge := comovingRadiusToRedshift(zPrev, R-prevR(sched.Shells, kk), k)
		zMid := 0.5 * (zPrev + zEdge)
		if zEdge >= zPrev {
			// Guard against a degenerate (non-decreasing) step at very
			// small R; nudge forward by a tiny epsilon to preserve the
			// strictly-decreasing invariant.
			zEdge = zPrev - 1e-6
			zMid = zPrev - 5e-7
		}
		M := massOfR(R)
		sched.Shells[kk] = Shell{
			R:        R,
			Z:        zMid,
			ZEdge:    zEdge,
			DZ:       zPrev - zEdge,
			DtDz:     k.DtDz(zMid),
			Growth:   k.Growth(zMid),
			MMin:     p.MTurnFloor,
			MMax:     M,
			SigmaMin: k.Sigma(p.MTurnFloor),
			SigmaMax: k.Sigma(M),
		}
		zPrev = zEdge
		R *= ratio
	}
	if err := validate(sched); err != nil {
		return nil, err
	}
	return sched, nil
}

func prevR(shells []Shell, kk int) float64 {
	if kk == 0 {
		return 0
	}
	return shells[kk-1].R
}

// comovingRadiusToRedshift steps from zStart outward by comoving distance
// dR (Mpc) using a fixed-step RK2 integration of dz/dR = -H(z)/c, so z
// decreases as R grows (matching the Schedule invariant), grounded
// on the same explicit-stepping idiom the teacher's science.go uses for
// its per-timestep finite-difference updates.
func comovingRadiusToRedshift(zStart, dR float64, k cosmology.Kernels) float64 {
	const cLightMpcPerS = 9.716e-15 // c in Mpc/s
	if dR <= 0 {
		return zStart
	}
	const nSteps = 8
	h := dR / nSteps
	z := zStart
	for i := 0; i < nSteps; i++ {
		dzdR := -k.HubbleH(z) / cLightMpcPerS
		k1 := dzdR * h
		dzdR2 := -k.HubbleH(z+k1) / cLightMpcPerS
		k2 := dzdR2 * h
		z += 0.5 * (k1 + k2)
	}
	return z
}

func validate(s *Schedule) error {
	for i := 1; i < len(s.Shells); i++ {
		if !(s.Shells[i].Z < s.Shells[i-1].Z) {
			return &cmfast.ValueError{Field: "shells.Schedule", Msg: "z″_k must be strictly decreasing"}
		}
		if !(s.Shells[i].R > s.Shells[i-1].R) {
			return &cmfast.ValueError{Field: "shells.Schedule", Msg: "R_k must be strictly increasing"}
		}
	}
	return nil
}
