// Package halobox implements the Halo-Box Gridder (spec.md §4.4): the
// per-cell turnover-mass fits, the stochastic halo property model, and
// the three gridding modes (halo catalogue, fixed-grid CMF, and the
// AvgBelowSampler hybrid of the two).
package halobox

import (
	"github.com/samgagnon/cmfast"
	"github.com/samgagnon/cmfast/cosmology"
)

// Turnovers bundles the four turnover masses gridding needs per cell.
type Turnovers struct {
	Reion float64
	LW    float64
	ACG   float64
	MCG   float64
}

// ComputeTurnovers evaluates spec.md §4.4's turnover-mass fits for one
// cell, given its previous redshift of reionisation zRe (-1 if never
// ionised), photo-ionisation rate gamma12, Lyman-Werner intensity jLW and
// baryon-DM streaming velocity vcb.
func ComputeTurnovers(z, gamma12, zRe, jLW, vcb float64, k cosmology.Kernels, p cmfast.Params) Turnovers {
	reion := k.ReionizationFeedback(z, gamma12, zRe)
	lw := k.LymanWernerThreshold(z, jLW, vcb)
	acg := max3(reion, k.AtomicCoolingThreshold(z), p.MTurnFloor)
	mcg := max4(reion, lw, k.MolecularCoolingThreshold(z), p.MTurnFloor)
	return Turnovers{Reion: reion, LW: lw, ACG: acg, MCG: mcg}
}

func max3(a, b, c float64) float64 { return max2(max2(a, b), c) }
func max4(a, b, c, d float64) float64 { return max2(max2(a, b), max2(c, d)) }
func max2(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
