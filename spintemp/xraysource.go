package spintemp

import (
	"github.com/samgagnon/cmfast"
	"github.com/samgagnon/cmfast/shells"
)

// XraySourceBox holds, for every shell in the schedule, the annular-
// filtered source grid (SFR-weighted X-ray emissivity in halo mode, or
// filtered-density-derived SFRD in non-halo mode) spec.md §4.5 reads per
// shell iteration.
type XraySourceBox struct {
	PerShell []*cmfast.Grid
}

// BuildFromHaloField annular-filters the halo-box weighted-SFR grid at
// every shell radius, producing one filtered grid per shell (spec.md
// §4.5: "with halos, read from the pre-built XraySourceBox").
func BuildFromHaloField(sched *shells.Schedule, sfrGrid *cmfast.Grid, L, lF float64) *XraySourceBox {
	box := &XraySourceBox{PerShell: make([]*cmfast.Grid, len(sched.Shells))}
	kgrid := cmfast.ForwardFFT(sfrGrid, L, lF)
	inner := 0.0
	for i, sh := range sched.Shells {
		filtered := cmfast.Filter(kgrid, cmfast.Annulus, sh.R, inner)
		real := cmfast.InverseFFT(filtered, sfrGrid.Units)
		cmfast.ClipFloor(real, 0)
		box.PerShell[i] = real
		inner = sh.R
	}
	return box
}

// BuildFromDensity band-pass-filters the density grid at each shell
// radius and converts it to SFRD via sfrdOfDelta (spec.md §4.5's non-halo
// path: "band-pass-filter the density grid at R_k, convert to SFRD via
// calculate_sfrd_from_grid").
func BuildFromDensity(sched *shells.Schedule, delta *cmfast.Grid, L, lF float64, sfrdOfDelta func(delta, mMin, mMax float64) float64) *XraySourceBox {
	box := &XraySourceBox{PerShell: make([]*cmfast.Grid, len(sched.Shells))}
	kgrid := cmfast.ForwardFFT(delta, L, lF)
	inner := 0.0
	for i, sh := range sched.Shells {
		filtered := cmfast.Filter(kgrid, cmfast.Annulus, sh.R, inner)
		real := cmfast.InverseFFT(filtered, "1")
		cmfast.ClipFloor(real, -1+1e-6)
		out := cmfast.NewGrid(real.Nx, real.Ny, real.Nz, "Msun/yr/Mpc^3")
		for idx, d := range real.Elements {
			out.Elements[idx] = sfrdOfDelta(d, sh.MMin, sh.MMax)
		}
		box.PerShell[i] = out
		inner = sh.R
	}
	return box
}
