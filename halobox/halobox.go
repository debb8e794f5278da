package halobox

import (
	"github.com/samgagnon/cmfast"
	"github.com/samgagnon/cmfast/cosmology"
	"github.com/samgagnon/cmfast/massfn"
)

// PerturbField is the minimal density-field input this component needs:
// the Eulerian overdensity grid and the streaming-velocity grid (used by
// the Lyman-Werner turnover fit).
type PerturbField struct {
	Delta *cmfast.Grid
	Vcb   *cmfast.Grid
}

// ComputeHaloBox is the halobox entry point of spec.md §6:
// compute_halobox(z, params, ini, perturb, halos?, prev_ts, prev_ion).
func ComputeHaloBox(ctx *cmfast.Context, z float64, perturb *PerturbField, halos *cmfast.HaloCatalogue, prev *cmfast.PrevState) (*cmfast.HaloBox, error) {
	p := ctx.Params
	nx, ny, nz := perturb.Delta.Nx, perturb.Delta.Ny, perturb.Delta.Nz
	b := cmfast.NewHaloBox(nx, ny, nz)
	k := ctx.Cosmo
	tH := k.TH(z)

	turnovers := func(x, y, zc int) Turnovers {
		idx := perturb.Delta.Idx(x, y, zc)
		var gamma12, zRe, jLW, vcb float64
		if prev != nil && prev.Ionized != nil {
			gamma12 = prev.Ionized.Gamma12.Elements[idx]
			zRe = prev.Ionized.ZRe.Elements[idx]
		} else {
			zRe = -1
		}
		if prev != nil && prev.Ts != nil {
			jLW = prev.Ts.JLW.Elements[idx]
		}
		if perturb.Vcb != nil {
			vcb = perturb.Vcb.Elements[idx]
		}
		return ComputeTurnovers(z, gamma12, zRe, jLW, vcb, k, p)
	}

	usesHaloCatalogue := (p.MSampler > 0 && ctx.Flags.AvgBelowSampler && halos != nil) ||
		(ctx.Flags.UseHaloField && halos != nil)

	switch {
	case p.MSampler > 0 && ctx.Flags.AvgBelowSampler && halos != nil:
		if err := gridCMFRange(b, perturb.Delta, turnovers, z, k, p, p.MTurnFloor, p.MSampler); err != nil {
			return nil, err
		}
		GridHalos(b, halos, turnovers, z, tH, p)
	case ctx.Flags.UseHaloField && halos != nil:
		GridHalos(b, halos, turnovers, z, tH, p)
	default:
		if err := gridCMFRange(b, perturb.Delta, turnovers, z, k, p, p.MTurnFloor, 1e16); err != nil {
			return nil, err
		}
	}

	// Mean-fixing rescales the fixed-grid CMF integral to match the global
	// unconditional mean; halo-catalogue gridding is already an unbiased
	// Monte Carlo estimate of that mean and is left untouched (spec.md
	// §4.6's analogous f_coll mean-fix explicitly skips halo mode).
	if !usesHaloCatalogue {
		starACG := massfn.StarParams{
			FStar10: p.FStar10, AlphaStar: p.AlphaStar,
			FEsc10: p.FEsc10, AlphaEsc: p.AlphaEsc,
			MLimStar: p.MLimStar, BaryonFraction: p.BaryonFraction,
		}
		rhoM0 := k.RtoM(1.0) / (4.0 / 3.0 * 3.141592653589793)
		expectedNion := massfn.NionGeneral(z, p.MTurnFloor, 1e16, k, rhoM0, starACG)
		MeanFix(b.NIon, expectedNion)
	}

	return b, nil
}

// gridCMFRange runs GridFixed restricted to [Mmin, Mmax] for the ACG
// channel (used both for the plain fixed-grid mode, with Mmax = infinity
// in practice, and for the AvgBelowSampler sub-sampler range).
func gridCMFRange(b *cmfast.HaloBox, delta *cmfast.Grid, turnovers func(x, y, z int) Turnovers, z float64, k cosmology.Kernels, p cmfast.Params, mMinMCG, mSampler float64) error {
	starACG := massfn.StarParams{
		FStar10: p.FStar10, AlphaStar: p.AlphaStar,
		FEsc10: p.FEsc10, AlphaEsc: p.AlphaEsc,
		MLimStar: p.MLimStar, BaryonFraction: p.BaryonFraction,
	}
	starMCG := massfn.StarParams{
		FStar10: p.FStar7Mini, AlphaStar: p.AlphaStarMini,
		FEsc10: p.FEscMini, AlphaEsc: p.AlphaEsc,
		BaryonFraction: p.BaryonFraction,
	}
	rhoM0 := k.RtoM(1.0) / (4.0 / 3.0 * 3.141592653589793)
	tH := k.TH(z)
	return GridFixed(b, delta, turnovers, z, k, rhoM0, tH, p.TStar, mSampler, starACG, starMCG, mMinMCG)
}
