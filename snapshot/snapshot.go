// Package snapshot implements the per-redshift orchestrator (spec.md
// §2.7): allocate this snapshot's state, run the halo-box gridder, the
// spin-temperature engine and the ionisation solver in order, then hand
// back the three public boxes plus the updated double-buffered previous
// state for the next call. It lives outside the root cmfast package
// because it is the one piece of the system that depends on all three
// leaf components, and cmfast itself cannot import packages that import
// cmfast back.
package snapshot

import (
	"github.com/samgagnon/cmfast"
	"github.com/samgagnon/cmfast/halobox"
	"github.com/samgagnon/cmfast/ionize"
	"github.com/samgagnon/cmfast/massfn"
	"github.com/samgagnon/cmfast/shells"
	"github.com/samgagnon/cmfast/spintemp"
)

// Result bundles the three public output boxes one snapshot call
// produces, alongside the updated previous-state borrow for the caller's
// next step down in redshift.
type Result struct {
	HaloBox *cmfast.HaloBox
	Ts      *cmfast.TsBox
	Ionized *cmfast.IonizedBox
	Prev    *cmfast.PrevState
}

// Run executes one snapshot at redshift z, given the previous snapshot's
// state (nil at the first call), the density field for this step, and an
// optional halo catalogue. It sequences 2.4 (halobox) -> 2.5 (spintemp)
// -> 2.6 (ionize) as spec.md §2.7 describes, and returns the new
// PrevState the caller should pass in at the next (lower) redshift.
func Run(ctx *cmfast.Context, z, zPrev float64, perturb *halobox.PerturbField, halos *cmfast.HaloCatalogue, prev *cmfast.PrevState) (*Result, error) {
	hb, err := halobox.ComputeHaloBox(ctx, z, perturb, halos, prev)
	if err != nil {
		return nil, err
	}

	var prevTs *cmfast.TsBox
	var prevMeanXe float64
	if prev != nil {
		prevTs = prev.Ts
		prevMeanXe = prev.MeanXe
	}

	massOfR := func(R float64) float64 { return ctx.Cosmo.RtoM(R) }
	sched, err := shells.Build(z, ctx.Params, ctx.Cosmo, massOfR)
	if err != nil {
		return nil, err
	}

	var xrs *spintemp.XraySourceBox
	if ctx.Flags.UseHaloField && halos != nil {
		xrs = spintemp.BuildFromHaloField(sched, hb.WeightedSFR, ctx.Params.BoxLen, ctx.Params.DimF)
	} else {
		k := ctx.Cosmo
		rhoM0 := k.RtoM(1.0) / (4.0 / 3.0 * 3.141592653589793)
		starACG := massfn.StarParams{
			FStar10: ctx.Params.FStar10, AlphaStar: ctx.Params.AlphaStar,
			FEsc10: ctx.Params.FEsc10, AlphaEsc: ctx.Params.AlphaEsc,
			MLimStar: ctx.Params.MLimStar, BaryonFraction: ctx.Params.BaryonFraction,
		}
		sfrdOfDelta := func(delta, mMin, mMax float64) float64 {
			return massfn.SFRDConditional(delta, z, mMin, mMax, k, rhoM0, ctx.Params.TStar, starACG)
		}
		xrs = spintemp.BuildFromDensity(sched, perturb.Delta, ctx.Params.BoxLen, ctx.Params.DimF, sfrdOfDelta)
	}

	ts, err := spintemp.ComputeSpinTemperature(ctx, z, zPrev, perturb.Delta, prevTs, xrs, prevMeanXe)
	if err != nil {
		return nil, err
	}

	var prevIon *cmfast.IonizedBox
	if prev != nil {
		prevIon = prev.Ionized
	}
	ion, err := ionize.ComputeIonizedBox(ctx, z, zPrev, perturb.Delta, hb, ts, prevIon)
	if err != nil {
		return nil, err
	}

	meanXe := cmfast.ParallelSum(len(ts.Xe.Elements), func(i int) float64 { return ts.Xe.Elements[i] }) / float64(len(ts.Xe.Elements))

	return &Result{
		HaloBox: hb,
		Ts:      ts,
		Ionized: ion,
		Prev: &cmfast.PrevState{
			Z:       z,
			Ts:      ts,
			Ionized: ion,
			MeanXe:  meanXe,
		},
	}, nil
}
