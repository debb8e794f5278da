package ionize

import (
	"math"
	"sync"

	"github.com/samgagnon/cmfast"
	"github.com/samgagnon/cmfast/cosmology"
	"github.com/samgagnon/cmfast/halobox"
	"github.com/samgagnon/cmfast/massfn"
)

// fcollTableSamples is the per-R-step resolution of the Fcoll(delta)
// interpolation table spec.md §4.6 step 3 asks for, built once per R-step
// and looked up per cell rather than re-integrated at every cell
// (spec.md §4.2).
const fcollTableSamples = 64

const gammaPrefactor = 1e-12 // s^-1 Mpc^-1 normalisation of R*SFR -> Gamma12, schematic.

// ComputeIonizedBox is the ionize entry point of spec.md §6:
// compute_ionized_box(z, z_prev, params, ini, perturb, halos?, prev_ts,
// prev_ion) -> IonizedBox. delta is the current density field; haloBox
// carries the filtered N_ion/SFR emissivity in halo mode (nil in non-halo
// mode); ts is the just-computed spin-temperature box (may be nil above
// Z_HEAT_MAX's first snapshot); prev is the previous ionisation state
// (nil at the first snapshot).
func ComputeIonizedBox(ctx *cmfast.Context, z, zPrev float64, delta *cmfast.Grid, haloBox *cmfast.HaloBox, ts *cmfast.TsBox, prev *cmfast.IonizedBox) (*cmfast.IonizedBox, error) {
	if err := ctx.Flags.Validate(); err != nil {
		return nil, err
	}
	k := ctx.Cosmo
	p := ctx.Params
	nx, ny, nz := delta.Nx, delta.Ny, delta.Nz

	radii := BuildRadiusSchedule(p, k)
	out := cmfast.NewIonizedBox(nx, ny, nz, len(radii))

	// Carry the previous snapshot's ionisation history forward: a cell
	// ionised at an earlier (higher) redshift must stay ionised, and its
	// first-crossing z_re/Gamma12/MFP must not be overwritten (spec.md §8
	// "z_re(cell) = -1 iff cell was never ionised in this or any earlier
	// snapshot").
	if prev != nil {
		copy(out.XH.Elements, prev.XH.Elements)
		copy(out.ZRe.Elements, prev.ZRe.Elements)
		copy(out.Gamma12.Elements, prev.Gamma12.Elements)
		copy(out.MFP.Elements, prev.MFP.Elements)
	}

	useHalo := ctx.Flags.UseHaloField && haloBox != nil
	rhoM0 := k.RtoM(1.0) / (4.0 / 3.0 * math.Pi)
	mMinACG := p.MTurnFloor
	if acg := k.AtomicCoolingThreshold(z); acg > mMinACG {
		mMinACG = acg
	}
	mMinMCG := p.MTurnFloor
	if ctx.Flags.UseMinihaloes {
		if mcg := k.MolecularCoolingThreshold(z); mcg > mMinMCG {
			mMinMCG = mcg
		}
	}

	starACG := massfn.StarParams{
		FStar10: p.FStar10, AlphaStar: p.AlphaStar,
		FEsc10: p.FEsc10, AlphaEsc: p.AlphaEsc,
		MLimStar: p.MLimStar, BaryonFraction: p.BaryonFraction,
	}

	xHIIxrays := make([]float64, len(delta.Elements))
	if ctx.Flags.UseTsFluct && ts != nil {
		copy(xHIIxrays, ts.Xe.Elements)
	}
	nRecOverNb := make([]float64, len(delta.Elements))
	if ctx.Flags.InhomoReco && prev != nil {
		copy(out.DNRec.Elements, prev.DNRec.Elements)
		copy(nRecOverNb, prev.DNRec.Elements)
	}

	meanFcoll := massfn.FcollGeneral(z, mMinACG, 1e16, k, rhoM0)
	if meanFcoll*p.Zeta < p.HIIRoundErr {
		// HII_ROUND_ERR early-out (spec.md §4.6 step c): expected ionised
		// fraction below floor, box stays fully neutral.
		setAllGasTemperature(out, ts, k, z)
		return out, nil
	}

	delta64 := delta.Clone()
	kdelta := cmfast.ForwardFFT(delta64, p.BoxLen, p.DimF)
	var khalo *cmfast.KGrid
	if useHalo {
		khalo = cmfast.ForwardFFT(haloBox.NIon, p.BoxLen, p.DimF)
	}

	for i := len(radii) - 1; i >= 0; i-- {
		step := radii[i]
		Mcond := step.MMax

		filterArg := 0.0
		if ctx.Flags.Filter == cmfast.Exponential {
			filterArg = step.R
		}

		// The filtered density field at this step's radius is needed both
		// for the non-halo Fcoll channel and for the minihalo channel (in
		// either mode), so build it once up front.
		filteredDelta := cmfast.Filter(kdelta, ctx.Flags.Filter, step.R, filterArg)
		dGrid := cmfast.InverseFFT(filteredDelta, "1")
		cmfast.ClipFloor(dGrid, -1+p.EpsDensityFloor)
		deltaRange := cmfast.ParallelMinMax(len(dGrid.Elements), func(idx int) float64 { return dGrid.Elements[idx] })
		deltaMargin := 0.05 * math.Max(1, deltaRange.Max-deltaRange.Min)
		deltaLo, deltaHi := deltaRange.Min-deltaMargin, deltaRange.Max+deltaMargin
		if deltaHi <= deltaLo {
			deltaHi = deltaLo + 1
		}

		var fcoll *cmfast.Grid
		if useHalo {
			filtered := cmfast.Filter(khalo, ctx.Flags.Filter, step.R, filterArg)
			nionGrid := cmfast.InverseFFT(filtered, "1")
			cmfast.ClipFloor(nionGrid, 0)
			fcoll = nionGrid
		} else {
			fcollTable, terr := massfn.NewTable1D("ionize.FcollDelta", deltaLo, deltaHi, fcollTableSamples, func(d float64) float64 {
				return massfn.FcollDelta(d, z, mMinACG, Mcond, k)
			})
			if terr != nil {
				return nil, terr
			}
			fcoll = cmfast.NewGrid(nx, ny, nz, "1")
			if err := evalTableInto(fcoll, dGrid, fcollTable, "ionize.FcollDelta"); err != nil {
				return nil, err
			}
			expected := massfn.FcollGeneral(z, mMinACG, Mcond, k, rhoM0)
			halobox.MeanFix(fcoll, expected)
		}
		out.Fcoll[step.Index] = fcoll

		var fcollMini *cmfast.Grid
		if ctx.Flags.UseMinihaloes {
			starMCG := massfn.StarParams{
				FStar10: p.FStar7Mini, AlphaStar: p.AlphaStarMini,
				FEsc10: p.FEscMini, AlphaEsc: p.AlphaEsc,
				BaryonFraction: p.BaryonFraction,
			}
			miniTable, terr := massfn.NewTable1D("ionize.FcollDeltaMini", deltaLo, deltaHi, fcollTableSamples, func(d float64) float64 {
				return massfn.FcollDelta(d, z, mMinMCG, Mcond, k)
			})
			if terr != nil {
				return nil, terr
			}
			fcollMini = cmfast.NewGrid(nx, ny, nz, "1")
			if err := evalTableInto(fcollMini, dGrid, miniTable, "ionize.FcollDeltaMini"); err != nil {
				return nil, err
			}
			ratio := starMCG.BaryonFraction / starACG.BaryonFraction
			for idx := range fcollMini.Elements {
				fcollMini.Elements[idx] *= ratio
			}
			out.FcollMini[step.Index] = fcollMini
		}

		Rcells := step.R / (p.BoxLen / float64(nx))
		last := i == 0
		cmfast.ParallelFor(nx*ny, func(lin int) {
			xi, yi := lin/ny, lin%ny
			for zi := 0; zi < nz; zi++ {
				idx := delta.Idx(xi, yi, zi)
				if out.XH.Elements[idx] <= 0 {
					continue
				}
				fc := fcoll.Elements[idx]
				fcMini := 0.0
				if fcollMini != nil {
					fcMini = fcollMini.Elements[idx]
				}
				ionised := Criterion(fc, fcMini, p.Zeta, p.ZetaMini, xHIIxrays[idx], nRecOverNb[idx])
				if !ionised {
					if last {
						residual := 1 - fc*p.Zeta - fcMini*p.ZetaMini - xHIIxrays[idx]
						out.XH.Elements[idx] = clip01(residual)
					}
					continue
				}
				gamma12 := step.R * gammaPrefactor * fc / (1 + delta.Elements[idx])
				switch ctx.Flags.BubbleAlgorithm {
				case cmfast.CenterAlgorithm:
					PaintCenter(out, nx, ny, nz, xi, yi, zi, z, gamma12, step.R)
				default:
					PaintSphere(out, nx, ny, nz, xi, yi, zi, Rcells, z, gamma12, step.R)
				}
			}
		})
	}

	out.MeanFColl = meanFcoll
	setAllGasTemperature(out, ts, k, z)

	if ctx.Flags.InhomoReco {
		dtdz := k.DtDz(z)
		dz := zPrev - z
		cmfast.ParallelFor(len(delta.Elements), func(idx int) {
			d := delta.Elements[idx]
			zEff := (1+z)*math.Cbrt(1+d) - 1
			rRec := k.SplinedRecombinationRate(zEff, out.Gamma12.Elements[idx])
			out.DNRec.Elements[idx] += rRec * math.Abs(dtdz) * dz * (1 - out.XH.Elements[idx])
		})
	}

	return out, nil
}

// setAllGasTemperature implements spec.md §4.6's post-loop Tk_all_gas
// assignment: ionised cells use the fully-ionised closed form, clamped to
// never fall below the spin-temperature solver's Tk; neutral cells keep
// the spin-temperature Tk (or TRecfast if no Ts box was supplied).
func setAllGasTemperature(out *cmfast.IonizedBox, ts *cmfast.TsBox, k cosmology.Kernels, z float64) {
	cmfast.ParallelFor(len(out.XH.Elements), func(idx int) {
		tsTk := k.TRecfast(z)
		if ts != nil {
			tsTk = ts.Tk.Elements[idx]
		}
		if out.XH.Elements[idx] >= 1 {
			out.TkAllGas.Elements[idx] = tsTk
			return
		}
		delta := 0.0
		fullyIonised := k.ComputeFullyIonizedTemperature(out.ZRe.Elements[idx], z, delta)
		if fullyIonised < tsTk {
			fullyIonised = tsTk
		}
		out.TkAllGas.Elements[idx] = fullyIonised
	})
}

// evalTableInto fills dst with tbl looked up at every element of src,
// surfacing the first out-of-bounds query (if any) as the returned error
// rather than silently clamping it.
func evalTableInto(dst, src *cmfast.Grid, tbl *massfn.Table1D, table string) error {
	var mu sync.Mutex
	var firstErr error
	cmfast.ParallelFor(len(src.Elements), func(idx int) {
		v, err := tbl.EvalChecked(table, src.Elements[idx])
		if err != nil {
			mu.Lock()
			if firstErr == nil {
				firstErr = err
			}
			mu.Unlock()
			return
		}
		dst.Elements[idx] = v
	})
	return firstErr
}

func clip01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
