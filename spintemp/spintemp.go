package spintemp

import (
	"math"

	"github.com/samgagnon/cmfast"
	"github.com/samgagnon/cmfast/shells"
)

// ComputeSpinTemperature is the spintemp entry point of spec.md §6:
// compute_spin_temperature(z, z_prev, params, ini, perturb, prev_ts,
// xray_source_box) -> TsBox. xrs holds one annular-filtered source grid
// per shell, already built by BuildFromHaloField/BuildFromDensity for
// this snapshot.
func ComputeSpinTemperature(ctx *cmfast.Context, z, zPrev float64, delta *cmfast.Grid, prev *cmfast.TsBox, xrs *XraySourceBox, prevMeanXe float64) (*cmfast.TsBox, error) {
	k := ctx.Cosmo
	p := ctx.Params
	nx, ny, nz := delta.Nx, delta.Ny, delta.Nz
	out := cmfast.NewTsBox(nx, ny, nz)

	if z >= k.ZHeatMax() {
		tk := k.TRecfast(z)
		xe := k.XionRecfast(z)
		ts := closedFormTs(tk, xe, z, 0, k)
		for i := range out.Tk.Elements {
			out.Tk.Elements[i] = tk
			out.Xe.Elements[i] = xe
			out.Ts.Elements[i] = ts
		}
		return out, nil
	}

	massOfR := func(R float64) float64 { return k.RtoM(R) }
	sched, err := shells.Build(z, p, k, massOfR)
	if err != nil {
		return nil, err
	}
	if len(xrs.PerShell) != len(sched.Shells) {
		return nil, &cmfast.ValueError{Field: "XraySourceBox", Msg: "shell count mismatch with schedule"}
	}

	nuLo := func(shellIdx int, xe float64) float64 {
		sh := sched.Shells[shellIdx]
		return NuTauOne(z, sh.Z, xe, 1-prevMeanXe, k, p.MTurnFloor)
	}
	freq, err := BuildFreqTables(p.NXHII, sched, p.AlphaX, nuLo)
	if err != nil {
		return nil, err
	}

	if prev == nil {
		prev = cmfast.NewTsBox(nx, ny, nz)
		for i := range prev.Tk.Elements {
			prev.Tk.Elements[i] = k.TRecfast(zPrev)
			prev.Xe.Elements[i] = k.XionRecfast(zPrev)
		}
	}

	rates := make([]CellRates, len(delta.Elements))
	var prevCont, prevInj, prevLyNto2, prevLW float64
	for si, sh := range sched.Shells {
		src := xrs.PerShell[si]
		xrayFactor := xrayRFactor(sh.Z, p.AlphaX)
		zEdgeFactor := sh.DZ * sh.DtDz
		if zEdgeFactor < 0 {
			zEdgeFactor = -zEdgeFactor
		}

		spec := shells.AccumulateShell(z, sh.Z, p.NSpecMax, ctx.Flags.UseMinihaloes, lymanEmissivity).ApplyPrefactor(z, sh.Z)
		if si > 0 && (spec.Cont == 0 || spec.Inj == 0 || spec.LyNto2 == 0 || spec.LW == 0) {
			zShellPrev := sched.Shells[si-1].Z
			contributes := func(zTest float64) bool {
				s := shells.AccumulateShell(z, zTest, p.NSpecMax, ctx.Flags.UseMinihaloes, lymanEmissivity)
				return s.Cont+s.Inj+s.LyNto2+s.LW > 0
			}
			weight := shells.EdgeWeight(zShellPrev, sh.Z, p.NSpecMax, 1000, z, contributes)
			if spec.Cont == 0 && prevCont > 0 && ctx.Flags.ShellEdgeComponents != cmfast.InjectedOnly {
				spec.Cont = prevCont * weight
			}
			if spec.Inj == 0 && prevInj > 0 && ctx.Flags.ShellEdgeComponents != cmfast.ContinuumOnly {
				spec.Inj = prevInj * weight
			}
			if spec.LyNto2 == 0 && prevLyNto2 > 0 && ctx.Flags.ShellEdgeComponents == cmfast.AllComponents {
				spec.LyNto2 = prevLyNto2 * weight
			}
			if spec.LW == 0 && prevLW > 0 && ctx.Flags.ShellEdgeComponents == cmfast.AllComponents {
				spec.LW = prevLW * weight
			}
		}
		prevCont, prevInj, prevLyNto2, prevLW = spec.Cont, spec.Inj, spec.LyNto2, spec.LW

		lyaTotal := spec.Cont + spec.LyNto2
		lyaInj := spec.Inj
		lwTotal := spec.LW

		cmfast.ParallelFor(len(delta.Elements), func(idx int) {
			sfrTerm := src.Elements[idx] * zEdgeFactor * xrayFactor
			lyaTerm := src.Elements[idx] * zEdgeFactor
			heat, ion := freq.Lookup(prev.Xe.Elements[idx], si)
			rates[idx].DXHeatDt += sfrTerm * heat
			rates[idx].DXIonDt += sfrTerm * ion
			rates[idx].DXLyaDt += lyaTerm * lyaTotal
			rates[idx].DXStarLyaDt += lyaTerm * lyaInj
			rates[idx].DXLyWDt += lyaTerm * lwTotal
		})
	}

	cmfast.ParallelFor(len(delta.Elements), func(idx int) {
		d := delta.Elements[idx]
		tk, xe, ts, _ := StepCell(rates[idx], d, z, zPrev, prev.Xe.Elements[idx], prev.Tk.Elements[idx], k, p, ctx.Flags)
		out.Tk.Elements[idx] = tk
		out.Xe.Elements[idx] = xe
		out.Ts.Elements[idx] = ts
		out.JLW.Elements[idx] = rates[idx].DXLyWDt
	})

	return out, nil
}

func xrayRFactor(zShell, alphaX float64) float64 {
	return math.Pow(1+zShell, -alphaX)
}

// lymanEmissivity is the stellar SED shape feeding the shell-by-shell
// Lyman-series sums (spec.md §4.3): a flat power law in photon number per
// unit frequency, shared by both populations. The per-population,
// per-cell normalisation comes entirely from the caller's SFR-weighted
// source grid; this only shapes how that normalisation splits across
// Lyman-series lines.
func lymanEmissivity(nuPrime float64, pop int) float64 {
	if nuPrime <= 0 {
		return 0
	}
	return 1.0 / nuPrime
}
