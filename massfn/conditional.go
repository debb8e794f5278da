package massfn

import (
	"math"

	"gonum.org/v1/gonum/integrate/quad"

	"github.com/samgagnon/cmfast/cosmology"
)

// FcollDelta is the extended Press-Schechter conditional collapsed
// fraction of mass above Mmin inside a region of overdensity delta and
// comoving mass Mcond (the cell or smoothing-scale mass), at redshift z
// (spec.md §4.2's Fcoll_delta).
func FcollDelta(delta, z, Mmin, Mcond float64, k cosmology.Kernels) float64 {
	growth := k.Growth(z)
	sigmaMin := k.Sigma(Mmin)
	sigmaCond := k.Sigma(Mcond)
	return condCollapsedFraction(delta, growth, sigmaMin, sigmaCond)
}

// DFcollDzDelta is d(FcollDelta)/dz, evaluated by central finite
// difference in z: the instantaneous rate of change of the conditional
// collapsed fraction rather than its value.
func DFcollDzDelta(delta, z, Mmin, Mcond float64, k cosmology.Kernels) float64 {
	const h = 1e-3
	fp := FcollDelta(delta, z+h, Mmin, Mcond, k)
	fm := FcollDelta(delta, z-h, Mmin, Mcond, k)
	return (fp - fm) / (2 * h)
}

// condDnDlnM is the conditional halo mass function per unit ln M inside a
// region of overdensity delta and mass Mcond, following the same
// closed-form shape as the unconditional dnDlnM but with the barrier and
// variance shifted by the conditioning scale (Bond et al. 1991 extended
// Press-Schechter).
func condDnDlnM(lnM, delta, z, Mcond float64, k cosmology.Kernels, rhoM0 float64) float64 {
	M := math.Exp(lnM)
	growth := k.Growth(z)
	sigma := k.Sigma(M)
	sigmaCond := k.Sigma(Mcond)
	varDiff := sigma*sigma - sigmaCond*sigmaCond
	if varDiff <= 0 || M >= Mcond {
		return 0
	}
	const h = 1e-3
	sigmaP := k.Sigma(math.Exp(lnM + h))
	sigmaM := k.Sigma(math.Exp(lnM - h))
	dlnSigmaDlnM := (math.Log(sigmaP) - math.Log(sigmaM)) / (2 * h)
	barrier := DeltaCrit/growth - delta
	nu := barrier / math.Sqrt(varDiff)
	return 2 * math.Sqrt(2/math.Pi) * rhoM0 * (barrier / math.Pow(varDiff, 1.5)) * sigma * sigma * math.Abs(dlnSigmaDlnM) * math.Exp(-nu*nu/2)
}

// NionConditional is the conditional analogue of NionGeneral: the number
// of ionising photons per baryon produced by haloes with M in
// [Mmin, Mcond] inside a region of overdensity delta and mass Mcond, at
// redshift z.
func NionConditional(delta, z, Mmin, Mcond float64, k cosmology.Kernels, rhoM0 float64, p StarParams) float64 {
	if Mcond <= Mmin {
		return 0
	}
	integrand := func(lnM float64) float64 {
		M := math.Exp(lnM)
		return zeta(M, p) * M * condDnDlnM(lnM, delta, z, Mcond, k, rhoM0)
	}
	v := quad.Fixed(integrand, math.Log(Mmin), math.Log(Mcond), 64, quad.Legendre{}, 0)
	return v / (rhoM0 * Mcond)
}

// NionConditionalMini is NionConditional restricted to the minihalo
// (molecular-cooling) channel; callers pass the MCG StarParams and the LW
// threshold as Mmin.
func NionConditionalMini(delta, z, MminMCG, Mcond float64, k cosmology.Kernels, rhoM0 float64, p StarParams) float64 {
	return NionConditional(delta, z, MminMCG, Mcond, k, rhoM0, p)
}

// SFRDConditional is the conditional analogue of SFRDGeneral: the
// star-formation-rate density inside a region of overdensity delta and
// mass Mcond, weighted by the f*(M) efficiency and the tStar*TH(z)
// instantaneous-SFR timescale.
func SFRDConditional(delta, z, Mmin, Mcond float64, k cosmology.Kernels, rhoM0, tStar float64, p StarParams) float64 {
	if Mcond <= Mmin {
		return 0
	}
	tau := tStar * k.TH(z)
	integrand := func(lnM float64) float64 {
		M := math.Exp(lnM)
		return p.BaryonFraction * fStar(M, p) * M * condDnDlnM(lnM, delta, z, Mcond, k, rhoM0)
	}
	v := quad.Fixed(integrand, math.Log(Mmin), math.Log(Mcond), 64, quad.Legendre{}, 0)
	return v / (rhoM0 * Mcond) / tau
}

// BuildFcollDeltaTable builds a Table2D of FcollDelta over (delta, z),
// for callers that need repeated lookups at fixed Mmin/Mcond rather than
// the closed form re-evaluated per cell.
func BuildFcollDeltaTable(table string, deltaLo, deltaHi float64, nDelta int, zLo, zHi float64, nZ int, Mmin, Mcond float64, k cosmology.Kernels) (*Table2D, error) {
	return NewTable2D(table, deltaLo, deltaHi, nDelta, zLo, zHi, nZ, func(delta, z float64) float64 {
		return FcollDelta(delta, z, Mmin, Mcond, k)
	})
}
