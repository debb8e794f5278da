// Package massfn implements spec.md §4.2's tabulated conditional and
// unconditional mass-function integrals (collapsed fraction, N_ion, SFRD)
// as functions of overdensity delta, log10(M_turn) and redshift, exposed
// as regular-grid interpolation tables.
package massfn

import "math"

// DeltaCrit is the (z=0, linear-theory) spherical-collapse critical
// overdensity used throughout the extended Press-Schechter formalism this
// package's conditional mass function is built on.
const DeltaCrit = 1.686

// erfc is the complementary error function, used by the extended
// Press-Schechter conditional collapsed-fraction closed form.
func erfc(x float64) float64 { return math.Erfc(x) }

// condCollapsedFraction is the extended Press-Schechter conditional
// collapsed fraction of mass above Mmin (expressed via sigmaMin =
// sigma(Mmin)) inside a region of overdensity delta and variance
// sigmaCond^2 = sigma(Mcond)^2, at linear growth factor growth:
//
//	F(> Mmin | delta, Mcond) = erfc( (deltaC/growth - delta) /
//	                                  sqrt(2*(sigmaMin^2 - sigmaCond^2)) )
//
// This is the building block behind Fcoll_delta, Fcoll_General and every
// *_Conditional table (spec.md §4.2).
func condCollapsedFraction(delta, growth, sigmaMin, sigmaCond float64) float64 {
	varDiff := sigmaMin*sigmaMin - sigmaCond*sigmaCond
	if varDiff <= 0 {
		// Mmin at or above the conditioning scale: no collapsed mass
		// resolved beyond what the condition itself already represents.
		if delta >= DeltaCrit/growth {
			return 1
		}
		return 0
	}
	arg := (DeltaCrit/growth - delta) / math.Sqrt(2*varDiff)
	return erfc(arg)
}

// dCondCollapsedFractionDDelta is d/d(delta) of condCollapsedFraction.
// DFcollDzDelta does not use it; it differentiates by finite difference.
func dCondCollapsedFractionDDelta(delta, growth, sigmaMin, sigmaCond float64) float64 {
	varDiff := sigmaMin*sigmaMin - sigmaCond*sigmaCond
	if varDiff <= 0 {
		return 0
	}
	arg := (DeltaCrit/growth - delta) / math.Sqrt(2*varDiff)
	// d/dx erfc(x) = -2/sqrt(pi) exp(-x^2); dx/d(delta) = -1/sqrt(2*varDiff)
	dErfc := -2.0 / math.Sqrt(math.Pi) * math.Exp(-arg*arg)
	return dErfc * (-1.0 / math.Sqrt(2*varDiff))
}
