package massfn

import (
	"math"

	"gonum.org/v1/gonum/integrate/quad"

	"github.com/samgagnon/cmfast/cosmology"
)

// nGammaPerBaryon is the number of ionising photons produced per baryon
// converted to stars over its lifetime, folded into the mass-dependent
// ionising efficiency zeta(M) below. It is a population-synthesis
// constant, not a free parameter this package exposes.
const nGammaPerBaryon = 4000.0

// StarParams bundles the mass-dependent star-formation/escape-fraction
// knobs Nion_General and its conditional counterparts need, mirroring the
// ACG subset of cmfast.Params.
type StarParams struct {
	FStar10, AlphaStar   float64
	FEsc10, AlphaEsc     float64
	MLimStar, MLimEsc    float64
	BaryonFraction       float64
}

// fStar is the duty-cycle-free stellar mass fraction f*(M): a power law
// in halo mass, capped at unity and exponentially suppressed below the
// MLimStar feedback scale (spec.md §4.2's "mass-dependent star formation
// efficiency").
func fStar(M float64, p StarParams) float64 {
	f := p.FStar10 * math.Pow(M/1e10, p.AlphaStar)
	if f > 1 {
		f = 1
	}
	if p.MLimStar > 0 {
		f *= math.Exp(-p.MLimStar / M)
	}
	return f
}

// fEsc is the escape-fraction power law f_esc(M), capped at unity.
func fEsc(M float64, p StarParams) float64 {
	f := p.FEsc10 * math.Pow(M/1e10, p.AlphaEsc)
	if f > 1 {
		f = 1
	}
	if p.MLimEsc > 0 {
		f *= math.Exp(-p.MLimEsc / M)
	}
	return f
}

// zeta is the mass-dependent ionising efficiency zeta(M) = fb f* fesc
// Ngamma, the integrand weight shared by every Nion_* table.
func zeta(M float64, p StarParams) float64 {
	return p.BaryonFraction * fStar(M, p) * fEsc(M, p) * nGammaPerBaryon
}

// dnDlnM is the unconditional Press-Schechter halo mass function expressed
// per unit ln M, at redshift z, using k.Sigma for the z=0 variance and
// k.Growth to scale it to z:
//
//	dn/dlnM = sqrt(2/pi) * (rho_m0/M) * (deltaC/(growth*sigma)) * |dlnsigma/dlnM| * exp(-deltaC^2/(2*growth^2*sigma^2))
//
// The log-derivative is evaluated by central finite difference in ln M,
// since k.Sigma is an opaque closed-form fit rather than a table whose
// derivative is known analytically.
func dnDlnM(lnM float64, z float64, k cosmology.Kernels, rhoM0 float64) float64 {
	M := math.Exp(lnM)
	growth := k.Growth(z)
	sigma := k.Sigma(M)
	if sigma <= 0 {
		return 0
	}
	const h = 1e-3
	sigmaP := k.Sigma(math.Exp(lnM + h))
	sigmaM := k.Sigma(math.Exp(lnM - h))
	dlnSigmaDlnM := (math.Log(sigmaP) - math.Log(sigmaM)) / (2 * h)
	nu := DeltaCrit / (growth * sigma)
	return math.Sqrt(2/math.Pi) * rhoM0 / M * nu * math.Abs(dlnSigmaDlnM) * math.Exp(-nu*nu/2)
}

// gaussLegendre evaluates integral_lo^hi f(x) dx with an n-point
// Gauss-Legendre rule, grounded on gonum/integrate/quad (spec.md §4.2
// requires Gauss-Legendre quadrature for every mass-function integral).
func gaussLegendre(lo, hi float64, n int, f func(x float64) float64) float64 {
	return quad.Fixed(f, lo, hi, n, quad.Legendre{}, 0)
}

// FcollGeneral returns the unconditional collapsed fraction of matter in
// haloes with M in [Mmin, Mmax] at redshift z:
//
//	Fcoll = (1/rhoM0) * integral_lnMmin^lnMmax M dn/dlnM dlnM
func FcollGeneral(z, Mmin, Mmax float64, k cosmology.Kernels, rhoM0 float64) float64 {
	if Mmax <= Mmin {
		return 0
	}
	integrand := func(lnM float64) float64 {
		return math.Exp(lnM) * dnDlnM(lnM, z, k, rhoM0)
	}
	return gaussLegendre(math.Log(Mmin), math.Log(Mmax), 64, integrand) / rhoM0
}

// NionGeneral returns the unconditional number of ionising photons per
// baryon produced by haloes with M in [Mmin, Mmax] at redshift z, using
// the ACG mass-dependent efficiency zeta(M) (spec.md §4.2).
func NionGeneral(z, Mmin, Mmax float64, k cosmology.Kernels, rhoM0 float64, p StarParams) float64 {
	if Mmax <= Mmin {
		return 0
	}
	integrand := func(lnM float64) float64 {
		M := math.Exp(lnM)
		return zeta(M, p) * M * dnDlnM(lnM, z, k, rhoM0)
	}
	return gaussLegendre(math.Log(Mmin), math.Log(Mmax), 64, integrand) / rhoM0
}

// NionGeneralMini is NionGeneral for the minihalo (molecular-cooling,
// Population III) channel: same integral, different (lower-mass) bounds
// and a separate StarParams set (AlphaStarMini/FStar7Mini in the caller's
// Params map onto FStar10/AlphaStar here by convention).
func NionGeneralMini(z, Mmin, Mmax float64, k cosmology.Kernels, rhoM0 float64, p StarParams) float64 {
	return NionGeneral(z, Mmin, Mmax, k, rhoM0, p)
}

// SFRDGeneral returns the unconditional star-formation-rate density
// (Msun/s/Mpc^3, since TH is in seconds) contributed by haloes with M in [Mmin, Mmax] at
// redshift z, weighted by f*(M) and the instantaneous-SFR timescale
// tStar * TH(z).
func SFRDGeneral(z, Mmin, Mmax float64, k cosmology.Kernels, rhoM0, tStar float64, p StarParams) float64 {
	if Mmax <= Mmin {
		return 0
	}
	tau := tStar * k.TH(z)
	integrand := func(lnM float64) float64 {
		M := math.Exp(lnM)
		return p.BaryonFraction * fStar(M, p) * M * dnDlnM(lnM, z, k, rhoM0)
	}
	massRate := gaussLegendre(math.Log(Mmin), math.Log(Mmax), 64, integrand)
	return massRate / tau
}
