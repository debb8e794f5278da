package cosmology

import "math"

// planck18 is a flat-LambdaCDM Kernels implementation using Planck 2018
// parameters and textbook closed-form fits. It exists so the core has a
// concrete, testable implementation of every contract spec.md §6 lists as
// an external collaborator; it is not a faithful port of any specific
// Recfast tabulation.
type planck18 struct {
	h0      float64 // km/s/Mpc
	omegaM  float64
	omegaL  float64
	omegaB  float64
	sigma8  float64
	ns      float64
}

// Planck18 returns the default cosmology.Kernels implementation.
func Planck18() Kernels {
	return &planck18{
		h0:     67.66,
		omegaM: 0.3111,
		omegaL: 0.6889,
		omegaB: 0.04897,
		sigma8: 0.8102,
		ns:     0.9665,
	}
}

const (
	mpcToKm   = 3.0856775814913673e19 // km per Mpc
	secPerYr  = 3.15576e7
	msunG     = 1.98847e33 // g
	gravConst = 6.674e-8   // cm^3 g^-1 s^-2
	mpcToCm   = 3.0856775814913673e24
)

func (c *planck18) hubbleKmsMpc(z float64) float64 {
	return c.h0 * math.Sqrt(c.omegaM*math.Pow(1+z, 3)+c.omegaL)
}

// HubbleH returns H(z) in s^-1.
func (c *planck18) HubbleH(z float64) float64 {
	return c.hubbleKmsMpc(z) / mpcToKm
}

// TH returns 1/H(z) in seconds.
func (c *planck18) TH(z float64) float64 {
	return 1.0 / c.HubbleH(z)
}

// DtDz returns dt/dz = -1 / ((1+z) H(z)).
func (c *planck18) DtDz(z float64) float64 {
	return -1.0 / ((1 + z) * c.HubbleH(z))
}

// Growth returns a normalized approximation to the linear growth factor
// for flat LambdaCDM (Carroll, Press & Turner 1992 fitting form),
// normalised so Growth(0) = 1.
func (c *planck18) Growth(z float64) float64 {
	return c.growthUnnorm(z) / c.growthUnnorm(0)
}

func (c *planck18) growthUnnorm(z float64) float64 {
	a := 1.0 / (1.0 + z)
	omegaMA := c.omegaM / (c.omegaM + c.omegaL*a*a*a)
	omegaLA := 1.0 - omegaMA
	g := 2.5 * omegaMA / (math.Pow(omegaMA, 4.0/7.0) - omegaLA +
		(1+omegaMA/2)*(1+omegaLA/70))
	return a * g
}

// RtoM converts a comoving tophat radius (Mpc) to an enclosed mean mass
// (Msun): M = (4/3) pi R^3 rho_m,0.
func (c *planck18) RtoM(R float64) float64 {
	rhoCrit0 := 2.775e11 * (c.h0 / 100) * (c.h0 / 100) // Msun/Mpc^3, standard critical density
	rhoM0 := c.omegaM * rhoCrit0
	return (4.0 / 3.0) * math.Pi * R * R * R * rhoM0
}

// Sigma returns an approximate z=0 mass variance sigma(M) via the
// Eisenstein & Hu-style power-law fit to sigma8-normalised CDM, accurate
// enough for table construction bounds (not a precision transfer function).
func (c *planck18) Sigma(M float64) float64 {
	// sigma(M) ~ sigma8 * (M/M8)^(-(ns+3)/6) with M8 the mass in an
	// 8 Mpc/h tophat; this reproduces the right monotonic falloff of
	// sigma with mass without requiring a transfer-function table.
	M8 := c.RtoM(8.0 / (c.h0 / 100))
	return c.sigma8 * math.Pow(M/M8, -(c.ns+3)/6.0)
}

// ZHeatMax fixes the redshift above which the spin-temperature engine
// falls back to the closed-form Recfast initialiser.
func (c *planck18) ZHeatMax() float64 { return 35.0 }

// TRecfast is the Seager et al. (1999)-style fit to the post-recombination
// gas temperature, smoothly tracking the CMB temperature at high z and
// decoupling below z ~ 200.
func (c *planck18) TRecfast(z float64) float64 {
	const tcmb0 = 2.725
	tcmb := tcmb0 * (1 + z)
	zDecouple := 200.0
	if z >= zDecouple {
		return tcmb
	}
	// Below decoupling, Tk falls adiabatically as (1+z)^2 relative to its
	// value at z_decouple, approaching the CMB temperature from below.
	tDecouple := tcmb0 * (1 + zDecouple)
	return tDecouple * math.Pow((1+z)/(1+zDecouple), 2)
}

// XionRecfast is a logistic fit to the free-electron fraction around
// hydrogen recombination (z ~ 1100), saturating at the small residual
// ionisation fraction that persists to low z.
func (c *planck18) XionRecfast(z float64) float64 {
	const xResidual = 2e-4
	const zRec = 1100.0
	const width = 80.0
	x := 1.0 / (1.0 + math.Exp((zRec-z)/width))
	if x < xResidual {
		return xResidual
	}
	return x
}

// CTApprox approximates the adiabatic index c_T(z) = 2/3 * (1+z) for a
// matter-dominated, non-relativistic gas. The spintemp integrator does
// not call it; its adiabatic term is computed inline.
func (c *planck18) CTApprox(z float64) float64 {
	return 2.0 / 3.0 * (1 + z)
}

// AtomicCoolingThreshold is the standard Tvir = 1e4 K atomic-cooling mass
// fit (Barkana & Loeb 2001-style scaling).
func (c *planck18) AtomicCoolingThreshold(z float64) float64 {
	const tvir = 1.0e4
	return 7.75e7 * math.Pow(tvir/1.98e4, 1.5) * math.Pow(c.omegaM/c.omegaMZ(z)*18*math.Pi*math.Pi, -0.5) *
		math.Pow((1+z)/10, -1.5)
}

// MolecularCoolingThreshold is the same scaling at the H2-cooling virial
// temperature Tvir = 1e3 K.
func (c *planck18) MolecularCoolingThreshold(z float64) float64 {
	const tvir = 1.0e3
	return 7.75e7 * math.Pow(tvir/1.98e4, 1.5) * math.Pow(c.omegaM/c.omegaMZ(z)*18*math.Pi*math.Pi, -0.5) *
		math.Pow((1+z)/10, -1.5)
}

func (c *planck18) omegaMZ(z float64) float64 {
	a3 := math.Pow(1+z, 3)
	return c.omegaM * a3 / (c.omegaM*a3 + c.omegaL)
}

// LymanWernerThreshold combines the three LW-feedback effects (photo-
// detachment, H2 self-shielding via J, and baryon-DM streaming velocity
// via vcb) into a single turnover mass, following the standard
// Machacek-Bryan-Abel-style functional form.
func (c *planck18) LymanWernerThreshold(z, J, vcb float64) float64 {
	m0 := c.MolecularCoolingThreshold(z)
	jTerm := math.Pow(1+5.0e4*J, 0.47)
	vTerm := 1.0 + 0.8*vcb/33.0
	return m0 * jTerm * vTerm
}

// ReionizationFeedback is the Sobacchi & Mesinger (2013)-style fit to the
// turnover mass suppression from local photo-heating once a cell has been
// ionised.
func (c *planck18) ReionizationFeedback(z, gamma, zRe float64) float64 {
	if zRe < 0 {
		return 0
	}
	const mTurnRef = 2.8e9 // atomic-cooling-scale normalisation
	ratio := (1 + zRe) / (1 + z)
	return mTurnRef * math.Pow(gamma/1e-12+1e-20, 0.17) * math.Pow(ratio, 2.5)
}

// ComputePartiallyIonizedTemperature blends the pre-ionisation neutral
// temperature toward the fully-ionised temperature in proportion to the
// ionised fraction (1-xH).
func (c *planck18) ComputePartiallyIonizedTemperature(tkNeutral, xH float64) float64 {
	const tIon = 2.0e4 // K, fully photoheated gas
	frac := 1 - xH
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	return tkNeutral*(1-frac) + tIon*frac
}

// ComputeFullyIonizedTemperature approximates the photoheating-equilibrium
// temperature of gas ionised at zRe, adiabatically cooled from then to z,
// adjusted for the local overdensity.
func (c *planck18) ComputeFullyIonizedTemperature(zRe, z, delta float64) float64 {
	if zRe < 0 {
		zRe = z
	}
	const tIon = 2.0e4
	cooled := tIon * math.Pow((1+z)/(1+zRe), 2)
	return cooled * math.Pow(1+delta, 2.0/3.0)
}

// SplinedRecombinationRate is a case-B-like recombination rate fit,
// increasing with density (via zEff, which already folds in (1+delta))
// and weakly suppressed at high photo-ionisation rate.
func (c *planck18) SplinedRecombinationRate(zEff, gamma12 float64) float64 {
	base := 1.0e-13 * math.Pow((1+zEff)/10, 3) // s^-1, case-B scaling
	return base / (1 + 0.1*gamma12)
}

// AdjustRedshiftsForPhotoncons is the identity remap: no photon-
// conservation correction is applied by default (PhotonConsType ==
// PhotonConsNone upstream), so zUsed == zStored == z and dz == 0.
func (c *planck18) AdjustRedshiftsForPhotoncons(z float64) (zUsed, zStored, dz float64, err error) {
	if math.IsNaN(z) || math.IsInf(z, 0) {
		return 0, 0, 0, errNonFiniteRedshift(z)
	}
	return z, z, 0, nil
}

type errNonFiniteRedshiftT struct{ z float64 }

func (e errNonFiniteRedshiftT) Error() string { return "cosmology: non-finite redshift" }

func errNonFiniteRedshift(z float64) error { return errNonFiniteRedshiftT{z: z} }
