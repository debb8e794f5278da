package halobox

import (
	"math"

	"github.com/samgagnon/cmfast"
)

const (
	popIIPhotonsPerBaryon  = 4000.0
	popIIIPhotonsPerBaryon = 44000.0
)

// HaloProps is the per-halo stochastic output of spec.md §4.4's halo
// property model, ready to be accumulated into a cell.
type HaloProps struct {
	StellarMass     float64
	StellarMassMini float64
	SFR             float64
	SFRMini         float64
	Metallicity     float64
	LX              float64
	NIon            float64
}

// Compute evaluates the stochastic halo property model for one halo
// (spec.md §4.4), given its cell's turnover masses, the snapshot redshift
// z and the Hubble time tH(z).
func Compute(h cmfast.Halo, t Turnovers, z, tH float64, p cmfast.Params) HaloProps {
	M := h.Mass
	if M <= 0 {
		return HaloProps{}
	}

	fStarACG := fStarUpperTurnover(M, p.FStar10, p.AlphaStar, p.MLimStar, p.AlphaUpper)
	fStarACG *= math.Exp(-t.ACG/M + h.RNGStar*p.SigmaStar - p.SigmaStar*p.SigmaStar/2)
	fStarACG = clip01(fStarACG)
	stellarMass := fStarACG * M * p.BaryonFraction

	fStarMCG := p.FStar7Mini * math.Pow(M/1e7, p.AlphaStarMini)
	fStarMCG *= math.Exp(-t.MCG/M - M/t.ACG + h.RNGStar*p.SigmaStar - p.SigmaStar*p.SigmaStar/2)
	fStarMCG = clip01(fStarMCG)
	stellarMassMini := fStarMCG * M * p.BaryonFraction

	sfr := sfrFromStellarMass(stellarMass, h.RNGSFR, tH, p)
	sfrMini := sfrFromStellarMass(stellarMassMini, h.RNGSFR, tH, p)

	metallicity := 0.0
	if sfr > 0 {
		metallicity = 0.296 * math.Pow(1+math.Pow(stellarMass/(1.28e10*math.Pow(sfr, 0.56)), -2.1), -0.148) *
			math.Pow(10, -0.056*z+0.064)
	}

	lx := lxOverSFR(metallicity, p.LXSFRNorm) * (sfr + sfrMini) * math.Exp(h.RNGXray*p.SigmaXray-p.SigmaXray*p.SigmaXray/2)

	fEscACG := clip01(p.FEsc10 * math.Pow(M/1e10, p.AlphaEsc))
	fEscMCG := clip01(p.FEscMini * math.Pow(M/1e7, p.AlphaEsc))
	nIon := stellarMass*popIIPhotonsPerBaryon*fEscACG + stellarMassMini*popIIIPhotonsPerBaryon*fEscMCG

	return HaloProps{
		StellarMass:     stellarMass,
		StellarMassMini: stellarMassMini,
		SFR:             sfr,
		SFRMini:         sfrMini,
		Metallicity:     metallicity,
		LX:              lx,
		NIon:            nIon,
	}
}

// fStarUpperTurnover applies the optional upper-mass turnover of shape
// 1/((M/Mp)^-alphaStar + (M/Mp)^-alphaUpper) on top of the base power law,
// skipped (turnover disabled) when Mp <= 0.
func fStarUpperTurnover(M, fStar10, alphaStar, Mp, alphaUpper float64) float64 {
	f := fStar10 * math.Pow(M/1e10, alphaStar)
	if Mp <= 0 {
		return f
	}
	turn := 1.0 / (math.Pow(M/Mp, -alphaStar) + math.Pow(M/Mp, -alphaUpper))
	return f * turn
}

func sfrFromStellarMass(stellarMass, rSFR, tH float64, p cmfast.Params) float64 {
	if stellarMass <= 0 || p.TStar <= 0 {
		return 0
	}
	sigmaSFR := p.SigmaSFRIdx*math.Log10(stellarMass/1e10) + p.SigmaSFRLim
	if sigmaSFR < p.SigmaSFRLim {
		sigmaSFR = p.SigmaSFRLim
	}
	base := stellarMass / (p.TStar * tH)
	return base * math.Exp(rSFR*sigmaSFR-sigmaSFR*sigmaSFR/2)
}

// lxOverSFR is the tunable L_X/SFR(Z) relation, a double power-law in
// metallicity normalised at LXSFRNorm (spec.md §4.4's "default: double
// power-law in Z").
func lxOverSFR(Z, norm float64) float64 {
	if Z <= 0 {
		return norm
	}
	const z1, a1, a2 = 0.2, 0.3, -0.3
	ratio := Z / z1
	return norm / (math.Pow(ratio, a1) + math.Pow(ratio, a2))
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
