// Package cosmology supplies concrete implementations of the "external
// collaborator" kernels spec.md §6 lists as consumed, not implemented,
// contracts: the background cosmology (growth factor, Hubble rate),
// Recfast look-ups, and a handful of thermochemistry/feedback closed
// forms the spin-temperature and ionisation components call through one
// interface. Swapping Kernels for a different implementation (e.g. one
// backed by a tabulated Recfast run) requires no change anywhere else in
// the module.
package cosmology

// Kernels is the full set of external collaborator functions spec.md §6
// names. Everything here is standard flat-LambdaCDM/Recfast-fit material;
// none of it is specific to this implementation's internal state.
type Kernels interface {
	// Growth returns the linear growth factor D(z), normalised to D(0)=1.
	Growth(z float64) float64
	// HubbleH returns H(z) in s^-1.
	HubbleH(z float64) float64
	// TH returns the Hubble time 1/H(z) in s.
	TH(z float64) float64
	// DtDz returns dt/dz at z, in s.
	DtDz(z float64) float64
	// RtoM converts a comoving tophat radius R (Mpc) to the enclosed mean
	// mass M (Msun).
	RtoM(R float64) float64
	// Sigma returns the z=0 linear matter variance sigma(M) on mass scale M.
	Sigma(M float64) float64
	// ZHeatMax is the redshift above which the spin-temperature engine
	// uses the Recfast closed-form initialiser instead of integrating.
	ZHeatMax() float64
	// TRecfast returns the Recfast-fit gas kinetic temperature at z (K).
	TRecfast(z float64) float64
	// XionRecfast returns the Recfast-fit free-electron fraction at z.
	XionRecfast(z float64) float64
	// CTApprox returns the adiabatic index approximation c_T(z).
	CTApprox(z float64) float64
	// AtomicCoolingThreshold returns the atomic-cooling turnover mass at z.
	AtomicCoolingThreshold(z float64) float64
	// MolecularCoolingThreshold returns the molecular (H2)-cooling
	// turnover mass at z.
	MolecularCoolingThreshold(z float64) float64
	// LymanWernerThreshold returns the LW-feedback turnover mass given the
	// local LW intensity J (erg/s/cm^2/Hz/sr) and relative baryon-DM
	// streaming velocity vcb (km/s).
	LymanWernerThreshold(z, J, vcb float64) float64
	// ReionizationFeedback returns the reionisation-feedback turnover mass
	// given the local photo-ionisation rate Gamma (s^-1) and the cell's
	// redshift of reionisation zRe (-1 if never ionised).
	ReionizationFeedback(z, gamma, zRe float64) float64
	// ComputePartiallyIonizedTemperature returns the residual kinetic
	// temperature of a cell with neutral fraction xH and pre-ionisation
	// temperature tkNeutral.
	ComputePartiallyIonizedTemperature(tkNeutral, xH float64) float64
	// ComputeFullyIonizedTemperature returns the "fully ionised
	// temperature" of a cell given its redshift of reionisation zRe,
	// current redshift z and overdensity delta.
	ComputeFullyIonizedTemperature(zRe, z, delta float64) float64
	// SplinedRecombinationRate returns the case-B-like recombination rate
	// used by the dN_rec update, given an effective redshift and Gamma12.
	SplinedRecombinationRate(zEff, gamma12 float64) float64
	// AdjustRedshiftsForPhotoncons returns the (used, stored, delta)
	// redshift triple the photon-conservation remap produces for a
	// requested redshift z.
	AdjustRedshiftsForPhotoncons(z float64) (zUsed, zStored, dz float64, err error)
}
