package cmfast

// BubbleAlgorithm selects how an ionised cell paints its neighbourhood
// (spec.md §4.6).
type BubbleAlgorithm int

const (
	// SphereAlgorithm paints every cell within radius R of the ionising
	// cell.
	SphereAlgorithm BubbleAlgorithm = iota
	// CenterAlgorithm paints only the centre cell.
	CenterAlgorithm
)

// PhotonConsType selects which photon-conservation remap is applied
// (spec.md §6).
type PhotonConsType int

const (
	PhotonConsNone PhotonConsType = iota
	PhotonConsZShift
	PhotonConsAlphaEscFit
	PhotonConsFEscFit
)

// PhotonConsApplyTo is the Open Question 3 knob (DESIGN.md): whether the
// photon-conservation adjustment factor multiplies the density field or
// shifts the redshift inputs. No code reads this field: neither the
// recombination step nor the ionisation criterion applies the factor, and
// LoadFlags does not set it.
type PhotonConsApplyTo int

const (
	PhotonConsApplyDensity PhotonConsApplyTo = iota
	PhotonConsApplyRedshift
)

// ShellEdgeWeightedComponents resolves Open Question 1 (DESIGN.md): which
// spectral components the shell-edge partial-volume weight (spec.md
// §4.3's edge-case policy) applies to.
type ShellEdgeWeightedComponents int

const (
	AllComponents ShellEdgeWeightedComponents = iota
	ContinuumOnly
	InjectedOnly
	PerN
)

// Flags is the closed set of configuration options from spec.md §6.
type Flags struct {
	UseHaloField          bool
	UseMinihaloes         bool
	UseMassDependentZeta  bool
	UseTsFluct            bool
	UseLyaHeating         bool
	UseCmbHeating         bool
	InhomoReco            bool
	CellRecomb            bool
	UseExpFilter          bool
	MinimizeMemory        bool
	FixVcbAvg             bool
	AvgBelowSampler       bool
	NoRNG                 bool
	PhotonConsType        PhotonConsType
	PhotonConsApplyTo     PhotonConsApplyTo
	BubbleAlgorithm       BubbleAlgorithm
	Filter                FilterKind
	ShellEdgeComponents   ShellEdgeWeightedComponents
}

// Validate returns a *ValueError for any inconsistent flag combination
// detected at snapshot entry (spec.md §7 "Value" taxonomy entry).
func (f Flags) Validate() error {
	switch f.BubbleAlgorithm {
	case SphereAlgorithm, CenterAlgorithm:
	default:
		return &ValueError{Field: "BubbleAlgorithm", Msg: "must be sphere or center"}
	}
	switch f.Filter {
	case TophatReal, TophatK, Gaussian, Exponential, Annulus:
	default:
		return &ValueError{Field: "Filter", Msg: "unknown filter kind"}
	}
	if f.Filter == Exponential && !f.UseExpFilter {
		return &ValueError{Field: "Filter", Msg: "exponential filter selected without UseExpFilter"}
	}
	switch f.PhotonConsType {
	case PhotonConsNone, PhotonConsZShift, PhotonConsAlphaEscFit, PhotonConsFEscFit:
	default:
		return &ValueError{Field: "PhotonConsType", Msg: "unknown photon conservation type"}
	}
	return nil
}

// Params holds the numeric knobs referenced throughout spec.md §4 (star
// formation, escape fraction, scatter widths, etc.), plus the lattice
// geometry and a handful of physical/ numerical constants the component
// packages share.
type Params struct {
	// Lattice geometry (spec.md §3).
	HIIDim int     // N
	DimF   float64 // non-cubic factor f >= 1 (Nz = ceil(f*N))
	BoxLen float64 // L, comoving Mpc

	// Star formation / escape fraction (spec.md §4.4).
	AlphaStar      float64
	AlphaStarMini  float64
	AlphaEsc       float64
	FStar10        float64
	FStar7Mini     float64
	FEsc10         float64
	FEscMini       float64
	MLimStar       float64 // upper-mass turnover scale M_p (0 disables)
	AlphaUpper     float64
	MTurnFloor     float64

	// Stochastic scatter widths (spec.md §4.4).
	SigmaStar float64
	SigmaSFR  float64
	SigmaSFRIdx float64
	SigmaSFRLim float64
	SigmaXray float64

	// Star formation / X-ray (spec.md §4.4, §4.5).
	TStar      float64 // dimensionless star formation time-scale t_*
	LXSFRNorm  float64 // normalisation of L_X/SFR(Z) relation
	AlphaX     float64 // X-ray spectral index

	// Ionising photon budget per baryon (spec.md §4.6 criterion).
	Zeta     float64 // ionising efficiency ACG
	ZetaMini float64 // ionising efficiency MCG

	// Cosmology / chemistry constants frequently referenced in §4.5/§4.6.
	BaryonFraction float64 // f_b = Omega_b / Omega_m
	YHe            float64 // helium mass fraction
	NPoisson       float64 // N_POISSON threshold (spec.md §4.6 step 7)
	HIIRoundErr    float64 // HII_ROUND_ERR floor (spec.md §8)
	EpsDensityFloor float64 // ε in δ >= -1+ε

	// Shell / radius schedule bounds (spec.md §3).
	RBubbleMin float64
	RBubbleMax float64
	RXLyMax    float64
	NShell     int
	NXHII      int // size of tabulated x_e grid for frequency-integral tables
	NSpecMax   int // max Lyman-series n

	// M_sampler threshold for AvgBelowSampler mode (spec.md §4.4).
	MSampler float64

	// RNG.
	Seed int64
}
