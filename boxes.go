package cmfast

// Halo is one record of the optional halo catalogue (spec.md §3). Position
// is in cell units ([0, N)^3); a Mass of zero excludes the halo from
// gridding.
type Halo struct {
	X, Y, Z           float64
	Mass              float64
	RNGStar           float64
	RNGSFR            float64
	RNGXray           float64
}

// HaloCatalogue is an unordered sequence of halo records.
type HaloCatalogue struct {
	Halos []Halo
}

// HaloBox holds the per-cell emissivity grids populated by
// halobox.ComputeHaloBox (spec.md §4.4, §6).
type HaloBox struct {
	HaloMass    *Grid `units:"Msun"`
	StellarMass *Grid `units:"Msun"`
	StellarMassMini *Grid `units:"Msun"`
	SFR         *Grid `units:"Msun/s"`
	SFRMini     *Grid `units:"Msun/s"`
	WeightedSFR *Grid `units:"Msun/s"` // wSFR, weighted for dust/metallicity
	NIon        *Grid `units:"1"`       // ionising photons per baryon
	LX          *Grid `units:"erg/s"`

	// Average turnovers over all gridded halos (spec.md §4.4), scalars
	// rather than grids.
	AvgMTurnACG   float64 `units:"Msun"`
	AvgMTurnMCG   float64 `units:"Msun"`
	AvgMTurnReion float64 `units:"Msun"`
}

// TsBox holds the per-cell radiative-state outputs of
// spintemp.ComputeSpinTemperature (spec.md §4.5, §6).
type TsBox struct {
	Ts   *Grid `units:"K"`
	Tk   *Grid `units:"K"`
	Xe   *Grid `units:"1"`
	JLW  *Grid `units:"erg/s/cm^2/Hz/sr"`
}

// IonizedBox holds the per-cell ionisation-state outputs of
// ionize.ComputeIonizedBox (spec.md §4.6, §6).
type IonizedBox struct {
	XH             *Grid `units:"1"`
	ZRe            *Grid `units:"1"` // redshift of reionisation, -1 if never ionised
	Gamma12        *Grid `units:"1/s"`
	MFP            *Grid `units:"Mpc"`
	DNRec          *Grid `units:"1"` // cumulative recombinations per baryon
	TkAllGas       *Grid `units:"K"`
	MeanFColl      float64
	MeanFCollMini  float64
	// Fcoll and FcollMini are per-shell collapsed-fraction snapshots
	// (spec.md §3 "Fcoll[NSHELL]"), indexed [shell].
	Fcoll     []*Grid
	FcollMini []*Grid
}

// PrevState is the immutable, read-only borrow of the previous snapshot
// that spec.md §3/§9 describes: every snapshot function takes this by
// value (pointer, but never mutated) and returns owned outputs; the
// orchestrator swaps a double buffer between steps.
type PrevState struct {
	Z         float64
	Ts        *TsBox
	Ionized   *IonizedBox
	MeanXe    float64
}

// NewHaloBox allocates an empty HaloBox of shape (nx, ny, nz).
func NewHaloBox(nx, ny, nz int) *HaloBox {
	return &HaloBox{
		HaloMass:        NewGrid(nx, ny, nz, "Msun"),
		StellarMass:     NewGrid(nx, ny, nz, "Msun"),
		StellarMassMini: NewGrid(nx, ny, nz, "Msun"),
		SFR:             NewGrid(nx, ny, nz, "Msun/s"),
		SFRMini:         NewGrid(nx, ny, nz, "Msun/s"),
		WeightedSFR:     NewGrid(nx, ny, nz, "Msun/s"),
		NIon:            NewGrid(nx, ny, nz, "1"),
		LX:              NewGrid(nx, ny, nz, "erg/s"),
	}
}

// NewTsBox allocates an empty TsBox of shape (nx, ny, nz).
func NewTsBox(nx, ny, nz int) *TsBox {
	return &TsBox{
		Ts:  NewGrid(nx, ny, nz, "K"),
		Tk:  NewGrid(nx, ny, nz, "K"),
		Xe:  NewGrid(nx, ny, nz, "1"),
		JLW: NewGrid(nx, ny, nz, "erg/s/cm^2/Hz/sr"),
	}
}

// NewIonizedBox allocates an empty IonizedBox of shape (nx, ny, nz) with
// nShell per-shell collapsed-fraction grids.
func NewIonizedBox(nx, ny, nz, nShell int) *IonizedBox {
	b := &IonizedBox{
		XH:       NewGrid(nx, ny, nz, "1"),
		ZRe:      NewGrid(nx, ny, nz, "1"),
		Gamma12:  NewGrid(nx, ny, nz, "1/s"),
		MFP:      NewGrid(nx, ny, nz, "Mpc"),
		DNRec:    NewGrid(nx, ny, nz, "1"),
		TkAllGas: NewGrid(nx, ny, nz, "K"),
	}
	for i := 0; i < nShell; i++ {
		b.Fcoll = append(b.Fcoll, NewGrid(nx, ny, nz, "1"))
		b.FcollMini = append(b.FcollMini, NewGrid(nx, ny, nz, "1"))
	}
	// z_re = -1 means "never ionised" (spec.md §3 invariant).
	for i := range b.ZRe.Elements {
		b.ZRe.Elements[i] = -1
	}
	for i := range b.XH.Elements {
		b.XH.Elements[i] = 1
	}
	return b
}
