package cmfast

import (
	"fmt"

	"github.com/lnashier/viper"
	"github.com/spf13/cast"
)

// LoadParams unmarshals a viper configuration into a Params, the same way
// the teacher's config loader pulls typed values out of a *viper.Viper one
// field at a time and range-checks them (inmaputil's VarGridConfig), for
// callers that keep their parameters in a config file rather than
// constructing Params literally.
func LoadParams(cfg *viper.Viper) (Params, error) {
	p := Params{
		HIIDim:          cfg.GetInt("HIIDim"),
		DimF:            getFloatDefault(cfg, "NonCubicFactor", 1.0),
		BoxLen:          cfg.GetFloat64("BoxLen"),
		AlphaStar:       cfg.GetFloat64("AlphaStar"),
		AlphaStarMini:   cfg.GetFloat64("AlphaStarMini"),
		AlphaEsc:        cfg.GetFloat64("AlphaEsc"),
		FStar10:         cfg.GetFloat64("FStar10"),
		FStar7Mini:      cfg.GetFloat64("FStar7Mini"),
		FEsc10:          cfg.GetFloat64("FEsc10"),
		FEscMini:        cfg.GetFloat64("FEscMini"),
		MLimStar:        cfg.GetFloat64("MLimStar"),
		AlphaUpper:      cfg.GetFloat64("AlphaUpper"),
		MTurnFloor:      getFloatDefault(cfg, "MTurnFloor", 5e8),
		SigmaStar:       cfg.GetFloat64("SigmaStar"),
		SigmaSFR:        cfg.GetFloat64("SigmaSFR"),
		SigmaSFRIdx:     cfg.GetFloat64("SigmaSFRIndex"),
		SigmaSFRLim:     cfg.GetFloat64("SigmaSFRLim"),
		SigmaXray:       cfg.GetFloat64("SigmaXray"),
		TStar:           getFloatDefault(cfg, "TStar", 0.5),
		LXSFRNorm:       getFloatDefault(cfg, "LXSFRNorm", 3.0e40),
		AlphaX:          getFloatDefault(cfg, "AlphaX", 1.0),
		Zeta:            cfg.GetFloat64("Zeta"),
		ZetaMini:        cfg.GetFloat64("ZetaMini"),
		BaryonFraction:  getFloatDefault(cfg, "BaryonFraction", 0.16),
		YHe:             getFloatDefault(cfg, "YHe", 0.245),
		NPoisson:        getFloatDefault(cfg, "NPoisson", 5.0),
		HIIRoundErr:     getFloatDefault(cfg, "HIIRoundErr", 1e-5),
		EpsDensityFloor: getFloatDefault(cfg, "EpsDensityFloor", 1e-4),
		RBubbleMin:      getFloatDefault(cfg, "RBubbleMin", 0.620350491),
		RBubbleMax:      getFloatDefault(cfg, "RBubbleMax", 50.0),
		RXLyMax:         getFloatDefault(cfg, "RXLyMax", 500.0),
		NShell:          cfg.GetInt("NShell"),
		NXHII:           getIntDefault(cfg, "NXHII", 200),
		NSpecMax:        getIntDefault(cfg, "NSpecMax", 32),
		MSampler:        cfg.GetFloat64("MSampler"),
		Seed:            int64(getIntDefault(cfg, "Seed", 1)),
	}
	if p.HIIDim <= 0 {
		return p, fmt.Errorf("cmfast: HIIDim must be > 0, got %d", p.HIIDim)
	}
	if p.DimF < 1 {
		return p, fmt.Errorf("cmfast: NonCubicFactor must be >= 1, got %g", p.DimF)
	}
	if !(p.BoxLen > 0) {
		return p, fmt.Errorf("cmfast: BoxLen must be > 0, got %g", p.BoxLen)
	}
	if p.NShell <= 1 {
		return p, fmt.Errorf("cmfast: NShell must be > 1, got %d", p.NShell)
	}
	return p, nil
}

func getFloatDefault(cfg *viper.Viper, key string, def float64) float64 {
	if !cfg.IsSet(key) {
		return def
	}
	v, err := cast.ToFloat64E(cfg.Get(key))
	if err != nil {
		return def
	}
	return v
}

func getIntDefault(cfg *viper.Viper, key string, def int) int {
	if !cfg.IsSet(key) {
		return def
	}
	v, err := cast.ToIntE(cfg.Get(key))
	if err != nil {
		return def
	}
	return v
}

// LoadFlags unmarshals the closed flag set (spec.md §6) from cfg.
func LoadFlags(cfg *viper.Viper) (Flags, error) {
	f := Flags{
		UseHaloField:         cfg.GetBool("UseHaloField"),
		UseMinihaloes:        cfg.GetBool("UseMinihaloes"),
		UseMassDependentZeta: cfg.GetBool("UseMassDependentZeta"),
		UseTsFluct:           cfg.GetBool("UseTsFluct"),
		UseLyaHeating:        cfg.GetBool("UseLyaHeating"),
		UseCmbHeating:        cfg.GetBool("UseCmbHeating"),
		InhomoReco:           cfg.GetBool("InhomoReco"),
		CellRecomb:           cfg.GetBool("CellRecomb"),
		UseExpFilter:         cfg.GetBool("UseExpFilter"),
		MinimizeMemory:       cfg.GetBool("MinimizeMemory"),
		FixVcbAvg:            cfg.GetBool("FixVcbAvg"),
		AvgBelowSampler:      cfg.GetBool("AvgBelowSampler"),
		NoRNG:                cfg.GetBool("NoRNG"),
		BubbleAlgorithm:      SphereAlgorithm,
		Filter:               TophatReal,
	}
	switch cfg.GetString("BubbleAlgorithm") {
	case "", "sphere":
		f.BubbleAlgorithm = SphereAlgorithm
	case "center":
		f.BubbleAlgorithm = CenterAlgorithm
	default:
		return f, fmt.Errorf("cmfast: unknown BubbleAlgorithm %q", cfg.GetString("BubbleAlgorithm"))
	}
	switch cfg.GetString("Filter") {
	case "", "tophat_real":
		f.Filter = TophatReal
	case "tophat_k":
		f.Filter = TophatK
	case "gaussian":
		f.Filter = Gaussian
	case "exp":
		f.Filter = Exponential
		f.UseExpFilter = true
	default:
		return f, fmt.Errorf("cmfast: unknown Filter %q", cfg.GetString("Filter"))
	}
	switch cfg.GetString("PhotonConsType") {
	case "", "none":
		f.PhotonConsType = PhotonConsNone
	case "z_shift":
		f.PhotonConsType = PhotonConsZShift
	case "alpha_esc_fit":
		f.PhotonConsType = PhotonConsAlphaEscFit
	case "f_esc_fit":
		f.PhotonConsType = PhotonConsFEscFit
	default:
		return f, fmt.Errorf("cmfast: unknown PhotonConsType %q", cfg.GetString("PhotonConsType"))
	}
	return f, f.Validate()
}
