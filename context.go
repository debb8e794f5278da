package cmfast

import (
	"github.com/samgagnon/cmfast/cosmology"
	"github.com/sirupsen/logrus"
)

// Context is the per-snapshot value spec.md §9 asks for in place of
// process-wide globals: the parameters, flags, cosmology kernels and a
// logger, passed explicitly to every component instead of being read from
// shared mutable state.
type Context struct {
	Params   Params
	Flags    Flags
	Cosmo    cosmology.Kernels
	Log      logrus.FieldLogger
	RNGPool  *RNGPool
}

// NewContext builds a Context, defaulting Cosmo to cosmology.Planck18()
// and Log to a discard logger when left nil, and validating Flags.
func NewContext(p Params, f Flags, cosmo cosmology.Kernels, log logrus.FieldLogger) (*Context, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if cosmo == nil {
		cosmo = cosmology.Planck18()
	}
	if log == nil {
		l := logrus.New()
		l.SetOutput(discardWriter{})
		log = l
	}
	nprocs := 1
	if p.HIIDim > 0 {
		nprocs = p.HIIDim
	}
	return &Context{
		Params:  p,
		Flags:   f,
		Cosmo:   cosmo,
		Log:     log,
		RNGPool: NewRNGPool(nprocs, p.Seed, f.NoRNG),
	}, nil
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
