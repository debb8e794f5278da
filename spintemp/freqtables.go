// Package spintemp implements the Spin-Temperature Engine (spec.md §4.5):
// the per-shell frequency-integral tables, the annular-filtered X-ray
// source boxes, and the per-cell backward-difference (Tk, x_e, Ts)
// integrator.
package spintemp

import (
	"math"

	"gonum.org/v1/gonum/integrate/quad"

	"github.com/samgagnon/cmfast"
	"github.com/samgagnon/cmfast/shells"
)

// nuXThresh is the lower X-ray SED cutoff (spec.md §4.5's NU_X_THRESH),
// expressed in units of the hydrogen ionisation frequency.
const nuXThresh = 1.0

// FreqTables holds the per-(x_e bin, shell) frequency integrals for
// heating, ionisation and the forward-difference accelerators F_diff
// (spec.md §3).
type FreqTables struct {
	XeGrid   []float64
	Heat     [][]float64 // [xeIdx][shell]
	Ion      [][]float64
	HeatDiff [][]float64
	IonDiff  [][]float64
}

// heatDepositFraction and ionDepositFraction are smooth, monotonic
// closed-form approximations to the fraction of absorbed X-ray energy
// that goes into heating vs. secondary ionisation as a function of the
// local ionised fraction xe (Shull & van Steenberg / Furlanetto & Stoever
// -style secondary-ionisation partition, in closed-form approximation).
func heatDepositFraction(xe float64) float64 {
	if xe < 0 {
		xe = 0
	}
	if xe > 1 {
		xe = 1
	}
	return 0.9971 * (1 - math.Pow(1-math.Pow(xe, 0.2663), 1.3163))
}

func ionDepositFraction(xe float64) float64 {
	if xe < 0 {
		xe = 0
	}
	if xe > 1 {
		xe = 1
	}
	return 0.4 * (1 - math.Pow(1-math.Pow(xe, 0.2735), 1.5610))
}

// NuTauOne returns the frequency at which the intervening neutral IGM
// between z' and z'' has optical depth unity (spec.md §4.5 step 2),
// approximated from the photoionisation cross-section's nu^-3 scaling
// and the neutral hydrogen column implied by (1-xe) between the two
// redshifts.
func NuTauOne(zPrime, zDoublePrime, xe, qHI float64, k interface{ HubbleH(float64) float64 }, mMinTurnover float64) float64 {
	sigma0 := 6.3e-18 // cm^2, HI photoionisation cross-section at threshold
	nH := 1.9e-7      // cm^-3, mean comoving hydrogen density today (approx)
	const cLightCm = 2.998e10
	dz := zPrime - zDoublePrime
	if dz <= 0 {
		return nuXThresh
	}
	neutralFrac := qHI * (1 - xe)
	if neutralFrac < 1e-6 {
		neutralFrac = 1e-6
	}
	column := neutralFrac * nH * cLightCm * dz / math.Max(k.HubbleH(zPrime), 1e-30)
	tau1 := sigma0 * column
	if tau1 <= 0 {
		return nuXThresh
	}
	nu := math.Pow(tau1, 1.0/3.0)
	if nu < nuXThresh {
		return nuXThresh
	}
	return nu
}

// sedPowerLaw is the X-ray SED shape: a power law in frequency (nu in
// units of the hydrogen-ionising frequency) with spectral index alphaX.
func sedPowerLaw(nu, alphaX float64) float64 {
	if nu <= 0 {
		return 0
	}
	return math.Pow(nu, -alphaX)
}

// BuildFreqTables constructs F[xe_idx][k] for every shell in sched,
// integrating the X-ray SED from max(nuLo(k, xe), NU_X_THRESH) to a
// fixed upper cutoff using Gauss-Legendre quadrature (spec.md §4.2's
// quadrature requirement applies to every table in this module, not just
// massfn's).
func BuildFreqTables(nXHII int, sched *shells.Schedule, alphaX float64, nuLo func(shellIdx int, xe float64) float64) (*FreqTables, error) {
	if nXHII < 2 {
		return nil, &cmfast.TableGenerationError{Table: "spintemp.FreqTables", Err: errSmallXeGrid}
	}
	ft := &FreqTables{
		XeGrid:   make([]float64, nXHII),
		Heat:     make([][]float64, nXHII),
		Ion:      make([][]float64, nXHII),
		HeatDiff: make([][]float64, nXHII-1),
		IonDiff:  make([][]float64, nXHII-1),
	}
	nShell := len(sched.Shells)
	const nuHi = 50.0 // upper cutoff, in nu_ion units; SED is steeply falling

	for i := 0; i < nXHII; i++ {
		xe := float64(i) / float64(nXHII-1)
		ft.XeGrid[i] = xe
		ft.Heat[i] = make([]float64, nShell)
		ft.Ion[i] = make([]float64, nShell)
		for kk := 0; kk < nShell; kk++ {
			lo := math.Max(nuLo(kk, xe), nuXThresh)
			if lo >= nuHi {
				continue
			}
			heatW := heatDepositFraction(xe)
			ionW := ionDepositFraction(xe)
			heatVal := quad.Fixed(func(nu float64) float64 { return sedPowerLaw(nu, alphaX) * heatW }, lo, nuHi, 32, quad.Legendre{}, 0)
			ionVal := quad.Fixed(func(nu float64) float64 { return sedPowerLaw(nu, alphaX) * ionW }, lo, nuHi, 32, quad.Legendre{}, 0)
			if nonFinite(heatVal) || nonFinite(ionVal) {
				return nil, &cmfast.TableGenerationError{Table: "spintemp.FreqTables", Err: errNonFiniteEntry}
			}
			ft.Heat[i][kk] = heatVal
			ft.Ion[i][kk] = ionVal
		}
	}
	for i := 0; i < nXHII-1; i++ {
		ft.HeatDiff[i] = make([]float64, nShell)
		ft.IonDiff[i] = make([]float64, nShell)
		for kk := 0; kk < nShell; kk++ {
			ft.HeatDiff[i][kk] = ft.Heat[i+1][kk] - ft.Heat[i][kk]
			ft.IonDiff[i][kk] = ft.Ion[i+1][kk] - ft.Ion[i][kk]
		}
	}
	return ft, nil
}

// Lookup returns the linearly-interpolated heating and ionisation
// integrals for shell k at ionised fraction xe.
func (ft *FreqTables) Lookup(xe float64, k int) (heat, ion float64) {
	n := len(ft.XeGrid)
	if xe <= ft.XeGrid[0] {
		return ft.Heat[0][k], ft.Ion[0][k]
	}
	if xe >= ft.XeGrid[n-1] {
		return ft.Heat[n-1][k], ft.Ion[n-1][k]
	}
	step := ft.XeGrid[1] - ft.XeGrid[0]
	idx := int((xe - ft.XeGrid[0]) / step)
	if idx >= n-1 {
		idx = n - 2
	}
	frac := (xe - ft.XeGrid[idx]) / step
	heat = ft.Heat[idx][k] + frac*ft.HeatDiff[idx][k]
	ion = ft.Ion[idx][k] + frac*ft.IonDiff[idx][k]
	return heat, ion
}

func nonFinite(x float64) bool { return math.IsNaN(x) || math.IsInf(x, 0) }

type tableErr string

func (e tableErr) Error() string { return string(e) }

const (
	errSmallXeGrid     = tableErr("nXHII must be >= 2")
	errNonFiniteEntry  = tableErr("non-finite frequency-integral table entry")
)
