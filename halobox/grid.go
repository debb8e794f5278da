package halobox

import (
	"math"
	"sync"

	"github.com/samgagnon/cmfast"
	"github.com/samgagnon/cmfast/cosmology"
	"github.com/samgagnon/cmfast/massfn"
)

// nStripes is the fixed stripe-mutex count used to guard cell
// accumulation during halo-mode gridding; many halos can land in the
// same cell, but a global lock would serialise every worker and a
// per-cell lock is wasteful for the common case of one halo per cell.
const nStripes = 256

type stripeLocks [nStripes]sync.Mutex

func (s *stripeLocks) lock(idx int)   { s[idx%nStripes].Lock() }
func (s *stripeLocks) unlock(idx int) { s[idx%nStripes].Unlock() }

// GridHalos implements halo-mode gridding (spec.md §4.4): for each halo
// with non-zero mass, atomically accumulate its properties into the cell
// indexed by its truncated position, then divide by cell volume.
func GridHalos(b *cmfast.HaloBox, halos *cmfast.HaloCatalogue, turnovers func(x, y, z int) Turnovers, z, tH float64, p cmfast.Params) {
	var locks stripeLocks
	var sumACG, sumMCG, sumReion float64
	var nGridded int64
	var sumMu sync.Mutex

	cellVol := (p.BoxLen / float64(b.HaloMass.Nx)) * (p.BoxLen / float64(b.HaloMass.Ny)) * (p.BoxLen / float64(b.HaloMass.Nz))

	cmfast.ParallelFor(len(halos.Halos), func(i int) {
		h := halos.Halos[i]
		if h.Mass <= 0 {
			return
		}
		xi := clampIdx(int(h.X), b.HaloMass.Nx)
		yi := clampIdx(int(h.Y), b.HaloMass.Ny)
		zi := clampIdx(int(h.Z), b.HaloMass.Nz)
		t := turnovers(xi, yi, zi)
		props := Compute(h, t, z, tH, p)

		idx := b.HaloMass.Idx(xi, yi, zi)
		locks.lock(idx)
		b.HaloMass.Elements[idx] += h.Mass
		b.StellarMass.Elements[idx] += props.StellarMass
		b.StellarMassMini.Elements[idx] += props.StellarMassMini
		b.SFR.Elements[idx] += props.SFR
		b.SFRMini.Elements[idx] += props.SFRMini
		b.WeightedSFR.Elements[idx] += props.SFR * props.Metallicity
		b.NIon.Elements[idx] += props.NIon
		b.LX.Elements[idx] += props.LX
		locks.unlock(idx)

		sumMu.Lock()
		sumACG += t.ACG
		sumMCG += t.MCG
		sumReion += t.Reion
		nGridded++
		sumMu.Unlock()
	})

	for i := range b.HaloMass.Elements {
		b.HaloMass.Elements[i] /= cellVol
		b.StellarMass.Elements[i] /= cellVol
		b.StellarMassMini.Elements[i] /= cellVol
		b.SFR.Elements[i] /= cellVol
		b.SFRMini.Elements[i] /= cellVol
		b.WeightedSFR.Elements[i] /= cellVol
		b.NIon.Elements[i] /= cellVol
		b.LX.Elements[i] /= cellVol
	}
	if nGridded > 0 {
		n := float64(nGridded)
		b.AvgMTurnACG = sumACG / n
		b.AvgMTurnMCG = sumMCG / n
		b.AvgMTurnReion = sumReion / n
	}
}

func clampIdx(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// gridTableSamples is the per-axis resolution of the conditional-Nion /
// SFRD-conditional interpolation tables GridFixed builds once per call
// rather than re-integrating the mass function at every cell (spec.md
// §4.2, §4.6 step 3).
const gridTableSamples = 33

// GridFixed implements fixed-grid (no halo catalogue) gridding: build the
// conditional mass-function tables over (delta, turnover-mass) once, then
// look each cell up in them and scale by (1+delta). The ACG channel's
// turnover mass varies per cell (reionisation/LW feedback), so it is
// tabulated in two dimensions; the MCG channel's turnover is a single
// scalar for the whole call, so delta alone is enough.
func GridFixed(b *cmfast.HaloBox, delta *cmfast.Grid, turnovers func(x, y, z int) Turnovers, z float64, k cosmology.Kernels, rhoM0, tH, tStar, Mcond float64, starACG, starMCG massfn.StarParams, mMinMCG float64) error {
	n := len(delta.Elements)
	deltaRange := cmfast.ParallelMinMax(n, func(i int) float64 { return delta.Elements[i] })
	deltaMargin := 0.05 * math.Max(1, deltaRange.Max-deltaRange.Min)
	deltaLo, deltaHi := deltaRange.Min-deltaMargin, deltaRange.Max+deltaMargin
	if deltaHi <= deltaLo {
		deltaHi = deltaLo + 1
	}

	turnACG := make([]float64, n)
	cmfast.ParallelFor(n, func(idx int) {
		x, y, zc := unflatten(idx, delta)
		turnACG[idx] = math.Log(turnovers(x, y, zc).ACG)
	})
	lnRange := cmfast.ParallelMinMax(n, func(i int) float64 { return turnACG[i] })
	lnMargin := 0.05 * math.Max(1, lnRange.Max-lnRange.Min)
	lnLo, lnHi := lnRange.Min-lnMargin, lnRange.Max+lnMargin
	if lnHi <= lnLo {
		lnHi = lnLo + 1
	}

	fcollTable, err := massfn.NewTable2D("halobox.FcollDeltaACG", deltaLo, deltaHi, gridTableSamples, lnLo, lnHi, gridTableSamples, func(d, lnMturn float64) float64 {
		return massfn.FcollDelta(d, z, math.Exp(lnMturn), Mcond, k)
	})
	if err != nil {
		return err
	}
	nionTable, err := massfn.NewTable2D("halobox.NionConditionalACG", deltaLo, deltaHi, gridTableSamples, lnLo, lnHi, gridTableSamples, func(d, lnMturn float64) float64 {
		return massfn.NionConditional(d, z, math.Exp(lnMturn), Mcond, k, rhoM0, starACG)
	})
	if err != nil {
		return err
	}
	sfrdTable, err := massfn.NewTable2D("halobox.SFRDConditionalACG", deltaLo, deltaHi, gridTableSamples, lnLo, lnHi, gridTableSamples, func(d, lnMturn float64) float64 {
		return massfn.SFRDConditional(d, z, math.Exp(lnMturn), Mcond, k, rhoM0, tStar, starACG)
	})
	if err != nil {
		return err
	}
	nionMiniTable, err := massfn.NewTable1D("halobox.NionConditionalMCG", deltaLo, deltaHi, gridTableSamples, func(d float64) float64 {
		return massfn.NionConditionalMini(d, z, mMinMCG, Mcond, k, rhoM0, starMCG)
	})
	if err != nil {
		return err
	}
	sfrdMiniTable, err := massfn.NewTable1D("halobox.SFRDConditionalMCG", deltaLo, deltaHi, gridTableSamples, func(d float64) float64 {
		return massfn.SFRDConditional(d, z, mMinMCG, Mcond, k, rhoM0, tStar, starMCG)
	})
	if err != nil {
		return err
	}

	var mu sync.Mutex
	var firstErr error
	record := func(e error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = e
		}
		mu.Unlock()
	}

	cmfast.ParallelFor(n, func(idx int) {
		d := delta.Elements[idx]
		oneplusd := 1 + d
		lnMturn := turnACG[idx]

		fcollACG, e := fcollTable.EvalChecked("halobox.FcollDeltaACG", d, lnMturn)
		if e != nil {
			record(e)
			return
		}
		nIonACG, e := nionTable.EvalChecked("halobox.NionConditionalACG", d, lnMturn)
		if e != nil {
			record(e)
			return
		}
		sfrdACG, e := sfrdTable.EvalChecked("halobox.SFRDConditionalACG", d, lnMturn)
		if e != nil {
			record(e)
			return
		}
		nIonMCG, e := nionMiniTable.EvalChecked("halobox.NionConditionalMCG", d)
		if e != nil {
			record(e)
			return
		}
		sfrdMCG, e := sfrdMiniTable.EvalChecked("halobox.SFRDConditionalMCG", d)
		if e != nil {
			record(e)
			return
		}

		b.HaloMass.Elements[idx] = rhoM0 * oneplusd * fcollACG
		b.NIon.Elements[idx] = nIonACG*oneplusd + nIonMCG*oneplusd
		b.SFR.Elements[idx] = sfrdACG * oneplusd
		b.SFRMini.Elements[idx] = sfrdMCG * oneplusd
		b.StellarMass.Elements[idx] = rhoM0 * oneplusd * fcollACG * starACG.BaryonFraction
	})
	return firstErr
}

func unflatten(idx int, g *cmfast.Grid) (int, int, int) {
	nz := g.Nz
	ny := g.Ny
	z := idx % nz
	rest := idx / nz
	y := rest % ny
	x := rest / ny
	return x, y, z
}

// MeanFix rescales every element of grid by the ratio of the expected
// unconditional mean to the box mean (spec.md §4.4), a no-op when the box
// mean is non-positive (nothing gridded).
func MeanFix(grid *cmfast.Grid, expectedMean float64) {
	n := len(grid.Elements)
	boxMean := cmfast.ParallelSum(n, func(i int) float64 { return grid.Elements[i] }) / float64(n)
	if boxMean <= 0 {
		return
	}
	ratio := expectedMean / boxMean
	for i := range grid.Elements {
		grid.Elements[i] *= ratio
	}
}
