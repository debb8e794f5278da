// Package ionize implements the Ionisation Excursion-Set Solver (spec.md
// §4.6): the radius schedule, the ionisation criterion and sphere/center
// painting, and the largest-to-smallest R-loop that produces the
// per-cell ionisation state.
package ionize

import (
	"math"

	"github.com/samgagnon/cmfast"
	"github.com/samgagnon/cmfast/cosmology"
)

// deltaR is the fixed per-step radius-shrink factor the excursion-set
// R-loop uses between R_max and R_min, the standard value used by the
// semi-numerical literature this solver follows.
const deltaR = 1.1

// RadiusStep is one record of the radius schedule R (spec.md §3),
// ordered smallest to largest; index 0 is the cell-scale "last"
// smoothing step used to assign partial ionisations.
type RadiusStep struct {
	R       float64
	MMax    float64
	LnMMax  float64
	SigmaMax float64
	Index   int
}

// BuildRadiusSchedule constructs R smallest-to-largest: R_min = max(LF *
// dx, RBubbleMin), R_max = min(RBubbleMax, LF * L), stepping up by
// deltaR each time.
func BuildRadiusSchedule(p cmfast.Params, k cosmology.Kernels) []RadiusStep {
	dx := p.BoxLen / float64(p.HIIDim)
	rMin := p.DimF * dx
	if p.RBubbleMin > rMin {
		rMin = p.RBubbleMin
	}
	rMax := p.RBubbleMax
	if lfL := p.DimF * p.BoxLen; lfL < rMax {
		rMax = lfL
	}
	if rMax < rMin {
		rMax = rMin
	}

	var steps []RadiusStep
	R := rMin
	idx := 0
	for {
		M := k.RtoM(R)
		steps = append(steps, RadiusStep{
			R:        R,
			MMax:     M,
			LnMMax:   math.Log(M),
			SigmaMax: k.Sigma(M),
			Index:    idx,
		})
		if R >= rMax {
			break
		}
		idx++
		R *= deltaR
		if R > rMax {
			R = rMax
		}
	}
	return steps
}
