package ionize

import (
	"github.com/samgagnon/cmfast"
)

// Criterion evaluates spec.md §4.6 step 6's ionisation test for one cell:
// fcoll*zeta + fcollMini*zetaMini >= (1 - xHIIxrays) * (1 + Nrec/nbar).
func Criterion(fColl, fCollMini, zeta, zetaMini, xHIIxrays, nRecOverNb float64) bool {
	lhs := fColl*zeta + fCollMini*zetaMini
	rhs := (1 - xHIIxrays) * (1 + nRecOverNb)
	return lhs >= rhs
}

// paintTarget collects the per-cell outputs the first ionising crossing
// sets once and never again (spec.md §3 "set only on the first time a
// cell crosses the ionisation threshold").
type paintTarget struct {
	box         *cmfast.IonizedBox
	z           float64
	gamma12     float64
	mfp         float64
}

func (t paintTarget) markCell(idx int) {
	t.box.XH.Elements[idx] = 0
	if t.box.ZRe.Elements[idx] < 0 {
		t.box.ZRe.Elements[idx] = t.z
		t.box.Gamma12.Elements[idx] = t.gamma12
		t.box.MFP.Elements[idx] = t.mfp
	}
}

// PaintCenter marks only the cell at (cx, cy, cz) (spec.md §4.6's "center"
// bubble algorithm).
func PaintCenter(box *cmfast.IonizedBox, nx, ny, nz, cx, cy, cz int, z, gamma12, mfp float64) {
	g := box.XH
	t := paintTarget{box: box, z: z, gamma12: gamma12, mfp: mfp}
	t.markCell(g.Idx(wrap(cx, nx), wrap(cy, ny), wrap(cz, nz)))
}

// PaintSphere marks every cell within radius R (in grid cells) of (cx, cy,
// cz), periodically wrapped (spec.md §4.6's "sphere" bubble algorithm).
func PaintSphere(box *cmfast.IonizedBox, nx, ny, nz, cx, cy, cz int, Rcells, z, gamma12, mfp float64) {
	g := box.XH
	t := paintTarget{box: box, z: z, gamma12: gamma12, mfp: mfp}
	r := int(Rcells) + 1
	r2 := Rcells * Rcells
	for di := -r; di <= r; di++ {
		for dj := -r; dj <= r; dj++ {
			for dk := -r; dk <= r; dk++ {
				if float64(di*di+dj*dj+dk*dk) > r2 {
					continue
				}
				idx := g.Idx(wrap(cx+di, nx), wrap(cy+dj, ny), wrap(cz+dk, nz))
				t.markCell(idx)
			}
		}
	}
}

func wrap(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}
