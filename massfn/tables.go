package massfn

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/interp"

	"github.com/samgagnon/cmfast"
)

func nonFinite(x float64) bool { return math.IsNaN(x) || math.IsInf(x, 0) }

// Table1D is a regular-grid interpolation table over a single variable,
// grounded on gonum/interp's PiecewiseLinear fitter. Lookups outside
// [lo, hi] are clamped to the boundary value rather than extrapolated,
// matching the teacher's "sample the nearest tabulated cell" convention
// for filter/table lookups (see vargrid.go's grid-index clamping).
type Table1D struct {
	lo, hi float64
	fit    interp.FittedInterpolator
}

// NewTable1D builds a Table1D by evaluating f on n regularly spaced
// samples across [lo, hi]. n must be >= 2.
func NewTable1D(table string, lo, hi float64, n int, f func(x float64) float64) (*Table1D, error) {
	if n < 2 || !(hi > lo) {
		return nil, &cmfast.TableGenerationError{Table: table, Err: fmt.Errorf("requires n>=2 and hi>lo, got n=%d lo=%g hi=%g", n, lo, hi)}
	}
	xs := make([]float64, n)
	ys := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := 0; i < n; i++ {
		x := lo + float64(i)*step
		xs[i] = x
		y := f(x)
		if nonFinite(y) {
			return nil, &cmfast.TableGenerationError{Table: table, Err: fmt.Errorf("non-finite value %g at x=%g", y, x)}
		}
		ys[i] = y
	}
	var pl interp.PiecewiseLinear
	if err := pl.Fit(xs, ys); err != nil {
		return nil, &cmfast.TableGenerationError{Table: table, Err: err}
	}
	return &Table1D{lo: lo, hi: hi, fit: &pl}, nil
}

// Eval returns the interpolated value at x, clamping x into [lo, hi].
func (t *Table1D) Eval(x float64) float64 {
	if x < t.lo {
		x = t.lo
	} else if x > t.hi {
		x = t.hi
	}
	return t.fit.Predict(x)
}

// EvalChecked returns the interpolated value at x, or a
// *cmfast.TableEvaluationError if x falls outside the table's declared
// [lo, hi] bounds, for callers that must surface an out-of-range query
// rather than silently clamp it (spec.md §7's "TableEvaluation" error
// case).
func (t *Table1D) EvalChecked(table string, x float64) (float64, error) {
	if x < t.lo || x > t.hi {
		return 0, &cmfast.TableEvaluationError{Table: table, Value: x, Lo: t.lo, Hi: t.hi}
	}
	return t.fit.Predict(x), nil
}

// Table2D is a regular-grid bilinear interpolation table over two
// variables. gonum has no bundled 2-D interpolator, so the bilinear
// weights are hand-rolled on top of the same regular-grid bookkeeping
// Table1D uses; see DESIGN.md for why this one piece is stdlib-only.
type Table2D struct {
	xlo, xhi float64
	ylo, yhi float64
	nx, ny   int
	dx, dy   float64
	vals     [][]float64 // [ix][iy]
}

// NewTable2D builds a Table2D by evaluating f on an nx*ny regular grid
// spanning [xlo,xhi] x [ylo,yhi]. nx, ny must each be >= 2.
func NewTable2D(table string, xlo, xhi float64, nx int, ylo, yhi float64, ny int, f func(x, y float64) float64) (*Table2D, error) {
	if nx < 2 || ny < 2 || !(xhi > xlo) || !(yhi > ylo) {
		return nil, &cmfast.TableGenerationError{Table: table, Err: fmt.Errorf("requires nx,ny>=2 and hi>lo, got nx=%d ny=%d", nx, ny)}
	}
	dx := (xhi - xlo) / float64(nx-1)
	dy := (yhi - ylo) / float64(ny-1)
	vals := make([][]float64, nx)
	for ix := 0; ix < nx; ix++ {
		vals[ix] = make([]float64, ny)
		x := xlo + float64(ix)*dx
		for iy := 0; iy < ny; iy++ {
			y := ylo + float64(iy)*dy
			v := f(x, y)
			if nonFinite(v) {
				return nil, &cmfast.TableGenerationError{Table: table, Err: fmt.Errorf("non-finite value %g at x=%g y=%g", v, x, y)}
			}
			vals[ix][iy] = v
		}
	}
	return &Table2D{xlo: xlo, xhi: xhi, ylo: ylo, yhi: yhi, nx: nx, ny: ny, dx: dx, dy: dy, vals: vals}, nil
}

// Eval returns the bilinearly interpolated value at (x, y), clamping both
// coordinates into their tabulated ranges.
func (t *Table2D) Eval(x, y float64) float64 {
	if x < t.xlo {
		x = t.xlo
	} else if x > t.xhi {
		x = t.xhi
	}
	if y < t.ylo {
		y = t.ylo
	} else if y > t.yhi {
		y = t.yhi
	}
	fx := (x - t.xlo) / t.dx
	fy := (y - t.ylo) / t.dy
	ix := int(fx)
	iy := int(fy)
	if ix >= t.nx-1 {
		ix = t.nx - 2
	}
	if iy >= t.ny-1 {
		iy = t.ny - 2
	}
	tx := fx - float64(ix)
	ty := fy - float64(iy)
	v00 := t.vals[ix][iy]
	v10 := t.vals[ix+1][iy]
	v01 := t.vals[ix][iy+1]
	v11 := t.vals[ix+1][iy+1]
	v0 := v00*(1-tx) + v10*tx
	v1 := v01*(1-tx) + v11*tx
	return v0*(1-ty) + v1*ty
}

// EvalChecked returns the bilinearly interpolated value at (x, y), or a
// *cmfast.TableEvaluationError if either coordinate falls outside its
// declared tabulated range, for callers that must surface an out-of-range
// query rather than silently clamp it (spec.md §7's "TableEvaluation"
// error case).
func (t *Table2D) EvalChecked(table string, x, y float64) (float64, error) {
	if x < t.xlo || x > t.xhi {
		return 0, &cmfast.TableEvaluationError{Table: table, Value: x, Lo: t.xlo, Hi: t.xhi}
	}
	if y < t.ylo || y > t.yhi {
		return 0, &cmfast.TableEvaluationError{Table: table, Value: y, Lo: t.ylo, Hi: t.yhi}
	}
	return t.Eval(x, y), nil
}
