package cmfast

import (
	"math"

	"github.com/ctessum/sparse"
)

// Grid is a cubic real-space lattice of shape (Nx, Ny, Nz) as described in
// spec.md §3, backed by a dense row-major array. Nz is the possibly
// non-cubic axis (Nz = ceil(f*Nx) for non-cubic factor f >= 1).
type Grid struct {
	*sparse.DenseArray
	Nx, Ny, Nz int
	// Units documents the physical unit of every element, e.g. "K", "1",
	// "Msun". It is metadata only; arithmetic does not check it.
	Units string
}

// NewGrid allocates a zeroed real-space grid of shape (nx, ny, nz).
func NewGrid(nx, ny, nz int, units string) *Grid {
	return &Grid{
		DenseArray: sparse.ZerosDense(nx, ny, nz),
		Nx:         nx,
		Ny:         ny,
		Nz:         nz,
		Units:      units,
	}
}

// NCells returns the total number of cells in the grid.
func (g *Grid) NCells() int { return g.Nx * g.Ny * g.Nz }

// Idx returns the flat index of cell (i, j, k) into g.Elements,
// assuming row-major storage with Nz varying fastest.
func (g *Grid) Idx(i, j, k int) int {
	return (i*g.Ny+j)*g.Nz + k
}

// Clone returns a deep copy of g.
func (g *Grid) Clone() *Grid {
	o := NewGrid(g.Nx, g.Ny, g.Nz, g.Units)
	copy(o.Elements, g.Elements)
	return o
}

// Extrema is the post-clip (min, max) range of a grid, used to set
// interpolation-table bounds (spec.md §4.2).
type Extrema struct {
	Min, Max float64
}

// ClipAndExtrema clips every element of g in place to [lo, hi] and returns
// the resulting range. It implements the `clip_and_extrema` operation of
// spec.md §4.1.
func ClipAndExtrema(g *Grid, lo, hi float64) Extrema {
	if len(g.Elements) == 0 {
		return Extrema{}
	}
	ex := Extrema{Min: math.Inf(1), Max: math.Inf(-1)}
	for i, v := range g.Elements {
		if v < lo {
			v = lo
		} else if v > hi {
			v = hi
		}
		g.Elements[i] = v
		if v < ex.Min {
			ex.Min = v
		}
		if v > ex.Max {
			ex.Max = v
		}
	}
	return ex
}

// ClipFloor clamps every element of g below to lo, leaving values above lo
// untouched. Used for the density-floor invariant (spec.md §3: "δ >= -1+ε
// clipped to this floor after every filtering step").
func ClipFloor(g *Grid, lo float64) {
	for i, v := range g.Elements {
		if v < lo {
			g.Elements[i] = lo
		}
	}
}
