package cmfast

import (
	"runtime"
	"sync"

	"gonum.org/v1/gonum/floats"
)

// ParallelFor splits the index range [0, n) across GOMAXPROCS workers and
// calls body(i) for each i, blocking until all workers finish. It is the
// parallel_for abstraction spec.md §9 asks for, in the same shape as the
// teacher's per-cell Calculations loop: a fixed worker count striding over
// the index range, rather than one goroutine per element.
func ParallelFor(n int, body func(i int)) {
	if n <= 0 {
		return
	}
	nprocs := runtime.GOMAXPROCS(0)
	if nprocs > n {
		nprocs = n
	}
	var wg sync.WaitGroup
	wg.Add(nprocs)
	for p := 0; p < nprocs; p++ {
		go func(p int) {
			defer wg.Done()
			for i := p; i < n; i += nprocs {
				body(i)
			}
		}(p)
	}
	wg.Wait()
}

// ParallelSum computes sum_{i=0}^{n-1} f(i) by accumulating one partial sum
// per worker and folding the partials with gonum/floats, so the reduction
// never takes a lock per element (spec.md §5: "reductions use commutative,
// associative folds on doubles").
func ParallelSum(n int, f func(i int) float64) float64 {
	if n <= 0 {
		return 0
	}
	nprocs := runtime.GOMAXPROCS(0)
	if nprocs > n {
		nprocs = n
	}
	partials := make([]float64, nprocs)
	var wg sync.WaitGroup
	wg.Add(nprocs)
	for p := 0; p < nprocs; p++ {
		go func(p int) {
			defer wg.Done()
			var s float64
			for i := p; i < n; i += nprocs {
				s += f(i)
			}
			partials[p] = s
		}(p)
	}
	wg.Wait()
	return floats.Sum(partials)
}

// ParallelMinMax computes the elementwise (min, max) of f over [0, n) using
// per-worker partials folded with gonum/floats.
func ParallelMinMax(n int, f func(i int) float64) Extrema {
	if n <= 0 {
		return Extrema{}
	}
	nprocs := runtime.GOMAXPROCS(0)
	if nprocs > n {
		nprocs = n
	}
	mins := make([]float64, nprocs)
	maxs := make([]float64, nprocs)
	var wg sync.WaitGroup
	wg.Add(nprocs)
	for p := 0; p < nprocs; p++ {
		go func(p int) {
			defer wg.Done()
			lo, hi := f(p), f(p)
			for i := p + nprocs; i < n; i += nprocs {
				v := f(i)
				if v < lo {
					lo = v
				}
				if v > hi {
					hi = v
				}
			}
			mins[p], maxs[p] = lo, hi
		}(p)
	}
	wg.Wait()
	return Extrema{Min: floats.Min(mins), Max: floats.Max(maxs)}
}
