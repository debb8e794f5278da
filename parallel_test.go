package cmfast

import "testing"

func TestParallelForVisitsEveryIndex(t *testing.T) {
	n := 1000
	seen := make([]int32, n)
	ParallelFor(n, func(i int) { seen[i]++ })
	for i, v := range seen {
		if v != 1 {
			t.Fatalf("index %d visited %d times, want 1", i, v)
		}
	}
}

func TestParallelSumMatchesSerial(t *testing.T) {
	n := 10000
	want := 0.0
	for i := 0; i < n; i++ {
		want += float64(i)
	}
	got := ParallelSum(n, func(i int) float64 { return float64(i) })
	if got != want {
		t.Fatalf("ParallelSum=%g, want %g", got, want)
	}
}

func TestParallelMinMax(t *testing.T) {
	vals := []float64{4, -2, 9, 0, -7, 3}
	ex := ParallelMinMax(len(vals), func(i int) float64 { return vals[i] })
	if ex.Min != -7 || ex.Max != 9 {
		t.Fatalf("Extrema=%+v, want {-7 9}", ex)
	}
}
