package cmfast

import (
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"
)

// RNGStream is one worker's independent random stream, providing normal
// and Poisson draws. Under NoRNG, every draw is replaced by its expected
// value. The halobox and ionize packages do not draw from it: halobox
// applies the per-halo scatter values carried on each cmfast.Halo record.
type RNGStream struct {
	src   *rand.Rand
	noRNG bool
}

// NewRNGStream creates one stream seeded independently from seed. When
// noRNG is true, all subsequent draws return their deterministic
// expectation instead of sampling.
func NewRNGStream(seed int64, noRNG bool) *RNGStream {
	return &RNGStream{src: rand.New(rand.NewSource(seed)), noRNG: noRNG}
}

// StandardNormal draws one N(0,1) sample, or 0 under NoRNG.
func (s *RNGStream) StandardNormal() float64 {
	if s.noRNG {
		return 0
	}
	return distuv.Normal{Mu: 0, Sigma: 1, Src: s.src}.Rand()
}

// Poisson draws one Poisson(lambda) sample, or lambda (its mean) under
// NoRNG. spec.md §4.6 step 7 special-cases NoRNG to the literal value 1
// rather than the mean; this helper returns the mean.
func (s *RNGStream) Poisson(lambda float64) float64 {
	if s.noRNG {
		return lambda
	}
	if lambda <= 0 {
		return 0
	}
	return distuv.Poisson{Lambda: lambda, Src: s.src}.Rand()
}

// RNGPool hands out one independent RNGStream per worker index, seeded
// deterministically from a base seed so a run is reproducible given the
// same base seed and worker count.
type RNGPool struct {
	streams []*RNGStream
}

// NewRNGPool creates n independent streams derived from baseSeed.
func NewRNGPool(n int, baseSeed int64, noRNG bool) *RNGPool {
	p := &RNGPool{streams: make([]*RNGStream, n)}
	for i := 0; i < n; i++ {
		// Distinct, well-separated seeds per worker; splitmix-style mixing
		// avoids correlated streams from consecutive integer seeds.
		mixed := baseSeed ^ (int64(i)*0x9E3779B97F4A7C15 + 0x2545F4914F6CDD1D)
		p.streams[i] = NewRNGStream(mixed, noRNG)
	}
	return p
}

// Stream returns the worker-i stream.
func (p *RNGPool) Stream(i int) *RNGStream { return p.streams[i%len(p.streams)] }
