package common

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// CrossCorrelate computes r[tau] = sum_j a[j]*b[j+tau] for tau in [0, maxLag]
// using mjibson/go-dsp. Terms where j+tau runs past the end of b are treated
// as zero.
func CrossCorrelate(a, b []float64, maxLag int) []float64 {
	if len(a) == 0 || len(b) == 0 || maxLag < 0 {
		return []float64{}
	}

	size := NextPowerOfTwo(len(a) + len(b))
	padA := make([]float64, size)
	padB := make([]float64, size)
	copy(padA, a)
	copy(padB, b)

	specA := fft.FFTReal(padA)
	specB := fft.FFTReal(padB)
	for i := range specA {
		specA[i] = cmplx.Conj(specA[i]) * specB[i]
	}
	corr := fft.IFFT(specA)

	if maxLag >= len(b) {
		maxLag = len(b) - 1
	}
	out := make([]float64, maxLag+1)
	for tau := range out {
		out[tau] = real(corr[tau])
	}
	return out
}

// NextPowerOfTwo finds the next power of 2 >= n
func NextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}

	power := 1
	for power < n {
		power <<= 1
	}
	return power
}
