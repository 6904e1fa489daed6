// Package analysis extracts frequency content from recorded metric
// series, e.g. the oscillation period of a body hanging on a spring.
package analysis

import (
	"math"
	"math/cmplx"
)

// FFT computes the discrete Fourier transform of a power-of-two length
// series with the radix-2 Cooley-Tukey recursion.
func FFT(data []float64) []complex128 {
	n := len(data)
	if n <= 1 {
		result := make([]complex128, n)
		for i := range data {
			result[i] = complex(data[i], 0)
		}
		return result
	}

	if n%2 != 0 {
		panic("fft requires power of 2 length")
	}

	even := make([]float64, n/2)
	odd := make([]float64, n/2)
	for i := 0; i < n/2; i++ {
		even[i] = data[2*i]
		odd[i] = data[2*i+1]
	}

	feven := FFT(even)
	fodd := FFT(odd)

	result := make([]complex128, n)
	for k := 0; k < n/2; k++ {
		w := cmplx.Exp(complex(0, -2*math.Pi*float64(k)/float64(n)))
		result[k] = feven[k] + w*fodd[k]
		result[k+n/2] = feven[k] - w*fodd[k]
	}
	return result
}

// PowerSpectrum returns spectral magnitudes up to the Nyquist bin,
// zero-padding the input to the next power of two.
func PowerSpectrum(data []float64) []float64 {
	n := 1
	for n < len(data) {
		n *= 2
	}
	padded := make([]float64, n)
	copy(padded, data)

	fft := FFT(padded)
	ps := make([]float64, len(fft)/2)
	for i := range ps {
		ps[i] = cmplx.Abs(fft[i])
	}
	return ps
}

// DominantFrequency returns the strongest non-DC frequency in hz of a
// series sampled every dt seconds, and its spectral magnitude. It returns
// zeros when the series is too short to resolve a peak.
func DominantFrequency(data []float64, dt float64) (freq, power float64) {
	if len(data) < 4 || dt <= 0 {
		return 0, 0
	}
	ps := PowerSpectrum(data)

	maxIdx := 0
	for i := 1; i < len(ps); i++ {
		if ps[i] > power {
			power = ps[i]
			maxIdx = i
		}
	}
	if maxIdx == 0 {
		return 0, 0
	}

	// Bin width of the padded transform.
	n := 2 * len(ps)
	freq = float64(maxIdx) / (float64(n) * dt)
	return freq, power
}
