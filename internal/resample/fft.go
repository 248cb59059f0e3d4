package resample

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/tphakala/simd/f64"
	"gonum.org/v1/gonum/dsp/fourier"
)

// realFFT transforms real sequences of one fixed length.
type realFFT interface {
	// Coefficients returns the n/2 + 1 bins of the one-sided spectrum of x.
	Coefficients(x []float64) []complex128
	// Sequence returns the unnormalised real inverse of a one-sided spectrum.
	Sequence(coeffs []complex128) []float64
}

// newRealFFT returns gonum's mixed-radix FFT when n factors into small primes
// and a Bluestein FFT otherwise. gonum falls back to an O(n·p) transform for
// every prime factor p above its radices.
func newRealFFT(n int) realFFT {
	if largestPrimeFactor(n) <= maxSmoothFactor {
		return gonumFFT{fourier.NewFFT(n)}
	}
	return bluesteinFFT{n: n}
}

type gonumFFT struct {
	plan *fourier.FFT
}

func (g gonumFFT) Coefficients(x []float64) []complex128 {
	return g.plan.Coefficients(nil, x)
}

func (g gonumFFT) Sequence(coeffs []complex128) []float64 {
	return g.plan.Sequence(nil, coeffs)
}

// bluesteinFFT uses go-dsp, which evaluates lengths that are not a power of
// two as a chirp-z convolution of power-of-two transforms.
type bluesteinFFT struct {
	n int
}

func (b bluesteinFFT) Coefficients(x []float64) []complex128 {
	return fft.FFTReal(x)[:b.n/hermitianDivisor+1]
}

func (b bluesteinFFT) Sequence(coeffs []complex128) []float64 {
	full := make([]complex128, b.n)
	copy(full, coeffs)
	for k := b.n/hermitianDivisor + 1; k < b.n; k++ {
		full[k] = cmplx.Conj(coeffs[b.n-k])
	}

	// go-dsp normalises its inverse by 1/n; undo it to match gonum.
	z := fft.IFFT(full)
	y := make([]float64, b.n)
	for i, v := range z {
		y[i] = real(v)
	}
	f64.Scale(y, y, float64(b.n))
	return y
}

// largestPrimeFactor returns 1 for n <= 1.
func largestPrimeFactor(n int) int {
	largest := 1
	for p := 2; p*p <= n; p++ {
		for n%p == 0 {
			largest = p
			n /= p
		}
	}
	if n > 1 {
		largest = n
	}
	return largest
}
