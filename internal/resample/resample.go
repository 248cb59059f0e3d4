// Package resample implements band-limited sample rate conversion in the
// Fourier domain.
//
// The whole signal is transformed once with a real FFT. Converting to a new
// rate truncates (downsampling) or zero-extends (upsampling) the one-sided
// spectrum and runs an inverse real FFT of the target length. Lengths with a
// prime factor above 7 use a Bluestein transform, so any recording length
// costs O(n log n). Nothing above the target Nyquist frequency survives, and
// nothing below it is smeared by interpolation kernels.
//
// Because the forward transform does not depend on the target rate, a
// Spectrum can be converted to several rates without repeating it.
package resample

import (
	"errors"
	"fmt"

	"github.com/tphakala/simd/f64"
)

var (
	// ErrEmptyInput indicates there are no samples to resample, either on
	// input or because the target length rounds to zero.
	ErrEmptyInput = errors.New("resample: empty input")

	// ErrInvalidRate indicates a non-positive sample rate.
	ErrInvalidRate = errors.New("resample: sample rate must be positive")
)

// Spectrum holds the one-sided spectrum of a real signal at a known rate.
// It is immutable and safe for concurrent use.
type Spectrum struct {
	n      int          // Input length in samples
	rate   int          // Input sample rate in Hz
	coeffs []complex128 // n/2 + 1 bins
}

// New computes the spectrum of x sampled at origSR.
func New(x []float64, origSR int) (*Spectrum, error) {
	if len(x) == 0 {
		return nil, ErrEmptyInput
	}
	if origSR <= 0 {
		return nil, fmt.Errorf("%w: input rate %d", ErrInvalidRate, origSR)
	}

	return &Spectrum{
		n:      len(x),
		rate:   origSR,
		coeffs: newRealFFT(len(x)).Coefficients(x),
	}, nil
}

// Len returns the number of samples the spectrum was computed from.
func (s *Spectrum) Len() int {
	return s.n
}

// Rate returns the sample rate the spectrum was computed at.
func (s *Spectrum) Rate() int {
	return s.rate
}

// To synthesises the signal at targetSR. The result has exactly
// OutputLen(s.Len(), s.Rate(), targetSR) samples.
func (s *Spectrum) To(targetSR int) ([]float64, error) {
	if targetSR <= 0 {
		return nil, fmt.Errorf("%w: target rate %d", ErrInvalidRate, targetSR)
	}

	num := OutputLen(s.n, s.rate, targetSR)
	if num == 0 {
		return nil, fmt.Errorf("%w: %d samples at %d Hz round to zero at %d Hz", ErrEmptyInput, s.n, s.rate, targetSR)
	}

	out := make([]complex128, num/hermitianDivisor+1)

	// Copy the shared low band, including the Nyquist bin of the shorter
	// of the two lengths when it exists.
	shared := min(num, s.n)
	copy(out[:shared/hermitianDivisor+1], s.coeffs)

	// For an even shared length the bin at shared/2 stands for both the
	// positive and negative frequency. Downsampling folds the pair into
	// the new Nyquist bin; upsampling splits it into two halves.
	if shared%hermitianDivisor == 0 {
		nyq := shared / hermitianDivisor
		switch {
		case num < s.n:
			out[nyq] *= nyquistJoin
		case num > s.n:
			out[nyq] *= nyquistSplit
		}
	}

	y := newRealFFT(num).Sequence(out)

	// The inverse is unnormalised (factor num). The amplitude scale
	// num/n and the inverse normalisation 1/num combine into 1/n.
	f64.Scale(y, y, 1/float64(s.n))

	return y, nil
}

// Resample converts x from origSR to targetSR. See Spectrum.To.
func Resample(x []float64, origSR, targetSR int) ([]float64, error) {
	if targetSR <= 0 {
		return nil, fmt.Errorf("%w: target rate %d", ErrInvalidRate, targetSR)
	}
	s, err := New(x, origSR)
	if err != nil {
		return nil, err
	}
	return s.To(targetSR)
}

// OutputLen returns round(n * targetSR / origSR) using exact integer
// arithmetic. Halves round up.
func OutputLen(n, origSR, targetSR int) int {
	if n <= 0 || origSR <= 0 || targetSR <= 0 {
		return 0
	}
	num := int64(n) * int64(targetSR)
	den := int64(origSR)
	return int((roundingFactor*num + den) / (roundingFactor * den))
}
