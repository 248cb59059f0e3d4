// Package spectrogram computes short-time Fourier magnitude spectrograms
// and renders them as colour images.
//
// The analysis mirrors the common Python audio stack: a periodic Hann
// window, centred frames (the signal is zero-padded by half a window on
// each side), a one-sided magnitude spectrum, and a decibel scale relative
// to the loudest bin with a fixed dynamic-range floor.
package spectrogram

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"github.com/tphakala/simd/f64"
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

var (
	// ErrSignalTooShort indicates the signal cannot fill one analysis window.
	ErrSignalTooShort = errors.New("spectrogram: signal shorter than analysis window")

	// ErrInvalidParams indicates a non-positive window or hop.
	ErrInvalidParams = errors.New("spectrogram: invalid analysis parameters")
)

// Matrix is a time-frequency magnitude matrix.
//
// Data is stored bin-major: the value for frequency bin b and frame f is
// Data[b*Frames+f]. Bin 0 is DC.
type Matrix struct {
	Bins   int
	Frames int
	Data   []float64
}

// At returns the value at frequency bin b and frame f.
func (m *Matrix) At(b, f int) float64 {
	return m.Data[b*m.Frames+f]
}

// Range returns the smallest and largest value in the matrix.
func (m *Matrix) Range() (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range m.Data {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	return lo, hi
}

// Hann returns a periodic Hann window of length n, the variant used for
// spectral analysis (a symmetric window of length n+1 without its last
// point).
func Hann(n int) []float64 {
	w := make([]float64, n+1)
	for i := range w {
		w[i] = 1
	}
	return window.Hann(w)[:n]
}

// STFT computes the magnitude spectrogram of x with frames of winLen
// samples advanced by hop samples. The result has winLen/2+1 bins and
// 1+len(x)/hop frames.
func STFT(x []float64, winLen, hop int) (*Matrix, error) {
	if winLen <= 0 || hop <= 0 {
		return nil, fmt.Errorf("%w: window=%d hop=%d", ErrInvalidParams, winLen, hop)
	}
	if len(x) < winLen {
		return nil, fmt.Errorf("%w: %d samples < window %d", ErrSignalTooShort, len(x), winLen)
	}

	pad := winLen / centerDivisor
	frames := 1 + (len(x)+2*pad-winLen)/hop
	bins := winLen/hermitianDivisor + 1

	m := &Matrix{
		Bins:   bins,
		Frames: frames,
		Data:   make([]float64, bins*frames),
	}

	win := Hann(winLen)
	fft := fourier.NewFFT(winLen)
	frame := make([]float64, winLen)
	coeffs := make([]complex128, bins)

	for f := range frames {
		// Samples outside x are the zero padding of a centred frame.
		start := f*hop - pad
		lo := max(0, -start)
		hi := min(winLen, len(x)-start)
		clear(frame)
		f64.Mul(frame[lo:hi], x[start+lo:start+hi], win[lo:hi])

		coeffs = fft.Coefficients(coeffs, frame)
		for b, c := range coeffs {
			m.Data[b*frames+f] = cmplx.Abs(c)
		}
	}

	return m, nil
}

// ToDecibels converts magnitudes in place to dB relative to the largest
// magnitude: 20*log10(|X|/max|X|). Values are clipped below at
// -topDB relative to the peak so silent bins stay finite.
func (m *Matrix) ToDecibels(topDB float64) {
	_, ref := m.Range()
	refDB := amplitudeDB(ref)

	peak := math.Inf(-1)
	for i, v := range m.Data {
		db := amplitudeDB(v) - refDB
		m.Data[i] = db
		peak = max(peak, db)
	}

	if topDB <= 0 {
		return
	}
	floor := peak - topDB
	for i, v := range m.Data {
		m.Data[i] = max(v, floor)
	}
}

func amplitudeDB(v float64) float64 {
	return dbPerDecade * math.Log10(max(v, amin))
}
