// Package testutil provides reusable test helpers: signal generators, WAV
// fixture writers and numeric assertions.
package testutil

import (
	"math"
	"math/cmplx"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/dsp/fourier"
)

// Default tolerances for various test scenarios.
const (
	DefaultTolerance   = 1e-10
	MagnitudeTolerance = 1e-2
	DBTolerance        = 0.01
)

const (
	pcm16Max      = 32767.0
	pcm16BitDepth = 16
	wavFormatPCM  = 1
	dirPerm       = 0o755
	filePerm      = 0o644
)

// Sine returns n samples of a sine wave with the given frequency and
// amplitude sampled at rate Hz.
func Sine(n int, freq, rate, amplitude float64) []float64 {
	s := make([]float64, n)
	omega := 2 * math.Pi * freq / rate
	for i := range s {
		s[i] = amplitude * math.Sin(omega*float64(i))
	}
	return s
}

// PeakFrequency returns the frequency in Hz of the strongest non-DC bin of x.
func PeakFrequency(x []float64, rate float64) float64 {
	coeffs := fourier.NewFFT(len(x)).Coefficients(nil, x)
	best, bestMag := 0, 0.0
	for i := 1; i < len(coeffs); i++ {
		if m := cmplx.Abs(coeffs[i]); m > bestMag {
			best, bestMag = i, m
		}
	}
	return float64(best) * rate / float64(len(x))
}

// WriteWAV writes 16-bit PCM channels to path, creating parent directories.
// All channels must have the same length.
func WriteWAV(t *testing.T, path string, rate int, channels ...[]float64) {
	t.Helper()
	require.NotEmpty(t, channels, "at least one channel is required")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), dirPerm))

	f, err := os.Create(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	numCh := len(channels)
	frames := len(channels[0])
	data := make([]int, frames*numCh)
	for i := range frames {
		for ch := range numCh {
			v := max(-1, min(1, channels[ch][i]))
			data[i*numCh+ch] = int(math.Round(v * pcm16Max))
		}
	}

	enc := wav.NewEncoder(f, rate, pcm16BitDepth, numCh, wavFormatPCM)
	buf := &audio.IntBuffer{
		Data:           data,
		Format:         &audio.Format{NumChannels: numCh, SampleRate: rate},
		SourceBitDepth: pcm16BitDepth,
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), dirPerm))
	require.NoError(t, os.WriteFile(path, []byte(content), filePerm))
}

// AssertNoNaNOrInf verifies that no elements in the slice are NaN or Inf.
func AssertNoNaNOrInf(t *testing.T, s []float64, msgAndArgs ...any) bool {
	t.Helper()
	for i, v := range s {
		if math.IsNaN(v) {
			return assert.Fail(t, "found NaN", "s[%d] is NaN", i)
		}
		if math.IsInf(v, 0) {
			return assert.Fail(t, "found Inf", "s[%d] is Inf", i)
		}
	}
	return true
}

// AssertAllInRange verifies that all elements are within [min, max].
func AssertAllInRange(t *testing.T, s []float64, minVal, maxVal float64, msgAndArgs ...any) bool {
	t.Helper()
	for i, v := range s {
		if v < minVal || v > maxVal {
			return assert.Fail(t, "value out of range",
				"s[%d]=%f is outside range [%f, %f]", i, v, minVal, maxVal)
		}
	}
	return true
}

// AssertRelativeError verifies that the relative error between actual and expected is within tolerance.
func AssertRelativeError(t *testing.T, expected, actual, tolerance float64, msgAndArgs ...any) bool {
	t.Helper()
	if expected == 0 {
		return assert.InDelta(t, expected, actual, tolerance, msgAndArgs...)
	}
	relError := math.Abs(actual-expected) / math.Abs(expected)
	return assert.LessOrEqual(t, relError, tolerance,
		"relative error %e exceeds tolerance %e (expected=%f, actual=%f)",
		relError, tolerance, expected, actual)
}

// AssertInRange verifies that a value is within [min, max].
func AssertInRange(t *testing.T, value, minVal, maxVal float64, msgAndArgs ...any) bool {
	t.Helper()
	if value < minVal || value > maxVal {
		return assert.Fail(t, "value out of range",
			"value %f is outside range [%f, %f]", value, minVal, maxVal)
	}
	return true
}
