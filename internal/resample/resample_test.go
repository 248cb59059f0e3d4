package resample

import (
	"fmt"
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tphakala/spectroset/internal/testutil"
	"gonum.org/v1/gonum/dsp/fourier"
)

func TestOutputLen(t *testing.T) {
	tests := []struct {
		n, from, to, want int
	}{
		{44100, 44100, 24000, 24000},
		{44100, 44100, 96000, 96000},
		{1000, 1000, 1000, 1000},
		{3, 2, 1, 2}, // 1.5 rounds up
		{1, 3, 1, 0}, // 0.33 rounds down
		{10, 48000, 44100, 9},
		{0, 44100, 48000, 0},
		{10, 0, 48000, 0},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_%d_%d", tt.n, tt.from, tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, OutputLen(tt.n, tt.from, tt.to))
		})
	}
}

// TestResample_LengthProperty checks len(out) == round(L*to/from) exactly
// across a grid of lengths and rates, including odd and prime lengths.
func TestResample_LengthProperty(t *testing.T) {
	lengths := []int{2, 3, 7, 64, 101, 127, 1000, 1023}
	rates := []int{8000, 22050, 24000, 44100, 48000, 96000}

	for _, n := range lengths {
		x := testutil.Sine(n, 440, 44100, 0.5)
		for _, from := range rates {
			s, err := New(x, from)
			require.NoError(t, err)
			for _, to := range rates {
				want := int(math.Round(float64(n) * float64(to) / float64(from)))
				if want == 0 {
					continue
				}
				y, err := s.To(to)
				require.NoError(t, err)
				require.Len(t, y, want, "n=%d from=%d to=%d", n, from, to)

				// Duration preserved within one output sample period.
				assert.InDelta(t, float64(n)/float64(from), float64(len(y))/float64(to), 1/float64(to))
			}
		}
	}
}

func TestResample_OneSecond44100To24000(t *testing.T) {
	x := testutil.Sine(44100, 1000, 44100, 0.8)
	y, err := Resample(x, 44100, 24000)
	require.NoError(t, err)
	assert.InDelta(t, 24000, len(y), 1)
	testutil.AssertNoNaNOrInf(t, y)
}

func TestResample_SameRateIsIdentity(t *testing.T) {
	for _, n := range []int{101, 1024} {
		x := testutil.Sine(n, 1234, 48000, 0.7)
		y, err := Resample(x, 48000, 48000)
		require.NoError(t, err)
		require.Len(t, y, n)
		for i := range x {
			require.InDelta(t, x[i], y[i], 1e-9, "sample %d", i)
		}
	}
}

func TestResample_PreservesToneFrequency(t *testing.T) {
	tests := []struct {
		name     string
		from, to int
		freq     float64
	}{
		{"Down_44100_24000", 44100, 24000, 1000},
		{"Up_44100_96000", 44100, 96000, 3000},
		{"Down_96000_48000", 96000, 48000, 5000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x := testutil.Sine(tt.from/2, tt.freq, float64(tt.from), 1)
			y, err := Resample(x, tt.from, tt.to)
			require.NoError(t, err)

			got := testutil.PeakFrequency(y, float64(tt.to))
			// One bin of resolution at half a second of signal is 2 Hz.
			assert.InDelta(t, tt.freq, got, 2.5)

			// Amplitude is preserved for an in-band tone.
			peak := 0.0
			for _, v := range y[len(y)/4 : 3*len(y)/4] {
				peak = max(peak, math.Abs(v))
			}
			testutil.AssertInRange(t, peak, 0.9, 1.1)
		})
	}
}

func TestResample_RemovesContentAboveTargetNyquist(t *testing.T) {
	const from, to = 48000, 24000

	// 15 kHz is representable at 48 kHz but above the 12 kHz Nyquist
	// frequency of the target rate.
	x := testutil.Sine(from, 15000, from, 1)
	y, err := Resample(x, from, to)
	require.NoError(t, err)

	for i, v := range y {
		require.InDelta(t, 0, v, 1e-6, "sample %d should be silent", i)
	}
}

func TestResample_Errors(t *testing.T) {
	_, err := Resample(nil, 44100, 48000)
	require.ErrorIs(t, err, ErrEmptyInput)

	_, err = Resample([]float64{1, 2, 3}, 0, 48000)
	require.ErrorIs(t, err, ErrInvalidRate)

	_, err = Resample([]float64{1, 2, 3}, -1, 48000)
	require.ErrorIs(t, err, ErrInvalidRate)

	_, err = Resample([]float64{1, 2, 3}, 44100, 0)
	require.ErrorIs(t, err, ErrInvalidRate)

	// One sample at 96 kHz has no representation at 24 kHz.
	_, err = Resample([]float64{1}, 96000, 24000)
	require.ErrorIs(t, err, ErrEmptyInput)
}

func TestSpectrum_Reuse(t *testing.T) {
	x := testutil.Sine(4410, 440, 44100, 0.5)
	s, err := New(x, 44100)
	require.NoError(t, err)
	assert.Equal(t, 4410, s.Len())
	assert.Equal(t, 44100, s.Rate())

	a, err := s.To(24000)
	require.NoError(t, err)
	_, err = s.To(96000)
	require.NoError(t, err)
	b, err := s.To(24000)
	require.NoError(t, err)

	assert.Equal(t, a, b, "conversions must not mutate the shared spectrum")
}

func TestLargestPrimeFactor(t *testing.T) {
	tests := []struct{ n, want int }{
		{0, 1},
		{1, 1},
		{2, 2},
		{480000, 5},
		{480013, 480013},
		{80002, 181},
		{2 * 3 * 7, 7},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, largestPrimeFactor(tt.n), "n=%d", tt.n)
	}
}

func TestNewRealFFT_Backend(t *testing.T) {
	assert.IsType(t, gonumFFT{}, newRealFFT(44100))
	assert.IsType(t, gonumFFT{}, newRealFFT(1))
	assert.IsType(t, bluesteinFFT{}, newRealFFT(44101))
	assert.IsType(t, bluesteinFFT{}, newRealFFT(11))
	assert.IsType(t, gonumFFT{}, newRealFFT(7))
}

func TestBluesteinFFT_MatchesGonum(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	for _, n := range []int{7, 97, 998, 1009, 1024} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			x := make([]float64, n)
			for i := range x {
				x[i] = rng.Float64()*2 - 1
			}

			ref := gonumFFT{fourier.NewFFT(n)}
			blu := bluesteinFFT{n: n}

			want := ref.Coefficients(x)
			got := blu.Coefficients(x)
			require.Len(t, got, len(want))
			for k := range want {
				require.InDelta(t, real(want[k]), real(got[k]), 1e-9, "bin %d", k)
				require.InDelta(t, imag(want[k]), imag(got[k]), 1e-9, "bin %d", k)
			}

			wantSeq := ref.Sequence(want)
			gotSeq := blu.Sequence(want)
			require.Len(t, gotSeq, n)
			for i := range wantSeq {
				require.InDelta(t, wantSeq[i], gotSeq[i], 1e-8, "sample %d", i)
				require.InDelta(t, float64(n)*x[i], gotSeq[i], 1e-8, "sample %d", i)
			}
		})
	}
}

func TestResample_PrimeLengthCompletes(t *testing.T) {
	if testing.Short() {
		t.Skip("long signal")
	}

	// 5 s at 96 kHz plus a prime number of extra samples.
	const n = 480013
	x := testutil.Sine(n, 1000, 96000, 0.5)

	start := time.Now()
	s, err := New(x, 96000)
	require.NoError(t, err)
	y, err := s.To(16000)
	require.NoError(t, err)
	elapsed := time.Since(start)

	assert.Less(t, elapsed, 20*time.Second)
	require.Len(t, y, OutputLen(n, 96000, 16000))
	testutil.AssertNoNaNOrInf(t, y)

	// Away from the edges the tone keeps its amplitude.
	mid := y[len(y)/4 : 3*len(y)/4]
	peak := 0.0
	for _, v := range mid {
		peak = max(peak, math.Abs(v))
	}
	assert.InDelta(t, 0.5, peak, 0.01)
}
