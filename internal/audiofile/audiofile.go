// Package audiofile decodes audio recordings into mono float64 samples.
//
// WAV files are read with go-audio/wav and FLAC files with mewkiz/flac.
// Multi-channel recordings are down-mixed by averaging the channels. Integer
// PCM is normalised to [-1, 1] by its bit depth; 8-bit WAV is unsigned with a
// midpoint of 128. IEEE float WAV (32 and 64 bit) is taken as is.
package audiofile

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/mewkiz/flac"
	"github.com/tphakala/simd/f64"
)

var (
	// ErrUnsupportedFormat indicates an extension or encoding that cannot be decoded.
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrInvalidAudio indicates a file that could not be decoded into samples.
	ErrInvalidAudio = errors.New("invalid audio file")
)

// Supported file extensions (lower case, with dot).
const (
	ExtWAV  = ".wav"
	ExtFLAC = ".flac"
)

// Recording is a decoded mono signal. It is not modified after Load returns.
type Recording struct {
	Path       string
	Samples    []float64
	SampleRate int
}

// Duration returns the length of the recording.
func (r *Recording) Duration() time.Duration {
	if r.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(r.Samples)) / float64(r.SampleRate) * float64(time.Second))
}

// Supported reports whether ext (any case, with dot) can be decoded.
func Supported(ext string) bool {
	switch strings.ToLower(ext) {
	case ExtWAV, ExtFLAC:
		return true
	default:
		return false
	}
}

// Load decodes the file at path, choosing the decoder by extension.
func Load(path string) (*Recording, error) {
	var (
		samples []float64
		rate    int
		err     error
	)

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ExtWAV:
		samples, rate, err = loadWAV(path)
	case ExtFLAC:
		samples, rate, err = loadFLAC(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, err
	}

	if rate <= 0 {
		return nil, fmt.Errorf("%w: %s: sample rate %d", ErrInvalidAudio, path, rate)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: %s: no samples", ErrInvalidAudio, path)
	}

	return &Recording{Path: path, Samples: samples, SampleRate: rate}, nil
}

func loadFLAC(path string) ([]float64, int, error) {
	stream, err := flac.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %s: %w", ErrInvalidAudio, path, err)
	}
	defer func() { _ = stream.Close() }()

	channels := int(stream.Info.NChannels)
	bitDepth := int(stream.Info.BitsPerSample)
	maxVal, ok := pcmMaxValue(bitDepth)
	if !ok {
		return nil, 0, fmt.Errorf("%w: %s: %d-bit FLAC", ErrUnsupportedFormat, path, bitDepth)
	}
	if channels < 1 {
		return nil, 0, fmt.Errorf("%w: %s: %d channels", ErrInvalidAudio, path, channels)
	}

	mono := make([]float64, 0, stream.Info.NSamples)
	for {
		frame, err := stream.ParseNext()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %s: %w", ErrInvalidAudio, path, err)
		}

		for i := range frame.Subframes[0].NSamples {
			var sum float64
			for _, sub := range frame.Subframes {
				sum += float64(sub.Samples[i])
			}
			mono = append(mono, sum)
		}
	}

	f64.Scale(mono, mono, 1/(maxVal*float64(channels)))
	return mono, int(stream.Info.SampleRate), nil
}

// pcmMaxValue returns the full-scale value for signed PCM of the given depth.
func pcmMaxValue(bitDepth int) (float64, bool) {
	switch bitDepth {
	case bitsPerSample16:
		return maxInt16, true
	case bitsPerSample24:
		return maxInt24, true
	case bitsPerSample32:
		return maxInt32, true
	default:
		return 0, false
	}
}
