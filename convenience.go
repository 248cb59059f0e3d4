package spectroset

import (
	"image"

	"github.com/tphakala/spectroset/internal/pipeline"
	"github.com/tphakala/spectroset/internal/profile"
	"github.com/tphakala/spectroset/internal/resample"
	"github.com/tphakala/spectroset/internal/spectrogram"
)

type (
	// RateProfile is a named target sample rate with its STFT window and hop.
	RateProfile = profile.RateProfile

	// Catalog is an ordered set of rate profiles.
	Catalog = profile.Catalog

	// Renderer draws a decibel spectrogram onto a fixed canvas.
	Renderer = spectrogram.Renderer

	// Report summarises a run.
	Report = pipeline.Report
)

// DefaultCatalog returns the 96k, 48k and 24k profiles.
func DefaultCatalog() Catalog {
	return profile.Default()
}

// ParseCatalog parses a comma-separated list of preset names or
// name:rate:window:hop entries.
func ParseCatalog(s string) (Catalog, error) {
	return profile.Parse(s)
}

// DefaultRenderer returns a 1000x1000 nearest-neighbour renderer.
func DefaultRenderer() Renderer {
	return spectrogram.DefaultRenderer()
}

// Spectrogram resamples samples from rate to the profile's rate and renders
// its decibel spectrogram with the default 80 dB range.
func Spectrogram(samples []float64, rate int, p RateProfile, r Renderer) (*image.RGBA, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	y, err := resample.Resample(samples, rate, p.SampleRate)
	if err != nil {
		return nil, err
	}

	m, err := spectrogram.STFT(y, p.Window, p.Hop)
	if err != nil {
		return nil, err
	}
	m.ToDecibels(spectrogram.DefaultTopDB)

	return r.Render(m)
}

// WritePNG encodes img to path, replacing any existing file.
func WritePNG(path string, img image.Image) error {
	return spectrogram.WritePNG(path, img)
}
