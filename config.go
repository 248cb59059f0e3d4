package spectroset

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/tphakala/spectroset/internal/audiofile"
	"github.com/tphakala/spectroset/internal/dataset"
	"github.com/tphakala/spectroset/internal/profile"
	"github.com/tphakala/spectroset/internal/spectrogram"
	"github.com/tphakala/spectroset/internal/transcode"
)

// ErrInvalidConfig indicates invalid configuration parameters.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds everything a run needs. It is built once and passed
// explicitly; nothing is read from process-wide state.
type Config struct {
	// SourceDir is searched recursively for recordings.
	SourceDir string

	// OutputDir receives one subtree per rate profile.
	OutputDir string

	// Extensions lists the audio extensions to discover, with dot, any case.
	Extensions []string

	// Catalog is the ordered set of rate profiles to render.
	Catalog profile.Catalog

	// Seed drives the split shuffle. Zero picks a random seed.
	Seed uint64

	// Workers bounds the files processed at once. Zero or less means one
	// per CPU; 1 processes files strictly in split order.
	Workers int

	// Width and Height are the image size in pixels.
	Width  int
	Height int

	// Interpolation is "nearest", "bilinear" or "catmullrom".
	Interpolation string

	// TopDB is the dynamic range kept below each spectrogram's peak.
	TopDB float64

	// ManifestPath is the SQLite run manifest. Empty disables it.
	ManifestPath string

	// ReplayRun reuses the split assignment of a run stored in the manifest
	// instead of drawing a new one.
	ReplayRun string
}

// DefaultConfig returns a configuration with the 96k, 48k and 24k profiles,
// 1000x1000 images and an 80 dB range. SourceDir and OutputDir must be set.
func DefaultConfig() Config {
	return Config{
		Extensions:    slices.Clone(defaultExtensions),
		Catalog:       profile.Default(),
		Seed:          randomSeed,
		Workers:       defaultWorkers,
		Width:         spectrogram.DefaultWidth,
		Height:        spectrogram.DefaultHeight,
		Interpolation: spectrogram.InterpNearest.String(),
		TopDB:         spectrogram.DefaultTopDB,
	}
}

// Validate checks the configuration. Errors wrap ErrInvalidConfig.
func (c *Config) Validate() error {
	if c.SourceDir == "" {
		return fmt.Errorf("%w: source directory is required", ErrInvalidConfig)
	}

	if c.OutputDir == "" {
		return fmt.Errorf("%w: output directory is required", ErrInvalidConfig)
	}

	if filepath.Clean(c.SourceDir) == filepath.Clean(c.OutputDir) {
		return fmt.Errorf("%w: source and output directory must differ", ErrInvalidConfig)
	}

	if len(c.Extensions) == 0 {
		return fmt.Errorf("%w: at least one audio extension is required", ErrInvalidConfig)
	}

	for _, ext := range c.Extensions {
		if !strings.HasPrefix(ext, extPrefix) || len(ext) == len(extPrefix) {
			return fmt.Errorf("%w: extension %q must start with a dot", ErrInvalidConfig, ext)
		}
		if !audiofile.Supported(ext) {
			return fmt.Errorf("%w: %w: %q", ErrInvalidConfig, audiofile.ErrUnsupportedFormat, ext)
		}
	}

	if err := c.Catalog.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if _, err := c.renderer(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if c.TopDB <= 0 {
		return fmt.Errorf("%w: top dB must be positive", ErrInvalidConfig)
	}

	if c.ReplayRun != "" && c.ManifestPath == "" {
		return fmt.Errorf("%w: replaying a run requires a manifest", ErrInvalidConfig)
	}

	return nil
}

func (c *Config) renderer() (spectrogram.Renderer, error) {
	interp, err := spectrogram.ParseInterp(c.Interpolation)
	if err != nil {
		return spectrogram.Renderer{}, err
	}
	r := spectrogram.Renderer{Width: c.Width, Height: c.Height, Interp: interp}
	return r, r.Validate()
}

func (c *Config) transcoder() (*transcode.Transcoder, error) {
	r, err := c.renderer()
	if err != nil {
		return nil, err
	}
	t := &transcode.Transcoder{
		Layout:   dataset.Layout{Root: c.OutputDir},
		Catalog:  c.Catalog,
		Renderer: r,
		TopDB:    c.TopDB,
	}
	return t, t.Validate()
}
