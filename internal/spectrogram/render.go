package spectrogram

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"strings"

	"github.com/mazznoer/colorgrad"
	"golang.org/x/image/draw"
)

// ErrInvalidRenderer indicates a renderer with an unusable canvas or
// interpolation mode.
var ErrInvalidRenderer = errors.New("spectrogram: invalid renderer")

// Interp selects how the spectrogram is stretched onto the canvas.
type Interp int

const (
	// InterpNearest replicates cells. Default; keeps cell values exact.
	InterpNearest Interp = iota

	// InterpBiLinear blends neighbouring cells.
	InterpBiLinear

	// InterpCatmullRom uses a Catmull-Rom cubic kernel.
	InterpCatmullRom
)

// ParseInterp maps "nearest", "bilinear" or "catmullrom" to an Interp.
func ParseInterp(s string) (Interp, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "nearest":
		return InterpNearest, nil
	case "bilinear":
		return InterpBiLinear, nil
	case "catmullrom", "catmull-rom", "cubic":
		return InterpCatmullRom, nil
	default:
		return 0, fmt.Errorf("%w: unknown interpolation %q", ErrInvalidRenderer, s)
	}
}

func (i Interp) String() string {
	switch i {
	case InterpNearest:
		return "nearest"
	case InterpBiLinear:
		return "bilinear"
	case InterpCatmullRom:
		return "catmullrom"
	default:
		return fmt.Sprintf("Interp(%d)", int(i))
	}
}

func (i Interp) scaler() draw.Scaler {
	switch i {
	case InterpBiLinear:
		return draw.BiLinear
	case InterpCatmullRom:
		return draw.CatmullRom
	default:
		return draw.NearestNeighbor
	}
}

// viridis is the colour map lookup table, dark (low) to bright (high).
var viridis = func() [lutSize]color.RGBA {
	var lut [lutSize]color.RGBA
	grad := colorgrad.Viridis()
	for i := range lut {
		r, g, b := grad.At(float64(i) / (lutSize - 1)).RGB255()
		lut[i] = color.RGBA{R: r, G: g, B: b, A: opaque}
	}
	return lut
}()

// Renderer draws a spectrogram onto a fixed-size canvas with no axes,
// ticks or margins. Every pixel is signal.
type Renderer struct {
	Width  int
	Height int
	Interp Interp
}

// DefaultRenderer returns a 1000x1000 nearest-neighbour renderer.
func DefaultRenderer() Renderer {
	return Renderer{Width: DefaultWidth, Height: DefaultHeight, Interp: InterpNearest}
}

// Validate checks the canvas size and interpolation mode.
func (r Renderer) Validate() error {
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("%w: canvas %dx%d", ErrInvalidRenderer, r.Width, r.Height)
	}
	if r.Interp < InterpNearest || r.Interp > InterpCatmullRom {
		return fmt.Errorf("%w: %v", ErrInvalidRenderer, r.Interp)
	}
	return nil
}

// Render maps m linearly over its own value range onto the colour map and
// stretches it to the canvas. Frequency runs bottom (DC) to top, time left
// to right.
func (r Renderer) Render(m *Matrix) (*image.RGBA, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if m == nil || m.Bins == 0 || m.Frames == 0 {
		return nil, fmt.Errorf("%w: empty matrix", ErrInvalidRenderer)
	}

	lo, hi := m.Range()
	span := hi - lo

	src := image.NewRGBA(image.Rect(0, 0, m.Frames, m.Bins))
	for b := range m.Bins {
		y := m.Bins - 1 - b
		row := m.Data[b*m.Frames : (b+1)*m.Frames]
		for f, v := range row {
			idx := 0
			if span > 0 {
				idx = int((v-lo)/span*(lutSize-1) + 0.5)
			}
			src.SetRGBA(f, y, viridis[idx])
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, r.Width, r.Height))
	r.Interp.scaler().Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst, nil
}

// WritePNG encodes img to path, replacing any existing file.
func WritePNG(path string, img image.Image) (err error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, filePerm)
	if err != nil {
		return fmt.Errorf("failed to create image file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); err == nil && closeErr != nil {
			err = fmt.Errorf("failed to close image file: %w", closeErr)
		}
	}()

	w := bufio.NewWriter(f)
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	return w.Flush()
}
