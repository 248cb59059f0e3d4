// Package transcode turns one labelled recording into a spectrogram image
// and a label copy for every rate profile in a catalog.
package transcode

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/tphakala/spectroset/internal/audiofile"
	"github.com/tphakala/spectroset/internal/dataset"
	"github.com/tphakala/spectroset/internal/profile"
	"github.com/tphakala/spectroset/internal/resample"
	"github.com/tphakala/spectroset/internal/spectrogram"
)

var (
	// ErrNoLabel is the skip reason for a recording without a label file.
	ErrNoLabel = errors.New("no label file")

	// ErrInvalidTranscoder indicates an unusable Transcoder configuration.
	ErrInvalidTranscoder = errors.New("invalid transcoder")
)

const labelPerm = 0o644

// Status is the outcome of processing one recording.
type Status int

const (
	// StatusProcessed means every profile produced an image and a label.
	StatusProcessed Status = iota

	// StatusSkipped means the recording had no label; nothing was written.
	StatusSkipped

	// StatusFailed means a step failed; outputs of earlier profiles remain.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusProcessed:
		return "processed"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Result describes what happened to one recording.
type Result struct {
	Path  string
	Stem  string
	Split dataset.SplitName

	Status Status

	// Profiles is the number of profiles whose image and label were written.
	Profiles int

	// Err is the skip reason or the failure, nil when processed.
	Err error

	// Bytes is the total size of the files written.
	Bytes int64

	Elapsed time.Duration
}

// Transcoder writes the outputs of one recording for every profile in
// Catalog. It holds no mutable state and may be shared between goroutines.
type Transcoder struct {
	Layout   dataset.Layout
	Catalog  profile.Catalog
	Renderer spectrogram.Renderer

	// TopDB is the dynamic range kept below each spectrogram's peak.
	TopDB float64

	Logger *slog.Logger
}

// Validate checks the catalog, renderer and dB floor.
func (t *Transcoder) Validate() error {
	if t.Layout.Root == "" {
		return fmt.Errorf("%w: empty output root", ErrInvalidTranscoder)
	}
	if err := t.Catalog.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTranscoder, err)
	}
	if err := t.Renderer.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTranscoder, err)
	}
	if t.TopDB <= 0 {
		return fmt.Errorf("%w: top dB %g must be positive", ErrInvalidTranscoder, t.TopDB)
	}
	return nil
}

// Process transcodes the recording at path into split. Profiles run in
// catalog order and the first failure abandons the rest of the file.
func (t *Transcoder) Process(path string, split dataset.SplitName) (res Result) {
	start := time.Now()
	res = Result{Path: path, Stem: dataset.Stem(path), Split: split}
	defer func() { res.Elapsed = time.Since(start) }()

	label, ok, err := dataset.FindLabel(path)
	if err != nil {
		res.Status, res.Err = StatusFailed, err
		return res
	}
	if !ok {
		res.Status, res.Err = StatusSkipped, ErrNoLabel
		return res
	}

	rec, err := audiofile.Load(path)
	if err != nil {
		res.Status, res.Err = StatusFailed, err
		return res
	}

	spectrum, err := resample.New(rec.Samples, rec.SampleRate)
	if err != nil {
		res.Status, res.Err = StatusFailed, err
		return res
	}

	t.logger().Debug("loaded recording",
		slog.String("path", path),
		slog.Int("sample_rate", rec.SampleRate),
		slog.Duration("duration", rec.Duration()))

	for _, p := range t.Catalog {
		n, err := t.writeProfile(spectrum, p, split, res.Stem, label)
		res.Bytes += n
		if err != nil {
			res.Status, res.Err = StatusFailed, fmt.Errorf("profile %s: %w", p.Name, err)
			return res
		}
		res.Profiles++
	}

	res.Status = StatusProcessed
	return res
}

// writeProfile renders one profile's image and copies the label next to it.
// It returns the number of bytes written, including on partial failure.
func (t *Transcoder) writeProfile(spectrum *resample.Spectrum, p profile.RateProfile,
	split dataset.SplitName, stem, label string,
) (int64, error) {
	if err := dataset.EnsureDirs(t.Layout, p.Name, split); err != nil {
		return 0, err
	}

	samples, err := spectrum.To(p.SampleRate)
	if err != nil {
		return 0, err
	}

	m, err := spectrogram.STFT(samples, p.Window, p.Hop)
	if err != nil {
		return 0, err
	}
	m.ToDecibels(t.TopDB)

	img, err := t.Renderer.Render(m)
	if err != nil {
		return 0, err
	}

	imagePath := t.Layout.ImagePath(p.Name, split, stem)
	if err := spectrogram.WritePNG(imagePath, img); err != nil {
		return 0, err
	}

	var written int64
	if info, err := os.Stat(imagePath); err == nil {
		written = info.Size()
	}

	n, err := CopyLabel(label, t.Layout.LabelPath(p.Name, split, stem))
	written += n
	if err != nil {
		return written, err
	}

	t.logger().Debug("wrote profile",
		slog.String("stem", stem),
		slog.String("profile", p.Name),
		slog.Int("samples", len(samples)),
		slog.Int("frames", m.Frames),
		slog.Int("bins", m.Bins))
	return written, nil
}

func (t *Transcoder) logger() *slog.Logger {
	if t.Logger != nil {
		return t.Logger
	}
	return slog.Default()
}

// CopyLabel copies src to dst byte for byte, replacing dst if it exists.
func CopyLabel(src, dst string) (n int64, err error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("failed to open label: %w", err)
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, labelPerm)
	if err != nil {
		return 0, fmt.Errorf("failed to create label copy: %w", err)
	}
	defer func() {
		if closeErr := out.Close(); err == nil && closeErr != nil {
			err = fmt.Errorf("failed to close label copy: %w", closeErr)
		}
	}()

	n, err = io.Copy(out, in)
	if err != nil {
		return n, fmt.Errorf("failed to copy label: %w", err)
	}
	return n, nil
}
