// Package profile defines the rate profiles that drive multi-resolution
// spectrogram generation.
//
// A rate profile names a target sample rate together with the STFT window
// and hop lengths used at that rate. Profiles are plain values; a Catalog is
// built once at start-up and passed explicitly to every stage that needs it.
package profile

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// RateProfile is a named frequency-analysis parameter set.
type RateProfile struct {
	// Name identifies the profile and becomes the top-level output directory.
	Name string

	// SampleRate is the target sample rate in Hz.
	SampleRate int

	// Window is the STFT frame length in samples.
	Window int

	// Hop is the STFT frame advance in samples. Must be < Window.
	Hop int
}

// Catalog is an ordered set of rate profiles. Order is processing order.
type Catalog []RateProfile

// Built-in profile names.
const (
	Name96k = "96k"
	Name48k = "48k"
	Name24k = "24k"
)

var (
	// ErrInvalidProfile indicates a profile or catalog failed validation.
	ErrInvalidProfile = errors.New("invalid rate profile")

	// ErrUnknownProfile indicates a preset name that is not built in.
	ErrUnknownProfile = errors.New("unknown rate profile")
)

// Preset returns one of the built-in profiles by name.
func Preset(name string) (RateProfile, error) {
	switch name {
	case Name96k:
		return RateProfile{
			Name:       Name96k,
			SampleRate: rate96k,
			Window:     window96k,
			Hop:        hop96k,
		}, nil

	case Name48k:
		return RateProfile{
			Name:       Name48k,
			SampleRate: rate48k,
			Window:     window48k,
			Hop:        hop48k,
		}, nil

	case Name24k:
		return RateProfile{
			Name:       Name24k,
			SampleRate: rate24k,
			Window:     window24k,
			Hop:        hop24k,
		}, nil

	default:
		return RateProfile{}, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
	}
}

// Default returns the three-profile catalog used for dataset generation:
// 96k, 48k and 24k, in that order.
func Default() Catalog {
	names := []string{Name96k, Name48k, Name24k}
	c := make(Catalog, 0, len(names))
	for _, n := range names {
		p, _ := Preset(n)
		c = append(c, p)
	}
	return c
}

// Validate checks that the profile can be used for analysis and as a
// directory name.
func (p RateProfile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidProfile)
	}
	if p.Name == "." || p.Name == ".." || strings.ContainsAny(p.Name, `/\`) {
		return fmt.Errorf("%w: name %q is not a valid directory name", ErrInvalidProfile, p.Name)
	}
	if p.SampleRate <= 0 {
		return fmt.Errorf("%w: %s: sample rate must be positive", ErrInvalidProfile, p.Name)
	}
	if p.Window <= 0 || p.Hop <= 0 {
		return fmt.Errorf("%w: %s: window and hop must be positive", ErrInvalidProfile, p.Name)
	}
	if p.Window <= p.Hop {
		return fmt.Errorf("%w: %s: window (%d) must exceed hop (%d)", ErrInvalidProfile, p.Name, p.Window, p.Hop)
	}
	return nil
}

// String returns a compact representation, e.g. "96k(96000Hz w=512 h=128)".
func (p RateProfile) String() string {
	return fmt.Sprintf("%s(%dHz w=%d h=%d)", p.Name, p.SampleRate, p.Window, p.Hop)
}

// Validate checks every profile and rejects empty catalogs and duplicate names.
func (c Catalog) Validate() error {
	if len(c) == 0 {
		return fmt.Errorf("%w: catalog is empty", ErrInvalidProfile)
	}
	seen := make(map[string]struct{}, len(c))
	for _, p := range c {
		if err := p.Validate(); err != nil {
			return err
		}
		if _, dup := seen[p.Name]; dup {
			return fmt.Errorf("%w: duplicate name %q", ErrInvalidProfile, p.Name)
		}
		seen[p.Name] = struct{}{}
	}
	return nil
}

// MinWindow returns the smallest analysis window in the catalog.
func (c Catalog) MinWindow() int {
	if len(c) == 0 {
		return 0
	}
	m := c[0].Window
	for _, p := range c[1:] {
		m = min(m, p.Window)
	}
	return m
}

// Names returns profile names in catalog order.
func (c Catalog) Names() []string {
	names := make([]string, len(c))
	for i, p := range c {
		names[i] = p.Name
	}
	return names
}

// String renders the catalog in the format accepted by Parse.
func (c Catalog) String() string {
	parts := make([]string, len(c))
	for i, p := range c {
		parts[i] = fmt.Sprintf("%s:%d:%d:%d", p.Name, p.SampleRate, p.Window, p.Hop)
	}
	return strings.Join(parts, ",")
}

// Parse reads a catalog from a comma-separated list of entries. Each entry
// is either a built-in preset name ("48k") or "name:rate:window:hop".
func Parse(s string) (Catalog, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: catalog is empty", ErrInvalidProfile)
	}

	var c Catalog
	for entry := range strings.SplitSeq(s, ",") {
		entry = strings.TrimSpace(entry)
		fields := strings.Split(entry, ":")

		switch len(fields) {
		case 1:
			p, err := Preset(entry)
			if err != nil {
				return nil, err
			}
			c = append(c, p)

		case profileFields:
			nums := make([]int, profileFields-1)
			for i, f := range fields[1:] {
				n, err := strconv.Atoi(strings.TrimSpace(f))
				if err != nil {
					return nil, fmt.Errorf("%w: %q: %w", ErrInvalidProfile, entry, err)
				}
				nums[i] = n
			}
			c = append(c, RateProfile{
				Name:       strings.TrimSpace(fields[0]),
				SampleRate: nums[0],
				Window:     nums[1],
				Hop:        nums[2],
			})

		default:
			return nil, fmt.Errorf("%w: %q: want name or name:rate:window:hop", ErrInvalidProfile, entry)
		}
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
