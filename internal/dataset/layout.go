package dataset

import (
	"fmt"
	"os"
	"path/filepath"
)

// Layout computes output locations under Root:
//
//	<Root>/<rate>/images/<split>/<stem>.png
//	<Root>/<rate>/labels/<split>/<stem>.txt
//
// Layout never touches the filesystem; see EnsureDirs.
type Layout struct {
	Root string
}

// ImageDir returns the image directory for a rate profile and split.
func (l Layout) ImageDir(rate string, split SplitName) string {
	return filepath.Join(l.Root, rate, imagesDir, string(split))
}

// LabelDir returns the label directory for a rate profile and split.
func (l Layout) LabelDir(rate string, split SplitName) string {
	return filepath.Join(l.Root, rate, labelsDir, string(split))
}

// ImagePath returns the spectrogram image path for stem.
func (l Layout) ImagePath(rate string, split SplitName, stem string) string {
	return filepath.Join(l.ImageDir(rate, split), stem+ExtImage)
}

// LabelPath returns the label copy path for stem. The extension is always
// lower case, whatever the source label used.
func (l Layout) LabelPath(rate string, split SplitName, stem string) string {
	return filepath.Join(l.LabelDir(rate, split), stem+ExtLabel)
}

// EnsureDirs creates the image and label directories for rate and split.
// It is idempotent and safe to call from several goroutines at once.
func EnsureDirs(l Layout, rate string, split SplitName) error {
	for _, dir := range []string{l.ImageDir(rate, split), l.LabelDir(rate, split)} {
		if err := os.MkdirAll(dir, dirPerm); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	return nil
}
