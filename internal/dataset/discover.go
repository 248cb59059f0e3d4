// Package dataset enumerates a labelled audio corpus, assigns every
// recording to a train, val or test split and computes where its outputs go.
package dataset

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

var (
	// ErrNoFiles indicates that discovery found no audio files under the root.
	ErrNoFiles = errors.New("no audio files found")

	// ErrNotDirectory indicates a source root that is not a directory.
	ErrNotDirectory = errors.New("source root is not a directory")
)

// Discover walks root recursively and returns every regular file whose
// extension matches one of exts, ignoring case. Files reachable through more
// than one path (symlinks, duplicated roots) are returned once. The result is
// sorted so that the order handed to Split does not depend on the walk.
func Discover(root string, exts []string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read source root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, root)
	}

	want := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		want[strings.ToLower(ext)] = struct{}{}
	}

	seen := make(map[string]struct{})
	var files []string

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		if _, ok := want[strings.ToLower(filepath.Ext(path))]; !ok {
			return nil
		}

		resolved, ok, err := resolveRegular(path)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if _, dup := seen[resolved]; dup {
			return nil
		}
		seen[resolved] = struct{}{}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%w under %s", ErrNoFiles, root)
	}

	slices.Sort(files)
	return files, nil
}

// resolveRegular returns the absolute, symlink-free form of path and whether
// it names a regular file. Dangling links are reported as not regular.
func resolveRegular(path string) (string, bool, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", false, err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return "", false, err
	}
	return resolved, info.Mode().IsRegular(), nil
}

// Stem returns the base name of path without its extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// FindLabel returns the label file paired with audioPath: a file in the same
// directory with the same stem and a .txt extension in any case. The exact
// spellings .txt and .TXT are tried before the directory is scanned.
func FindLabel(audioPath string) (string, bool, error) {
	dir := filepath.Dir(audioPath)
	stem := Stem(audioPath)

	for _, ext := range []string{ExtLabel, extLabelUpper} {
		candidate := filepath.Join(dir, stem+ext)
		info, err := os.Stat(candidate)
		switch {
		case err == nil && info.Mode().IsRegular():
			return candidate, true, nil
		case err != nil && !errors.Is(err, fs.ErrNotExist):
			return "", false, fmt.Errorf("failed to stat label %s: %w", candidate, err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	for _, e := range entries {
		name := e.Name()
		ext := filepath.Ext(name)
		if e.IsDir() || !strings.EqualFold(ext, ExtLabel) || strings.TrimSuffix(name, ext) != stem {
			continue
		}
		return filepath.Join(dir, name), true, nil
	}
	return "", false, nil
}

// StemCollisions returns the stems shared by more than one file, each with
// the files that share it. Outputs are keyed by stem, so only one of the
// colliding recordings survives per split.
func StemCollisions(files []string) map[string][]string {
	byStem := make(map[string][]string, len(files))
	for _, f := range files {
		s := Stem(f)
		byStem[s] = append(byStem[s], f)
	}
	for s, group := range byStem {
		if len(group) < 2 {
			delete(byStem, s)
		}
	}
	return byStem
}
