// Package spectroset converts a directory of labelled audio recordings into
// a supervised spectrogram image dataset.
//
// Every recording is resampled to each rate profile of a catalog, analysed
// with a short-time Fourier transform using the profile's window and hop,
// converted to decibels and rendered with the viridis colour map onto a
// fixed canvas with no axes or margins. Recordings are partitioned once into
// train, val and test splits, so all resolutions of one recording land in
// the same split.
//
// # Output Layout
//
//	<output>/<profile>/images/<split>/<stem>.png
//	<output>/<profile>/labels/<split>/<stem>.txt
//
// Label files are paired with a recording by stem and a .txt extension in
// any case. They are copied byte for byte and never parsed. Recordings
// without a label are skipped and produce no output.
//
// # Quick Start
//
//	cfg := spectroset.DefaultConfig()
//	cfg.SourceDir = "recordings"
//	cfg.OutputDir = "dataset"
//	cfg.Seed = 42
//
//	report, err := spectroset.Run(ctx, cfg, spectroset.NewLogger(os.Stderr, slog.LevelInfo))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(report)
//
// For a single signal:
//
//	img, err := spectroset.Spectrogram(samples, 44100, profile, spectroset.DefaultRenderer())
//
// # Failure Handling
//
// Only an empty corpus or an invalid configuration stops a run. A file that
// cannot be decoded, is too short for a profile's window or cannot be
// written is logged and counted as failed, and the run continues. Outputs
// already written for a failed file are left in place.
//
// # Reproducibility
//
// Splits are drawn from a seeded PCG generator over the sorted file list.
// A zero seed picks a random one, which is logged and, when a manifest is
// configured, stored with the run. A manifest also stores the complete
// assignment so a later run can replay it with Config.ReplayRun.
package spectroset
