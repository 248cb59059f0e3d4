package spectroset

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"

	"github.com/mdobak/go-xerrors"
	"github.com/tphakala/simd/cpu"
	"github.com/tphakala/spectroset/internal/dataset"
	"github.com/tphakala/spectroset/internal/manifest"
	"github.com/tphakala/spectroset/internal/pipeline"
)

// Run generates the dataset described by cfg.
//
// It returns an error only for an invalid configuration, a source tree with
// no recordings (dataset.ErrNoFiles), a manifest that cannot be used, or a
// cancelled context. Nothing is written before discovery succeeds. Files
// that fail individually are counted in the report and do not fail the run.
func Run(ctx context.Context, cfg Config, logger *slog.Logger) (*Report, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "starting dataset generation",
		slog.String("source", cfg.SourceDir),
		slog.String("output", cfg.OutputDir),
		slog.String("profiles", cfg.Catalog.String()),
		slog.Int("min_window", cfg.Catalog.MinWindow()),
		slog.String("extensions", strings.Join(cfg.Extensions, ",")),
		slog.String("simd", cpu.Info()))

	files, err := dataset.Discover(cfg.SourceDir, cfg.Extensions)
	if err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "discovered recordings", slog.Int("files", len(files)))

	for stem, group := range dataset.StemCollisions(files) {
		logger.WarnContext(ctx, "recordings share a stem; outputs in the same split overwrite each other",
			slog.String("stem", stem),
			slog.Any("paths", group))
	}

	tc, err := cfg.transcoder()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	tc.Logger = logger

	var store *manifest.Store
	if cfg.ManifestPath != "" {
		store, err = manifest.Open(cfg.ManifestPath)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := store.Close(); err != nil {
				logger.WarnContext(ctx, "failed to close manifest", slog.Any("error", xerrors.New(err)))
			}
		}()
	}

	assignment, err := assign(ctx, cfg, store, files, logger)
	if err != nil {
		return nil, err
	}

	driver := &pipeline.Driver{
		Processor: tc,
		Workers:   cfg.Workers,
		Logger:    logger,
	}

	var runID string
	if store != nil {
		runID, err = store.BeginRun(ctx, manifest.RunInfo{
			SourceDir:  cfg.SourceDir,
			OutputDir:  cfg.OutputDir,
			Catalog:    cfg.Catalog,
			Workers:    cfg.Workers,
			Assignment: assignment,
		})
		if err != nil {
			return nil, err
		}
		driver.Recorder = store.Recorder(runID)
		logger.InfoContext(ctx, "recording run manifest",
			slog.String("run_id", runID),
			slog.String("path", cfg.ManifestPath))
	}

	report, runErr := driver.Run(ctx, assignment)

	if store != nil && report != nil {
		if err := store.FinishRun(context.WithoutCancel(ctx), runID, report); err != nil {
			logger.WarnContext(ctx, "failed to finish run manifest", slog.Any("error", xerrors.New(err)))
		}
	}

	if report != nil {
		logger.InfoContext(ctx, "dataset generation finished",
			slog.Int("discovered", report.Discovered),
			slog.Int("processed", report.Processed),
			slog.Int("skipped", report.Skipped),
			slog.Int("failed", report.Failed),
			slog.Uint64("seed", assignment.Seed),
			slog.Duration("elapsed", report.Elapsed))
	}
	return report, runErr
}

// assign replays a stored assignment or partitions files with cfg.Seed,
// drawing a random seed when it is zero.
func assign(ctx context.Context, cfg Config, store *manifest.Store, files []string, logger *slog.Logger) (dataset.Assignment, error) {
	if cfg.ReplayRun != "" {
		a, err := store.Assignments(ctx, cfg.ReplayRun)
		if err != nil {
			return dataset.Assignment{}, err
		}
		logger.InfoContext(ctx, "replaying split assignment",
			slog.String("run_id", cfg.ReplayRun),
			slog.Uint64("seed", a.Seed),
			slog.String("splits", a.String()))
		if a.Len() != len(files) {
			logger.WarnContext(ctx, "replayed assignment differs from discovered files",
				slog.Int("assigned", a.Len()),
				slog.Int("discovered", len(files)))
		}
		return a, nil
	}

	seed := cfg.Seed
	for seed == randomSeed {
		seed = rand.Uint64()
	}
	a := dataset.Partition(files, seed)
	logger.InfoContext(ctx, "partitioned recordings",
		slog.Uint64("seed", seed),
		slog.Bool("random_seed", cfg.Seed == randomSeed),
		slog.String("splits", a.String()))
	return a, nil
}
