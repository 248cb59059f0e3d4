// Package pipeline drives the transcoder over a split assignment.
//
// Files are dispatched split by split (train, val, test) and in split order
// to a bounded worker pool. Files of one split that share a stem go to the
// same worker, one after another. Each file is isolated: an error or a panic while
// processing it becomes a failed result and the run continues. A single
// collector goroutine logs one line per file, records it and builds the
// Report, so no state is shared between workers.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mdobak/go-xerrors"
	"github.com/tphakala/spectroset/internal/dataset"
	"github.com/tphakala/spectroset/internal/transcode"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrPanic wraps a panic recovered while processing a file.
	ErrPanic = errors.New("panic while processing file")

	// ErrInvalidDriver indicates a Driver that cannot run.
	ErrInvalidDriver = errors.New("invalid pipeline driver")
)

// Processor handles one file. *transcode.Transcoder implements it.
type Processor interface {
	Process(path string, split dataset.SplitName) transcode.Result
}

// Recorder persists per-file results. Errors are logged and never stop a run.
type Recorder interface {
	Record(ctx context.Context, res transcode.Result) error
}

// Driver runs a Processor over every file of an Assignment.
type Driver struct {
	Processor Processor

	// Workers bounds concurrent files. 1 processes files in split order,
	// except that files sharing a stem are pulled forward to run together.
	// Zero or less uses runtime.NumCPU().
	Workers int

	// Recorder is optional.
	Recorder Recorder

	Logger *slog.Logger
}

// Run processes every assigned file and returns the aggregated report.
// Per-file failures never produce an error. When ctx is cancelled no new
// files are dispatched, in-flight files complete, and the partial report is
// returned together with the context error.
func (d *Driver) Run(ctx context.Context, a dataset.Assignment) (*Report, error) {
	if d.Processor == nil {
		return nil, fmt.Errorf("%w: no processor", ErrInvalidDriver)
	}

	start := time.Now()
	report := newReport(a)
	logger := d.logger()

	workers := d.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	logger.InfoContext(ctx, "starting pipeline",
		slog.Int("files", a.Len()),
		slog.Int("train", len(a.Train)),
		slog.Int("val", len(a.Val)),
		slog.Int("test", len(a.Test)),
		slog.Int("workers", workers))

	results := make(chan transcode.Result, workers)
	collected := make(chan struct{})
	go func() {
		defer close(collected)
		for res := range results {
			d.collect(ctx, report, res)
		}
	}()

	var g errgroup.Group
	g.SetLimit(workers)

	for _, u := range workUnits(a) {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			for _, path := range u.files {
				if ctx.Err() != nil {
					return nil
				}
				results <- d.process(path, u.split)
			}
			return nil
		})
	}

	_ = g.Wait()
	close(results)
	<-collected

	report.Elapsed = time.Since(start)
	if err := ctx.Err(); err != nil {
		report.Interrupted = true
		return report, fmt.Errorf("pipeline interrupted: %w", err)
	}
	return report, nil
}

// workUnit is a run of files that one worker handles in order.
type workUnit struct {
	split dataset.SplitName
	files []string
}

// workUnits groups the files of each split by stem. Files sharing a stem
// write the same output paths, so they run back to back in split order and
// the last of them wins at every rate.
func workUnits(a dataset.Assignment) []workUnit {
	var units []workUnit
	for _, s := range a.Splits() {
		index := make(map[string]int, len(s.Files))
		for _, path := range s.Files {
			stem := dataset.Stem(path)
			if i, ok := index[stem]; ok {
				units[i].files = append(units[i].files, path)
				continue
			}
			index[stem] = len(units)
			units = append(units, workUnit{split: s.Name, files: []string{path}})
		}
	}
	return units
}

// process runs the processor on one file, turning a panic into a failure.
func (d *Driver) process(path string, split dataset.SplitName) (res transcode.Result) {
	defer func() {
		if r := recover(); r != nil {
			res = transcode.Result{
				Path:   path,
				Stem:   dataset.Stem(path),
				Split:  split,
				Status: transcode.StatusFailed,
				Err:    fmt.Errorf("%w: %v", ErrPanic, r),
			}
		}
	}()
	return d.Processor.Process(path, split)
}

// collect logs, records and counts one result. It runs on the collector
// goroutine only.
func (d *Driver) collect(ctx context.Context, report *Report, res transcode.Result) {
	report.add(res)
	logger := d.logger()
	progress := fmt.Sprintf("%d/%d", report.Handled(), report.Discovered)

	switch res.Status {
	case transcode.StatusProcessed:
		logger.InfoContext(ctx, "processed file",
			slog.String("progress", progress),
			slog.String("path", res.Path),
			slog.String("split", string(res.Split)),
			slog.Int("profiles", res.Profiles),
			slog.String("size", humanize.Bytes(uint64(max(res.Bytes, 0)))),
			slog.Duration("elapsed", res.Elapsed.Round(time.Millisecond)))
	case transcode.StatusSkipped:
		logger.InfoContext(ctx, "skipped file",
			slog.String("progress", progress),
			slog.String("path", res.Path),
			slog.String("split", string(res.Split)),
			slog.String("reason", errorText(res.Err)))
	default:
		err := xerrors.New(res.Err)
		logger.ErrorContext(ctx, "failed to process file",
			slog.String("progress", progress),
			slog.String("path", res.Path),
			slog.String("split", string(res.Split)),
			slog.Int("profiles_written", res.Profiles),
			slog.Any("error", err))
	}

	if d.Recorder == nil {
		return
	}
	if err := d.Recorder.Record(context.WithoutCancel(ctx), res); err != nil {
		err := xerrors.New(err)
		logger.WarnContext(ctx, "failed to record result",
			slog.String("path", res.Path),
			slog.Any("error", err))
	}
}

func (d *Driver) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
