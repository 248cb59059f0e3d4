package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/tphakala/spectroset/internal/dataset"
	"github.com/tphakala/spectroset/internal/transcode"
)

// SplitCounts tallies outcomes within one split.
type SplitCounts struct {
	Assigned  int
	Processed int
	Skipped   int
	Failed    int
}

// Report aggregates the outcome of a run. It is filled by the collector
// goroutine only and is read after Run returns.
type Report struct {
	Discovered int
	Processed  int
	Skipped    int
	Failed     int

	// Bytes is the total size of the images and labels written.
	Bytes int64

	PerSplit map[dataset.SplitName]*SplitCounts

	// Failures lists the paths that failed, in completion order.
	Failures []string

	// Interrupted is set when the run stopped dispatching before the end.
	Interrupted bool

	Elapsed time.Duration
}

func newReport(a dataset.Assignment) *Report {
	r := &Report{
		Discovered: a.Len(),
		PerSplit:   make(map[dataset.SplitName]*SplitCounts, len(a.Splits())),
	}
	for _, s := range a.Splits() {
		r.PerSplit[s.Name] = &SplitCounts{Assigned: len(s.Files)}
	}
	return r
}

func (r *Report) add(res transcode.Result) {
	counts := r.PerSplit[res.Split]
	if counts == nil {
		counts = &SplitCounts{}
		r.PerSplit[res.Split] = counts
	}

	r.Bytes += res.Bytes
	switch res.Status {
	case transcode.StatusProcessed:
		r.Processed++
		counts.Processed++
	case transcode.StatusSkipped:
		r.Skipped++
		counts.Skipped++
	default:
		r.Failed++
		counts.Failed++
		r.Failures = append(r.Failures, res.Path)
	}
}

// Handled returns the number of files that reached the collector.
func (r *Report) Handled() int {
	return r.Processed + r.Skipped + r.Failed
}

// String returns a multi-line human-readable summary.
func (r *Report) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "discovered %d, processed %d, skipped %d, failed %d, wrote %s in %s",
		r.Discovered, r.Processed, r.Skipped, r.Failed,
		humanize.Bytes(uint64(max(r.Bytes, 0))), r.Elapsed.Round(time.Millisecond))
	if r.Interrupted {
		fmt.Fprintf(&sb, " (interrupted after %d files)", r.Handled())
	}
	for _, name := range []dataset.SplitName{dataset.Train, dataset.Val, dataset.Test} {
		c := r.PerSplit[name]
		if c == nil {
			continue
		}
		fmt.Fprintf(&sb, "\n  %-5s assigned %d, processed %d, skipped %d, failed %d",
			name, c.Assigned, c.Processed, c.Skipped, c.Failed)
	}
	return sb.String()
}
