package ingestion

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// ProgressTracker reports loader progress as rows are read. The number of
// rows is not known up front, so it reports counts and throughput rather
// than a percentage.
type ProgressTracker struct {
	writer         io.Writer
	reportInterval int
	rows           int
	saved          int
	skipped        int
	failed         int
	startTime      time.Time
	started        bool
	mu             sync.Mutex
}

// NewProgressTracker creates a new progress tracker.
// writer: where to write progress output (typically os.Stderr)
// reportInterval: report progress every N rows
func NewProgressTracker(writer io.Writer, reportInterval int) *ProgressTracker {
	if reportInterval < 1 {
		reportInterval = 1
	}
	return &ProgressTracker{
		writer:         writer,
		reportInterval: reportInterval,
	}
}

// Start begins tracking progress.
func (p *ProgressTracker) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.startTime = time.Now()
	p.started = true
	p.rows, p.saved, p.skipped, p.failed = 0, 0, 0, 0
}

// Saved records a row that was stored.
func (p *ProgressTracker) Saved() {
	p.row(func() { p.saved++ })
}

// Skipped records a row that was rejected as unusable.
func (p *ProgressTracker) Skipped() {
	p.row(func() { p.skipped++ })
}

// Failed records a row whose processing failed.
func (p *ProgressTracker) Failed() {
	p.row(func() { p.failed++ })
}

func (p *ProgressTracker) row(count func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}
	p.rows++
	count()
	if p.rows%p.reportInterval == 0 {
		p.report()
	}
}

// Finish prints the final counts.
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}
	p.report()
	fmt.Fprintln(p.writer)
}

// Elapsed returns the time elapsed since Start was called.
func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return 0
	}
	return time.Since(p.startTime)
}

// report prints the current progress. Must be called with lock held.
func (p *ProgressTracker) report() {
	rate := 0.0
	if elapsed := time.Since(p.startTime).Seconds(); elapsed > 0 {
		rate = float64(p.rows) / elapsed
	}
	fmt.Fprintf(p.writer, "\rProcessed %d rows (saved %d, skipped %d, failed %d) - %.1f rows/s",
		p.rows, p.saved, p.skipped, p.failed, rate)
}
