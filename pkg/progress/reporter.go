package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
)

// Options configures the progress reporter.
type Options struct {
	// TotalFiles is the number of files in the run.
	TotalFiles int

	// Workers is the number of parallel workers (for display).
	Workers int

	// Output is where to write progress output.
	// Default: os.Stderr
	Output io.Writer

	// UpdateInterval is how often to redraw the progress line.
	// Default: 500ms
	UpdateInterval time.Duration

	// Target is the site being downloaded (for display).
	Target string
}

// Reporter draws a single, periodically refreshed progress line.
type Reporter struct {
	opts Options

	completed atomic.Int64
	failed    atomic.Int64
	bytes     atomic.Int64

	mu        sync.Mutex
	outMu     sync.Mutex // serialises writes to opts.Output
	startTime time.Time
	stopCh    chan struct{}
	doneCh    chan struct{}
	started   bool
	stopped   bool
}

// NewReporter creates a new progress reporter.
func NewReporter(opts Options) *Reporter {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	if opts.UpdateInterval == 0 {
		opts.UpdateInterval = 500 * time.Millisecond
	}

	return &Reporter{
		opts:   opts,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start prints the header and begins refreshing the progress line.
func (r *Reporter) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return
	}
	r.started = true
	r.startTime = time.Now()

	r.outMu.Lock()
	fmt.Fprintf(r.opts.Output, "[opd] Downloading: %s\n", r.opts.Target)
	fmt.Fprintf(r.opts.Output, "[opd] Files: %d | Workers: %d\n", r.opts.TotalFiles, r.opts.Workers)
	r.outMu.Unlock()

	go r.updateLoop()
}

// Stop prints the final line and stops refreshing. It is safe to call more
// than once and without Start.
func (r *Reporter) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	started := r.started
	r.mu.Unlock()

	close(r.stopCh)
	if started {
		<-r.doneCh
	}
}

// FileCompleted records a successful file of size bytes.
func (r *Reporter) FileCompleted(size int64) {
	r.completed.Add(1)
	r.bytes.Add(size)
}

// FileFailed records a failed file.
func (r *Reporter) FileFailed() {
	r.failed.Add(1)
}

// Message prints line on its own row without tearing the progress line.
func (r *Reporter) Message(line string) {
	r.outMu.Lock()
	defer r.outMu.Unlock()
	fmt.Fprintf(r.opts.Output, "\r%s\033[K\n", line)
}

// Done returns the number of files with a terminal outcome.
func (r *Reporter) Done() int {
	return int(r.completed.Load() + r.failed.Load())
}

func (r *Reporter) updateLoop() {
	defer close(r.doneCh)
	ticker := time.NewTicker(r.opts.UpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			r.printFinalStatus()
			return
		case <-ticker.C:
			r.printProgress()
		}
	}
}

func (r *Reporter) line() string {
	done := r.Done()
	var percent float64
	if r.opts.TotalFiles > 0 {
		percent = float64(done) / float64(r.opts.TotalFiles) * 100
	}
	return fmt.Sprintf("[opd] Progress: %5.1f%% | %d/%d files | %d failed | %s",
		percent,
		done,
		r.opts.TotalFiles,
		r.failed.Load(),
		humanize.Bytes(uint64(r.bytes.Load())),
	)
}

func (r *Reporter) printProgress() {
	r.outMu.Lock()
	defer r.outMu.Unlock()
	fmt.Fprintf(r.opts.Output, "\r%s    ", r.line())
}

func (r *Reporter) printFinalStatus() {
	r.outMu.Lock()
	defer r.outMu.Unlock()
	fmt.Fprintf(r.opts.Output, "\r%s    \n", r.line())
	fmt.Fprintf(r.opts.Output, "[opd] Total time: %s\n", formatDuration(time.Since(r.startTime)))
}

// formatDuration formats a duration as a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm %ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh %dm %ds", h, m, s)
}
