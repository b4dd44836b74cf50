// Package runlog writes the plain-text log of a download run. A single
// goroutine owns the file; callers only send lines to it.
package runlog

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Saghetti0/obsidian-publish-downloader/models"
	"github.com/dustin/go-humanize"
)

// DefaultName returns the log file name for a run started at t.
func DefaultName(t time.Time) string {
	return fmt.Sprintf("download-%s.log", t.Format("2006-01-02T15-04-05"))
}

type Writer struct {
	path  string
	lines chan string
	done  chan struct{}
	err   error // first write error, owned by the writer goroutine until done closes

	closeOnce sync.Once
}

// Open truncates or creates the log at path and writes a header naming the
// run's target.
func Open(path, target string) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	w := &Writer{
		path:  path,
		lines: make(chan string, 64),
		done:  make(chan struct{}),
	}
	go w.loop(f)

	w.send(fmt.Sprintf("Downloading: %s", target))
	w.send(fmt.Sprintf("Started: %s", time.Now().Format(time.RFC3339)))
	w.send("")
	return w, nil
}

func (w *Writer) loop(f *os.File) {
	defer close(w.done)

	bw := bufio.NewWriter(f)
	for line := range w.lines {
		if w.err != nil {
			continue
		}
		if _, err := bw.WriteString(line + "\n"); err != nil {
			w.err = fmt.Errorf("failed to write log: %w", err)
		}
	}
	w.err = errors.Join(w.err, bw.Flush(), f.Close())
}

func (w *Writer) send(line string) {
	w.lines <- line
}

// Path returns the log file location.
func (w *Writer) Path() string {
	return w.path
}

// Site records the resolved site descriptor.
func (w *Writer) Site(site models.SiteDescriptor) {
	w.send(fmt.Sprintf("Site: %s on %s", site.SiteID, site.Host))
	if site.Title != "" {
		w.send(fmt.Sprintf("Title: %s", site.Title))
	}
}

// Failure appends the detail line for one failed download.
func (w *Writer) Failure(o models.DownloadOutcome) {
	w.send(FailureLine(o))
}

// Fatal records an error that aborted the run.
func (w *Writer) Fatal(err error) {
	w.send(fmt.Sprintf("Fatal: %v", err))
}

// Summary appends the human-readable summary block.
func (w *Writer) Summary(s models.RunSummary) {
	w.send("")
	for _, line := range SummaryLines(s) {
		w.send(line)
	}
}

// Close flushes pending lines and closes the file. It returns the first
// error encountered while writing.
func (w *Writer) Close() error {
	w.closeOnce.Do(func() { close(w.lines) })
	<-w.done
	return w.err
}

// FailureLine formats the log line for a failed outcome.
func FailureLine(o models.DownloadOutcome) string {
	if o.StatusCode != 0 {
		return fmt.Sprintf("Error downloading: %s: %d %s", o.LogicalPath, o.StatusCode, o.Detail)
	}
	return fmt.Sprintf("Error downloading: %s: %s: %s", o.LogicalPath, o.Kind, o.Detail)
}

// SummaryLines renders a summary with kinds in a fixed order.
func SummaryLines(s models.RunSummary) []string {
	lines := []string{
		"Summary",
		fmt.Sprintf("  Total:       %d", s.TotalTasks),
		fmt.Sprintf("  Succeeded:   %d (%s)", s.Succeeded, humanize.Bytes(uint64(s.Bytes))),
		fmt.Sprintf("  Failed:      %d", s.Failed()),
	}
	for _, k := range models.FailureKinds {
		if n := s.FailedByKind[k]; n > 0 {
			label := k.String() + ":"
			lines = append(lines, fmt.Sprintf("    %-12s %d", label, n))
		}
	}
	return lines
}

// String renders the summary block as one string.
func String(s models.RunSummary) string {
	return strings.Join(SummaryLines(s), "\n")
}
