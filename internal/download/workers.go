package download

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Saghetti0/obsidian-publish-downloader/models"
	"github.com/Saghetti0/obsidian-publish-downloader/pkg/fetcher"
	"github.com/Saghetti0/obsidian-publish-downloader/pkg/pathsafe"
	"github.com/Saghetti0/obsidian-publish-downloader/pkg/storage"
)

// Coordinator fetches every asset of a manifest with a bounded worker pool.
type Coordinator struct {
	Fetcher *fetcher.Fetcher
	Storage *storage.Storage
	Logger  *slog.Logger

	Scheme      string
	Workers     int
	TaskTimeout time.Duration // 0 means no per-task deadline

	// OnOutcome is called for every outcome as it arrives, from a single
	// goroutine. It may be nil.
	OnOutcome func(models.DownloadOutcome)
}

// BuildTasks pairs each manifest entry with its fetch URL and destination.
// Entries whose logical path is rejected keep their PathErr and are still
// returned so that they produce an outcome. Two entries never share a
// destination: when sanitizing maps a path onto one already taken, the later
// entry in manifest order is rejected.
func BuildTasks(site models.SiteDescriptor, scheme string, m models.Manifest, destRoot string) []Task {
	tasks := make([]Task, 0, len(m))
	claimed := make(map[string]string, len(m)) // destination -> logical path
	for _, e := range m {
		t := Task{
			LogicalPath: e.LogicalPath,
			Handle:      e.Handle,
		}
		dest, err := pathsafe.Join(destRoot, e.LogicalPath)
		switch {
		case err != nil:
			t.PathErr = err
		case claimed[dest] != "":
			t.PathErr = fmt.Errorf("%w: %q collides with %q", pathsafe.ErrInvalidPath, e.LogicalPath, claimed[dest])
		default:
			claimed[dest] = e.LogicalPath
			t.DestPath = dest
			t.FetchURL = site.AccessURL(scheme, e.LogicalPath)
		}
		tasks = append(tasks, t)
	}
	return tasks
}

// Run downloads every manifest entry under destRoot and returns the summary
// together with the failures sorted by logical path. Exactly one outcome is
// produced per entry, including when ctx is cancelled mid-run.
func (c *Coordinator) Run(ctx context.Context, site models.SiteDescriptor, m models.Manifest, destRoot string) *Report {
	tasks := BuildTasks(site, c.scheme(), m, destRoot)

	workerCount := c.Workers
	if workerCount < 1 {
		workerCount = models.DefaultWorkerCount
	}
	if workerCount > len(tasks) && len(tasks) > 0 {
		workerCount = len(tasks)
	}

	c.logger().Info("Starting concurrent download phase", "file_count", len(tasks), "workers", workerCount, "destination", destRoot)

	var wg sync.WaitGroup
	jobs := make(chan Task, len(tasks))
	results := make(chan models.DownloadOutcome, len(tasks))

	for w := 1; w <= workerCount; w++ {
		wg.Add(1)
		go c.worker(ctx, w, &wg, jobs, results)
	}

	for _, t := range tasks {
		jobs <- t
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	report := &Report{}
	for o := range results {
		report.Summary.Add(o)
		if !o.Success {
			report.Failures = append(report.Failures, o)
		}
		if c.OnOutcome != nil {
			c.OnOutcome(o)
		}
	}
	sort.Slice(report.Failures, func(i, j int) bool {
		return report.Failures[i].LogicalPath < report.Failures[j].LogicalPath
	})

	c.logger().Info("All download workers finished", "succeeded", report.Summary.Succeeded, "failed", report.Summary.Failed())
	return report
}

func (c *Coordinator) worker(ctx context.Context, id int, wg *sync.WaitGroup, jobs <-chan Task, results chan<- models.DownloadOutcome) {
	defer wg.Done()
	for task := range jobs {
		c.logger().Debug("Worker started task", "worker_id", id, "path", task.LogicalPath, "handle", task.Handle)
		results <- c.execute(ctx, task)
	}
}

// execute performs one task and always returns its outcome.
func (c *Coordinator) execute(ctx context.Context, task Task) models.DownloadOutcome {
	outcome := models.DownloadOutcome{LogicalPath: task.LogicalPath}

	if task.PathErr != nil {
		outcome.Kind = models.FailureInvalidPath
		outcome.Detail = task.PathErr.Error()
		return outcome
	}
	if err := ctx.Err(); err != nil {
		outcome.Kind = models.FailureOther
		outcome.Detail = fmt.Sprintf("canceled: %v", err)
		return outcome
	}

	if c.TaskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.TaskTimeout)
		defer cancel()
	}

	body, err := c.Fetcher.Open(ctx, task.FetchURL)
	if err != nil {
		var se *fetcher.StatusError
		if errors.As(err, &se) {
			outcome.Kind = models.ClassifyStatus(se.Code)
			outcome.StatusCode = se.Code
			outcome.Detail = se.Status
		} else {
			outcome.Kind = models.FailureOther
			outcome.Detail = err.Error()
		}
		return outcome
	}
	defer body.Close()

	written, err := c.Storage.WriteStream(task.DestPath, body)
	if err != nil {
		outcome.Kind = models.FailureOther
		outcome.Detail = err.Error()
		outcome.Bytes = written
		return outcome
	}

	outcome.Success = true
	outcome.Bytes = written
	return outcome
}

func (c *Coordinator) scheme() string {
	if c.Scheme == "" {
		return models.DefaultScheme
	}
	return c.Scheme
}

func (c *Coordinator) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}
