package download

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/Saghetti0/obsidian-publish-downloader/internal/common"
	"github.com/Saghetti0/obsidian-publish-downloader/models"
	"github.com/Saghetti0/obsidian-publish-downloader/pkg/db"
	"github.com/Saghetti0/obsidian-publish-downloader/pkg/fetcher"
	"github.com/Saghetti0/obsidian-publish-downloader/pkg/manifest"
	"github.com/Saghetti0/obsidian-publish-downloader/pkg/progress"
	"github.com/Saghetti0/obsidian-publish-downloader/pkg/runlog"
	"github.com/Saghetti0/obsidian-publish-downloader/pkg/siteinfo"
	"github.com/Saghetti0/obsidian-publish-downloader/pkg/storage"
	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

// Exit codes
const (
	ExitSuccess    = 0
	ExitFatal      = 1
	ExitUsage      = 2
	ExitDescriptor = 3
	ExitManifest   = 4
)

var (
	ErrUsage           = errors.New("usage error")
	ErrPageUnavailable = errors.New("page unavailable")
)

// Options describes one download run.
type Options struct {
	PageURL     string
	Destination string
	LogFile     string // empty means <LogDir>/download-<timestamp>.log
	Format      string // text, yaml or json
	Quiet       bool
	Config      models.DownloadConfig
}

func DownloadAction(c *cli.Context) error {
	logLevel := slog.LevelInfo
	if c.Bool("quiet") {
		logLevel = slog.LevelError
	} else if c.Bool("verbose") {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	if c.NArg() < 2 {
		fmt.Fprintf(c.App.ErrWriter, "Usage: %s download [options] URL FOLDER\n", c.App.Name)
		return cli.Exit("Error: URL and FOLDER are required", ExitUsage)
	}

	cfg, err := models.LoadConfig(c.String("config"), !c.IsSet("config"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), ExitUsage)
	}
	applyFlags(c, cfg)

	opts := Options{
		PageURL:     c.Args().Get(0),
		Destination: c.Args().Get(1),
		LogFile:     c.String("log-file"),
		Format:      c.String("format"),
		Quiet:       c.Bool("quiet"),
		Config:      cfg.WithDefaults(),
	}

	var database *db.DB
	if !opts.Config.NoHistory {
		database, err = openHistory(opts.Config.DBPath)
		if err != nil {
			logger.Warn("Run history disabled", "error", err)
		} else {
			defer database.Close()
		}
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := Run(ctx, logger, opts, database, c.App.Writer, c.App.ErrWriter); err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), ExitCode(err))
	}
	return nil
}

// applyFlags overrides file configuration with flags set on the command line.
func applyFlags(c *cli.Context, cfg *models.DownloadConfig) {
	if c.IsSet("workers") {
		cfg.WorkerCount = c.Int("workers")
	}
	if c.IsSet("chunk-size") {
		cfg.ChunkSize = c.Int("chunk-size")
	}
	if c.IsSet("timeout") {
		cfg.TaskTimeout = c.Duration("timeout")
	}
	if c.IsSet("scheme") {
		cfg.Scheme = c.String("scheme")
	}
	if c.IsSet("user-agent") {
		cfg.UserAgent = c.String("user-agent")
	}
	if c.IsSet("log-dir") {
		cfg.LogDir = c.String("log-dir")
	}
	if c.IsSet("db") {
		cfg.DBPath = c.String("db")
	}
	if c.Bool("no-history") {
		cfg.NoHistory = true
	}
}

func openHistory(path string) (*db.DB, error) {
	if path == "" {
		return db.Open()
	}
	return db.OpenPath(path)
}

// ExitCode maps a run error to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, ErrUsage):
		return ExitUsage
	case errors.Is(err, ErrPageUnavailable),
		errors.Is(err, siteinfo.ErrDescriptorNotFound),
		errors.Is(err, siteinfo.ErrDescriptorMalformed):
		return ExitDescriptor
	case errors.Is(err, manifest.ErrManifestUnavailable),
		errors.Is(err, manifest.ErrManifestMalformed):
		return ExitManifest
	default:
		return ExitFatal
	}
}

// Run resolves the site, fetches its manifest and downloads every asset.
// Per-file failures never make Run fail; only errors that prevent the batch
// from starting are returned. database may be nil.
func Run(ctx context.Context, logger *slog.Logger, opts Options, database *db.DB, stdout, stderr io.Writer) (*FinalOutput, error) {
	cfg := opts.Config.WithDefaults()

	pageURL, err := common.ValidatePageURL(opts.PageURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if strings.TrimSpace(opts.Destination) == "" {
		return nil, fmt.Errorf("%w: destination folder is required", ErrUsage)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	format := strings.ToLower(opts.Format)
	switch format {
	case "", "text", "yaml", "json":
	default:
		return nil, fmt.Errorf("%w: unknown format %q", ErrUsage, opts.Format)
	}

	runID := uuid.New().String()
	startTime := time.Now()

	logPath := opts.LogFile
	if logPath == "" {
		logPath = filepath.Join(cfg.LogDir, runlog.DefaultName(startTime))
	}
	logWriter, err := runlog.Open(logPath, pageURL)
	if err != nil {
		return nil, err
	}

	if database != nil {
		if err := database.StartRun(runID, pageURL, opts.Destination, startTime); err != nil {
			logger.Warn("Failed to record run start", "run_id", runID, "error", err)
			database = nil
		}
	}

	fail := func(err error) (*FinalOutput, error) {
		logWriter.Fatal(err)
		if closeErr := logWriter.Close(); closeErr != nil {
			logger.Warn("Failed to write log file", "path", logPath, "error", closeErr)
		}
		if database != nil {
			if dbErr := database.FailRun(runID, err); dbErr != nil {
				logger.Warn("Failed to record run failure", "run_id", runID, "error", dbErr)
			}
		}
		return nil, err
	}

	f := fetcher.NewFetcher(cfg.TaskTimeout, cfg.UserAgent)

	logger.Info("Fetching page", "run_id", runID, "url", pageURL)
	html, err := f.GetHtmlBytes(ctx, pageURL)
	if err != nil {
		return fail(fmt.Errorf("%w: %v", ErrPageUnavailable, err))
	}

	site, err := siteinfo.Resolve(html)
	if err != nil {
		return fail(fmt.Errorf("unable to extract site info: %w", err))
	}
	logWriter.Site(site)
	if database != nil {
		if err := database.SetRunSite(runID, site); err != nil {
			logger.Warn("Failed to record run site", "run_id", runID, "error", err)
		}
	}
	logger.Info("Resolved site", "site_id", site.SiteID, "host", site.Host, "title", site.Title)

	m, err := manifest.Fetch(ctx, f, cfg.Scheme, site)
	if err != nil {
		return fail(err)
	}
	logger.Info("Fetched manifest", "file_count", len(m))

	st := &storage.Storage{ChunkSize: cfg.ChunkSize}
	if err := st.EnsureDir(opts.Destination); err != nil {
		return fail(err)
	}

	var reporter *progress.Reporter
	if !opts.Quiet {
		reporter = progress.NewReporter(progress.Options{
			TotalFiles: len(m),
			Workers:    cfg.WorkerCount,
			Output:     stderr,
			Target:     pageURL,
		})
		reporter.Start()
	}

	coordinator := &Coordinator{
		Fetcher:     f,
		Storage:     st,
		Logger:      logger,
		Scheme:      cfg.Scheme,
		Workers:     cfg.WorkerCount,
		TaskTimeout: cfg.TaskTimeout,
		OnOutcome: func(o models.DownloadOutcome) {
			if o.Success {
				if reporter != nil {
					reporter.FileCompleted(o.Bytes)
				}
				return
			}
			if reporter != nil {
				reporter.Message(runlog.FailureLine(o))
				reporter.FileFailed()
				return
			}
			fmt.Fprintln(stderr, runlog.FailureLine(o))
		},
	}
	report := coordinator.Run(ctx, site, m, opts.Destination)
	if reporter != nil {
		reporter.Stop()
	}

	for _, o := range report.Failures {
		logWriter.Failure(o)
	}
	logWriter.Summary(report.Summary)
	if err := logWriter.Close(); err != nil {
		// Downloads already on disk stay valid.
		logger.Warn("Failed to write log file", "path", logPath, "error", err)
		fmt.Fprintf(stderr, "Warning: could not write log file %s: %v\n", logPath, err)
	}

	if database != nil {
		if err := database.CompleteRun(runID, report.Summary, report.Failures); err != nil {
			logger.Warn("Failed to record run result", "run_id", runID, "error", err)
		}
	}

	out := BuildOutput(runID, site, opts.Destination, logPath, report)
	if err := WriteOutput(stdout, format, out); err != nil {
		logger.Error("failed to write summary", "error", err)
	}
	logger.Info("Run finished", "run_id", runID, "duration", time.Since(startTime).String())
	if err := ctx.Err(); err != nil {
		return out, fmt.Errorf("run interrupted: %w", err)
	}
	return out, nil
}

// BuildOutput converts a coordinator report into its printable form.
func BuildOutput(runID string, site models.SiteDescriptor, destination, logPath string, report *Report) *FinalOutput {
	out := &FinalOutput{
		RunID:   runID,
		Site:    site.SiteID,
		Host:    site.Host,
		Output:  destination,
		LogFile: logPath,
		Summary: report.Summary,
	}
	for _, o := range report.Failures {
		out.Failures = append(out.Failures, FailureOutput{
			Path:       o.LogicalPath,
			Kind:       o.Kind.String(),
			StatusCode: o.StatusCode,
			Detail:     o.Detail,
		})
	}
	return out
}

// WriteOutput prints the end-of-run summary in the requested format.
func WriteOutput(w io.Writer, format string, out *FinalOutput) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return err
		}
		return enc.Close()
	default:
		if _, err := fmt.Fprintln(w, runlog.String(out.Summary)); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, "\nFiles saved to: %s\nLog: %s\nRun: %s\n", out.Output, out.LogFile, out.RunID)
		return err
	}
}
