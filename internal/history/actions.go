package history

import (
	"fmt"
	"io"
	"strings"
	"time"

	dbpkg "github.com/Saghetti0/obsidian-publish-downloader/pkg/db"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"
)

func openDB(c *cli.Context) (*dbpkg.DB, error) {
	var (
		database *dbpkg.DB
		err      error
	)
	if path := c.String("db"); path != "" {
		database, err = dbpkg.OpenPath(path)
	} else {
		database, err = dbpkg.Open()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return database, nil
}

func ListAction(c *cli.Context) error {
	database, err := openDB(c)
	if err != nil {
		return err
	}
	defer database.Close()

	runs, err := database.ListRuns(c.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	PrintRuns(c.App.Writer, c.App.Name, runs)
	return nil
}

// ShowAction shows details for a specific run
func ShowAction(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("Error: RUN_ID is required", 2)
	}

	database, err := openDB(c)
	if err != nil {
		return err
	}
	defer database.Close()

	run, err := database.GetRun(c.Args().First())
	if err != nil {
		return fmt.Errorf("failed to get run: %w", err)
	}
	failures, err := database.GetRunFailures(run.RunID)
	if err != nil {
		return fmt.Errorf("failed to get run failures: %w", err)
	}
	PrintRun(c.App.Writer, run, failures)
	return nil
}

// PrintRuns writes the run table, newest first.
func PrintRuns(w io.Writer, appName string, runs []dbpkg.RunRecord) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs found")
		return
	}

	fmt.Fprintf(w, "%-10s %-20s %-10s %-7s %-7s %-7s %-10s %s\n",
		"Run", "Started", "Status", "Files", "OK", "Failed", "Size", "URL")
	fmt.Fprintln(w, strings.Repeat("-", 110))

	for _, r := range runs {
		fmt.Fprintf(w, "%-10s %-20s %-10s %-7d %-7d %-7d %-10s %s\n",
			shortID(r.RunID),
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Status,
			r.TotalCount,
			r.SuccessCount,
			r.FailedCount,
			humanize.Bytes(uint64(r.Bytes)),
			r.PageURL,
		)
	}

	fmt.Fprintf(w, "\nTotal: %d runs\n", len(runs))
	fmt.Fprintf(w, "\nTip: Use '%s history show <run>' to see failed files\n", appName)
}

// PrintRun writes one run with its failed files.
func PrintRun(w io.Writer, r dbpkg.RunRecord, failures []dbpkg.FailureRecord) {
	fmt.Fprintf(w, "Run %s\n", r.RunID)
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintf(w, "URL:         %s\n", r.PageURL)
	if r.SiteID != "" {
		fmt.Fprintf(w, "Site:        %s (%s)\n", r.SiteID, r.Host)
	}
	if r.Title != "" {
		fmt.Fprintf(w, "Title:       %s\n", r.Title)
	}
	fmt.Fprintf(w, "Destination: %s\n", r.Destination)
	fmt.Fprintf(w, "Started:     %s\n", r.StartedAt.Local().Format("2006-01-02 15:04:05"))
	if r.FinishedAt.Valid {
		fmt.Fprintf(w, "Finished:    %s (%s)\n",
			r.FinishedAt.Time.Local().Format("2006-01-02 15:04:05"),
			r.FinishedAt.Time.Sub(r.StartedAt).Round(time.Millisecond))
	}
	fmt.Fprintf(w, "Status:      %s\n", r.Status)
	if r.Error != "" {
		fmt.Fprintf(w, "Error:       %s\n", r.Error)
	}
	fmt.Fprintf(w, "Files:       %d total (%d succeeded, %d failed), %s\n",
		r.TotalCount, r.SuccessCount, r.FailedCount, humanize.Bytes(uint64(r.Bytes)))

	if len(failures) == 0 {
		return
	}
	fmt.Fprintf(w, "\nFailures (%d):\n", len(failures))
	fmt.Fprintln(w, strings.Repeat("-", 60))
	for i, f := range failures {
		if f.StatusCode != 0 {
			fmt.Fprintf(w, "%2d. [%s] %s: %d %s\n", i+1, f.Kind, f.LogicalPath, f.StatusCode, f.Detail)
		} else {
			fmt.Fprintf(w, "%2d. [%s] %s: %s\n", i+1, f.Kind, f.LogicalPath, f.Detail)
		}
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
