package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Saghetti0/obsidian-publish-downloader/models"
)

// ErrRunNotFound is returned when no run matches an ID or ID prefix.
var ErrRunNotFound = errors.New("run not found")

// RunRecord is one row of the runs table.
type RunRecord struct {
	RunID        string
	PageURL      string
	SiteID       string
	Host         string
	Title        string
	Destination  string
	StartedAt    time.Time
	FinishedAt   sql.NullTime
	Status       string
	Error        string
	TotalCount   int
	SuccessCount int
	FailedCount  int
	Bytes        int64
}

// FailureRecord is one row of the run_failures table.
type FailureRecord struct {
	LogicalPath string
	Kind        string
	StatusCode  int
	Detail      string
}

// StartRun inserts a run in the running state.
func (db *DB) StartRun(runID, pageURL, destination string, startedAt time.Time) error {
	_, err := db.Exec(`
		INSERT INTO runs (run_id, page_url, destination, started_at, status)
		VALUES (?, ?, ?, ?, 'running')
	`, runID, pageURL, destination, startedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// SetRunSite stores the resolved site descriptor of a run.
func (db *DB) SetRunSite(runID string, site models.SiteDescriptor) error {
	_, err := db.Exec(`
		UPDATE runs SET site_id = ?, host = ?, title = ? WHERE run_id = ?
	`, site.SiteID, site.Host, site.Title, runID)
	if err != nil {
		return fmt.Errorf("failed to update run site: %w", err)
	}
	return nil
}

// CompleteRun stores the summary and every failure of a finished run.
func (db *DB) CompleteRun(runID string, summary models.RunSummary, failures []models.DownloadOutcome) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(`
		UPDATE runs
		SET finished_at = ?, status = 'completed', total_count = ?, success_count = ?, failed_count = ?, bytes = ?
		WHERE run_id = ?
	`, time.Now().UTC(), summary.TotalTasks, summary.Succeeded, summary.Failed(), summary.Bytes, runID)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO run_failures (run_id, logical_path, kind, status_code, detail)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare failure insert: %w", err)
	}
	defer stmt.Close()

	for _, f := range failures {
		if _, err := stmt.Exec(runID, f.LogicalPath, f.Kind.String(), f.StatusCode, f.Detail); err != nil {
			return fmt.Errorf("failed to insert failure for %s: %w", f.LogicalPath, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// FailRun marks a run as aborted by a fatal error.
func (db *DB) FailRun(runID string, runErr error) error {
	_, err := db.Exec(`
		UPDATE runs SET finished_at = ?, status = 'failed', error = ? WHERE run_id = ?
	`, time.Now().UTC(), runErr.Error(), runID)
	if err != nil {
		return fmt.Errorf("failed to mark run failed: %w", err)
	}
	return nil
}

const runColumns = `run_id, page_url, COALESCE(site_id, ''), COALESCE(host, ''), COALESCE(title, ''),
	destination, started_at, finished_at, status, COALESCE(error, ''),
	total_count, success_count, failed_count, bytes`

func scanRun(row interface{ Scan(...any) error }) (RunRecord, error) {
	var r RunRecord
	err := row.Scan(&r.RunID, &r.PageURL, &r.SiteID, &r.Host, &r.Title,
		&r.Destination, &r.StartedAt, &r.FinishedAt, &r.Status, &r.Error,
		&r.TotalCount, &r.SuccessCount, &r.FailedCount, &r.Bytes)
	return r, err
}

// ListRuns returns the most recent runs first.
func (db *DB) ListRuns(limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.Query(`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRun looks a run up by full ID or unique ID prefix.
func (db *DB) GetRun(idOrPrefix string) (RunRecord, error) {
	if idOrPrefix == "" {
		return RunRecord{}, fmt.Errorf("%w: empty run ID", ErrRunNotFound)
	}
	rows, err := db.Query(`SELECT `+runColumns+` FROM runs WHERE substr(run_id, 1, length(?)) = ? LIMIT 2`, idOrPrefix, idOrPrefix)
	if err != nil {
		return RunRecord{}, fmt.Errorf("failed to query run: %w", err)
	}
	defer rows.Close()

	var matches []RunRecord
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return RunRecord{}, fmt.Errorf("failed to scan run: %w", err)
		}
		matches = append(matches, r)
	}
	if err := rows.Err(); err != nil {
		return RunRecord{}, err
	}

	switch len(matches) {
	case 0:
		return RunRecord{}, fmt.Errorf("%w: %s", ErrRunNotFound, idOrPrefix)
	case 1:
		return matches[0], nil
	default:
		return RunRecord{}, fmt.Errorf("run ID prefix %q is ambiguous", idOrPrefix)
	}
}

// GetRunFailures returns the failures of a run ordered by logical path.
func (db *DB) GetRunFailures(runID string) ([]FailureRecord, error) {
	rows, err := db.Query(`
		SELECT logical_path, kind, COALESCE(status_code, 0), COALESCE(detail, '')
		FROM run_failures WHERE run_id = ? ORDER BY logical_path
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query failures: %w", err)
	}
	defer rows.Close()

	var failures []FailureRecord
	for rows.Next() {
		var f FailureRecord
		if err := rows.Scan(&f.LogicalPath, &f.Kind, &f.StatusCode, &f.Detail); err != nil {
			return nil, fmt.Errorf("failed to scan failure: %w", err)
		}
		failures = append(failures, f)
	}
	return failures, rows.Err()
}
