package db

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA foreign_keys = ON;

-- Runs: one row per invocation of the download command
CREATE TABLE IF NOT EXISTS runs (
    run_id TEXT PRIMARY KEY,
    page_url TEXT NOT NULL,
    site_id TEXT,
    host TEXT,
    title TEXT,
    destination TEXT NOT NULL,
    started_at TIMESTAMP NOT NULL,
    finished_at TIMESTAMP,
    status TEXT NOT NULL DEFAULT 'running', -- running, completed, failed
    error TEXT,
    total_count INTEGER DEFAULT 0,
    success_count INTEGER DEFAULT 0,
    failed_count INTEGER DEFAULT 0,
    bytes INTEGER DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
CREATE INDEX IF NOT EXISTS idx_runs_site ON runs(site_id);

-- Run failures: one row per failed file
CREATE TABLE IF NOT EXISTS run_failures (
    failure_id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL,
    logical_path TEXT NOT NULL,
    kind TEXT NOT NULL,          -- NotFound, Forbidden, ServerError, RateLimited, InvalidPath, Other
    status_code INTEGER,         -- 0 for transport and filesystem errors
    detail TEXT,
    FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_failures_run ON run_failures(run_id);
CREATE INDEX IF NOT EXISTS idx_failures_kind ON run_failures(kind);
`
