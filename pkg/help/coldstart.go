package help

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

const ColdstartYAML = `# opd Quick Start

commands:
  basic_download: |
    opd https://publish.obsidian.md/my-garden ./garden

  tuned_download: |
    opd download -w 8 --timeout 30s --log-dir ./logs https://publish.obsidian.md/my-garden ./garden

  machine_readable: |
    opd download -q --format json https://publish.obsidian.md/my-garden ./garden

  list_runs: |
    opd history --limit 10

  run_details: |
    opd history show 6f1c1a52

config_file:
  path: "opd.yaml in the working directory, or --config FILE"
  keys:
    workers: "parallel downloads (default 4)"
    chunk_size: "bytes per write (default 1048576)"
    task_timeout: "per-file deadline, e.g. 30s (default none)"
    scheme: "https or http"
    user_agent: "User-Agent header"
    log_dir: "directory for download-<timestamp>.log"
    db_path: "run history database"
    no_history: "true to skip recording runs"

output:
  files: "FOLDER/<logical path> for every entry in the site's file list"
  log: "download-<timestamp>.log with one line per failed file and a summary"
  summary: "printed to stdout as text, yaml or json"

path_rules:
  - "'..' and '.' segments are rejected as InvalidPath"
  - "characters < > : \" \\ | ? * and control characters become _"
  - "nothing is ever written outside FOLDER"

failure_kinds:
  NotFound: "HTTP 404"
  Forbidden: "HTTP 403"
  RateLimited: "HTTP 429"
  ServerError: "HTTP 5xx"
  InvalidPath: "logical path rejected before fetching"
  Other: "any other status, network error, timeout, cancellation or write error"

error_behavior:
  - "One failed file never stops the others"
  - "Exit codes: 0=run completed (even with failed files), 1=fatal or interrupted, 2=usage, 3=site page or descriptor, 4=file list"
`

// Coldstart returns the quick start document after checking that it parses.
func Coldstart() (string, error) {
	var doc map[string]any
	if err := yaml.Unmarshal([]byte(ColdstartYAML), &doc); err != nil {
		return "", fmt.Errorf("quick start document is invalid: %w", err)
	}
	return ColdstartYAML, nil
}
