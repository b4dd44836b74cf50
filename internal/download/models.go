package download

import (
	"github.com/Saghetti0/obsidian-publish-downloader/models"
)

// Task is one unit of work: fetch one manifest entry to one destination file.
type Task struct {
	LogicalPath string
	Handle      string
	FetchURL    string
	DestPath    string
	PathErr     error // set when the logical path was rejected
}

// Report is what a coordinator run returns.
type Report struct {
	Summary  models.RunSummary        `json:"summary" yaml:"summary"`
	Failures []models.DownloadOutcome `json:"-" yaml:"-"` // sorted by logical path
}

// FailureOutput is the serialisable form of a failed outcome.
type FailureOutput struct {
	Path       string `json:"path" yaml:"path"`
	Kind       string `json:"kind" yaml:"kind"`
	StatusCode int    `json:"status_code,omitempty" yaml:"status_code,omitempty"`
	Detail     string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// FinalOutput is the structured output of a run for --format json|yaml.
type FinalOutput struct {
	RunID    string            `json:"run_id" yaml:"run_id"`
	Site     string            `json:"site" yaml:"site"`
	Host     string            `json:"host" yaml:"host"`
	Output   string            `json:"output" yaml:"output"`
	LogFile  string            `json:"log_file,omitempty" yaml:"log_file,omitempty"`
	Summary  models.RunSummary `json:"summary" yaml:"summary"`
	Failures []FailureOutput   `json:"failures,omitempty" yaml:"failures,omitempty"`
}
