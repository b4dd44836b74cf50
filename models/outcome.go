package models

import (
	"fmt"
	"net/http"
)

// FailureKind classifies why a single download did not complete.
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureNotFound
	FailureForbidden
	FailureServerError
	FailureRateLimited
	FailureInvalidPath
	FailureOther
)

// FailureKinds lists every failure kind in report order.
var FailureKinds = []FailureKind{
	FailureNotFound,
	FailureForbidden,
	FailureServerError,
	FailureRateLimited,
	FailureInvalidPath,
	FailureOther,
}

func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "None"
	case FailureNotFound:
		return "NotFound"
	case FailureForbidden:
		return "Forbidden"
	case FailureServerError:
		return "ServerError"
	case FailureRateLimited:
		return "RateLimited"
	case FailureInvalidPath:
		return "InvalidPath"
	case FailureOther:
		return "Other"
	default:
		return fmt.Sprintf("FailureKind(%d)", int(k))
	}
}

// MarshalText lets kinds be used as YAML and JSON map keys.
func (k FailureKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// ClassifyStatus maps a non-success HTTP status code to a failure kind.
func ClassifyStatus(code int) FailureKind {
	switch {
	case code == http.StatusNotFound:
		return FailureNotFound
	case code == http.StatusForbidden:
		return FailureForbidden
	case code == http.StatusTooManyRequests:
		return FailureRateLimited
	case code >= 500 && code <= 599:
		return FailureServerError
	default:
		return FailureOther
	}
}

// DownloadOutcome is the terminal result of one download task.
type DownloadOutcome struct {
	LogicalPath string
	Success     bool
	Kind        FailureKind
	StatusCode  int    // 0 when no HTTP response was received
	Detail      string // reason phrase or error text
	Bytes       int64
}

// RunSummary aggregates outcomes. Add is associative and order independent.
type RunSummary struct {
	TotalTasks   int                 `json:"total" yaml:"total"`
	Succeeded    int                 `json:"succeeded" yaml:"succeeded"`
	FailedByKind map[FailureKind]int `json:"failed_by_kind,omitempty" yaml:"failed_by_kind,omitempty"`
	Bytes        int64               `json:"bytes" yaml:"bytes"`
}

// Add folds one outcome into the summary.
func (s *RunSummary) Add(o DownloadOutcome) {
	s.TotalTasks++
	if o.Success {
		s.Succeeded++
		s.Bytes += o.Bytes
		return
	}
	if s.FailedByKind == nil {
		s.FailedByKind = make(map[FailureKind]int)
	}
	kind := o.Kind
	if kind == FailureNone {
		kind = FailureOther
	}
	s.FailedByKind[kind]++
}

// Failed returns the number of failed tasks across all kinds.
func (s RunSummary) Failed() int {
	n := 0
	for _, c := range s.FailedByKind {
		n += c
	}
	return n
}
