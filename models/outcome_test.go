package models

import (
	"math/rand"
	"testing"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		code int
		want FailureKind
	}{
		{404, FailureNotFound},
		{403, FailureForbidden},
		{429, FailureRateLimited},
		{500, FailureServerError},
		{503, FailureServerError},
		{599, FailureServerError},
		{400, FailureOther},
		{401, FailureOther},
		{302, FailureOther},
		{600, FailureOther},
	}

	for _, tt := range tests {
		if got := ClassifyStatus(tt.code); got != tt.want {
			t.Errorf("ClassifyStatus(%d) = %s, want %s", tt.code, got, tt.want)
		}
	}
}

func sampleOutcomes() []DownloadOutcome {
	return []DownloadOutcome{
		{LogicalPath: "a.md", Success: true, Bytes: 10},
		{LogicalPath: "b.md", Kind: FailureNotFound, StatusCode: 404},
		{LogicalPath: "c.md", Success: true, Bytes: 5},
		{LogicalPath: "d.md", Kind: FailureServerError, StatusCode: 502},
		{LogicalPath: "e.md", Kind: FailureNotFound, StatusCode: 404},
		{LogicalPath: "f.md", Kind: FailureInvalidPath},
		{LogicalPath: "g.md"}, // failure with no kind counts as Other
	}
}

func TestRunSummaryAddCountsEveryOutcome(t *testing.T) {
	outcomes := sampleOutcomes()

	var s RunSummary
	for _, o := range outcomes {
		s.Add(o)
	}

	if s.TotalTasks != len(outcomes) {
		t.Fatalf("TotalTasks = %d, want %d", s.TotalTasks, len(outcomes))
	}
	if s.Succeeded+s.Failed() != s.TotalTasks {
		t.Errorf("succeeded (%d) + failed (%d) != total (%d)", s.Succeeded, s.Failed(), s.TotalTasks)
	}
	if s.Succeeded != 2 {
		t.Errorf("Succeeded = %d, want 2", s.Succeeded)
	}
	if s.Bytes != 15 {
		t.Errorf("Bytes = %d, want 15", s.Bytes)
	}
	want := map[FailureKind]int{
		FailureNotFound:    2,
		FailureServerError: 1,
		FailureInvalidPath: 1,
		FailureOther:       1,
	}
	for k, n := range want {
		if s.FailedByKind[k] != n {
			t.Errorf("FailedByKind[%s] = %d, want %d", k, s.FailedByKind[k], n)
		}
	}
}

func TestRunSummaryIsOrderIndependent(t *testing.T) {
	outcomes := sampleOutcomes()

	var want RunSummary
	for _, o := range outcomes {
		want.Add(o)
	}

	r := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		shuffled := append([]DownloadOutcome(nil), outcomes...)
		r.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		var left RunSummary
		for _, o := range shuffled {
			left.Add(o)
		}

		if left.TotalTasks != want.TotalTasks || left.Succeeded != want.Succeeded || left.Bytes != want.Bytes {
			t.Fatalf("iteration %d: got %+v, want %+v", i, left, want)
		}
		for _, k := range FailureKinds {
			if left.FailedByKind[k] != want.FailedByKind[k] {
				t.Fatalf("iteration %d: kind %s got %d, want %d", i, k, left.FailedByKind[k], want.FailedByKind[k])
			}
		}
	}
}

func TestFailureKindString(t *testing.T) {
	for _, k := range FailureKinds {
		text, err := k.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%d): %v", k, err)
		}
		if string(text) != k.String() {
			t.Errorf("MarshalText = %q, String = %q", text, k.String())
		}
	}
	if got := FailureKind(42).String(); got != "FailureKind(42)" {
		t.Errorf("unknown kind String() = %q", got)
	}
}
