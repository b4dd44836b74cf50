package models

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `workers: 8
chunk_size: 4096
task_timeout: 30s
scheme: http
log_dir: logs
no_history: true
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path, false)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.WorkerCount != 8 {
		t.Errorf("WorkerCount = %d, want 8", cfg.WorkerCount)
	}
	if cfg.ChunkSize != 4096 {
		t.Errorf("ChunkSize = %d, want 4096", cfg.ChunkSize)
	}
	if cfg.TaskTimeout != 30*time.Second {
		t.Errorf("TaskTimeout = %s, want 30s", cfg.TaskTimeout)
	}
	if cfg.Scheme != "http" || cfg.LogDir != "logs" || !cfg.NoHistory {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestLoadConfigMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")

	cfg, err := LoadConfig(missing, true)
	if err != nil {
		t.Fatalf("optional missing config should not fail: %v", err)
	}
	if cfg.WorkerCount != 0 {
		t.Errorf("expected zero config, got %+v", cfg)
	}

	if _, err := LoadConfig(missing, false); err == nil {
		t.Error("expected error for required missing config")
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("workers: [1, 2"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadConfig(path, false)
	if err == nil || !strings.Contains(err.Error(), "failed to parse config") {
		t.Errorf("expected parse error, got %v", err)
	}
}

func TestWithDefaultsAndValidate(t *testing.T) {
	cfg := DownloadConfig{}.WithDefaults()
	if cfg.WorkerCount != DefaultWorkerCount || cfg.ChunkSize != DefaultChunkSize || cfg.Scheme != DefaultScheme {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}

	tests := []struct {
		name string
		cfg  DownloadConfig
	}{
		{"zero workers", DownloadConfig{WorkerCount: 0, ChunkSize: 1, Scheme: "https"}},
		{"zero chunk", DownloadConfig{WorkerCount: 1, ChunkSize: 0, Scheme: "https"}},
		{"negative timeout", DownloadConfig{WorkerCount: 1, ChunkSize: 1, Scheme: "https", TaskTimeout: -time.Second}},
		{"bad scheme", DownloadConfig{WorkerCount: 1, ChunkSize: 1, Scheme: "ftp"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
