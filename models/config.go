// Package models defines data structures shared by the downloader packages.
package models

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultWorkerCount = 4
	DefaultChunkSize   = 1 << 20 // 1 MiB, matches the streaming chunk of the publish API client
	DefaultScheme      = "https"
	DefaultUserAgent   = "obsidian-publish-downloader/1.0"
)

// DownloadConfig holds runtime configuration for a download run.
// Values come from an optional YAML file and are overridden by CLI flags.
type DownloadConfig struct {
	WorkerCount int           `yaml:"workers"`
	ChunkSize   int           `yaml:"chunk_size"`
	TaskTimeout time.Duration `yaml:"task_timeout"`
	Scheme      string        `yaml:"scheme"`
	UserAgent   string        `yaml:"user_agent"`
	LogDir      string        `yaml:"log_dir"`
	DBPath      string        `yaml:"db_path"`
	NoHistory   bool          `yaml:"no_history"`
}

// LoadConfig reads a YAML config file. A missing path is not an error when
// optional is set; the zero config is returned instead.
func LoadConfig(path string, optional bool) (*DownloadConfig, error) {
	cfg := &DownloadConfig{}
	data, err := os.ReadFile(path)
	if err != nil {
		if optional && os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// WithDefaults fills unset fields.
func (c DownloadConfig) WithDefaults() DownloadConfig {
	if c.WorkerCount <= 0 {
		c.WorkerCount = DefaultWorkerCount
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.Scheme == "" {
		c.Scheme = DefaultScheme
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.LogDir == "" {
		c.LogDir = "."
	}
	return c
}

// Validate reports settings that cannot be used.
func (c DownloadConfig) Validate() error {
	if c.WorkerCount < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.WorkerCount)
	}
	if c.ChunkSize < 1 {
		return fmt.Errorf("chunk size must be positive, got %d", c.ChunkSize)
	}
	if c.TaskTimeout < 0 {
		return fmt.Errorf("task timeout must not be negative, got %s", c.TaskTimeout)
	}
	if c.Scheme != "http" && c.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", c.Scheme)
	}
	return nil
}
