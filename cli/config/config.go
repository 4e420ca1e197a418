// Package config loads the optional logshard.yaml file backing the
// shard command's flags.
package config

import (
	"fmt"
	"time"
)

// Config represents a logshard.yaml configuration file.
// All values are optional and act as defaults for logshard shard flags.
// CLI flags always override config values.
type Config struct {
	Input            string        `yaml:"input"`
	Output           string        `yaml:"output"`
	Locale           string        `yaml:"locale"`
	CompressionLevel *int          `yaml:"compression_level,omitempty"`
	MaxLineSize      int           `yaml:"max_line_size"`
	Manifest         *bool         `yaml:"manifest,omitempty"`
	Archive          ArchiveConfig `yaml:"archive"`
	Adapter          AdapterConfig `yaml:"adapter"`
}

// ArchiveConfig holds archive upload defaults from the config file.
type ArchiveConfig struct {
	// Destination is an s3://bucket/prefix archive location. Empty
	// disables uploads.
	Destination string `yaml:"destination"`
	Region      string `yaml:"region"`
	Endpoint    string `yaml:"endpoint"`
	S3PathStyle bool   `yaml:"s3_path_style"`
}

// Enabled reports whether archive uploads are configured.
func (c *ArchiveConfig) Enabled() bool {
	return c.Destination != ""
}

// AdapterConfig holds adapter defaults from the config file.
type AdapterConfig struct {
	Type    string            `yaml:"type"`
	URL     string            `yaml:"url"`
	Channel string            `yaml:"channel,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Timeout Duration          `yaml:"timeout,omitempty"`
	Retries *int              `yaml:"retries,omitempty"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}
