// Package config loads and validates application configuration from a YAML
// file with environment-variable overrides, following the platform's
// EMBERIDX_*-prefixed convention.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Index   IndexConfig   `yaml:"index"`
	Logging LoggingConfig `yaml:"logging"`
	Tracing TracingConfig `yaml:"tracing"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// IndexConfig carries the knobs the core engine treats as fixed
// constants (block size, skiplist steps) but which a production
// deployment must be able to tune per workload, plus the filesystem
// layout and merge policy around it.
type IndexConfig struct {
	BlockSize              int           `yaml:"blockSize"`
	PostingSkipStep        int           `yaml:"postingSkipStep"`
	TermsSkipStep          int           `yaml:"termsSkipStep"`
	DataDir                string        `yaml:"dataDir"`
	MergeInterval          time.Duration `yaml:"mergeInterval"`
	MaxSegmentsBeforeMerge int           `yaml:"maxSegmentsBeforeMerge"`
	OpenConcurrency        int           `yaml:"openConcurrency"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// TracingConfig controls distributed tracing (sample rate, endpoint).
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled"`
	Endpoint   string  `yaml:"endpoint"`
	SampleRate float64 `yaml:"sampleRate"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with sensible defaults for any
// missing values.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

// defaultConfig returns a Config with production-ready defaults.
func defaultConfig() *Config {
	return &Config{
		Index: IndexConfig{
			BlockSize:              128,
			PostingSkipStep:        32,
			TermsSkipStep:          32,
			DataDir:                "./data",
			MergeInterval:          5 * time.Minute,
			MaxSegmentsBeforeMerge: 10,
			OpenConcurrency:        4,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// applyEnvOverrides reads EMBERIDX_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("EMBERIDX_INDEX_DATADIR"); v != "" {
		cfg.Index.DataDir = v
	}
	if v := os.Getenv("EMBERIDX_INDEX_BLOCKSIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Index.BlockSize = n
		}
	}
	if v := os.Getenv("EMBERIDX_INDEX_POSTINGSKIPSTEP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Index.PostingSkipStep = n
		}
	}
	if v := os.Getenv("EMBERIDX_INDEX_TERMSSKIPSTEP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Index.TermsSkipStep = n
		}
	}
	if v := os.Getenv("EMBERIDX_INDEX_MERGEINTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Index.MergeInterval = d
		}
	}
	if v := os.Getenv("EMBERIDX_INDEX_MAXSEGMENTSBEFOREMERGE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Index.MaxSegmentsBeforeMerge = n
		}
	}
	if v := os.Getenv("EMBERIDX_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("EMBERIDX_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("EMBERIDX_METRICS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Metrics.Port = n
		}
	}
}
