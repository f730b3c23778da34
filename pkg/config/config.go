// Package config loads pool configuration files and builds the matching
// worker.Config, logger and policy
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jzx17/shardpool/pkg/types"
	"github.com/jzx17/shardpool/pkg/worker"
	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/yaml.v3"
)

// Ordering names accepted by ResolvePolicy
const (
	OrderingNone = "none"
	OrderingWeak = "weak"
)

// FileConfig is the configuration file layout
type FileConfig struct {
	Pool    PoolConfig    `yaml:"pool" json:"pool"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
}

// PoolConfig mirrors worker.Config. Durations are strings such as "5s".
type PoolConfig struct {
	Workers     int    `yaml:"workers" json:"workers"`
	Ordering    string `yaml:"ordering" json:"ordering"`
	Backend     string `yaml:"backend" json:"backend"`
	BlockSize   int    `yaml:"block_size" json:"block_size"`
	StopTimeout string `yaml:"stop_timeout" json:"stop_timeout"`
}

// LoggingConfig selects the slog handler
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// MetricsConfig enables Prometheus collectors
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	Namespace string `yaml:"namespace" json:"namespace"`
	Subsystem string `yaml:"subsystem" json:"subsystem"`
}

// LoadFile reads a YAML (.yaml, .yml) or JSON (.json) configuration file
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config FileConfig
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks the file values that can be checked without building
func (f *FileConfig) Validate() error {
	p := f.Pool

	if p.Workers < 0 {
		return fmt.Errorf("%w: pool.workers must be non-negative", types.ErrInvalidConfig)
	}
	if p.BlockSize < 0 {
		return fmt.Errorf("%w: pool.block_size must be non-negative", types.ErrInvalidConfig)
	}

	switch strings.ToLower(p.Ordering) {
	case "", OrderingNone, OrderingWeak:
	default:
		return fmt.Errorf("%w: unknown pool.ordering %q", types.ErrInvalidConfig, p.Ordering)
	}

	switch strings.ToLower(f.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: unknown logging.format %q", types.ErrInvalidConfig, f.Logging.Format)
	}

	return nil
}

// ToWorkerConfig converts the file into a worker.Config. Logs go to out;
// metrics, when enabled, are registered with reg.
func (f *FileConfig) ToWorkerConfig(out io.Writer, reg prometheus.Registerer) (*worker.Config, error) {
	p := f.Pool

	// start from defaults
	config := worker.DefaultConfig()

	if p.Workers > 0 {
		config.Workers = p.Workers
	}
	if p.Backend != "" {
		config.Backend = worker.Backend(strings.ToLower(p.Backend))
	}
	if p.BlockSize > 0 {
		config.BlockSize = p.BlockSize
	}
	if p.StopTimeout != "" {
		d, err := time.ParseDuration(p.StopTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid stop timeout: %w", err)
		}
		config.StopTimeout = d
	}

	logger, err := NewLogger(f.Logging, out)
	if err != nil {
		return nil, err
	}
	config.Logger = logger

	if err := config.Validate(); err != nil {
		return nil, err
	}

	// registered only once the config is known good
	if f.Metrics.Enabled {
		config.Metrics = worker.NewMetrics(f.Metrics.Namespace, f.Metrics.Subsystem, reg)
	}
	return config, nil
}

// NewLogger builds a text or JSON slog logger writing to w
func NewLogger(cfg LoggingConfig, w io.Writer) (*slog.Logger, error) {
	if w == nil {
		w = os.Stderr
	}

	level := slog.LevelInfo
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, fmt.Errorf("invalid log level: %w", err)
		}
	}
	opts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(cfg.Format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unsupported log format: %s", cfg.Format)
	}
}

// ResolvePolicy returns the policy named by ordering. partition is used by
// weak ordering only.
func ResolvePolicy[T any](ordering string, partition worker.PartitionFunc[T]) (worker.Policy[T], error) {
	switch strings.ToLower(ordering) {
	case "", OrderingNone:
		return worker.NoOrdering[T](), nil
	case OrderingWeak:
		if partition == nil {
			return nil, fmt.Errorf("%w: weak ordering needs a partition function", types.ErrInvalidConfig)
		}
		return worker.WeakOrdering(partition), nil
	default:
		return nil, fmt.Errorf("%w: unknown ordering %q", types.ErrInvalidConfig, ordering)
	}
}

// BuildPool creates a pool from the file: config, logger, metrics and policy
func BuildPool[T any](f *FileConfig, partition worker.PartitionFunc[T], out io.Writer, reg prometheus.Registerer) (*worker.Pool[T], error) {
	policy, err := ResolvePolicy(f.Pool.Ordering, partition)
	if err != nil {
		return nil, err
	}
	config, err := f.ToWorkerConfig(out, reg)
	if err != nil {
		return nil, err
	}
	return worker.NewPool(config, policy)
}
