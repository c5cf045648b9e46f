// Package config loads and validates the goflow daemon configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nomis52/goflow/logging"
)

const (
	// Default engine settings
	defaultConcurrency = 10
	defaultMaxRetries  = 3
	defaultRetryDelay  = 5 * time.Second

	// Default persistence settings
	defaultWorkflowDir = "workflows"
	defaultHistoryDir  = "history"
	defaultMaxHistory  = 100

	// Default monitoring settings
	defaultMetricsPrefix = "goflow"
	defaultJobName       = "goflow"
)

// Config represents the complete daemon configuration.
type Config struct {
	Engine     EngineConfig     `yaml:"engine"`
	Store      StoreConfig      `yaml:"store"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    logging.Config   `yaml:"logging"`
}

// EngineConfig holds orchestration settings.
type EngineConfig struct {
	// Concurrency bounds how many tasks of one run execute simultaneously.
	Concurrency int `yaml:"concurrency"`

	// MaxRetries is the default retry budget for workflows that don't set
	// their own.
	MaxRetries int `yaml:"max_retries"`

	// RetryDelay is the base delay for the linear retry backoff.
	RetryDelay time.Duration `yaml:"retry_delay"`
}

// StoreConfig holds persistence settings.
type StoreConfig struct {
	// WorkflowDir is where workflow definitions are stored as JSON files.
	WorkflowDir string `yaml:"workflow_dir"`

	// HistoryDir is where finished run records are stored.
	HistoryDir string `yaml:"history_dir"`

	// MaxHistory bounds how many run records are retained.
	MaxHistory int `yaml:"max_history"`
}

// MonitoringConfig holds metrics settings. The two modes are exclusive:
// PushURL enables remote write, ListenAddr exposes a scrape endpoint.
// Leaving both empty disables metrics.
type MonitoringConfig struct {
	PushURL       string `yaml:"push_url"`
	ListenAddr    string `yaml:"listen_addr"`
	MetricsPrefix string `yaml:"metrics_prefix"`
	JobName       string `yaml:"jobname"`
}

// Validate performs basic validation on the configuration.
func (c *Config) Validate() error {
	if c.Engine.Concurrency < 0 {
		return fmt.Errorf("engine concurrency must not be negative")
	}
	if c.Engine.MaxRetries < 0 {
		return fmt.Errorf("engine max_retries must not be negative")
	}
	if c.Engine.RetryDelay < 0 {
		return fmt.Errorf("engine retry_delay must not be negative")
	}
	if c.Store.MaxHistory < 0 {
		return fmt.Errorf("store max_history must not be negative")
	}
	if c.Monitoring.PushURL != "" && c.Monitoring.ListenAddr != "" {
		return fmt.Errorf("monitoring push_url and listen_addr are mutually exclusive")
	}
	return nil
}

// SetDefaults sets reasonable default values for unset fields.
func (c *Config) SetDefaults() {
	if c.Engine.Concurrency == 0 {
		c.Engine.Concurrency = defaultConcurrency
	}
	if c.Engine.MaxRetries == 0 {
		c.Engine.MaxRetries = defaultMaxRetries
	}
	if c.Engine.RetryDelay == 0 {
		c.Engine.RetryDelay = defaultRetryDelay
	}
	if c.Store.WorkflowDir == "" {
		c.Store.WorkflowDir = defaultWorkflowDir
	}
	if c.Store.HistoryDir == "" {
		c.Store.HistoryDir = defaultHistoryDir
	}
	if c.Store.MaxHistory == 0 {
		c.Store.MaxHistory = defaultMaxHistory
	}
	if c.Monitoring.MetricsPrefix == "" {
		c.Monitoring.MetricsPrefix = defaultMetricsPrefix
	}
	if c.Monitoring.JobName == "" {
		c.Monitoring.JobName = defaultJobName
	}
}

// Load reads, defaults, and validates a configuration file.
func Load(path string) (Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}
