package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeConfig(t, `
engine:
  concurrency: 4
  max_retries: 2
  retry_delay: 10s
store:
  workflow_dir: /var/lib/goflow/workflows
  history_dir: /var/lib/goflow/history
  max_history: 50
monitoring:
  push_url: http://prometheus:9090/api/v1/write
  metrics_prefix: myflow
  jobname: myflow-prod
logging:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Engine.Concurrency)
	assert.Equal(t, 2, cfg.Engine.MaxRetries)
	assert.Equal(t, 10*time.Second, cfg.Engine.RetryDelay)
	assert.Equal(t, "/var/lib/goflow/workflows", cfg.Store.WorkflowDir)
	assert.Equal(t, "/var/lib/goflow/history", cfg.Store.HistoryDir)
	assert.Equal(t, 50, cfg.Store.MaxHistory)
	assert.Equal(t, "http://prometheus:9090/api/v1/write", cfg.Monitoring.PushURL)
	assert.Equal(t, "myflow", cfg.Monitoring.MetricsPrefix)
	assert.Equal(t, "myflow-prod", cfg.Monitoring.JobName)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_ScrapeMode(t *testing.T) {
	path := writeConfig(t, `
monitoring:
  listen_addr: ":9100"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9100", cfg.Monitoring.ListenAddr)
	assert.Empty(t, cfg.Monitoring.PushURL)
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
engine: {}
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, defaultConcurrency, cfg.Engine.Concurrency)
	assert.Equal(t, defaultMaxRetries, cfg.Engine.MaxRetries)
	assert.Equal(t, defaultRetryDelay, cfg.Engine.RetryDelay)
	assert.Equal(t, defaultWorkflowDir, cfg.Store.WorkflowDir)
	assert.Equal(t, defaultHistoryDir, cfg.Store.HistoryDir)
	assert.Equal(t, defaultMaxHistory, cfg.Store.MaxHistory)
	assert.Equal(t, defaultMetricsPrefix, cfg.Monitoring.MetricsPrefix)
	assert.Equal(t, defaultJobName, cfg.Monitoring.JobName)
	assert.Empty(t, cfg.Monitoring.PushURL, "push is opt-in")
	assert.Empty(t, cfg.Monitoring.ListenAddr, "scrape is opt-in")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "engine: [not a map")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Run("NegativeConcurrency", func(t *testing.T) {
		cfg := Config{}
		cfg.Engine.Concurrency = -1
		assert.Error(t, cfg.Validate())
	})

	t.Run("NegativeMaxRetries", func(t *testing.T) {
		cfg := Config{}
		cfg.Engine.MaxRetries = -1
		assert.Error(t, cfg.Validate())
	})

	t.Run("NegativeRetryDelay", func(t *testing.T) {
		cfg := Config{}
		cfg.Engine.RetryDelay = -time.Second
		assert.Error(t, cfg.Validate())
	})

	t.Run("NegativeMaxHistory", func(t *testing.T) {
		cfg := Config{}
		cfg.Store.MaxHistory = -1
		assert.Error(t, cfg.Validate())
	})

	t.Run("PushAndScrapeExclusive", func(t *testing.T) {
		cfg := Config{}
		cfg.Monitoring.PushURL = "http://prometheus:9090/api/v1/write"
		cfg.Monitoring.ListenAddr = ":9100"
		assert.Error(t, cfg.Validate(), "push and scrape modes cannot both be enabled")
	})

	t.Run("ZeroConfigIsValid", func(t *testing.T) {
		cfg := Config{}
		assert.NoError(t, cfg.Validate())
	})
}
