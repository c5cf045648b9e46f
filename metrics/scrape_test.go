package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, reg *ScrapeRegistry) string {
	t.Helper()

	srv := httptest.NewServer(reg.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestScrapeRegistry_GaugeAndCounter(t *testing.T) {
	reg, err := NewScrapeRegistry()
	require.NoError(t, err)

	gauge, err := reg.NewGauge(prometheus.GaugeOpts{
		Name: "goflow_active_runs",
		Help: "Active workflow runs.",
	})
	require.NoError(t, err)
	gauge.Set(2)

	counter, err := reg.NewCounter(prometheus.CounterOpts{
		Name: "goflow_events_total",
		Help: "Events published.",
	})
	require.NoError(t, err)
	counter.Inc()
	counter.Add(4)

	body := scrape(t, reg)
	assert.Contains(t, body, "goflow_active_runs 2")
	assert.Contains(t, body, "goflow_events_total 5")
}

func TestScrapeRegistry_Vectors(t *testing.T) {
	reg, err := NewScrapeRegistry()
	require.NoError(t, err)

	gaugeVec, err := reg.NewGaugeVec(prometheus.GaugeOpts{
		Name: "goflow_tasks_running",
		Help: "Running tasks.",
	}, []string{"workflow"})
	require.NoError(t, err)
	gaugeVec.With(prometheus.Labels{"workflow": "etl"}).Set(3)

	counterVec, err := reg.NewCounterVec(prometheus.CounterOpts{
		Name: "goflow_runs_total",
		Help: "Finished runs.",
	}, []string{"workflow", "status"})
	require.NoError(t, err)
	counterVec.With(prometheus.Labels{"workflow": "etl", "status": "succeeded"}).Inc()

	body := scrape(t, reg)
	assert.Contains(t, body, `goflow_tasks_running{workflow="etl"} 3`)
	assert.Contains(t, body, `goflow_runs_total{status="succeeded",workflow="etl"} 1`)
}

func TestScrapeRegistry_StandardCollectors(t *testing.T) {
	reg, err := NewScrapeRegistry()
	require.NoError(t, err)

	body := scrape(t, reg)
	assert.Contains(t, body, "go_goroutines", "Go runtime collector is pre-registered")
}

func TestScrapeRegistry_DuplicateRegistration(t *testing.T) {
	reg, err := NewScrapeRegistry()
	require.NoError(t, err)

	opts := prometheus.GaugeOpts{Name: "goflow_dup", Help: "x"}
	_, err = reg.NewGauge(opts)
	require.NoError(t, err)

	_, err = reg.NewGauge(opts)
	assert.Error(t, err, "the same metric name cannot be registered twice")
}
