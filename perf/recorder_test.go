package perf

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nomis52/goflow/resource"
)

func TestRecorder_FirstSampleInitializesDirectly(t *testing.T) {
	r := NewRecorder()

	p := r.Record("w", Sample{
		Duration:  120,
		Success:   true,
		Resources: resource.Usage{CPU: 40, Memory: 60, Disk: 20},
	})

	assert.Equal(t, "w", p.WorkflowID)
	assert.Equal(t, 1, p.Executions)
	assert.Equal(t, 120.0, p.AvgDuration)
	assert.Equal(t, 1.0, p.SuccessRate, "first sample sets the rate exactly, no smoothing")
	assert.Equal(t, 0.0, p.FailureRate)
	assert.Equal(t, resource.Usage{CPU: 40, Memory: 60, Disk: 20}, p.Resources)
	require.Len(t, p.Trends, 1)
	assert.Equal(t, 120.0, p.Trends[0].Duration)
}

func TestRecorder_FirstFailureInitializesFailureRate(t *testing.T) {
	r := NewRecorder()

	p := r.Record("w", Sample{Duration: 10, Success: false})
	assert.Equal(t, 0.0, p.SuccessRate)
	assert.Equal(t, 1.0, p.FailureRate)
}

func TestRecorder_SmoothingAndCumulativeMean(t *testing.T) {
	r := NewRecorder()

	r.Record("w", Sample{Duration: 100, Success: true})
	p := r.Record("w", Sample{Duration: 200, Success: false})

	assert.Equal(t, 2, p.Executions)
	assert.InDelta(t, 150.0, p.AvgDuration, 1e-9, "average is a cumulative mean")
	assert.InDelta(t, 0.9, p.SuccessRate, 1e-9, "1.0 decayed by the smoothing factor")
	assert.InDelta(t, 0.1, p.FailureRate, 1e-9, "failure contributes 1-smoothing")

	p = r.Record("w", Sample{Duration: 300, Success: true})
	assert.InDelta(t, 200.0, p.AvgDuration, 1e-9)
	assert.InDelta(t, 0.9*0.9+0.1, p.SuccessRate, 1e-9)
	assert.InDelta(t, 0.1*0.9, p.FailureRate, 1e-9)
}

func TestRecorder_MostlyFastRunsStayUnderLongRunThreshold(t *testing.T) {
	r := NewRecorder()

	// Nine 100s runs and one 500s outlier average out to 140s, which must
	// not look like a chronically slow workflow.
	var p Profile
	for i := 0; i < 9; i++ {
		p = r.Record("w", Sample{Duration: 100, Success: true})
	}
	p = r.Record("w", Sample{Duration: 500, Success: true})

	assert.InDelta(t, 140.0, p.AvgDuration, 1e-9)
	for _, s := range Advise(p) {
		assert.NotEqual(t, SuggestParallelization, s.Type,
			"a single outlier must not trigger the parallelization rule")
	}
}

func TestRecorder_ResourceHalving(t *testing.T) {
	r := NewRecorder()

	r.Record("w", Sample{Duration: 1, Success: true, Resources: resource.Usage{CPU: 100, Memory: 80, Disk: 40}})
	p := r.Record("w", Sample{Duration: 1, Success: true, Resources: resource.Usage{CPU: 50, Memory: 40, Disk: 20}})

	assert.InDelta(t, 75.0, p.Resources.CPU, 1e-9)
	assert.InDelta(t, 60.0, p.Resources.Memory, 1e-9)
	assert.InDelta(t, 30.0, p.Resources.Disk, 1e-9)
}

func TestRecorder_TrendWindowBounded(t *testing.T) {
	r := NewRecorder()

	var p Profile
	for i := 0; i < 15; i++ {
		p = r.Record("w", Sample{Duration: float64(i), Success: true})
	}

	require.Len(t, p.Trends, 10, "trend window holds the last ten samples")
	assert.Equal(t, 5.0, p.Trends[0].Duration, "oldest surviving sample")
	assert.Equal(t, 14.0, p.Trends[9].Duration, "newest sample last")
	assert.Equal(t, 15, p.Executions, "execution count is not windowed")
}

func TestRecorder_BottlenecksKeepLastNonEmpty(t *testing.T) {
	r := NewRecorder()

	r.Record("w", Sample{Duration: 1, Success: false, Bottlenecks: []string{"extract: timeout"}})
	p := r.Record("w", Sample{Duration: 1, Success: true})

	assert.Equal(t, []string{"extract: timeout"}, p.Bottlenecks,
		"a clean run does not clear previously observed bottlenecks")

	p = r.Record("w", Sample{Duration: 1, Success: false, Bottlenecks: []string{"load: boom"}})
	assert.Equal(t, []string{"load: boom"}, p.Bottlenecks, "new bottlenecks replace the old list")
}

func TestRecorder_ProfileLookup(t *testing.T) {
	r := NewRecorder()

	_, exists := r.Profile("w")
	assert.False(t, exists, "no profile before the first recorded run")

	r.Record("w", Sample{Duration: 1, Success: true})
	p, exists := r.Profile("w")
	require.True(t, exists)
	assert.Equal(t, 1, p.Executions)

	// Returned profiles are copies.
	p.Trends[0].Duration = 999
	again, _ := r.Profile("w")
	assert.Equal(t, 1.0, again.Trends[0].Duration)
}

func TestRecorder_Profiles(t *testing.T) {
	r := NewRecorder()
	r.Record("a", Sample{Duration: 1, Success: true})
	r.Record("b", Sample{Duration: 2, Success: true})

	profiles := r.Profiles()
	require.Len(t, profiles, 2)

	ids := []string{profiles[0].WorkflowID, profiles[1].WorkflowID}
	assert.ElementsMatch(t, []string{"a", "b"}, ids)
}

func TestRecorder_ConcurrentRecording(t *testing.T) {
	r := NewRecorder()

	const workers = 8
	const perWorker = 50

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			id := fmt.Sprintf("wf-%d", w%2)
			for i := 0; i < perWorker; i++ {
				r.Record(id, Sample{Duration: 1, Success: true})
			}
		}(w)
	}
	wg.Wait()

	for _, id := range []string{"wf-0", "wf-1"} {
		p, exists := r.Profile(id)
		require.True(t, exists)
		assert.Equal(t, workers/2*perWorker, p.Executions,
			"every concurrent sample for %s must be counted", id)
	}
}
