// Package perf maintains per-workflow performance profiles and derives
// optimization suggestions from them.
//
// The Recorder keeps one rolling profile per workflow ID, updated with a
// sample each time a run finishes. Success and failure rates are smoothed
// exponentially (0.9 retained, 0.1 new); average duration is a cumulative
// mean; the last ten samples are kept as a trend window. Advise turns a
// profile into a ranked suggestion list and is a pure function, recomputed
// in full on every update.
package perf

import (
	"sync"
	"time"

	"github.com/nomis52/goflow/resource"
)

const (
	// smoothing controls the EMA for success and failure rates: each new
	// sample contributes 1-smoothing, history decays geometrically.
	smoothing = 0.9

	// trendWindow is the capacity of the recent-sample ring.
	trendWindow = 10
)

// Sample is one finished run's contribution to a workflow profile.
type Sample struct {
	// Duration is the run's wall-clock duration in seconds.
	Duration float64

	// Success is true when every task in the run completed.
	Success bool

	// Resources is the host utilization observed at run completion.
	Resources resource.Usage

	// Bottlenecks lists error strings from terminally failed tasks.
	Bottlenecks []string

	// Timestamp defaults to now when zero.
	Timestamp time.Time
}

// TrendPoint is one entry in a profile's recent-sample window.
type TrendPoint struct {
	Duration  float64   `json:"duration"`
	Success   bool      `json:"success"`
	Timestamp time.Time `json:"timestamp"`
}

// Profile is the rolling performance profile of one workflow. Profiles are
// created lazily on the first recorded run and only ever updated, never
// deleted.
type Profile struct {
	WorkflowID string `json:"workflow_id"`

	// Executions is the total number of recorded runs.
	Executions int `json:"executions"`

	// AvgDuration is the cumulative mean run duration in seconds.
	AvgDuration float64 `json:"avg_duration"`

	// SuccessRate and FailureRate are independently smoothed and each
	// clamped to [0,1]; they need not sum to 1.
	SuccessRate float64 `json:"success_rate"`
	FailureRate float64 `json:"failure_rate"`

	// Resources is the averaged resource usage across runs.
	Resources resource.Usage `json:"resources"`

	// Bottlenecks is the bottleneck list from the most recent run that
	// reported any.
	Bottlenecks []string `json:"bottlenecks,omitempty"`

	// Trends holds the last trendWindow samples, oldest first.
	Trends []TrendPoint `json:"trends"`
}

// Recorder maintains profiles keyed by workflow ID. Recording is safe for
// concurrent use: distinct workflows never contend, updates to the same
// workflow are serialized by a per-profile lock.
type Recorder struct {
	mu       sync.RWMutex
	profiles map[string]*profileEntry
}

type profileEntry struct {
	mu      sync.Mutex
	profile Profile
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		profiles: make(map[string]*profileEntry),
	}
}

// Record folds one sample into the workflow's profile and returns the
// updated profile. The first sample initializes the profile directly with no
// smoothing applied.
func (r *Recorder) Record(workflowID string, s Sample) Profile {
	if s.Timestamp.IsZero() {
		s.Timestamp = time.Now()
	}

	entry := r.entry(workflowID)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	p := &entry.profile
	if p.Executions == 0 {
		p.AvgDuration = s.Duration
		if s.Success {
			p.SuccessRate = 1
		} else {
			p.FailureRate = 1
		}
		p.Resources = s.Resources
	} else {
		n := float64(p.Executions)
		p.AvgDuration = (p.AvgDuration*n + s.Duration) / (n + 1)

		if s.Success {
			p.SuccessRate = clamp01(p.SuccessRate*smoothing + (1 - smoothing))
			p.FailureRate = clamp01(p.FailureRate * smoothing)
		} else {
			p.SuccessRate = clamp01(p.SuccessRate * smoothing)
			p.FailureRate = clamp01(p.FailureRate*smoothing + (1 - smoothing))
		}

		p.Resources.CPU = (p.Resources.CPU + s.Resources.CPU) / 2
		p.Resources.Memory = (p.Resources.Memory + s.Resources.Memory) / 2
		p.Resources.Disk = (p.Resources.Disk + s.Resources.Disk) / 2
	}

	if len(s.Bottlenecks) > 0 {
		p.Bottlenecks = append([]string(nil), s.Bottlenecks...)
	}

	p.Trends = append(p.Trends, TrendPoint{
		Duration:  s.Duration,
		Success:   s.Success,
		Timestamp: s.Timestamp,
	})
	if len(p.Trends) > trendWindow {
		p.Trends = p.Trends[len(p.Trends)-trendWindow:]
	}

	p.Executions++

	return copyProfile(p)
}

// Profile returns a copy of the workflow's profile, or false if no run has
// been recorded for it yet.
func (r *Recorder) Profile(workflowID string) (Profile, bool) {
	r.mu.RLock()
	entry, exists := r.profiles[workflowID]
	r.mu.RUnlock()
	if !exists {
		return Profile{}, false
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return copyProfile(&entry.profile), true
}

// Profiles returns copies of every profile.
func (r *Recorder) Profiles() []Profile {
	r.mu.RLock()
	entries := make([]*profileEntry, 0, len(r.profiles))
	for _, e := range r.profiles {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	out := make([]Profile, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		out = append(out, copyProfile(&e.profile))
		e.mu.Unlock()
	}
	return out
}

// entry returns the per-workflow entry, creating it lazily.
func (r *Recorder) entry(workflowID string) *profileEntry {
	r.mu.RLock()
	entry, exists := r.profiles[workflowID]
	r.mu.RUnlock()
	if exists {
		return entry
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, exists = r.profiles[workflowID]; exists {
		return entry
	}
	entry = &profileEntry{profile: Profile{WorkflowID: workflowID}}
	r.profiles[workflowID] = entry
	return entry
}

func copyProfile(p *Profile) Profile {
	c := *p
	c.Bottlenecks = append([]string(nil), p.Bottlenecks...)
	c.Trends = append([]TrendPoint(nil), p.Trends...)
	return c
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
