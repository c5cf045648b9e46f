package perf

import (
	"fmt"
	"strings"
)

// SuggestionType classifies an optimization suggestion.
type SuggestionType string

const (
	SuggestParallelization SuggestionType = "parallelization"
	SuggestCaching         SuggestionType = "caching"
	SuggestResource        SuggestionType = "resource"
	SuggestDependency      SuggestionType = "dependency"
	SuggestTimeout         SuggestionType = "timeout"
)

// Priority ranks how urgently a suggestion should be acted on.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Suggestion is one derived improvement recommendation. Suggestions are not
// a source of truth: the full list is regenerated from the current profile
// after every recorded run.
type Suggestion struct {
	Type        SuggestionType `json:"type"`
	Priority    Priority       `json:"priority"`
	Description string         `json:"description"`

	// Impact is the expected effect tier: low, medium, or high.
	Impact string `json:"impact"`

	// EstimatedSavings is the projected time saved per run, in seconds.
	// Zero when the suggestion targets reliability rather than speed.
	EstimatedSavings float64 `json:"estimated_savings"`
}

// Advisor thresholds.
const (
	longRunSeconds   = 300.0
	failureRateLimit = 0.1
	cpuLimit         = 80.0
)

// Advise derives the suggestion list for a profile. It is a pure function:
// the same profile always yields the same list, and multiple rules may fire
// for one profile. Rule order fixes the order of the returned slice.
func Advise(p Profile) []Suggestion {
	var out []Suggestion

	if p.AvgDuration > longRunSeconds {
		out = append(out, Suggestion{
			Type:     SuggestParallelization,
			Priority: PriorityHigh,
			Description: fmt.Sprintf(
				"average run takes %.0fs; parallelize independent tasks to shorten the critical path",
				p.AvgDuration,
			),
			Impact:           "high",
			EstimatedSavings: p.AvgDuration * 0.4,
		})
	}

	if p.FailureRate > failureRateLimit {
		out = append(out, Suggestion{
			Type:     SuggestTimeout,
			Priority: PriorityCritical,
			Description: fmt.Sprintf(
				"failure rate is %.0f%%; review task timeouts and retry budgets",
				p.FailureRate*100,
			),
			Impact:           "high",
			EstimatedSavings: 0,
		})
	}

	if p.Resources.CPU > cpuLimit {
		out = append(out, Suggestion{
			Type:     SuggestResource,
			Priority: PriorityMedium,
			Description: fmt.Sprintf(
				"CPU usage averages %.0f%%; reduce per-task load or lower the concurrency bound",
				p.Resources.CPU,
			),
			Impact:           "medium",
			EstimatedSavings: p.AvgDuration * 0.1,
		})
	}

	if len(p.Bottlenecks) > 0 {
		out = append(out, Suggestion{
			Type:     SuggestDependency,
			Priority: PriorityHigh,
			Description: "recurring task failures block dependents: " +
				strings.Join(p.Bottlenecks, "; "),
			Impact:           "high",
			EstimatedSavings: p.AvgDuration * 0.3,
		})
	}

	return out
}
