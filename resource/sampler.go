// Package resource provides resource usage sampling for workflow runs.
//
// The engine never fabricates usage numbers itself: a Sampler is injected
// into the orchestrator and consulted once per finished run. SystemSampler
// reads real host statistics via gopsutil; StaticSampler serves tests and
// deployments that do not care about resource-based suggestions.
package resource

import (
	"context"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// Usage holds host resource utilization, each field in percent [0,100].
type Usage struct {
	CPU    float64 `json:"cpu"`
	Memory float64 `json:"memory"`
	Disk   float64 `json:"disk"`
}

// Sampler reports current resource utilization.
type Sampler interface {
	Sample(ctx context.Context) (Usage, error)
}

// SystemSampler reads CPU, memory, and disk utilization from the host.
type SystemSampler struct {
	// Path is the mount point used for disk usage. Defaults to "/".
	Path string
}

// NewSystemSampler creates a sampler rooted at "/".
func NewSystemSampler() *SystemSampler {
	return &SystemSampler{Path: "/"}
}

// Sample reads current host utilization. Individual probe failures zero the
// corresponding field rather than failing the whole sample; the first error
// encountered is still returned so callers can log it.
func (s *SystemSampler) Sample(ctx context.Context) (Usage, error) {
	var usage Usage
	var firstErr error

	if percents, err := cpu.PercentWithContext(ctx, 0, false); err != nil {
		firstErr = err
	} else if len(percents) > 0 {
		usage.CPU = percents[0]
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err != nil {
		if firstErr == nil {
			firstErr = err
		}
	} else {
		usage.Memory = vm.UsedPercent
	}

	path := s.Path
	if path == "" {
		path = "/"
	}
	if du, err := disk.UsageWithContext(ctx, path); err != nil {
		if firstErr == nil {
			firstErr = err
		}
	} else {
		usage.Disk = du.UsedPercent
	}

	return usage, firstErr
}

// StaticSampler always reports the same usage.
type StaticSampler struct {
	Usage Usage
}

// Sample returns the configured usage.
func (s *StaticSampler) Sample(context.Context) (Usage, error) {
	return s.Usage, nil
}
