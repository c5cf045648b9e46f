package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nomis52/goflow/logging"
	"github.com/nomis52/goflow/metrics"
	"github.com/nomis52/goflow/perf"
	"github.com/nomis52/goflow/resource"
)

// Orchestrator owns workflow definitions, creates per-run task instances,
// and drives run execution. It is the engine's sole API surface. Construct
// one explicitly with New; there is no process-wide instance.
type Orchestrator struct {
	logger     *slog.Logger
	bound      int
	retry      *RetryController
	executors  *ExecutorRegistry
	notifier   *Notifier
	recorder   *perf.Recorder
	sampler    resource.Sampler
	store      WorkflowStore
	history    RunHistory
	runMetrics *engineMetrics
	loggerHook logging.RunLoggerHook

	mu          sync.RWMutex
	definitions map[string]WorkflowDefinition
	runs        map[string]*run
}

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) error {
		o.logger = logger.With("component", "engine")
		return nil
	}
}

// WithConcurrency sets the per-run concurrency bound.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) error {
		if n <= 0 {
			return fmt.Errorf("concurrency bound must be positive, got %d", n)
		}
		o.bound = n
		return nil
	}
}

// WithRetryDelay sets the base delay for the linear retry backoff.
func WithRetryDelay(d time.Duration) Option {
	return func(o *Orchestrator) error {
		o.retry = NewRetryController(d)
		return nil
	}
}

// WithStore configures write-through persistence of workflow definitions.
func WithStore(store WorkflowStore) Option {
	return func(o *Orchestrator) error {
		o.store = store
		return nil
	}
}

// WithHistory configures persistence of finished run records.
func WithHistory(history RunHistory) Option {
	return func(o *Orchestrator) error {
		o.history = history
		return nil
	}
}

// WithSampler sets the resource usage sampler consulted after each run.
func WithSampler(s resource.Sampler) Option {
	return func(o *Orchestrator) error {
		o.sampler = s
		return nil
	}
}

// WithRunLoggerHook wraps the engine's logger per run, e.g. to capture a
// run's log lines via logging.CapturingRunLoggerHook.
func WithRunLoggerHook(hook logging.RunLoggerHook) Option {
	return func(o *Orchestrator) error {
		o.loggerHook = hook
		return nil
	}
}

// WithMetrics instruments the orchestrator against the given registry.
func WithMetrics(reg metrics.Registry) Option {
	return func(o *Orchestrator) error {
		m, err := newEngineMetrics(reg)
		if err != nil {
			return fmt.Errorf("creating engine metrics: %w", err)
		}
		o.runMetrics = m
		return nil
	}
}

// New creates an Orchestrator. The performance recorder and advisor are
// composed in at construction and consulted after every run.
func New(opts ...Option) (*Orchestrator, error) {
	o := &Orchestrator{
		logger:      slog.Default().With("component", "engine"),
		bound:       DefaultConcurrency,
		retry:       NewRetryController(0),
		executors:   NewExecutorRegistry(),
		recorder:    perf.NewRecorder(),
		sampler:     &resource.StaticSampler{},
		definitions: make(map[string]WorkflowDefinition),
		runs:        make(map[string]*run),
	}

	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	o.notifier = NewNotifier(o.logger)
	return o, nil
}

// Executors returns the registry used to route task types.
func (o *Orchestrator) Executors() *ExecutorRegistry {
	return o.executors
}

// RegisterExecutor binds an executor to a task type.
func (o *Orchestrator) RegisterExecutor(taskType string, ex Executor) error {
	return o.executors.Register(taskType, ex)
}

// Subscribe registers a lifecycle event subscriber. Delivery never blocks
// run scheduling; see Notifier.
func (o *Orchestrator) Subscribe() (<-chan Event, func()) {
	return o.notifier.Subscribe()
}

// AddWorkflow validates and registers a definition. When a store is
// configured the definition is persisted before registration succeeds.
func (o *Orchestrator) AddWorkflow(def WorkflowDefinition) error {
	if err := def.Validate(); err != nil {
		return fmt.Errorf("invalid workflow definition: %w", err)
	}

	now := time.Now()
	if def.CreatedAt.IsZero() {
		def.CreatedAt = now
	}
	def.UpdatedAt = now

	o.mu.Lock()
	defer o.mu.Unlock()

	if _, exists := o.definitions[def.ID]; exists {
		return fmt.Errorf("%w: %s", ErrWorkflowExists, def.ID)
	}

	if o.store != nil {
		if err := o.store.Save(def); err != nil {
			return fmt.Errorf("persisting workflow %s: %w", def.ID, err)
		}
	}

	o.definitions[def.ID] = def
	o.logger.Info("workflow registered", "workflow_id", def.ID, "tasks", len(def.Tasks))
	return nil
}

// UpdateWorkflow replaces an existing definition. The original creation
// timestamp is preserved.
func (o *Orchestrator) UpdateWorkflow(def WorkflowDefinition) error {
	if err := def.Validate(); err != nil {
		return fmt.Errorf("invalid workflow definition: %w", err)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	existing, exists := o.definitions[def.ID]
	if !exists {
		return fmt.Errorf("%w: %s", ErrWorkflowNotFound, def.ID)
	}

	def.CreatedAt = existing.CreatedAt
	def.UpdatedAt = time.Now()

	if o.store != nil {
		if err := o.store.Save(def); err != nil {
			return fmt.Errorf("persisting workflow %s: %w", def.ID, err)
		}
	}

	o.definitions[def.ID] = def
	o.logger.Info("workflow updated", "workflow_id", def.ID)
	return nil
}

// RemoveWorkflow deletes a definition. In-flight runs are unaffected.
func (o *Orchestrator) RemoveWorkflow(id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, exists := o.definitions[id]; !exists {
		return fmt.Errorf("%w: %s", ErrWorkflowNotFound, id)
	}

	if o.store != nil {
		if err := o.store.Delete(id); err != nil {
			return fmt.Errorf("deleting workflow %s: %w", id, err)
		}
	}

	delete(o.definitions, id)
	o.logger.Info("workflow removed", "workflow_id", id)
	return nil
}

// Restore loads definitions from the configured store, skipping any that
// fail validation.
func (o *Orchestrator) Restore() error {
	if o.store == nil {
		return nil
	}

	defs, err := o.store.Load()
	if err != nil {
		return fmt.Errorf("loading workflows: %w", err)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	for _, def := range defs {
		if err := def.Validate(); err != nil {
			o.logger.Warn("skipping invalid stored workflow", "workflow_id", def.ID, "error", err)
			continue
		}
		o.definitions[def.ID] = def
	}

	o.logger.Info("workflows restored", "count", len(defs))
	return nil
}

// Workflow returns a registered definition by ID.
func (o *Orchestrator) Workflow(id string) (WorkflowDefinition, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	def, exists := o.definitions[id]
	if !exists {
		return WorkflowDefinition{}, fmt.Errorf("%w: %s", ErrWorkflowNotFound, id)
	}
	return def, nil
}

// Workflows returns all registered definitions.
func (o *Orchestrator) Workflows() []WorkflowDefinition {
	o.mu.RLock()
	defer o.mu.RUnlock()

	out := make([]WorkflowDefinition, 0, len(o.definitions))
	for _, def := range o.definitions {
		out = append(out, def)
	}
	return out
}

// ExecuteWorkflow starts a run of the given workflow and returns its run ID
// handle immediately. The caller-supplied params are merged into every task
// instance's metadata. The run's outcome is observed through subscribed
// events, Run(), the performance profile, and run history, not through this
// call.
func (o *Orchestrator) ExecuteWorkflow(workflowID string, params map[string]string) (string, error) {
	o.mu.Lock()
	def, exists := o.definitions[workflowID]
	if !exists {
		o.mu.Unlock()
		return "", fmt.Errorf("%w: %s", ErrWorkflowNotFound, workflowID)
	}

	runID := uuid.NewString()
	r := newRun(runID, def, params)
	o.runs[runID] = r
	o.mu.Unlock()

	o.logger.Info("starting workflow run",
		"workflow_id", workflowID,
		"run_id", runID,
		"tasks", len(def.Tasks),
	)

	go o.executeRun(r)
	return runID, nil
}

// Cancel interrupts a run: the scheduler observes the request before
// computing its next ready set and marks every outstanding instance
// cancelled. Cancelling an already-finished run is a no-op.
func (o *Orchestrator) Cancel(runID string) error {
	o.mu.RLock()
	r, exists := o.runs[runID]
	o.mu.RUnlock()
	if !exists {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}

	r.mu.Lock()
	finished := r.status != RunRunning
	if !finished {
		r.cancelRequested = true
	}
	cancel := r.cancel
	r.mu.Unlock()

	if finished {
		return nil
	}

	// Wake the scheduler out of backoff waits and interrupt running tasks.
	if cancel != nil {
		cancel()
	}

	o.logger.Info("run cancellation requested", "run_id", runID)
	return nil
}

// Run returns a snapshot of a run's state, including all task instances.
func (o *Orchestrator) Run(runID string) (Run, error) {
	o.mu.RLock()
	r, exists := o.runs[runID]
	o.mu.RUnlock()
	if !exists {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return r.snapshot(), nil
}

// ActiveRuns returns the IDs of runs whose scheduling loop is still active.
func (o *Orchestrator) ActiveRuns() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()

	var out []string
	for id, r := range o.runs {
		r.mu.Lock()
		running := r.status == RunRunning
		r.mu.Unlock()
		if running {
			out = append(out, id)
		}
	}
	return out
}

// Profile returns the performance profile recorded for a workflow.
func (o *Orchestrator) Profile(workflowID string) (perf.Profile, bool) {
	return o.recorder.Profile(workflowID)
}

// Suggestions derives the current optimization suggestions for a workflow.
// The list is recomputed from the profile on every call; an unknown or
// never-executed workflow yields nil.
func (o *Orchestrator) Suggestions(workflowID string) []perf.Suggestion {
	profile, exists := o.recorder.Profile(workflowID)
	if !exists {
		return nil
	}
	return perf.Advise(profile)
}

// executeRun drives one run to completion and feeds the outcome to the
// recorder, advisor, history, and subscribers.
func (o *Orchestrator) executeRun(r *run) {
	ctx := context.Background()
	var cancel context.CancelFunc
	if r.def.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, r.def.Timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	r.mu.Lock()
	r.cancel = cancel
	r.mu.Unlock()

	logger := o.logger
	if o.loggerHook != nil {
		logger = o.loggerHook.LoggerForRun(o.logger, r.id)
	}

	s := &scheduler{
		bound:     o.bound,
		retry:     o.retry,
		executors: o.executors,
		notifier:  o.notifier,
		metrics:   o.runMetrics,
		logger:    logger,
	}
	err := s.runLoop(ctx, r)

	o.finishRun(r, err)
}

// finishRun records the final state of a run and derives the updated
// performance profile and suggestions.
func (o *Orchestrator) finishRun(r *run, runErr error) {
	now := time.Now()

	r.mu.Lock()
	r.endedAt = &now
	r.err = runErr

	success := true
	var bottlenecks []string
	for _, t := range r.instances {
		switch t.Status {
		case StatusCompleted:
		case StatusFailed:
			success = false
			bottlenecks = append(bottlenecks, t.Name+": "+t.Error)
		default:
			success = false
		}
	}

	switch {
	case r.cancelRequested:
		r.status = RunCancelled
	case runErr != nil || !success:
		r.status = RunFailed
	default:
		r.status = RunSucceeded
	}

	summary := r.summary()
	record := r.record()
	duration := now.Sub(r.startedAt)
	r.mu.Unlock()

	logger := o.logger.With("run_id", r.id, "workflow_id", r.def.ID)
	if runErr != nil {
		logger.Error("workflow run finished with error", "status", summary.Status, "duration", duration, "error", runErr)
	} else {
		logger.Info("workflow run finished", "status", summary.Status, "duration", duration)
	}

	usage, err := o.sampler.Sample(context.Background())
	if err != nil {
		logger.Warn("resource sampling failed", "error", err)
	}

	profile := o.recorder.Record(r.def.ID, perf.Sample{
		Duration:    duration.Seconds(),
		Success:     success,
		Resources:   usage,
		Bottlenecks: bottlenecks,
		Timestamp:   now,
	})

	suggestions := perf.Advise(profile)
	if len(suggestions) > 0 {
		logger.Info("optimization suggestions updated",
			"count", len(suggestions),
			"top", string(suggestions[0].Type),
		)
	}

	if o.runMetrics != nil {
		o.runMetrics.runFinished(r.def.ID, summary.Status, duration.Seconds())
	}

	if o.history != nil {
		if err := o.history.Append(record); err != nil {
			logger.Error("failed to append run history", "error", err)
		}
	}

	o.notifier.Publish(Event{
		Kind:       EventRunFinished,
		RunID:      r.id,
		WorkflowID: r.def.ID,
		Summary:    &summary,
	})
}
