package engine

import (
	"context"
	"fmt"
	"sync"
)

// Executor performs the work for task instances of one type. Implementations
// are supplied by the caller; the engine only routes by the instance's Type
// and records the outcome.
//
// Execute receives a snapshot of the instance and should honor context
// cancellation. Return the result payload on success, or an error to trigger
// the retry controller.
type Executor interface {
	Execute(ctx context.Context, task TaskInstance) (any, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, task TaskInstance) (any, error)

// Execute calls f.
func (f ExecutorFunc) Execute(ctx context.Context, task TaskInstance) (any, error) {
	return f(ctx, task)
}

// ExecutorRegistry routes task types to executors.
type ExecutorRegistry struct {
	mu        sync.RWMutex
	executors map[string]Executor
}

// NewExecutorRegistry creates an empty registry.
func NewExecutorRegistry() *ExecutorRegistry {
	return &ExecutorRegistry{
		executors: make(map[string]Executor),
	}
}

// Register binds an executor to a task type.
// Returns an error if the type is already bound.
func (r *ExecutorRegistry) Register(taskType string, ex Executor) error {
	if taskType == "" {
		return fmt.Errorf("task type is required")
	}
	if ex == nil {
		return fmt.Errorf("executor for type %q is nil", taskType)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.executors[taskType]; exists {
		return fmt.Errorf("executor for type %q already registered", taskType)
	}
	r.executors[taskType] = ex
	return nil
}

// RegisterFunc binds a function to a task type.
func (r *ExecutorRegistry) RegisterFunc(taskType string, f ExecutorFunc) error {
	return r.Register(taskType, f)
}

// Lookup returns the executor for a task type.
// Returns ErrUnknownTaskType if none is registered.
func (r *ExecutorRegistry) Lookup(taskType string) (Executor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ex, exists := r.executors[taskType]
	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTaskType, taskType)
	}
	return ex, nil
}

// Types returns the registered task types.
func (r *ExecutorRegistry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.executors))
	for t := range r.executors {
		types = append(types, t)
	}
	return types
}
