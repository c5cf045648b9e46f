// Package engine implements the workflow orchestration engine: declarative
// task graphs executed with dependency ordering, a per-run concurrency
// bound, retry with linear backoff, and a performance feedback loop.
//
// # Core Concepts
//
// A WorkflowDefinition is a named DAG of TaskTemplates plus trigger and
// retry defaults. Executing a workflow creates one TaskInstance per
// template, all starting pending. The scheduler repeatedly computes the
// ready set (pending instances whose dependencies have all completed),
// dispatches up to the concurrency bound concurrently, and waits for the
// whole batch to settle before advancing. A task only ever starts after all
// of its declared dependencies completed.
//
// Task work itself is external: callers register an Executor per task type
// and the engine routes instances by their type string. A type with no
// registered executor fails immediately and is never retried.
//
// # Task Lifecycle
//
// Instances move pending -> running -> completed or failed. A failed attempt
// with retry budget left re-enters pending after a linear backoff
// (delay * attempt); only budget exhaustion makes the failure terminal.
// Terminally failed tasks never join the completed set, so their dependents
// can never become ready; the scheduler detects this on its next pass and
// aborts the run with ErrCircularDependency, preserving the results of
// everything that did complete. Cancel marks all outstanding instances
// cancelled before the next ready set is computed.
//
// # Feedback Loop
//
// When a run finishes, the orchestrator samples resource usage, folds the
// run into the workflow's rolling performance profile (package perf), and
// recomputes the optimization suggestion list from the updated profile.
//
// # Observability
//
// Lifecycle events (task completed, task failed, run finished) are fanned
// out to subscribers through buffered channels; a slow subscriber loses
// events rather than stalling the scheduler. ExecuteWorkflow never blocks
// on run completion: outcomes are observed via events, Run snapshots, run
// history, and the performance profile.
package engine
