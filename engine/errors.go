package engine

import "errors"

// ErrWorkflowNotFound is returned when a workflow ID is not registered.
var ErrWorkflowNotFound = errors.New("workflow not found")

// ErrWorkflowExists is returned when registering a definition whose ID is
// already taken.
var ErrWorkflowExists = errors.New("workflow already exists")

// ErrRunNotFound is returned when a run ID does not match any known run.
var ErrRunNotFound = errors.New("run not found")

// ErrCircularDependency is returned when a run's remaining tasks can never
// become ready: either the graph contains a cycle, or every path to a task
// runs through a terminally failed dependency.
var ErrCircularDependency = errors.New("circular or unresolvable dependency")

// ErrUnknownTaskType is returned when no executor is registered for a task's
// type. The condition cannot change on retry, so it is terminal immediately.
var ErrUnknownTaskType = errors.New("unknown task type")

// ErrRunCancelled is recorded on runs interrupted via Cancel.
var ErrRunCancelled = errors.New("run cancelled")
