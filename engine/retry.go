package engine

import "time"

const defaultRetryDelay = 5 * time.Second

// RetryController decides whether and when a failed task instance is
// re-attempted. Backoff is linear: the n-th retry waits n times the base
// delay.
type RetryController struct {
	delay time.Duration
}

// NewRetryController creates a controller with the given base delay.
// A non-positive delay falls back to the default.
func NewRetryController(delay time.Duration) *RetryController {
	if delay <= 0 {
		delay = defaultRetryDelay
	}
	return &RetryController{delay: delay}
}

// Decide inspects a just-failed instance. If the retry budget allows another
// attempt it increments the retry counter, rewinds the instance to pending
// with a not-before timestamp, and returns true. Otherwise the failure is
// terminal and the instance is left untouched.
//
// The caller holds the run lock.
func (c *RetryController) Decide(t *TaskInstance, now time.Time) bool {
	if t.Retries >= t.MaxRetries {
		return false
	}

	t.Retries++
	t.Status = StatusPending
	t.StartedAt = nil
	t.notBefore = now.Add(c.delay * time.Duration(t.Retries))
	return true
}

// Delay returns the base retry delay.
func (c *RetryController) Delay() time.Duration {
	return c.delay
}
