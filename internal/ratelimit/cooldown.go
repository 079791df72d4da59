package ratelimit

import (
	"sync"
	"time"
)

// Cooldown enforces a minimum interval between successful submissions from a
// single client. The timestamp only advances on a confirmed success, so a
// failed attempt does not penalize the next one.
type Cooldown struct {
	mu       sync.Mutex
	window   time.Duration
	lastSent time.Time
	now      func() time.Time
}

// NewCooldown creates a cooldown with the given window.
func NewCooldown(window time.Duration) *Cooldown {
	return &Cooldown{
		window: window,
		now:    time.Now,
	}
}

// Check reports whether a submission may proceed and, when it may not, how
// long until the next attempt is allowed. The remaining duration is always
// positive when ok is false.
func (c *Cooldown) Check() (ok bool, remaining time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.lastSent.IsZero() {
		return true, 0
	}

	elapsed := c.now().Sub(c.lastSent)
	if elapsed >= c.window {
		return true, 0
	}
	return false, c.window - elapsed
}

// RecordSuccess marks a confirmed successful submission.
func (c *Cooldown) RecordSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastSent = c.now()
}
