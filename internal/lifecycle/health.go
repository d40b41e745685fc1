package lifecycle

import "time"

// HealthSnapshot is the result of the most recent health evaluation.
type HealthSnapshot struct {
	Healthy             bool      `json:"healthy"`
	Reason              string    `json:"reason,omitempty"`
	LastCheckAt         time.Time `json:"last_check_at"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	MemoryUsedPct       float64   `json:"memory_used_pct"`
	TickRateSamples     []float64 `json:"tick_rate_samples,omitempty"`
}

// CheckHealth evaluates the node's liveness. The same code serves the
// periodic self-check, the orchestrator's synchronous health callback and the
// ops endpoint, so it stays cheap: reads, one counter update under the lock,
// no I/O. A terminal or terminating state fails the check no matter what the
// metrics say.
func (c *Controller) CheckHealth() bool {
	now := time.Now()
	lastTick := c.stats.LastTickAt()
	if lastTick.IsZero() {
		lastTick = c.startedAt
	}
	memPct := c.stats.MemoryUsedPct()

	c.mu.Lock()
	state := c.state
	c.mu.Unlock()

	healthy := true
	reason := ""
	switch {
	case state == StateError || state == StateShutdown || state == StateTerminating:
		healthy = false
		reason = "lifecycle_state"
	case now.Sub(lastTick) > c.cfg.LoopStallThreshold:
		healthy = false
		reason = "loop_stall"
	case memPct > c.cfg.MemoryThresholdPct:
		healthy = false
		reason = "memory_pressure"
	default:
		for _, check := range c.hooks.HealthChecks {
			if !check() {
				healthy = false
				reason = "custom_check"
				break
			}
		}
	}

	c.mu.Lock()
	c.health.Healthy = healthy
	c.health.Reason = reason
	c.health.LastCheckAt = now
	c.health.MemoryUsedPct = memPct
	if healthy {
		c.health.ConsecutiveFailures = 0
	} else {
		c.health.ConsecutiveFailures++
	}
	failures := c.health.ConsecutiveFailures
	c.mu.Unlock()

	if !healthy {
		c.stats.AddHealthFailure()
		c.logger.Warn().
			Str("reason", reason).
			Str("state", string(state)).
			Float64("memory_pct", memPct).
			Int("consecutive_failures", failures).
			Msg("health check failed")
		return false
	}
	c.logger.Debug().Float64("memory_pct", memPct).Msg("health check passed")
	return true
}

// Health returns the latest health snapshot with the recent tick-rate
// samples attached.
func (c *Controller) Health() HealthSnapshot {
	samples := c.stats.Snapshot().Samples
	c.mu.Lock()
	snap := c.health
	c.mu.Unlock()
	snap.TickRateSamples = samples
	return snap
}
