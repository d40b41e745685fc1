package lifecycle

import (
	"context"
	"math"
	"sync"
	"time"

	"fleetnode/internal/orchestrator"
)

// retryTimer is the single cancellable one-shot timer behind the
// initialization backoff. Cancelling twice, or cancelling a timer that
// already fired, is a no-op.
type retryTimer struct {
	mu    sync.Mutex
	timer *time.Timer
}

func (r *retryTimer) schedule(d time.Duration, fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(d, fn)
}

func (r *retryTimer) cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

// backoffDelay returns the wait before retry number `retry`, counting from
// zero. Delays grow geometrically with the configured multiplier.
func backoffDelay(base time.Duration, multiplier float64, retry int) time.Duration {
	if base <= 0 {
		return 0
	}
	if multiplier < 1 {
		multiplier = 1
	}
	return time.Duration(float64(base) * math.Pow(multiplier, float64(retry)))
}

// initAttempt performs one pass of the registration protocol: Init, then
// callback subscription, then Ready. On failure it either schedules the next
// attempt or, when the budget is spent, parks the controller in error.
func (c *Controller) initAttempt(ctx context.Context) {
	c.mu.Lock()
	if c.state != StateInitializing {
		c.mu.Unlock()
		return
	}
	params := c.registration
	c.retry.LastAttemptAt = time.Now()
	attempt := c.retry.Attempt
	c.mu.Unlock()

	c.logger.Info().Int("attempt", attempt+1).Object("params", params).Msg("registering with orchestrator")

	out := c.client.Init(ctx, params)
	if out.OK {
		c.client.Subscribe(c.callbacks())
		out = c.client.Ready(ctx, orchestrator.ReadyParams{Port: c.cfg.Port, LogPaths: c.logPaths})
	}

	if out.OK {
		c.mu.Lock()
		from := c.state
		ok := c.transitionLocked(StateReady)
		if ok {
			c.retry = RetryState{}
		}
		c.mu.Unlock()
		if !ok {
			c.rejectTransition(from, StateReady)
			return
		}
		c.afterTransition(from, StateReady)
		c.logger.Info().Int("port", c.cfg.Port).Strs("log_paths", c.logPaths).Msg("registered, ready to host")
		return
	}

	c.mu.Lock()
	if c.state != StateInitializing {
		c.mu.Unlock()
		return
	}
	if c.retry.Attempt < c.cfg.MaxRetryAttempts {
		c.retry.Attempt++
	}
	c.retry.LastError = out.Code
	if out.Message != "" {
		c.retry.LastError = out.Code + ": " + out.Message
	}
	failures := c.retry.Attempt
	lastErr := c.retry.LastError
	exhausted := failures >= c.cfg.MaxRetryAttempts
	from := c.state
	if exhausted {
		c.transitionLocked(StateError)
	}
	c.mu.Unlock()

	if exhausted {
		c.logger.Error().Str("error", lastErr).Int("attempts", failures).Msg("registration retry budget exhausted")
		c.afterTransition(from, StateError)
		return
	}

	delay := backoffDelay(c.cfg.RetryBaseDelay, c.cfg.RetryBackoffMultiplier, failures-1)
	c.logger.Warn().Str("error", lastErr).Int("attempt", failures).Dur("retry_in", delay).Msg("registration failed, scheduling retry")
	c.retryTimer.schedule(delay, func() {
		c.enqueue(event{kind: eventInitAttempt})
	})
}

// callbacks builds the event surface handed to the orchestrator. Everything
// except the health check is funnelled through the owner queue; the health
// check answers synchronously on the caller's goroutine.
func (c *Controller) callbacks() orchestrator.Callbacks {
	return orchestrator.Callbacks{
		OnSessionStart: func(payload orchestrator.SessionStart) {
			c.enqueue(event{kind: eventSessionStart, start: payload})
		},
		OnSessionUpdate: func(payload orchestrator.SessionUpdate) {
			c.enqueue(event{kind: eventSessionUpdate, update: payload})
		},
		OnTerminate: func() {
			c.enqueue(event{kind: eventTerminate, reason: "orchestrator_requested"})
		},
		OnHealthCheck: c.CheckHealth,
	}
}
