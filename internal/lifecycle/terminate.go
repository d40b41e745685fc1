package lifecycle

import "context"

// terminate winds the process down: logs are flushed, the active session is
// closed out, the orchestrator is told the process is ending, and the state
// walks to shutdown. The first call wins; later calls return immediately.
// Failures on the way out are logged and never stop the walk.
func (c *Controller) terminate(reason string) {
	c.mu.Lock()
	if c.terminating {
		c.mu.Unlock()
		return
	}
	c.terminating = true
	from := c.state
	c.mu.Unlock()

	if from == StateShutdown {
		return
	}

	c.logger.Info().Str("reason", reason).Str("state", string(from)).Msg("terminating")
	c.retryTimer.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), terminationTimeout)
	defer cancel()

	switch from {
	case StateReady, StateActivatingSession, StateInSession:
		c.mu.Lock()
		mid := c.state
		ok := c.transitionLocked(StateTerminating)
		endedSession := ""
		dropped := 0
		if ok && c.session != nil {
			endedSession = c.session.SessionID
			dropped = c.players.count()
			c.session = nil
			c.players.reset(0)
		}
		c.mu.Unlock()
		if !ok {
			c.rejectTransition(mid, StateTerminating)
			return
		}
		c.afterTransition(mid, StateTerminating)

		c.persistLogs()

		if endedSession != "" {
			c.logger.Info().Str("session_id", endedSession).Int("players_dropped", dropped).Msg("active session closed by termination")
			c.notifySessionEnded(reason)
		}
		if out := c.client.ProcessEnding(ctx); !out.OK {
			c.logger.Warn().Str("code", out.Code).Str("error", out.Message).Msg("process ending report failed")
		}
		if out := c.client.Destroy(ctx); !out.OK {
			c.logger.Warn().Str("code", out.Code).Str("error", out.Message).Msg("orchestrator channel destroy failed")
		}
		c.enterShutdown()

	case StateInitializing, StateError:
		// Registration never completed; there is no session or readiness
		// to unwind, only the channel to release.
		c.persistLogs()
		if out := c.client.Destroy(ctx); !out.OK {
			c.logger.Warn().Str("code", out.Code).Str("error", out.Message).Msg("orchestrator channel destroy failed")
		}
		c.enterShutdown()

	case StateUninitialized:
		// Never talked to the orchestrator. Stop quietly; the transition
		// table has no shutdown edge from here.
		c.persistLogs()
		c.stop()
		c.maybeRequestExit()
	}
}

func (c *Controller) enterShutdown() {
	c.mu.Lock()
	from := c.state
	ok := c.transitionLocked(StateShutdown)
	c.mu.Unlock()
	if !ok {
		c.rejectTransition(from, StateShutdown)
		return
	}
	c.afterTransition(from, StateShutdown)
}

// persistLogs flushes buffered log output so the orchestrator's collector
// sees everything written before the process reports ending.
func (c *Controller) persistLogs() {
	if c.syncLogs == nil {
		return
	}
	if err := c.syncLogs(); err != nil {
		c.logger.Warn().Err(err).Msg("log sync failed")
	}
}
