package lifecycle

import (
	"context"
	"time"

	"fleetnode/internal/orchestrator"
)

// startSession drives the activation protocol for an inbound session
// assignment. Runs on the Run goroutine, so no other transition can
// interleave with it.
func (c *Controller) startSession(ctx context.Context, payload orchestrator.SessionStart) {
	maxPlayers := payload.MaxPlayers
	if maxPlayers <= 0 {
		maxPlayers = c.cfg.MaxPlayers
	}

	c.mu.Lock()
	from := c.state
	if !c.transitionLocked(StateActivatingSession) {
		c.mu.Unlock()
		c.rejectTransition(from, StateActivatingSession)
		c.logger.Warn().Str("session_id", payload.SessionID).Str("state", string(from)).Msg("session assignment ignored")
		return
	}
	session := &SessionContext{
		SessionID:  payload.SessionID,
		MaxPlayers: maxPlayers,
		Properties: cloneProperties(payload.Properties),
	}
	c.session = session
	c.players.reset(maxPlayers)
	snapshot := *session
	c.mu.Unlock()
	c.afterTransition(from, StateActivatingSession)

	if err := c.hooks.ValidateSessionProperties(snapshot.Properties); err != nil {
		c.abortActivation(snapshot.SessionID, "invalid_properties", err)
		return
	}
	if err := c.hooks.PrepareWorld(ctx, snapshot); err != nil {
		c.abortActivation(snapshot.SessionID, "world_prepare_failed", err)
		return
	}
	if !c.hooks.WorldReady() {
		c.abortActivation(snapshot.SessionID, "world_not_ready", nil)
		return
	}
	if out := c.client.ActivateSession(ctx); !out.OK {
		c.abortActivation(snapshot.SessionID, "activate_rejected", out.Err())
		return
	}

	c.mu.Lock()
	from = c.state
	ok := c.transitionLocked(StateInSession)
	if ok && c.session != nil {
		c.session.StartedAt = time.Now()
	}
	c.mu.Unlock()
	if !ok {
		c.rejectTransition(from, StateInSession)
		return
	}
	c.afterTransition(from, StateInSession)
	c.stats.AddSessionHosted()
	c.logger.Info().Str("session_id", snapshot.SessionID).Int("max_players", snapshot.MaxPlayers).Msg("session active")
	c.notifySessionStarted(snapshot.SessionID)
}

// abortActivation discards the session being activated and returns the
// process to ready. A rejected session never affects process health or the
// registration retry budget.
func (c *Controller) abortActivation(sessionID, reason string, err error) {
	c.mu.Lock()
	from := c.state
	ok := c.transitionLocked(StateReady)
	if ok {
		c.session = nil
		c.players.reset(0)
	}
	c.mu.Unlock()
	if !ok {
		c.rejectTransition(from, StateReady)
		return
	}
	c.logger.Warn().Err(err).Str("session_id", sessionID).Str("reason", reason).Msg("session activation rejected")
	c.afterTransition(from, StateReady)
}

// updateSession applies an orchestrator-side change, typically new
// matchmaker data after a backfill, to the active session.
func (c *Controller) updateSession(payload orchestrator.SessionUpdate) {
	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		c.logger.Debug().Str("reason", payload.Reason).Msg("session update ignored, no active session")
		return
	}
	c.session.MatchmakerData = payload.MatchmakerData
	sessionID := c.session.SessionID
	c.mu.Unlock()
	c.logger.Info().Str("session_id", sessionID).Str("reason", payload.Reason).Msg("session updated")
}

// EndSession finishes the active session and returns the process to ready so
// the orchestrator can place a new one. The process keeps running; use
// RequestTermination to take the whole node down.
func (c *Controller) EndSession(ctx context.Context, reason string) error {
	c.mu.Lock()
	from := c.state
	if c.session == nil {
		c.mu.Unlock()
		return ErrNoActiveSession
	}
	ok := c.transitionLocked(StateReady)
	var dropped []string
	if ok {
		dropped = c.players.playerSessionIDs()
		c.session = nil
		c.players.reset(0)
	}
	c.mu.Unlock()
	if !ok {
		c.rejectTransition(from, StateReady)
		return ErrInvalidTransition
	}
	c.afterTransition(from, StateReady)

	if out := c.client.TerminateSession(ctx); !out.OK {
		c.logger.Warn().Str("code", out.Code).Str("error", out.Message).Msg("terminate session call failed")
	}
	c.logger.Info().Str("reason", reason).Int("players_dropped", len(dropped)).Msg("session ended")
	c.notifySessionEnded(reason)
	return nil
}
