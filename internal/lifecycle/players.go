package lifecycle

import (
	"context"
	"fmt"

	"fleetnode/internal/orchestrator"
)

// PlayerLogin admits a player into the active session. The handle is the
// caller's connection identity and is what PlayerLogout resolves later. The
// orchestrator confirms the player session before any local record exists.
func (c *Controller) PlayerLogin(ctx context.Context, playerSessionID, handle string) error {
	if playerSessionID == "" {
		return ErrMissingPlayerID
	}

	c.mu.Lock()
	if c.state != StateInSession || c.session == nil {
		c.mu.Unlock()
		return ErrNoActiveSession
	}
	if c.policy == orchestrator.DenyAll {
		c.mu.Unlock()
		return ErrLoginsDenied
	}
	if c.players.full() {
		c.mu.Unlock()
		return ErrSessionFull
	}
	c.mu.Unlock()

	if out := c.client.AcceptPlayerSession(ctx, playerSessionID); !out.OK {
		c.logger.Warn().
			Str("player_session_id", playerSessionID).
			Str("code", out.Code).
			Str("error", out.Message).
			Msg("player session rejected by orchestrator")
		return out.Err()
	}

	c.mu.Lock()
	var err error
	if c.state != StateInSession || c.session == nil {
		err = ErrNoActiveSession
	} else {
		err = c.players.add(playerSessionID, handle)
	}
	count := c.players.count()
	c.mu.Unlock()

	if err != nil {
		// The session filled or ended while the orchestrator call was in
		// flight. Release the seat we just claimed.
		if out := c.client.RemovePlayerSession(ctx, playerSessionID); !out.OK {
			c.logger.Warn().Str("player_session_id", playerSessionID).Str("code", out.Code).Msg("player session rollback failed")
		}
		return err
	}

	c.stats.AddPlayerConnected()
	c.logger.Info().Str("player_session_id", playerSessionID).Int("connected", count).Msg("player joined")
	c.notifyPlayerJoined(playerSessionID)
	return nil
}

// PlayerLogout removes the player attached to a connection handle. Local
// cleanup always wins: the orchestrator call is best effort and a failure is
// only logged.
func (c *Controller) PlayerLogout(ctx context.Context, handle string) {
	c.mu.Lock()
	playerSessionID, ok := c.players.removeByHandle(handle)
	count := c.players.count()
	c.mu.Unlock()
	if !ok {
		c.logger.Debug().Str("handle", handle).Msg("logout for unknown connection")
		return
	}

	if out := c.client.RemovePlayerSession(ctx, playerSessionID); !out.OK {
		c.logger.Warn().
			Str("player_session_id", playerSessionID).
			Str("code", out.Code).
			Str("error", out.Message).
			Msg("remove player session failed")
	}
	c.logger.Info().Str("player_session_id", playerSessionID).Int("connected", count).Msg("player left")
	c.notifyPlayerLeft(playerSessionID)
}

// SetPlayerAcceptancePolicy tells the orchestrator whether new players may be
// placed here and mirrors the decision locally so logins short-circuit.
func (c *Controller) SetPlayerAcceptancePolicy(ctx context.Context, policy orchestrator.AcceptancePolicy) error {
	if policy != orchestrator.AcceptAll && policy != orchestrator.DenyAll {
		return fmt.Errorf("%w: %q", ErrInvalidPolicy, policy)
	}
	if out := c.client.UpdatePlayerAcceptancePolicy(ctx, policy); !out.OK {
		return out.Err()
	}
	c.mu.Lock()
	c.policy = policy
	c.mu.Unlock()
	c.logger.Info().Str("policy", string(policy)).Msg("player acceptance policy updated")
	return nil
}
