package orchestrator

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// Standalone satisfies Client without any fleet orchestrator behind it. Every
// call succeeds immediately. Hosts use it for local development and for
// deployments that run outside a managed fleet; StartLocalSession stands in
// for the orchestrator's session assignment.
type Standalone struct {
	mu sync.Mutex
	cb Callbacks
}

func NewStandalone() *Standalone {
	return &Standalone{}
}

func (s *Standalone) Init(_ context.Context, params RegistrationParams) Outcome {
	log.Debug().Object("params", params).Msg("standalone orchestrator: init")
	return Success()
}

func (s *Standalone) Subscribe(cb Callbacks) {
	s.mu.Lock()
	s.cb = cb
	s.mu.Unlock()
}

func (s *Standalone) Ready(_ context.Context, params ReadyParams) Outcome {
	log.Debug().Int("port", params.Port).Strs("log_paths", params.LogPaths).Msg("standalone orchestrator: ready")
	return Success()
}

func (s *Standalone) ActivateSession(context.Context) Outcome {
	log.Debug().Msg("standalone orchestrator: activate session")
	return Success()
}

func (s *Standalone) TerminateSession(context.Context) Outcome {
	log.Debug().Msg("standalone orchestrator: terminate session")
	return Success()
}

func (s *Standalone) AcceptPlayerSession(_ context.Context, playerSessionID string) Outcome {
	log.Debug().Str("player_session_id", playerSessionID).Msg("standalone orchestrator: accept player session")
	return Success()
}

func (s *Standalone) RemovePlayerSession(_ context.Context, playerSessionID string) Outcome {
	log.Debug().Str("player_session_id", playerSessionID).Msg("standalone orchestrator: remove player session")
	return Success()
}

func (s *Standalone) UpdatePlayerAcceptancePolicy(_ context.Context, policy AcceptancePolicy) Outcome {
	log.Debug().Str("policy", string(policy)).Msg("standalone orchestrator: update acceptance policy")
	return Success()
}

func (s *Standalone) ProcessEnding(context.Context) Outcome {
	log.Debug().Msg("standalone orchestrator: process ending")
	return Success()
}

func (s *Standalone) Destroy(context.Context) Outcome {
	return Success()
}

// StartLocalSession feeds a synthetic session assignment through the
// subscribed callback so a host without an orchestrator can exercise the full
// activation path.
func (s *Standalone) StartLocalSession(sessionID string, maxPlayers int, properties map[string]string) {
	s.mu.Lock()
	cb := s.cb
	s.mu.Unlock()
	if cb.OnSessionStart == nil {
		return
	}
	cb.OnSessionStart(SessionStart{
		SessionID:  sessionID,
		MaxPlayers: maxPlayers,
		Properties: properties,
	})
}
