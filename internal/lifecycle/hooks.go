package lifecycle

import "context"

// Hooks are the per-deployment extension points of the controller. Every
// field is optional; nil fields fall back to accept-all or no-op behaviour.
// Hooks run outside the controller's lock and must return in bounded time.
type Hooks struct {
	// ValidateSessionProperties inspects an incoming session's property map
	// before any world work happens. Returning an error rejects the
	// session and the controller goes back to ready.
	ValidateSessionProperties func(properties map[string]string) error

	// PrepareWorld loads whatever the session needs, e.g. the map named in
	// the properties.
	PrepareWorld func(ctx context.Context, session SessionContext) error

	// WorldReady is the final gate before the session is activated with
	// the orchestrator.
	WorldReady func() bool

	// HealthChecks are additional liveness probes evaluated on every
	// health check after the built-in state, stall and memory checks.
	HealthChecks []func() bool
}

func (h Hooks) withDefaults() Hooks {
	if h.ValidateSessionProperties == nil {
		h.ValidateSessionProperties = func(map[string]string) error { return nil }
	}
	if h.PrepareWorld == nil {
		h.PrepareWorld = func(context.Context, SessionContext) error { return nil }
	}
	if h.WorldReady == nil {
		h.WorldReady = func() bool { return true }
	}
	return h
}
