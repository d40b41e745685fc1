// Package orchestrator defines the call surface of the external fleet
// orchestrator and the event callbacks it delivers. The lifecycle controller
// only ever talks to the Client interface, so tests and standalone hosts can
// swap the transport out.
package orchestrator

import "context"

// Client wraps the orchestrator's call surface. Every call returns a definite
// Outcome; implementations must not block past ctx.
type Client interface {
	// Init establishes the registration channel. It must be called before
	// any other operation.
	Init(ctx context.Context, params RegistrationParams) Outcome

	// Subscribe registers the node's event callbacks. Registration is
	// local; it cannot fail.
	Subscribe(cb Callbacks)

	// Ready reports the process as ready to host a session.
	Ready(ctx context.Context, params ReadyParams) Outcome

	// ActivateSession confirms the session handed over via OnSessionStart
	// is now accepting players.
	ActivateSession(ctx context.Context) Outcome

	// TerminateSession reports the active session as finished without
	// ending the process.
	TerminateSession(ctx context.Context) Outcome

	AcceptPlayerSession(ctx context.Context, playerSessionID string) Outcome
	RemovePlayerSession(ctx context.Context, playerSessionID string) Outcome
	UpdatePlayerAcceptancePolicy(ctx context.Context, policy AcceptancePolicy) Outcome

	// ProcessEnding tells the orchestrator this process is going away.
	ProcessEnding(ctx context.Context) Outcome

	// Destroy releases the registration channel. Best effort; called last.
	Destroy(ctx context.Context) Outcome
}
