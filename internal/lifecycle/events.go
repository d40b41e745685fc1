package lifecycle

import (
	"context"

	"fleetnode/internal/orchestrator"
)

type eventKind string

const (
	eventInitAttempt   eventKind = "init_attempt"
	eventSessionStart  eventKind = "session_start"
	eventSessionUpdate eventKind = "session_update"
	eventTerminate     eventKind = "terminate"
)

// event is one unit of work for the controller's owner goroutine. Adapter
// callbacks and timers produce events; Run consumes them serially, which
// keeps transition ordering deterministic no matter which goroutine the
// orchestrator calls us from.
type event struct {
	kind   eventKind
	start  orchestrator.SessionStart
	update orchestrator.SessionUpdate
	reason string
}

// enqueue hands an event to the owner goroutine. It blocks while the queue is
// full so events are never dropped or reordered, and gives up once the
// controller has stopped.
func (c *Controller) enqueue(ev event) {
	select {
	case c.events <- ev:
	case <-c.done:
		c.logger.Warn().Str("event", string(ev.kind)).Msg("controller stopped, dropping event")
	}
}

func (c *Controller) handleEvent(ctx context.Context, ev event) {
	switch ev.kind {
	case eventInitAttempt:
		c.initAttempt(ctx)
	case eventSessionStart:
		c.startSession(ctx, ev.start)
	case eventSessionUpdate:
		c.updateSession(ev.update)
	case eventTerminate:
		reason := ev.reason
		if reason == "" {
			reason = "orchestrator_requested"
		}
		c.terminate(reason)
	default:
		c.logger.Warn().Str("event", string(ev.kind)).Msg("unknown event kind")
	}
}
