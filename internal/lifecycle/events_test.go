package lifecycle

import (
	"context"
	"testing"
	"time"

	"fleetnode/internal/orchestrator"
)

func TestEventsApplyInArrivalOrder(t *testing.T) {
	f := &fakeClient{}
	notifier := &recordingNotifier{}
	c := NewController(testConfig(), f, testAggregator(), Options{Notifiers: []Notifier{notifier}})
	mustReady(t, c)

	// Two callbacks race in from the orchestrator: a session assignment and,
	// right behind it, a termination. The queue must apply them in order so
	// the session activates and is then closed out.
	f.callbacks().OnSessionStart(orchestrator.SessionStart{SessionID: "gsess-1", MaxPlayers: 2})
	f.callbacks().OnTerminate()
	drain(c)

	if got := c.State(); got != StateShutdown {
		t.Fatalf("State() = %s, want shutdown", got)
	}
	events := notifier.list()
	if len(events) != 2 || events[0] != "session_started:gsess-1" || events[1] != "session_ended:orchestrator_requested" {
		t.Fatalf("notifications = %v, want started then ended", events)
	}
}

func TestEnqueueAfterStopDoesNotBlock(t *testing.T) {
	c := NewController(testConfig(), &fakeClient{}, testAggregator(), Options{})
	for i := 0; i < eventQueueSize; i++ {
		c.events <- event{kind: eventSessionUpdate}
	}
	c.stop()

	finished := make(chan struct{})
	go func() {
		c.enqueue(event{kind: eventTerminate})
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("enqueue blocked on a full queue after stop")
	}
}

func TestUnknownEventKindIgnored(t *testing.T) {
	c := NewController(testConfig(), &fakeClient{}, testAggregator(), Options{})
	c.handleEvent(context.Background(), event{kind: "bogus"})
	if got := c.State(); got != StateUninitialized {
		t.Fatalf("State() = %s, want unchanged", got)
	}
}
