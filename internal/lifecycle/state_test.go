package lifecycle

import "testing"

func TestTransitionTable(t *testing.T) {
	all := []State{
		StateUninitialized,
		StateInitializing,
		StateReady,
		StateActivatingSession,
		StateInSession,
		StateTerminating,
		StateError,
		StateShutdown,
	}
	wanted := map[State]map[State]bool{
		StateUninitialized:     {StateInitializing: true, StateError: true},
		StateInitializing:      {StateReady: true, StateError: true, StateShutdown: true},
		StateReady:             {StateActivatingSession: true, StateTerminating: true, StateError: true, StateShutdown: true},
		StateActivatingSession: {StateInSession: true, StateReady: true, StateError: true, StateTerminating: true},
		StateInSession:         {StateReady: true, StateTerminating: true, StateError: true},
		StateTerminating:       {StateShutdown: true},
		StateError:             {StateInitializing: true, StateShutdown: true},
		StateShutdown:          {},
	}

	for _, from := range all {
		for _, to := range all {
			got := allowed(from, to)
			if got != wanted[from][to] {
				t.Errorf("allowed(%s, %s) = %v, want %v", from, to, got, wanted[from][to])
			}
		}
	}
}

func TestShutdownIsTerminal(t *testing.T) {
	for _, to := range []State{
		StateUninitialized, StateInitializing, StateReady, StateActivatingSession,
		StateInSession, StateTerminating, StateError, StateShutdown,
	} {
		if allowed(StateShutdown, to) {
			t.Errorf("allowed(shutdown, %s) = true, want false", to)
		}
	}
}

func TestRejectedTransitionLeavesStateUnchanged(t *testing.T) {
	c := NewController(testConfig(), &fakeClient{}, testAggregator(), Options{})
	setState(c, StateInSession)

	c.mu.Lock()
	ok := c.transitionLocked(StateInitializing)
	got := c.state
	c.mu.Unlock()

	if ok {
		t.Fatal("transitionLocked(in_session -> initializing) = true, want rejection")
	}
	if got != StateInSession {
		t.Fatalf("state = %s, want unchanged in_session", got)
	}
}
