package lifecycle

// State is the lifecycle position of the node process. The zero value is not
// valid; controllers start in StateUninitialized.
type State string

const (
	StateUninitialized     State = "uninitialized"
	StateInitializing      State = "initializing"
	StateReady             State = "ready"
	StateActivatingSession State = "activating_session"
	StateInSession         State = "in_session"
	StateTerminating       State = "terminating"
	StateError             State = "error"
	StateShutdown          State = "shutdown"
)

// transitions lists, per current state, the states a request may move to.
// Anything else is rejected and leaves the state untouched. StateShutdown is
// terminal.
var transitions = map[State][]State{
	StateUninitialized:     {StateInitializing, StateError},
	StateInitializing:      {StateReady, StateError, StateShutdown},
	StateReady:             {StateActivatingSession, StateTerminating, StateError, StateShutdown},
	StateActivatingSession: {StateInSession, StateReady, StateError, StateTerminating},
	StateInSession:         {StateReady, StateTerminating, StateError},
	StateTerminating:       {StateShutdown},
	StateError:             {StateInitializing, StateShutdown},
	StateShutdown:          {},
}

func allowed(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
