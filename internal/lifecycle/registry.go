package lifecycle

import "errors"

var (
	ErrSessionFull     = errors.New("session_full")
	ErrDuplicatePlayer = errors.New("duplicate_player_session")
)

// registry tracks the players of the active session. It is a plain data
// structure with no lock of its own; the controller's mutex guards every
// access.
type registry struct {
	byPlayerSession map[string]string
	byHandle        map[string]string
	maxPlayers      int
}

func newRegistry() *registry {
	r := &registry{}
	r.reset(0)
	return r
}

// reset drops every record and arms the registry for a new session's
// capacity.
func (r *registry) reset(maxPlayers int) {
	r.byPlayerSession = map[string]string{}
	r.byHandle = map[string]string{}
	r.maxPlayers = maxPlayers
}

func (r *registry) add(playerSessionID, handle string) error {
	if _, ok := r.byPlayerSession[playerSessionID]; ok {
		return ErrDuplicatePlayer
	}
	if len(r.byPlayerSession) >= r.maxPlayers {
		return ErrSessionFull
	}
	r.byPlayerSession[playerSessionID] = handle
	r.byHandle[handle] = playerSessionID
	return nil
}

// removeByHandle drops the record attached to a connection handle and returns
// the player session it belonged to. Removing an unknown handle is a no-op,
// so the count can never go negative.
func (r *registry) removeByHandle(handle string) (string, bool) {
	playerSessionID, ok := r.byHandle[handle]
	if !ok {
		return "", false
	}
	delete(r.byHandle, handle)
	delete(r.byPlayerSession, playerSessionID)
	return playerSessionID, true
}

func (r *registry) count() int {
	return len(r.byPlayerSession)
}

func (r *registry) full() bool {
	return len(r.byPlayerSession) >= r.maxPlayers
}

// playerSessionIDs returns the ids of every connected player.
func (r *registry) playerSessionIDs() []string {
	out := make([]string, 0, len(r.byPlayerSession))
	for id := range r.byPlayerSession {
		out = append(out, id)
	}
	return out
}
