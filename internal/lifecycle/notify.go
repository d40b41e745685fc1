package lifecycle

// Notifier receives fire-and-forget lifecycle notifications. Implementations
// must not block; the controller calls them inline after releasing its lock.
type Notifier interface {
	SessionStarted(sessionID string)
	SessionEnded(reason string)
	PlayerJoined(playerSessionID string)
	PlayerLeft(playerSessionID string)
}

// TransitionObserver sees every applied state change, in order.
type TransitionObserver interface {
	StateChanged(from, to State)
}

func (c *Controller) notifySessionStarted(sessionID string) {
	for _, n := range c.notifiers {
		n.SessionStarted(sessionID)
	}
}

func (c *Controller) notifySessionEnded(reason string) {
	for _, n := range c.notifiers {
		n.SessionEnded(reason)
	}
}

func (c *Controller) notifyPlayerJoined(playerSessionID string) {
	for _, n := range c.notifiers {
		n.PlayerJoined(playerSessionID)
	}
}

func (c *Controller) notifyPlayerLeft(playerSessionID string) {
	for _, n := range c.notifiers {
		n.PlayerLeft(playerSessionID)
	}
}

func (c *Controller) notifyStateChanged(from, to State) {
	for _, o := range c.observers {
		o.StateChanged(from, to)
	}
}
