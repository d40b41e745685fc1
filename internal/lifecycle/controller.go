// Package lifecycle implements the state machine that registers a node
// process with the fleet orchestrator, hosts one session at a time, tracks
// connected players and continuously self-reports health.
package lifecycle

import (
	"context"
	"errors"
	"sync"
	"time"

	"fleetnode/internal/config"
	"fleetnode/internal/orchestrator"
	"fleetnode/internal/stats"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	ErrInvalidTransition = errors.New("invalid_transition")
	ErrNoActiveSession   = errors.New("no_active_session")
	ErrMissingPlayerID   = errors.New("missing_player_session_id")
	ErrNotInErrorState   = errors.New("not_in_error_state")
	ErrLoginsDenied      = errors.New("logins_denied")
	ErrInvalidPolicy     = errors.New("invalid_policy")
)

const (
	eventQueueSize     = 64
	terminationTimeout = 10 * time.Second
)

// SessionContext describes the session this process is hosting. It exists
// exactly while the state is activating_session or in_session.
type SessionContext struct {
	SessionID      string            `json:"session_id"`
	MaxPlayers     int               `json:"max_players"`
	Properties     map[string]string `json:"properties,omitempty"`
	MatchmakerData string            `json:"matchmaker_data,omitempty"`
	StartedAt      time.Time         `json:"started_at"`
}

// RetryState tracks the initialization retry budget. Attempt counts failures
// so far and resets to zero on any successful registration.
type RetryState struct {
	Attempt       int       `json:"attempt"`
	LastAttemptAt time.Time `json:"last_attempt_at"`
	LastError     string    `json:"last_error,omitempty"`
}

// Status is a point-in-time view of the controller, served by the ops
// endpoint.
type Status struct {
	State       State                         `json:"state"`
	ProcessID   string                        `json:"process_id"`
	Port        int                           `json:"port"`
	Retry       RetryState                    `json:"retry"`
	Session     *SessionContext               `json:"session,omitempty"`
	PlayerCount int                           `json:"player_count"`
	Policy      orchestrator.AcceptancePolicy `json:"player_acceptance_policy"`
	Health      HealthSnapshot                `json:"health"`
	StartedAt   time.Time                     `json:"started_at"`
}

// Options bundles the optional collaborators of a Controller.
type Options struct {
	Hooks        Hooks
	Notifiers    []Notifier
	Observers    []TransitionObserver
	Registration orchestrator.RegistrationParams
	LogPaths     []string

	// Logger receives all controller output. Nil falls back to the
	// process-wide logger.
	Logger *zerolog.Logger

	// SyncLogs flushes buffered log output; wired to the logging package's
	// file sink in production. Called best effort during termination.
	SyncLogs func() error

	// RequestExit asks the host to end the process. Invoked at most once,
	// when the controller enters shutdown and AutoExitOnShutdown is set.
	RequestExit func()
}

// Controller owns the node's lifecycle. A single mutex guards every piece of
// mutable state; adapter calls, hooks and logging happen outside it.
type Controller struct {
	cfg          config.ServerConfig
	client       orchestrator.Client
	stats        *stats.Aggregator
	hooks        Hooks
	notifiers    []Notifier
	observers    []TransitionObserver
	registration orchestrator.RegistrationParams
	logPaths     []string
	syncLogs     func() error
	requestExit  func()
	startedAt    time.Time
	logger       zerolog.Logger

	events     chan event
	done       chan struct{}
	stopOnce   sync.Once
	exitOnce   sync.Once
	retryTimer retryTimer

	mu          sync.Mutex
	state       State
	retry       RetryState
	session     *SessionContext
	players     *registry
	health      HealthSnapshot
	policy      orchestrator.AcceptancePolicy
	terminating bool
}

func NewController(cfg config.ServerConfig, client orchestrator.Client, agg *stats.Aggregator, opts Options) *Controller {
	if agg == nil {
		agg = stats.NewAggregator(stats.DefaultRingSize, nil)
	}
	logger := log.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	c := &Controller{
		cfg:          cfg,
		client:       client,
		stats:        agg,
		hooks:        opts.Hooks.withDefaults(),
		notifiers:    opts.Notifiers,
		observers:    opts.Observers,
		registration: opts.Registration,
		logPaths:     opts.LogPaths,
		syncLogs:     opts.SyncLogs,
		requestExit:  opts.RequestExit,
		startedAt:    time.Now(),
		logger:       logger,
		events:       make(chan event, eventQueueSize),
		done:         make(chan struct{}),
		state:        StateUninitialized,
		players:      newRegistry(),
		policy:       orchestrator.AcceptAll,
	}
	if c.registration.ProcessID == "" {
		c.registration.ProcessID = orchestrator.NewProcessID()
	}
	return c
}

// Initialize validates the configuration and starts the registration
// protocol. Attempts, like every other transition, execute on the Run
// goroutine. An invalid configuration is fatal: the controller moves straight
// to error without any orchestrator contact.
func (c *Controller) Initialize() error {
	if err := c.cfg.Validate(); err != nil {
		c.mu.Lock()
		from := c.state
		c.retry.LastError = err.Error()
		ok := c.transitionLocked(StateError)
		c.mu.Unlock()
		c.logger.Error().Err(err).Msg("configuration invalid, refusing to start")
		if ok {
			c.afterTransition(from, StateError)
		}
		return err
	}

	c.mu.Lock()
	from := c.state
	ok := c.transitionLocked(StateInitializing)
	c.mu.Unlock()
	if !ok {
		c.rejectTransition(from, StateInitializing)
		return ErrInvalidTransition
	}
	c.afterTransition(from, StateInitializing)
	c.enqueue(event{kind: eventInitAttempt})
	return nil
}

// Reinitialize restarts registration after the retry budget was exhausted.
// It is an operator action and is only valid in the error state; a
// successful call grants a fresh retry budget.
func (c *Controller) Reinitialize() error {
	c.mu.Lock()
	from := c.state
	if from != StateError {
		c.mu.Unlock()
		return ErrNotInErrorState
	}
	c.transitionLocked(StateInitializing)
	c.retry = RetryState{}
	c.mu.Unlock()
	c.afterTransition(from, StateInitializing)
	c.enqueue(event{kind: eventInitAttempt})
	return nil
}

// RequestTermination asks the controller to wind the process down. It
// returns immediately; termination runs on the Run goroutine.
func (c *Controller) RequestTermination(reason string) {
	c.enqueue(event{kind: eventTerminate, reason: reason})
}

// Run drives the controller until the context is cancelled or the lifecycle
// reaches shutdown. It owns the health and statistics timers and is the only
// goroutine that applies queued events.
func (c *Controller) Run(ctx context.Context) error {
	healthEvery := c.cfg.HealthCheckInterval
	if healthEvery <= 0 {
		healthEvery = time.Minute
	}
	statsEvery := c.cfg.StatsInterval
	if statsEvery <= 0 {
		statsEvery = time.Second
	}
	healthTicker := time.NewTicker(healthEvery)
	defer healthTicker.Stop()
	statsTicker := time.NewTicker(statsEvery)
	defer statsTicker.Stop()

	c.logger.Info().
		Str("process_id", c.registration.ProcessID).
		Dur("health_interval", healthEvery).
		Dur("stats_interval", statsEvery).
		Msg("lifecycle controller running")

	for {
		select {
		case <-ctx.Done():
			c.terminate("context_cancelled")
			return nil
		case <-c.done:
			return nil
		case ev := <-c.events:
			c.handleEvent(ctx, ev)
		case <-healthTicker.C:
			c.CheckHealth()
		case now := <-statsTicker.C:
			c.stats.Flush(now)
		}
	}
}

// Done is closed once the controller has fully shut down.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Retry returns a copy of the initialization retry bookkeeping.
func (c *Controller) Retry() RetryState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.retry
}

// Session returns a copy of the active session context, or nil outside a
// session.
func (c *Controller) Session() *SessionContext {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	s := *c.session
	s.Properties = cloneProperties(s.Properties)
	return &s
}

// PlayerCount returns how many players are connected to the active session.
func (c *Controller) PlayerCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.players.count()
}

// ProcessID returns the identity this process registers under.
func (c *Controller) ProcessID() string {
	return c.registration.ProcessID
}

func (c *Controller) Status() Status {
	c.mu.Lock()
	st := Status{
		State:       c.state,
		ProcessID:   c.registration.ProcessID,
		Port:        c.cfg.Port,
		Retry:       c.retry,
		PlayerCount: c.players.count(),
		Policy:      c.policy,
		Health:      c.health,
		StartedAt:   c.startedAt,
	}
	if c.session != nil {
		s := *c.session
		s.Properties = cloneProperties(s.Properties)
		st.Session = &s
	}
	c.mu.Unlock()
	st.Health.TickRateSamples = c.stats.Snapshot().Samples
	return st
}

// transitionLocked applies a state change if the table allows it. Callers
// hold mu; logging and the per-state entry hook run later, outside the lock,
// via afterTransition.
func (c *Controller) transitionLocked(to State) bool {
	if !allowed(c.state, to) {
		return false
	}
	c.state = to
	return true
}

// afterTransition logs an applied change, informs observers and dispatches
// the entry hook for the new state.
func (c *Controller) afterTransition(from, to State) {
	c.logger.Info().Str("from", string(from)).Str("to", string(to)).Msg("lifecycle state changed")
	c.notifyStateChanged(from, to)
	switch to {
	case StateShutdown:
		c.retryTimer.cancel()
		c.stop()
		c.maybeRequestExit()
	}
}

func (c *Controller) rejectTransition(from, to State) {
	c.logger.Warn().Str("from", string(from)).Str("to", string(to)).Msg("lifecycle transition rejected")
}

// stop closes the done channel. Safe to call any number of times.
func (c *Controller) stop() {
	c.stopOnce.Do(func() { close(c.done) })
}

// maybeRequestExit asks the host to exit the process, at most once for the
// lifetime of the controller.
func (c *Controller) maybeRequestExit() {
	if !c.cfg.AutoExitOnShutdown || c.requestExit == nil {
		return
	}
	c.exitOnce.Do(func() {
		c.logger.Info().Msg("requesting process exit")
		c.requestExit()
	})
}

func cloneProperties(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
