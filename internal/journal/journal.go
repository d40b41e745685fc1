// Package journal persists lifecycle history to Postgres: state transitions,
// session starts and ends, players joining and leaving. Writes are
// asynchronous and best effort so the controller never blocks on the
// database; a full buffer drops entries rather than stall a callback.
package journal

import (
	"context"
	"sync"
	"time"

	"fleetnode/internal/lifecycle"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

const (
	entryBuffer  = 256
	writeTimeout = 3 * time.Second
)

const ddl = `
CREATE TABLE IF NOT EXISTS node_transitions (
	id BIGSERIAL PRIMARY KEY,
	process_id TEXT NOT NULL,
	from_state TEXT NOT NULL,
	to_state TEXT NOT NULL,
	at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_node_transitions_process ON node_transitions (process_id, at);

CREATE TABLE IF NOT EXISTS node_session_events (
	id BIGSERIAL PRIMARY KEY,
	process_id TEXT NOT NULL,
	event TEXT NOT NULL,
	detail TEXT NOT NULL DEFAULT '',
	at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS node_player_events (
	id BIGSERIAL PRIMARY KEY,
	process_id TEXT NOT NULL,
	event TEXT NOT NULL,
	player_session_id TEXT NOT NULL,
	at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

type entry struct {
	query string
	args  []any
}

// Journal wraps DB access for lifecycle history.
type Journal struct {
	Pool      *pgxpool.Pool
	processID string

	entries  chan entry
	done     chan struct{}
	stopOnce sync.Once

	mu      sync.Mutex
	started bool
}

var (
	_ lifecycle.Notifier           = (*Journal)(nil)
	_ lifecycle.TransitionObserver = (*Journal)(nil)
)

func Open(ctx context.Context, dsn, processID string) (*Journal, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Journal{
		Pool:      pool,
		processID: processID,
		entries:   make(chan entry, entryBuffer),
		done:      make(chan struct{}),
	}, nil
}

// EnsureSchema creates the journal tables when they do not exist yet. A node
// is often the first thing to ever touch its fleet database, so the schema
// ships with the binary instead of a migration step.
func (j *Journal) EnsureSchema(ctx context.Context) error {
	_, err := j.Pool.Exec(ctx, ddl)
	return err
}

func (j *Journal) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return j.Pool.Ping(ctx)
}

// Start launches the writer goroutine. Calling it again is a no-op.
func (j *Journal) Start(ctx context.Context) {
	j.mu.Lock()
	if j.started {
		j.mu.Unlock()
		return
	}
	j.started = true
	j.mu.Unlock()
	go j.worker(ctx)
}

// Close stops the writer, flushes whatever is still buffered and releases the
// pool. The host closes the journal after the controller has shut down, so
// the final transitions make it to disk.
func (j *Journal) Close() {
	j.stopOnce.Do(func() { close(j.done) })
	for {
		select {
		case e := <-j.entries:
			j.exec(e)
		default:
			j.Pool.Close()
			return
		}
	}
}

func (j *Journal) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-j.done:
			return
		case e := <-j.entries:
			metricJournalQueueLen.Set(int64(len(j.entries)))
			j.exec(e)
		}
	}
}

func (j *Journal) exec(e entry) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if _, err := j.Pool.Exec(ctx, e.query, e.args...); err != nil {
		metricJournalFailedTotal.Add(1)
		log.Warn().Err(err).Msg("journal write failed")
		return
	}
	metricJournalWrittenTotal.Add(1)
}

func (j *Journal) record(query string, args ...any) {
	select {
	case j.entries <- entry{query: query, args: args}:
	case <-j.done:
	default:
		metricJournalDroppedTotal.Add(1)
		log.Warn().Msg("journal buffer full, dropping entry")
	}
}

const (
	insertTransition   = `INSERT INTO node_transitions (process_id, from_state, to_state) VALUES ($1, $2, $3)`
	insertSessionEvent = `INSERT INTO node_session_events (process_id, event, detail) VALUES ($1, $2, $3)`
	insertPlayerEvent  = `INSERT INTO node_player_events (process_id, event, player_session_id) VALUES ($1, $2, $3)`
)

func (j *Journal) StateChanged(from, to lifecycle.State) {
	j.record(insertTransition, j.processID, string(from), string(to))
}

func (j *Journal) SessionStarted(sessionID string) {
	j.record(insertSessionEvent, j.processID, "started", sessionID)
}

func (j *Journal) SessionEnded(reason string) {
	j.record(insertSessionEvent, j.processID, "ended", reason)
}

func (j *Journal) PlayerJoined(playerSessionID string) {
	j.record(insertPlayerEvent, j.processID, "joined", playerSessionID)
}

func (j *Journal) PlayerLeft(playerSessionID string) {
	j.record(insertPlayerEvent, j.processID, "left", playerSessionID)
}

// Transition is one recorded state change.
type Transition struct {
	ProcessID string    `json:"process_id"`
	FromState string    `json:"from_state"`
	ToState   string    `json:"to_state"`
	At        time.Time `json:"at"`
}

// SessionEvent is one recorded session start or end. Detail carries the
// session id for starts and the close reason for ends.
type SessionEvent struct {
	ProcessID string    `json:"process_id"`
	Event     string    `json:"event"`
	Detail    string    `json:"detail"`
	At        time.Time `json:"at"`
}

// PlayerEvent is one recorded player join or leave.
type PlayerEvent struct {
	ProcessID       string    `json:"process_id"`
	Event           string    `json:"event"`
	PlayerSessionID string    `json:"player_session_id"`
	At              time.Time `json:"at"`
}

func (j *Journal) RecentTransitions(ctx context.Context, limit int) ([]Transition, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.Pool.Query(ctx, `SELECT process_id, from_state, to_state, at FROM node_transitions ORDER BY id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Transition
	for rows.Next() {
		var tr Transition
		if err := rows.Scan(&tr.ProcessID, &tr.FromState, &tr.ToState, &tr.At); err != nil {
			return nil, err
		}
		out = append(out, tr)
	}
	return out, rows.Err()
}

func (j *Journal) RecentSessionEvents(ctx context.Context, limit int) ([]SessionEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.Pool.Query(ctx, `SELECT process_id, event, detail, at FROM node_session_events ORDER BY id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SessionEvent
	for rows.Next() {
		var ev SessionEvent
		if err := rows.Scan(&ev.ProcessID, &ev.Event, &ev.Detail, &ev.At); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (j *Journal) RecentPlayerEvents(ctx context.Context, limit int) ([]PlayerEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.Pool.Query(ctx, `SELECT process_id, event, player_session_id, at FROM node_player_events ORDER BY id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []PlayerEvent
	for rows.Next() {
		var ev PlayerEvent
		if err := rows.Scan(&ev.ProcessID, &ev.Event, &ev.PlayerSessionID, &ev.At); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
