// Package stats aggregates the node's rolling tick rate and memory
// utilisation. The host's simulation loop feeds RecordTick; the lifecycle
// controller flushes once per statistics interval.
package stats

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultRingSize is how many per-interval tick-rate samples the ring
// retains for the running average.
const DefaultRingSize = 10

// Sample is the result of one flush.
type Sample struct {
	TickRate        float64
	AverageTickRate float64
	MemoryUsedPct   float64
	At              time.Time
}

// Snapshot is a point-in-time copy of everything the aggregator tracks,
// served by the ops endpoint.
type Snapshot struct {
	TickRate        float64   `json:"tick_rate"`
	AverageTickRate float64   `json:"tick_rate_avg"`
	Samples         []float64 `json:"tick_rate_samples"`
	MemoryUsedPct   float64   `json:"memory_used_pct"`
	LastTickAt      time.Time `json:"last_tick_at"`
	StartedAt       time.Time `json:"started_at"`
	SessionsHosted  int64     `json:"sessions_hosted_total"`
	PlayersTotal    int64     `json:"players_connected_total"`
}

type Aggregator struct {
	recorder Recorder
	memProbe func() (float64, error)

	mu             sync.Mutex
	ring           *sampleRing
	lastTick       time.Time
	lastRate       float64
	tickCount      int
	tickDurSum     time.Duration
	memoryPct      float64
	startedAt      time.Time
	sessionsHosted int64
	playersTotal   int64
}

func NewAggregator(ringSize int, rec Recorder) *Aggregator {
	if ringSize <= 0 {
		ringSize = DefaultRingSize
	}
	if rec == nil {
		rec = NopRecorder{}
	}
	return &Aggregator{
		recorder:  rec,
		memProbe:  memoryUsedPercent,
		ring:      newSampleRing(ringSize),
		startedAt: time.Now(),
	}
}

// SetMemoryProbe replaces the OS memory reader. Tests use it to simulate
// pressure without allocating.
func (a *Aggregator) SetMemoryProbe(probe func() (float64, error)) {
	a.mu.Lock()
	a.memProbe = probe
	a.mu.Unlock()
}

// RecordTick marks one pass of the host's simulation loop. Call it every
// iteration; the duration between consecutive calls is the tick duration.
func (a *Aggregator) RecordTick(now time.Time) {
	a.mu.Lock()
	if !a.lastTick.IsZero() {
		a.tickDurSum += now.Sub(a.lastTick)
		a.tickCount++
	}
	a.lastTick = now
	a.mu.Unlock()
}

// Flush closes the current sampling period: it derives the period's tick rate
// from the accumulated durations, pushes it into the ring, samples memory,
// and forwards every metric to the recorder. An interval with no ticks keeps
// the ring untouched; stall detection belongs to the health monitor.
func (a *Aggregator) Flush(now time.Time) Sample {
	a.mu.Lock()
	probe := a.memProbe
	a.mu.Unlock()

	// The probe may hit the OS. Keep it outside the lock.
	memPct, memErr := probe()

	a.mu.Lock()
	var rate float64
	if a.tickCount > 0 && a.tickDurSum > 0 {
		avg := a.tickDurSum / time.Duration(a.tickCount)
		rate = float64(time.Second) / float64(avg)
		a.ring.Add(rate)
	}
	a.lastRate = rate
	a.tickCount = 0
	a.tickDurSum = 0
	if memErr == nil {
		a.memoryPct = memPct
	}
	avgRate := a.ring.Average()
	mem := a.memoryPct
	a.mu.Unlock()

	if memErr != nil {
		log.Warn().Err(memErr).Msg("memory probe failed, keeping last sample")
	}

	metricTickRate.Set(rate)
	metricTickRateAvg.Set(avgRate)
	metricMemoryUsedPct.Set(mem)
	a.recorder.Record("tick_rate", rate)
	a.recorder.Record("tick_rate_avg", avgRate)
	a.recorder.Record("memory_used_pct", mem)

	return Sample{TickRate: rate, AverageTickRate: avgRate, MemoryUsedPct: mem, At: now}
}

// MemoryUsedPct returns the most recently sampled memory utilisation. The
// health monitor reads this instead of probing the OS so the synchronous
// health callback stays cheap.
func (a *Aggregator) MemoryUsedPct() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.memoryPct
}

// LastTickAt returns when the simulation loop last reported in. Zero when no
// tick was ever recorded.
func (a *Aggregator) LastTickAt() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastTick
}

func (a *Aggregator) AddSessionHosted() {
	a.mu.Lock()
	a.sessionsHosted++
	a.mu.Unlock()
	metricSessionsHostedTotal.Add(1)
}

func (a *Aggregator) AddPlayerConnected() {
	a.mu.Lock()
	a.playersTotal++
	a.mu.Unlock()
	metricPlayersTotal.Add(1)
}

func (a *Aggregator) AddHealthFailure() {
	metricHealthFailedTotal.Add(1)
}

func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Snapshot{
		TickRate:        a.lastRate,
		AverageTickRate: a.ring.Average(),
		Samples:         a.ring.Values(),
		MemoryUsedPct:   a.memoryPct,
		LastTickAt:      a.lastTick,
		StartedAt:       a.startedAt,
		SessionsHosted:  a.sessionsHosted,
		PlayersTotal:    a.playersTotal,
	}
}
