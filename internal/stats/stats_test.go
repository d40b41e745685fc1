package stats

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"
)

type captureRecorder struct {
	mu     sync.Mutex
	values map[string]float64
}

func (r *captureRecorder) Record(name string, value float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.values == nil {
		r.values = map[string]float64{}
	}
	r.values[name] = value
}

func (r *captureRecorder) get(name string) (float64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.values[name]
	return v, ok
}

func TestFlushComputesTickRate(t *testing.T) {
	agg := NewAggregator(DefaultRingSize, nil)
	agg.SetMemoryProbe(func() (float64, error) { return 10, nil })

	base := time.Now()
	agg.RecordTick(base)
	agg.RecordTick(base.Add(50 * time.Millisecond))
	agg.RecordTick(base.Add(100 * time.Millisecond))

	sample := agg.Flush(base.Add(time.Second))
	if math.Abs(sample.TickRate-20) > 0.01 {
		t.Fatalf("TickRate = %v, want 20", sample.TickRate)
	}
	if math.Abs(sample.AverageTickRate-20) > 0.01 {
		t.Fatalf("AverageTickRate = %v, want 20", sample.AverageTickRate)
	}
}

func TestFlushEmptyPeriodKeepsRing(t *testing.T) {
	agg := NewAggregator(DefaultRingSize, nil)
	agg.SetMemoryProbe(func() (float64, error) { return 10, nil })

	base := time.Now()
	agg.RecordTick(base)
	agg.RecordTick(base.Add(100 * time.Millisecond))
	first := agg.Flush(base.Add(time.Second))
	if first.TickRate == 0 {
		t.Fatalf("TickRate = 0 after ticks, want > 0")
	}

	second := agg.Flush(base.Add(2 * time.Second))
	if second.TickRate != 0 {
		t.Fatalf("TickRate = %v for empty period, want 0", second.TickRate)
	}
	if math.Abs(second.AverageTickRate-first.AverageTickRate) > 1e-9 {
		t.Fatalf("AverageTickRate = %v, want unchanged %v", second.AverageTickRate, first.AverageTickRate)
	}
}

func TestFlushSamplesMemory(t *testing.T) {
	agg := NewAggregator(DefaultRingSize, nil)
	agg.SetMemoryProbe(func() (float64, error) { return 42.5, nil })

	sample := agg.Flush(time.Now())
	if sample.MemoryUsedPct != 42.5 {
		t.Fatalf("MemoryUsedPct = %v, want 42.5", sample.MemoryUsedPct)
	}
	if got := agg.MemoryUsedPct(); got != 42.5 {
		t.Fatalf("MemoryUsedPct() = %v, want 42.5", got)
	}

	agg.SetMemoryProbe(func() (float64, error) { return 0, errors.New("probe down") })
	sample = agg.Flush(time.Now())
	if sample.MemoryUsedPct != 42.5 {
		t.Fatalf("MemoryUsedPct = %v after probe failure, want last good 42.5", sample.MemoryUsedPct)
	}
}

func TestFlushForwardsToRecorder(t *testing.T) {
	rec := &captureRecorder{}
	agg := NewAggregator(DefaultRingSize, rec)
	agg.SetMemoryProbe(func() (float64, error) { return 33, nil })

	base := time.Now()
	agg.RecordTick(base)
	agg.RecordTick(base.Add(20 * time.Millisecond))
	agg.Flush(base.Add(time.Second))

	for _, name := range []string{"tick_rate", "tick_rate_avg", "memory_used_pct"} {
		if _, ok := rec.get(name); !ok {
			t.Fatalf("recorder missing metric %q", name)
		}
	}
	if v, _ := rec.get("memory_used_pct"); v != 33 {
		t.Fatalf("memory_used_pct = %v, want 33", v)
	}
}

func TestCountersInSnapshot(t *testing.T) {
	agg := NewAggregator(DefaultRingSize, nil)
	agg.AddSessionHosted()
	agg.AddPlayerConnected()
	agg.AddPlayerConnected()

	snap := agg.Snapshot()
	if snap.SessionsHosted != 1 {
		t.Fatalf("SessionsHosted = %d, want 1", snap.SessionsHosted)
	}
	if snap.PlayersTotal != 2 {
		t.Fatalf("PlayersTotal = %d, want 2", snap.PlayersTotal)
	}
	if snap.StartedAt.IsZero() {
		t.Fatal("StartedAt is zero")
	}
}

func TestLastTickAt(t *testing.T) {
	agg := NewAggregator(DefaultRingSize, nil)
	if !agg.LastTickAt().IsZero() {
		t.Fatal("LastTickAt before any tick should be zero")
	}
	now := time.Now()
	agg.RecordTick(now)
	if !agg.LastTickAt().Equal(now) {
		t.Fatalf("LastTickAt = %v, want %v", agg.LastTickAt(), now)
	}
}

func TestMultiRecorderFansOut(t *testing.T) {
	a := &captureRecorder{}
	b := &captureRecorder{}
	MultiRecorder{a, b}.Record("tick_rate", 60)

	if v, ok := a.get("tick_rate"); !ok || v != 60 {
		t.Fatalf("first recorder tick_rate = %v, %v", v, ok)
	}
	if v, ok := b.get("tick_rate"); !ok || v != 60 {
		t.Fatalf("second recorder tick_rate = %v, %v", v, ok)
	}
}
