package stats

// sampleRing is a fixed-capacity ring of tick-rate samples. The oldest sample
// is evicted once the ring is full. Not safe for concurrent use; the
// Aggregator guards it with its own mutex.
type sampleRing struct {
	samples []float64
	next    int
	filled  int
}

func newSampleRing(capacity int) *sampleRing {
	return &sampleRing{samples: make([]float64, capacity)}
}

func (r *sampleRing) Add(v float64) {
	r.samples[r.next] = v
	r.next = (r.next + 1) % len(r.samples)
	if r.filled < len(r.samples) {
		r.filled++
	}
}

func (r *sampleRing) Average() float64 {
	if r.filled == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < r.filled; i++ {
		sum += r.samples[i]
	}
	return sum / float64(r.filled)
}

// Values returns the retained samples oldest first.
func (r *sampleRing) Values() []float64 {
	out := make([]float64, 0, r.filled)
	start := 0
	if r.filled == len(r.samples) {
		start = r.next
	}
	for i := 0; i < r.filled; i++ {
		out = append(out, r.samples[(start+i)%len(r.samples)])
	}
	return out
}
