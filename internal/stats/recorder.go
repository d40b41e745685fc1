package stats

import "github.com/rs/zerolog/log"

// Recorder receives every metric update. It is the hand-off point to an
// external telemetry collaborator; implementations must return quickly and
// never block the flush path.
type Recorder interface {
	Record(name string, value float64)
}

type NopRecorder struct{}

func (NopRecorder) Record(string, float64) {}

// LogRecorder writes each metric as a debug line. Wired in when detailed
// logging is on so a verbose process shows its own numbers.
type LogRecorder struct{}

func (LogRecorder) Record(name string, value float64) {
	log.Debug().Str("metric", name).Float64("value", value).Msg("stat")
}

// MultiRecorder fans a metric update out to several recorders.
type MultiRecorder []Recorder

func (m MultiRecorder) Record(name string, value float64) {
	for _, r := range m {
		r.Record(name, value)
	}
}
