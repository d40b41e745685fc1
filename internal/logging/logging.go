package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"fleetnode/internal/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	sinkMu sync.Mutex
	sink   *cappedFile
	out    io.Writer = os.Stdout
)

// Init configures the process-wide logger. With detailed set the level drops
// to debug no matter what cfg.Level says; operators flip it to make a single
// fleet process verbose without touching the level knob.
func Init(cfg config.LogConfig, detailed bool) error {
	level := zerolog.InfoLevel
	if v := strings.TrimSpace(cfg.Level); v != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(v)); err == nil {
			level = parsed
		}
	}
	if detailed {
		level = zerolog.DebugLevel
	}

	var output io.Writer = os.Stdout
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: os.Stdout}
	}
	var w *cappedFile
	if cfg.File != "" {
		var err error
		w, err = openCappedFile(cfg.File, cfg.MaxMB)
		if err != nil {
			return err
		}
		output = zerolog.MultiLevelWriter(output, w)
	}

	sinkMu.Lock()
	sink = w
	out = output
	sinkMu.Unlock()

	zerolog.SetGlobalLevel(level)
	logger := zerolog.New(output).With().Timestamp().Logger()
	if cfg.SampleEvery > 1 {
		logger = logger.Sample(&zerolog.BasicSampler{N: uint32(cfg.SampleEvery)})
	}
	log.Logger = logger
	return nil
}

// Writer returns the destination the process logger writes to. The HTTP
// request logger shares it so access logs land in the same sinks.
func Writer() io.Writer {
	sinkMu.Lock()
	defer sinkMu.Unlock()
	return out
}

// Sync flushes the file sink, if any. The lifecycle controller calls it right
// before reporting process end so the orchestrator collects complete logs.
func Sync() error {
	sinkMu.Lock()
	defer sinkMu.Unlock()
	if sink == nil {
		return nil
	}
	return sink.Sync()
}

// Close flushes and closes the file sink. Called once on process exit.
func Close() error {
	sinkMu.Lock()
	defer sinkMu.Unlock()
	if sink == nil {
		return nil
	}
	err := sink.Close()
	sink = nil
	return err
}
