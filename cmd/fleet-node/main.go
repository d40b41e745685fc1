package main

import (
	"context"
	"errors"
	"expvar"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"fleetnode/internal/config"
	"fleetnode/internal/journal"
	"fleetnode/internal/lifecycle"
	"fleetnode/internal/logging"
	"fleetnode/internal/ops"
	"fleetnode/internal/orchestrator"
	"fleetnode/internal/stats"

	"github.com/rs/zerolog/log"
)

var (
	varProcessID = expvar.NewString("node_process_id")
	varPort      = expvar.NewInt("node_port")
)

func main() {
	logCfg, err := config.LoadLog()
	if err != nil {
		panic(err)
	}
	cfg, err := config.LoadServer()
	if err != nil {
		panic(err)
	}
	warnings := cfg.ApplyArgs(os.Args[1:])
	if logCfg.File == "" && cfg.LogDir != "" {
		logCfg.File = filepath.Join(cfg.LogDir, "node.log")
	}
	if err := logging.Init(logCfg, cfg.DetailedLogging); err != nil {
		panic(err)
	}
	defer logging.Close()
	for _, w := range warnings {
		log.Warn().Msg(w)
	}

	registration := registrationFromConfig(cfg.Anywhere)
	varProcessID.Set(registration.ProcessID)
	varPort.Set(int64(cfg.Port))

	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var rec stats.Recorder = stats.NopRecorder{}
	if cfg.DetailedLogging {
		rec = stats.LogRecorder{}
	}
	agg := stats.NewAggregator(stats.DefaultRingSize, rec)

	opts := lifecycle.Options{
		Registration: registration,
		LogPaths:     collectLogPaths(logCfg, cfg),
		Logger:       &log.Logger,
		SyncLogs:     logging.Sync,
		RequestExit:  cancel,
	}

	var jr *journal.Journal
	if cfg.JournalDSN != "" {
		jr, err = journal.Open(rootCtx, cfg.JournalDSN, registration.ProcessID)
		if err != nil {
			log.Error().Err(err).Msg("journal open failed, continuing without history")
			jr = nil
		} else if err := jr.EnsureSchema(rootCtx); err != nil {
			log.Error().Err(err).Msg("journal schema failed, continuing without history")
			jr.Close()
			jr = nil
		} else {
			jr.Start(rootCtx)
			opts.Notifiers = append(opts.Notifiers, jr)
			opts.Observers = append(opts.Observers, jr)
		}
	}

	ctrl := lifecycle.NewController(cfg, newClient(cfg), agg, opts)

	r := ops.NewRouter(ops.NewHandlers(ctrl, agg, jr), cfg.OpsAdminKey)
	ops.LogRoutes(r)
	server := &http.Server{
		Addr:              cfg.OpsAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.OpsAddr).Msg("ops http listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("ops server stopped")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info().Str("signal", sig.String()).Msg("shutdown signal received")
		ctrl.RequestTermination("host_shutdown")
		<-sigCh
		log.Warn().Msg("second signal, forcing exit")
		cancel()
	}()

	go tickLoop(rootCtx, agg)

	if err := ctrl.Initialize(); err != nil {
		// The controller parked itself in error; keep serving the ops
		// surface so an operator can inspect and reinitialize it.
		log.Error().Err(err).Msg("initialization refused")
	}
	if err := ctrl.Run(rootCtx); err != nil {
		log.Error().Err(err).Msg("lifecycle loop failed")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("ops server shutdown failed")
	}
	if jr != nil {
		jr.Close()
	}
	log.Info().Str("state", string(ctrl.State())).Msg("node exited")
}

// newClient picks the orchestrator adapter. The in-process adapter stands in
// for both deployment modes; an anywhere fleet additionally carries the
// registration bundle assembled above, which Init logs redacted.
func newClient(cfg config.ServerConfig) orchestrator.Client {
	if cfg.Anywhere.Enabled {
		log.Info().
			Str("ws_url", cfg.Anywhere.WebSocketURL).
			Str("fleet_id", cfg.Anywhere.FleetID).
			Str("host_id", cfg.Anywhere.HostID).
			Msg("anywhere fleet registration configured")
	} else {
		log.Warn().Msg("no fleet orchestrator configured, running standalone")
	}
	return orchestrator.NewStandalone()
}

func registrationFromConfig(a config.AnywhereConfig) orchestrator.RegistrationParams {
	p := orchestrator.RegistrationParams{
		WebSocketURL: a.WebSocketURL,
		FleetID:      a.FleetID,
		HostID:       a.HostID,
		ProcessID:    a.ProcessID,
		AuthToken:    a.AuthToken,
		AccessKey:    a.AccessKey,
		SecretKey:    a.SecretKey,
		SessionToken: a.SessionToken,
		Region:       a.Region,
	}
	if p.ProcessID == "" {
		p.ProcessID = orchestrator.NewProcessID()
	}
	return p
}

// collectLogPaths lists the files the orchestrator should collect after the
// process ends: the node's own log plus whatever the deployment tacks on.
func collectLogPaths(logCfg config.LogConfig, cfg config.ServerConfig) []string {
	var paths []string
	if logCfg.File != "" {
		paths = append(paths, logCfg.File)
	}
	for _, p := range cfg.AdditionalLogFiles {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

// tickLoop stands in for the engine's simulation loop so tick-rate statistics
// and stall detection stay live while the node idles between sessions.
func tickLoop(ctx context.Context, agg *stats.Aggregator) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			agg.RecordTick(now)
		}
	}
}
