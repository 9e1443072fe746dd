package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/envmatrix/envmatrix/internal/config"
	"github.com/envmatrix/envmatrix/internal/engine"
	"github.com/envmatrix/envmatrix/internal/events"
	"github.com/envmatrix/envmatrix/internal/logging"
	"github.com/envmatrix/envmatrix/internal/orchestrator"
	"github.com/envmatrix/envmatrix/internal/report"
	"github.com/envmatrix/envmatrix/internal/worker"
)

// Harness holds all wired components for one run.
type Harness struct {
	Config       *config.Config
	Logger       *slog.Logger
	Engine       engine.Engine
	Bus          *events.Bus
	Pool         *worker.Pool
	Sink         *report.Sink
	Orchestrator *orchestrator.Orchestrator

	eventLog *os.File
}

// WireHarness assembles all components from a validated config. The
// engine comes from newEngine so tests can substitute a fake.
func WireHarness(cfg *config.Config, opts RunOptions, newEngine func() (engine.Engine, error)) (*Harness, error) {
	logger, err := logging.New(cfg.LogLevel, cfg.DisableLogging, os.Stderr)
	if err != nil {
		return nil, &config.ConfigError{Err: err}
	}

	eng, err := newEngine()
	if err != nil {
		return nil, err
	}

	pool, err := worker.New(cfg.Threads)
	if err != nil {
		eng.Close()
		return nil, &config.ConfigError{Err: err}
	}

	bus := events.NewBus()
	sink := report.NewSink()

	h := &Harness{
		Config:       cfg,
		Logger:       logger,
		Engine:       eng,
		Bus:          bus,
		Pool:         pool,
		Sink:         sink,
		Orchestrator: orchestrator.New(cfg, eng, bus, sink, pool),
	}

	if opts.EventLog != "" {
		f, err := os.Create(opts.EventLog)
		if err != nil {
			h.Close()
			return nil, fmt.Errorf("open event log: %w", err)
		}
		h.eventLog = f
		bus.Subscribe(events.NewJSONEmitter(f).Handler())
	}

	return h, nil
}

// Close shuts down all harness components.
func (h *Harness) Close() error {
	var firstErr error

	if h.Bus != nil {
		if err := h.Bus.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if h.eventLog != nil {
		if err := h.eventLog.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if h.Engine != nil {
		if err := h.Engine.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
