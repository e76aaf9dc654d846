// Package app assembles the store, metrics, insight capability and service
// from a loaded configuration. Commands build one App per invocation.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/klytics/sheetsight/internal/ai"
	"github.com/klytics/sheetsight/internal/config"
	"github.com/klytics/sheetsight/internal/insight"
	"github.com/klytics/sheetsight/internal/logging"
	"github.com/klytics/sheetsight/internal/service"
	"github.com/klytics/sheetsight/internal/store"
	"github.com/klytics/sheetsight/internal/telemetry"
)

// App is a wired SheetSight instance.
type App struct {
	Config     *config.Config
	Logger     *slog.Logger
	Metrics    *telemetry.Metrics
	Store      store.Store
	Capability insight.Capability
	Service    *service.Service
}

// Options adjusts how an App is built.
type Options struct {
	// Ephemeral forces the in-memory store regardless of store.driver.
	// One-shot file commands use it so nothing is persisted.
	Ephemeral bool
	// LogOutput receives log lines; nil means io.Discard.
	LogOutput io.Writer
	// Verbose forces debug logging.
	Verbose bool
}

// New builds an App from cfg.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	logger, err := newLogger(cfg, opts)
	if err != nil {
		return nil, err
	}

	storeCfg := store.Config{Driver: cfg.Store.Driver, DSN: cfg.Store.DSN}
	if opts.Ephemeral {
		storeCfg = store.Config{Driver: "memory"}
	}
	st, err := store.Open(ctx, storeCfg)
	if err != nil {
		return nil, err
	}

	metrics := telemetry.New()
	capability := Capability(cfg, logger)
	orch := insight.NewOrchestrator(st, capability,
		insight.WithLogger(logger),
		insight.WithRecorder(metrics),
	)
	svc := service.New(st, orch,
		service.WithLogger(logger),
		service.WithMetrics(metrics),
	)

	return &App{
		Config:     cfg,
		Logger:     logger,
		Metrics:    metrics,
		Store:      st,
		Capability: capability,
		Service:    svc,
	}, nil
}

// Close releases the store.
func (a *App) Close() error {
	return a.Store.Close()
}

// Capability resolves the insight generation capability from config. A
// missing or broken provider configuration yields Unavailable and a log
// line; it never fails the caller.
func Capability(cfg *config.Config, logger *slog.Logger) insight.Capability {
	p, err := ai.NewProvider(ai.Settings{
		Provider: cfg.AI.Provider,
		Model:    cfg.AI.Model,
		APIKey:   cfg.AI.APIKey,
		Host:     cfg.AI.Host,
		Timeout:  time.Duration(cfg.AI.TimeoutSec) * time.Second,
	})
	if errors.Is(err, ai.ErrNotConfigured) {
		logger.Debug("no AI provider configured, insights use the built-in summary")
		return insight.Unavailable()
	}
	if err != nil {
		logger.Warn("AI provider unavailable, insights use the built-in summary", "error", err)
		return insight.Unavailable()
	}
	logger.Debug("AI provider ready", "provider", p.Name(), "model", p.Model())
	return insight.Available(ai.NewGenerator(p, cfg.AI.MaxTokens, cfg.AI.Temperature))
}

func newLogger(cfg *config.Config, opts Options) (*slog.Logger, error) {
	w := opts.LogOutput
	if w == nil {
		w = io.Discard
	}
	level := cfg.Log.Level
	if opts.Verbose {
		level = "debug"
	}
	logger, err := logging.New(level, cfg.Log.Format, w)
	if err != nil {
		return nil, fmt.Errorf("invalid log settings: %w", err)
	}
	return logger, nil
}
