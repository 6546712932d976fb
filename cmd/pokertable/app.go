package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/pokertable/internal/config"
	"github.com/lox/pokertable/internal/display"
	"github.com/lox/pokertable/internal/events"
	"github.com/lox/pokertable/internal/ledger"
)

// app holds what every command needs: configuration, the ledger service and
// somewhere to print
type app struct {
	cfg    *config.Config
	logger *log.Logger
	store  ledger.Store
	svc    *ledger.Service
	out    *display.Renderer
	stdout io.Writer
	bus    *events.Bus
	evlog  *events.LogPublisher

	closers []func() error
}

func newApp(g *Globals, stdout io.Writer) (*app, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}
	if g.LogLevel != "" {
		cfg.LogLevel = g.LogLevel
	}
	if g.Backend != "" {
		cfg.Ledger.Backend = g.Backend
	}
	if g.Path != "" {
		cfg.Ledger.Path = g.Path
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	level, _ := log.ParseLevel(cfg.LogLevel)
	logger := log.NewWithOptions(os.Stderr, log.Options{Level: level, ReportTimestamp: true})

	styles := display.NewStyles()
	if g.NoColor {
		styles = display.PlainStyles()
	}

	a := &app{
		cfg:    cfg,
		logger: logger,
		out:    display.New(stdout, styles),
		stdout: stdout,
		bus:    events.NewBus(),
	}

	if err := a.openStore(); err != nil {
		return nil, err
	}
	if err := a.connectEvents(g.Quiet); err != nil {
		a.Close()
		return nil, err
	}

	timeout, _ := cfg.ActionTimeout()
	opts := []ledger.Option{ledger.WithLogger(logger), ledger.WithPublisher(a.bus)}
	if timeout > 0 {
		opts = append(opts, ledger.WithActionTimeout(quartz.NewReal(), timeout))
	}
	a.svc = ledger.NewService(a.store, opts...)
	return a, nil
}

func (a *app) openStore() error {
	settings := a.cfg.Ledger

	switch settings.Backend {
	case config.BackendMemory:
		a.store = ledger.NewMemoryStore()
	case config.BackendFile:
		store, err := ledger.NewFileStore(settings.Path)
		if err != nil {
			return err
		}
		a.store = store
	case config.BackendRedis:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		store, err := ledger.NewRedisStore(ctx, redisOptions(settings))
		if err != nil {
			return err
		}
		a.store = store
		a.closers = append(a.closers, store.Close)
	}

	a.logger.Debug("Opened ledger", "backend", settings.Backend)
	return nil
}

func redisOptions(settings *config.LedgerSettings) ledger.RedisOptions {
	return ledger.RedisOptions{
		Addr:     settings.RedisAddr,
		Password: settings.RedisPassword,
		DB:       settings.RedisDB,
		Prefix:   settings.RedisPrefix,
	}
}

func (a *app) connectEvents(quiet bool) error {
	settings := a.cfg.Events

	if !quiet {
		a.bus.Subscribe(a.out)
	}
	if *settings.Log {
		a.evlog = events.NewLogPublisher(a.logger)
		a.bus.Subscribe(a.evlog)
	}
	if settings.NATSURL != "" {
		nats, err := events.ConnectNATS(settings.NATSURL, settings.SubjectPrefix, a.logger)
		if err != nil {
			return err
		}
		a.bus.Subscribe(nats)
		a.closers = append(a.closers, nats.Close)
	}
	return nil
}

// Close stops the service and releases connections
func (a *app) Close() {
	if a.svc != nil {
		a.svc.Close()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("Failed to close", "error", err)
		}
	}
	a.closers = nil
}
