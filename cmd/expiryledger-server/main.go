// Package main is the entry point for expiryledger-server, the
// HTTP service hosting the expiring token ledger.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/arvos-io/expiryledger/internal/core/domain"
	"github.com/arvos-io/expiryledger/internal/core/service"
	"github.com/arvos-io/expiryledger/internal/eventlog"
	"github.com/arvos-io/expiryledger/internal/infra/buildinfo"
	"github.com/arvos-io/expiryledger/internal/infra/confloader"
	"github.com/arvos-io/expiryledger/internal/infra/shutdown"
	"github.com/arvos-io/expiryledger/internal/server/config"
	"github.com/arvos-io/expiryledger/internal/server/httpserver"
	"github.com/arvos-io/expiryledger/internal/storage"
	"github.com/arvos-io/expiryledger/internal/telemetry/logger"
	"github.com/arvos-io/expiryledger/internal/telemetry/metric"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("expiryledger-server %s\n", buildinfo.String())
		return nil
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)

	log.Info("starting expiryledger-server",
		"version", buildinfo.Version,
		"commit", buildinfo.Commit,
		"config", *configFile)
	log.Debug("effective configuration", "config", fmt.Sprintf("%+v", config.Sanitize(cfg)))

	metrics := metric.NewRegistry()

	engine, err := openEngine(cfg, metrics)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}

	store := storage.NewLedgerStore(engine)
	initial, err := store.Load(context.Background())
	if err != nil {
		engine.Close()
		return fmt.Errorf("load ledger: %w", err)
	}
	log.Info("ledger loaded", "tokens", initial.TokenCount())

	ring := eventlog.NewMemorySink(1024)
	sink, journal, err := buildSink(cfg, ring)
	if err != nil {
		engine.Close()
		return fmt.Errorf("open event journal: %w", err)
	}

	counted := eventlog.NewTapSink(sink, func(ev domain.Event) {
		metrics.RecordEvent(string(ev.Kind))
	})

	ledgerSvc := service.NewLedgerService(service.LedgerServiceConfig{
		Ledger: initial,
		Sink:   counted,
		Store:  store,
		Logger: log.Slog(),
	})
	authSvc := service.NewAuthService(service.AuthServiceConfig{
		Keys:          cfg.Auth.APIKeys(),
		RatePerSecond: cfg.Auth.RatePerSecond,
		Burst:         cfg.Auth.Burst,
	})

	status := ledgerSvc.Status(context.Background())
	metrics.TokensRegistered.Set(float64(status.TokenCount))
	metrics.BalanceRecords.Set(float64(status.BalanceRecords))

	router := httpserver.NewRouter(&httpserver.RouterConfig{
		Ledger:  ledgerSvc,
		Auth:    authSvc,
		Metrics: metrics,
		Events:  ring,
		Logger:  log,
	})
	server := httpserver.New(cfg.Server.HTTP.Addr, router)

	// Hot log-level reload while the server runs.
	watcher := watchConfig(*configFile, log)

	handler := shutdown.NewHandler(cfg.Server.HTTP.ShutdownTimeout)
	handler.OnShutdown(func(context.Context) error {
		log.Info("closing storage engine")
		return engine.Close()
	})
	if journal != nil {
		handler.OnShutdown(func(context.Context) error {
			log.Info("closing event journal")
			return journal.Close()
		})
	}
	if watcher != nil {
		handler.OnShutdown(func(context.Context) error {
			return watcher.Stop()
		})
	}
	handler.OnShutdown(func(ctx context.Context) error {
		log.Info("shutting down HTTP server")
		return server.Shutdown(ctx)
	})

	go func() {
		log.Info("HTTP server listening", "addr", cfg.Server.HTTP.Addr)

		var serveErr error
		if cfg.Server.HTTP.TLSCertFile != "" && cfg.Server.HTTP.TLSKeyFile != "" {
			serveErr = server.ListenAndServeTLS(cfg.Server.HTTP.TLSCertFile, cfg.Server.HTTP.TLSKeyFile)
		} else {
			serveErr = server.ListenAndServe()
		}
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", serveErr)
			handler.Trigger()
		}
	}()

	if err := handler.Wait(); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("server stopped")
	return nil
}

// loadConfig merges defaults, the optional config file and the
// environment, then validates the result.
func loadConfig(configFile string) (*config.ServerConfig, error) {
	cfg := config.Default()

	opts := []confloader.Option{}
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}
	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, err
	}

	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// openEngine opens the configured KV engine and hooks its metrics
// into the registry.
func openEngine(cfg *config.ServerConfig, metrics *metric.Registry) (storage.KVEngine, error) {
	kvCfg := storage.DefaultKVConfig(cfg.Storage.DataDir)
	kvCfg.Engine = cfg.Storage.Engine
	kvCfg.Badger.SyncWrites = cfg.Storage.SyncWrites
	if cfg.Storage.GCInterval > 0 {
		kvCfg.Badger.GCInterval = cfg.Storage.GCInterval.String()
	}

	engine, err := storage.NewKVEngine(kvCfg, logger.Default().Slog())
	if err != nil {
		return nil, err
	}
	if badger, ok := engine.(*storage.BadgerEngine); ok {
		badger.RegisterMetrics(metrics.Prometheus())
	}
	return engine, nil
}

// buildSink assembles the event pipeline: the in-memory ring always
// receives events, the durable journal only when enabled.
func buildSink(cfg *config.ServerConfig, ring *eventlog.MemorySink) (eventlog.Sink, *eventlog.Journal, error) {
	if !cfg.EventLog.Enabled {
		return ring, nil, nil
	}

	journalCfg := eventlog.DefaultConfig(cfg.EventLog.Dir)
	journalCfg.SyncMode = eventlog.SyncMode(cfg.EventLog.SyncMode)
	if cfg.EventLog.SyncInterval > 0 {
		journalCfg.SyncInterval = cfg.EventLog.SyncInterval
	}
	if cfg.EventLog.MaxFileSize > 0 {
		journalCfg.MaxFileSize = cfg.EventLog.MaxFileSize
	}

	journal, err := eventlog.Open(journalCfg)
	if err != nil {
		return nil, nil, err
	}
	return eventlog.NewMultiSink(journal, ring), journal, nil
}

// watchConfig applies log-level changes from the config file without a
// restart. Returns nil when no config file is in use.
func watchConfig(configFile string, log logger.Logger) *confloader.Watcher {
	if configFile == "" {
		return nil
	}

	watcher, err := confloader.NewWatcher(confloader.WithWatcherLogger(log.Slog()))
	if err != nil {
		log.Warn("config watcher unavailable", "error", err)
		return nil
	}
	if err := watcher.Watch(configFile); err != nil {
		log.Warn("config watch failed", "error", err)
		return nil
	}

	watcher.OnChange(func(path string) {
		cfg, err := loadConfig(path)
		if err != nil {
			log.Warn("config reload skipped", "error", err)
			return
		}
		if cfg.Log.Level != logger.GetLevel() {
			logger.SetLevel(cfg.Log.Level)
			log.Info("log level updated", "level", cfg.Log.Level)
		}
	})
	watcher.StartAsync()
	return watcher
}
