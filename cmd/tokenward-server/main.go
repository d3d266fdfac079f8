// Package main provides the entry point for tokenward-server.
//
// tokenward-server issues and verifies opaque API tokens for other
// services. It keeps the working set in memory, persists token records
// to a Badger database, and exposes a JSON HTTP API.
package main

import (
	"context"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/tokenward/tokenward-go/internal/core/domain"
	"github.com/tokenward/tokenward-go/internal/core/service"
	"github.com/tokenward/tokenward-go/internal/infra/buildinfo"
	"github.com/tokenward/tokenward-go/internal/infra/confloader"
	"github.com/tokenward/tokenward-go/internal/infra/shutdown"
	"github.com/tokenward/tokenward-go/internal/server/config"
	"github.com/tokenward/tokenward-go/internal/server/httpserver"
	"github.com/tokenward/tokenward-go/internal/storage"
	"github.com/tokenward/tokenward-go/internal/telemetry/logger"
	"github.com/tokenward/tokenward-go/internal/telemetry/metric"
	"github.com/tokenward/tokenward-go/pkg/crypto/adaptive"
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
		addr        = flag.String("addr", "", "Listen address, overrides configuration")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println("tokenward-server " + buildinfo.Get().String())
		return nil
	}

	cfg, loader, err := loadConfig(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *addr != "" {
		cfg.Server.HTTP.Addr = *addr
	}

	log := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	slog.SetDefault(log)

	info := buildinfo.Get()
	log.Info("starting tokenward-server",
		"version", info.Version,
		"commit", info.Commit,
		"config", *configFile)

	metrics := metric.New()

	engine, err := initStorage(cfg, log, metrics)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	ctx := context.Background()
	if err := engine.Recover(ctx); err != nil {
		engine.Close()
		return fmt.Errorf("storage recovery: %w", err)
	}
	log.Info("storage recovered", "tokens", engine.Count())

	registry := domain.NewOwnerRegistry()
	for _, kind := range cfg.Auth.OwnerKinds {
		registry.Register(kind, domain.AllowAllResolver{})
	}

	svc := service.NewTokenService(engine, registry,
		service.WithLogger(log),
		service.WithMetrics(metrics))

	pruner := service.NewPruner(engine, cfg.Prune.Interval,
		service.WithPrunerLogger(log),
		service.WithPrunerMetrics(metrics))
	pruner.Start()

	router := httpserver.NewRouter(&httpserver.RouterConfig{
		Service:             svc,
		Logger:              log,
		Metrics:             metrics,
		BootstrapCredential: cfg.Auth.BootstrapCredential,
		RateLimit:           cfg.Auth.RateLimit,
		RateBurst:           cfg.Auth.RateBurst,
	})

	httpServer := httpserver.New(cfg.Server.HTTP.Addr, router,
		cfg.Server.HTTP.ReadTimeout, cfg.Server.HTTP.WriteTimeout)

	// Reload the log level when the config file changes. Other settings
	// require a restart.
	var watcher *confloader.Watcher
	if *configFile != "" {
		watcher, err = watchConfig(*configFile, loader, log)
		if err != nil {
			log.Warn("config watcher disabled", "error", err)
		}
	}

	shutdownHandler := shutdown.NewHandler(cfg.Server.HTTP.ShutdownTimeout)

	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("shutting down storage engine")
		return engine.Close()
	})
	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("stopping pruner")
		pruner.Stop()
		return nil
	})
	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("shutting down HTTP server")
		return httpServer.Shutdown(ctx)
	})
	if watcher != nil {
		shutdownHandler.OnShutdown(func(ctx context.Context) error {
			return watcher.Stop()
		})
	}

	go func() {
		log.Info("HTTP server listening", "addr", cfg.Server.HTTP.Addr)

		var err error
		if cfg.Server.HTTP.TLSCertFile != "" && cfg.Server.HTTP.TLSKeyFile != "" {
			err = httpServer.ListenAndServeTLS(cfg.Server.HTTP.TLSCertFile, cfg.Server.HTTP.TLSKeyFile)
		} else {
			err = httpServer.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
			shutdownHandler.Trigger()
		}
	}()

	if err := shutdownHandler.Wait(); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// loadConfig merges defaults, the optional config file, and environment
// variables, then validates the result.
func loadConfig(configFile string) (*config.ServerConfig, *confloader.Loader, error) {
	cfg := config.Default()

	opts := []confloader.Option{}
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}
	loader := confloader.NewLoader(opts...)

	if err := loader.Load(cfg); err != nil {
		return nil, nil, err
	}
	if err := config.Verify(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, loader, nil
}

func initStorage(cfg *config.ServerConfig, log *slog.Logger, metrics *metric.Metrics) (*storage.Engine, error) {
	storageCfg := storage.DefaultConfig(cfg.Storage.DataDir)
	storageCfg.SyncWrites = cfg.Storage.SyncWrites
	if cfg.Storage.GCInterval > 0 {
		storageCfg.GCInterval = cfg.Storage.GCInterval
	}
	storageCfg.Logger = log
	storageCfg.Metrics = metrics

	if cfg.Storage.EncryptionKey != "" {
		key, err := hex.DecodeString(cfg.Storage.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("decode encryption key: %w", err)
		}
		cipher, err := adaptive.New(key)
		if err != nil {
			return nil, fmt.Errorf("init cipher: %w", err)
		}
		storageCfg.Cipher = cipher
	}

	return storage.New(storageCfg)
}

// watchConfig reloads the log level when the file on disk changes.
func watchConfig(path string, loader *confloader.Loader, log *slog.Logger) (*confloader.Watcher, error) {
	watcher, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return nil, err
	}
	if err := watcher.Watch(path); err != nil {
		watcher.Stop()
		return nil, err
	}
	watcher.OnChange(func(string) {
		cfg := config.Default()
		if err := loader.Load(cfg); err != nil {
			log.Warn("config reload failed", "error", err)
			return
		}
		if err := config.Verify(cfg); err != nil {
			log.Warn("config reload rejected", "error", err)
			return
		}
		if cfg.Log.Level != logger.Level() {
			logger.SetLevel(cfg.Log.Level)
			log.Info("log level changed", "level", cfg.Log.Level)
		}
	})
	watcher.StartAsync()
	return watcher, nil
}
