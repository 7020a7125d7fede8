package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/flowstack/flowstack/internal/api"
	"github.com/flowstack/flowstack/internal/engine"
	"github.com/flowstack/flowstack/internal/logging"
	"github.com/flowstack/flowstack/internal/nodes"
	"github.com/flowstack/flowstack/internal/scheduler"
	"github.com/flowstack/flowstack/internal/secrets"
	"github.com/flowstack/flowstack/internal/store"
	"github.com/flowstack/flowstack/internal/streaming"
	"github.com/flowstack/flowstack/internal/validation"
)

func main() {
	cfg := loadConfig()
	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg Config, logger *slog.Logger) error {
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return err
	}

	s, err := store.NewLibSQLStore("file:" + cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	ctx := context.Background()
	if err := s.Migrate(ctx); err != nil {
		return err
	}

	var vault secrets.Vault
	if cfg.VaultPassphrase != "" {
		salt := cfg.VaultSalt
		if salt == "" {
			salt = "flowstack.vault.v1"
		}
		vault, err = secrets.NewAESVault(s, secrets.VaultConfig{
			Passphrase: cfg.VaultPassphrase,
			Salt:       []byte(salt),
		})
		if err != nil {
			return err
		}
	} else {
		logger.Warn("vault passphrase not set, secrets API disabled")
	}

	registry := engine.NewRegistry()
	err = nodes.RegisterAll(registry, nodes.Config{
		Mailer: nodes.NewSMTPMailer(nodes.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		}),
		OpenAI: nodes.OpenAIConfig{
			BaseURL:      cfg.OpenAIBaseURL,
			APIKey:       cfg.OpenAIAPIKey,
			DefaultModel: cfg.OpenAIModel,
		},
		Ollama: nodes.OllamaConfig{
			BaseURL:      cfg.OllamaBaseURL,
			DefaultModel: cfg.OllamaModel,
		},
		Secrets: vault,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	hub := streaming.NewMemoryHub()
	pool := engine.NewWorkerPool(cfg.PoolCoreSize, cfg.PoolMaxSize, cfg.PoolQueueSize)
	executor := engine.NewWorkflowExecutor(s, registry, logger)
	executor.SetEventHub(hub)
	dispatcher := engine.NewDispatcher(s, executor, pool, logger)

	sched := scheduler.NewScheduler(s, dispatcher, logger)
	if err := sched.Start(ctx); err != nil {
		return err
	}

	validator, err := validation.NewDefinitionValidator()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler: api.NewServer(api.Deps{
			Store:     s,
			Validator: validator,
			Launcher:  dispatcher,
			Hub:       hub,
			Vault:     vault,
			Logger:    logger,
		}).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("flowstack listening",
			slog.String("addr", cfg.ListenAddr),
			slog.String("db", cfg.DBPath),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("shutting down", slog.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", slog.String("error", err.Error()))
	}

	if err := sched.Stop(); err != nil {
		logger.Error("scheduler stop failed", slog.String("error", err.Error()))
	}

	// Let in-flight runs finish before closing the store.
	pool.Shutdown()

	logger.Info("shutdown complete")
	return nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	return slog.New(logging.NewCorrelationHandler(handler))
}
