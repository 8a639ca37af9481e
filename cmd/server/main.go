package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/example/ride-customer/internal/config"
	httpapi "github.com/example/ride-customer/internal/http"
	"github.com/example/ride-customer/internal/logging"
	"github.com/example/ride-customer/internal/storage"
)

func main() {
	cfg, err := config.LoadServerConfig()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.NewLogger(cfg.LogLevel, cfg.LogFile, os.Stdout)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore := openStore(ctx, cfg, logger)
	defer closeStore()

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      httpapi.NewServer(store, storage.SeedUsers(), logger),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("ride backend listening", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	logger.Info("ride backend stopped")
}

// openStore uses Postgres when PG_DSN is set and falls back to memory when
// it is unset or unreachable.
func openStore(ctx context.Context, cfg config.ServerConfig, logger *slog.Logger) (storage.RideStore, func()) {
	if cfg.PGDSN == "" {
		return storage.NewMemoryStore(), func() {}
	}
	ps, err := storage.NewPostgresStore(ctx, cfg.PGDSN)
	if err != nil {
		logger.Warn("postgres unavailable, using memory store", "error", err)
		return storage.NewMemoryStore(), func() {}
	}
	if cfg.RunMigrations {
		if err := ps.Migrate(ctx, filepath.Join("migrations", "001_create_rides.sql")); err != nil {
			logger.Error("migration failed", "error", err)
		} else {
			logger.Info("migration applied", "file", "001_create_rides.sql")
		}
	}
	return ps, func() { _ = ps.Close() }
}
