// Package main is the entry point for the CPA gateway plan service.
// The service generates synthetic deposit plans for tester players, keeps the
// committed deposit history that later plans avoid, and exposes both over HTTP.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aristath/cpagateway/internal/config"
	"github.com/aristath/cpagateway/internal/di"
	"github.com/aristath/cpagateway/internal/scheduler"
	"github.com/aristath/cpagateway/internal/server"
	"github.com/aristath/cpagateway/pkg/logger"
)

// main orchestrates startup:
// 1. Loads configuration from environment variables (.env supported)
// 2. Initializes logging
// 3. Wires databases, repositories, services and jobs via the DI container
// 4. Schedules daily maintenance
// 5. Runs the HTTP server until SIGINT or SIGTERM, then shuts down gracefully
//
// Databases:
// - history.db: Committed deposit values and manually avoided values
// - plans.db: Generated plans
// - config.db: Runtime settings (history window, generator defaults)
func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:   cfg.LogLevel,
		Pretty:  cfg.DevMode,
		Service: "cpa-gateway",
	})
	logger.SetGlobalLogger(log)

	log.Info().
		Str("data_dir", cfg.DataDir).
		Int("port", cfg.Port).
		Msg("Starting CPA gateway")

	container, err := di.Wire(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer func() {
		if err := container.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close databases")
		}
	}()

	// Background jobs
	sched := scheduler.New(log)
	if err := sched.AddJob(cfg.MaintenanceSchedule, container.MaintenanceJob); err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.MaintenanceSchedule).Msg("Failed to schedule maintenance")
	}
	sched.Start()

	srv := server.New(server.Config{
		Log:       log,
		Container: container,
		Scheduler: sched,
		DataDir:   cfg.DataDir,
		Port:      cfg.Port,
		DevMode:   cfg.DevMode,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down server...")

		// In-flight requests get 10 seconds to finish
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		sched.Stop()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server stopped with error")
		container.Close()
		os.Exit(1)
	}

	log.Info().Msg("Server stopped")
}
