package di

import (
	"context"
	"fmt"

	"github.com/aristath/cpagateway/internal/config"
	"github.com/aristath/cpagateway/internal/modules/history"
	"github.com/aristath/cpagateway/internal/modules/plans"
	"github.com/aristath/cpagateway/internal/modules/settings"
	"github.com/aristath/cpagateway/internal/reliability"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
)

// InitializeRepositories creates the data access layer on top of the open databases.
func InitializeRepositories(container *Container, log zerolog.Logger) error {
	if container.HistoryDB == nil || container.PlansDB == nil || container.ConfigDB == nil {
		return fmt.Errorf("databases not initialized")
	}

	container.HistoryRepo = history.NewRepository(sqlx.NewDb(container.HistoryDB.Conn(), "sqlite"), log)
	container.PlansRepo = plans.NewRepository(container.PlansDB.Conn(), log)
	container.SettingsRepo = settings.NewRepository(container.ConfigDB.Conn(), log)

	log.Debug().Msg("Repositories initialized")
	return nil
}

// InitializeServices creates the business logic layer.
//
// The history window in the environment only seeds the settings table on first
// start. Afterwards the stored setting wins and the history service reads it live.
func InitializeServices(ctx context.Context, container *Container, cfg *config.Config, log zerolog.Logger) error {
	container.SettingsService = settings.NewService(container.SettingsRepo, log)

	stored, err := container.SettingsRepo.Get(ctx, settings.KeyHistoryWindowDays)
	if err != nil {
		return fmt.Errorf("failed to read history window: %w", err)
	}
	if stored == nil {
		if err := container.SettingsService.SetHistoryWindowDays(ctx, cfg.HistoryWindowDays); err != nil {
			return fmt.Errorf("failed to seed history window: %w", err)
		}
	}
	if err := cfg.UpdateFromSettings(ctx, container.SettingsRepo); err != nil {
		return err
	}

	container.HistoryService = history.NewService(container.HistoryRepo, container.SettingsService, log)
	container.PlansService = plans.NewService(
		container.PlansRepo,
		container.HistoryService,
		container.SettingsService,
		cfg.RandomSeed,
		log,
	)

	log.Debug().
		Int("history_window_days", cfg.HistoryWindowDays).
		Bool("fixed_seed", cfg.RandomSeed != 0).
		Msg("Services initialized")
	return nil
}

// RegisterJobs creates the background jobs. Scheduling is left to the caller.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) error {
	container.MaintenanceJob = reliability.NewMaintenanceJob(
		container.Databases(),
		container.HistoryService,
		cfg.DataDir,
		log,
	)
	return nil
}
