/**
 * Package di provides dependency injection type definitions.
 *
 * The Container holds every long-lived dependency of the gateway and is
 * passed to the HTTP server and the scheduler.
 */
package di

import (
	"errors"

	"github.com/aristath/cpagateway/internal/database"
	"github.com/aristath/cpagateway/internal/modules/history"
	"github.com/aristath/cpagateway/internal/modules/plans"
	"github.com/aristath/cpagateway/internal/modules/settings"
	"github.com/aristath/cpagateway/internal/reliability"
)

/**
 * Container holds all dependencies for the application.
 *
 * Architecture:
 * - Databases: history (ledger profile), plans, config
 * - Repositories: data access for deposit history, plans and settings
 * - Services: settings, history (avoid sets, pruning), plans (generation and edits)
 * - Jobs: daily maintenance
 */
type Container struct {
	// Databases
	HistoryDB *database.DB // Committed deposit values and stored avoid values
	PlansDB   *database.DB // Generated plans as msgpack payloads
	ConfigDB  *database.DB // Runtime settings

	// Repositories
	HistoryRepo  *history.Repository
	PlansRepo    *plans.Repository
	SettingsRepo *settings.Repository

	// Services
	SettingsService *settings.Service
	HistoryService  *history.Service
	PlansService    *plans.Service

	// Jobs
	MaintenanceJob *reliability.MaintenanceJob
}

// Databases returns the open databases keyed by name.
func (c *Container) Databases() map[string]*database.DB {
	dbs := make(map[string]*database.DB, 3)
	for _, db := range []*database.DB{c.HistoryDB, c.PlansDB, c.ConfigDB} {
		if db != nil {
			dbs[db.Name()] = db
		}
	}
	return dbs
}

// Close closes every open database and returns the joined close errors.
func (c *Container) Close() error {
	var errs []error
	for _, db := range []*database.DB{c.HistoryDB, c.PlansDB, c.ConfigDB} {
		if db == nil {
			continue
		}
		if err := db.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
