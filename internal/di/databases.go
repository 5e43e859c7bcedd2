// Package di provides dependency injection for database connections.
package di

import (
	"fmt"

	"github.com/aristath/cpagateway/internal/config"
	"github.com/aristath/cpagateway/internal/database"
	"github.com/rs/zerolog"
)

// databaseDefs lists the gateway databases in open order.
var databaseDefs = []struct {
	name    string
	profile database.DatabaseProfile
}{
	{"history", database.ProfileLedger}, // Committed deposits must survive crashes
	{"plans", database.ProfileStandard},
	{"config", database.ProfileStandard},
}

// InitializeDatabases opens all 3 databases and applies schemas
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	for _, def := range databaseDefs {
		db, err := database.New(database.Config{
			Path:    cfg.DatabasePath(def.name),
			Profile: def.profile,
			Name:    def.name,
		})
		if err != nil {
			container.Close()
			return nil, fmt.Errorf("failed to initialize %s database: %w", def.name, err)
		}

		switch def.name {
		case "history":
			container.HistoryDB = db
		case "plans":
			container.PlansDB = db
		case "config":
			container.ConfigDB = db
		}

		if err := db.Migrate(); err != nil {
			container.Close()
			return nil, fmt.Errorf("failed to apply schema to %s: %w", def.name, err)
		}
	}

	log.Info().Str("data_dir", cfg.DataDir).Msg("All databases initialized and schemas applied")

	return container, nil
}
