// Package reliability keeps the databases healthy over long uptimes.
package reliability

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aristath/cpagateway/internal/database"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/disk"
)

// lowDiskBytes is the free-space level below which maintenance warns.
const lowDiskBytes = 500 * 1024 * 1024

// HistoryPruner removes deposit history that fell out of the configured window.
type HistoryPruner interface {
	Prune(ctx context.Context) (int64, error)
}

// MaintenanceJob performs daily database maintenance:
// WAL checkpoints, history pruning, plan database vacuum and a disk space check.
type MaintenanceJob struct {
	databases map[string]*database.DB
	history   HistoryPruner
	dataDir   string
	timeout   time.Duration
	log       zerolog.Logger
}

// NewMaintenanceJob creates a new maintenance job.
// databases is keyed by database name; the "plans" entry, if present, is vacuumed.
func NewMaintenanceJob(
	databases map[string]*database.DB,
	history HistoryPruner,
	dataDir string,
	log zerolog.Logger,
) *MaintenanceJob {
	return &MaintenanceJob{
		databases: databases,
		history:   history,
		dataDir:   dataDir,
		timeout:   5 * time.Minute,
		log:       log.With().Str("job", "daily_maintenance").Logger(),
	}
}

// Name returns the job name for scheduler
func (j *MaintenanceJob) Name() string {
	return "daily_maintenance"
}

// Run executes the maintenance job
func (j *MaintenanceJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	j.log.Info().Msg("Starting daily maintenance")
	startTime := time.Now()

	// Step 1: health check every database, halting on corruption
	for _, name := range j.names() {
		if err := j.databases[name].HealthCheck(ctx); err != nil {
			return fmt.Errorf("database %s failed health check: %w", name, err)
		}
	}

	// Step 2: prune history outside the window
	if j.history != nil {
		if _, err := j.history.Prune(ctx); err != nil {
			return fmt.Errorf("failed to prune history: %w", err)
		}
	}

	// Step 3: WAL checkpoint for all databases (prevent bloat)
	for _, name := range j.names() {
		if err := j.databases[name].WALCheckpoint("TRUNCATE"); err != nil {
			j.log.Warn().
				Str("database", name).
				Err(err).
				Msg("WAL checkpoint failed")
			// Don't return error - this is not critical
		}
	}

	// Step 4: plans are rewritten on every edit, so reclaim their space
	if db, ok := j.databases["plans"]; ok {
		if err := db.Vacuum(); err != nil {
			j.log.Error().Err(err).Msg("VACUUM of plans database failed")
		}
	}

	j.checkDiskSpace()
	j.logDatabaseStats()

	j.log.Info().
		Dur("duration_ms", time.Since(startTime)).
		Msg("Daily maintenance completed successfully")
	return nil
}

func (j *MaintenanceJob) names() []string {
	names := make([]string, 0, len(j.databases))
	for name := range j.databases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// checkDiskSpace warns when the data directory is running out of space.
func (j *MaintenanceJob) checkDiskSpace() {
	if j.dataDir == "" {
		return
	}

	usage, err := disk.Usage(j.dataDir)
	if err != nil {
		j.log.Warn().Err(err).Str("path", j.dataDir).Msg("Failed to read disk usage")
		return
	}

	j.log.Debug().
		Uint64("free_bytes", usage.Free).
		Float64("used_percent", usage.UsedPercent).
		Msg("Disk space check")

	if usage.Free < lowDiskBytes {
		j.log.Warn().
			Uint64("free_bytes", usage.Free).
			Msg("Disk space running low")
	}
}

func (j *MaintenanceJob) logDatabaseStats() {
	for _, name := range j.names() {
		stats, err := j.databases[name].GetStats()
		if err != nil {
			j.log.Error().
				Str("database", name).
				Err(err).
				Msg("Failed to get database stats")
			continue
		}

		j.log.Info().
			Str("database", name).
			Float64("size_mb", float64(stats.SizeBytes)/1024/1024).
			Float64("wal_size_mb", float64(stats.WALSizeBytes)/1024/1024).
			Int64("free_pages", stats.FreelistCount).
			Msg("Database metrics")
	}
}
