package server

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/cpagateway/internal/database"
	"github.com/aristath/cpagateway/internal/scheduler"
)

// SystemStatusResponse represents system status
type SystemStatusResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds int64   `json:"uptime_seconds"`
	GoVersion     string  `json:"go_version"`
	Goroutines    int     `json:"goroutines"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	DiskFreeBytes uint64  `json:"disk_free_bytes"`
	DiskUsedPct   float64 `json:"disk_used_percent"`
}

// DatabaseStatsResponse describes one database file
type DatabaseStatsResponse struct {
	Name          string  `json:"name"`
	Profile       string  `json:"profile"`
	SizeMB        float64 `json:"size_mb"`
	WALSizeMB     float64 `json:"wal_size_mb"`
	PageCount     int64   `json:"page_count"`
	FreelistCount int64   `json:"freelist_count"`
	Error         string  `json:"error,omitempty"`
}

// JobRun records the outcome of the last manual run of a job
type JobRun struct {
	Job        string    `json:"job"`
	StartedAt  time.Time `json:"started_at"`
	DurationMs int64     `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
}

// SystemHandlers serves host status, database statistics and manual job triggers.
type SystemHandlers struct {
	log       zerolog.Logger
	dataDir   string
	databases map[string]*database.DB
	scheduler *scheduler.Scheduler
	startedAt time.Time

	mu       sync.Mutex
	jobs     map[string]scheduler.Job
	lastRuns map[string]JobRun
}

// NewSystemHandlers creates system handlers. sched may be nil, in which case
// triggered jobs run directly.
func NewSystemHandlers(log zerolog.Logger, dataDir string, databases map[string]*database.DB, sched *scheduler.Scheduler) *SystemHandlers {
	return &SystemHandlers{
		log:       log.With().Str("handler", "system").Logger(),
		dataDir:   dataDir,
		databases: databases,
		scheduler: sched,
		startedAt: time.Now(),
		jobs:      make(map[string]scheduler.Job),
		lastRuns:  make(map[string]JobRun),
	}
}

// RegisterJob makes a job available for manual triggering.
func (h *SystemHandlers) RegisterJob(job scheduler.Job) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.jobs[job.Name()] = job
}

// HandleSystemStatus returns host and process status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting system status")

	cpuPercent, memPercent := h.getSystemStats()
	response := SystemStatusResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
		GoVersion:     runtime.Version(),
		Goroutines:    runtime.NumGoroutine(),
		CPUPercent:    cpuPercent,
		MemoryPercent: memPercent,
	}

	if h.dataDir != "" {
		if usage, err := disk.Usage(h.dataDir); err == nil {
			response.DiskFreeBytes = usage.Free
			response.DiskUsedPct = usage.UsedPercent
		} else {
			h.log.Warn().Err(err).Msg("Failed to get disk usage")
		}
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleDatabaseStats returns size and page statistics for every database
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(h.databases))
	for name := range h.databases {
		names = append(names, name)
	}
	sort.Strings(names)

	result := make([]DatabaseStatsResponse, 0, len(names))
	for _, name := range names {
		db := h.databases[name]
		entry := DatabaseStatsResponse{Name: name, Profile: string(db.Profile())}

		stats, err := db.GetStats()
		if err != nil {
			h.log.Error().Err(err).Str("database", name).Msg("Failed to get database stats")
			entry.Error = err.Error()
			result = append(result, entry)
			continue
		}

		entry.SizeMB = float64(stats.SizeBytes) / 1024 / 1024
		entry.WALSizeMB = float64(stats.WALSizeBytes) / 1024 / 1024
		entry.PageCount = stats.PageCount
		entry.FreelistCount = stats.FreelistCount
		result = append(result, entry)
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"databases": result})
}

// HandleJobs lists registered jobs and their last manual run
func (h *SystemHandlers) HandleJobs(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	jobs := make([]map[string]interface{}, 0, len(h.jobs))
	for name := range h.jobs {
		entry := map[string]interface{}{"name": name}
		if run, ok := h.lastRuns[name]; ok {
			entry["last_run"] = run
		}
		jobs = append(jobs, entry)
	}
	h.mu.Unlock()

	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i]["name"].(string) < jobs[j]["name"].(string)
	})

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"jobs": jobs})
}

// HandleTriggerJob runs a registered job immediately and waits for it
func (h *SystemHandlers) HandleTriggerJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	h.mu.Lock()
	job, ok := h.jobs[name]
	h.mu.Unlock()
	if !ok {
		h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "job not found"})
		return
	}

	h.log.Info().Str("job", name).Msg("Manual job triggered")

	run := JobRun{Job: name, StartedAt: time.Now()}
	var err error
	if h.scheduler != nil {
		err = h.scheduler.RunNow(job)
	} else {
		err = job.Run()
	}
	run.DurationMs = time.Since(run.StartedAt).Milliseconds()
	if err != nil {
		run.Error = err.Error()
	}

	h.mu.Lock()
	h.lastRuns[name] = run
	h.mu.Unlock()

	if err != nil {
		h.log.Error().Err(err).Str("job", name).Msg("Manual job failed")
		h.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"error": err.Error(), "run": run})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "run": run})
}

// getSystemStats returns CPU and RAM usage percentages.
// CPU is sampled over 100ms to keep the call short.
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
