package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/shirou/gopsutil/v3/mem"
)

const healthCheckTimeout = 2 * time.Second

// handleHealth reports service status, a quick integrity check of every
// database and host memory usage. Any failing database answers 503.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	names := make([]string, 0, len(s.databases))
	for name := range s.databases {
		names = append(names, name)
	}
	sort.Strings(names)

	status := "healthy"
	databases := make(map[string]string, len(names))
	for _, name := range names {
		if err := s.databases[name].QuickCheck(ctx); err != nil {
			s.log.Warn().Err(err).Str("database", name).Msg("Health check failed")
			databases[name] = err.Error()
			status = "degraded"
			continue
		}
		databases[name] = "ok"
	}

	response := map[string]interface{}{
		"status":         status,
		"version":        "1.0.0",
		"service":        "cpa-gateway",
		"uptime_seconds": int64(time.Since(s.startedAt).Seconds()),
		"databases":      databases,
	}

	if memStat, err := mem.VirtualMemory(); err == nil {
		response["memory"] = map[string]interface{}{
			"used_percent": memStat.UsedPercent,
			"available_mb": float64(memStat.Available) / 1024 / 1024,
		}
	} else {
		s.log.Debug().Err(err).Msg("Failed to get memory statistics")
	}

	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	s.writeJSON(w, code, response)
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
