package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aristath/cpagateway/internal/config"
	"github.com/aristath/cpagateway/internal/di"
	"github.com/aristath/cpagateway/internal/scheduler"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupServer(t *testing.T) *Server {
	t.Helper()

	cfg := &config.Config{
		DataDir:             t.TempDir(),
		Port:                8080,
		DevMode:             true,
		RandomSeed:          3,
		HistoryWindowDays:   90,
		MaintenanceSchedule: "0 0 3 * * *",
	}
	container, err := di.Wire(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { container.Close() })

	return New(Config{
		Log:       zerolog.Nop(),
		Container: container,
		Scheduler: scheduler.New(zerolog.Nop()),
		DataDir:   cfg.DataDir,
		Port:      cfg.Port,
		DevMode:   cfg.DevMode,
	})
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	s := setupServer(t)

	w := do(t, s, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body struct {
		Status    string            `json:"status"`
		Service   string            `json:"service"`
		Databases map[string]string `json:"databases"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "cpa-gateway", body.Service)
	assert.Equal(t, map[string]string{"history": "ok", "plans": "ok", "config": "ok"}, body.Databases)
}

func TestHealth_DegradedWhenDatabaseClosed(t *testing.T) {
	s := setupServer(t)
	require.NoError(t, s.container.PlansDB.Close())

	w := do(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"degraded"`)
}

func TestRoutes_ModulesMounted(t *testing.T) {
	s := setupServer(t)

	w := do(t, s, http.MethodPost, "/api/plans/", `{"count": 4, "agents": 2}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var plan struct {
		ID      string            `json:"id"`
		Players []json.RawMessage `json:"players"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &plan))
	assert.NotEmpty(t, plan.ID)
	assert.Len(t, plan.Players, 4)

	w = do(t, s, http.MethodGet, "/api/plans/"+plan.ID+"/summary", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, s, http.MethodGet, "/api/history/", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, s, http.MethodGet, "/api/settings/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "history_window_days")
}

func TestCORSPreflight(t *testing.T) {
	s := setupServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/plans/", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestSystemRoutes(t *testing.T) {
	s := setupServer(t)

	t.Run("database stats", func(t *testing.T) {
		w := do(t, s, http.MethodGet, "/api/system/database/stats", "")
		require.Equal(t, http.StatusOK, w.Code)
		var body struct {
			Databases []DatabaseStatsResponse `json:"databases"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		require.Len(t, body.Databases, 3)
		assert.Equal(t, "config", body.Databases[0].Name)
		assert.Equal(t, "history", body.Databases[1].Name)
		assert.Equal(t, "ledger", body.Databases[1].Profile)
		assert.Positive(t, body.Databases[2].PageCount)
	})

	t.Run("list jobs", func(t *testing.T) {
		w := do(t, s, http.MethodGet, "/api/system/jobs", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "daily_maintenance")
	})

	t.Run("trigger maintenance", func(t *testing.T) {
		w := do(t, s, http.MethodPost, "/api/system/jobs/daily_maintenance", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"ok"`)

		w = do(t, s, http.MethodGet, "/api/system/jobs", "")
		assert.Contains(t, w.Body.String(), "last_run")
	})

	t.Run("trigger unknown job", func(t *testing.T) {
		w := do(t, s, http.MethodPost, "/api/system/jobs/nope", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
