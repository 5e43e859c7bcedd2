package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aristath/cpagateway/internal/modules/settings"
	testutil "github.com/aristath/cpagateway/internal/testing"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T) chi.Router {
	t.Helper()
	db := testutil.NewTestDB(t, "config")
	log := zerolog.Nop()
	svc := settings.NewService(settings.NewRepository(db.Conn(), log), log)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		NewHandler(svc, log).RegisterRoutes(r)
	})
	return r
}

func do(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandleGetAll(t *testing.T) {
	r := setupRouter(t)

	w := do(t, r, http.MethodGet, "/api/settings/", "")

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 90.0, body[settings.KeyHistoryWindowDays])
}

func TestHandleUpdate(t *testing.T) {
	r := setupRouter(t)

	w := do(t, r, http.MethodPut, "/api/settings/history_window_days", `{"value": 21}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodGet, "/api/settings/", "")
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 21.0, body[settings.KeyHistoryWindowDays])

	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"not a number", "/api/settings/history_window_days", `{"value": "x"}`, http.StatusBadRequest},
		{"negative", "/api/settings/history_window_days", `{"value": -3}`, http.StatusBadRequest},
		{"broken body", "/api/settings/history_window_days", `{`, http.StatusBadRequest},
		{"unknown key", "/api/settings/nope", `{"value": 1}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, r, http.MethodPut, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}
}

func TestHandleGeneratorDefaults(t *testing.T) {
	r := setupRouter(t)

	w := do(t, r, http.MethodGet, "/api/settings/generator", "")
	require.Equal(t, http.StatusOK, w.Code)
	var got settings.GeneratorDefaults
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, settings.DefaultGeneratorDefaults(), got)

	update := `{"agents": 2, "quotas": {"1": 3, "2": 2}, "params": {
		"testador": 50, "cetico": 50, "ambicioso": 0, "viciado": 0,
		"minBaixo": 10, "maxBaixo": 40, "minAlto": 100, "maxAlto": 200, "alvo": 0}}`
	w = do(t, r, http.MethodPut, "/api/settings/generator", update)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, r, http.MethodGet, "/api/settings/generator", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 2, got.Agents)
	assert.Equal(t, 5, got.Quotas.Total())
	assert.Equal(t, 40, got.Params.MaxLow)
}

func TestHandleUpdateGenerator_Invalid(t *testing.T) {
	r := setupRouter(t)

	w := do(t, r, http.MethodPut, "/api/settings/generator", `{"agents": 0, "params": {"testador": 100}}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid plan request")
}
