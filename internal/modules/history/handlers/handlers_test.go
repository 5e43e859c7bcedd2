package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aristath/cpagateway/internal/modules/history"
	testutil "github.com/aristath/cpagateway/internal/testing"
	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Data struct {
		Records []history.Record  `json:"records"`
		Values  []json.RawMessage `json:"values"`
		Count   int               `json:"count"`
		Total   int               `json:"total"`
		Removed int               `json:"removed"`
	} `json:"data"`
	Error string `json:"error"`
}

func setupRouter(t *testing.T) chi.Router {
	t.Helper()
	db := testutil.NewTestDB(t, "history")
	log := zerolog.Nop()
	repo := history.NewRepository(sqlx.NewDb(db.Conn(), "sqlite"), log)
	svc := history.NewService(repo, history.FixedWindow(90), log)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		NewHandler(svc, log).RegisterRoutes(r)
	})
	return r
}

func do(t *testing.T, r http.Handler, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func TestHandleAppendAndList(t *testing.T) {
	r := setupRouter(t)

	w, env := do(t, r, http.MethodPost, "/api/history/",
		`{"records": [{"value": 25, "type": "redeposit", "agent": 1}], "text": "30 e 45", "agent": 2}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 3, env.Data.Count)

	w, env = do(t, r, http.MethodGet, "/api/history/?limit=2", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, env.Data.Count)
	assert.Equal(t, 3, env.Data.Total)
	assert.Len(t, env.Data.Records, 2)
}

func TestHandleAppend_Errors(t *testing.T) {
	r := setupRouter(t)

	tests := []struct {
		name string
		body string
	}{
		{"broken body", `{`},
		{"empty body", `{}`},
		{"non-positive value", `{"records": [{"value": -4}]}`},
		{"unknown kind", `{"records": [{"value": 4, "type": "bonus"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := do(t, r, http.MethodPost, "/api/history/", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.NotEmpty(t, env.Error)
		})
	}
}

func TestHandleAvoidLifecycle(t *testing.T) {
	r := setupRouter(t)

	w, env := do(t, r, http.MethodPut, "/api/history/avoid/", `{"text": "100, 200"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, env.Data.Count)

	w, env = do(t, r, http.MethodPut, "/api/history/avoid/", `{"text": "300", "append": true}`)
	require.Equal(t, http.StatusOK, w.Code)

	w, env = do(t, r, http.MethodGet, "/api/history/avoid/", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, env.Data.Count)

	w, env = do(t, r, http.MethodPut, "/api/history/avoid/", `{"text": "7"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w, env = do(t, r, http.MethodDelete, "/api/history/avoid/", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, env.Data.Removed)

	_, env = do(t, r, http.MethodGet, "/api/history/avoid/", "")
	assert.Zero(t, env.Data.Count)
}
