// Package handlers provides HTTP handlers for deposit history and the avoid list.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/aristath/cpagateway/internal/modules/history"
	"github.com/rs/zerolog"
)

// Handler handles history HTTP requests
type Handler struct {
	service *history.Service
	log     zerolog.Logger
}

// NewHandler creates a new history handler
func NewHandler(service *history.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "history").Logger(),
	}
}

// AppendRequest is the body of POST /api/history.
// Records and the numbers found in Text are both stored.
type AppendRequest struct {
	Records []history.Record `json:"records"`
	Text    string           `json:"text"`
	Agent   int              `json:"agent"`
}

// AvoidRequest is the body of PUT /api/history/avoid.
type AvoidRequest struct {
	Text   string `json:"text"`
	Note   string `json:"note"`
	Append bool   `json:"append"`
}

// HandleList handles GET /api/history
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit := 100 // default
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 {
			limit = parsedLimit
		}
	}

	records, total, err := h.service.List(r.Context(), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list deposit history")
		h.writeError(w, http.StatusInternalServerError, "Failed to list deposit history")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"records": records,
			"count":   len(records),
			"total":   total,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleAppend handles POST /api/history
func (h *Handler) HandleAppend(w http.ResponseWriter, r *http.Request) {
	var req AppendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if len(req.Records) == 0 && req.Text == "" {
		h.writeError(w, http.StatusBadRequest, "Either records or text is required")
		return
	}

	if err := h.service.Record(r.Context(), req.Records); err != nil {
		h.writeServiceError(w, err)
		return
	}
	stored := req.Records

	if req.Text != "" {
		parsed, err := h.service.RecordText(r.Context(), req.Text, req.Agent)
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		stored = append(stored, parsed...)
	}

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"data": map[string]interface{}{
			"records": stored,
			"count":   len(stored),
		},
	})
}

// HandleGetAvoid handles GET /api/history/avoid
func (h *Handler) HandleGetAvoid(w http.ResponseWriter, r *http.Request) {
	values, err := h.service.AvoidValues(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list avoid values")
		h.writeError(w, http.StatusInternalServerError, "Failed to list avoid values")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"values": values,
			"count":  len(values),
		},
	})
}

// HandlePutAvoid handles PUT /api/history/avoid
func (h *Handler) HandlePutAvoid(w http.ResponseWriter, r *http.Request) {
	var req AvoidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	update := h.service.ReplaceAvoidText
	if req.Append {
		update = h.service.AddAvoidText
	}
	values, err := update(r.Context(), req.Text, req.Note)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"values": values,
			"count":  len(values),
		},
	})
}

// HandleClearAvoid handles DELETE /api/history/avoid
func (h *Handler) HandleClearAvoid(w http.ResponseWriter, r *http.Request) {
	removed, err := h.service.ClearAvoidValues(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{"removed": removed},
	})
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	if errors.Is(err, history.ErrInvalidRecord) {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.log.Error().Err(err).Msg("History operation failed")
	h.writeError(w, http.StatusInternalServerError, "History operation failed")
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
