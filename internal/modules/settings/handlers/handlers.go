// Package handlers provides HTTP handlers for settings management.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/aristath/cpagateway/internal/modules/generator"
	"github.com/aristath/cpagateway/internal/modules/settings"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler provides HTTP handlers for settings endpoints
type Handler struct {
	service *settings.Service
	log     zerolog.Logger
}

// NewHandler creates a new settings handler
func NewHandler(service *settings.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "settings").Logger(),
	}
}

// HandleGetAll handles GET /api/settings
func (h *Handler) HandleGetAll(w http.ResponseWriter, r *http.Request) {
	all, err := h.service.GetAll(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get all settings")
		h.writeError(w, http.StatusInternalServerError, "Failed to get settings")
		return
	}

	h.writeJSON(w, http.StatusOK, all)
}

// HandleUpdate handles PUT /api/settings/{key}
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var update settings.SettingUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	switch key {
	case settings.KeyHistoryWindowDays:
		days, ok := update.Value.(float64)
		if !ok {
			h.writeError(w, http.StatusBadRequest, fmt.Sprintf("%s must be a number", key))
			return
		}
		if err := h.service.SetHistoryWindowDays(r.Context(), int(days)); err != nil {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	default:
		h.writeError(w, http.StatusNotFound, fmt.Sprintf("Unknown setting %q", key))
		return
	}

	h.log.Info().Str("key", key).Interface("value", update.Value).Msg("Setting updated")
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"key": key, "value": update.Value})
}

// HandleGetGenerator handles GET /api/settings/generator
func (h *Handler) HandleGetGenerator(w http.ResponseWriter, r *http.Request) {
	defaults, err := h.service.GeneratorDefaults(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get generator defaults")
		h.writeError(w, http.StatusInternalServerError, "Failed to get generator defaults")
		return
	}

	h.writeJSON(w, http.StatusOK, defaults)
}

// HandleUpdateGenerator handles PUT /api/settings/generator
func (h *Handler) HandleUpdateGenerator(w http.ResponseWriter, r *http.Request) {
	var defaults settings.GeneratorDefaults
	if err := json.NewDecoder(r.Body).Decode(&defaults); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.service.SaveGeneratorDefaults(r.Context(), defaults); err != nil {
		if errors.Is(err, generator.ErrInvalidRequest) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error().Err(err).Msg("Failed to save generator defaults")
		h.writeError(w, http.StatusInternalServerError, "Failed to save generator defaults")
		return
	}

	h.writeJSON(w, http.StatusOK, defaults)
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
