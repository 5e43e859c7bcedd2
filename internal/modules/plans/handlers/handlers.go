// Package handlers provides HTTP handlers for plan generation and editing.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/aristath/cpagateway/internal/modules/generator"
	"github.com/aristath/cpagateway/internal/modules/plans"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Handler handles plan HTTP requests
type Handler struct {
	service *plans.Service
	log     zerolog.Logger
}

// NewHandler creates a new plan handler
func NewHandler(service *plans.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "plans").Logger(),
	}
}

// ExtraRequest is the body of POST /api/plans/{id}/extra.
type ExtraRequest struct {
	Agent int `json:"agent"`
}

// HandleGenerate handles POST /api/plans
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	var req plans.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	plan, err := h.service.Generate(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, plan)
}

// HandleList handles GET /api/plans
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 {
			limit = parsedLimit
		}
	}

	infos, err := h.service.List(r.Context(), limit)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"plans": infos,
		"count": len(infos),
	})
}

// HandleGet handles GET /api/plans/{id}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.planID(w, r)
	if !ok {
		return
	}

	plan, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, plan)
}

// HandleSummary handles GET /api/plans/{id}/summary
func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	id, ok := h.planID(w, r)
	if !ok {
		return
	}

	summary, err := h.service.Summarize(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, summary)
}

// HandleRegenerateAll handles POST /api/plans/{id}/regenerate
func (h *Handler) HandleRegenerateAll(w http.ResponseWriter, r *http.Request) {
	id, ok := h.planID(w, r)
	if !ok {
		return
	}

	plan, err := h.service.RegenerateAll(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, plan)
}

// HandleRegeneratePlayer handles POST /api/plans/{id}/players/{playerID}/regenerate
func (h *Handler) HandleRegeneratePlayer(w http.ResponseWriter, r *http.Request) {
	id, ok := h.planID(w, r)
	if !ok {
		return
	}

	plan, err := h.service.RegeneratePlayer(r.Context(), id, chi.URLParam(r, "playerID"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, plan)
}

// HandleAdjust handles POST /api/plans/{id}/adjust
func (h *Handler) HandleAdjust(w http.ResponseWriter, r *http.Request) {
	id, ok := h.planID(w, r)
	if !ok {
		return
	}

	var req generator.AdjustRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, plan, err := h.service.Adjust(r.Context(), id, req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"adjustment": result,
		"plan":       plan,
	})
}

// HandleAddExtra handles POST /api/plans/{id}/extra
func (h *Handler) HandleAddExtra(w http.ResponseWriter, r *http.Request) {
	id, ok := h.planID(w, r)
	if !ok {
		return
	}

	var req ExtraRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	extra, plan, err := h.service.AddExtra(r.Context(), id, req.Agent)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"player": extra,
		"plan":   plan,
	})
}

// HandleCommit handles POST /api/plans/{id}/commit
func (h *Handler) HandleCommit(w http.ResponseWriter, r *http.Request) {
	id, ok := h.planID(w, r)
	if !ok {
		return
	}

	plan, err := h.service.Commit(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, plan)
}

// HandleDelete handles DELETE /api/plans/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.planID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) planID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid plan id")
		return uuid.Nil, false
	}
	return id, true
}

// writeServiceError maps service errors to HTTP statuses.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, generator.ErrInvalidRequest):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, plans.ErrPlanNotFound),
		errors.Is(err, generator.ErrPlayerNotFound),
		errors.Is(err, generator.ErrAgentNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, plans.ErrAlreadyCommitted):
		h.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, generator.ErrNoDeficit),
		errors.Is(err, generator.ErrNotEnoughTesters),
		errors.Is(err, generator.ErrInvalidTesterCount):
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.log.Error().Err(err).Msg("Plan operation failed")
		h.writeError(w, http.StatusInternalServerError, "Plan operation failed")
	}
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
