package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/alexivanou/sportslocations/internal/model"
	"github.com/alexivanou/sportslocations/internal/service"
	"github.com/alexivanou/sportslocations/internal/upstream"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// maxLayoutBody bounds PUT /layouts bodies
const maxLayoutBody = 1 << 20

// Handler handles HTTP requests
type Handler struct {
	service service.ServiceInterface
	logger  *zap.Logger
}

// NewHandler creates a new handler instance
func NewHandler(service service.ServiceInterface, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, logger: logger}
}

// SearchLocations handles GET /api/v1/locations/search.
// Every parameter other than search and page is passed through as a filter.
func (h *Handler) SearchLocations(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()

	q := model.QueryParams{Search: values.Get("search"), Page: 1}
	if pageStr := values.Get("page"); pageStr != "" {
		page, err := strconv.Atoi(pageStr)
		if err != nil || page < 1 {
			http.Error(w, "invalid page parameter", http.StatusBadRequest)
			return
		}
		q.Page = page
	}

	for key := range values {
		if key == "search" || key == "page" {
			continue
		}
		if q.Filters == nil {
			q.Filters = make(map[string]string)
		}
		q.Filters[key] = values.Get(key)
	}

	response, err := h.service.SearchLocations(r.Context(), q)
	if err != nil {
		h.writeError(w, r, "Error searching locations", err)
		return
	}

	h.writeJSON(w, http.StatusOK, response)
}

// GetLayout handles GET /api/v1/layouts/{id}
func (h *Handler) GetLayout(w http.ResponseWriter, r *http.Request) {
	layout, err := h.service.GetLayout(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, "Error getting layout", err)
		return
	}
	h.writeJSON(w, http.StatusOK, layout)
}

// SaveLayout handles PUT /api/v1/layouts/{id}
func (h *Handler) SaveLayout(w http.ResponseWriter, r *http.Request) {
	var layout model.Layout
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxLayoutBody)).Decode(&layout); err != nil {
		http.Error(w, "invalid layout body", http.StatusBadRequest)
		return
	}
	layout.ID = mux.Vars(r)["id"]

	saved, err := h.service.SaveLayout(r.Context(), &layout)
	if err != nil {
		h.writeError(w, r, "Error saving layout", err)
		return
	}
	h.writeJSON(w, http.StatusOK, saved)
}

// DeleteLayout handles DELETE /api/v1/layouts/{id}
func (h *Handler) DeleteLayout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteLayout(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.writeError(w, r, "Error deleting layout", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetLayoutOutput handles GET /api/v1/layouts/{id}/output
func (h *Handler) GetLayoutOutput(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.GetLayoutOutput(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, "Error getting layout output", err)
		return
	}
	h.writeJSON(w, http.StatusOK, out)
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// writeError maps service errors to status codes
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status := http.StatusInternalServerError
	text := "internal server error"

	switch {
	case errors.Is(err, upstream.ErrUnavailable):
		status, text = http.StatusBadGateway, "search backend unavailable"
	case errors.Is(err, service.ErrLayoutNotFound):
		status, text = http.StatusNotFound, "layout not found"
	case errors.Is(err, service.ErrInvalidLayoutID), errors.Is(err, service.ErrInvalidModule):
		status, text = http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrSelectionLimitExceeded), errors.Is(err, service.ErrSelectionBelowMinimum):
		status, text = http.StatusUnprocessableEntity, err.Error()
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error(msg,
			zap.String("request_id", RequestIDFromContext(r.Context())),
			zap.Error(err),
		)
	}
	http.Error(w, text, status)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Error encoding response", zap.Error(err))
	}
}
