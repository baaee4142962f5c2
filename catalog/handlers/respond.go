package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"voicesearch/catalog/models"
	"voicesearch/pkg/logger"
	"voicesearch/pkg/middleware"
)

// NotFoundMessage is the fixed body message of every 404.
const NotFoundMessage = "not found"

type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	respondJSON(w, status, ErrorResponse{
		Error:   message,
		TraceID: middleware.GetTraceID(r.Context()),
	})
}

// handleError maps service errors onto HTTP statuses. Unexpected errors are
// logged and reported as 500 without details.
func handleError(w http.ResponseWriter, r *http.Request, base *zap.Logger, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		respondError(w, r, http.StatusNotFound, NotFoundMessage)
	case errors.Is(err, models.ErrInvalidPage),
		errors.Is(err, models.ErrInvalidSort),
		errors.Is(err, models.ErrInvalidQuery):
		respondError(w, r, http.StatusUnprocessableEntity, err.Error())
	default:
		logger.FromContext(r.Context(), base).Error("Catalog request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		respondError(w, r, http.StatusInternalServerError, "internal error")
	}
}
