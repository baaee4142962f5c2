package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Mount registers the search API under /api/v1. uploadLimit wraps only the
// upload route.
func Mount(r chi.Router, h *TaskHandler, uploadLimit func(http.Handler) http.Handler) {
	r.Route("/api/v1", func(r chi.Router) {
		r.With(uploadLimit).Post("/search", h.Upload)
		r.Get("/search/result", h.Result)
	})
}
