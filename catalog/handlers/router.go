package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Mount registers the catalog API under /api/v1.
func Mount(r chi.Router, films *FilmHandler, genres *GenreHandler, persons *PersonHandler) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/films", films.Routes)
		r.Route("/genres", genres.Routes)
		r.Route("/persons", persons.Routes)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, NotFoundMessage)
	})
}
