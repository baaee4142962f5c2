package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"voicesearch/catalog/models"
)

type GenreService interface {
	GetByID(ctx context.Context, id string) (*models.Genre, error)
	List(ctx context.Context, sort models.Sort, page models.Page) ([]models.GenreSummary, error)
	Search(ctx context.Context, text string, page models.Page, processID string) ([]models.GenreSummary, error)
}

type GenreHandler struct {
	service GenreService
	logger  *zap.Logger
}

func NewGenreHandler(service GenreService, logger *zap.Logger) *GenreHandler {
	return &GenreHandler{service: service, logger: logger}
}

func (h *GenreHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/search", h.Search)
	r.Get("/{genre_id}", h.Details)
}

func (h *GenreHandler) Details(w http.ResponseWriter, r *http.Request) {
	genre, err := h.service.GetByID(r.Context(), chi.URLParam(r, "genre_id"))
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, genre)
}

func (h *GenreHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	sort, err := parseSort(r, models.GenreSort)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	genres, err := h.service.List(r.Context(), sort, page)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, genres)
}

func (h *GenreHandler) Search(w http.ResponseWriter, r *http.Request) {
	text, err := searchText(r)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	page, err := parsePage(r)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	genres, err := h.service.Search(r.Context(), text, page, r.URL.Query().Get("process_id"))
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, genres)
}
