package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"voicesearch/catalog/models"
)

type FilmService interface {
	GetByID(ctx context.Context, id string) (*models.Film, error)
	List(ctx context.Context, sort models.Sort, page models.Page, filter models.FilmFilter) ([]models.FilmSummary, error)
	Search(ctx context.Context, text string, page models.Page, processID string) ([]models.FilmSummary, error)
}

type FilmHandler struct {
	service FilmService
	logger  *zap.Logger
}

func NewFilmHandler(service FilmService, logger *zap.Logger) *FilmHandler {
	return &FilmHandler{service: service, logger: logger}
}

func (h *FilmHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/search", h.Search)
	r.Get("/{film_id}", h.Details)
}

func (h *FilmHandler) Details(w http.ResponseWriter, r *http.Request) {
	film, err := h.service.GetByID(r.Context(), chi.URLParam(r, "film_id"))
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, film)
}

func (h *FilmHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	sort, err := parseSort(r, models.FilmSort)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	q := r.URL.Query()
	filter := models.FilmFilter{
		Genre:    q.Get("genre"),
		Actor:    q.Get("actor"),
		Director: q.Get("director"),
		Writer:   q.Get("writer"),
	}

	films, err := h.service.List(r.Context(), sort, page, filter)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, films)
}

func (h *FilmHandler) Search(w http.ResponseWriter, r *http.Request) {
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

	films, err := h.service.Search(r.Context(), text, page, r.URL.Query().Get("process_id"))
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, films)
}
