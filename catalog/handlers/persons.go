package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"voicesearch/catalog/models"
)

type PersonService interface {
	GetByID(ctx context.Context, id string) (*models.PersonDetail, error)
	List(ctx context.Context, sort models.Sort, page models.Page) ([]models.Person, error)
	Films(ctx context.Context, personID string, page *models.Page) ([]models.FilmSummary, error)
	Search(ctx context.Context, text string, page models.Page, processID string) ([]models.PersonDetail, error)
}

type PersonHandler struct {
	service PersonService
	logger  *zap.Logger
}

func NewPersonHandler(service PersonService, logger *zap.Logger) *PersonHandler {
	return &PersonHandler{service: service, logger: logger}
}

func (h *PersonHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/search", h.Search)
	r.Get("/{person_id}", h.Details)
	r.Get("/{person_id}/film", h.Films)
}

func (h *PersonHandler) Details(w http.ResponseWriter, r *http.Request) {
	person, err := h.service.GetByID(r.Context(), chi.URLParam(r, "person_id"))
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, person)
}

func (h *PersonHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	sort, err := parseSort(r, models.PersonSort)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	persons, err := h.service.List(r.Context(), sort, page)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, persons)
}

// Films answers 404 when the person has no films.
func (h *PersonHandler) Films(w http.ResponseWriter, r *http.Request) {
	page, err := optionalPage(r)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	films, err := h.service.Films(r.Context(), chi.URLParam(r, "person_id"), page)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	if len(films) == 0 {
		handleError(w, r, h.logger, models.ErrNotFound)
		return
	}
	respondJSON(w, http.StatusOK, films)
}

func (h *PersonHandler) Search(w http.ResponseWriter, r *http.Request) {
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

	persons, err := h.service.Search(r.Context(), text, page, r.URL.Query().Get("process_id"))
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, persons)
}
