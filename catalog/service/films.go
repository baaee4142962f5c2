package service

import (
	"context"

	"voicesearch/catalog/models"
	"voicesearch/catalog/query"
)

type FilmService struct {
	base  *Base
	index string
}

func NewFilmService(base *Base, index string) *FilmService {
	return &FilmService{base: base, index: index}
}

func (s *FilmService) GetByID(ctx context.Context, id string) (*models.Film, error) {
	doc, found, err := s.base.GetByID(ctx, id, s.index)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, models.ErrNotFound
	}
	return decodeOne[models.Film](doc)
}

func (s *FilmService) List(ctx context.Context, sort models.Sort, page models.Page, filter models.FilmFilter) ([]models.FilmSummary, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}

	key := ListKey{Index: s.index, Sort: sort, Page: page, Filter: filter}
	docs, err := s.base.GetList(ctx, s.index, query.List(sort, page, filter), key.String())
	if err != nil {
		return nil, err
	}
	return decodeAll[models.FilmSummary](docs)
}

// Search matches text against film titles. A non-empty processID also
// delivers the result to the task with that id.
func (s *FilmService) Search(ctx context.Context, text string, page models.Page, processID string) ([]models.FilmSummary, error) {
	if err := validateQuery(text); err != nil {
		return nil, err
	}
	return searchByQuery[models.FilmSummary](ctx, s.base, SearchRequest{
		Index:     s.index,
		Field:     "title",
		Text:      text,
		Page:      page,
		ProcessID: processID,
	})
}
