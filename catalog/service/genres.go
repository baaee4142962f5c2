package service

import (
	"context"

	"voicesearch/catalog/models"
	"voicesearch/catalog/query"
)

type GenreService struct {
	base  *Base
	index string
}

func NewGenreService(base *Base, index string) *GenreService {
	return &GenreService{base: base, index: index}
}

func (s *GenreService) GetByID(ctx context.Context, id string) (*models.Genre, error) {
	doc, found, err := s.base.GetByID(ctx, id, s.index)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, models.ErrNotFound
	}
	return decodeOne[models.Genre](doc)
}

func (s *GenreService) List(ctx context.Context, sort models.Sort, page models.Page) ([]models.GenreSummary, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}

	key := ListKey{Index: s.index, Sort: sort, Page: page}
	docs, err := s.base.GetList(ctx, s.index, query.List(sort, page, models.FilmFilter{}), key.String())
	if err != nil {
		return nil, err
	}
	return decodeAll[models.GenreSummary](docs)
}

func (s *GenreService) Search(ctx context.Context, text string, page models.Page, processID string) ([]models.GenreSummary, error) {
	if err := validateQuery(text); err != nil {
		return nil, err
	}
	return searchByQuery[models.GenreSummary](ctx, s.base, SearchRequest{
		Index:     s.index,
		Field:     "name",
		Text:      text,
		Page:      page,
		ProcessID: processID,
	})
}
