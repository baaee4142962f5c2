package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"voicesearch/catalog/models"
	"voicesearch/catalog/query"
)

const personFilmsConcurrency = 8

type PersonService struct {
	base        *Base
	index       string
	filmsIndex  string
	concurrency int
}

func NewPersonService(base *Base, index, filmsIndex string) *PersonService {
	return &PersonService{
		base:        base,
		index:       index,
		filmsIndex:  filmsIndex,
		concurrency: personFilmsConcurrency,
	}
}

// GetByID returns the person with the roles they hold in each of their films.
func (s *PersonService) GetByID(ctx context.Context, id string) (*models.PersonDetail, error) {
	doc, found, err := s.base.GetByID(ctx, id, s.index)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, models.ErrNotFound
	}

	person, err := decodeOne[models.Person](doc)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, *person)
}

func (s *PersonService) List(ctx context.Context, sort models.Sort, page models.Page) ([]models.Person, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}

	key := ListKey{Index: s.index, Sort: sort, Page: page}
	docs, err := s.base.GetList(ctx, s.index, query.List(sort, page, models.FilmFilter{}), key.String())
	if err != nil {
		return nil, err
	}
	return decodeAll[models.Person](docs)
}

// Films lists the films personID took part in. A nil page applies the index
// default page.
func (s *PersonService) Films(ctx context.Context, personID string, page *models.Page) ([]models.FilmSummary, error) {
	films, err := s.films(ctx, personID, page)
	if err != nil {
		return nil, err
	}

	out := make([]models.FilmSummary, 0, len(films))
	for _, f := range films {
		out = append(out, models.FilmSummary{ID: f.ID, Title: f.Title, IMDBRating: f.IMDBRating})
	}
	return out, nil
}

// Search matches text against full names and attaches each person's film
// roles. A non-empty processID also delivers the result.
func (s *PersonService) Search(ctx context.Context, text string, page models.Page, processID string) ([]models.PersonDetail, error) {
	if err := validateQuery(text); err != nil {
		return nil, err
	}
	if err := page.Validate(); err != nil {
		return nil, err
	}

	key := ListKey{Index: s.index, Page: page, Unique: text}
	docs, err := s.base.GetList(ctx, s.index, query.FreeText("full_name", text, page), key.String())
	if err != nil {
		return nil, err
	}

	persons, err := decodeAll[models.Person](docs)
	if err != nil {
		return nil, err
	}

	details := make([]models.PersonDetail, len(persons))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, p := range persons {
		g.Go(func() error {
			d, err := s.detail(gctx, p)
			if err != nil {
				return err
			}
			details[i] = *d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if processID != "" {
		if err := s.base.Deliver(ctx, processID, details); err != nil {
			return nil, err
		}
	}
	return details, nil
}

func (s *PersonService) detail(ctx context.Context, p models.Person) (*models.PersonDetail, error) {
	films, err := s.films(ctx, p.ID, nil)
	if err != nil {
		return nil, err
	}
	return &models.PersonDetail{
		ID:       p.ID,
		FullName: p.FullName,
		Films:    models.PersonFilms(films, p.ID),
	}, nil
}

func (s *PersonService) films(ctx context.Context, personID string, page *models.Page) ([]models.Film, error) {
	key := ListKey{Index: s.filmsIndex, Unique: personID}
	if page != nil {
		if err := page.Validate(); err != nil {
			return nil, err
		}
		key.Page = *page
	}

	docs, err := s.base.GetList(ctx, s.filmsIndex, query.PersonFilms(personID, page), key.String())
	if err != nil {
		return nil, err
	}
	return decodeAll[models.Film](docs)
}
