package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"voicesearch/catalog/models"
)

// parsePage reads page_number and page_size, applying defaults for absent
// values.
func parsePage(r *http.Request) (models.Page, error) {
	page := models.DefaultPage()

	q := r.URL.Query()
	if v := q.Get("page_number"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return page, fmt.Errorf("%w: page_number must be an integer", models.ErrInvalidPage)
		}
		page.Number = n
	}
	if v := q.Get("page_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return page, fmt.Errorf("%w: page_size must be an integer", models.ErrInvalidPage)
		}
		page.Size = n
	}

	return page, page.Validate()
}

// optionalPage is parsePage for endpoints that page only on request.
func optionalPage(r *http.Request) (*models.Page, error) {
	q := r.URL.Query()
	if !q.Has("page_number") && !q.Has("page_size") {
		return nil, nil
	}
	page, err := parsePage(r)
	if err != nil {
		return nil, err
	}
	return &page, nil
}

func parseSort(r *http.Request, spec models.SortSpec) (models.Sort, error) {
	return spec.Parse(r.URL.Query().Get("sort_by"))
}

func searchText(r *http.Request) (string, error) {
	text := strings.TrimSpace(r.URL.Query().Get("query"))
	if text == "" {
		return "", fmt.Errorf("%w: query is required", models.ErrInvalidQuery)
	}
	return text, nil
}
