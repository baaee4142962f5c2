// Package query builds search-index request bodies.
package query

import "voicesearch/catalog/models"

// Body is a JSON search request.
type Body = map[string]any

// nested filter paths, in the order their clauses are emitted
var filterPaths = []string{"genres", "actors", "writers", "directors"}

// List sorts the whole index and pages through it. Non-empty filters are
// OR-ed as nested id matches.
func List(sort models.Sort, page models.Page, filter models.FilmFilter) Body {
	body := Body{
		"sort": []any{
			map[string]any{sort.Field: map[string]any{"order": string(sort.Order)}},
		},
		"from": page.Offset(),
		"size": page.Size,
	}

	values := map[string]string{
		"genres":    filter.Genre,
		"actors":    filter.Actor,
		"writers":   filter.Writer,
		"directors": filter.Director,
	}

	var should []any
	for _, path := range filterPaths {
		if v := values[path]; v != "" {
			should = append(should, nestedIDMatch(path, v))
		}
	}
	if len(should) > 0 {
		body["query"] = map[string]any{"bool": map[string]any{"should": should}}
	}

	return body
}

// FreeText runs a fuzzy match of text against field.
func FreeText(field, text string, page models.Page) Body {
	return Body{
		"query": map[string]any{
			"match": map[string]any{
				field: map[string]any{
					"query":     text,
					"fuzziness": "auto",
				},
			},
		},
		"from": page.Offset(),
		"size": page.Size,
	}
}

// PersonFilms finds films where personID is a director, actor or writer.
// A nil page leaves paging to the index defaults.
func PersonFilms(personID string, page *models.Page) Body {
	should := make([]any, 0, 3)
	for _, path := range []string{"directors", "actors", "writers"} {
		should = append(should, nestedIDMatch(path, personID))
	}

	body := Body{
		"query": map[string]any{"bool": map[string]any{"should": should}},
	}
	if page != nil {
		body["from"] = page.Offset()
		body["size"] = page.Size
	}
	return body
}

func nestedIDMatch(path, id string) map[string]any {
	return map[string]any{
		"nested": map[string]any{
			"path": path,
			"query": map[string]any{
				"bool": map[string]any{
					"must": []any{
						map[string]any{"match": map[string]any{path + ".id": id}},
					},
				},
			},
		},
	}
}
