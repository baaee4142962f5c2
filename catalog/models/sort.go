package models

import "fmt"

type Order string

const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

// Sort values as they appear on the wire. The bare field name sorts
// descending and is the default; the "-" prefixed value sorts ascending.
const (
	SortFilmsRatingDown = "imdb_rating"
	SortFilmsRatingUp   = "-imdb_rating"
	SortGenresNameDown  = "name"
	SortGenresNameUp    = "-name"
	SortPersonsNameDown = "full_name"
	SortPersonsNameUp   = "-full_name"
)

type Sort struct {
	Field string
	Order Order
}

// SortSpec describes the single sortable field of an entity.
type SortSpec struct {
	Field string
}

var (
	FilmSort   = SortSpec{Field: "imdb_rating"}
	GenreSort  = SortSpec{Field: "name"}
	PersonSort = SortSpec{Field: "full_name"}
)

func (s SortSpec) Default() Sort {
	return Sort{Field: s.Field, Order: OrderDesc}
}

// Parse maps a wire sort value to a Sort. An empty value selects the default.
func (s SortSpec) Parse(value string) (Sort, error) {
	switch value {
	case "", s.Field:
		return Sort{Field: s.Field, Order: OrderDesc}, nil
	case "-" + s.Field:
		return Sort{Field: s.Field, Order: OrderAsc}, nil
	default:
		return Sort{}, fmt.Errorf("%w: sort must be %q or %q", ErrInvalidSort, s.Field, "-"+s.Field)
	}
}
