package models

// Ref is an embedded {id, name} pair inside a film document.
type Ref struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Film struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	IMDBRating   *float64 `json:"imdb_rating"`
	Description  string   `json:"description,omitempty"`
	Genres       []Ref    `json:"genres"`
	Directors    []Ref    `json:"directors"`
	Actors       []Ref    `json:"actors"`
	Writers      []Ref    `json:"writers"`
	ActorsNames  []string `json:"actors_names,omitempty"`
	WritersNames []string `json:"writers_names,omitempty"`
}

// FilmSummary is the projection returned by list and search endpoints.
type FilmSummary struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	IMDBRating *float64 `json:"imdb_rating"`
}

// FilmFilter narrows a film listing to films linked to the given ids.
// Empty fields are ignored.
type FilmFilter struct {
	Genre    string
	Actor    string
	Director string
	Writer   string
}

func (f FilmFilter) Empty() bool {
	return f == FilmFilter{}
}
