package models

type Genre struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type GenreSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
