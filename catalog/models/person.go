package models

type Role string

const (
	RoleActor    Role = "actor"
	RoleDirector Role = "director"
	RoleWriter   Role = "writer"
)

type Person struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
}

type PersonFilm struct {
	ID    string `json:"id"`
	Roles []Role `json:"roles"`
}

// PersonDetail is a person with the films they took part in.
type PersonDetail struct {
	ID       string       `json:"id"`
	FullName string       `json:"full_name"`
	Films    []PersonFilm `json:"films"`
}

// RolesOf lists the roles personID holds in film, in actor, director,
// writer order. Each role appears at most once.
func RolesOf(film Film, personID string) []Role {
	roles := make([]Role, 0, 3)
	if containsRef(film.Actors, personID) {
		roles = append(roles, RoleActor)
	}
	if containsRef(film.Directors, personID) {
		roles = append(roles, RoleDirector)
	}
	if containsRef(film.Writers, personID) {
		roles = append(roles, RoleWriter)
	}
	return roles
}

func containsRef(refs []Ref, id string) bool {
	for _, r := range refs {
		if r.ID == id {
			return true
		}
	}
	return false
}

// PersonFilms derives the film roles of personID from films. Films the
// person has no role in are skipped.
func PersonFilms(films []Film, personID string) []PersonFilm {
	out := make([]PersonFilm, 0, len(films))
	for _, f := range films {
		roles := RolesOf(f, personID)
		if len(roles) == 0 {
			continue
		}
		out = append(out, PersonFilm{ID: f.ID, Roles: roles})
	}
	return out
}
