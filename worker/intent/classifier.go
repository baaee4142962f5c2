// Package intent extracts the search target from a spoken query.
package intent

import (
	"regexp"
	"strings"
)

type Kind string

const (
	KindMovie  Kind = "movie"
	KindGenre  Kind = "genre"
	KindPerson Kind = "person"
)

type Intent struct {
	Kind    Kind
	Subject string
}

type rule struct {
	kind    Kind
	pattern *regexp.Regexp
}

// rules are tried in order; the first one that captures a subject wins.
var rules = []rule{
	{kind: KindMovie, pattern: regexp.MustCompile(`(?i)movie\s+([^?!.]+)`)},
	{kind: KindGenre, pattern: regexp.MustCompile(`(?i)genre\s+([^?!.]+)`)},
	{kind: KindPerson, pattern: regexp.MustCompile(`(?i)person\s+([^?!.]+)`)},
}

// Classify maps a transcript to an intent. ok is false when no keyword is
// followed by a subject.
func Classify(text string) (Intent, bool) {
	for _, r := range rules {
		m := r.pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		subject := cleanSubject(m[1])
		if subject == "" {
			continue
		}
		return Intent{Kind: r.kind, Subject: subject}, true
	}
	return Intent{}, false
}

func cleanSubject(s string) string {
	return strings.TrimRight(strings.TrimSpace(s), ",;:'\" ")
}
