package intent

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		text string
		want Intent
		ok   bool
	}{
		{text: "find me the movie The Matrix", want: Intent{Kind: KindMovie, Subject: "The Matrix"}, ok: true},
		{text: "Movie star wars!", want: Intent{Kind: KindMovie, Subject: "star wars"}, ok: true},
		{text: "show the genre comedy please.", want: Intent{Kind: KindGenre, Subject: "comedy please"}, ok: true},
		{text: "who is the person Keanu Reeves?", want: Intent{Kind: KindPerson, Subject: "Keanu Reeves"}, ok: true},
		{text: "movie about a genre comedy", want: Intent{Kind: KindMovie, Subject: "about a genre comedy"}, ok: true},
		{text: "person Tom Hanks in the genre drama", want: Intent{Kind: KindGenre, Subject: "drama"}, ok: true},
		{text: "the movie   ,  ", want: Intent{}, ok: false},
		{text: "the movie. person Ann", want: Intent{Kind: KindPerson, Subject: "Ann"}, ok: true},
		{text: "play something nice", ok: false},
		{text: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := Classify(tt.text)
			if ok != tt.ok {
				t.Fatalf("Expected ok=%v, got %v (%+v)", tt.ok, ok, got)
			}
			if got != tt.want {
				t.Errorf("Expected %+v, got %+v", tt.want, got)
			}
		})
	}
}
