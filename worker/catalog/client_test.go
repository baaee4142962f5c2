package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"voicesearch/worker/intent"
)

var fastRetry = RetryConfig{InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond, MaxTries: 3}

func TestClient_SearchPaths(t *testing.T) {
	tests := []struct {
		kind intent.Kind
		path string
	}{
		{kind: intent.KindMovie, path: "/api/v1/films/search"},
		{kind: intent.KindGenre, path: "/api/v1/genres/search"},
		{kind: intent.KindPerson, path: "/api/v1/persons/search"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != tt.path {
					t.Errorf("Expected path %s, got %s", tt.path, r.URL.Path)
				}
				if got := r.URL.Query().Get("query"); got != "The Matrix" {
					t.Errorf("Expected query The Matrix, got %q", got)
				}
				if got := r.URL.Query().Get("process_id"); got != "proc-1" {
					t.Errorf("Expected process_id proc-1, got %q", got)
				}
				w.Write([]byte("[]"))
			}))
			defer server.Close()

			client := NewClient(server.URL+"/", server.Client(), fastRetry)
			if err := client.Search(context.Background(), intent.Intent{Kind: tt.kind, Subject: "The Matrix"}, "proc-1"); err != nil {
				t.Fatalf("Search: %v", err)
			}
		})
	}
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("[]"))
	}))
	defer server.Close()

	client := NewClient(server.URL, server.Client(), fastRetry)
	if err := client.Search(context.Background(), intent.Intent{Kind: intent.KindMovie, Subject: "x"}, "p"); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("Expected 3 calls, got %d", calls.Load())
	}
}

func TestClient_GivesUpAfterMaxTries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL, server.Client(), fastRetry)
	err := client.Search(context.Background(), intent.Intent{Kind: intent.KindMovie, Subject: "x"}, "p")
	if err == nil {
		t.Fatal("Expected error")
	}
	if errors.Is(err, ErrRejected) {
		t.Error("Server errors must not be reported as rejections")
	}
	if calls.Load() != 3 {
		t.Errorf("Expected 3 calls, got %d", calls.Load())
	}
}

func TestClient_ClientErrorIsPermanent(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error":"query is required"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, server.Client(), fastRetry)
	err := client.Search(context.Background(), intent.Intent{Kind: intent.KindPerson, Subject: "x"}, "p")
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("Expected ErrRejected, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("Expected a single call, got %d", calls.Load())
	}
}

func TestClient_UnknownIntent(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", nil, fastRetry)
	err := client.Search(context.Background(), intent.Intent{Kind: "music", Subject: "x"}, "p")
	if !errors.Is(err, ErrUnknownIntent) {
		t.Errorf("Expected ErrUnknownIntent, got %v", err)
	}
}
