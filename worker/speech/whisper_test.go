package speech

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWhisperRecognizer_Transcribe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/transcriptions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("unexpected auth header: %s", r.Header.Get("Authorization"))
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if got := r.FormValue("model"); got != "whisper-1" {
			t.Errorf("unexpected model: %s", got)
		}
		if _, header, err := r.FormFile("file"); err != nil || header.Filename != "audio.wav" {
			t.Errorf("unexpected file part: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text":" Find me the movie The Matrix. "}`))
	}))
	defer server.Close()

	rec := NewWhisperRecognizer(WhisperConfig{
		BaseURL: server.URL,
		APIKey:  "test-key",
	})

	text, err := rec.Transcribe(context.Background(), EncodeWAV(monoFormat, make([]byte, 64)))
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "Find me the movie The Matrix." {
		t.Errorf("Unexpected transcript %q", text)
	}
}

func TestWhisperRecognizer_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		invalid bool
	}{
		{name: "bad audio", status: http.StatusBadRequest, invalid: true},
		{name: "overloaded", status: http.StatusServiceUnavailable, invalid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"error":{"message":"nope","type":"invalid_request_error"}}`))
			}))
			defer server.Close()

			rec := NewWhisperRecognizer(WhisperConfig{BaseURL: server.URL, APIKey: "k"})
			_, err := rec.Transcribe(context.Background(), EncodeWAV(monoFormat, make([]byte, 64)))
			if err == nil {
				t.Fatal("Expected error")
			}
			if errors.Is(err, ErrInvalidAudio) != tt.invalid {
				t.Errorf("Expected invalid=%v, got %v", tt.invalid, err)
			}
		})
	}
}

func TestWhisperRecognizer_UnknownContainer(t *testing.T) {
	rec := NewWhisperRecognizer(WhisperConfig{BaseURL: "http://127.0.0.1:1", APIKey: "k"})

	_, err := rec.Transcribe(context.Background(), []byte("plain text"))
	if !errors.Is(err, ErrInvalidAudio) {
		t.Errorf("Expected ErrInvalidAudio, got %v", err)
	}
}

func TestNew(t *testing.T) {
	if _, err := New(Config{Driver: "vosk"}, nil); err == nil {
		t.Error("Expected error for vosk without url")
	}
	if _, err := New(Config{Driver: "kaldi"}, nil); !errors.Is(err, ErrUnknownDriver) {
		t.Errorf("Expected ErrUnknownDriver, got %v", err)
	}
	r, err := New(Config{Driver: "whisper", WhisperAPIKey: "k"}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := r.(*WhisperRecognizer); !ok {
		t.Errorf("Expected *WhisperRecognizer, got %T", r)
	}
}
