package speech

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// fakeVosk answers every audio chunk with the next scripted reply and the
// eof message with final.
type fakeVosk struct {
	replies []string
	final   string

	mu         sync.Mutex
	sampleRate uint32
	chunks     []int
	gotEOF     bool
}

func (f *fakeVosk) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	for i := 0; ; {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		f.mu.Lock()
		switch {
		case kind == websocket.BinaryMessage:
			f.chunks = append(f.chunks, len(data))
			reply := `{"partial" : ""}`
			if i < len(f.replies) {
				reply = f.replies[i]
			}
			i++
			f.mu.Unlock()
			conn.WriteMessage(websocket.TextMessage, []byte(reply))
		case strings.Contains(string(data), `"eof"`):
			f.gotEOF = true
			f.mu.Unlock()
			conn.WriteMessage(websocket.TextMessage, []byte(f.final))
		default:
			var cfg voskConfig
			json.Unmarshal(data, &cfg)
			f.sampleRate = cfg.Config.SampleRate
			f.mu.Unlock()
		}
	}
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestVoskRecognizer_Transcribe(t *testing.T) {
	fake := &fakeVosk{
		replies: []string{
			`{"partial" : "find me"}`,
			`{"result" : [], "text" : "find me the movie"}`,
		},
		final: `{"result" : [], "text" : "the matrix"}`,
	}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	// 20000 frames: two full chunks and one partial
	audio := EncodeWAV(monoFormat, make([]byte, 20000*2))

	text, err := NewVoskRecognizer(wsURL(srv), 5*time.Second).Transcribe(context.Background(), audio)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "find me the movie the matrix" {
		t.Errorf("Unexpected transcript %q", text)
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()
	if fake.sampleRate != 16000 {
		t.Errorf("Expected sample rate 16000, got %d", fake.sampleRate)
	}
	want := []int{16000, 16000, 8000}
	if len(fake.chunks) != len(want) {
		t.Fatalf("Expected chunks %v, got %v", want, fake.chunks)
	}
	for i := range want {
		if fake.chunks[i] != want[i] {
			t.Errorf("chunk %d: expected %d bytes, got %d", i, want[i], fake.chunks[i])
		}
	}
	if !fake.gotEOF {
		t.Error("Expected eof message")
	}
}

func TestVoskRecognizer_InvalidAudio(t *testing.T) {
	rec := NewVoskRecognizer("ws://127.0.0.1:1", time.Second)

	_, err := rec.Transcribe(context.Background(), []byte("OggS not a wav"))
	if !errors.Is(err, ErrInvalidAudio) {
		t.Errorf("Expected ErrInvalidAudio, got %v", err)
	}
}

func TestVoskRecognizer_ServerDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := wsURL(srv)
	srv.Close()

	_, err := NewVoskRecognizer(url, time.Second).Transcribe(context.Background(), EncodeWAV(monoFormat, make([]byte, 64)))
	if err == nil {
		t.Fatal("Expected dial error")
	}
	if errors.Is(err, ErrInvalidAudio) {
		t.Error("Transport failure must not be reported as invalid audio")
	}
}
