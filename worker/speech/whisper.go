package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

type WhisperConfig struct {
	BaseURL    string
	APIKey     string
	Model      string
	Language   string
	HTTPClient *http.Client
}

// WhisperRecognizer uses an OpenAI-compatible transcription endpoint.
type WhisperRecognizer struct {
	client   *openai.Client
	model    string
	language string
}

func NewWhisperRecognizer(cfg WhisperConfig) *WhisperRecognizer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.HTTPClient != nil {
		clientCfg.HTTPClient = cfg.HTTPClient
	}
	model := cfg.Model
	if model == "" {
		model = openai.Whisper1
	}

	return &WhisperRecognizer{
		client:   openai.NewClientWithConfig(clientCfg),
		model:    model,
		language: cfg.Language,
	}
}

func (w *WhisperRecognizer) Transcribe(ctx context.Context, audio []byte) (string, error) {
	name, ok := audioFileName(audio)
	if !ok {
		return "", fmt.Errorf("%w: unrecognized container", ErrInvalidAudio)
	}

	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.model,
		FilePath: name,
		Reader:   bytes.NewReader(audio),
		Language: w.language,
	})
	if err != nil {
		return "", parseAPIError(err)
	}
	return strings.TrimSpace(resp.Text), nil
}

// audioFileName picks a file name whose extension matches the container, so
// the server can pick a decoder.
func audioFileName(audio []byte) (string, bool) {
	switch {
	case len(audio) >= 12 && bytes.HasPrefix(audio, []byte("RIFF")) && bytes.Equal(audio[8:12], []byte("WAVE")):
		return "audio.wav", true
	case bytes.HasPrefix(audio, []byte("ID3")), len(audio) >= 2 && audio[0] == 0xFF && audio[1]&0xE0 == 0xE0:
		return "audio.mp3", true
	case bytes.HasPrefix(audio, []byte("OggS")):
		return "audio.ogg", true
	case bytes.HasPrefix(audio, []byte("fLaC")):
		return "audio.flac", true
	}
	return "", false
}

// parseAPIError marks rejections of the audio itself as ErrInvalidAudio.
// Everything else is a transport problem worth retrying.
func parseAPIError(err error) error {
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	if status == http.StatusBadRequest || status == http.StatusUnsupportedMediaType || status == http.StatusRequestEntityTooLarge {
		return fmt.Errorf("%w: transcription rejected with %d: %v", ErrInvalidAudio, status, err)
	}
	return fmt.Errorf("transcription request failed: %w", err)
}
