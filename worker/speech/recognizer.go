// Package speech turns spoken audio into transcript text.
package speech

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const (
	DriverVosk    = "vosk"
	DriverWhisper = "whisper"
)

// ErrInvalidAudio means the payload can never be transcribed. Callers should
// not retry it.
var ErrInvalidAudio = errors.New("invalid audio")

var ErrUnknownDriver = errors.New("unknown speech driver")

type Recognizer interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

type Config struct {
	Driver         string        `yaml:"driver"`
	VoskURL        string        `yaml:"vosk_url"`
	WhisperBaseURL string        `yaml:"whisper_base_url"`
	WhisperAPIKey  string        `yaml:"whisper_api_key"`
	WhisperModel   string        `yaml:"whisper_model"`
	Language       string        `yaml:"language"`
	Timeout        time.Duration `yaml:"timeout"`
}

// New builds the recognizer selected by cfg.Driver. httpClient is used by
// drivers that talk plain HTTP.
func New(cfg Config, httpClient *http.Client) (Recognizer, error) {
	switch cfg.Driver {
	case "", DriverVosk:
		if cfg.VoskURL == "" {
			return nil, errors.New("vosk url is required")
		}
		return NewVoskRecognizer(cfg.VoskURL, cfg.Timeout), nil
	case DriverWhisper:
		return NewWhisperRecognizer(WhisperConfig{
			BaseURL:    cfg.WhisperBaseURL,
			APIKey:     cfg.WhisperAPIKey,
			Model:      cfg.WhisperModel,
			Language:   cfg.Language,
			HTTPClient: httpClient,
		}), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}
