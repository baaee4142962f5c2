package speech

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// DefaultFramesPerChunk is how many sample frames go into one websocket
// message.
const DefaultFramesPerChunk = 8000

// VoskRecognizer streams PCM audio to a Vosk websocket server.
type VoskRecognizer struct {
	url            string
	dialer         *websocket.Dialer
	timeout        time.Duration
	framesPerChunk int
}

func NewVoskRecognizer(url string, timeout time.Duration) *VoskRecognizer {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &VoskRecognizer{
		url: url,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
		timeout:        timeout,
		framesPerChunk: DefaultFramesPerChunk,
	}
}

type voskResult struct {
	Text    string `json:"text"`
	Partial string `json:"partial"`
}

type voskConfig struct {
	Config struct {
		SampleRate uint32 `json:"sample_rate"`
	} `json:"config"`
}

// Transcribe returns the recognized text of a PCM WAV payload. Every final
// result the server reports is kept, in order.
func (v *VoskRecognizer) Transcribe(ctx context.Context, audio []byte) (string, error) {
	wav, err := ParseWAV(audio)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	conn, resp, err := v.dialer.DialContext(ctx, v.url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return "", fmt.Errorf("dial vosk: %w", err)
	}
	defer conn.Close()

	// unblock reads and writes when ctx ends
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	deadline, _ := ctx.Deadline()
	conn.SetReadDeadline(deadline)
	conn.SetWriteDeadline(deadline)

	var cfg voskConfig
	cfg.Config.SampleRate = wav.Format.SampleRate
	if err := conn.WriteJSON(cfg); err != nil {
		return "", v.wrap(ctx, "send config", err)
	}

	var parts []string
	chunk := v.framesPerChunk * int(wav.Format.BlockAlign)
	for off := 0; off < len(wav.Data); off += chunk {
		end := min(off+chunk, len(wav.Data))
		if err := conn.WriteMessage(websocket.BinaryMessage, wav.Data[off:end]); err != nil {
			return "", v.wrap(ctx, "send audio", err)
		}
		res, err := readResult(conn)
		if err != nil {
			return "", v.wrap(ctx, "read result", err)
		}
		if res.Text != "" {
			parts = append(parts, res.Text)
		}
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"eof" : 1}`)); err != nil {
		return "", v.wrap(ctx, "send eof", err)
	}
	final, err := readResult(conn)
	if err != nil {
		return "", v.wrap(ctx, "read final result", err)
	}
	if final.Text != "" {
		parts = append(parts, final.Text)
	}

	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))

	return strings.Join(parts, " "), nil
}

func readResult(conn *websocket.Conn) (voskResult, error) {
	var res voskResult
	_, data, err := conn.ReadMessage()
	if err != nil {
		return res, err
	}
	if err := json.Unmarshal(data, &res); err != nil {
		return res, fmt.Errorf("decode vosk result: %w", err)
	}
	return res, nil
}

func (v *VoskRecognizer) wrap(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("vosk %s: %w", op, errors.Join(ctxErr, err))
	}
	return fmt.Errorf("vosk %s: %w", op, err)
}
