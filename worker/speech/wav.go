package speech

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

const wavFormatPCM = 1

type WAVFormat struct {
	AudioFormat   uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
}

type WAV struct {
	Format WAVFormat
	Data   []byte
}

// Frames is the number of sample frames in the data chunk.
func (w *WAV) Frames() int {
	return len(w.Data) / int(w.Format.BlockAlign)
}

// ParseWAV reads a RIFF/WAVE container holding uncompressed PCM. Unknown
// chunks are skipped.
func ParseWAV(data []byte) (*WAV, error) {
	if len(data) < 12 || !bytes.Equal(data[0:4], []byte("RIFF")) || !bytes.Equal(data[8:12], []byte("WAVE")) {
		return nil, fmt.Errorf("%w: not a RIFF/WAVE file", ErrInvalidAudio)
	}

	var (
		wav       WAV
		hasFormat bool
		hasData   bool
	)

	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		if size < 0 || body+size > len(data) {
			// tolerate a truncated final data chunk
			if id == "data" && hasFormat {
				size = len(data) - body
			} else {
				return nil, fmt.Errorf("%w: chunk %q overruns file", ErrInvalidAudio, id)
			}
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, fmt.Errorf("%w: fmt chunk too short", ErrInvalidAudio)
			}
			f := data[body : body+16]
			wav.Format = WAVFormat{
				AudioFormat:   binary.LittleEndian.Uint16(f[0:2]),
				Channels:      binary.LittleEndian.Uint16(f[2:4]),
				SampleRate:    binary.LittleEndian.Uint32(f[4:8]),
				ByteRate:      binary.LittleEndian.Uint32(f[8:12]),
				BlockAlign:    binary.LittleEndian.Uint16(f[12:14]),
				BitsPerSample: binary.LittleEndian.Uint16(f[14:16]),
			}
			hasFormat = true
		case "data":
			wav.Data = data[body : body+size]
			hasData = true
		}

		// chunks are word aligned
		pos = body + size + size%2
	}

	switch {
	case !hasFormat:
		return nil, fmt.Errorf("%w: missing fmt chunk", ErrInvalidAudio)
	case !hasData:
		return nil, fmt.Errorf("%w: missing data chunk", ErrInvalidAudio)
	case wav.Format.AudioFormat != wavFormatPCM:
		return nil, fmt.Errorf("%w: unsupported encoding %d, want PCM", ErrInvalidAudio, wav.Format.AudioFormat)
	case wav.Format.Channels == 0 || wav.Format.SampleRate == 0 || wav.Format.BlockAlign == 0:
		return nil, fmt.Errorf("%w: malformed fmt chunk", ErrInvalidAudio)
	}
	return &wav, nil
}

// EncodeWAV wraps PCM samples in a canonical 44 byte header.
func EncodeWAV(format WAVFormat, pcm []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(44 + len(pcm))
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVEfmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, format)
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)
	return buf.Bytes()
}
