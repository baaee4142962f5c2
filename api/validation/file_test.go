package validation

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func wavHeader() []byte {
	return append([]byte("RIFF\x24\x00\x00\x00WAVEfmt "), make([]byte, 32)...)
}

func TestDetectFileType(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want FileType
		err  error
	}{
		{name: "wav", data: wavHeader(), want: FileTypeWAV},
		{name: "mp3 id3", data: []byte("ID3\x04\x00\x00\x00\x00\x00\x00"), want: FileTypeMP3},
		{name: "mp3 frame", data: []byte{0xFF, 0xFB, 0x90, 0x64}, want: FileTypeMP3},
		{name: "ogg", data: []byte("OggS\x00\x02\x00\x00"), want: FileTypeOGG},
		{name: "flac", data: []byte("fLaC\x00\x00\x00\x22"), want: FileTypeFLAC},
		{name: "jpeg", data: []byte{0xFF, 0xD8, 0xFF, 0xE0}, err: ErrInvalidFileType},
		{name: "riff but not wave", data: []byte("RIFF\x24\x00\x00\x00AVI LIST"), err: ErrInvalidFileType},
		{name: "empty", data: nil, err: ErrEmptyFile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := bytes.NewReader(tt.data)
			got, err := DetectFileType(r)
			if !errors.Is(err, tt.err) {
				t.Fatalf("Expected error %v, got %v", tt.err, err)
			}
			if got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
			if pos, _ := r.Seek(0, io.SeekCurrent); pos != 0 {
				t.Errorf("Expected reader to be rewound, at %d", pos)
			}
		})
	}
}

func TestValidateAudio(t *testing.T) {
	data := wavHeader()

	if _, err := ValidateAudio("query.wav", int64(len(data)), 1024, bytes.NewReader(data)); err != nil {
		t.Errorf("Expected valid wav, got %v", err)
	}
	if _, err := ValidateAudio("blob", int64(len(data)), 1024, bytes.NewReader(data)); err != nil {
		t.Errorf("Expected file without extension to pass, got %v", err)
	}
	if _, err := ValidateAudio("query.mp3", int64(len(data)), 1024, bytes.NewReader(data)); !errors.Is(err, ErrExtensionMismatch) {
		t.Errorf("Expected ErrExtensionMismatch, got %v", err)
	}
	if _, err := ValidateAudio("query.wav", 4096, 1024, bytes.NewReader(data)); !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("Expected ErrFileTooLarge, got %v", err)
	}
}
