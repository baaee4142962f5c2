package validation

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

type FileType string

const (
	FileTypeWAV  FileType = "wav"
	FileTypeMP3  FileType = "mp3"
	FileTypeOGG  FileType = "ogg"
	FileTypeFLAC FileType = "flac"
)

var extensions = map[string]FileType{
	".wav":  FileTypeWAV,
	".wave": FileTypeWAV,
	".mp3":  FileTypeMP3,
	".ogg":  FileTypeOGG,
	".oga":  FileTypeOGG,
	".flac": FileTypeFLAC,
}

// DetectFileType sniffs the audio container from the leading bytes of r and
// rewinds it.
func DetectFileType(r io.ReadSeeker) (FileType, error) {
	buffer := make([]byte, 12)
	n, err := io.ReadFull(r, buffer)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", err
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	if n == 0 {
		return "", ErrEmptyFile
	}

	head := buffer[:n]
	switch {
	case n >= 12 && bytes.HasPrefix(head, []byte("RIFF")) && bytes.Equal(head[8:12], []byte("WAVE")):
		return FileTypeWAV, nil
	case bytes.HasPrefix(head, []byte("ID3")):
		return FileTypeMP3, nil
	case n >= 2 && head[0] == 0xFF && head[1]&0xE0 == 0xE0:
		// bare MPEG audio frame sync
		return FileTypeMP3, nil
	case bytes.HasPrefix(head, []byte("OggS")):
		return FileTypeOGG, nil
	case bytes.HasPrefix(head, []byte("fLaC")):
		return FileTypeFLAC, nil
	}
	return "", ErrInvalidFileType
}

// ValidateAudio checks size, content type and that the filename extension
// agrees with the content.
func ValidateAudio(filename string, size, maxSize int64, r io.ReadSeeker) (FileType, error) {
	if size > maxSize {
		return "", fmt.Errorf("%w: %d bytes", ErrFileTooLarge, size)
	}

	fileType, err := DetectFileType(r)
	if err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return fileType, nil
	}
	if extType, ok := extensions[ext]; !ok || extType != fileType {
		return "", ErrExtensionMismatch
	}
	return fileType, nil
}
