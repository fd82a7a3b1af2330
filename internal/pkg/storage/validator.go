package storage

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	ErrFileTooLarge    = errors.New("file exceeds maximum size")
	ErrInvalidMimeType = errors.New("file type not allowed")
	ErrEmptyFile       = errors.New("file is empty")
)

// MaxPhotoSize is the upload limit for item photos (10MB)
const MaxPhotoSize int64 = 10 * 1024 * 1024

var allowedPhotoTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
}

// ValidatePhoto reads at most maxSize bytes and checks the content type by magic bytes
func ValidatePhoto(reader io.Reader, maxSize int64) ([]byte, string, error) {
	data, err := io.ReadAll(io.LimitReader(reader, maxSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read file: %w", err)
	}

	if len(data) == 0 {
		return nil, "", ErrEmptyFile
	}
	if int64(len(data)) > maxSize {
		return nil, "", ErrFileTooLarge
	}

	mimeType := http.DetectContentType(data)
	if idx := strings.Index(mimeType, ";"); idx != -1 {
		mimeType = strings.TrimSpace(mimeType[:idx])
	}
	if _, ok := allowedPhotoTypes[mimeType]; !ok {
		return nil, "", ErrInvalidMimeType
	}

	return data, mimeType, nil
}

// ExtensionForMime returns the file extension for an accepted MIME type
func ExtensionForMime(mimeType string) string {
	if ext, ok := allowedPhotoTypes[mimeType]; ok {
		return ext
	}
	return ".bin"
}
