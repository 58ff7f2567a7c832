package utils

import (
	"io"
	"mime/multipart"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// SaveUploadedFile writes an uploaded file to a temporary location and
// returns a read-only handle to it.
func SaveUploadedFile(fileHeader *multipart.FileHeader) (*os.File, error) {
	src, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	tempFile, err := os.CreateTemp("", "upload-*.tmp")
	if err != nil {
		return nil, err
	}
	defer tempFile.Close()

	if _, err := io.Copy(tempFile, src); err != nil {
		os.Remove(tempFile.Name())
		return nil, err
	}

	return os.OpenFile(tempFile.Name(), os.O_RDONLY, 0666)
}

// DetectMimeTypeFromFile detects the MIME type of the file at the given path.
func DetectMimeTypeFromFile(filePath string) (string, error) {
	mime, err := mimetype.DetectFile(filePath)
	if err != nil {
		return "", err
	}
	return mime.String(), nil
}

// IsPdfDocument reports whether the MIME type denotes a PDF document.
func IsPdfDocument(mimeType string) bool {
	if mimeType == "" {
		return false
	}
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	return strings.Contains(mimeType, "pdf")
}

// IsJSONDocument reports whether the MIME type denotes a JSON payload,
// which is how stitched layout results arrive.
func IsJSONDocument(mimeType string) bool {
	if mimeType == "" {
		return false
	}
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	return strings.Contains(mimeType, "json")
}
