package models

import (
	"fmt"
	"io"
	"strings"
)

type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
	MediaTypeAudio MediaType = "audio"
	MediaTypeFile  MediaType = "file"
)

// GuessMediaType derives the drop-zone label from a file input's accept
// attribute ("image/*", "video/mp4,.mov", ...). Unknown or empty accept
// lists fall back to MediaTypeFile.
func GuessMediaType(accept string) MediaType {
	accept = strings.ToLower(accept)

	switch {
	case strings.Contains(accept, "image"):
		return MediaTypeImage
	case strings.Contains(accept, "video"):
		return MediaTypeVideo
	case strings.Contains(accept, "audio"):
		return MediaTypeAudio
	default:
		return MediaTypeFile
	}
}

// MediaTypeOf classifies a selected file by its MIME type.
func MediaTypeOf(contentType string) MediaType {
	return GuessMediaType(contentType)
}

// Icon is the glyph shown next to an empty drop-zone or a selected file.
func (t MediaType) Icon() string {
	switch t {
	case MediaTypeImage:
		return "🖼️"
	case MediaTypeVideo:
		return "🎬"
	case MediaTypeAudio:
		return "🎵"
	default:
		return "📄"
	}
}

// File is one selected upload: what the file input holds before submit.
type File struct {
	Name        string
	Size        int64
	ContentType string
	Open        func() (io.ReadCloser, error)
}

func (f File) MediaType() MediaType {
	return MediaTypeOf(f.ContentType)
}

// Validate checks the selection itself, never the file contents.
func (f File) Validate() error {
	var validationErrors []string

	if f.Name == "" {
		validationErrors = append(validationErrors, "file name is required")
	}
	if len(f.Name) > 255 {
		validationErrors = append(validationErrors, "file name must be 255 characters or less")
	}
	if f.Open == nil {
		validationErrors = append(validationErrors, "file has no content source")
	}
	if f.Size < 0 {
		validationErrors = append(validationErrors, "file size must not be negative")
	}

	if len(validationErrors) > 0 {
		return &FileValidationError{Name: f.Name, Errors: validationErrors}
	}

	return nil
}

// FileValidationError lists every problem found with one selected file.
type FileValidationError struct {
	Name   string
	Errors []string
}

func (e *FileValidationError) Error() string {
	return fmt.Sprintf("file %q is invalid: %s", e.Name, strings.Join(e.Errors, "; "))
}

// IsFileValidationError reports whether err is a *FileValidationError.
func IsFileValidationError(err error) bool {
	_, ok := err.(*FileValidationError)
	return ok
}
