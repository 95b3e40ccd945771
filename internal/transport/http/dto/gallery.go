package dto

import (
	"io"

	"tinyrisks_admin/internal/domain/models"
)

// GalleryForm is the gallery form as submitted: plain fields plus the files
// currently selected in the file input.
type GalleryForm struct {
	Title       string        `form:"title" validate:"required,max=200"`
	Caption     string        `form:"caption" validate:"max=500"`
	Description string        `form:"description"`
	Images      []models.File `form:"-" validate:"max=9"`

	// Progress optionally wraps the encoded upload body.
	Progress func(body io.Reader, total int64) io.Reader `form:"-"`
}
