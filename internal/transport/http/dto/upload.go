package dto

import (
	"io"

	"tinyrisks_admin/internal/domain/models"
)

// UploadForm is a drop-zone form: one file posted to the form's action.
type UploadForm struct {
	Action string            `validate:"required"`
	Field  string            `validate:"required"`
	File   models.File       `validate:"-"`
	Extra  map[string]string `validate:"-"`

	Progress func(body io.Reader, total int64) io.Reader `validate:"-"`
}
