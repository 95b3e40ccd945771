package controller

import (
	"errors"
	"fmt"
	"strings"

	"tinyrisks_admin/internal/storage"
	"tinyrisks_admin/internal/storage/apiclient"

	"github.com/go-playground/validator/v10"
)

var (
	ErrBusy          = errors.New("a save is already in progress")
	ErrFileRequired  = errors.New("please select at least one file")
	ErrDeclined      = errors.New("action cancelled")
	ErrUnknownAction = errors.New("unknown action")
	ErrNotEditable   = errors.New("this item cannot be edited")
	ErrUnknownField  = errors.New("unknown field")
)

// Message turns err into the text shown in a status line. Server supplied
// messages win; errors the API never produced fall back to generic.
func Message(err error, generic string) string {
	if err == nil {
		return ""
	}

	if msg := apiclient.ServerMessage(err); msg != "" {
		return msg
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return fieldMessage(verrs[0])
	}

	for _, known := range []error{ErrBusy, ErrFileRequired, ErrDeclined, ErrNotEditable} {
		if errors.Is(err, known) {
			return upperFirst(known.Error())
		}
	}

	switch {
	case errors.Is(err, storage.ErrUnauthorized):
		return "Your session has expired. Please log in again."
	case errors.Is(err, storage.ErrNotFound):
		return "That item no longer exists."
	case errors.Is(err, storage.ErrFileTooLarge):
		return "File is too large."
	}

	return generic
}

func fieldMessage(fe validator.FieldError) string {
	name := fe.Field()

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", name)
	case "max":
		if fe.Kind().String() == "slice" {
			return fmt.Sprintf("%s allows at most %s entries", name, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s characters", name, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", name, fe.Param())
	}

	return fmt.Sprintf("%s is invalid", name)
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}

	return strings.ToUpper(s[:1]) + s[1:]
}
