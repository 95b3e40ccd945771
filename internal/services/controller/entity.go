package controller

import (
	"context"
	"maps"

	"tinyrisks_admin/internal/domain/models"
)

type Encoding int

const (
	EncodingJSON Encoding = iota
	EncodingMultipart
)

func (e Encoding) String() string {
	if e == EncodingMultipart {
		return "multipart"
	}

	return "json"
}

// Values holds form field values by field name.
type Values map[string]string

func (v Values) Clone() Values {
	if v == nil {
		return Values{}
	}

	return maps.Clone(v)
}

// Submission is what a submit hands to Entity.Create and Entity.Update.
type Submission struct {
	Values Values
	Files  []models.File
}

type Labels struct {
	Create  string
	Edit    string
	Saving  string
	Saved   string
	Updated string
	Deleted string
	Empty   string
	// LoadError is rendered in place of the list when loading fails.
	LoadError string
	// Generic is shown when a failure carries no server message.
	Generic string
	// Confirm is the delete prompt.
	Confirm string
}

func (l Labels) withDefaults() Labels {
	def := func(v *string, d string) {
		if *v == "" {
			*v = d
		}
	}

	def(&l.Create, "Create")
	def(&l.Edit, "Update")
	def(&l.Saving, "Saving...")
	def(&l.Saved, "Saved!")
	def(&l.Updated, "Updated!")
	def(&l.Deleted, "Deleted")
	def(&l.Empty, "Nothing here yet.")
	def(&l.LoadError, "Error loading items")
	def(&l.Generic, "Something went wrong. Please try again.")
	def(&l.Confirm, "Delete this item?")

	return l
}

// Entity describes one editable collection: its endpoint operations, the
// form fields bound to it and how it is serialized. Per-entity differences
// live here, the state machine in Controller is shared.
type Entity[T any] struct {
	Name     string
	Encoding Encoding
	// Fields lists the bound form fields in display order.
	Fields []string
	// FileField names the file input; empty when the form has none. A file
	// is required on create only.
	FileField string
	// PreviewField is rendered as markdown into the preview pane.
	PreviewField string
	// Modal editors open and close a dialog instead of switching tabs.
	Modal  bool
	Labels Labels

	ID       func(T) models.ID
	List     func(ctx context.Context) ([]T, error)
	Get      func(ctx context.Context, id models.ID) (T, error)
	Populate func(T) Values
	Create   func(ctx context.Context, sub Submission) (models.MutationResult, error)
	Update   func(ctx context.Context, id models.ID, sub Submission) (models.MutationResult, error)
	Delete   func(ctx context.Context, id models.ID) error
	// Validate runs before any request; nil skips it.
	Validate func(sub Submission) error
}

func (e Entity[T]) editable() bool {
	return e.Get != nil && e.Populate != nil && e.Update != nil
}

func (e Entity[T]) blank() Values {
	v := make(Values, len(e.Fields))
	for _, f := range e.Fields {
		v[f] = ""
	}

	return v
}

func (e Entity[T]) bound(field string) bool {
	for _, f := range e.Fields {
		if f == field {
			return true
		}
	}

	return false
}
