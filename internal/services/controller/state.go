package controller

import (
	"html/template"
	"time"

	"tinyrisks_admin/internal/domain/models"
	"tinyrisks_admin/internal/services/notify"
)

type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

const (
	TabList   = "list"
	TabCreate = "create"
)

type Status struct {
	Text string      `json:"text"`
	Kind notify.Kind `json:"kind"`
}

// State is everything a view needs to draw the form.
type State struct {
	Mode          Mode
	EditingID     models.ID
	Values        Values
	Files         []models.File
	FileRequired  bool
	SubmitLabel   string
	Submitting    bool
	CancelVisible bool
	ModalOpen     bool
	Tab           string
	Status        Status
	Preview       template.HTML
}

// Value is a nil-safe field lookup for templates.
func (s State) Value(field string) string {
	return s.Values[field]
}

// ListView is the rendered collection. Exactly one of Items, Empty or Error
// describes what the view shows.
type ListView[T any] struct {
	Items    []T
	Empty    bool
	Message  string
	Error    string
	LoadedAt time.Time
}

// Snapshot is the persistable part of a controller's state. Selected files
// are never persisted.
type Snapshot struct {
	Mode      Mode      `json:"mode"`
	EditingID models.ID `json:"editing_id,omitempty"`
	Values    Values    `json:"values"`
	ModalOpen bool      `json:"modal_open,omitempty"`
	Tab       string    `json:"tab,omitempty"`
	Status    *Status   `json:"status,omitempty"`
	StatusAt  time.Time `json:"status_at,omitempty"`
}
