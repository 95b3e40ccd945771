// Package controller binds one form and one list view to an entity's CRUD
// operations. A Controller is a two state machine (create, edit) that is
// configured per entity instead of copied per entity.
package controller

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"sync"
	"time"

	"tinyrisks_admin/internal/domain/models"
	"tinyrisks_admin/internal/lib/logger/sl"
	"tinyrisks_admin/internal/metrics"
	"tinyrisks_admin/internal/services/notify"
	"tinyrisks_admin/internal/services/preview"
)

const (
	defaultStatusAfter = notify.DefaultDismissAfter
	defaultCloseAfter  = time.Second
)

// Confirmer asks the user to approve a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

// Confirmed approves everything. The console uses it because the browser
// already asked before the request was sent.
var Confirmed Confirmer = ConfirmFunc(func(context.Context, string) (bool, error) { return true, nil })

// Action is a dispatch table entry.
type Action func(ctx context.Context, id models.ID) error

type Option func(*options)

type options struct {
	renderer    *preview.Renderer
	confirmer   Confirmer
	statusAfter time.Duration
	closeAfter  time.Duration
	sinks       []notify.Sink
}

// WithPreview enables the preview pane for Entity.PreviewField.
func WithPreview(r *preview.Renderer) Option {
	return func(o *options) { o.renderer = r }
}

func WithConfirmer(c Confirmer) Option {
	return func(o *options) { o.confirmer = c }
}

// WithStatusDismiss sets how long a status message stays visible.
func WithStatusDismiss(d time.Duration) Option {
	return func(o *options) { o.statusAfter = d }
}

// WithAutoClose sets the delay between a successful save and a modal closing.
func WithAutoClose(d time.Duration) Option {
	return func(o *options) { o.closeAfter = d }
}

// WithStatusSinks mirrors status messages elsewhere, e.g. a terminal.
func WithStatusSinks(sinks ...notify.Sink) Option {
	return func(o *options) { o.sinks = append(o.sinks, sinks...) }
}

type Controller[T any] struct {
	log     *slog.Logger
	entity  Entity[T]
	status  *notify.Notifier
	preview *preview.Binder
	confirm Confirmer

	closeAfter  time.Duration
	statusAfter time.Duration

	// submitMu is held for the whole of a submit; a second submit fails
	// with ErrBusy instead of queueing.
	submitMu sync.Mutex

	mu         sync.Mutex
	state      State
	list       ListView[T]
	closeTimer *time.Timer
	actions    map[string]Action
}

func New[T any](log *slog.Logger, entity Entity[T], opts ...Option) *Controller[T] {
	o := options{
		confirmer:   Confirmed,
		statusAfter: defaultStatusAfter,
		closeAfter:  defaultCloseAfter,
	}
	for _, opt := range opts {
		opt(&o)
	}

	entity.Labels = entity.Labels.withDefaults()

	c := &Controller[T]{
		log:         log.With(slog.String("entity", entity.Name)),
		entity:      entity,
		status:      notify.New(o.statusAfter, o.sinks...),
		confirm:     o.confirmer,
		closeAfter:  o.closeAfter,
		statusAfter: o.statusAfter,
	}

	if o.renderer != nil && entity.PreviewField != "" {
		c.preview = preview.Bind(o.renderer, "")
	}

	c.state = c.blankState()
	c.state.Tab = TabList

	c.actions = map[string]Action{
		"edit":   c.Edit,
		"delete": c.Delete,
		"reload": func(ctx context.Context, _ models.ID) error { return c.Reload(ctx) },
		"cancel": func(context.Context, models.ID) error { c.Cancel(); return nil },
		"open":   func(context.Context, models.ID) error { c.Open(); return nil },
		"close":  func(context.Context, models.ID) error { c.Close(); return nil },
		"tab-list": func(context.Context, models.ID) error {
			c.ShowTab(TabList)
			return nil
		},
		"tab-create": func(context.Context, models.ID) error {
			c.ShowTab(TabCreate)
			return nil
		},
	}

	return c
}

func (c *Controller[T]) Name() string { return c.entity.Name }

func (c *Controller[T]) Entity() Entity[T] { return c.entity }

// Handle registers or replaces a dispatch table entry.
func (c *Controller[T]) Handle(action string, fn Action) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.actions[action] = fn
}

// Dispatch runs the action registered under name for id.
func (c *Controller[T]) Dispatch(ctx context.Context, name string, id models.ID) error {
	const op = "controller.Controller.Dispatch"

	c.mu.Lock()
	fn, ok := c.actions[name]
	c.mu.Unlock()

	if !ok {
		return fmt.Errorf("%s: %q: %w", op, name, ErrUnknownAction)
	}

	return fn(ctx, id)
}

// Load fetches the whole collection and replaces the list view.
func (c *Controller[T]) Load(ctx context.Context) ListView[T] {
	const op = "controller.Controller.Load"

	log := c.log.With(slog.String("op", op))

	items, err := c.entity.List(ctx)

	view := ListView[T]{LoadedAt: time.Now()}
	switch {
	case err != nil:
		log.Error("failed to load collection", sl.Err(err))
		c.record("load", err)
		view.Error = c.entity.Labels.LoadError
	case len(items) == 0:
		c.record("load", nil)
		view.Empty = true
		view.Message = c.entity.Labels.Empty
	default:
		c.record("load", nil)
		view.Items = items
	}

	c.mu.Lock()
	c.list = view
	c.mu.Unlock()

	return view
}

// Reload is Load for callers that only care whether it worked.
func (c *Controller[T]) Reload(ctx context.Context) error {
	if view := c.Load(ctx); view.Error != "" {
		return errors.New(view.Error)
	}

	return nil
}

func (c *Controller[T]) List() ListView[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.list
}

// Edit fetches the entity and switches the form to edit mode.
func (c *Controller[T]) Edit(ctx context.Context, id models.ID) error {
	const op = "controller.Controller.Edit"

	log := c.log.With(slog.String("op", op), slog.String("id", id.String()))

	if !c.entity.editable() {
		return fmt.Errorf("%s: %w", op, ErrNotEditable)
	}

	item, err := c.entity.Get(ctx, id)
	if err != nil {
		log.Error("failed to fetch entity", sl.Err(err))
		c.record("edit", err)
		c.status.Error(Message(err, c.entity.Labels.Generic))
		return fmt.Errorf("%s: %w", op, err)
	}

	values := c.entity.blank()
	for k, v := range c.entity.Populate(item) {
		values[k] = v
	}

	editingID := id
	if c.entity.ID != nil && !c.entity.ID(item).IsZero() {
		editingID = c.entity.ID(item)
	}

	c.mu.Lock()
	c.stopCloseTimerLocked()
	c.state.Mode = ModeEdit
	c.state.EditingID = editingID
	c.state.Values = values
	c.state.Files = nil
	c.state.FileRequired = false
	c.state.SubmitLabel = c.entity.Labels.Edit
	c.state.CancelVisible = true
	c.state.Submitting = false
	if c.entity.Modal {
		c.state.ModalOpen = true
	} else {
		c.state.Tab = TabCreate
	}
	c.mu.Unlock()

	c.status.Clear()
	c.renderPreview(values[c.entity.PreviewField])
	c.record("edit", nil)

	log.Debug("editing entity")

	return nil
}

// Cancel returns the form to create mode. A modal stays as it is.
func (c *Controller[T]) Cancel() {
	c.reset(false)
}

// Open shows the modal editor in create mode.
func (c *Controller[T]) Open() {
	c.reset(false)

	c.mu.Lock()
	c.stopCloseTimerLocked()
	c.state.ModalOpen = true
	c.state.Tab = TabCreate
	c.mu.Unlock()
}

// Close hides the modal and always returns to create mode.
func (c *Controller[T]) Close() {
	c.reset(true)
}

func (c *Controller[T]) ShowTab(tab string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.Tab = tab
}

// Input sets one bound field and returns the refreshed preview when the
// field is the preview source.
func (c *Controller[T]) Input(field, value string) (template.HTML, error) {
	const op = "controller.Controller.Input"

	if !c.entity.bound(field) {
		return "", fmt.Errorf("%s: %q: %w", op, field, ErrUnknownField)
	}

	c.mu.Lock()
	c.state.Values[field] = value
	c.mu.Unlock()

	if field == c.entity.PreviewField {
		c.renderPreview(value)
	}

	return c.Preview(), nil
}

// SetValues overwrites every bound field from a submitted form; fields the
// form did not carry are cleared.
func (c *Controller[T]) SetValues(values Values) {
	next := c.entity.blank()
	for k := range next {
		next[k] = values[k]
	}

	c.mu.Lock()
	c.state.Values = next
	c.mu.Unlock()

	if c.entity.PreviewField != "" {
		c.renderPreview(next[c.entity.PreviewField])
	}
}

// Select replaces the file input's selection.
func (c *Controller[T]) Select(files []models.File) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.Files = append([]models.File(nil), files...)
}

// Submit creates or updates depending on the current mode. On success the
// form returns to create mode and the list is reloaded; on failure the form
// keeps its contents and the status line carries the reason.
func (c *Controller[T]) Submit(ctx context.Context) (models.MutationResult, error) {
	const op = "controller.Controller.Submit"

	if !c.submitMu.TryLock() {
		return models.MutationResult{}, fmt.Errorf("%s: %w", op, ErrBusy)
	}
	defer c.submitMu.Unlock()

	c.mu.Lock()
	mode := c.state.Mode
	id := c.state.EditingID
	sub := Submission{
		Values: c.state.Values.Clone(),
		Files:  append([]models.File(nil), c.state.Files...),
	}
	c.mu.Unlock()

	action := "create"
	if mode == ModeEdit {
		action = "update"
	}

	log := c.log.With(
		slog.String("op", op),
		slog.String("mode", string(mode)),
		slog.String("id", id.String()),
	)

	if c.entity.FileField != "" && mode == ModeCreate && len(sub.Files) == 0 {
		c.record(action, ErrFileRequired)
		c.status.Error(Message(ErrFileRequired, c.entity.Labels.Generic))
		return models.MutationResult{}, fmt.Errorf("%s: %w", op, ErrFileRequired)
	}

	if c.entity.Validate != nil {
		if err := c.entity.Validate(sub); err != nil {
			c.record(action, err)
			c.status.Error(Message(err, c.entity.Labels.Generic))
			return models.MutationResult{}, fmt.Errorf("%s: %w", op, err)
		}
	}

	c.setSubmitting(true)
	c.status.Info(c.entity.Labels.Saving)

	var (
		res models.MutationResult
		err error
	)
	if mode == ModeEdit {
		res, err = c.entity.Update(ctx, id, sub)
	} else {
		res, err = c.entity.Create(ctx, sub)
	}

	c.record(action, err)

	if err != nil {
		log.Error("failed to save", sl.Err(err))
		c.setSubmitting(false)
		c.status.Error(Message(err, c.entity.Labels.Generic))
		return models.MutationResult{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("saved", slog.String("result_id", res.ID.String()))

	c.reset(false)
	if mode == ModeEdit {
		c.status.Success(c.entity.Labels.Updated)
	} else {
		c.status.Success(c.entity.Labels.Saved)
	}

	if c.entity.Modal {
		c.scheduleClose()
	}

	c.Load(ctx)

	return res, nil
}

// Delete asks for confirmation, deletes and reloads. Deleting the entity
// being edited also resets the form.
func (c *Controller[T]) Delete(ctx context.Context, id models.ID) error {
	const op = "controller.Controller.Delete"

	log := c.log.With(slog.String("op", op), slog.String("id", id.String()))

	ok, err := c.confirm.Confirm(ctx, c.entity.Labels.Confirm)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		c.record("delete", ErrDeclined)
		return fmt.Errorf("%s: %w", op, ErrDeclined)
	}

	if err := c.entity.Delete(ctx, id); err != nil {
		log.Error("failed to delete", sl.Err(err))
		c.record("delete", err)
		c.status.Error(Message(err, c.entity.Labels.Generic))
		return fmt.Errorf("%s: %w", op, err)
	}

	c.record("delete", nil)

	c.mu.Lock()
	editing := c.state.Mode == ModeEdit && c.state.EditingID == id
	c.mu.Unlock()

	if editing {
		c.reset(false)
	}

	c.status.Success(c.entity.Labels.Deleted)
	c.Load(ctx)

	return nil
}

// State returns a copy of the form state.
func (c *Controller[T]) State() State {
	c.mu.Lock()
	s := c.state
	s.Values = c.state.Values.Clone()
	s.Files = append([]models.File(nil), c.state.Files...)
	c.mu.Unlock()

	if msg, ok := c.status.Current(); ok {
		s.Status = Status{Text: msg.Text, Kind: msg.Kind}
	}
	s.Preview = c.Preview()

	return s
}

func (c *Controller[T]) Preview() template.HTML {
	if c.preview == nil {
		return ""
	}

	return c.preview.HTML()
}

// Notify shows a message in this controller's status line.
func (c *Controller[T]) Notify(kind notify.Kind, text string) {
	c.status.Show(kind, text)
}

func (c *Controller[T]) Snapshot() Snapshot {
	c.mu.Lock()
	snap := Snapshot{
		Mode:      c.state.Mode,
		EditingID: c.state.EditingID,
		Values:    c.state.Values.Clone(),
		ModalOpen: c.state.ModalOpen,
		Tab:       c.state.Tab,
	}
	c.mu.Unlock()

	if msg, ok := c.status.Current(); ok {
		snap.Status = &Status{Text: msg.Text, Kind: msg.Kind}
		snap.StatusAt = msg.At
	}

	return snap
}

// Restore applies a snapshot taken by Snapshot. A status older than the
// dismiss delay is dropped.
func (c *Controller[T]) Restore(snap Snapshot) {
	values := c.entity.blank()
	for k := range values {
		values[k] = snap.Values[k]
	}

	c.mu.Lock()
	c.stopCloseTimerLocked()
	c.state = c.blankState()
	if snap.Mode == ModeEdit && !snap.EditingID.IsZero() {
		c.state.Mode = ModeEdit
		c.state.EditingID = snap.EditingID
		c.state.FileRequired = false
		c.state.SubmitLabel = c.entity.Labels.Edit
		c.state.CancelVisible = true
	}
	c.state.Values = values
	c.state.ModalOpen = snap.ModalOpen && c.entity.Modal
	c.state.Tab = snap.Tab
	if c.state.Tab == "" {
		c.state.Tab = TabList
	}
	c.mu.Unlock()

	c.status.Clear()
	if snap.Status != nil && (c.statusAfter <= 0 || time.Since(snap.StatusAt) < c.statusAfter) {
		c.status.Show(snap.Status.Kind, snap.Status.Text)
	}

	c.renderPreview(values[c.entity.PreviewField])
}

func (c *Controller[T]) blankState() State {
	return State{
		Mode:         ModeCreate,
		Values:       c.entity.blank(),
		FileRequired: c.entity.FileField != "",
		SubmitLabel:  c.entity.Labels.Create,
	}
}

// reset applies the edit -> create transition.
func (c *Controller[T]) reset(closeModal bool) {
	c.mu.Lock()
	modalOpen := c.state.ModalOpen && !closeModal
	tab := c.state.Tab
	if closeModal {
		c.stopCloseTimerLocked()
	}
	c.state = c.blankState()
	c.state.ModalOpen = modalOpen
	c.state.Tab = tab
	c.mu.Unlock()

	c.status.Clear()
	if c.preview != nil {
		c.preview.Reset()
	}
}

func (c *Controller[T]) setSubmitting(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.Submitting = v
}

func (c *Controller[T]) scheduleClose() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopCloseTimerLocked()
	c.closeTimer = time.AfterFunc(c.closeAfter, func() {
		c.mu.Lock()
		c.closeTimer = nil
		editing := c.state.Mode == ModeEdit
		c.mu.Unlock()

		// A new edit started since the save; leave it alone.
		if editing {
			return
		}

		c.mu.Lock()
		c.state.ModalOpen = false
		c.mu.Unlock()
	})
}

func (c *Controller[T]) stopCloseTimerLocked() {
	if c.closeTimer != nil {
		c.closeTimer.Stop()
		c.closeTimer = nil
	}
}

func (c *Controller[T]) renderPreview(text string) {
	if c.preview != nil {
		c.preview.Input(text)
	}
}

func (c *Controller[T]) record(action string, err error) {
	result := "ok"
	switch {
	case errors.Is(err, ErrDeclined):
		result = "declined"
	case errors.Is(err, ErrFileRequired):
		result = "invalid"
	case err != nil:
		result = "error"
	}

	metrics.ControllerActionsTotal.WithLabelValues(c.entity.Name, action, result).Inc()
}
