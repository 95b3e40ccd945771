// Package upload turns a plain file input into a drop-zone: a type label
// guessed from the input's accept list, a summary of the selected file and a
// guarded submit. Drag highlighting stays in the browser.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"tinyrisks_admin/internal/domain/models"
	"tinyrisks_admin/internal/lib/format"
	"tinyrisks_admin/internal/lib/logger/sl"
	"tinyrisks_admin/internal/services/notify"
	"tinyrisks_admin/internal/storage/apiclient"
	"tinyrisks_admin/internal/transport/http/dto"
)

const (
	uploadingLabel = "Uploading..."
	defaultLabel   = "Upload"
	emptyIcon      = "📁"
)

var (
	ErrNoFile = errors.New("please select a file")
	ErrBusy   = errors.New("an upload is already in progress")
)

type Uploader interface {
	UploadMedia(ctx context.Context, form dto.UploadForm) (models.MutationResult, error)
}

// Form describes the upload form the zone enhances.
type Form struct {
	ID     string
	Action string
	// Field is the file input's name.
	Field  string
	Accept string
	Label  string
	Extra  map[string]string
}

// View is what the zone currently displays.
type View struct {
	Icon        string
	Prompt      string
	Accepted    string
	FileName    string
	FileSummary string
	SubmitLabel string
	Submitting  bool
}

type DropZone struct {
	log      *slog.Logger
	form     Form
	uploader Uploader
	notifier *notify.Notifier
	// reload is the targeted re-fetch run after a successful upload.
	reload func(ctx context.Context) error

	mu         sync.Mutex
	file       *models.File
	submitting bool
}

type Option func(*DropZone)

// WithReload sets what is re-fetched after a successful upload.
func WithReload(fn func(ctx context.Context) error) Option {
	return func(z *DropZone) { z.reload = fn }
}

func WithNotifier(n *notify.Notifier) Option {
	return func(z *DropZone) { z.notifier = n }
}

func Enhance(log *slog.Logger, form Form, uploader Uploader, opts ...Option) *DropZone {
	if form.Label == "" {
		form.Label = defaultLabel
	}

	z := &DropZone{
		log:      log.With(slog.String("form", form.ID)),
		form:     form,
		uploader: uploader,
		notifier: notify.New(notify.DefaultDismissAfter),
	}
	for _, opt := range opts {
		opt(z)
	}

	return z
}

func (z *DropZone) Form() Form { return z.form }

// Kind is the file type guessed from the accept attribute.
func (z *DropZone) Kind() models.MediaType {
	return models.GuessMediaType(z.form.Accept)
}

// Change takes the first file as the selection. Dropped and picked files both
// arrive here; an empty selection keeps the current one.
func (z *DropZone) Change(files []models.File) View {
	if len(files) > 0 {
		z.choose(files[0])
	}

	return z.View()
}

// Clear drops the selection.
func (z *DropZone) Clear() {
	z.mu.Lock()
	defer z.mu.Unlock()

	z.file = nil
}

func (z *DropZone) View() View {
	z.mu.Lock()
	defer z.mu.Unlock()

	v := View{
		Submitting:  z.submitting,
		SubmitLabel: z.form.Label,
	}
	if z.submitting {
		v.SubmitLabel = uploadingLabel
	}

	if z.file == nil {
		accepted := z.form.Accept
		if accepted == "" {
			accepted = "any file"
		}

		v.Icon = emptyIcon
		v.Prompt = fmt.Sprintf("Click to select %s or drag and drop here", z.Kind())
		v.Accepted = "Accepted: " + accepted

		return v
	}

	v.Icon = z.file.MediaType().Icon()
	v.FileName = z.file.Name
	v.FileSummary = Describe(*z.file)

	return v
}

// Describe is the single size summary used by both selection paths.
func Describe(f models.File) string {
	return format.FileSize(f.Size) + " • Click to change"
}

// Submit uploads the selected file. Without a file nothing is sent. On
// success the owning view is re-fetched.
func (z *DropZone) Submit(ctx context.Context, progress func(body io.Reader, total int64) io.Reader) (models.MutationResult, error) {
	const op = "upload.DropZone.Submit"

	log := z.log.With(slog.String("op", op))

	z.mu.Lock()
	if z.submitting {
		z.mu.Unlock()
		return models.MutationResult{}, fmt.Errorf("%s: %w", op, ErrBusy)
	}
	if z.file == nil {
		z.mu.Unlock()
		z.notifier.Error("Please select a file")
		return models.MutationResult{}, fmt.Errorf("%s: %w", op, ErrNoFile)
	}
	file := *z.file
	z.submitting = true
	z.mu.Unlock()

	res, err := z.uploader.UploadMedia(ctx, dto.UploadForm{
		Action:   z.form.Action,
		Field:    z.form.Field,
		File:     file,
		Extra:    z.form.Extra,
		Progress: progress,
	})

	z.mu.Lock()
	z.submitting = false
	if err == nil {
		z.file = nil
	}
	z.mu.Unlock()

	if err != nil {
		log.Error("upload failed", sl.Err(err))
		z.notifier.Error("Upload error: " + uploadMessage(err))
		return models.MutationResult{}, fmt.Errorf("%s: %w", op, err)
	}

	z.notifier.Success("Upload successful!")

	if z.reload != nil {
		if err := z.reload(ctx); err != nil {
			log.Warn("reload after upload failed", sl.Err(err))
		}
	}

	return res, nil
}

func (z *DropZone) Notifier() *notify.Notifier { return z.notifier }

func (z *DropZone) choose(f models.File) {
	z.mu.Lock()
	defer z.mu.Unlock()

	z.file = &f
}

func uploadMessage(err error) string {
	if msg := apiclient.ServerMessage(err); msg != "" {
		return msg
	}

	return "Upload failed"
}
