// Package admin assembles one admin session: the gallery, post and snippet
// controllers, the upload drop-zones and the page-level toast.
package admin

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"tinyrisks_admin/internal/domain/models"
	"tinyrisks_admin/internal/lib/format"
	"tinyrisks_admin/internal/lib/logger/sl"
	"tinyrisks_admin/internal/services/auth"
	blogservice "tinyrisks_admin/internal/services/blog_service"
	"tinyrisks_admin/internal/services/controller"
	galleryservice "tinyrisks_admin/internal/services/gallery_service"
	mediaservice "tinyrisks_admin/internal/services/media_service"
	"tinyrisks_admin/internal/services/notify"
	"tinyrisks_admin/internal/services/preview"
	snippetservice "tinyrisks_admin/internal/services/snippet_service"
	"tinyrisks_admin/internal/services/upload"
	"tinyrisks_admin/internal/transport/http/dto"

	"github.com/go-playground/validator/v10"
)

const (
	EntityGallery  = "gallery"
	EntityPosts    = "posts"
	EntitySnippets = "snippets"
)

var (
	ErrUnknownEntity = errors.New("unknown entity")
	ErrUnknownUpload = errors.New("unknown upload form")
	ErrUnknownPrompt = errors.New("unknown prompt")
	ErrNoClipboard   = errors.New("clipboard is not available")
)

// Services are the backend operations an admin session drives.
type Services struct {
	Gallery  *galleryservice.GalleryService
	Blog     *blogservice.BlogService
	Snippets *snippetservice.SnippetService
	Media    *mediaservice.MediaService
	Auth     *auth.Auth
	Validate *validator.Validate
}

// Prompt is a world-building prompt offered with a copy button.
type Prompt struct {
	ID    string `yaml:"id"`
	Title string `yaml:"title"`
	Text  string `yaml:"text"`
}

// UploadForm is a drop-zone plus the entity re-fetched after it uploads.
type UploadForm struct {
	upload.Form
	Refresh string
}

type Options struct {
	Renderer    *preview.Renderer
	Confirmer   controller.Confirmer
	StatusAfter time.Duration
	CloseAfter  time.Duration
	Sinks       []notify.Sink
	Uploads     []UploadForm
	Prompts     []Prompt
	// Clipboard writes text to the local clipboard. The console leaves it
	// nil since copying happens in the browser.
	Clipboard func(text string) error
	// Progress wraps multipart bodies, e.g. with a progress bar.
	Progress func(body io.Reader, total int64) io.Reader
}

type Admin struct {
	log      *slog.Logger
	services Services
	opts     Options

	Gallery  *controller.Controller[models.GalleryItem]
	Posts    *controller.Controller[models.TextPost]
	Snippets *controller.Controller[models.Snippet]

	toast   *notify.Notifier
	zones   map[string]*upload.DropZone
	zoneIDs []string
	refresh map[string]string
	prompts map[string]Prompt
}

// New builds the controllers for one session. Nothing is fetched until the
// caller loads the lists.
func New(log *slog.Logger, services Services, opts Options) *Admin {
	if services.Validate == nil {
		services.Validate = validator.New()
	}
	if opts.StatusAfter == 0 {
		opts.StatusAfter = notify.DefaultDismissAfter
	}

	a := &Admin{
		log:      log,
		services: services,
		opts:     opts,
		toast:    notify.New(opts.StatusAfter, opts.Sinks...),
		zones:    make(map[string]*upload.DropZone),
		refresh:  make(map[string]string),
		prompts:  make(map[string]Prompt, len(opts.Prompts)),
	}

	ctrlOpts := []controller.Option{
		controller.WithStatusDismiss(opts.StatusAfter),
		controller.WithStatusSinks(opts.Sinks...),
	}
	if opts.Renderer != nil {
		ctrlOpts = append(ctrlOpts, controller.WithPreview(opts.Renderer))
	}
	if opts.Confirmer != nil {
		ctrlOpts = append(ctrlOpts, controller.WithConfirmer(opts.Confirmer))
	}
	if opts.CloseAfter > 0 {
		ctrlOpts = append(ctrlOpts, controller.WithAutoClose(opts.CloseAfter))
	}

	a.Gallery = controller.New(log, a.galleryEntity(), ctrlOpts...)
	a.Posts = controller.New(log, a.postEntity(), ctrlOpts...)
	a.Snippets = controller.New(log, a.snippetEntity(), ctrlOpts...)

	a.Posts.Handle("publish", func(ctx context.Context, id models.ID) error {
		return a.setPublished(ctx, id, true)
	})
	a.Posts.Handle("unpublish", func(ctx context.Context, id models.ID) error {
		return a.setPublished(ctx, id, false)
	})
	a.Snippets.Handle("build", func(ctx context.Context, _ models.ID) error {
		return a.Build(ctx)
	})

	for _, f := range opts.Uploads {
		zoneOpts := []upload.Option{upload.WithNotifier(a.toast)}
		if f.Refresh != "" {
			refresh := f.Refresh
			zoneOpts = append(zoneOpts, upload.WithReload(func(ctx context.Context) error {
				return a.Reload(ctx, refresh)
			}))
		}

		a.zones[f.ID] = upload.Enhance(log, f.Form, services.Media, zoneOpts...)
		a.zoneIDs = append(a.zoneIDs, f.ID)
		a.refresh[f.ID] = f.Refresh
	}

	for _, p := range opts.Prompts {
		a.prompts[p.ID] = p
	}

	return a
}

// LoadAll fetches every list, as a fresh page load does.
func (a *Admin) LoadAll(ctx context.Context) {
	a.Gallery.Load(ctx)
	a.Posts.Load(ctx)
	a.Snippets.Load(ctx)
}

// LoadMissing fetches only the lists that were never loaded, e.g. when a panel
// is requested for a session built after a restart.
func (a *Admin) LoadMissing(ctx context.Context) {
	if a.Gallery.List().LoadedAt.IsZero() {
		a.Gallery.Load(ctx)
	}
	if a.Posts.List().LoadedAt.IsZero() {
		a.Posts.Load(ctx)
	}
	if a.Snippets.List().LoadedAt.IsZero() {
		a.Snippets.Load(ctx)
	}
}

// Reload re-fetches one entity's list.
func (a *Admin) Reload(ctx context.Context, entity string) error {
	const op = "admin.Admin.Reload"

	switch entity {
	case EntityGallery:
		return a.Gallery.Reload(ctx)
	case EntityPosts:
		return a.Posts.Reload(ctx)
	case EntitySnippets:
		return a.Snippets.Reload(ctx)
	}

	return fmt.Errorf("%s: %q: %w", op, entity, ErrUnknownEntity)
}

// Dispatch routes an action to the named entity's controller.
func (a *Admin) Dispatch(ctx context.Context, entity, action string, id models.ID) error {
	const op = "admin.Admin.Dispatch"

	var err error
	switch entity {
	case EntityGallery:
		err = a.Gallery.Dispatch(ctx, action, id)
	case EntityPosts:
		err = a.Posts.Dispatch(ctx, action, id)
	case EntitySnippets:
		err = a.Snippets.Dispatch(ctx, action, id)
	default:
		err = ErrUnknownEntity
	}
	if err != nil {
		return fmt.Errorf("%s: %s/%s: %w", op, entity, action, err)
	}

	return nil
}

// Input feeds one keystroke-level field change to the entity's form and
// returns its preview.
func (a *Admin) Input(entity, field, value string) (template.HTML, error) {
	const op = "admin.Admin.Input"

	var (
		out template.HTML
		err error
	)
	switch entity {
	case EntityGallery:
		out, err = a.Gallery.Input(field, value)
	case EntityPosts:
		out, err = a.Posts.Input(field, value)
	case EntitySnippets:
		out, err = a.Snippets.Input(field, value)
	default:
		err = ErrUnknownEntity
	}
	if err != nil {
		return "", fmt.Errorf("%s: %s: %w", op, entity, err)
	}

	return out, nil
}

// Submit stores the submitted form in the entity's controller and submits it.
func (a *Admin) Submit(ctx context.Context, entity string, values controller.Values, files []models.File) (models.MutationResult, error) {
	const op = "admin.Admin.Submit"

	var (
		res models.MutationResult
		err error
	)
	switch entity {
	case EntityGallery:
		a.Gallery.SetValues(values)
		a.Gallery.Select(files)
		res, err = a.Gallery.Submit(ctx)
	case EntityPosts:
		a.Posts.SetValues(values)
		res, err = a.Posts.Submit(ctx)
	case EntitySnippets:
		a.Snippets.SetValues(values)
		res, err = a.Snippets.Submit(ctx)
	default:
		err = ErrUnknownEntity
	}
	if err != nil {
		return models.MutationResult{}, fmt.Errorf("%s: %s: %w", op, entity, err)
	}

	return res, nil
}

// Build asks the API to rebuild the static site.
func (a *Admin) Build(ctx context.Context) error {
	const op = "admin.Admin.Build"

	log := a.log.With(slog.String("op", op))

	a.toast.Info("Building site...")

	if err := a.services.Snippets.Build(ctx); err != nil {
		log.Error("build failed", sl.Err(err))
		a.toast.Error("Build error: " + controller.Message(err, "Build failed"))
		return fmt.Errorf("%s: %w", op, err)
	}

	a.toast.Success("Site built successfully!")

	return nil
}

// Logout ends the session and returns where to redirect.
func (a *Admin) Logout(ctx context.Context) (string, error) {
	const op = "admin.Admin.Logout"

	target, err := a.services.Auth.Logout(ctx)
	if err != nil {
		a.toast.Error("Logout failed")
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return target, nil
}

// CopyPrompt puts a prompt's text on the clipboard.
func (a *Admin) CopyPrompt(id string) error {
	const op = "admin.Admin.CopyPrompt"

	p, ok := a.prompts[id]
	if !ok {
		return fmt.Errorf("%s: %q: %w", op, id, ErrUnknownPrompt)
	}

	if a.opts.Clipboard == nil {
		a.toast.Error("Failed to copy prompt")
		return fmt.Errorf("%s: %w", op, ErrNoClipboard)
	}

	if err := a.opts.Clipboard(p.Text); err != nil {
		a.log.Error("copy failed", slog.String("op", op), sl.Err(err))
		a.toast.Error("Failed to copy prompt")
		return fmt.Errorf("%s: %w", op, err)
	}

	a.toast.Success("Prompt copied to clipboard!")

	return nil
}

func (a *Admin) Prompts() []Prompt {
	return append([]Prompt(nil), a.opts.Prompts...)
}

func (a *Admin) Upload(id string) (*upload.DropZone, error) {
	z, ok := a.zones[id]
	if !ok {
		return nil, fmt.Errorf("admin.Admin.Upload: %q: %w", id, ErrUnknownUpload)
	}

	return z, nil
}

// RefreshOf names the entity re-fetched after the form uploads, if any.
func (a *Admin) RefreshOf(id string) string {
	return a.refresh[id]
}

// Uploads returns the drop-zones in configuration order.
func (a *Admin) Uploads() []*upload.DropZone {
	out := make([]*upload.DropZone, 0, len(a.zoneIDs))
	for _, id := range a.zoneIDs {
		out = append(out, a.zones[id])
	}

	return out
}

// Toast is the page-level notification.
func (a *Admin) Toast() *notify.Notifier { return a.toast }

// Snapshot is the persistable state of every controller, keyed by entity.
type Snapshot map[string]controller.Snapshot

func (a *Admin) Snapshot() Snapshot {
	return Snapshot{
		EntityGallery:  a.Gallery.Snapshot(),
		EntityPosts:    a.Posts.Snapshot(),
		EntitySnippets: a.Snippets.Snapshot(),
	}
}

// Restore applies a snapshot; entities missing from it are left alone.
func (a *Admin) Restore(snap Snapshot) {
	if s, ok := snap[EntityGallery]; ok {
		a.Gallery.Restore(s)
	}
	if s, ok := snap[EntityPosts]; ok {
		a.Posts.Restore(s)
	}
	if s, ok := snap[EntitySnippets]; ok {
		a.Snippets.Restore(s)
	}
}

// Entities lists the entity names in page order.
func Entities() []string {
	return []string{EntityGallery, EntityPosts, EntitySnippets}
}

func (a *Admin) setPublished(ctx context.Context, id models.ID, published bool) error {
	const op = "admin.Admin.setPublished"

	if err := a.services.Blog.SetPublished(ctx, id, published); err != nil {
		a.Posts.Notify(notify.KindError, controller.Message(err, "Could not change the post"))
		return fmt.Errorf("%s: %w", op, err)
	}

	if published {
		a.Posts.Notify(notify.KindSuccess, "Published")
	} else {
		a.Posts.Notify(notify.KindSuccess, "Unpublished")
	}

	a.Posts.Load(ctx)

	return nil
}

func (a *Admin) galleryEntity() controller.Entity[models.GalleryItem] {
	svc := a.services.Gallery

	return controller.Entity[models.GalleryItem]{
		Name:         EntityGallery,
		Encoding:     controller.EncodingMultipart,
		Fields:       []string{"title", "caption", "description"},
		FileField:    "images",
		PreviewField: "description",
		Labels: controller.Labels{
			Create:    "Upload Gallery",
			Edit:      "Update Gallery",
			Saving:    "Saving...",
			Saved:     "Gallery created!",
			Updated:   "Gallery updated!",
			Deleted:   "Gallery deleted",
			Empty:     "No galleries yet.",
			LoadError: "Error loading galleries",
			Confirm:   "Delete this gallery?",
		},
		ID:   func(g models.GalleryItem) models.ID { return g.ID },
		List: svc.ListGalleryItems,
		Get:  svc.GetGalleryItem,
		Populate: func(g models.GalleryItem) controller.Values {
			return controller.Values{
				"title":       g.Title,
				"caption":     g.Caption,
				"description": g.Description,
			}
		},
		Create: func(ctx context.Context, sub controller.Submission) (models.MutationResult, error) {
			return svc.CreateGalleryItem(ctx, a.galleryForm(sub))
		},
		Update: func(ctx context.Context, id models.ID, sub controller.Submission) (models.MutationResult, error) {
			return svc.UpdateGalleryItem(ctx, id, a.galleryForm(sub))
		},
		Delete: svc.DeleteGalleryItem,
		Validate: func(sub controller.Submission) error {
			return a.services.Validate.Struct(a.galleryForm(sub))
		},
	}
}

func (a *Admin) postEntity() controller.Entity[models.TextPost] {
	svc := a.services.Blog

	return controller.Entity[models.TextPost]{
		Name:         EntityPosts,
		Encoding:     controller.EncodingJSON,
		Fields:       []string{"title", "subtitle", "category", "tags", "reading_time", "content", "published"},
		PreviewField: "content",
		Modal:        true,
		Labels: controller.Labels{
			Create:    "Create Post",
			Edit:      "Update Post",
			Saved:     "Post created!",
			Updated:   "Post updated!",
			Deleted:   "Post deleted",
			Empty:     "No text posts yet.",
			LoadError: "Error loading posts",
			Confirm:   "Delete this post?",
		},
		ID:   func(p models.TextPost) models.ID { return p.ID },
		List: svc.ListPosts,
		Get:  svc.GetPost,
		Populate: func(p models.TextPost) controller.Values {
			published := ""
			if p.Published {
				published = "true"
			}

			return controller.Values{
				"title":        p.Title,
				"subtitle":     p.Subtitle,
				"category":     p.Category,
				"tags":         format.JoinTags(p.Tags),
				"reading_time": fmt.Sprint(p.ReadingTime),
				"content":      p.Content,
				"published":    published,
			}
		},
		Create: func(ctx context.Context, sub controller.Submission) (models.MutationResult, error) {
			return svc.CreatePost(ctx, PostRequest(sub.Values))
		},
		Update: func(ctx context.Context, id models.ID, sub controller.Submission) (models.MutationResult, error) {
			return svc.UpdatePost(ctx, id, PostRequest(sub.Values))
		},
		Delete: svc.DeletePost,
		Validate: func(sub controller.Submission) error {
			return a.services.Validate.Struct(PostRequest(sub.Values))
		},
	}
}

func (a *Admin) snippetEntity() controller.Entity[models.Snippet] {
	svc := a.services.Snippets

	return controller.Entity[models.Snippet]{
		Name:     EntitySnippets,
		Encoding: controller.EncodingJSON,
		Fields:   []string{"title", "content", "tags"},
		Labels: controller.Labels{
			Create:    "Create Post",
			Saving:    "Saving...",
			Saved:     "Post created successfully!",
			Deleted:   "Post deleted",
			Empty:     "No posts yet. Create your first one!",
			LoadError: "Error loading posts",
			Confirm:   "Delete this post?",
		},
		ID:   func(s models.Snippet) models.ID { return s.ID },
		List: svc.ListSnippets,
		Create: func(ctx context.Context, sub controller.Submission) (models.MutationResult, error) {
			return svc.CreateSnippet(ctx, SnippetRequest(sub.Values))
		},
		Delete: svc.DeleteSnippet,
		Validate: func(sub controller.Submission) error {
			return a.services.Validate.Struct(SnippetRequest(sub.Values))
		},
	}
}

func (a *Admin) galleryForm(sub controller.Submission) dto.GalleryForm {
	return dto.GalleryForm{
		Title:       sub.Values["title"],
		Caption:     sub.Values["caption"],
		Description: sub.Values["description"],
		Images:      sub.Files,
		Progress:    a.opts.Progress,
	}
}

// PostRequest converts the post editor's fields into the API body.
func PostRequest(v controller.Values) dto.TextPostRequest {
	return dto.TextPostRequest{
		Title:       strings.TrimSpace(v["title"]),
		Subtitle:    v["subtitle"],
		Category:    v["category"],
		Tags:        format.Tags(v["tags"]),
		ReadingTime: format.ReadingTime(v["reading_time"]),
		Content:     v["content"],
		Published:   Checked(v["published"]),
	}
}

func SnippetRequest(v controller.Values) dto.SnippetRequest {
	return dto.SnippetRequest{
		Title:   strings.TrimSpace(v["title"]),
		Content: v["content"],
		Tags:    format.Tags(v["tags"]),
	}
}

// Checked reports whether a checkbox value is set.
func Checked(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "true", "1", "yes":
		return true
	}

	return false
}

// PromptIDs returns the configured prompt ids, sorted.
func (a *Admin) PromptIDs() []string {
	ids := make([]string, 0, len(a.prompts))
	for id := range a.prompts {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return ids
}
