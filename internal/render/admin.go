package render

import (
	"html/template"

	"tinyrisks_admin/internal/domain/models"
	"tinyrisks_admin/internal/services/admin"
	"tinyrisks_admin/internal/services/controller"
	"tinyrisks_admin/internal/services/notify"
	"tinyrisks_admin/internal/services/upload"
)

const recentCount = 5

// EntityView is one admin panel: its form state, its list and its labels.
type EntityView[T any] struct {
	Name   string
	State  controller.State
	List   controller.ListView[T]
	Labels controller.Labels
	// Accept is the file input's accept list, when the form has one.
	Accept string
}

// Recent returns at most n items from the head of the list.
func (v EntityView[T]) Recent(n int) []T {
	if len(v.List.Items) <= n {
		return v.List.Items
	}

	return v.List.Items[:n]
}

func (v EntityView[T]) Editing() bool {
	return v.State.Mode == controller.ModeEdit
}

type UploadView struct {
	Form upload.Form
	View upload.View
}

type AdminView struct {
	Gallery  EntityView[models.GalleryItem]
	Posts    EntityView[models.TextPost]
	Snippets EntityView[models.Snippet]
	Uploads  []UploadView
	Prompts  []admin.Prompt
	CSRF     string
}

func newEntityView[T any](c *controller.Controller[T]) EntityView[T] {
	return EntityView[T]{
		Name:   c.Name(),
		State:  c.State(),
		List:   c.List(),
		Labels: c.Entity().Labels,
	}
}

// NewAdminView snapshots a session for rendering.
func NewAdminView(a *admin.Admin, csrf string) AdminView {
	v := AdminView{
		Gallery:  GalleryView(a),
		Posts:    newEntityView(a.Posts),
		Snippets: newEntityView(a.Snippets),
		Prompts:  a.Prompts(),
		CSRF:     csrf,
	}

	for _, z := range a.Uploads() {
		v.Uploads = append(v.Uploads, UploadView{Form: z.Form(), View: z.View()})
	}

	return v
}

func GalleryView(a *admin.Admin) EntityView[models.GalleryItem] {
	v := newEntityView(a.Gallery)
	v.Accept = "image/*"

	return v
}

// AdminPage renders the full console page.
func AdminPage(a *admin.Admin, page PageData, csrf string) ([]byte, error) {
	body, err := execute("admin", NewAdminView(a, csrf))
	if err != nil {
		return nil, err
	}

	page.Content = body
	page.CSRF = csrf
	page.ExtraScripts = adminScripts()
	if page.Title == "" {
		page.Title = "Admin"
	}

	return Page(page)
}

// Panel renders one entity panel, the unit htmx swaps after an action.
func Panel(a *admin.Admin, entity string) (template.HTML, error) {
	switch entity {
	case admin.EntityGallery:
		return execute("gallery-panel", GalleryView(a))
	case admin.EntityPosts:
		return execute("posts-panel", newEntityView(a.Posts))
	case admin.EntitySnippets:
		return execute("snippets-panel", newEntityView(a.Snippets))
	}

	return "", admin.ErrUnknownEntity
}

// List renders only an entity's list, as a refresh does.
func List(a *admin.Admin, entity string) (template.HTML, error) {
	switch entity {
	case admin.EntityGallery:
		return execute("gallery-list", GalleryView(a))
	case admin.EntityPosts:
		return execute("posts-list", newEntityView(a.Posts))
	case admin.EntitySnippets:
		return execute("snippets-list", newEntityView(a.Snippets))
	}

	return "", admin.ErrUnknownEntity
}

func DropZone(z *upload.DropZone) (template.HTML, error) {
	return execute("dropzone", UploadView{Form: z.Form(), View: z.View()})
}

// DropZoneSummary renders only the zone's label, for a new selection.
func DropZoneSummary(z *upload.DropZone) (template.HTML, error) {
	return execute("dropzone-summary", UploadView{Form: z.Form(), View: z.View()})
}

func Status(s controller.Status) (template.HTML, error) {
	return execute("status", s)
}

// Toast renders a notification for clients without htmx events.
func Toast(msg notify.Message) (template.HTML, error) {
	return execute("toast", msg)
}

func adminScripts() template.HTML {
	return template.HTML(`<script src="https://unpkg.com/htmx.org@1.9.12"></script>
<script src="/admin/static/admin.js"></script>`)
}
