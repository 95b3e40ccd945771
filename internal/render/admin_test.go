package render_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"tinyrisks_admin/internal/domain/models"
	"tinyrisks_admin/internal/lib/apitest"
	"tinyrisks_admin/internal/render"
	"tinyrisks_admin/internal/repository"
	"tinyrisks_admin/internal/services/admin"
	"tinyrisks_admin/internal/services/controller"
	"tinyrisks_admin/internal/services/notify"
	"tinyrisks_admin/internal/services/preview"
	"tinyrisks_admin/internal/services/upload"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAdmin(t *testing.T) *admin.Admin {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	_, srv := apitest.Start(t)

	repo, err := repository.NewRepository(log, srv.URL, 5*time.Second)
	require.NoError(t, err)

	return admin.New(log, admin.NewServices(log, repo, nil), admin.Options{
		Renderer: preview.NewRenderer(preview.Options{}),
		Uploads: []admin.UploadForm{{
			Form:    upload.Form{ID: "poseidon", Action: "/api/upload", Field: "file", Accept: "image/*"},
			Refresh: admin.EntityGallery,
		}},
		Prompts: []admin.Prompt{{ID: "sea", Title: "Sea", Text: "Draw the tide"}},
	})
}

func pngFile(name string) models.File {
	return models.File{
		Name:        name,
		Size:        2048,
		ContentType: "image/png",
		Open:        func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader("png")), nil },
	}
}

func TestAdminPage(t *testing.T) {
	a := setupAdmin(t)
	ctx := context.Background()
	a.LoadAll(ctx)

	_, err := a.Submit(ctx, admin.EntityGallery, controller.Values{"title": payload}, []models.File{pngFile("a.png")})
	require.NoError(t, err)

	page, err := render.AdminPage(a, render.PageData{}, "tok123")
	require.NoError(t, err)

	out := string(page)
	assert.Contains(t, out, "<title>Admin | TinyRisks.art</title>")
	assert.Contains(t, out, `hx-headers='{"X-CSRF-Token": "tok123"}'`)
	assert.Contains(t, out, `name="_csrf" value="tok123"`)
	assert.Contains(t, out, "htmx.org@1.9.12")
	assert.Contains(t, out, "/admin/static/admin.js")

	assert.Contains(t, out, `src="/static/uploads/img-`)
	assert.NotContains(t, out, `<script>alert`)
	assert.Contains(t, out, "&lt;script&gt;")

	assert.Contains(t, out, "No text posts yet.")
	assert.Contains(t, out, "No posts yet. Create your first one!")
	assert.Contains(t, out, `id="post-modal" class="modal" hidden`)

	assert.Contains(t, out, `data-select="/admin/uploads/poseidon/select"`)
	assert.Contains(t, out, "Accepted: image/*")
	assert.Contains(t, out, `data-prompt="Draw the tide"`)
}

func TestPanel(t *testing.T) {
	a := setupAdmin(t)
	ctx := context.Background()
	a.LoadAll(ctx)

	require.NoError(t, a.Dispatch(ctx, admin.EntityPosts, "open", ""))

	panel, err := render.Panel(a, admin.EntityPosts)
	require.NoError(t, err)
	assert.Contains(t, string(panel), `class="modal open"`)
	assert.Contains(t, string(panel), "Create Post")

	_, err = render.Panel(a, "nope")
	assert.ErrorIs(t, err, admin.ErrUnknownEntity)

	_, err = render.List(a, "nope")
	assert.ErrorIs(t, err, admin.ErrUnknownEntity)

	list, err := render.List(a, admin.EntityGallery)
	require.NoError(t, err)
	assert.Contains(t, string(list), "No galleries yet.")
}

func TestDropZoneSummary(t *testing.T) {
	a := setupAdmin(t)

	z, err := a.Upload("poseidon")
	require.NoError(t, err)
	z.Change([]models.File{pngFile(`<b>.png`)})

	out, err := render.DropZoneSummary(z)
	require.NoError(t, err)
	assert.Contains(t, string(out), "2 KB • Click to change")
	assert.Contains(t, string(out), "&lt;b&gt;.png")
}

func TestStatusAndToast(t *testing.T) {
	out, err := render.Status(controller.Status{Text: "Saved", Kind: notify.KindSuccess})
	require.NoError(t, err)
	assert.Contains(t, string(out), `class="status success"`)

	toast, err := render.Toast(notify.Message{Text: "<i>hi</i>", Kind: notify.KindError})
	require.NoError(t, err)
	assert.Contains(t, string(toast), "&lt;i&gt;hi&lt;/i&gt;")
	assert.Contains(t, string(toast), "notification error show")
}
