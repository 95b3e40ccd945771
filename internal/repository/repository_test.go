package repository_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"tinyrisks_admin/internal/domain/models"
	"tinyrisks_admin/internal/lib/apitest"
	"tinyrisks_admin/internal/repository"
	"tinyrisks_admin/internal/storage"
	"tinyrisks_admin/internal/storage/apiclient"
	"tinyrisks_admin/internal/transport/http/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRepository(t *testing.T) (*repository.Repository, *apitest.API) {
	t.Helper()

	api, srv := apitest.Start(t)

	repo, err := repository.NewRepository(slog.New(slog.NewTextHandler(io.Discard, nil)), srv.URL, 5*time.Second)
	require.NoError(t, err)

	return repo, api
}

func memFile(name, content string) models.File {
	return models.File{
		Name:        name,
		Size:        int64(len(content)),
		ContentType: "image/png",
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(content)), nil
		},
	}
}

func TestGalleryRepo_Lifecycle(t *testing.T) {
	repo, _ := setupRepository(t)
	ctx := context.Background()

	res, err := repo.Gallery.CreateGalleryItem(ctx, dto.GalleryForm{
		Title:   "Test",
		Caption: "caption",
		Images:  []models.File{memFile("a.png", "png")},
	})
	require.NoError(t, err)
	require.True(t, res.Success)
	require.False(t, res.ID.IsZero())
	require.Len(t, res.Images, 1)

	items, err := repo.Gallery.ListGalleryItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Test", items[0].Title)
	assert.Equal(t, "caption", items[0].Caption)

	t.Run("update without files keeps images", func(t *testing.T) {
		_, err := repo.Gallery.UpdateGalleryItem(ctx, res.ID, dto.GalleryForm{Title: "Renamed"})
		require.NoError(t, err)

		item, err := repo.Gallery.GetGalleryItem(ctx, res.ID)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", item.Title)
		assert.Equal(t, res.Images, item.Images)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.Gallery.DeleteGalleryItem(ctx, res.ID))

		items, err := repo.Gallery.ListGalleryItems(ctx)
		require.NoError(t, err)
		assert.Empty(t, items)

		err = repo.Gallery.DeleteGalleryItem(ctx, res.ID)
		assert.True(t, errors.Is(err, storage.ErrNotFound))
	})
}

func TestGalleryRepo_ServerValidationMessage(t *testing.T) {
	repo, _ := setupRepository(t)

	_, err := repo.Gallery.CreateGalleryItem(context.Background(), dto.GalleryForm{Title: "No files"})
	require.Error(t, err)

	assert.True(t, errors.Is(err, storage.ErrBadRequest))
	assert.Equal(t, "At least one image is required", apiclient.ServerMessage(err))
}

func TestTextPostRepo_RequestBody(t *testing.T) {
	repo, api := setupRepository(t)
	ctx := context.Background()

	res, err := repo.TextPost.CreateTextPost(ctx, dto.TextPostRequest{
		Title:       "Essay",
		Tags:        []string{"a", "b"},
		ReadingTime: 5,
		Content:     "# Hello",
		Published:   true,
	})
	require.NoError(t, err)

	reqs := api.Requests("POST /api/text-posts")
	require.Len(t, reqs, 1)

	var body map[string]any
	require.NoError(t, json.Unmarshal(reqs[0].Body, &body))
	assert.Equal(t, []any{"a", "b"}, body["tags"])
	assert.Equal(t, float64(5), body["reading_time"])
	assert.Equal(t, true, body["published"])

	post, err := repo.TextPost.GetTextPost(ctx, res.ID)
	require.NoError(t, err)
	assert.True(t, bool(post.Published))
	assert.Equal(t, []string{"a", "b"}, post.Tags)
	assert.False(t, post.CreatedAt.IsZero())
}

func TestTextPostRepo_NilTagsSentAsList(t *testing.T) {
	repo, api := setupRepository(t)

	_, err := repo.TextPost.CreateTextPost(context.Background(), dto.TextPostRequest{
		Title:       "T",
		Content:     "C",
		ReadingTime: -3,
	})
	require.NoError(t, err)

	reqs := api.Requests("POST /api/text-posts")
	require.Len(t, reqs, 1)
	assert.Contains(t, string(reqs[0].Body), `"tags":[]`)
	assert.Contains(t, string(reqs[0].Body), `"reading_time":0`)
}

func TestTextPostRepo_UpdateAndDelete(t *testing.T) {
	repo, _ := setupRepository(t)
	ctx := context.Background()

	res, err := repo.TextPost.CreateTextPost(ctx, dto.TextPostRequest{Title: "T", Content: "C"})
	require.NoError(t, err)

	_, err = repo.TextPost.UpdateTextPost(ctx, res.ID, dto.TextPostRequest{Title: "T2", Content: "C2", Published: true})
	require.NoError(t, err)

	posts, err := repo.TextPost.ListTextPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "T2", posts[0].Title)
	assert.True(t, bool(posts[0].Published))

	require.NoError(t, repo.TextPost.DeleteTextPost(ctx, res.ID))

	_, err = repo.TextPost.GetTextPost(ctx, res.ID)
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}

func TestSnippetRepo(t *testing.T) {
	repo, _ := setupRepository(t)
	ctx := context.Background()

	res, err := repo.Snippet.CreateSnippet(ctx, dto.SnippetRequest{Title: "Idea", Content: "A small thing"})
	require.NoError(t, err)

	snippets, err := repo.Snippet.ListSnippets(ctx)
	require.NoError(t, err)
	require.Len(t, snippets, 1)
	assert.Equal(t, "Idea", snippets[0].Title)
	assert.NotNil(t, snippets[0].Tags)

	require.NoError(t, repo.Snippet.DeleteSnippet(ctx, res.ID))

	snippets, err = repo.Snippet.ListSnippets(ctx)
	require.NoError(t, err)
	assert.Empty(t, snippets)
}

func TestSiteRepo(t *testing.T) {
	repo, api := setupRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.Site.Build(ctx))
	require.NoError(t, repo.Site.Logout(ctx))
	assert.Equal(t, 1, api.Builds())
	assert.Equal(t, 1, api.Logouts())

	res, err := repo.Site.Upload(ctx, dto.UploadForm{
		Action: "/api/upload",
		Field:  "image",
		File:   memFile("cover.png", "png"),
	})
	require.NoError(t, err)
	assert.Contains(t, res.File, "cover.png")
	assert.Equal(t, models.ImageURL(res.File), res.URL)

	t.Run("api failure", func(t *testing.T) {
		api.FailNext("POST /api/build", http.StatusInternalServerError)

		err := repo.Site.Build(ctx)
		assert.True(t, errors.Is(err, storage.ErrUnavailable))
	})
}
