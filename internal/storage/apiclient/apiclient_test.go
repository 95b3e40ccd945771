package apiclient_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tinyrisks_admin/internal/domain/models"
	"tinyrisks_admin/internal/storage"
	"tinyrisks_admin/internal/storage/apiclient"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T, h http.HandlerFunc) *apiclient.Client {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := apiclient.New(slog.New(slog.NewTextHandler(io.Discard, nil)), srv.URL, 5*time.Second)
	require.NoError(t, err)

	return c
}

func TestClient_GetJSON(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/text-posts", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		_, _ = w.Write([]byte(`[{"id":1,"title":"One","published":1}]`))
	})

	var posts []models.TextPost
	require.NoError(t, c.GetJSON(context.Background(), "/api/text-posts", &posts))

	require.Len(t, posts, 1)
	assert.Equal(t, models.ID("1"), posts[0].ID)
	assert.True(t, bool(posts[0].Published))
}

func TestClient_SendJSON(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "T", body["title"])

		_, _ = w.Write([]byte(`{"success":true,"id":7}`))
	})

	var res models.MutationResult
	err := c.SendJSON(context.Background(), http.MethodPut, "/api/text-posts/7", map[string]string{"title": "T"}, &res)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, models.ID("7"), res.ID)
}

func TestClient_SendMultipart(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Test", r.FormValue("title"))

		files := r.MultipartForm.File["images"]
		require.Len(t, files, 1)
		assert.Equal(t, "a.png", files[0].Filename)

		_, _ = w.Write([]byte(`{"success":true,"id":1,"images":["img-1.png"]}`))
	})

	var progressed int64
	form := apiclient.Multipart{
		Fields: []apiclient.Field{{Name: "title", Value: "Test"}},
		Files: []apiclient.FilePart{{
			Field: "images",
			File: models.File{
				Name: "a.png",
				Size: 3,
				Open: func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader("png")), nil },
			},
		}},
		Progress: func(body io.Reader, total int64) io.Reader {
			progressed = total
			return body
		},
	}

	var res models.MutationResult
	require.NoError(t, c.SendMultipart(context.Background(), http.MethodPost, "/api/community-images", form, &res))

	assert.Equal(t, []string{"img-1.png"}, res.Images)
	assert.Positive(t, progressed)
}

func TestClient_ErrorBodies(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantMsg  string
		sentinel error
	}{
		{"json error", http.StatusBadRequest, `{"error":"Title is required"}`, "Title is required", storage.ErrBadRequest},
		{"not found", http.StatusNotFound, `{"error":"Post not found"}`, "Post not found", storage.ErrNotFound},
		{"empty body", http.StatusInternalServerError, ``, "", storage.ErrUnavailable},
		{"plain text", http.StatusBadRequest, `Upload failed`, "Upload failed", storage.ErrBadRequest},
		{"html page", http.StatusUnauthorized, `<html>login</html>`, "", storage.ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			err := c.SendJSON(context.Background(), http.MethodDelete, "/api/snippets/1", nil, nil)
			require.Error(t, err)

			assert.Equal(t, tt.wantMsg, apiclient.ServerMessage(err))
			assert.True(t, errors.Is(err, tt.sentinel))
		})
	}
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c, err := apiclient.New(slog.New(slog.NewTextHandler(io.Discard, nil)), srv.URL, time.Second)
	require.NoError(t, err)

	err = c.GetJSON(context.Background(), "/api/snippets", &[]models.Snippet{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, storage.ErrUnavailable))
	assert.Empty(t, apiclient.ServerMessage(err))
}

func TestNew_RejectsRelativeURL(t *testing.T) {
	_, err := apiclient.New(slog.Default(), "/api", time.Second)
	require.Error(t, err)
}
