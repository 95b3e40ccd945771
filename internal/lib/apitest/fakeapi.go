// Package apitest provides an in-memory stand-in for the site API so that
// repositories, controllers and the console can be tested end to end.
package apitest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

const (
	maxImages    = 9
	maxImageSize = 20 << 20
)

type galleryRecord struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Caption     string   `json:"caption"`
	Description string   `json:"description"`
	Images      []string `json:"images"`
	CreatedAt   string   `json:"created_at"`
}

type postRecord struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Subtitle    string   `json:"subtitle"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
	ReadingTime int      `json:"reading_time"`
	Content     string   `json:"content"`
	Published   int      `json:"published"` // stored the way SQLite does
	CreatedAt   string   `json:"created_at"`
}

type snippetRecord struct {
	ID        int      `json:"id"`
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Tags      []string `json:"tags"`
	CreatedAt string   `json:"created_at"`
}

// Request is a recorded call.
type Request struct {
	Method string
	Path   string
	Body   []byte
}

// API is the fake. All fields are guarded by mu.
type API struct {
	mu       sync.Mutex
	nextID   int
	gallery  []galleryRecord
	posts    []postRecord
	snippets []snippetRecord
	requests []Request
	builds   int
	logouts  int
	uploads  []string
	failures map[string]int
}

func New() *API {
	return &API{nextID: 1, failures: make(map[string]int)}
}

// Start serves the fake on an httptest server closed with the test.
func Start(t testing.TB) (*API, *httptest.Server) {
	t.Helper()

	api := New()
	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)

	return api, srv
}

// FailNext makes the next request whose "METHOD /path" key matches reply with status.
func (a *API) FailNext(key string, status int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.failures[key] = status
}

// Requests returns the recorded calls, optionally filtered by "METHOD /path" prefix.
func (a *API) Requests(prefix string) []Request {
	a.mu.Lock()
	defer a.mu.Unlock()

	var out []Request
	for _, r := range a.requests {
		if strings.HasPrefix(r.Method+" "+r.Path, prefix) {
			out = append(out, r)
		}
	}

	return out
}

// AddGallery stores an item as if another client had created it.
func (a *API) AddGallery(title string, images ...string) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	rec := galleryRecord{
		ID:        a.id(),
		Title:     title,
		Images:    images,
		CreatedAt: time.Now().UTC().Format("2006-01-02 15:04:05"),
	}
	a.gallery = append(a.gallery, rec)

	return rec.ID
}

func (a *API) Builds() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.builds
}

func (a *API) Logouts() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.logouts
}

func (a *API) Uploads() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	return append([]string(nil), a.uploads...)
}

func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/community-images", a.listGallery)
	mux.HandleFunc("POST /api/community-images", a.createGallery)
	mux.HandleFunc("GET /api/community-images/{id}", a.getGallery)
	mux.HandleFunc("PUT /api/community-images/{id}", a.updateGallery)
	mux.HandleFunc("DELETE /api/community-images/{id}", a.deleteGallery)

	mux.HandleFunc("GET /api/text-posts", a.listPosts)
	mux.HandleFunc("POST /api/text-posts", a.createPost)
	mux.HandleFunc("GET /api/text-posts/{id}", a.getPost)
	mux.HandleFunc("PUT /api/text-posts/{id}", a.updatePost)
	mux.HandleFunc("DELETE /api/text-posts/{id}", a.deletePost)

	mux.HandleFunc("GET /api/snippets", a.listSnippets)
	mux.HandleFunc("POST /api/snippets", a.createSnippet)
	mux.HandleFunc("DELETE /api/snippets/{id}", a.deleteSnippet)

	mux.HandleFunc("POST /api/build", a.build)
	mux.HandleFunc("POST /api/logout", a.logout)
	mux.HandleFunc("POST /api/upload", a.upload)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(strings.NewReader(string(body)))

		a.mu.Lock()
		a.requests = append(a.requests, Request{Method: r.Method, Path: r.URL.Path, Body: body})
		key := r.Method + " " + r.URL.Path
		status, fail := a.failures[key]
		if fail {
			delete(a.failures, key)
		}
		a.mu.Unlock()

		if fail {
			writeError(w, status, fmt.Sprintf("forced failure for %s", key))
			return
		}

		mux.ServeHTTP(w, r)
	})
}

func (a *API) listGallery(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]galleryRecord, 0, len(a.gallery))
	for i := len(a.gallery) - 1; i >= 0; i-- {
		out = append(out, a.gallery[i])
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) getGallery(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()

	i := a.galleryIndex(r.PathValue("id"))
	if i < 0 {
		writeError(w, http.StatusNotFound, "Image not found")
		return
	}
	writeJSON(w, http.StatusOK, a.gallery[i])
}

func (a *API) createGallery(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(64 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid form")
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		writeError(w, http.StatusBadRequest, "Title is required")
		return
	}

	images, msg := a.acceptImages(r)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if len(images) == 0 {
		writeError(w, http.StatusBadRequest, "At least one image is required")
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	rec := galleryRecord{
		ID:          a.id(),
		Title:       title,
		Caption:     r.FormValue("caption"),
		Description: r.FormValue("description"),
		Images:      images,
		CreatedAt:   time.Now().UTC().Format("2006-01-02 15:04:05"),
	}
	a.gallery = append(a.gallery, rec)

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "id": rec.ID, "images": rec.Images})
}

func (a *API) updateGallery(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(64 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid form")
		return
	}

	images, msg := a.acceptImages(r)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	i := a.galleryIndex(r.PathValue("id"))
	if i < 0 {
		writeError(w, http.StatusNotFound, "Image not found")
		return
	}

	if title := strings.TrimSpace(r.FormValue("title")); title != "" {
		a.gallery[i].Title = title
	}
	a.gallery[i].Caption = r.FormValue("caption")
	a.gallery[i].Description = r.FormValue("description")
	if len(images) > 0 {
		a.gallery[i].Images = images
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "id": a.gallery[i].ID, "images": a.gallery[i].Images})
}

func (a *API) deleteGallery(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()

	i := a.galleryIndex(r.PathValue("id"))
	if i < 0 {
		writeError(w, http.StatusNotFound, "Image not found")
		return
	}
	a.gallery = append(a.gallery[:i], a.gallery[i+1:]...)

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (a *API) acceptImages(r *http.Request) ([]string, string) {
	if r.MultipartForm == nil {
		return nil, ""
	}

	files := r.MultipartForm.File["images"]
	if len(files) > maxImages {
		return nil, fmt.Sprintf("Maximum %d images allowed", maxImages)
	}

	var names []string
	for i, fh := range files {
		if fh.Size > maxImageSize {
			return nil, fmt.Sprintf("%s exceeds 20MB limit", fh.Filename)
		}
		names = append(names, fmt.Sprintf("img-%d-%d-%s", time.Now().UnixNano(), i, fh.Filename))
	}

	return names, ""
}

func (a *API) listPosts(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]postRecord, 0, len(a.posts))
	for i := len(a.posts) - 1; i >= 0; i-- {
		out = append(out, a.posts[i])
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) getPost(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()

	i := a.postIndex(r.PathValue("id"))
	if i < 0 {
		writeError(w, http.StatusNotFound, "Post not found")
		return
	}
	writeJSON(w, http.StatusOK, a.posts[i])
}

type postPayload struct {
	Title       string          `json:"title"`
	Subtitle    string          `json:"subtitle"`
	Category    string          `json:"category"`
	Tags        json.RawMessage `json:"tags"`
	ReadingTime int             `json:"reading_time"`
	Content     string          `json:"content"`
	Published   bool            `json:"published"`
}

func decodePost(r *http.Request) (postPayload, []string, string) {
	var p postPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		return p, nil, "Invalid JSON"
	}
	if strings.TrimSpace(p.Title) == "" {
		return p, nil, "Title is required"
	}
	if strings.TrimSpace(p.Content) == "" {
		return p, nil, "Content is required"
	}

	tags := []string{}
	if len(p.Tags) > 0 && string(p.Tags) != "null" {
		if err := json.Unmarshal(p.Tags, &tags); err != nil {
			return p, nil, "Tags must be a list"
		}
	}

	return p, tags, ""
}

func (a *API) createPost(w http.ResponseWriter, r *http.Request) {
	p, tags, msg := decodePost(r)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	rec := postRecord{
		ID:          a.id(),
		Title:       p.Title,
		Subtitle:    p.Subtitle,
		Category:    p.Category,
		Tags:        tags,
		ReadingTime: p.ReadingTime,
		Content:     p.Content,
		Published:   boolInt(p.Published),
		CreatedAt:   time.Now().UTC().Format("2006-01-02 15:04:05"),
	}
	a.posts = append(a.posts, rec)

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "id": rec.ID})
}

func (a *API) updatePost(w http.ResponseWriter, r *http.Request) {
	p, tags, msg := decodePost(r)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	i := a.postIndex(r.PathValue("id"))
	if i < 0 {
		writeError(w, http.StatusNotFound, "Post not found")
		return
	}

	rec := &a.posts[i]
	rec.Title, rec.Subtitle, rec.Category = p.Title, p.Subtitle, p.Category
	rec.Tags, rec.ReadingTime, rec.Content = tags, p.ReadingTime, p.Content
	rec.Published = boolInt(p.Published)

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "id": rec.ID})
}

func (a *API) deletePost(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()

	i := a.postIndex(r.PathValue("id"))
	if i < 0 {
		writeError(w, http.StatusNotFound, "Post not found")
		return
	}
	a.posts = append(a.posts[:i], a.posts[i+1:]...)

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (a *API) listSnippets(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]snippetRecord, 0, len(a.snippets))
	for i := len(a.snippets) - 1; i >= 0; i-- {
		out = append(out, a.snippets[i])
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) createSnippet(w http.ResponseWriter, r *http.Request) {
	var s snippetRecord
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil || strings.TrimSpace(s.Title) == "" {
		writeError(w, http.StatusBadRequest, "Title is required")
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	s.ID = a.id()
	s.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	if s.Tags == nil {
		s.Tags = []string{}
	}
	a.snippets = append(a.snippets, s)

	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "id": s.ID})
}

func (a *API) deleteSnippet(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i, s := range a.snippets {
		if strconv.Itoa(s.ID) == r.PathValue("id") {
			a.snippets = append(a.snippets[:i], a.snippets[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]any{"success": true})
			return
		}
	}

	writeError(w, http.StatusNotFound, "Snippet not found")
}

func (a *API) build(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	a.builds++
	a.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (a *API) logout(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	a.logouts++
	a.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (a *API) upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "No file part")
		return
	}

	_, fh, err := r.FormFile("image")
	if err != nil || fh.Filename == "" {
		writeError(w, http.StatusBadRequest, "No selected file")
		return
	}

	name := fmt.Sprintf("img-%d-%s", time.Now().Unix(), fh.Filename)

	a.mu.Lock()
	a.uploads = append(a.uploads, name)
	a.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "file": name, "url": "/static/uploads/" + name})
}

func (a *API) id() int {
	id := a.nextID
	a.nextID++
	return id
}

func (a *API) galleryIndex(raw string) int {
	for i, g := range a.gallery {
		if strconv.Itoa(g.ID) == raw {
			return i
		}
	}
	return -1
}

func (a *API) postIndex(raw string) int {
	for i, p := range a.posts {
		if strconv.Itoa(p.ID) == raw {
			return i
		}
	}
	return -1
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
