// Package apiclient talks to the site's JSON API. It is the only place that
// builds HTTP requests; repositories sit on top of it.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"tinyrisks_admin/internal/domain/models"
	"tinyrisks_admin/internal/lib/logger/sl"
	"tinyrisks_admin/internal/metrics"
	"tinyrisks_admin/internal/storage"

	"github.com/google/uuid"
)

const maxErrorBody = 4 << 10

// Error is a non-2xx API response. Message carries the server's
// {"error": "..."} text when there was one.
type Error struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, e.Message)
	}

	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
}

// Unwrap maps well known statuses onto storage sentinels so callers can use
// errors.Is(err, storage.ErrNotFound).
func (e *Error) Unwrap() error {
	switch e.Status {
	case http.StatusNotFound:
		return storage.ErrNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return storage.ErrUnauthorized
	case http.StatusRequestEntityTooLarge:
		return storage.ErrFileTooLarge
	case http.StatusUnsupportedMediaType:
		return storage.ErrInvalidFileType
	}

	if e.Status >= 500 {
		return storage.ErrUnavailable
	}

	return storage.ErrBadRequest
}

// ServerMessage extracts the API's own error text from err, if any.
func ServerMessage(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}

	return ""
}

// Field is one plain multipart form field.
type Field struct {
	Name  string
	Value string
}

// FilePart attaches a selected file under a form field name.
type FilePart struct {
	Field string
	File  models.File
}

// Multipart is a form body carrying files.
type Multipart struct {
	Fields []Field
	Files  []FilePart
	// Progress, when set, wraps the encoded body so callers can report
	// upload progress. total is the body length in bytes.
	Progress func(body io.Reader, total int64) io.Reader
}

type Client struct {
	log     *slog.Logger
	baseURL *url.URL
	http    *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default client (timeout + cookie jar).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

func New(log *slog.Logger, baseURL string, timeout time.Duration, opts ...Option) (*Client, error) {
	const op = "storage.apiclient.New"

	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%s: base url %q must be absolute", op, baseURL)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	c := &Client{
		log:     log,
		baseURL: u,
		http: &http.Client{
			Timeout: timeout,
			Jar:     jar,
		},
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// URL resolves an API path against the base URL.
func (c *Client) URL(path string) string {
	ref, err := url.Parse(path)
	if err != nil {
		return c.baseURL.String() + path
	}

	return c.baseURL.ResolveReference(ref).String()
}

// GetJSON decodes the body of GET path into out.
func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, "", out)
}

// SendJSON encodes in as the request body (nil for none) and decodes the
// response into out (nil to discard).
func (c *Client) SendJSON(ctx context.Context, method, path string, in, out any) error {
	const op = "storage.apiclient.SendJSON"

	if in == nil {
		return c.do(ctx, method, path, nil, "", out)
	}

	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return c.do(ctx, method, path, bytes.NewReader(body), "application/json", out)
}

// SendMultipart posts form as multipart/form-data.
func (c *Client) SendMultipart(ctx context.Context, method, path string, form Multipart, out any) error {
	const op = "storage.apiclient.SendMultipart"

	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)

	for _, f := range form.Fields {
		if err := writer.WriteField(f.Name, f.Value); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	for _, part := range form.Files {
		if err := writeFile(writer, part); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	var body io.Reader = buf
	if form.Progress != nil {
		body = form.Progress(buf, int64(buf.Len()))
	}

	return c.do(ctx, method, path, body, writer.FormDataContentType(), out)
}

func writeFile(writer *multipart.Writer, part FilePart) error {
	if err := part.File.Validate(); err != nil {
		return err
	}

	src, err := part.File.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", part.File.Name, err)
	}
	defer src.Close()

	dst, err := writer.CreateFormFile(part.Field, part.File.Name)
	if err != nil {
		return err
	}

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("copy %s: %w", part.File.Name, err)
	}

	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	const op = "storage.apiclient.do"

	requestID := uuid.NewString()
	log := c.log.With(
		slog.String("op", op),
		slog.String("method", method),
		slog.String("path", path),
		slog.String("request_id", requestID),
	)

	req, err := http.NewRequestWithContext(ctx, method, c.URL(path), body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.APIRequestsTotal.WithLabelValues(method, endpointLabel(path), "transport_error").Inc()
		log.Error("api request failed", sl.Err(err))

		return fmt.Errorf("%s: %w: %w", op, storage.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	log.Debug("api response",
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.APIRequestsTotal.WithLabelValues(method, endpointLabel(path), "status_"+statusClass(resp.StatusCode)).Inc()

		apiErr := &Error{
			Method:  method,
			Path:    path,
			Status:  resp.StatusCode,
			Message: readErrorMessage(resp.Body),
		}
		log.Warn("api rejected request", slog.Int("status", apiErr.Status), slog.String("message", apiErr.Message))

		return apiErr
	}

	metrics.APIRequestsTotal.WithLabelValues(method, endpointLabel(path), "ok").Inc()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%s: decode response: %w", op, err)
	}

	return nil
}

func readErrorMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(bytes.TrimSpace(raw)) == 0 {
		return ""
	}

	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		return payload.Message
	}

	// Plain text bodies are surfaced as-is, HTML error pages are not.
	text := strings.TrimSpace(string(raw))
	if strings.HasPrefix(text, "<") {
		return ""
	}

	return text
}

// endpointLabel keeps metric cardinality bounded: /api/text-posts/12 -> /api/text-posts.
func endpointLabel(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}

	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) > 2 {
		parts = parts[:2]
	}

	return "/" + strings.Join(parts, "/")
}

func statusClass(status int) string {
	return fmt.Sprintf("%dxx", status/100)
}
