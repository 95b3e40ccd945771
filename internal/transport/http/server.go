package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tinyrisks_admin/internal/config"
	"tinyrisks_admin/internal/domain/models"
	"tinyrisks_admin/internal/lib/logger/sl"
	"tinyrisks_admin/internal/render"
	"tinyrisks_admin/internal/services/admin"
	"tinyrisks_admin/internal/services/controller"
	"tinyrisks_admin/internal/services/preview"
	"tinyrisks_admin/internal/services/upload"
	"tinyrisks_admin/internal/transport/http/dto/response"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
)

const (
	SessionName  = "tinyrisks_admin"
	ThemeCookie  = "theme"
	CSRFKey      = "csrf"
	consoleIDKey = "console_id"

	galleryFilesField = "images"
	maxPreviewMessage = 1 << 20
)

// Consoles hands out one admin session per browser.
type Consoles interface {
	Acquire(ctx context.Context, id string) (*admin.Admin, error)
	Persist(ctx context.Context, id string, a *admin.Admin) error
	End(ctx context.Context, id string) error
	Count() int
}

type Routers struct {
	log      *slog.Logger
	consoles Consoles
	renderer *preview.Renderer
	site     config.SiteConfig
	upgrader websocket.Upgrader
	// secure marks cookies set by handlers as HTTPS only.
	secure bool
}

func NewRouter(log *slog.Logger, consoles Consoles, renderer *preview.Renderer, site config.SiteConfig, secureCookies bool) *Routers {
	return &Routers{
		log:      log,
		consoles: consoles,
		renderer: renderer,
		site:     site,
		secure:   secureCookies,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
}

// Admin renders the whole console.
func (r *Routers) Admin(c echo.Context) error {
	const op = "http.routers.Admin"

	log := r.log.With(slog.String("op", op))

	id, a, err := r.session(c)
	if err != nil {
		log.Error("failed to acquire console", sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrSessionRequired)
	}

	// Every page load shows the backend as it is now.
	a.LoadAll(c.Request().Context())
	r.persist(c, id, a)

	page := render.SiteData(r.site)
	page.Theme = r.theme(c)
	page.ThemeAction = "/admin/theme"

	out, err := render.AdminPage(a, page, csrfToken(c))
	if err != nil {
		log.Error("failed to render console", sl.Err(err))
		return echo.ErrInternalServerError
	}

	return c.HTMLBlob(http.StatusOK, out)
}

// Panel re-renders one entity panel without changing state.
func (r *Routers) Panel(c echo.Context) error {
	_, a, err := r.console(c)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, response.ErrSessionRequired)
	}

	return r.writePanel(c, a, c.Param("entity"), nil)
}

// List re-fetches one entity and renders only its list.
func (r *Routers) List(c echo.Context) error {
	const op = "http.routers.List"

	log := r.log.With(slog.String("op", op))

	id, a, err := r.session(c)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, response.ErrSessionRequired)
	}

	entity := c.Param("entity")
	if err := a.Reload(c.Request().Context(), entity); err != nil {
		if errors.Is(err, admin.ErrUnknownEntity) {
			return c.JSON(http.StatusNotFound, response.ErrUnknownEntity.WithDetails(entity))
		}
		// The list view carries the load error itself.
		log.Warn("reload failed", slog.String("entity", entity), sl.Err(err))
	}
	r.persist(c, id, a)

	out, err := render.List(a, entity)
	if err != nil {
		log.Error("failed to render list", sl.Err(err))
		return echo.ErrInternalServerError
	}

	return c.HTML(http.StatusOK, string(out))
}

// Submit saves an entity form. Validation and API failures end up in the
// panel's status line, so the panel is returned either way.
func (r *Routers) Submit(c echo.Context) error {
	const op = "http.routers.Submit"

	log := r.log.With(slog.String("op", op))

	id, a, err := r.console(c)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, response.ErrSessionRequired)
	}

	entity := c.Param("entity")

	values, err := formValues(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat.WithDetails(err.Error()))
	}

	files, err := formFiles(c, galleryFilesField)
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat.WithDetails(err.Error()))
	}

	res, err := a.Submit(c.Request().Context(), entity, values, files)
	switch {
	case errors.Is(err, admin.ErrUnknownEntity):
		return c.JSON(http.StatusNotFound, response.ErrUnknownEntity.WithDetails(entity))
	case err != nil:
		log.Warn("submit failed", slog.String("entity", entity), sl.Err(err))
	default:
		log.Info("entity saved", slog.String("entity", entity), slog.String("id", string(res.ID)))
	}
	r.persist(c, id, a)

	return r.writePanel(c, a, entity, nil)
}

// Action runs a dispatch table entry: edit, delete, reload, open, close,
// publish and so on.
func (r *Routers) Action(c echo.Context) error {
	const op = "http.routers.Action"

	log := r.log.With(slog.String("op", op))

	id, a, err := r.console(c)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, response.ErrSessionRequired)
	}

	entity, action := c.Param("entity"), c.Param("action")

	err = a.Dispatch(c.Request().Context(), entity, action, models.ID(c.Param("id")))
	switch {
	case errors.Is(err, admin.ErrUnknownEntity):
		return c.JSON(http.StatusNotFound, response.ErrUnknownEntity.WithDetails(entity))
	case errors.Is(err, controller.ErrUnknownAction):
		return c.JSON(http.StatusNotFound, response.ErrUnknownAction.WithDetails(action))
	case err != nil:
		log.Warn("action failed",
			slog.String("entity", entity),
			slog.String("action", action),
			sl.Err(err),
		)
	}
	r.persist(c, id, a)

	return r.writePanel(c, a, entity, nil)
}

// Input updates one field as the user types and returns its preview.
func (r *Routers) Input(c echo.Context) error {
	id, a, err := r.console(c)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, response.ErrSessionRequired)
	}

	entity, field := c.Param("entity"), c.Param("field")

	out, err := a.Input(entity, field, c.FormValue(field))
	switch {
	case errors.Is(err, admin.ErrUnknownEntity):
		return c.JSON(http.StatusNotFound, response.ErrUnknownEntity.WithDetails(entity))
	case err != nil:
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat.WithDetails(err.Error()))
	}
	r.persist(c, id, a)

	return c.HTML(http.StatusOK, string(out))
}

// Preview renders posted markdown without touching any form.
func (r *Routers) Preview(c echo.Context) error {
	return c.HTML(http.StatusOK, string(r.renderer.MustRender(c.FormValue("content"))))
}

// PreviewSocket renders every text frame it receives and sends the HTML back.
func (r *Routers) PreviewSocket(c echo.Context) error {
	const op = "http.routers.PreviewSocket"

	log := r.log.With(slog.String("op", op))

	conn, err := r.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Warn("upgrade failed", sl.Err(err))
		return nil
	}
	defer conn.Close()

	conn.SetReadLimit(maxPreviewMessage)

	for {
		kind, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("preview socket closed", sl.Err(err))
			}
			return nil
		}
		if kind != websocket.TextMessage {
			continue
		}

		out := r.renderer.MustRender(string(msg))
		if err := conn.WriteMessage(websocket.TextMessage, []byte(out)); err != nil {
			log.Warn("preview write failed", sl.Err(err))
			return nil
		}
	}
}

// Build triggers a site rebuild. The outcome is reported as a toast.
func (r *Routers) Build(c echo.Context) error {
	const op = "http.routers.Build"

	id, a, err := r.console(c)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, response.ErrSessionRequired)
	}

	if err := a.Build(c.Request().Context()); err != nil {
		r.log.Warn("build failed", slog.String("op", op), sl.Err(err))
	}
	r.persist(c, id, a)

	r.trigger(c, a, nil)

	return c.NoContent(http.StatusNoContent)
}

// Logout ends the API session, forgets the console and redirects to the
// login page. A failed logout stays on the console with a toast.
func (r *Routers) Logout(c echo.Context) error {
	const op = "http.routers.Logout"

	log := r.log.With(slog.String("op", op))

	id, a, err := r.console(c)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, response.ErrSessionRequired)
	}

	target, err := a.Logout(c.Request().Context())
	if err != nil {
		log.Error("logout failed", sl.Err(err))
		r.persist(c, id, a)
		return c.Redirect(http.StatusSeeOther, "/admin")
	}

	if err := r.consoles.End(c.Request().Context(), id); err != nil {
		log.Warn("failed to drop console state", sl.Err(err))
	}

	if sess, err := session.Get(SessionName, c); err == nil {
		sess.Options.MaxAge = -1
		if err := sess.Save(c.Request(), c.Response()); err != nil {
			log.Warn("failed to clear session", sl.Err(err))
		}
	}

	return c.Redirect(http.StatusSeeOther, target)
}

// Theme advances the theme cycle and tells the page which theme to apply.
func (r *Routers) Theme(c echo.Context) error {
	next := render.NextTheme(r.themes(), r.theme(c))

	c.SetCookie(&http.Cookie{
		Name:     ThemeCookie,
		Value:    next,
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		Secure:   r.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	if err := setTrigger(c, map[string]any{"themeChanged": map[string]string{"theme": next}}); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

// Upload submits a drop-zone form and re-renders the zone. The entity the
// zone feeds is asked to refresh its list.
func (r *Routers) Upload(c echo.Context) error {
	const op = "http.routers.Upload"

	log := r.log.With(slog.String("op", op))

	id, a, err := r.console(c)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, response.ErrSessionRequired)
	}

	formID := c.Param("form")
	z, err := a.Upload(formID)
	if err != nil {
		return c.JSON(http.StatusNotFound, response.ErrUnknownEntity.WithDetails(formID))
	}

	files, err := formFiles(c, z.Form().Field)
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat.WithDetails(err.Error()))
	}

	// Only a file carried by this request can be sent.
	z.Clear()
	z.Change(files)

	events := map[string]any{}
	if _, err := z.Submit(c.Request().Context(), nil); err != nil {
		log.Warn("upload failed", slog.String("form", formID), sl.Err(err))
	} else if entity := a.RefreshOf(formID); entity != "" {
		events["refresh-"+entity] = true
	}
	r.persist(c, id, a)

	return r.writeDropZone(c, a, z, events)
}

// SelectUpload describes a file picked or dropped in the browser so the zone
// shows its name and size before anything is uploaded.
func (r *Routers) SelectUpload(c echo.Context) error {
	_, a, err := r.console(c)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, response.ErrSessionRequired)
	}

	formID := c.Param("form")
	z, err := a.Upload(formID)
	if err != nil {
		return c.JSON(http.StatusNotFound, response.ErrUnknownEntity.WithDetails(formID))
	}

	name := strings.TrimSpace(c.FormValue("name"))
	if name == "" {
		z.Clear()
		return r.writeDropZone(c, a, z, nil)
	}

	size, err := strconv.ParseInt(c.FormValue("size"), 10, 64)
	if err != nil || size < 0 {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat.WithDetails("invalid size"))
	}

	z.Change([]models.File{{Name: name, Size: size, ContentType: c.FormValue("type")}})

	return r.writeDropZone(c, a, z, nil)
}

// Status reports liveness and the number of open consoles.
func (r *Routers) Status(c echo.Context) error {
	return c.JSON(http.StatusOK, response.SuccessResponse(response.ConsoleStatus{
		Consoles: r.consoles.Count(),
		Site:     r.site.Brand,
	}))
}

// console returns the browser's admin session with every list loaded at least
// once.
func (r *Routers) console(c echo.Context) (string, *admin.Admin, error) {
	id, a, err := r.session(c)
	if err != nil {
		return "", nil, err
	}

	a.LoadMissing(c.Request().Context())

	return id, a, nil
}

// session resolves the console id from the cookie session, issuing one on the
// first request. Cookie options come from the session store.
func (r *Routers) session(c echo.Context) (string, *admin.Admin, error) {
	const op = "http.routers.session"

	sess, err := session.Get(SessionName, c)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}

	id, _ := sess.Values[consoleIDKey].(string)
	if id == "" {
		id = uuid.NewString()
		sess.Values[consoleIDKey] = id
		if err := sess.Save(c.Request(), c.Response()); err != nil {
			return "", nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	a, err := r.consoles.Acquire(c.Request().Context(), id)
	if err != nil {
		return "", nil, err
	}

	return id, a, nil
}

func (r *Routers) persist(c echo.Context, id string, a *admin.Admin) {
	if err := r.consoles.Persist(c.Request().Context(), id, a); err != nil {
		r.log.Warn("failed to persist console state", slog.String("console_id", id), sl.Err(err))
	}
}

func (r *Routers) writePanel(c echo.Context, a *admin.Admin, entity string, events map[string]any) error {
	out, err := render.Panel(a, entity)
	if errors.Is(err, admin.ErrUnknownEntity) {
		return c.JSON(http.StatusNotFound, response.ErrUnknownEntity.WithDetails(entity))
	}
	if err != nil {
		r.log.Error("failed to render panel", slog.String("entity", entity), sl.Err(err))
		return echo.ErrInternalServerError
	}

	r.trigger(c, a, events)

	return c.HTML(http.StatusOK, string(out))
}

func (r *Routers) writeDropZone(c echo.Context, a *admin.Admin, z *upload.DropZone, events map[string]any) error {
	out, err := render.DropZone(z)
	if err != nil {
		r.log.Error("failed to render drop-zone", sl.Err(err))
		return echo.ErrInternalServerError
	}

	r.trigger(c, a, events)

	return c.HTML(http.StatusOK, string(out))
}

// trigger sends the pending toast, once, plus any extra htmx events.
func (r *Routers) trigger(c echo.Context, a *admin.Admin, events map[string]any) {
	if events == nil {
		events = map[string]any{}
	}

	toast := a.Toast()
	if msg, ok := toast.Current(); ok {
		events["showMessage"] = msg
		toast.Clear()
	}

	if err := setTrigger(c, events); err != nil {
		r.log.Warn("failed to encode htmx trigger", sl.Err(err))
	}
}

func (r *Routers) theme(c echo.Context) string {
	cookie, err := c.Cookie(ThemeCookie)
	if err != nil {
		return render.ThemeOrDefault(r.themes(), "")
	}

	return render.ThemeOrDefault(r.themes(), cookie.Value)
}

func (r *Routers) themes() []string {
	if len(r.site.Themes) == 0 {
		return render.DefaultThemes
	}

	return r.site.Themes
}

func setTrigger(c echo.Context, events map[string]any) error {
	if len(events) == 0 {
		return nil
	}

	b, err := json.Marshal(events)
	if err != nil {
		return err
	}
	c.Response().Header().Set("HX-Trigger", string(b))

	return nil
}

func csrfToken(c echo.Context) string {
	token, _ := c.Get(CSRFKey).(string)
	return token
}

// formValues flattens the posted form to one value per field. Fields that
// only steer the request are dropped.
func formValues(c echo.Context) (controller.Values, error) {
	params, err := c.FormParams()
	if err != nil {
		return nil, err
	}

	values := make(controller.Values, len(params))
	for k, v := range params {
		if k == "_csrf" || k == "id" || len(v) == 0 {
			continue
		}
		values[k] = v[0]
	}

	return values, nil
}

// formFiles collects the files posted under field. Requests that are not
// multipart carry none.
func formFiles(c echo.Context, field string) ([]models.File, error) {
	if !strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		return nil, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return nil, err
	}

	headers := form.File[field]
	files := make([]models.File, 0, len(headers))
	for _, fh := range headers {
		files = append(files, multipartFile(fh))
	}

	return files, nil
}

func multipartFile(fh *multipart.FileHeader) models.File {
	return models.File{
		Name:        fh.Filename,
		Size:        fh.Size,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}
