package controller_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"tinyrisks_admin/internal/domain/models"
	"tinyrisks_admin/internal/services/controller"
	"tinyrisks_admin/internal/services/notify"
	"tinyrisks_admin/internal/services/preview"
	"tinyrisks_admin/internal/storage/apiclient"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID    models.ID
	Title string
	Body  string
}

// memStore is an in-memory collection with call counters.
type memStore struct {
	mu      sync.Mutex
	items   []item
	nextID  int
	creates int
	updates int
	deletes int

	failCreate error
	failList   error
	block      chan struct{}
}

func (s *memStore) list(context.Context) ([]item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failList != nil {
		return nil, s.failList
	}

	return append([]item(nil), s.items...), nil
}

func (s *memStore) get(_ context.Context, id models.ID) (item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, it := range s.items {
		if it.ID == id {
			return it, nil
		}
	}

	return item{}, &apiclient.Error{Status: http.StatusNotFound, Message: "Item not found"}
}

func (s *memStore) create(_ context.Context, sub controller.Submission) (models.MutationResult, error) {
	if s.block != nil {
		<-s.block
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.creates++
	if s.failCreate != nil {
		return models.MutationResult{}, s.failCreate
	}

	s.nextID++
	id := models.ID(strconv.Itoa(s.nextID))
	s.items = append(s.items, item{ID: id, Title: sub.Values["title"], Body: sub.Values["body"]})

	return models.MutationResult{Success: true, ID: id}, nil
}

func (s *memStore) update(_ context.Context, id models.ID, sub controller.Submission) (models.MutationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.updates++
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].Title = sub.Values["title"]
			s.items[i].Body = sub.Values["body"]
			return models.MutationResult{Success: true, ID: id}, nil
		}
	}

	return models.MutationResult{}, &apiclient.Error{Status: http.StatusNotFound, Message: "Item not found"}
}

func (s *memStore) delete(_ context.Context, id models.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deletes++
	for i := range s.items {
		if s.items[i].ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}

	return &apiclient.Error{Status: http.StatusNotFound}
}

func entity(store *memStore, withFiles, modal bool) controller.Entity[item] {
	e := controller.Entity[item]{
		Name:         "items",
		Fields:       []string{"title", "body"},
		PreviewField: "body",
		Modal:        modal,
		Labels: controller.Labels{
			Create: "Create Item",
			Edit:   "Update Item",
			Empty:  "No items yet.",
		},
		ID:   func(it item) models.ID { return it.ID },
		List: store.list,
		Get:  store.get,
		Populate: func(it item) controller.Values {
			return controller.Values{"title": it.Title, "body": it.Body}
		},
		Create: store.create,
		Update: store.update,
		Delete: store.delete,
	}
	if withFiles {
		e.FileField = "images"
		e.Encoding = controller.EncodingMultipart
	}

	return e
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newController(store *memStore, withFiles, modal bool, opts ...controller.Option) *controller.Controller[item] {
	opts = append([]controller.Option{controller.WithPreview(preview.NewRenderer(preview.Options{}))}, opts...)

	return controller.New(discard(), entity(store, withFiles, modal), opts...)
}

func pngFile() models.File {
	return models.File{
		Name: "a.png",
		Size: 3,
		Open: func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader("png")), nil },
	}
}

func TestController_InitialState(t *testing.T) {
	c := newController(&memStore{}, true, false)

	st := c.State()
	assert.Equal(t, controller.ModeCreate, st.Mode)
	assert.True(t, st.EditingID.IsZero())
	assert.True(t, st.FileRequired)
	assert.Equal(t, "Create Item", st.SubmitLabel)
	assert.False(t, st.CancelVisible)
	assert.Equal(t, controller.TabList, st.Tab)
	assert.Equal(t, "", st.Value("title"))
}

func TestController_Load(t *testing.T) {
	store := &memStore{}
	c := newController(store, false, false)
	ctx := context.Background()

	view := c.Load(ctx)
	assert.True(t, view.Empty)
	assert.Equal(t, "No items yet.", view.Message)

	store.items = []item{{ID: "1", Title: "One"}}
	view = c.Load(ctx)
	assert.False(t, view.Empty)
	require.Len(t, view.Items, 1)

	store.failList = errors.New("boom")
	view = c.Load(ctx)
	assert.Equal(t, "Error loading items", view.Error)
	assert.Empty(t, view.Items)
	assert.Equal(t, view, c.List())
	assert.Error(t, c.Reload(ctx))
}

func TestController_CreateRequiresFile(t *testing.T) {
	store := &memStore{}
	c := newController(store, true, false)

	_, err := c.Input("title", "Test")
	require.NoError(t, err)

	_, err = c.Submit(context.Background())
	require.ErrorIs(t, err, controller.ErrFileRequired)

	assert.Zero(t, store.creates, "no request may be issued")
	st := c.State()
	assert.Equal(t, "Test", st.Value("title"))
	assert.Equal(t, notify.KindError, st.Status.Kind)
	assert.Equal(t, "Please select at least one file", st.Status.Text)
}

func TestController_CreateEditUpdateCycle(t *testing.T) {
	store := &memStore{}
	c := newController(store, true, false)
	ctx := context.Background()

	title := gofakeit.Sentence(3)
	c.SetValues(controller.Values{"title": title, "body": "**hi**"})
	c.Select([]models.File{pngFile()})

	res, err := c.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.ID("1"), res.ID)

	st := c.State()
	assert.True(t, st.EditingID.IsZero())
	assert.Equal(t, "Create Item", st.SubmitLabel)
	assert.Equal(t, "", st.Value("title"))
	assert.Empty(t, st.Files)
	assert.Empty(t, st.Preview)
	assert.Equal(t, "Saved!", st.Status.Text)

	view := c.List()
	require.Len(t, view.Items, 1)
	assert.Equal(t, title, view.Items[0].Title)

	require.NoError(t, c.Dispatch(ctx, "edit", res.ID))

	st = c.State()
	assert.Equal(t, controller.ModeEdit, st.Mode)
	assert.Equal(t, res.ID, st.EditingID)
	assert.Equal(t, "Update Item", st.SubmitLabel)
	assert.True(t, st.CancelVisible)
	assert.False(t, st.FileRequired)
	assert.Equal(t, controller.TabCreate, st.Tab)
	assert.Equal(t, title, st.Value("title"))
	assert.Contains(t, string(st.Preview), "<strong>hi</strong>")

	// No file needed in edit mode.
	_, err = c.Input("title", "Renamed")
	require.NoError(t, err)
	_, err = c.Submit(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, store.updates)
	st = c.State()
	assert.True(t, st.EditingID.IsZero())
	assert.Equal(t, "Create Item", st.SubmitLabel)
	assert.Equal(t, "Updated!", st.Status.Text)
	assert.Empty(t, st.Preview, "leaving edit mode empties the pane")
	assert.Equal(t, "Renamed", c.List().Items[0].Title)
}

func TestController_SubmitFailureKeepsForm(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		message string
	}{
		{
			name:    "server message",
			err:     &apiclient.Error{Status: http.StatusBadRequest, Message: "Title is required"},
			message: "Title is required",
		},
		{
			name:    "generic fallback",
			err:     errors.New("connection reset"),
			message: "Something went wrong. Please try again.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &memStore{failCreate: tt.err}
			c := newController(store, false, false)

			c.SetValues(controller.Values{"title": "Draft", "body": "text"})

			_, err := c.Submit(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.err)

			st := c.State()
			assert.Equal(t, controller.ModeCreate, st.Mode)
			assert.Equal(t, "Draft", st.Value("title"))
			assert.False(t, st.Submitting)
			assert.Equal(t, notify.KindError, st.Status.Kind)
			assert.Equal(t, tt.message, st.Status.Text)
		})
	}
}

func TestController_ValidateRunsBeforeRequest(t *testing.T) {
	store := &memStore{}
	e := entity(store, false, false)
	e.Validate = func(sub controller.Submission) error {
		if sub.Values["title"] == "" {
			return errors.New("title missing")
		}
		return nil
	}
	c := controller.New(discard(), e)

	_, err := c.Submit(context.Background())
	require.Error(t, err)
	assert.Zero(t, store.creates)
}

func TestController_OverlappingSubmitIsBusy(t *testing.T) {
	store := &memStore{block: make(chan struct{})}
	c := newController(store, false, false)
	c.SetValues(controller.Values{"title": "A", "body": "B"})

	done := make(chan error, 1)
	go func() {
		_, err := c.Submit(context.Background())
		done <- err
	}()

	require.Eventually(t, func() bool { return c.State().Submitting }, time.Second, time.Millisecond)

	_, err := c.Submit(context.Background())
	assert.ErrorIs(t, err, controller.ErrBusy)

	close(store.block)
	require.NoError(t, <-done)
	assert.Equal(t, 1, store.creates)
}

func TestController_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("declined issues no request", func(t *testing.T) {
		store := &memStore{items: []item{{ID: "1", Title: "One"}}}
		c := newController(store, false, false, controller.WithConfirmer(controller.ConfirmFunc(
			func(context.Context, string) (bool, error) { return false, nil },
		)))

		err := c.Delete(ctx, "1")
		assert.ErrorIs(t, err, controller.ErrDeclined)
		assert.Zero(t, store.deletes)
	})

	t.Run("confirmed deletes and reloads", func(t *testing.T) {
		store := &memStore{items: []item{{ID: "1", Title: "One"}}}
		var prompt string
		c := newController(store, false, false, controller.WithConfirmer(controller.ConfirmFunc(
			func(_ context.Context, p string) (bool, error) { prompt = p; return true, nil },
		)))

		require.NoError(t, c.Dispatch(ctx, "edit", "1"))
		require.NoError(t, c.Dispatch(ctx, "delete", "1"))

		assert.Equal(t, "Delete this item?", prompt)
		assert.True(t, c.List().Empty)
		assert.Equal(t, controller.ModeCreate, c.State().Mode)
		assert.Equal(t, "Deleted", c.State().Status.Text)
	})

	t.Run("api failure is surfaced", func(t *testing.T) {
		c := newController(&memStore{}, false, false)

		err := c.Delete(ctx, "404")
		require.Error(t, err)
		assert.Equal(t, notify.KindError, c.State().Status.Kind)
	})
}

func TestController_Dispatch(t *testing.T) {
	c := newController(&memStore{}, false, false)
	ctx := context.Background()

	err := c.Dispatch(ctx, "explode", "1")
	assert.ErrorIs(t, err, controller.ErrUnknownAction)

	var got models.ID
	c.Handle("publish", func(_ context.Context, id models.ID) error {
		got = id
		return nil
	})
	require.NoError(t, c.Dispatch(ctx, "publish", "42"))
	assert.Equal(t, models.ID("42"), got)

	require.NoError(t, c.Dispatch(ctx, "tab-create", ""))
	assert.Equal(t, controller.TabCreate, c.State().Tab)
}

func TestController_EditMissingEntity(t *testing.T) {
	c := newController(&memStore{}, false, false)

	err := c.Edit(context.Background(), "9")
	require.Error(t, err)

	st := c.State()
	assert.Equal(t, controller.ModeCreate, st.Mode)
	assert.Equal(t, "Item not found", st.Status.Text)
}

func TestController_NotEditable(t *testing.T) {
	e := entity(&memStore{}, false, false)
	e.Get = nil
	c := controller.New(discard(), e)

	assert.ErrorIs(t, c.Edit(context.Background(), "1"), controller.ErrNotEditable)
}

func TestController_InputPreview(t *testing.T) {
	c := newController(&memStore{}, false, false)

	out, err := c.Input("body", "# Hi")
	require.NoError(t, err)
	assert.Contains(t, string(out), "<h1")

	out, err = c.Input("title", "plain")
	require.NoError(t, err)
	assert.Contains(t, string(out), "<h1", "title input leaves the preview alone")

	_, err = c.Input("nope", "x")
	assert.ErrorIs(t, err, controller.ErrUnknownField)
}

func TestController_ModalLifecycle(t *testing.T) {
	store := &memStore{items: []item{{ID: "5", Title: "Post"}}}
	c := newController(store, false, true, controller.WithAutoClose(20*time.Millisecond))
	ctx := context.Background()

	c.Open()
	st := c.State()
	assert.True(t, st.ModalOpen)
	assert.Equal(t, controller.ModeCreate, st.Mode)

	c.Close()
	assert.False(t, c.State().ModalOpen)

	require.NoError(t, c.Edit(ctx, "5"))
	st = c.State()
	assert.True(t, st.ModalOpen)
	assert.Equal(t, models.ID("5"), st.EditingID)

	_, err := c.Submit(ctx)
	require.NoError(t, err)

	st = c.State()
	assert.True(t, st.ModalOpen, "modal stays open until the close delay")
	assert.Equal(t, controller.ModeCreate, st.Mode)

	assert.Eventually(t, func() bool { return !c.State().ModalOpen }, time.Second, 5*time.Millisecond)
}

func TestController_SnapshotRestore(t *testing.T) {
	store := &memStore{items: []item{{ID: "3", Title: "Three", Body: "body"}}}
	c := newController(store, true, true)
	ctx := context.Background()

	require.NoError(t, c.Edit(ctx, "3"))
	_, err := c.Input("title", "Changed")
	require.NoError(t, err)
	c.Notify(notify.KindInfo, "hello")

	snap := c.Snapshot()

	restored := newController(store, true, true)
	restored.Restore(snap)

	st := restored.State()
	assert.Equal(t, controller.ModeEdit, st.Mode)
	assert.Equal(t, models.ID("3"), st.EditingID)
	assert.Equal(t, "Changed", st.Value("title"))
	assert.Equal(t, "Update Item", st.SubmitLabel)
	assert.False(t, st.FileRequired)
	assert.True(t, st.ModalOpen)
	assert.Equal(t, "hello", st.Status.Text)
	assert.Contains(t, string(st.Preview), "body")
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "", controller.Message(nil, "x"))
	assert.Equal(t, "A save is already in progress", controller.Message(controller.ErrBusy, "x"))
	assert.Equal(t, "fallback", controller.Message(errors.New("raw"), "fallback"))
	assert.Equal(t, "Your session has expired. Please log in again.",
		controller.Message(&apiclient.Error{Status: http.StatusUnauthorized}, "x"))
}
