// Package console keeps one admin session per browser. Live sessions stay in
// an in-process cache; with a state repository their form state also
// survives restarts.
package console

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"tinyrisks_admin/internal/lib/logger/sl"
	"tinyrisks_admin/internal/repository"
	"tinyrisks_admin/internal/services/admin"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

const cleanupInterval = 10 * time.Minute

// Factory builds a fresh, unloaded admin session.
type Factory func() *admin.Admin

type Manager struct {
	log     *slog.Logger
	cache   *cache.Cache
	states  repository.ConsoleStateRepository
	factory Factory
	ttl     time.Duration

	mu sync.Mutex
}

// New returns a manager. A nil states repository keeps everything in memory.
func New(log *slog.Logger, factory Factory, ttl time.Duration, states repository.ConsoleStateRepository) *Manager {
	return &Manager{
		log:     log,
		cache:   cache.New(ttl, cleanupInterval),
		states:  states,
		factory: factory,
		ttl:     ttl,
	}
}

// NewID returns a fresh console id.
func NewID() string {
	return uuid.NewString()
}

// Acquire returns the session for id, building it on first use. Lists are not
// fetched here; callers decide when a page load happened.
func (m *Manager) Acquire(ctx context.Context, id string) (*admin.Admin, error) {
	const op = "console.Manager.Acquire"

	log := m.log.With(slog.String("op", op), slog.String("console_id", id))

	if id == "" {
		return nil, fmt.Errorf("%s: empty console id", op)
	}

	if a, ok := m.lookup(id); ok {
		return a, nil
	}

	a := m.factory()

	if m.states != nil {
		var snap admin.Snapshot
		found, err := m.states.GetState(ctx, id, &snap)
		switch {
		case err != nil:
			log.Warn("failed to restore console state", sl.Err(err))
		case found:
			a.Restore(snap)
			log.Debug("console state restored")
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Another request may have built the same session meanwhile.
	if v, ok := m.cache.Get(id); ok {
		return v.(*admin.Admin), nil
	}
	m.cache.Set(id, a, cache.DefaultExpiration)

	log.Info("console session started")

	return a, nil
}

// Persist stores the session's form state. It is a no-op in memory mode.
func (m *Manager) Persist(ctx context.Context, id string, a *admin.Admin) error {
	const op = "console.Manager.Persist"

	m.touch(id, a)

	if m.states == nil {
		return nil
	}

	if err := m.states.SaveState(ctx, id, a.Snapshot(), m.ttl); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// End forgets the session, e.g. after logout.
func (m *Manager) End(ctx context.Context, id string) error {
	const op = "console.Manager.End"

	m.cache.Delete(id)

	if m.states == nil {
		return nil
	}

	if err := m.states.DeleteState(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Count is the number of live sessions.
func (m *Manager) Count() int {
	return m.cache.ItemCount()
}

func (m *Manager) lookup(id string) (*admin.Admin, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.cache.Get(id)
	if !ok {
		return nil, false
	}

	a := v.(*admin.Admin)
	m.cache.Set(id, a, cache.DefaultExpiration)

	return a, true
}

func (m *Manager) touch(id string, a *admin.Admin) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cache.Set(id, a, cache.DefaultExpiration)
}
