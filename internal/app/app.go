package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	httpapp "tinyrisks_admin/internal/app/http"
	"tinyrisks_admin/internal/config"
	"tinyrisks_admin/internal/lib/logger/sl"
	"tinyrisks_admin/internal/repository"
	"tinyrisks_admin/internal/services/admin"
	"tinyrisks_admin/internal/services/console"
	"tinyrisks_admin/internal/services/controller"
	"tinyrisks_admin/internal/services/preview"
	"tinyrisks_admin/internal/services/upload"
	redisapp "tinyrisks_admin/internal/storage/redis"
	httprouters "tinyrisks_admin/internal/transport/http"

	"github.com/go-playground/validator/v10"
)

const (
	stateDriverMemory = "memory"
	stateDriverRedis  = "redis"
	redisPingTimeout  = 3 * time.Second
)

type App struct {
	HTTPServer *httpapp.Server
	Consoles   *console.Manager

	log   *slog.Logger
	redis *redisapp.Client
}

// New wires the admin console server from config.
func New(log *slog.Logger, cfg *config.Config) (*App, error) {
	const op = "app.New"

	validate := validator.New()

	services, err := NewServices(log, cfg, validate)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	renderer := NewRenderer(cfg)
	opts := Options(cfg, renderer)
	opts.Confirmer = controller.Confirmed

	application := &App{log: log}

	var states repository.ConsoleStateRepository
	switch cfg.State.Driver {
	case "", stateDriverMemory:
	case stateDriverRedis:
		client := redisapp.NewClient(cfg.Redis)

		ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
		defer cancel()

		if err := client.HealthCheck(ctx); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		application.redis = client
		states = repository.NewRedisConsoleStateRepo(client)
	default:
		return nil, fmt.Errorf("%s: unknown state driver %q", op, cfg.State.Driver)
	}

	application.Consoles = console.New(log, func() *admin.Admin {
		return admin.New(log, services, opts)
	}, cfg.State.TTL, states)

	routers := httprouters.NewRouter(log, application.Consoles, renderer, cfg.Site, cfg.HTTP.SecureCookie)
	application.HTTPServer = httpapp.New(log, cfg.HTTP, validate, routers)

	return application, nil
}

// Stop shuts the server down and releases the state store.
func (a *App) Stop() {
	if err := a.HTTPServer.Stop(); err != nil {
		a.log.Error("failed to stop http server", sl.Err(err))
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Error("failed to close redis", sl.Err(err))
		}
	}
}

// NewServices builds the API-backed services shared by the console and the
// CLI.
func NewServices(log *slog.Logger, cfg *config.Config, validate *validator.Validate) (admin.Services, error) {
	repo, err := repository.NewRepository(log, cfg.API.BaseURL, cfg.API.Timeout)
	if err != nil {
		return admin.Services{}, err
	}

	return admin.NewServices(log, repo, validate), nil
}

func NewRenderer(cfg *config.Config) *preview.Renderer {
	return preview.NewRenderer(preview.Options{
		HighlightStyle: cfg.Preview.HighlightStyle,
		Sanitize:       cfg.Preview.Sanitize,
	})
}

// Options maps the configured timings, drop-zones and prompts onto a session.
func Options(cfg *config.Config, renderer *preview.Renderer) admin.Options {
	opts := admin.Options{
		Renderer:    renderer,
		StatusAfter: cfg.Notify.DismissAfter,
		CloseAfter:  cfg.Notify.CloseAfter,
	}

	for _, u := range cfg.Console.Uploads {
		opts.Uploads = append(opts.Uploads, admin.UploadForm{
			Form: upload.Form{
				ID:     u.ID,
				Action: u.Action,
				Field:  u.Field,
				Accept: u.Accept,
				Label:  u.Label,
				Extra:  u.Extra,
			},
			Refresh: u.Refresh,
		})
	}

	for _, p := range cfg.Console.Prompts {
		opts.Prompts = append(opts.Prompts, admin.Prompt{ID: p.ID, Title: p.Title, Text: p.Text})
	}

	return opts
}
