package httpapp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"tinyrisks_admin/internal/config"
	appmiddleware "tinyrisks_admin/internal/middleware"
	"tinyrisks_admin/internal/render"
	httprouters "tinyrisks_admin/internal/transport/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

type Server struct {
	log     *slog.Logger
	e       *echo.Echo
	routers *httprouters.Routers
	host    string
	port    string
	secure  bool
}

func New(log *slog.Logger, cfg config.HTTPConfig, validate *validator.Validate, routers *httprouters.Routers) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	if validate == nil {
		validate = validator.New()
	}
	e.Validator = &CustomValidator{validator: validate}

	// gorilla/sessions defaults to Secure cookies, which a plain http console
	// never gets back.
	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.Secure = cfg.SecureCookie
	store.Options.SameSite = http.SameSiteLaxMode
	e.Use(session.Middleware(store))

	e.Use(middleware.Recover())
	e.Use(appmiddleware.PrometheusMetrics)

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogRemoteIP: true,
		LogLatency:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info("request",
				slog.String("URI", v.URI),
				slog.Int("status", v.Status),
				slog.String("remote ip", v.RemoteIP),
				slog.Duration("latency", v.Latency),
			)

			return nil
		},
	}))

	return &Server{
		log:     log,
		e:       e,
		routers: routers,
		host:    cfg.Host,
		port:    cfg.Port,
		secure:  cfg.SecureCookie,
	}
}

// Handler exposes the router, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.e
}

func (s *Server) MustRun() {
	const op = "http.Server.MustRun"

	s.log.Info(op, slog.String("Start", "server"), slog.String("addr", s.addr()))

	if err := s.Start(); err != nil {
		panic(err)
	}
}

func (s *Server) Start() error {
	const op = "http.Server.Start"

	if err := s.e.Start(s.addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%s server stopped: %w", op, err)
	}

	return nil
}

func (s *Server) Stop() error {
	const op = "http.Server.Stop"

	optCtx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	s.log.Info("stopping", slog.String("op", op))

	if err := s.e.Shutdown(optCtx); err != nil {
		return fmt.Errorf("%s could not shutdown server gracefuly: %w", op, err)
	}

	return nil
}

func (s *Server) addr() string {
	return net.JoinHostPort(s.host, s.port)
}

func (s *Server) BuildRouters() {
	s.e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	s.e.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusFound, "/admin")
	})

	admin := s.e.Group("/admin")
	admin.Use(middleware.CSRFWithConfig(middleware.CSRFConfig{
		TokenLookup:    "header:X-CSRF-Token,form:_csrf",
		ContextKey:     httprouters.CSRFKey,
		CookiePath:     "/admin",
		CookieHTTPOnly: true,
		CookieSecure:   s.secure,
		CookieSameSite: http.SameSiteStrictMode,
	}))
	{
		admin.GET("", s.routers.Admin)
		admin.GET("/status", s.routers.Status)
		admin.StaticFS("/static", render.Static())

		admin.POST("/build", s.routers.Build)
		admin.POST("/logout", s.routers.Logout)
		admin.POST("/theme", s.routers.Theme)

		preview := admin.Group("/preview")
		{
			preview.POST("", s.routers.Preview)
			preview.GET("/ws", s.routers.PreviewSocket)
		}

		uploads := admin.Group("/uploads")
		{
			uploads.POST("/:form", s.routers.Upload)
			uploads.POST("/:form/select", s.routers.SelectUpload)
		}

		entity := admin.Group("/:entity")
		{
			entity.GET("/panel", s.routers.Panel)
			entity.GET("/list", s.routers.List)
			entity.POST("/submit", s.routers.Submit)
			entity.POST("/input/:field", s.routers.Input)
			entity.POST("/actions/:action", s.routers.Action)
			entity.POST("/actions/:action/:id", s.routers.Action)
		}
	}
}
