package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/woofdog7/woof-site/internal/blog"
	"github.com/woofdog7/woof-site/internal/config"
	"github.com/woofdog7/woof-site/internal/core"
	"github.com/woofdog7/woof-site/internal/observability/metrics"
)

const siteTitle = "woofdog"

// RecentPosts supplies the external posts shown on the home page.
type RecentPosts interface {
	RecentPosts(ctx context.Context, limit int) []core.PostSummary
}

// Posts is the local blog.
type Posts interface {
	List() ([]blog.Summary, error)
	Get(slug string) (*blog.Post, error)
}

type Config struct {
	ServiceName     string
	StaticDir       string
	ReadingPath     string
	ProjectsPath    string
	SubstackBaseURL string
	RecentLimit     int
	NoIndex         bool
	Projects        []config.Project
	Metrics         *metrics.Metrics
	Logger          *slog.Logger
}

type Server struct {
	cfg     Config
	recent  RecentPosts
	posts   Posts
	logger  *slog.Logger
	started time.Time
	echo    *echo.Echo
}

func NewServer(cfg Config, recent RecentPosts, posts Posts) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "woof-site"
	}
	renderer, err := newRenderer()
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer

	s := &Server{
		cfg:     cfg,
		recent:  recent,
		posts:   posts,
		logger:  logger,
		started: time.Now().UTC(),
		echo:    e,
	}
	e.HTTPErrorHandler = s.handleError

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestContext(logger))
	e.Use(requestLogger(logger))
	e.Use(otelecho.Middleware(cfg.ServiceName))
	e.Use(securityHeaders(cfg.NoIndex))

	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	s.echo.GET("/", s.handleIndex)
	s.echo.GET("/blog", s.handleBlog)
	s.echo.GET("/blog/:slug", s.handlePost)
	s.echo.GET("/sitemap.xml", s.handleSitemap)
	s.echo.GET("/robots.txt", s.handleRobots)
	s.echo.GET("/healthz", s.handleHealth)
	if s.cfg.Metrics != nil {
		s.echo.GET("/metrics", echo.WrapHandler(s.cfg.Metrics.Handler()))
	}
	if s.cfg.StaticDir != "" {
		s.echo.Static("/static", s.cfg.StaticDir)
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start blocks until the listener fails or Shutdown is called. A clean
// shutdown returns nil.
func (s *Server) Start(addr string) error {
	s.logger.Info("http server listening", "addr", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
