package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/woofdog7/woof-site/internal/blog"
	"github.com/woofdog7/woof-site/internal/config"
	"github.com/woofdog7/woof-site/internal/images"
	"github.com/woofdog7/woof-site/internal/observability/metrics"
	"github.com/woofdog7/woof-site/internal/observability/otelx"
	"github.com/woofdog7/woof-site/internal/recent"
	ogimpl "github.com/woofdog7/woof-site/internal/sources/opengraph/impl"
	rssimpl "github.com/woofdog7/woof-site/internal/sources/rss/impl"
	"github.com/woofdog7/woof-site/internal/web"
)

func main() {
	env := config.LoadEnv()

	addr := flag.String("addr", env.Addr, "listen address")
	substack := flag.String("substack", env.Feed.BaseURL, "substack base URL")
	prime := flag.Bool("prime", true, "fetch recent posts once before serving")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otelx.Init(ctx, logger, env.OTel)
	if err != nil {
		log.Fatalf("failed to init tracing: %v", err)
	}

	var m *metrics.Metrics
	if env.MetricsEnabled {
		m = metrics.New()
	}

	projects, err := config.LoadProjects(env.ProjectsPath)
	if err != nil {
		log.Fatalf("failed to load projects: %v", err)
	}

	feedURL := config.FeedURL(*substack)
	resolver := images.NewResolver(ogimpl.NewReader(env.Feed.PreviewTimeout, env.Feed.UserAgent), env.Feed.PlaceholderImage, logger, m)
	posts := recent.NewService(
		rssimpl.NewFetcher(env.Feed.HTTPTimeout, env.Feed.UserAgent),
		resolver,
		recent.NewCache(env.Feed.CacheTTL),
		feedURL,
		recent.WithLogger(logger),
		recent.WithMetrics(m),
	)
	if *prime {
		posts.Prime(ctx, env.Feed.Limit)
	}

	server, err := web.NewServer(web.Config{
		ServiceName:     env.OTel.ServiceName,
		StaticDir:       env.StaticDir,
		ReadingPath:     env.ReadingPath,
		ProjectsPath:    env.ProjectsPath,
		SubstackBaseURL: *substack,
		RecentLimit:     env.Feed.Limit,
		NoIndex:         env.NoIndex,
		Projects:        projects,
		Metrics:         m,
		Logger:          logger,
	}, posts, blog.NewStore(env.PostsDir))
	if err != nil {
		log.Fatalf("failed to build server: %v", err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start(*addr) }()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("http server stopped", "error", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown", "error", err)
	}
	if shutdownTracing != nil {
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Error("otel shutdown", "error", err)
		}
	}
}
