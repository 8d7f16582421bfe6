package recent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/woofdog7/woof-site/internal/core"
	"github.com/woofdog7/woof-site/internal/observability/metrics"
	"github.com/woofdog7/woof-site/internal/observability/otelx"
	"github.com/woofdog7/woof-site/internal/sources/rss"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

// DescriptionLimit is the number of characters kept from an entry's plain text.
const DescriptionLimit = 180

const rebuildKey = "recent"

// ErrEmptyFeed is returned by a rebuild whose feed parsed but had no entries.
// It is treated like any other failed rebuild and never replaces a cached list.
var ErrEmptyFeed = errors.New("feed has no entries")

// ImageResolver picks a display image for an entry. It must not fail.
type ImageResolver interface {
	Resolve(ctx context.Context, bodyHTML, pageURL string) string
}

type Option func(*Service)

// WithClock overrides time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// Service serves the recent posts of one external feed from a TTL cache,
// rebuilding the cache lazily on the first request after it expires.
type Service struct {
	fetcher rss.Fetcher
	images  ImageResolver
	cache   *Cache
	feedURL string

	now     func() time.Time
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
	group   singleflight.Group
}

func NewService(fetcher rss.Fetcher, images ImageResolver, cache *Cache, feedURL string, opts ...Option) *Service {
	s := &Service{
		fetcher: fetcher,
		images:  images,
		cache:   cache,
		feedURL: feedURL,
		now:     time.Now,
		logger:  slog.Default(),
		tracer:  otelx.Tracer("github.com/woofdog7/woof-site/internal/recent"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FeedURL is the syndication feed this service reads.
func (s *Service) FeedURL() string {
	return s.feedURL
}

// RecentPosts returns at most limit post summaries. It never returns an error:
// when the feed cannot be rebuilt the last good list is served, or an empty
// one if there has never been a good list.
func (s *Service) RecentPosts(ctx context.Context, limit int) []core.PostSummary {
	if limit <= 0 {
		return []core.PostSummary{}
	}
	if posts, ok := s.cache.Get(s.now()); ok {
		s.metrics.ObserveCache("hit")
		return head(posts, limit)
	}

	s.metrics.ObserveCache("miss")
	posts, err := s.rebuild(ctx, limit)
	if err == nil {
		return head(posts, limit)
	}

	logger := core.LoggerFromContext(ctx, s.logger)
	if stale, storedAt, ok := s.cache.Last(); ok {
		logger.Warn("feed rebuild failed, serving stale posts", "feed_url", s.feedURL, "stored_at", storedAt, "error", err)
		s.metrics.ObserveCache("stale")
		return head(stale, limit)
	}
	logger.Warn("feed rebuild failed, no cached posts", "feed_url", s.feedURL, "error", err)
	return []core.PostSummary{}
}

// Prime fills the cache once at startup so the first page view does not pay for
// the feed and preview fetches.
func (s *Service) Prime(ctx context.Context, limit int) {
	posts := s.RecentPosts(ctx, limit)
	s.logger.Info("recent posts primed", "feed_url", s.feedURL, "posts", len(posts))
}

// rebuild collapses concurrent rebuilds into one upstream fetch, one key for
// the one cache slot. The build ignores caller cancellation; only the
// per-request HTTP timeouts bound it.
func (s *Service) rebuild(ctx context.Context, limit int) ([]core.PostSummary, error) {
	v, err, _ := s.group.Do(rebuildKey, func() (any, error) {
		// A caller that missed just before the previous build stored its list.
		if posts, ok := s.cache.Get(s.now()); ok {
			return posts, nil
		}
		return s.build(context.WithoutCancel(ctx), limit)
	})
	if err != nil {
		return nil, err
	}
	return v.([]core.PostSummary), nil
}

func (s *Service) build(ctx context.Context, limit int) (posts []core.PostSummary, err error) {
	ctx, span := s.tracer.Start(ctx, "recent.rebuild", trace.WithAttributes(
		attribute.String("feed.url", s.feedURL),
		attribute.Int("feed.limit", limit),
	))
	start := time.Now()
	defer func() {
		s.metrics.ObserveRebuild(err, time.Since(start))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	items, err := s.fetcher.Fetch(ctx, s.feedURL, rss.FetchOptions{Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", s.feedURL, err)
	}
	if len(items) == 0 {
		return nil, ErrEmptyFeed
	}
	if len(items) > limit {
		items = items[:limit]
	}

	posts = make([]core.PostSummary, 0, len(items))
	for _, item := range items {
		posts = append(posts, s.summarize(ctx, item))
	}

	s.cache.Set(s.now(), posts)
	span.SetAttributes(attribute.Int("feed.posts", len(posts)))
	core.LoggerFromContext(ctx, s.logger).Info("feed rebuilt", "feed_url", s.feedURL, "posts", len(posts), "elapsed", time.Since(start))
	return posts, nil
}

func (s *Service) summarize(ctx context.Context, item rss.Item) core.PostSummary {
	body := item.Body()
	return core.PostSummary{
		Title:       item.Title,
		URL:         item.Link,
		Description: rss.Truncate(rss.PlainText(body), DescriptionLimit),
		Image:       s.images.Resolve(ctx, body, item.Link),
		Published:   item.Published,
	}
}

func head(posts []core.PostSummary, limit int) []core.PostSummary {
	return slices.Clone(posts[:min(limit, len(posts))])
}
