package images

import (
	"context"
	"log/slog"
	"strings"

	"github.com/woofdog7/woof-site/internal/core"
	"github.com/woofdog7/woof-site/internal/observability/metrics"
	"github.com/woofdog7/woof-site/internal/sources/opengraph"
	"github.com/woofdog7/woof-site/internal/sources/rss"
)

// Candidate produces an image URL, or reports that it has none.
type Candidate struct {
	Source  string
	Produce func(ctx context.Context) (string, bool)
}

// FirstOf runs candidates in order and returns the first successful result
// together with the source that produced it.
func FirstOf(ctx context.Context, candidates ...Candidate) (string, string, bool) {
	for _, c := range candidates {
		if c.Produce == nil {
			continue
		}
		if v, ok := c.Produce(ctx); ok && strings.TrimSpace(v) != "" {
			return v, c.Source, true
		}
	}
	return "", "", false
}

// Resolver picks a representative image for a feed entry:
// first <img> in the body, then the page's og:image, then a static placeholder.
type Resolver struct {
	pages       opengraph.Reader
	placeholder string
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

func NewResolver(pages opengraph.Reader, placeholder string, logger *slog.Logger, m *metrics.Metrics) *Resolver {
	return &Resolver{
		pages:       pages,
		placeholder: placeholder,
		logger:      logger,
		metrics:     m,
	}
}

// Resolve never fails; the placeholder is returned when nothing better is found.
func (r *Resolver) Resolve(ctx context.Context, bodyHTML, pageURL string) string {
	image, source, ok := FirstOf(ctx, r.fromBody(bodyHTML), r.fromPage(pageURL))
	if !ok {
		image, source = r.placeholder, metrics.ImageSourcePlaceholder
	}
	r.metrics.ObserveImage(source)
	return image
}

func (r *Resolver) fromBody(bodyHTML string) Candidate {
	return Candidate{
		Source: metrics.ImageSourceBody,
		Produce: func(ctx context.Context) (string, bool) {
			src, ok, err := rss.FirstImageSrc(bodyHTML)
			if err != nil {
				core.LoggerFromContext(ctx, r.logger).Debug("entry body image lookup failed", "error", err)
				return "", false
			}
			return src, ok
		},
	}
}

func (r *Resolver) fromPage(pageURL string) Candidate {
	return Candidate{
		Source: metrics.ImageSourceOpenGraph,
		Produce: func(ctx context.Context) (string, bool) {
			if r.pages == nil || strings.TrimSpace(pageURL) == "" {
				return "", false
			}
			image, err := r.pages.ImageURL(ctx, pageURL)
			if err != nil {
				core.LoggerFromContext(ctx, r.logger).Debug("preview image lookup failed", "url", pageURL, "error", err)
				return "", false
			}
			return image, true
		},
	}
}
