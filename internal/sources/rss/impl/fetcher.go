package impl

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/woofdog7/woof-site/internal/sources/rss"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Fetcher struct {
	client *http.Client
	parser *gofeed.Parser
}

func NewFetcher(timeout time.Duration, userAgent string) *Fetcher {
	client := &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	return newFetcher(client, userAgent)
}

func newFetcher(client *http.Client, userAgent string) *Fetcher {
	parser := gofeed.NewParser()
	parser.Client = client
	parser.UserAgent = userAgent
	return &Fetcher{client: client, parser: parser}
}

// Fetch performs a single request; failures are returned to the caller, which
// decides how to degrade.
func (f *Fetcher) Fetch(ctx context.Context, feedURL string, options rss.FetchOptions) ([]rss.Item, error) {
	feed, err := f.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	limit := options.Limit
	if limit <= 0 || limit > len(feed.Items) {
		limit = len(feed.Items)
	}

	items := make([]rss.Item, 0, limit)
	for _, entry := range feed.Items {
		if len(items) >= limit {
			break
		}
		if entry == nil {
			continue
		}
		item := rss.Item{
			Title:       entry.Title,
			Link:        entry.Link,
			Description: entry.Description,
			Content:     entry.Content,
			Published:   entry.Published,
		}
		if entry.PublishedParsed != nil {
			item.PublishedAt = *entry.PublishedParsed
		} else if entry.UpdatedParsed != nil {
			item.PublishedAt = *entry.UpdatedParsed
		}
		items = append(items, item)
	}

	return items, nil
}
