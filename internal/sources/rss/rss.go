package rss

import (
	"context"
	"time"
)

// FetchOptions controls RSS fetch behavior.
type FetchOptions struct {
	Limit int
}

// Item represents a single RSS or Atom entry.
type Item struct {
	Title       string
	Link        string
	Description string
	Content     string
	// Published is the entry's published field exactly as the feed wrote it.
	Published   string
	PublishedAt time.Time
}

// Body returns the richest markup the entry carries: content, then summary.
func (i Item) Body() string {
	if i.Content != "" {
		return i.Content
	}
	return i.Description
}

// Fetcher fetches and parses RSS/Atom feeds.
type Fetcher interface {
	Fetch(ctx context.Context, feedURL string, options FetchOptions) ([]Item, error)
}
