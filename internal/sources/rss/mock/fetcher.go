package mock

import (
	"context"
	"sync"

	"github.com/woofdog7/woof-site/internal/sources/rss"
)

type Fetcher struct {
	ItemsByFeed map[string][]rss.Item
	ErrByFeed   map[string]error

	mu    sync.Mutex
	calls int
}

func (f *Fetcher) Fetch(ctx context.Context, feedURL string, options rss.FetchOptions) ([]rss.Item, error) {
	_ = ctx
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.ErrByFeed != nil {
		if err, ok := f.ErrByFeed[feedURL]; ok {
			return nil, err
		}
	}
	items := f.ItemsByFeed[feedURL]
	if options.Limit > 0 && len(items) > options.Limit {
		return items[:options.Limit], nil
	}
	return items, nil
}

// Calls reports how many times Fetch was invoked.
func (f *Fetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
