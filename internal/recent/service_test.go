package recent

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/woofdog7/woof-site/internal/core"
	"github.com/woofdog7/woof-site/internal/images"
	ogmock "github.com/woofdog7/woof-site/internal/sources/opengraph/mock"
	"github.com/woofdog7/woof-site/internal/sources/rss"
	rssmock "github.com/woofdog7/woof-site/internal/sources/rss/mock"
)

const (
	testFeedURL     = "https://woofdog7.substack.com/feed"
	testPlaceholder = "/static/projects/placeholder.jpeg"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func fiveItems() []rss.Item {
	items := make([]rss.Item, 0, 5)
	for i := 1; i <= 5; i++ {
		items = append(items, rss.Item{
			Title:     fmt.Sprintf("Post %d", i),
			Link:      fmt.Sprintf("https://woofdog7.substack.com/p/post-%d", i),
			Content:   fmt.Sprintf(`<p>Body %d</p><img src="https://x/%d.png">`, i, i),
			Published: fmt.Sprintf("Mon, 0%d Jan 2025 10:00:00 GMT", i),
		})
	}
	return items
}

type harness struct {
	fetcher *rssmock.Fetcher
	pages   *ogmock.Reader
	clock   *fakeClock
	service *Service
}

func newHarness(items []rss.Item) *harness {
	h := &harness{
		fetcher: &rssmock.Fetcher{ItemsByFeed: map[string][]rss.Item{testFeedURL: items}},
		pages:   &ogmock.Reader{ImageByURL: map[string]string{}},
		clock:   &fakeClock{now: time.Date(2025, 1, 6, 12, 0, 0, 0, time.UTC)},
	}
	resolver := images.NewResolver(h.pages, testPlaceholder, nil, nil)
	h.service = NewService(h.fetcher, resolver, NewCache(24*time.Hour), testFeedURL, WithClock(h.clock.Now))
	return h
}

func TestRecentPosts_BuildsSummaries(t *testing.T) {
	h := newHarness(fiveItems())

	posts := h.service.RecentPosts(context.Background(), 5)
	if len(posts) != 5 {
		t.Fatalf("expected 5 posts, got %d", len(posts))
	}
	first := posts[0]
	if first.Title != "Post 1" || first.URL != "https://woofdog7.substack.com/p/post-1" {
		t.Fatalf("unexpected first post %#v", first)
	}
	if first.Description != "Body 1" {
		t.Fatalf("expected plain-text description, got %q", first.Description)
	}
	if first.Image != "https://x/1.png" {
		t.Fatalf("expected body image, got %q", first.Image)
	}
	if first.Published != "Mon, 01 Jan 2025 10:00:00 GMT" {
		t.Fatalf("unexpected published %q", first.Published)
	}
	if n := len(h.pages.Requests()); n != 0 {
		t.Fatalf("expected no preview lookups when bodies carry images, got %d", n)
	}
}

func TestRecentPosts_SecondCallWithinTTLIsCacheHit(t *testing.T) {
	items := fiveItems()
	for i := range items {
		items[i].Content = "<p>no image</p>"
	}
	h := newHarness(items)
	h.pages.ImageByURL["https://woofdog7.substack.com/p/post-2"] = "https://x/og-2.png"

	first := h.service.RecentPosts(context.Background(), 5)
	fetches, lookups := h.fetcher.Calls(), len(h.pages.Requests())
	if fetches != 1 || lookups != 5 {
		t.Fatalf("expected 1 feed fetch and 5 preview lookups, got %d and %d", fetches, lookups)
	}

	h.clock.Advance(time.Second)
	second := h.service.RecentPosts(context.Background(), 5)
	if h.fetcher.Calls() != fetches || len(h.pages.Requests()) != lookups {
		t.Fatalf("expected zero network activity on cache hit")
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical lists, got %#v and %#v", first, second)
	}
	if second[1].Image != "https://x/og-2.png" || second[0].Image != testPlaceholder {
		t.Fatalf("unexpected images %q %q", second[0].Image, second[1].Image)
	}
}

func TestRecentPosts_RebuildsAfterTTL(t *testing.T) {
	h := newHarness(fiveItems())
	h.service.RecentPosts(context.Background(), 5)

	h.clock.Advance(24 * time.Hour)
	h.fetcher.ItemsByFeed[testFeedURL] = fiveItems()[:2]
	posts := h.service.RecentPosts(context.Background(), 5)
	if h.fetcher.Calls() != 2 {
		t.Fatalf("expected a rebuild after ttl, got %d fetches", h.fetcher.Calls())
	}
	if len(posts) != 2 {
		t.Fatalf("expected the rebuilt list to replace the old one, got %d posts", len(posts))
	}
}

func TestRecentPosts_LengthIsMinOfLimitAndAvailable(t *testing.T) {
	cases := []struct {
		available, limit, want int
	}{
		{5, 0, 0},
		{5, 1, 1},
		{5, 3, 3},
		{5, 5, 5},
		{2, 5, 2},
		{0, 5, 0},
	}
	for _, tc := range cases {
		h := newHarness(fiveItems()[:tc.available])
		if got := len(h.service.RecentPosts(context.Background(), tc.limit)); got != tc.want {
			t.Fatalf("available=%d limit=%d: expected %d posts, got %d", tc.available, tc.limit, tc.want, got)
		}
	}
}

func TestRecentPosts_NegativeLimitTouchesNothing(t *testing.T) {
	h := newHarness(fiveItems())
	if got := h.service.RecentPosts(context.Background(), -1); len(got) != 0 {
		t.Fatalf("expected empty result, got %d", len(got))
	}
	if h.fetcher.Calls() != 0 {
		t.Fatalf("expected no fetch for non-positive limit")
	}
}

func TestRecentPosts_HitReturnsPrefix(t *testing.T) {
	h := newHarness(fiveItems())
	h.service.RecentPosts(context.Background(), 5)

	posts := h.service.RecentPosts(context.Background(), 2)
	if len(posts) != 2 || posts[1].Title != "Post 2" {
		t.Fatalf("expected first two cached posts, got %#v", posts)
	}
	if h.fetcher.Calls() != 1 {
		t.Fatalf("expected cache hit, got %d fetches", h.fetcher.Calls())
	}
}

func TestRecentPosts_UnreachableFeedWithoutCacheIsEmpty(t *testing.T) {
	h := newHarness(nil)
	h.fetcher.ErrByFeed = map[string]error{testFeedURL: errors.New("dial tcp: no route to host")}

	posts := h.service.RecentPosts(context.Background(), 5)
	if posts == nil || len(posts) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", posts)
	}
}

func TestRecentPosts_FailedRebuildServesStaleList(t *testing.T) {
	h := newHarness(fiveItems())
	good := h.service.RecentPosts(context.Background(), 5)

	h.clock.Advance(25 * time.Hour)
	h.fetcher.ErrByFeed = map[string]error{testFeedURL: errors.New("503")}
	stale := h.service.RecentPosts(context.Background(), 5)
	if !reflect.DeepEqual(good, stale) {
		t.Fatalf("expected stale list to be served after failed rebuild")
	}

	// Recovery: the next request after the upstream returns rebuilds the cache.
	h.fetcher.ErrByFeed = nil
	h.fetcher.ItemsByFeed[testFeedURL] = fiveItems()[:1]
	fresh := h.service.RecentPosts(context.Background(), 5)
	if len(fresh) != 1 {
		t.Fatalf("expected rebuilt list of 1 post, got %d", len(fresh))
	}
}

func TestRecentPosts_EmptyFeedKeepsGoodList(t *testing.T) {
	h := newHarness(fiveItems())
	good := h.service.RecentPosts(context.Background(), 5)

	h.clock.Advance(25 * time.Hour)
	h.fetcher.ItemsByFeed[testFeedURL] = nil
	stale := h.service.RecentPosts(context.Background(), 5)
	if !reflect.DeepEqual(good, stale) {
		t.Fatalf("expected an empty feed to leave the good list in place, got %d posts", len(stale))
	}
	if kept, _, ok := h.service.cache.Last(); !ok || len(kept) != 5 {
		t.Fatalf("expected the cache to still hold 5 posts, got %d", len(kept))
	}

	// Still stale, so the next view asks upstream again.
	h.service.RecentPosts(context.Background(), 5)
	if h.fetcher.Calls() != 3 {
		t.Fatalf("expected a retry on the next request, got %d fetches", h.fetcher.Calls())
	}
}

func TestRecentPosts_DescriptionTruncation(t *testing.T) {
	long := strings.Repeat("w", 300)
	short := strings.Repeat("s", 100)
	h := newHarness([]rss.Item{
		{Title: "long", Link: "https://x/long", Description: long},
		{Title: "short", Link: "https://x/short", Description: "<p>" + short + "</p>"},
		{Title: "empty", Link: "https://x/empty"},
	})

	posts := h.service.RecentPosts(context.Background(), 5)
	if posts[0].Description != strings.Repeat("w", 180)+rss.Ellipsis {
		t.Fatalf("expected truncated description, got %q", posts[0].Description)
	}
	if posts[1].Description != short {
		t.Fatalf("expected untouched description, got %q", posts[1].Description)
	}
	if posts[2].Description != "" {
		t.Fatalf("expected empty description, got %q", posts[2].Description)
	}
	if posts[2].Image != testPlaceholder {
		t.Fatalf("expected placeholder for entry without body, got %q", posts[2].Image)
	}
}

func TestRecentPosts_ReturnedSliceIsACopy(t *testing.T) {
	h := newHarness(fiveItems())
	posts := h.service.RecentPosts(context.Background(), 5)
	posts[0].Title = "changed by caller"

	again := h.service.RecentPosts(context.Background(), 5)
	if again[0].Title != "Post 1" {
		t.Fatalf("expected cached data to be unaffected by callers, got %q", again[0].Title)
	}
}

// gatedFetcher holds every Fetch until release is closed, so callers can pile
// up behind one in-flight rebuild. It honors ctx like the real fetcher.
type gatedFetcher struct {
	items   []rss.Item
	entered chan struct{}
	release chan struct{}
	once    sync.Once
	calls   atomic.Int32
}

func newGatedFetcher(items []rss.Item) *gatedFetcher {
	return &gatedFetcher{items: items, entered: make(chan struct{}), release: make(chan struct{})}
}

func (f *gatedFetcher) Fetch(ctx context.Context, feedURL string, options rss.FetchOptions) ([]rss.Item, error) {
	f.calls.Add(1)
	f.once.Do(func() { close(f.entered) })
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-f.release:
	}
	items := f.items
	if options.Limit > 0 && len(items) > options.Limit {
		items = items[:options.Limit]
	}
	return items, nil
}

func newGatedService(f *gatedFetcher) *Service {
	clock := &fakeClock{now: time.Date(2025, 1, 6, 12, 0, 0, 0, time.UTC)}
	resolver := images.NewResolver(&ogmock.Reader{}, testPlaceholder, nil, nil)
	return NewService(f, resolver, NewCache(24*time.Hour), testFeedURL, WithClock(clock.Now))
}

func TestRecentPosts_ConcurrentMissesShareOneFetch(t *testing.T) {
	f := newGatedFetcher(fiveItems())
	svc := newGatedService(f)

	const readers = 16
	results := make(chan int, readers)
	var started sync.WaitGroup
	for i := 0; i < readers; i++ {
		started.Add(1)
		go func() {
			started.Done()
			results <- len(svc.RecentPosts(context.Background(), 5))
		}()
	}
	started.Wait()
	<-f.entered
	time.Sleep(20 * time.Millisecond)
	close(f.release)

	for i := 0; i < readers; i++ {
		if got := <-results; got != 5 {
			t.Fatalf("expected 5 posts, got %d", got)
		}
	}
	if n := f.calls.Load(); n != 1 {
		t.Fatalf("expected one upstream fetch for concurrent misses, got %d", n)
	}
}

func TestRecentPosts_MixedLimitsShareOneFetch(t *testing.T) {
	f := newGatedFetcher(fiveItems())
	svc := newGatedService(f)

	small := make(chan int, 1)
	large := make(chan int, 1)
	go func() { large <- len(svc.RecentPosts(context.Background(), 5)) }()
	<-f.entered
	go func() { small <- len(svc.RecentPosts(context.Background(), 2)) }()
	time.Sleep(20 * time.Millisecond)
	close(f.release)

	if got := <-large; got != 5 {
		t.Fatalf("expected 5 posts for limit 5, got %d", got)
	}
	if got := <-small; got != 2 {
		t.Fatalf("expected 2 posts for limit 2, got %d", got)
	}
	if n := f.calls.Load(); n != 1 {
		t.Fatalf("expected one upstream fetch, got %d", n)
	}
	if got := len(svc.RecentPosts(context.Background(), 5)); got != 5 {
		t.Fatalf("expected the cached list to keep 5 posts, got %d", got)
	}
}

func TestRecentPosts_CallerCancellationDoesNotAbortRebuild(t *testing.T) {
	f := newGatedFetcher(fiveItems())
	svc := newGatedService(f)

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan []core.PostSummary, 1)
	go func() { first <- svc.RecentPosts(ctx, 5) }()
	<-f.entered

	second := make(chan []core.PostSummary, 1)
	go func() { second <- svc.RecentPosts(context.Background(), 5) }()
	time.Sleep(20 * time.Millisecond)

	cancel()
	time.Sleep(20 * time.Millisecond)
	close(f.release)

	if got := len(<-first); got != 5 {
		t.Fatalf("expected the canceled caller's rebuild to finish with 5 posts, got %d", got)
	}
	if got := len(<-second); got != 5 {
		t.Fatalf("expected the joined caller to get 5 posts, got %d", got)
	}
	if n := f.calls.Load(); n != 1 {
		t.Fatalf("expected one upstream fetch, got %d", n)
	}
	if _, ok := svc.cache.Get(svc.now()); !ok {
		t.Fatalf("expected the rebuilt list to be cached")
	}
}

func TestPrime(t *testing.T) {
	h := newHarness(fiveItems())
	h.service.Prime(context.Background(), 5)
	if h.fetcher.Calls() != 1 {
		t.Fatalf("expected prime to fetch once, got %d", h.fetcher.Calls())
	}
	h.service.RecentPosts(context.Background(), 5)
	if h.fetcher.Calls() != 1 {
		t.Fatalf("expected first request after prime to hit the cache")
	}
}
