package mock

import (
	"context"
	"sync"

	"github.com/woofdog7/woof-site/internal/sources/opengraph"
)

type Reader struct {
	ImageByURL map[string]string
	ErrByURL   map[string]error

	mu       sync.Mutex
	requests []string
}

func (r *Reader) ImageURL(ctx context.Context, pageURL string) (string, error) {
	_ = ctx
	r.mu.Lock()
	r.requests = append(r.requests, pageURL)
	r.mu.Unlock()
	if err, ok := r.ErrByURL[pageURL]; ok {
		return "", err
	}
	if image, ok := r.ImageByURL[pageURL]; ok {
		return image, nil
	}
	return "", opengraph.ErrNoImage
}

// Requests returns the page URLs looked up so far, in call order.
func (r *Reader) Requests() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.requests...)
}
