package impl

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/woofdog7/woof-site/internal/sources/opengraph"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const defaultTimeout = 8 * time.Second

type Reader struct {
	client      *http.Client
	userAgent   string
	maxBodySize int64
}

func NewReader(timeout time.Duration, userAgent string) *Reader {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if userAgent == "" {
		userAgent = "woof-site/1.0"
	}
	return &Reader{
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		userAgent:   userAgent,
		maxBodySize: 5 << 20, // 5 MiB
	}
}

// ImageURL fetches pageURL once and returns its social-preview image.
func (r *Reader) ImageURL(ctx context.Context, pageURL string) (string, error) {
	pageURL = strings.TrimSpace(pageURL)
	if pageURL == "" {
		return "", fmt.Errorf("opengraph: url is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("opengraph: build request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("opengraph: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("opengraph: request failed: %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, r.maxBodySize+1))
	if err != nil {
		return "", fmt.Errorf("opengraph: read body: %w", err)
	}
	if int64(len(body)) > r.maxBodySize {
		return "", fmt.Errorf("opengraph: response too large")
	}

	return opengraph.ExtractImageURL(bytes.NewReader(body))
}
