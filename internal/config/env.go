package config

import (
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type EnvConfig struct {
	Addr           string
	SiteDir        string
	PostsDir       string
	StaticDir      string
	ReadingPath    string
	ProjectsPath   string
	NoIndex        bool
	MetricsEnabled bool
	Feed           FeedEnvConfig
	OTel           OTelEnvConfig
}

// FeedEnvConfig controls the recent-posts feed and its preview image lookups.
type FeedEnvConfig struct {
	BaseURL          string
	CacheTTL         time.Duration
	Limit            int
	HTTPTimeout      time.Duration
	PreviewTimeout   time.Duration
	UserAgent        string
	PlaceholderImage string
}

type OTelEnvConfig struct {
	Enabled     bool
	ServiceName string
	Endpoint    string
	Protocol    string // "grpc" or "http/protobuf"
	Headers     map[string]string
	Insecure    bool
	SampleRatio float64
}

const (
	DefaultSubstackBaseURL  = "https://woofdog7.substack.com/"
	DefaultUserAgent        = "woof-site/1.0 (+https://example.com)"
	DefaultPlaceholderImage = "/static/projects/placeholder.jpeg"
	DefaultRecentPostsLimit = 5
)

func LoadEnv() EnvConfig {
	siteDir := envString("SITE_DIR", "site")
	otlpEndpoint := strings.TrimSpace(envString("OTEL_EXPORTER_OTLP_ENDPOINT", ""))

	limit := envInt("RECENT_POSTS_LIMIT", DefaultRecentPostsLimit)
	if limit < 0 {
		limit = 0
	}

	return EnvConfig{
		Addr:           envString("WOOF_ADDR", ":8080"),
		SiteDir:        siteDir,
		PostsDir:       envString("POSTS_DIR", filepath.Join(siteDir, "posts")),
		StaticDir:      envString("STATIC_DIR", filepath.Join(siteDir, "static")),
		ReadingPath:    envString("READING_PATH", filepath.Join(siteDir, "data", "reading.json")),
		ProjectsPath:   envString("PROJECTS_PATH", filepath.Join(siteDir, "data", "projects.yaml")),
		NoIndex:        envBool("SITE_NOINDEX", true),
		MetricsEnabled: envBool("METRICS_ENABLED", true),
		Feed: FeedEnvConfig{
			BaseURL:          envString("SUBSTACK_BASE_URL", DefaultSubstackBaseURL),
			CacheTTL:         envDuration("FEED_CACHE_TTL", 24*time.Hour),
			Limit:            limit,
			HTTPTimeout:      envDuration("FEED_HTTP_TIMEOUT", 15*time.Second),
			PreviewTimeout:   envDuration("PREVIEW_HTTP_TIMEOUT", 8*time.Second),
			UserAgent:        envString("HTTP_USER_AGENT", DefaultUserAgent),
			PlaceholderImage: envString("PLACEHOLDER_IMAGE", DefaultPlaceholderImage),
		},
		OTel: OTelEnvConfig{
			Enabled:     envBool("OTEL_ENABLED", false),
			ServiceName: strings.TrimSpace(envString("OTEL_SERVICE_NAME", "woof-site")),
			Endpoint:    otlpEndpoint,
			Protocol:    strings.ToLower(strings.TrimSpace(envString("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc"))),
			Headers:     parseHeaders(envString("OTEL_EXPORTER_OTLP_HEADERS", "")),
			Insecure:    envBool("OTEL_EXPORTER_OTLP_INSECURE", defaultInsecure(otlpEndpoint)),
			SampleRatio: clamp01(envFloat("OTEL_TRACES_SAMPLE_RATIO", 1.0)),
		},
	}
}

// FeedURL returns the syndication feed address for a blog base URL.
func FeedURL(baseURL string) string {
	return strings.TrimRight(strings.TrimSpace(baseURL), "/") + "/feed"
}

func envString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func envFloat(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := parseDurationExtended(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func parseHeaders(raw string) map[string]string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	out := map[string]string{}
	for _, part := range strings.Split(raw, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		k = strings.TrimSpace(k)
		v = strings.TrimSpace(v)
		if k == "" || v == "" {
			continue
		}
		out[k] = v
	}
	return out
}

func defaultInsecure(endpoint string) bool {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return true
	}
	if strings.Contains(endpoint, "://") {
		u, err := url.Parse(endpoint)
		if err != nil {
			return false
		}
		return u.Scheme == "http"
	}
	return strings.HasPrefix(endpoint, "localhost:") ||
		strings.HasPrefix(endpoint, "127.0.0.1:") ||
		strings.HasPrefix(endpoint, "0.0.0.0:")
}
