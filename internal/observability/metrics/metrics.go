package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "woof"

// Image sources reported by ObserveImage.
const (
	ImageSourceBody        = "body"
	ImageSourceOpenGraph   = "opengraph"
	ImageSourcePlaceholder = "placeholder"
)

// Metrics holds the site's Prometheus collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry        *prometheus.Registry
	cacheRequests   *prometheus.CounterVec
	rebuilds        *prometheus.CounterVec
	rebuildDuration prometheus.Histogram
	images          *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		cacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_cache_requests_total",
			Help:      "Recent-post lookups by cache outcome (hit, miss, stale).",
		}, []string{"result"}),
		rebuilds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_rebuilds_total",
			Help:      "Feed cache rebuilds by result (ok, error).",
		}, []string{"result"}),
		rebuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "feed_rebuild_duration_seconds",
			Help:      "Time spent fetching the feed and resolving post images.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		images: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "post_images_total",
			Help:      "Resolved post images by the source that supplied them.",
		}, []string{"source"}),
	}
	registry.MustRegister(
		m.cacheRequests,
		m.rebuilds,
		m.rebuildDuration,
		m.images,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) ObserveCache(result string) {
	if m == nil {
		return
	}
	m.cacheRequests.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveRebuild(err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.rebuilds.WithLabelValues(result).Inc()
	m.rebuildDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveImage(source string) {
	if m == nil {
		return
	}
	m.images.WithLabelValues(source).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
