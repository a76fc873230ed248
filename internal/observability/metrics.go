// Package observability exposes pipeline counters in Prometheus format.
package observability

import (
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sitescraper"

// Metrics tracks operational metrics for a pipeline run. All recording
// methods are safe on a nil *Metrics.
type Metrics struct {
	registry *prometheus.Registry

	PagesFetched      *prometheus.CounterVec
	FetchErrors       *prometheus.CounterVec
	RecordsScraped    *prometheus.CounterVec
	RecordsDuplicate  prometheus.Counter
	ArticlesRewritten prometheus.Counter
	ArticlesSEO       *prometheus.CounterVec
	ArticlesPublished *prometheus.CounterVec
	SEOScore          prometheus.Histogram

	logger *slog.Logger
}

// NewMetrics creates a Metrics instance with its own registry.
func NewMetrics(logger *slog.Logger) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		PagesFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_fetched_total",
			Help:      "Pages fetched, by site.",
		}, []string{"site"}),
		FetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_errors_total",
			Help:      "Failed page fetches, by site.",
		}, []string{"site"}),
		RecordsScraped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_scraped_total",
			Help:      "Content records extracted, by site.",
		}, []string{"site"}),
		RecordsDuplicate: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_duplicate_total",
			Help:      "Records dropped as duplicates.",
		}),
		ArticlesRewritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "articles_rewritten_total",
			Help:      "Articles produced by the rewriter.",
		}),
		ArticlesSEO: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "articles_seo_total",
			Help:      "Scored articles, by result (pass or fail).",
		}, []string{"result"}),
		ArticlesPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "articles_published_total",
			Help:      "Articles published, by backend.",
		}, []string{"backend"}),
		SEOScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "seo_score",
			Help:      "Distribution of SEO scores.",
			Buckets:   prometheus.LinearBuckets(10, 10, 10),
		}),
		logger: logger.With("component", "metrics"),
	}

	m.registry.MustRegister(
		m.PagesFetched,
		m.FetchErrors,
		m.RecordsScraped,
		m.RecordsDuplicate,
		m.ArticlesRewritten,
		m.ArticlesSEO,
		m.ArticlesPublished,
		m.SEOScore,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) PageFetched(site string) {
	if m != nil {
		m.PagesFetched.WithLabelValues(site).Inc()
	}
}

func (m *Metrics) FetchFailed(site string) {
	if m != nil {
		m.FetchErrors.WithLabelValues(site).Inc()
	}
}

func (m *Metrics) Scraped(site string, n int) {
	if m != nil && n > 0 {
		m.RecordsScraped.WithLabelValues(site).Add(float64(n))
	}
}

func (m *Metrics) Duplicates(n int) {
	if m != nil && n > 0 {
		m.RecordsDuplicate.Add(float64(n))
	}
}

func (m *Metrics) Rewritten() {
	if m != nil {
		m.ArticlesRewritten.Inc()
	}
}

// Scored records one SEO outcome.
func (m *Metrics) Scored(passed bool, score int) {
	if m == nil {
		return
	}
	result := "fail"
	if passed {
		result = "pass"
	}
	m.ArticlesSEO.WithLabelValues(result).Inc()
	m.SEOScore.Observe(float64(score))
}

func (m *Metrics) Published(backend string) {
	if m != nil {
		m.ArticlesPublished.WithLabelValues(backend).Inc()
	}
}

// Handler serves the registry in Prometheus text exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// StartServer starts the metrics HTTP server in the background.
func (m *Metrics) StartServer(port int, path string) error {
	if path == "" {
		path = "/metrics"
	}
	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	addr := fmt.Sprintf(":%d", port)
	m.logger.Info("metrics server starting", "addr", addr, "path", path)

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			m.logger.Error("metrics server error", "error", err)
		}
	}()

	return nil
}

// Snapshot returns the pipeline counters keyed by metric name without the
// namespace, with labels appended as name{label=value}. Runtime collector
// series are left out.
func (m *Metrics) Snapshot() map[string]float64 {
	out := make(map[string]float64)
	families, err := m.registry.Gather()
	if err != nil {
		m.logger.Warn("gather metrics", "error", err)
	}
	for _, mf := range families {
		name := mf.GetName()
		if !strings.HasPrefix(name, namespace+"_") {
			continue
		}
		short := strings.TrimPrefix(name, namespace+"_")
		for _, metric := range mf.GetMetric() {
			key := short
			if labels := metric.GetLabel(); len(labels) > 0 {
				parts := make([]string, len(labels))
				for i, l := range labels {
					parts[i] = l.GetName() + "=" + l.GetValue()
				}
				sort.Strings(parts)
				key += "{" + strings.Join(parts, ",") + "}"
			}
			switch {
			case metric.GetCounter() != nil:
				out[key] = metric.GetCounter().GetValue()
			case metric.GetHistogram() != nil:
				out[key+"_count"] = float64(metric.GetHistogram().GetSampleCount())
				out[key+"_sum"] = metric.GetHistogram().GetSampleSum()
			}
		}
	}
	return out
}
