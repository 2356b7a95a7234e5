package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metrics are kept per server so that several servers, e.g. in tests, do
// not share counters.
type metrics struct {
	registry        *prometheus.Registry
	refreshes       *prometheus.CounterVec
	refreshDuration *prometheus.HistogramVec
	presets         *prometheus.GaugeVec
	setupRequests   *prometheus.CounterVec
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flexpreset",
			Name:      "repository_refreshes_total",
			Help:      "Repository refreshes by result.",
		}, []string{"repository", "result"}),
		refreshDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "flexpreset",
			Name:      "repository_refresh_duration_seconds",
			Help:      "Time taken to refresh a repository.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"repository"}),
		presets: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "flexpreset",
			Name:      "repository_presets",
			Help:      "Number of preset files held by a repository.",
		}, []string{"repository"}),
		setupRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flexpreset",
			Name:      "setup_resolutions_total",
			Help:      "Preset resolutions served by result.",
		}, []string{"repository", "result"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.refreshes,
		m.refreshDuration,
		m.presets,
		m.setupRequests,
	)
	return m
}

func (m *metrics) observeRefresh(repository string, took time.Duration, presets int, err error) {
	m.refreshDuration.WithLabelValues(repository).Observe(took.Seconds())
	if err != nil {
		m.refreshes.WithLabelValues(repository, "error").Inc()
		return
	}
	m.refreshes.WithLabelValues(repository, "success").Inc()
	m.presets.WithLabelValues(repository).Set(float64(presets))
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
