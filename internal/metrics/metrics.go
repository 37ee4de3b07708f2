// Package metrics exposes Prometheus collectors for the dev server and the
// generator.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors registered on one registry.
type Metrics struct {
	registry            *prometheus.Registry
	LanguageResolutions *prometheus.CounterVec
	ThemeResolutions    *prometheus.CounterVec
	Requests            *prometheus.CounterVec
	GeneratedPages      prometheus.Gauge
}

// New creates collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		LanguageResolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hblog_language_resolutions_total",
			Help: "Language resolutions by deciding signal.",
		}, []string{"source", "language"}),
		ThemeResolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hblog_theme_resolutions_total",
			Help: "Theme resolutions by deciding signal.",
		}, []string{"source", "theme"}),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hblog_http_requests_total",
			Help: "HTTP requests by route kind and status.",
		}, []string{"kind", "status"}),
		GeneratedPages: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hblog_generated_pages",
			Help: "HTML pages produced by the last build.",
		}),
	}
	m.registry.MustRegister(m.LanguageResolutions, m.ThemeResolutions, m.Requests, m.GeneratedPages)
	return m
}

// Language counts a language resolution.
func (m *Metrics) Language(source, lang string) {
	if m == nil {
		return
	}
	m.LanguageResolutions.WithLabelValues(source, lang).Inc()
}

// Theme counts a theme resolution.
func (m *Metrics) Theme(source, theme string) {
	if m == nil {
		return
	}
	m.ThemeResolutions.WithLabelValues(source, theme).Inc()
}

// Request counts a served request.
func (m *Metrics) Request(kind string, status int) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(kind, strconv.Itoa(status)).Inc()
}

// Pages records the page count of a build.
func (m *Metrics) Pages(n int) {
	if m == nil {
		return
	}
	m.GeneratedPages.Set(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
