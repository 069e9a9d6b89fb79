// Package metrics exposes Prometheus instrumentation for the HTTP API and
// post activity.
package metrics

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MKale112/devConnector/internal/events"
)

type Metrics struct {
	reg      *prometheus.Registry
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	activity *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "devconnector",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code",
		}, []string{"route", "code"}),
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "devconnector",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		activity: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "devconnector",
			Subsystem: "posts",
			Name:      "activity_total",
			Help:      "Post activity events by type",
		}, []string{"type"}),
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.code = code
	s.ResponseWriter.WriteHeader(code)
}

// Instrument counts and times requests to h under the route label and logs
// each one.
func (m *Metrics) Instrument(route string, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		h.ServeHTTP(rec, r)
		d := time.Since(start)
		m.requests.WithLabelValues(route, strconv.Itoa(rec.code)).Inc()
		m.latency.WithLabelValues(route).Observe(d.Seconds())
		slog.InfoContext(r.Context(), "http request",
			"method", r.Method, "route", route, "path", r.URL.Path, "status", rec.code, "duration", d)
	})
}

type countingPublisher struct {
	events.Publisher
	m *Metrics
}

// CountActivity wraps p so every published event is counted by type.
func (m *Metrics) CountActivity(p events.Publisher) events.Publisher {
	return &countingPublisher{Publisher: p, m: m}
}

func (c *countingPublisher) Publish(ctx context.Context, e events.Event) error {
	c.m.activity.WithLabelValues(e.Type).Inc()
	return c.Publisher.Publish(ctx, e)
}
