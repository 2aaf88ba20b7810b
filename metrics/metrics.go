// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registration outcomes
const (
	OutcomeCreated = "created"
	OutcomeInvalid = "invalid"
	OutcomeFailed  = "failed"
)

type Metrics struct {
	Registry      *prometheus.Registry
	Requests      *prometheus.CounterVec
	Latency       *prometheus.HistogramVec
	Registrations *prometheus.CounterVec
	Students      prometheus.Counter
	RateLimited   prometheus.Counter
}

// New registers the collectors on a private registry, so tests can build
// as many as they like.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sciencefair_http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		Latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sciencefair_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		Registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sciencefair_registrations_total",
			Help: "Registration attempts by outcome.",
		}, []string{"outcome"}),
		Students: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sciencefair_registered_students_total",
			Help: "Students included in successful registrations.",
		}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sciencefair_rate_limited_total",
			Help: "Requests rejected by the registration rate limit.",
		}),
	}
	m.Registry.MustRegister(
		m.Requests, m.Latency, m.Registrations, m.Students, m.RateLimited,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
