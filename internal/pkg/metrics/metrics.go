// Package metrics exposes Prometheus counters for attendance activity.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all application metrics.
type Registry struct {
	registry *prometheus.Registry

	Redemptions     *prometheus.CounterVec
	TokensIssued    prometheus.Counter
	SessionsStarted prometheus.Counter
	SessionsEnded   prometheus.Counter
	ManualMarks     *prometheus.CounterVec

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// NewRegistry creates metrics on a private registry.
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
		Redemptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "attendance",
			Name:      "redemptions_total",
			Help:      "QR token redemptions by outcome.",
		}, []string{"outcome"}),
		TokensIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "attendance",
			Name:      "tokens_issued_total",
			Help:      "Signed QR tokens issued.",
		}),
		SessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "attendance",
			Name:      "sessions_started_total",
			Help:      "Attendance sessions started.",
		}),
		SessionsEnded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "attendance",
			Name:      "sessions_ended_total",
			Help:      "Attendance sessions ended.",
		}),
		ManualMarks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "attendance",
			Name:      "manual_marks_total",
			Help:      "Manual mark and unmark operations by outcome.",
		}, []string{"action", "outcome"}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.Redemptions,
		r.TokensIssued,
		r.SessionsStarted,
		r.SessionsEnded,
		r.ManualMarks,
		r.RequestsTotal,
		r.RequestDuration,
	)
	return r
}

// ObserveRedemption counts one redemption outcome. Safe on a nil registry.
func (r *Registry) ObserveRedemption(outcome string) {
	if r == nil {
		return
	}
	r.Redemptions.WithLabelValues(outcome).Inc()
}

// ObserveManual counts a manual mark or unmark. Safe on a nil registry.
func (r *Registry) ObserveManual(action, outcome string) {
	if r == nil {
		return
	}
	r.ManualMarks.WithLabelValues(action, outcome).Inc()
}

// IncTokensIssued counts an issued token. Safe on a nil registry.
func (r *Registry) IncTokensIssued() {
	if r == nil {
		return
	}
	r.TokensIssued.Inc()
}

// IncSessionsStarted counts a started session. Safe on a nil registry.
func (r *Registry) IncSessionsStarted() {
	if r == nil {
		return
	}
	r.SessionsStarted.Inc()
}

// IncSessionsEnded counts an ended session. Safe on a nil registry.
func (r *Registry) IncSessionsEnded() {
	if r == nil {
		return
	}
	r.SessionsEnded.Inc()
}

// Handler serves the registry in the Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// GinMiddleware records request counts and latency per matched route.
func (r *Registry) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		r.RequestsTotal.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		r.RequestDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}
