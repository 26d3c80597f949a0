package metric

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "aox"

// Request outcomes.
const (
	OutcomeOK          = "ok"
	OutcomeTransport   = "transport_error"
	OutcomeBusiness    = "business_error"
	OutcomeAuthExpired = "auth_expired"
)

// Redirect results.
const (
	RedirectIssued     = "issued"
	RedirectSuppressed = "suppressed"
)

// Registry holds all client metrics on a private prometheus registry.
type Registry struct {
	registry *prometheus.Registry

	RequestsTotal      *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
	AuthExpired        prometheus.Counter
	LoginRedirects     *prometheus.CounterVec
	SessionTransitions *prometheus.CounterVec
}

// NewRegistry creates and registers all client metrics.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "API requests issued, by method and outcome.",
		}, []string{"method", "outcome"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "API request latency until the envelope is classified.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		AuthExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_expired_total",
			Help:      "Responses classified as authentication expiry.",
		}),
		LoginRedirects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_redirects_total",
			Help:      "Login redirects after expiry, issued or suppressed by the cooldown gate.",
		}, []string{"result"}),
		SessionTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_transitions_total",
			Help:      "Session store transitions by event.",
		}, []string{"event"}),
	}

	reg.MustRegister(
		r.RequestsTotal,
		r.RequestDuration,
		r.AuthExpired,
		r.LoginRedirects,
		r.SessionTransitions,
	)
	return r
}

// ObserveRequest records one classified request.
func (r *Registry) ObserveRequest(method, outcome string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.RequestsTotal.WithLabelValues(method, outcome).Inc()
	r.RequestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
	if outcome == OutcomeAuthExpired {
		r.AuthExpired.Inc()
	}
}

// ObserveRedirect records whether the gate let a login redirect through.
func (r *Registry) ObserveRedirect(issued bool) {
	if r == nil {
		return
	}
	result := RedirectSuppressed
	if issued {
		result = RedirectIssued
	}
	r.LoginRedirects.WithLabelValues(result).Inc()
}

// ObserveSession records a session store transition (login, clear, ...).
func (r *Registry) ObserveSession(event string) {
	if r == nil {
		return
	}
	r.SessionTransitions.WithLabelValues(event).Inc()
}

// Gatherer exposes the underlying registry.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Handler returns an HTTP handler for a /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// WriteFile dumps the current values in text exposition format.
func (r *Registry) WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
