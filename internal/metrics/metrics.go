package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Refresh outcomes recorded by the auth controller.
const (
	RefreshSuccess  = "success"
	RefreshRejected = "rejected"
	RefreshFailed   = "failed"
	RefreshNoToken  = "no_token"
)

// Metrics holds the client-side collectors. A nil *Metrics is valid and
// records nothing, so callers never need to guard.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RefreshTotal    *prometheus.CounterVec
	SessionExpired  prometheus.Counter
}

// New creates the collectors and registers them with reg. Passing nil uses
// prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "api_client_requests_total",
				Help: "Total number of backend API requests",
			},
			[]string{"method", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "api_client_request_duration_seconds",
				Help:    "Backend API request latency in seconds",
				Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method"},
		),
		RefreshTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_refresh_total",
				Help: "Access token refresh attempts by outcome",
			},
			[]string{"outcome"},
		),
		SessionExpired: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "auth_session_expired_total",
				Help: "Sessions downgraded to anonymous after an unrecoverable 401",
			},
		),
	}
	reg.MustRegister(m.RequestsTotal, m.RequestDuration, m.RefreshTotal, m.SessionExpired)
	return m
}

// ObserveRequest records one HTTP round trip. status is 0 for transport failures.
func (m *Metrics) ObserveRequest(method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.RequestsTotal.WithLabelValues(method, label).Inc()
	m.RequestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveRefresh(outcome string) {
	if m == nil {
		return
	}
	m.RefreshTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveSessionExpired() {
	if m == nil {
		return
	}
	m.SessionExpired.Inc()
}
