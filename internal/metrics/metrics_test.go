package metrics_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/storefront-client/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Observe(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	m.ObserveRequest("GET", 200, 20*time.Millisecond)
	m.ObserveRequest("GET", 200, 30*time.Millisecond)
	m.ObserveRequest("POST", 0, time.Millisecond)
	m.ObserveRefresh(metrics.RefreshSuccess)
	m.ObserveSessionExpired()

	require.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "200")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("POST", "error")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.RefreshTotal.WithLabelValues(metrics.RefreshSuccess)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.SessionExpired))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *metrics.Metrics
	require.NotPanics(t, func() {
		m.ObserveRequest("GET", 500, time.Second)
		m.ObserveRefresh(metrics.RefreshFailed)
		m.ObserveSessionExpired()
	})
}
