package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCountAuthOutcomes(t *testing.T) {
	t.Parallel()

	m := NewMetrics()
	m.ObserveAuth("login", "success")
	m.ObserveAuth("login", "CREDENTIAL_ERROR")
	m.ObserveAuth("login", "CREDENTIAL_ERROR")

	assert.InDelta(t, 2, testutil.ToFloat64(m.authOutcomes.WithLabelValues("login", "CREDENTIAL_ERROR")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.authOutcomes.WithLabelValues("login", "success")), 0)
}

func TestMetricsHandlerExposesCollectors(t *testing.T) {
	t.Parallel()

	m := NewMetrics()
	m.ObserveRequest(http.MethodPost, "/api/v1/login", http.StatusOK, 15*time.Millisecond)
	m.ObserveOutbox("published", 3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "tshirtstore_http_request_duration_seconds")
	assert.Contains(t, string(body), "tshirtstore_outbox_events_total")
}

func TestNilMetricsIsSafe(t *testing.T) {
	t.Parallel()

	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveAuth("login", "success")
		m.ObserveRequest(http.MethodGet, "/", http.StatusOK, time.Millisecond)
		m.ObserveOutbox("failed", 1)
	})
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
