package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Booking("ok", 2)
		m.GoLive("instant")
		m.StreamEnded("dj")
		m.Takeover("approved")
		m.ProbeFailed()
		m.Swept("slots", 3)
		m.SetLive(true)
	})
}

func TestCounters(t *testing.T) {
	m := New()

	m.Booking("ok", 2)
	m.GoLive("scheduled")
	m.Swept("takeovers", 0)
	m.Swept("slots", 2)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.bookingsTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.goLivesTotal.WithLabelValues("scheduled")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.liveSlots))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.sweptTotal.WithLabelValues("slots")))

	m.SetLive(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.liveSlots))
}

func TestRequestMiddleware(t *testing.T) {
	m := New()
	h := RequestMiddleware(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "2xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "4xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errorsTotal))
}

func TestHandler(t *testing.T) {
	m := New()
	refreshed := false
	m.StreamEnded("sweep")

	rec := httptest.NewRecorder()
	m.Handler(func() { refreshed = true }).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.True(t, refreshed)
	assert.Contains(t, string(body), `freshwax_streams_ended_total{cause="sweep"} 1`)
}
