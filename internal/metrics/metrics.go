package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the booking service.
// A nil *Metrics records nothing.
type Metrics struct {
	registry       *prometheus.Registry
	bookingsTotal  *prometheus.CounterVec
	goLivesTotal   *prometheus.CounterVec
	streamsEnded   *prometheus.CounterVec
	takeoversTotal *prometheus.CounterVec
	probeFailures  prometheus.Counter
	sweptTotal     *prometheus.CounterVec
	liveSlots      prometheus.Gauge
	requestsTotal  *prometheus.CounterVec
	errorsTotal    prometheus.Counter
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "freshwax_bookings_total",
			Help: "Booking attempts by outcome",
		}, []string{"outcome"}),
		goLivesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "freshwax_go_lives_total",
			Help: "Successful go-live transitions by path (scheduled or instant)",
		}, []string{"path"}),
		streamsEnded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "freshwax_streams_ended_total",
			Help: "Slots moved to completed, by cause",
		}, []string{"cause"}),
		takeoversTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "freshwax_takeovers_total",
			Help: "Takeover requests by resulting status",
		}, []string{"status"}),
		probeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "freshwax_probe_failures_total",
			Help: "HLS liveness probes that did not find a playlist",
		}),
		sweptTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "freshwax_swept_total",
			Help: "Records changed by the expiry sweeps",
		}, []string{"kind"}),
		liveSlots: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "freshwax_live_slots",
			Help: "Number of slots currently live (0 or 1)",
		}),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "freshwax_http_requests_total",
			Help: "HTTP requests by method and status class",
		}, []string{"method", "code"}),
		errorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "freshwax_http_errors_total",
			Help: "HTTP responses with status >= 400",
		}),
	}

	registry.MustRegister(
		m.bookingsTotal,
		m.goLivesTotal,
		m.streamsEnded,
		m.takeoversTotal,
		m.probeFailures,
		m.sweptTotal,
		m.liveSlots,
		m.requestsTotal,
		m.errorsTotal,
	)
	return m
}

// Booking records a booking attempt; outcome is "ok" or an error kind.
func (m *Metrics) Booking(outcome string, slots int) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(outcome).Add(float64(max(slots, 1)))
}

func (m *Metrics) GoLive(path string) {
	if m == nil {
		return
	}
	m.goLivesTotal.WithLabelValues(path).Inc()
	m.liveSlots.Set(1)
}

func (m *Metrics) StreamEnded(cause string) {
	if m == nil {
		return
	}
	m.streamsEnded.WithLabelValues(cause).Inc()
}

func (m *Metrics) Takeover(status string) {
	if m == nil {
		return
	}
	m.takeoversTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) ProbeFailed() {
	if m == nil {
		return
	}
	m.probeFailures.Inc()
}

func (m *Metrics) Swept(kind string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.sweptTotal.WithLabelValues(kind).Add(float64(n))
}

// SetLive sets the live gauge, usually from a fresh store read.
func (m *Metrics) SetLive(live bool) {
	if m == nil {
		return
	}
	if live {
		m.liveSlots.Set(1)
	} else {
		m.liveSlots.Set(0)
	}
}

// Handler serves the registry. refresh runs before each scrape.
func (m *Metrics) Handler(refresh func()) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if refresh != nil {
			refresh()
		}
		promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}
