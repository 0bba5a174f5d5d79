package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// TwitchMetrics holds Prometheus metrics for outbound Twitch API traffic.
type TwitchMetrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// NewTwitchMetrics creates and registers Twitch client metrics on the given registry.
func NewTwitchMetrics(reg prometheus.Registerer) *TwitchMetrics {
	m := &TwitchMetrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "twitch",
			Name:      "requests_total",
			Help:      "Total number of outbound Twitch API requests.",
		}, []string{"method", "host", "status_code"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "twitch",
			Name:      "request_duration_seconds",
			Help:      "Duration of outbound Twitch API requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "host"}),
	}

	reg.MustRegister(m.RequestsTotal, m.RequestDuration)
	return m
}

// Transport wraps an http.RoundTripper with request counting and timing.
// A nil base uses http.DefaultTransport.
func (m *TwitchMetrics) Transport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &instrumentedTransport{base: base, metrics: m}
}

type instrumentedTransport struct {
	base    http.RoundTripper
	metrics *TwitchMetrics
}

func (t *instrumentedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	timer := prometheus.NewTimer(
		t.metrics.RequestDuration.WithLabelValues(req.Method, req.URL.Host))
	defer timer.ObserveDuration()

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		t.metrics.RequestsTotal.WithLabelValues(req.Method, req.URL.Host, "error").Inc()
		return nil, err
	}

	t.metrics.RequestsTotal.WithLabelValues(req.Method, req.URL.Host, strconv.Itoa(resp.StatusCode)).Inc()
	return resp, nil
}
