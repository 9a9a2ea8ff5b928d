package obs

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private Prometheus registry for HTTP, bus and outbox series.
type Metrics struct {
	registry     *prometheus.Registry
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	busMessages  *prometheus.CounterVec
	busDuration  *prometheus.HistogramVec
	outbox       *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pricing",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pricing",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		busMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pricing",
			Name:      "bus_messages_total",
			Help:      "Commands and queries handled, by outcome.",
		}, []string{"kind", "key", "outcome"}),
		busDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pricing",
			Name:      "bus_message_duration_seconds",
			Help:      "Command and query handling latency.",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		}, []string{"kind", "key"}),
		outbox: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pricing",
			Name:      "outbox_publish_total",
			Help:      "Outbox relay attempts by topic and outcome.",
		}, []string{"topic", "outcome"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests, m.httpDuration, m.busMessages, m.busDuration, m.outbox,
	)
	return m
}

func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveMessage(kind, key string, elapsed time.Duration, err error) {
	m.busMessages.WithLabelValues(kind, key, outcome(err)).Inc()
	m.busDuration.WithLabelValues(kind, key).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveOutbox(topic string, err error) {
	m.outbox.WithLabelValues(topic, outcome(err)).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
