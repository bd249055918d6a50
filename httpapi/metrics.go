package httpapi

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of one server. A nil *Metrics
// records nothing.
type Metrics struct {
	registry *prometheus.Registry
	commands *prometheus.CounterVec
	events   *prometheus.CounterVec
	dropped  prometheus.Counter
	clients  *prometheus.GaugeVec
}

// NewMetrics registers the server collectors on a private registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tabula_commands_total",
				Help: "Commands handled, by command and HTTP status.",
			},
			[]string{"command", "status"},
		),
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tabula_display_events_total",
				Help: "Display events published to stream clients, by type.",
			},
			[]string{"type"},
		),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tabula_display_events_dropped_total",
			Help: "Display events not delivered to a slow stream subscriber.",
		}),
		clients: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tabula_stream_clients",
				Help: "Connected event stream clients, by transport.",
			},
			[]string{"transport"},
		),
	}
	registry.MustRegister(
		m.commands,
		m.events,
		m.dropped,
		m.clients,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) commandDone(command string, status int) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(command, strconv.Itoa(status)).Inc()
}

func (m *Metrics) eventPublished(eventType string, dropped int) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(eventType).Inc()
	if dropped > 0 {
		m.dropped.Add(float64(dropped))
	}
}

func (m *Metrics) clientOpened(transport string) {
	if m == nil {
		return
	}
	m.clients.WithLabelValues(transport).Inc()
}

func (m *Metrics) clientClosed(transport string) {
	if m == nil {
		return
	}
	m.clients.WithLabelValues(transport).Dec()
}
