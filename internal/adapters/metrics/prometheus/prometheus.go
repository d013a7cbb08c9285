package prometheus

import (
	"context"
	"net/http"
	"simplefilehost/internal/core/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "simplefilehost"

// Sink turns session events into prometheus metrics
type Sink struct {
	registry         *prometheus.Registry
	sessionsTotal    *prometheus.CounterVec
	connectionsTotal prometheus.Counter
	transfersTotal   *prometheus.CounterVec
	transferredBytes *prometheus.CounterVec
	transferDuration *prometheus.HistogramVec
	activeSessions   prometheus.Gauge
}

// NewSink creates a Sink with its own registry
func NewSink() *Sink {
	s := &Sink{
		registry: prometheus.NewRegistry(),
		sessionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Sessions started, by mode.",
		}, []string{"mode"}),
		connectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_total",
			Help:      "Client connections accepted.",
		}),
		transfersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transfers_total",
			Help:      "Finished transfers, by mode and result.",
		}, []string{"mode", "result"}),
		transferredBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transferred_bytes_total",
			Help:      "Payload bytes of successful transfers.",
		}, []string{"mode"}),
		transferDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transfer_duration_seconds",
			Help:      "Duration of successful transfers.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
		}, []string{"mode"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Sessions currently running.",
		}),
	}

	s.registry.MustRegister(
		s.sessionsTotal,
		s.connectionsTotal,
		s.transfersTotal,
		s.transferredBytes,
		s.transferDuration,
		s.activeSessions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return s
}

func (s *Sink) Publish(_ context.Context, ev domain.Event) {
	mode := string(ev.Mode)
	switch ev.Type {
	case domain.EventSessionStarted:
		s.sessionsTotal.WithLabelValues(mode).Inc()
		s.activeSessions.Inc()
	case domain.EventSessionStopped:
		s.activeSessions.Dec()
	case domain.EventClientConnected:
		s.connectionsTotal.Inc()
	case domain.EventTransferCompleted:
		s.transfersTotal.WithLabelValues(mode, "success").Inc()
		s.transferredBytes.WithLabelValues(mode).Add(float64(ev.Bytes))
		s.transferDuration.WithLabelValues(mode).Observe(ev.Duration.Seconds())
	case domain.EventTransferFailed:
		s.transfersTotal.WithLabelValues(mode, "failure").Inc()
	}
}

// Handler serves the registry in the prometheus exposition format
func (s *Sink) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry})
}

// Registry exposes the underlying registry
func (s *Sink) Registry() *prometheus.Registry {
	return s.registry
}
