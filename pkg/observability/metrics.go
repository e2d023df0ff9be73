package observability

import (
	"context"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the dispatcher collectors.
type Metrics struct {
	dispatches *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	inflight   *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		dispatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lattice_dispatch_total",
				Help: "Total number of grid calls by outcome",
			},
			[]string{"grid", "method", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lattice_dispatch_duration_seconds",
				Help:    "Duration of grid calls",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"grid", "method"},
		),
		inflight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "lattice_dispatch_inflight",
				Help: "Grid calls currently being handled",
			},
			[]string{"grid"},
		),
	}
	for _, c := range []prometheus.Collector{m.dispatches, m.duration, m.inflight} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks feeding the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnDispatch: func(ctx context.Context, e *domain.DispatchEvent) {
			m.inflight.WithLabelValues(e.Grid).Inc()
		},
		OnComplete: func(ctx context.Context, e *domain.DispatchEvent) {
			method := methodLabel(e.Method)
			m.inflight.WithLabelValues(e.Grid).Dec()
			m.dispatches.WithLabelValues(e.Grid, method, string(e.Outcome)).Inc()
			m.duration.WithLabelValues(e.Grid, method).Observe(e.Duration.Seconds())
		},
	}
}

// methodLabel bounds label cardinality: clients choose method names.
func methodLabel(raw string) string {
	switch {
	case raw == "":
		return "missing"
	case domain.ParseMethod(raw) == domain.MethodUnknown:
		return "unknown"
	}
	return raw
}
