package observability

import (
	"context"
	"net/http"

	"github.com/aretw0/crumbtrail/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "crumbtrail"

// Metrics holds the breadcrumb collectors.
type Metrics struct {
	registry *prometheus.Registry

	pushes      prometheus.Counter
	truncations prometheus.Counter
	dropped     prometheus.Counter
	removals    prometheus.Counter
	clears      prometheus.Counter
	depth       prometheus.Histogram
}

// NewMetrics registers the collectors on reg. A nil reg gets a fresh registry
// that also carries the Go runtime and process collectors.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			prometheus.NewGoCollector(),
			prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		)
	}
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		pushes: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pushes_total",
			Help:      "Crumbs pushed onto a trail.",
		}),
		truncations: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "truncations_total",
			Help:      "Pushes that revisited a page and cut the trail back.",
		}),
		dropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "crumbs_dropped_total",
			Help:      "Crumbs discarded by truncation.",
		}),
		removals: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "removals_total",
			Help:      "Crumbs removed because their page failed.",
		}),
		clears: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clears_total",
			Help:      "Trails cleared.",
		}),
		depth: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "trail_depth",
			Help:      "Trail length after each push.",
			Buckets:   prometheus.LinearBuckets(1, 1, 10),
		}),
	}
}

// Hooks returns tracker hooks feeding the collectors.
func (m *Metrics) Hooks() domain.Hooks {
	return domain.Hooks{
		OnPush: func(_ context.Context, e *domain.CrumbEvent) {
			m.pushes.Inc()
			m.depth.Observe(float64(e.Depth))
		},
		OnTruncate: func(_ context.Context, e *domain.CrumbEvent) {
			m.truncations.Inc()
			m.dropped.Add(float64(e.Dropped))
		},
		OnRemove: func(context.Context, *domain.CrumbEvent) {
			m.removals.Inc()
		},
		OnClear: func(context.Context, *domain.CrumbEvent) {
			m.clears.Inc()
		},
	}
}

// Registry returns the registry the collectors live in.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
