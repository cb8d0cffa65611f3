package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "saferun"

// Collectors groups every metric the service exports. Build one per registry.
type Collectors struct {
	SweepPasses   prometheus.Counter
	SweepDuration prometheus.Histogram
	Escalations   *prometheus.CounterVec
	Deliveries    *prometheus.CounterVec
	Transitions   *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Collectors {
	factory := promauto.With(reg)
	return &Collectors{
		SweepPasses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "passes_total",
			Help:      "Completed overdue sweep passes",
		}),
		SweepDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "pass_duration_seconds",
			Help:      "Wall time of a single overdue sweep pass",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		}),
		Escalations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "escalations_total",
			Help:      "Overdue sessions handled by the sweeper, by outcome",
		}, []string{"outcome"}),
		Deliveries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "deliveries_total",
			Help:      "Notification attempts, by event kind and outcome",
		}, []string{"kind", "outcome"}),
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "transitions_total",
			Help:      "Committed session operations, by operation",
		}, []string{"operation"}),
	}
}

// ObservePass records one sweep. sent counts alerts that reached the gateway;
// failed counts claimed alerts that did not plus per-session errors.
func (c *Collectors) ObservePass(took time.Duration, sent, skipped, failed int) {
	c.SweepPasses.Inc()
	c.SweepDuration.Observe(took.Seconds())
	c.Escalations.WithLabelValues("sent").Add(float64(sent))
	c.Escalations.WithLabelValues("skipped").Add(float64(skipped))
	c.Escalations.WithLabelValues("failed").Add(float64(failed))
}

func (c *Collectors) ObserveDelivery(kind string, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "failed"
	}
	c.Deliveries.WithLabelValues(kind, outcome).Inc()
}

func (c *Collectors) ObserveTransition(operation string) {
	c.Transitions.WithLabelValues(operation).Inc()
}
