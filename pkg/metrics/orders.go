package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics records counters for the order lifecycle.
type OrderMetrics struct {
	created       *prometheus.CounterVec
	transitions   *prometheus.CounterVec
	verifications *prometheus.CounterVec
	fanoutErrors  prometheus.Counter
	createLatency prometheus.Histogram
}

// NewOrderMetrics registers the order lifecycle metrics on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	created := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders created, labeled by payment method.",
	}, []string{"payment_method"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_transitions_total",
		Help: "Applied order status transitions.",
	}, []string{"from", "to"})
	verifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_verifications_total",
		Help: "Payment signature verification attempts by result.",
	}, []string{"result"})
	fanoutErrors := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notification_fanout_failures_total",
		Help: "Notification writes that failed during order fan-out.",
	})
	createLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "order_create_duration_seconds",
		Help:    "Duration of order creation in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(created, transitions, verifications, fanoutErrors, createLatency)
	return &OrderMetrics{
		created:       created,
		transitions:   transitions,
		verifications: verifications,
		fanoutErrors:  fanoutErrors,
		createLatency: createLatency,
	}
}

// IncCreated increments the creation counter for the given payment method.
func (m *OrderMetrics) IncCreated(paymentMethod string) {
	if m == nil || m.created == nil {
		return
	}
	m.created.WithLabelValues(normalizeLabel(paymentMethod)).Inc()
}

// IncTransition increments the transition counter for the applied edge.
func (m *OrderMetrics) IncTransition(from, to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

// IncVerification increments the verification counter for the given result.
func (m *OrderMetrics) IncVerification(result string) {
	if m == nil || m.verifications == nil {
		return
	}
	m.verifications.WithLabelValues(normalizeLabel(result)).Inc()
}

// IncFanoutFailure increments the notification fan-out failure counter.
func (m *OrderMetrics) IncFanoutFailure() {
	if m == nil || m.fanoutErrors == nil {
		return
	}
	m.fanoutErrors.Inc()
}

// ObserveCreateDuration records how long an order creation took.
func (m *OrderMetrics) ObserveCreateDuration(duration time.Duration) {
	if m == nil || m.createLatency == nil {
		return
	}
	m.createLatency.Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
