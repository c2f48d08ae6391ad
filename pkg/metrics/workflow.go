package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Workflow records repair request lifecycle activity.
type Workflow struct {
	transitions   *prometheus.CounterVec
	emailFailures *prometheus.CounterVec
	reservation   *prometheus.HistogramVec
}

// NewWorkflow registers the workflow collectors on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewWorkflow(reg prometheus.Registerer) *Workflow {
	if reg == nil {
		return &Workflow{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "repair_request_transitions_total",
		Help: "Committed repair request status transitions.",
	}, []string{"operation", "from", "to"})
	emailFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_email_failures_total",
		Help: "Notification emails that could not be delivered.",
	}, []string{"event"})
	reservation := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "component_reservation_duration_seconds",
		Help:    "Time spent reserving component stock inside a transaction.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	reg.MustRegister(transitions, emailFailures, reservation)
	return &Workflow{
		transitions:   transitions,
		emailFailures: emailFailures,
		reservation:   reservation,
	}
}

// IncTransition counts a committed transition.
func (w *Workflow) IncTransition(operation, from, to string) {
	if w == nil || w.transitions == nil {
		return
	}
	w.transitions.WithLabelValues(normalizeLabel(operation), normalizeLabel(from), normalizeLabel(to)).Inc()
}

// IncEmailFailure counts a failed notification email for the event.
func (w *Workflow) IncEmailFailure(event string) {
	if w == nil || w.emailFailures == nil {
		return
	}
	w.emailFailures.WithLabelValues(normalizeLabel(event)).Inc()
}

// ObserveReservation records how long a stock reservation took.
func (w *Workflow) ObserveReservation(duration time.Duration, err error) {
	if w == nil || w.reservation == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	w.reservation.WithLabelValues(outcome).Observe(duration.Seconds())
}

// Handler exposes the gatherer in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
