package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Check-in outcomes.
const (
	OutcomeAdmitted       = "admitted"
	OutcomeAlreadyChecked = "already_checked_in"
	OutcomeNotFound       = "not_found"
	OutcomeError          = "error"
)

// Ticket dispatch outcomes.
const (
	TicketSent   = "sent"
	TicketFailed = "failed"
)

// Metrics provides observability for registration, ticketing and check-in.
type Metrics struct {
	Registrations   prometheus.Counter
	Rejections      *prometheus.CounterVec
	Tickets         *prometheus.CounterVec
	CheckIns        *prometheus.CounterVec
	CheckInDuration prometheus.Histogram
}

// New registers all metrics on reg. Pass prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Registrations: factory.NewCounter(prometheus.CounterOpts{
			Name: "eventticketing_registrations_total",
			Help: "Total number of accepted registrations",
		}),
		Rejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "eventticketing_registration_rejections_total",
			Help: "Registrations rejected by validation, by kind",
		}, []string{"kind"}),
		Tickets: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "eventticketing_tickets_total",
			Help: "Ticket dispatch attempts, by outcome",
		}, []string{"outcome"}),
		CheckIns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "eventticketing_check_ins_total",
			Help: "Check-in scans, by outcome",
		}, []string{"outcome"}),
		CheckInDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "eventticketing_check_in_duration_seconds",
			Help:    "Duration of check-in operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

func (m *Metrics) IncrementRegistration() {
	m.Registrations.Inc()
}

func (m *Metrics) IncrementRejection(kind string) {
	m.Rejections.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncrementTicket(outcome string) {
	m.Tickets.WithLabelValues(outcome).Inc()
}

// ObserveCheckIn records one scan. Call with time.Now() taken at the start of the operation.
func (m *Metrics) ObserveCheckIn(outcome string, start time.Time) {
	m.CheckIns.WithLabelValues(outcome).Inc()
	m.CheckInDuration.Observe(time.Since(start).Seconds())
}
