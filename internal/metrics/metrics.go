package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	bookingCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "barbershop",
			Name:      "bookings_created_total",
			Help:      "Count of confirmed bookings.",
		},
	)

	bookingCancelled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "barbershop",
			Name:      "bookings_cancelled_total",
			Help:      "Count of bookings cancelled by customers.",
		},
	)

	inputRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "barbershop",
			Name:      "input_rejected_total",
			Help:      "Count of customer inputs rejected with a re-prompt, by reason.",
		},
		[]string{"reason"},
	)

	handlerErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "barbershop",
			Name:      "handler_errors_total",
			Help:      "Count of updates whose handling failed.",
		},
	)
)

// Rejection reasons.
const (
	ReasonEmptyName    = "empty_name"
	ReasonTimeFormat   = "time_format"
	ReasonOutsideHours = "outside_hours"
	ReasonNoBooking    = "nothing_to_cancel"
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(bookingCreated, bookingCancelled, inputRejected, handlerErrors)
	})
}

func IncBookingCreated() {
	bookingCreated.Inc()
}

func IncBookingCancelled() {
	bookingCancelled.Inc()
}

func IncInputRejected(reason string) {
	inputRejected.WithLabelValues(reason).Inc()
}

func IncHandlerError() {
	handlerErrors.Inc()
}
