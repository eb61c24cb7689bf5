package booking

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	bookingsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "safari_bookings_created_total",
		Help: "Bookings created, by reservation type.",
	}, []string{"reservation_type"})

	bookingTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "safari_booking_transitions_total",
		Help: "Booking status changes, by target status.",
	}, []string{"status"})
)
