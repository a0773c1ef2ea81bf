package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "quickshow"

var (
	BookingsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bookings_created_total",
		Help:      "Bookings whose seats were reserved.",
	})
	BookingsPaid = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bookings_paid_total",
		Help:      "Bookings that transitioned to paid.",
	})
	BookingsReclaimed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bookings_reclaimed_total",
		Help:      "Unpaid bookings deleted and their seats released.",
	})
	SeatConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "seat_conflicts_total",
		Help:      "Booking attempts rejected because a seat was already held.",
	})
	NotificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_sent_total",
		Help:      "Emails handed to the mail transport.",
	}, []string{"kind"})
)
