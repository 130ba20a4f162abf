package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	appointmentsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "barberbot",
			Name:      "appointments_created_total",
			Help:      "Count of appointments successfully booked.",
		},
	)

	appointmentTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "barberbot",
			Name:      "appointment_transitions_total",
			Help:      "Count of appointment status transitions by target status.",
		},
		[]string{"status"},
	)

	reservationConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "barberbot",
			Name:      "reservation_conflicts_total",
			Help:      "Count of reserve attempts lost to an unavailable slot.",
		},
	)

	notificationsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "barberbot",
			Name:      "notifications_sent_total",
			Help:      "Count of notification sends by outcome.",
		},
		[]string{"outcome"},
	)

	remindersSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "barberbot",
			Name:      "reminders_sent_total",
			Help:      "Count of appointment reminders sent.",
		},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			appointmentsCreated,
			appointmentTransitions,
			reservationConflicts,
			notificationsSent,
			remindersSent,
		)
	})
}

func IncAppointmentCreated() {
	appointmentsCreated.Inc()
}

func IncTransition(status string) {
	appointmentTransitions.WithLabelValues(status).Inc()
}

func IncReservationConflict() {
	reservationConflicts.Inc()
}

func IncNotificationSent(outcome string) {
	notificationsSent.WithLabelValues(outcome).Inc()
}

func IncReminderSent() {
	remindersSent.Inc()
}
