// Package metrics exposes the Prometheus collectors shared by the API and the
// reminder worker. Collectors are registered on the default registry and
// served by promhttp in each binary's main.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AssignmentsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ruachconnect_mentor_assignments_total",
		Help: "Mentor assignments performed, initial and reassignments.",
	})

	UnassignedIntakesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ruachconnect_unassigned_intakes_total",
		Help: "Person creations that found no mentor under the caseload cap.",
	})

	NotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ruachconnect_notifications_total",
		Help: "Notifications persisted, by type.",
	}, []string{"type"})

	NotificationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ruachconnect_notification_failures_total",
		Help: "Notification emissions that failed and were dropped (primary operation unaffected).",
	})

	ReminderPassesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ruachconnect_reminder_passes_total",
		Help: "Completed reminder scheduler passes.",
	})

	RemindersSkippedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ruachconnect_reminders_skipped_total",
		Help: "Reminders suppressed by the duplicate guard.",
	})
)
