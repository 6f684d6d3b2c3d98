package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "govpub", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "govpub", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)

	// Transitions counts workflow transitions by kind and outcome
	// (ok, degraded, guard_violation, conflict, error).
	Transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "govpub", Name: "edition_transitions_total", Help: "Edition workflow transitions by kind and outcome."},
		[]string{"kind", "outcome"},
	)
	CollaboratorFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "govpub", Name: "collaborator_failures_total", Help: "Post-commit side effects that failed, by collaborator."},
		[]string{"collaborator"},
	)
	ScheduledPublications = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "govpub", Name: "scheduled_publications_total", Help: "Editions handled by the scheduled publication runner, by outcome."},
		[]string{"outcome"},
	)
	RemindersSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "govpub", Name: "reminders_sent_total", Help: "Deadline reminder deliveries by template and outcome."},
		[]string{"template", "outcome"},
	)
	TaskDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: "govpub", Name: "task_duration_seconds", Help: "Duration of periodic task runs.", Buckets: prometheus.DefBuckets},
		[]string{"task"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(Transitions)
	reg.MustRegister(CollaboratorFailures)
	reg.MustRegister(ScheduledPublications)
	reg.MustRegister(RemindersSent)
	reg.MustRegister(TaskDuration)
}
