package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	remindersCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "gym_billing",
		Subsystem: "reminders",
		Name:      "created_total",
		Help:      "Reminders created by the expiry generator.",
	})
	deliveries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gym_billing",
		Subsystem: "notify",
		Name:      "deliveries_total",
		Help:      "Notification delivery attempts by kind and outcome.",
	}, []string{"kind", "outcome"})
	receiptsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "gym_billing",
		Subsystem: "receipts",
		Name:      "created_total",
		Help:      "Receipt numbers assigned.",
	})
	receiptConflicts = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "gym_billing",
		Subsystem: "receipts",
		Name:      "sequence_conflicts_total",
		Help:      "Receipt inserts retried after a uniqueness conflict.",
	})
	auditDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gym_billing",
		Subsystem: "audit",
		Name:      "dropped_total",
		Help:      "Activity log entries that were not persisted, by reason.",
	}, []string{"reason"})
	auditFailuresUnreported = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "gym_billing",
		Subsystem: "audit",
		Name:      "failure_reports_dropped_total",
		Help:      "Audit failures not delivered on the errors channel because it was full.",
	})
	reportsDegraded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gym_billing",
		Subsystem: "reports",
		Name:      "degraded_total",
		Help:      "Reports served with zeroed totals after an aggregation failure.",
	}, []string{"report"})
)

func init() {
	prometheus.MustRegister(remindersCreated, deliveries, receiptsCreated, receiptConflicts, auditDropped, auditFailuresUnreported, reportsDegraded)
}

// RecordRemindersCreated adds n generated reminders
func RecordRemindersCreated(n int) {
	if n > 0 {
		remindersCreated.Add(float64(n))
	}
}

// RecordDelivery counts one delivery attempt. kind is reminder or receipt,
// outcome is sent, failed or skipped.
func RecordDelivery(kind, outcome string) {
	deliveries.WithLabelValues(kind, outcome).Inc()
}

// RecordReceiptCreated counts an assigned receipt number
func RecordReceiptCreated() {
	receiptsCreated.Inc()
}

// RecordReceiptConflict counts a retried receipt insert
func RecordReceiptConflict() {
	receiptConflicts.Inc()
}

// RecordAuditDropped counts an activity entry that never reached a sink
func RecordAuditDropped(reason string) {
	auditDropped.WithLabelValues(reason).Inc()
}

// RecordAuditFailureUnreported counts a failure nobody drained from the errors channel
func RecordAuditFailureUnreported() {
	auditFailuresUnreported.Inc()
}

// RecordReportDegraded counts a report that fell back to zero totals
func RecordReportDegraded(report string) {
	reportsDegraded.WithLabelValues(report).Inc()
}
