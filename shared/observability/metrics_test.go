package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecordDeliveryByOutcome(t *testing.T) {
	before := testutil.ToFloat64(deliveries.WithLabelValues("reminder", "failed"))
	RecordDelivery("reminder", "failed")
	RecordDelivery("reminder", "failed")
	require.Equal(t, before+2, testutil.ToFloat64(deliveries.WithLabelValues("reminder", "failed")))
}

func TestRecordRemindersCreatedIgnoresZero(t *testing.T) {
	before := testutil.ToFloat64(remindersCreated)
	RecordRemindersCreated(0)
	RecordRemindersCreated(3)
	require.Equal(t, before+3, testutil.ToFloat64(remindersCreated))
}

func TestRecordAuditDropped(t *testing.T) {
	before := testutil.ToFloat64(auditDropped.WithLabelValues("queue_full"))
	RecordAuditDropped("queue_full")
	require.Equal(t, before+1, testutil.ToFloat64(auditDropped.WithLabelValues("queue_full")))
}

func TestRecordAuditFailureUnreported(t *testing.T) {
	before := testutil.ToFloat64(auditFailuresUnreported)
	RecordAuditFailureUnreported()
	require.Equal(t, before+1, testutil.ToFloat64(auditFailuresUnreported))
}
