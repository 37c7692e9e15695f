package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordReservationAttempt(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry(), "test")

	m.RecordReservationAttempt(OutcomeConfirmed)
	m.RecordReservationAttempt(OutcomeConfirmed)
	m.RecordReservationAttempt(OutcomeAlreadyBooked)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ReservationAttempts.WithLabelValues(OutcomeConfirmed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReservationAttempts.WithLabelValues(OutcomeAlreadyBooked)))
}

func TestNilMetricsAreNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordReservationAttempt(OutcomeDenied)
		m.RecordRetry("create")
		m.RecordCompleted("sweeper", 3)
	})
}
