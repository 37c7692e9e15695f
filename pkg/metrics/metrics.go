package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics набор prometheus метрик сервиса
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	DBQueryDuration   *prometheus.HistogramVec
	DBQueryErrors     *prometheus.CounterVec
	DBOpenConnections *prometheus.GaugeVec
	DBInUse           *prometheus.GaugeVec
	DBIdle            *prometheus.GaugeVec
	DBWaitCount       *prometheus.GaugeVec

	ReservationAttempts  *prometheus.CounterVec
	ReservationRetries   *prometheus.CounterVec
	ReservationsComplete *prometheus.CounterVec
}

// Исходы попытки бронирования для ReservationAttempts
const (
	OutcomeConfirmed     = "confirmed"
	OutcomeQuoteRequired = "quote_required"
	OutcomeAlreadyBooked = "already_booked"
	OutcomeDenied        = "denied"
	OutcomeInvalid       = "invalid_window"
	OutcomeContended     = "contended"
	OutcomeError         = "error"
)

// New создает метрики и регистрирует их в prometheus.DefaultRegisterer
func New(serviceName string) *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer, serviceName)
}

// NewWithRegistry создает метрики и регистрирует их в переданном реестре
func NewWithRegistry(reg prometheus.Registerer, serviceName string) *Metrics {
	constLabels := prometheus.Labels{"service": serviceName}

	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests",
			ConstLabels: constLabels,
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request duration in seconds",
			ConstLabels: constLabels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "route"}),

		DBQueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "db_query_duration_seconds",
			Help:        "Database query duration in seconds",
			ConstLabels: constLabels,
			Buckets:     []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"operation"}),
		DBQueryErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "db_query_errors_total",
			Help:        "Total number of failed database operations",
			ConstLabels: constLabels,
		}, []string{"operation"}),
		DBOpenConnections: newPoolGauge("db_open_connections", "Number of established connections", constLabels),
		DBInUse:           newPoolGauge("db_in_use_connections", "Number of connections currently in use", constLabels),
		DBIdle:            newPoolGauge("db_idle_connections", "Number of idle connections", constLabels),
		DBWaitCount:       newPoolGauge("db_wait_count", "Total number of connections waited for", constLabels),

		ReservationAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "reservation_attempts_total",
			Help:        "Reservation attempts by outcome",
			ConstLabels: constLabels,
		}, []string{"outcome"}),
		ReservationRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "reservation_retries_total",
			Help:        "Transparent retries of contended reservation transactions",
			ConstLabels: constLabels,
		}, []string{"operation"}),
		ReservationsComplete: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "reservations_completed_total",
			Help:        "Reservations moved to completed",
			ConstLabels: constLabels,
		}, []string{"trigger"}),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.DBQueryDuration,
		m.DBQueryErrors,
		m.DBOpenConnections,
		m.DBInUse,
		m.DBIdle,
		m.DBWaitCount,
		m.ReservationAttempts,
		m.ReservationRetries,
		m.ReservationsComplete,
	)

	return m
}

// RecordReservationAttempt учитывает исход попытки бронирования
// Безопасен для nil-получателя (метрики выключены)
func (m *Metrics) RecordReservationAttempt(outcome string) {
	if m == nil {
		return
	}
	m.ReservationAttempts.WithLabelValues(outcome).Inc()
}

// RecordRetry учитывает повтор транзакции
func (m *Metrics) RecordRetry(operation string) {
	if m == nil {
		return
	}
	m.ReservationRetries.WithLabelValues(operation).Inc()
}

// RecordCompleted учитывает завершенные бронирования
func (m *Metrics) RecordCompleted(trigger string, count int) {
	if m == nil || count == 0 {
		return
	}
	m.ReservationsComplete.WithLabelValues(trigger).Add(float64(count))
}

func newPoolGauge(name, help string, constLabels prometheus.Labels) *prometheus.GaugeVec {
	return prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name:        name,
		Help:        help,
		ConstLabels: constLabels,
	}, []string{"db"})
}
