package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type BillingMetrics struct {
	generationRuns      *prometheus.CounterVec
	generationPayments  *prometheus.CounterVec
	generationDuration  prometheus.Histogram
	settlementAttempts  *prometheus.CounterVec
	settlementConflicts prometheus.Counter
	stuckPaymentsFailed prometheus.Counter
}

var (
	billingMetricsOnce sync.Once
	billingMetrics     *BillingMetrics
)

func Billing() *BillingMetrics {
	return BillingWithConfig(Config{})
}

func BillingWithConfig(cfg Config) *BillingMetrics {
	billingMetricsOnce.Do(func() {
		billingMetrics = NewBillingMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return billingMetrics
}

func NewBillingMetrics(registerer prometheus.Registerer, cfg Config) *BillingMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "propertyhub"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}

	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	generationRuns := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "propertyhub_rent_generation_runs_total",
			Help:        "Rent generation invocations by result.",
			ConstLabels: constLabels,
		},
		[]string{"result"}, // success | failed
	)

	generationPayments := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "propertyhub_rent_generation_leases_total",
			Help:        "Leases processed by rent generation by outcome.",
			ConstLabels: constLabels,
		},
		[]string{"outcome"}, // created | existing | error
	)

	generationDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:        "propertyhub_rent_generation_duration_seconds",
			Help:        "Wall time of one rent generation run.",
			Buckets:     []float64{0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
			ConstLabels: constLabels,
		},
	)

	settlementAttempts := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "propertyhub_payment_settlements_total",
			Help:        "Settlement attempts by terminal status and failure reason.",
			ConstLabels: constLabels,
		},
		[]string{"status", "reason"},
	)

	settlementConflicts := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name:        "propertyhub_payment_settlement_conflicts_total",
			Help:        "Settlement attempts that lost the processing transition.",
			ConstLabels: constLabels,
		},
	)

	stuckPaymentsFailed := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name:        "propertyhub_payment_stuck_failed_total",
			Help:        "Payments failed by the processing timeout sweep.",
			ConstLabels: constLabels,
		},
	)

	registerer.MustRegister(
		generationRuns,
		generationPayments,
		generationDuration,
		settlementAttempts,
		settlementConflicts,
		stuckPaymentsFailed,
	)

	return &BillingMetrics{
		generationRuns:      generationRuns,
		generationPayments:  generationPayments,
		generationDuration:  generationDuration,
		settlementAttempts:  settlementAttempts,
		settlementConflicts: settlementConflicts,
		stuckPaymentsFailed: stuckPaymentsFailed,
	}
}

// ObserveGeneration records one finished run.
func (m *BillingMetrics) ObserveGeneration(created, existing, errored int, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.generationRuns.WithLabelValues("failed").Inc()
		return
	}
	m.generationRuns.WithLabelValues("success").Inc()
	m.generationPayments.WithLabelValues("created").Add(float64(created))
	m.generationPayments.WithLabelValues("existing").Add(float64(existing))
	m.generationPayments.WithLabelValues("error").Add(float64(errored))
	m.generationDuration.Observe(elapsed.Seconds())
}

func (m *BillingMetrics) IncSettlement(status, reason string) {
	if m == nil {
		return
	}
	m.settlementAttempts.WithLabelValues(status, reason).Inc()
}

func (m *BillingMetrics) IncSettlementConflict() {
	if m == nil {
		return
	}
	m.settlementConflicts.Inc()
}

func (m *BillingMetrics) AddStuckFailed(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.stuckPaymentsFailed.Add(float64(count))
}
