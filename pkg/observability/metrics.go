package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Payment flow metrics
	paymentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_payments_total",
		Help: "Total number of payment attempts",
	}, []string{
		"gateway", // fastpay, clickpass, paymeqr
		"status",  // success, failed
	})

	paymentAmountTiyin = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_payment_amount_tiyin_total",
		Help: "Total confirmed payment amount in tiyin (revenue tracking)",
	}, []string{"gateway"})

	reversalsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_reversals_total",
		Help: "Total number of reversal attempts",
	}, []string{"gateway", "status"})

	// Gateway call metrics
	gatewayCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pos_gateway_call_duration_seconds",
		Help:    "Duration of individual gateway HTTP calls",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"gateway", "operation"}) // operation: create, status, reversal, fiscal

	gatewayCallErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_gateway_call_errors_total",
		Help: "Gateway calls that failed before a response was received",
	}, []string{"gateway", "kind"}) // kind: timeout, network

	gatewayRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_gateway_retries_total",
		Help: "Retry attempts made against gateways",
	}, []string{"gateway"})

	// Config cache metrics (no labels on hits to avoid per-read allocations)
	configCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pos_config_cache_hits_total",
		Help: "Gateway config cache hits",
	})

	configCacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_config_cache_misses_total",
		Help: "Gateway config cache misses",
	}, []string{"reason"}) // expired, not_loaded, forced
)

// RecordPayment records the outcome of a create-payment flow.
func RecordPayment(gateway, status string, amountMinor int64) {
	paymentsTotal.WithLabelValues(gateway, status).Inc()
	if status == "success" {
		paymentAmountTiyin.WithLabelValues(gateway).Add(float64(amountMinor))
	}
}

// RecordReversal records the outcome of a reversal attempt.
func RecordReversal(gateway, status string) {
	reversalsTotal.WithLabelValues(gateway, status).Inc()
}

// RecordGatewayCall records the duration of one gateway HTTP call.
func RecordGatewayCall(gateway, operation string, elapsed time.Duration) {
	gatewayCallDuration.WithLabelValues(gateway, operation).Observe(elapsed.Seconds())
}

// RecordGatewayCallError records a transport-level gateway failure.
func RecordGatewayCallError(gateway, kind string) {
	gatewayCallErrors.WithLabelValues(gateway, kind).Inc()
}

// RecordGatewayRetry records one retry attempt.
func RecordGatewayRetry(gateway string) {
	gatewayRetriesTotal.WithLabelValues(gateway).Inc()
}

// RecordConfigCacheHit records a config cache hit.
func RecordConfigCacheHit() {
	configCacheHits.Inc()
}

// RecordConfigCacheMiss records a config cache miss.
func RecordConfigCacheMiss(reason string) {
	configCacheMisses.WithLabelValues(reason).Inc()
}
