package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// HTTP
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hotspotpay_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "hotspotpay_http_request_duration_seconds",
			Help: "Duration of HTTP requests in seconds",
		},
		[]string{"method", "path"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "hotspotpay_http_requests_in_flight",
			Help: "Current number of HTTP requests in flight",
		},
	)

	// Daraja gateway
	GatewayRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hotspotpay_gateway_requests_total",
			Help: "Total number of Daraja API requests",
		},
		[]string{"endpoint", "status"},
	)
	GatewayRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "hotspotpay_gateway_request_duration_seconds",
			Help: "Duration of Daraja API requests in seconds",
		},
		[]string{"endpoint"},
	)

	// Payments
	STKPushesInitiated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hotspotpay_stk_pushes_total",
			Help: "STK push initiations by outcome",
		},
		[]string{"outcome"},
	)
	CallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hotspotpay_callbacks_total",
			Help: "Payment callbacks by resulting status",
		},
		[]string{"status"},
	)
	LateCallbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hotspotpay_late_callbacks_total",
			Help: "Callbacks that arrived after the transaction was already terminal",
		},
	)
	CallbackFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hotspotpay_callback_failures_total",
			Help: "Callbacks that could not be applied",
		},
		[]string{"reason"},
	)
	ValidityFallbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hotspotpay_validity_fallback_total",
			Help: "Plans whose validity could not be parsed and fell back to one hour",
		},
	)
	SubscriptionsGranted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hotspotpay_subscriptions_granted_total",
			Help: "Subscription grants by kind",
		},
		[]string{"kind"},
	)

	// Reaper
	ReaperTimedOutTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hotspotpay_reaper_timed_out_total",
			Help: "Pending transactions moved to TimedOut by the reaper",
		},
	)
	ReaperRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hotspotpay_reaper_runs_total",
			Help: "Reaper runs by result",
		},
		[]string{"result"},
	)
)

var initOnce sync.Once

func InitMetrics() {
	initOnce.Do(func() {
		prometheus.MustRegister(HTTPRequestsTotal)
		prometheus.MustRegister(HTTPRequestDuration)
		prometheus.MustRegister(HTTPRequestsInFlight)

		prometheus.MustRegister(GatewayRequestsTotal)
		prometheus.MustRegister(GatewayRequestDuration)

		prometheus.MustRegister(STKPushesInitiated)
		prometheus.MustRegister(CallbacksTotal)
		prometheus.MustRegister(LateCallbacksTotal)
		prometheus.MustRegister(CallbackFailuresTotal)
		prometheus.MustRegister(ValidityFallbacksTotal)
		prometheus.MustRegister(SubscriptionsGranted)

		prometheus.MustRegister(ReaperTimedOutTotal)
		prometheus.MustRegister(ReaperRunsTotal)
	})
}
