// Package metrics holds the prometheus collectors of the application. They are
// registered once on the default registry and served by Handler.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registrations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cvback_registrations_total",
		Help: "Registration attempts by outcome",
	}, []string{"outcome"})

	confirmations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cvback_registration_confirmations_total",
		Help: "Verification code confirmations by outcome",
	}, []string{"outcome"})

	reclaimed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cvback_registrations_reclaimed_total",
		Help: "Expired pending registrations removed by the cleanup worker",
	})

	outboundCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cvback_outbound_calls_total",
		Help: "Calls made to external services by operation and outcome",
	}, []string{"operation", "outcome"})

	outboundDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cvback_outbound_call_duration_seconds",
		Help:    "Duration of calls made to external services",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	}, []string{"operation"})

	generations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cvback_cv_generations_total",
		Help: "CV generations by mode and outcome",
	}, []string{"mode", "outcome"})
)

func outcome(ok bool) string {
	if ok {
		return "success"
	}

	return "failure"
}

func Registration(ok bool) {
	registrations.WithLabelValues(outcome(ok)).Inc()
}

func Confirmation(ok bool) {
	confirmations.WithLabelValues(outcome(ok)).Inc()
}

func Reclaimed(n int) {
	reclaimed.Add(float64(n))
}

// OutboundCall records one external call that started at start
func OutboundCall(operation string, ok bool, start time.Time) {
	outboundCalls.WithLabelValues(operation, outcome(ok)).Inc()
	outboundDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// Generation records a CV generation, mode is either "plain" or "ia"
func Generation(mode string, ok bool) {
	generations.WithLabelValues(mode, outcome(ok)).Inc()
}

func Handler() http.Handler {
	return promhttp.Handler()
}
