// SPDX-License-Identifier: MIT

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	circuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "arbiter_circuit_breaker_status",
		Help: "Circuit breaker numeric state (0=closed, 1=open, 2=half-open), labeled by breaker name.",
	}, []string{"name"})

	circuitBreakerTripsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arbiter_circuit_breaker_trips_total",
		Help: "Total times a circuit breaker tripped open, labeled by breaker name and reason.",
	}, []string{"name", "reason"})
)

// SetCircuitBreakerStatus records a breaker's numeric state (0/1/2) so
// dashboards can chart state transitions over time.
func SetCircuitBreakerStatus(name string, state int) {
	circuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// RecordCircuitBreakerTrip increments the trip counter for a breaker.
func RecordCircuitBreakerTrip(name, reason string) {
	circuitBreakerTripsTotal.WithLabelValues(name, reason).Inc()
}
