// SPDX-License-Identifier: MIT

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var busPublishTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "arbiter_bus_publish_total",
	Help: "Total bus publish attempts, labeled by outcome (ok, dropped).",
}, []string{"outcome"})

// IncBusPublish records one bus publish attempt outcome ("ok" or "dropped").
func IncBusPublish(outcome string) {
	busPublishTotal.WithLabelValues(outcome).Inc()
}
