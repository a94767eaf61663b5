// SPDX-License-Identifier: MIT

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	planeTokensInUse = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arbiter_plane_tokens_in_use",
		Help: "Hardware overlay planes currently reserved by admitted surfaces.",
	})

	activeSessionsByTier = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "arbiter_admission_sessions_active",
		Help: "Surfaces currently tracked by the admission monitor, labeled by preemption tier.",
	}, []string{"tier"})

	admissionRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arbiter_admission_rejected_total",
		Help: "Screen surface creations refused by the admission monitor, labeled by reason.",
	}, []string{"reason"})
)

// IncAdmissionRejected records one surface creation refused by the
// admission monitor for reason (one of admission.AdmissionReason's values).
func IncAdmissionRejected(reason string) {
	admissionRejectedTotal.WithLabelValues(reason).Inc()
}

// SetPlaneTokensInUse records how many hardware overlay planes are reserved.
func SetPlaneTokensInUse(n float64) {
	planeTokensInUse.Set(n)
}

// SetActiveSessions records the tracked surface count for one preemption tier.
func SetActiveSessions(tier string, n float64) {
	activeSessionsByTier.WithLabelValues(tier).Set(n)
}
