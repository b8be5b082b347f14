// Package metrics регистрирует Prometheus-метрики сервиса.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// EntitlementDecisions счётчик решений по операциям с устройствами,
// размеченный действием и вердиктом.
var EntitlementDecisions = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "entitlement_decisions_total",
		Help: "Total entitlement decisions by action and verdict.",
	},
	[]string{"action", "verdict"},
)

// PaymentsApplied счётчик применённых платежей по типу.
var PaymentsApplied = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "payments_applied_total",
		Help: "Total payments applied by type.",
	},
	[]string{"type"},
)
