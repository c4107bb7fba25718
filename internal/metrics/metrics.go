// Package metrics содержит prometheus-счётчики сервиса выдачи.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// IssuedTotal число успешно выданных артефактов по виду и семейству адресов.
var IssuedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "confighub_issued_total",
	Help: "Total number of issued configuration artifacts.",
}, []string{"kind", "family"})

// RejectedTotal число отклонённых запросов на выдачу по причине отказа.
var RejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "confighub_rejected_total",
	Help: "Total number of rejected issuance requests.",
}, []string{"reason"})
