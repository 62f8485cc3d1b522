package hal

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	transportKind = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "nixie",
		Subsystem: "hal",
		Name:      "transport",
		Help:      "Transport used to reach the tube controller",
	}, []string{"type"})
	transferErrorCount = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "nixie",
		Subsystem: "hal",
		Name:      "transfer_errors_total",
		Help:      "Number of failed byte exchanges with the tube controller",
	})
	resetCount = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "nixie",
		Subsystem: "hal",
		Name:      "controller_resets_total",
		Help:      "Number of pulses on the controller reset line",
	})
)
