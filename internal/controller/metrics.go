package controller

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	stateOff         = "off"
	stateTime        = "time"
	stateDate        = "date"
	stateSlotMachine = "slot_machine"
)

var (
	clockStates = []string{stateOff, stateTime, stateDate, stateSlotMachine}

	stateMetric = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "nixie",
		Subsystem: "clock",
		Name:      "state",
		Help:      "Clock display state (label values are off, time, date, slot_machine)",
	}, []string{"state"})

	brightnessLevel = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "nixie",
		Subsystem: "clock",
		Name:      "brightness_level",
		Help:      "Brightness level last sent to the tubes",
	})

	lightSensor = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "nixie",
		Subsystem: "clock",
		Name:      "light_sensor",
		Help:      "Last ambient light sensor reading (0-255)",
	})

	recoveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nixie",
		Subsystem: "clock",
		Name:      "recoveries_total",
		Help:      "Controller resets triggered by the clock (label values are watchdog_mismatch, transport_error)",
	}, []string{"reason"})

	watchdogPings = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nixie",
		Subsystem: "watchdog",
		Name:      "pings_total",
		Help:      "Watchdog pings by result (label values are ok, mismatch, error)",
	}, []string{"result"})

	watchdogResets = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "nixie",
		Subsystem: "watchdog",
		Name:      "resets_total",
		Help:      "Controller resets issued by the watchdog",
	})

	configReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nixie",
		Subsystem: "config",
		Name:      "reloads_total",
		Help:      "Configuration file reloads by result (label values are ok, partial, failed)",
	}, []string{"result"})
)

func setState(state string) {
	for _, s := range clockStates {
		if s == state {
			stateMetric.WithLabelValues(s).Set(1)
		} else {
			stateMetric.WithLabelValues(s).Set(0)
		}
	}
}
