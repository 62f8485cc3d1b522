package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	taskRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nixie",
		Subsystem: "scheduler",
		Name:      "task_runs_total",
		Help:      "Number of task invocations",
	}, []string{"task"})

	taskErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nixie",
		Subsystem: "scheduler",
		Name:      "task_errors_total",
		Help:      "Number of task invocations that returned an error",
	}, []string{"task"})

	taskPanics = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nixie",
		Subsystem: "scheduler",
		Name:      "task_panics_total",
		Help:      "Number of task invocations that panicked",
	}, []string{"task"})

	taskDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "nixie",
		Subsystem: "scheduler",
		Name:      "task_duration_seconds",
		Help:      "Time spent in task actions. Effects make the display task run for seconds.",
		Buckets:   []float64{.001, .01, .05, .1, .5, 1, 2.5, 5, 10, 15},
	}, []string{"task"})
)
