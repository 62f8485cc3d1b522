package scheduler

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/uptime-industries/nixie-clock/pkg/log"
	"github.com/uptime-industries/nixie-clock/pkg/util"
	"go.uber.org/zap"
)

var (
	ErrInvalidInterval = errors.New("task interval must be positive")
	ErrEmptyName       = errors.New("task name must not be empty")
)

// Action is the work of a task. It receives the context shared by all tasks of a Dispatcher.
type Action[C any] func(ctx context.Context, shared C) error

type task[C any] struct {
	name     string
	interval time.Duration
	lastRun  time.Time
	runs     uint64
	action   Action[C]
}

// TaskInfo is a read-only view of a registered task.
type TaskInfo struct {
	Name     string
	Interval time.Duration
	LastRun  time.Time
	Runs     uint64
}

func (i TaskInfo) String() string {
	lastRun := "never"
	if !i.LastRun.IsZero() {
		lastRun = i.LastRun.Format(time.TimeOnly)
	}
	return fmt.Sprintf("%s every %s (runs=%d, last=%s)", i.Name, i.Interval, i.Runs, lastRun)
}

type options struct {
	clock util.Clock
}

type Option func(*options)

// WithClock sets the clock Run polls with.
func WithClock(clock util.Clock) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// Dispatcher runs periodic tasks cooperatively on the calling goroutine. Tasks never overlap,
// a long running action delays every task checked after it. A Dispatcher is not safe for
// concurrent use; actions may register or unregister tasks while being polled.
type Dispatcher[C any] struct {
	shared C
	tasks  []*task[C]
	clock  util.Clock
}

func New[C any](shared C, opts ...Option) *Dispatcher[C] {
	o := options{clock: util.RealClock{}}
	for _, opt := range opts {
		opt(&o)
	}
	return &Dispatcher[C]{shared: shared, clock: o.clock}
}

// Shared returns the context handed to every action.
func (d *Dispatcher[C]) Shared() C {
	return d.shared
}

// Register adds a task or replaces the task with the same name. A new task is due on the
// next Poll.
func (d *Dispatcher[C]) Register(name string, action Action[C], interval time.Duration) error {
	if name == "" {
		return ErrEmptyName
	}
	if interval <= 0 {
		return fmt.Errorf("%w: %s has %s", ErrInvalidInterval, name, interval)
	}

	t := &task[C]{name: name, interval: interval, action: action}
	if idx := d.index(name); idx >= 0 {
		d.tasks[idx] = t
		return nil
	}
	d.tasks = append(d.tasks, t)
	return nil
}

// Unregister removes a task; unknown names are ignored.
func (d *Dispatcher[C]) Unregister(name string) {
	if idx := d.index(name); idx >= 0 {
		d.tasks = slices.Delete(d.tasks, idx, idx+1)
	}
}

func (d *Dispatcher[C]) index(name string) int {
	return slices.IndexFunc(d.tasks, func(t *task[C]) bool { return t.name == name })
}

// Poll runs every task that is due at now, in registration order, at most once each.
// A late task runs once and restarts its interval at now. Errors and panics of actions are
// logged and counted, they are never returned.
func (d *Dispatcher[C]) Poll(ctx context.Context, now time.Time) {
	// actions may change the registry
	due := slices.Clone(d.tasks)
	for _, t := range due {
		if now.Sub(t.lastRun) < t.interval {
			continue
		}
		t.lastRun = now
		t.runs++
		d.run(ctx, t)
	}
}

func (d *Dispatcher[C]) run(ctx context.Context, t *task[C]) {
	taskRuns.WithLabelValues(t.name).Inc()
	timer := prometheus.NewTimer(taskDuration.WithLabelValues(t.name))
	defer timer.ObserveDuration()

	defer func() {
		if r := recover(); r != nil {
			taskPanics.WithLabelValues(t.name).Inc()
			log.FromContext(ctx).Error("Task panicked",
				zap.String("task", t.name),
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
		}
	}()

	if err := t.action(ctx, d.shared); err != nil {
		taskErrors.WithLabelValues(t.name).Inc()
		log.FromContext(ctx).Error("Task failed", zap.String("task", t.name), zap.Error(err))
	}
}

// Run polls every pollInterval until the context is canceled.
func (d *Dispatcher[C]) Run(ctx context.Context, pollInterval time.Duration) error {
	if pollInterval <= 0 {
		return fmt.Errorf("%w: poll interval %s", ErrInvalidInterval, pollInterval)
	}
	if shortest := d.shortestInterval(); shortest > 0 && pollInterval > shortest/2 {
		log.FromContext(ctx).Warn("Poll interval is too slow for the shortest task",
			zap.Duration("poll_interval", pollInterval),
			zap.Duration("shortest_interval", shortest),
		)
	}

	for {
		d.Poll(ctx, d.clock.Now())
		if err := ctx.Err(); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-d.clock.After(pollInterval):
		}
	}
}

func (d *Dispatcher[C]) shortestInterval() time.Duration {
	var shortest time.Duration
	for _, t := range d.tasks {
		if shortest == 0 || t.interval < shortest {
			shortest = t.interval
		}
	}
	return shortest
}

// Tasks returns the registered tasks sorted by name.
func (d *Dispatcher[C]) Tasks() []TaskInfo {
	infos := make([]TaskInfo, 0, len(d.tasks))
	for _, t := range d.tasks {
		infos = append(infos, TaskInfo{
			Name:     t.name,
			Interval: t.interval,
			LastRun:  t.lastRun,
			Runs:     t.runs,
		})
	}
	slices.SortFunc(infos, func(a, b TaskInfo) int {
		return strings.Compare(a.Name, b.Name)
	})
	return infos
}
