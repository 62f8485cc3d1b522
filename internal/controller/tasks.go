package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/uptime-industries/nixie-clock/pkg/config"
	"github.com/uptime-industries/nixie-clock/pkg/effects"
	"github.com/uptime-industries/nixie-clock/pkg/log"
	"github.com/uptime-industries/nixie-clock/pkg/proto"
	"github.com/uptime-industries/nixie-clock/pkg/scheduler"
	"go.uber.org/zap"
)

const (
	TaskWatchdog      = "watchdog"
	TaskDisplay       = "display"
	TaskConfiguration = "configuration"
	TaskMetrics       = "metrics"
)

// WatchdogTask pings the controller watchdog.
func WatchdogTask(ctx context.Context, c *ClockContext) error {
	c.Watchdog.Check(ctx)
	return nil
}

// DisplayTask renders the time. It applies a pending configuration, blanks the tubes during
// the off period, plays the date and slot machine effects on their minute boundaries and
// finally sends the digits at a brightness matching the ambient light.
// Bus errors reset the controller and end the tick; they are never returned.
func DisplayTask(ctx context.Context, c *ClockContext) error {
	if c.swapConfig() {
		log.FromContext(ctx).Info("Applied clock configuration",
			zap.Bool("twelve_hour", c.Config.TwelveHour),
			zap.Uint32("slot_machine_interval", c.Config.SlotMachineInterval),
			zap.Bool("show_date", c.Config.ShowDate),
			zap.Stringer("off_period", c.Config.OffPeriod),
		)
	}

	now := c.Now()
	if c.Config.OffPeriod.Contains(config.Of(now)) {
		setState(stateOff)
		if err := c.Codec.SendDisplay(proto.AllBlank, proto.LevelUnchanged); err != nil {
			c.Watchdog.Recover(ctx, err)
		}
		return nil
	}

	c.Digits = ComputeDigits(now, c.Config.TwelveHour)

	if c.DateGate.Observe(c.Config.ShowDate && now.Minute() == 0) {
		// the date replaces this boundary's slot machine
		c.SlotGate.Latch()
		setState(stateDate)
		if !c.play(ctx, effects.DateReveal(now, c.Digits)) {
			return nil
		}
	}

	interval := int(c.Config.SlotMachineInterval)
	if c.SlotGate.Observe(interval > 0 && now.Minute()%interval == 0) {
		setState(stateSlotMachine)
		if !c.play(ctx, effects.SlotMachine(c.Digits)) {
			return nil
		}
	}

	setState(stateTime)
	sensor, err := c.Codec.ReadLightSensor()
	if err != nil {
		c.Watchdog.Recover(ctx, err)
		return nil
	}
	level := c.Filter.Update(sensor)
	lightSensor.Set(float64(sensor))
	brightnessLevel.Set(float64(level))

	if err := c.Codec.SendDisplay(c.Digits, level); err != nil {
		c.Watchdog.Recover(ctx, err)
	}
	return nil
}

func (c *ClockContext) play(ctx context.Context, effect effects.Effect) bool {
	if err := c.Player.Play(ctx, effect); err != nil {
		c.Watchdog.Recover(ctx, err)
		return false
	}
	return true
}

// ConfigurationTask re-reads the clock configuration file after it changed and queues the
// result for the display task. Malformed fields keep their previous value.
func ConfigurationTask(ctx context.Context, c *ClockContext) error {
	if c.Source == nil || !c.Source.HasChanged() {
		return nil
	}

	next, err := c.Source.Load(c.latestConfig())
	if err != nil {
		defects := fieldErrors(err)
		if len(defects) == 0 {
			configReloads.WithLabelValues("failed").Inc()
			log.FromContext(ctx).Warn("Failed to read clock configuration, keeping the current one",
				zap.String("path", c.Source.Path()),
				zap.Error(err),
			)
			return nil
		}
		configReloads.WithLabelValues("partial").Inc()
		for _, defect := range defects {
			log.FromContext(ctx).Warn("Ignoring malformed configuration value",
				zap.String("path", c.Source.Path()),
				zap.String("key", defect.Key),
				zap.Any("value", defect.Value),
				zap.Error(defect.Err),
			)
		}
	} else {
		configReloads.WithLabelValues("ok").Inc()
	}

	log.FromContext(ctx).Debug("Clock configuration changed", zap.String("path", c.Source.Path()))
	c.Propose(next)
	return nil
}

func fieldErrors(err error) []*config.FieldError {
	errs := []error{err}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	}

	var defects []*config.FieldError
	for _, e := range errs {
		var defect *config.FieldError
		if errors.As(e, &defect) {
			defects = append(defects, defect)
		}
	}
	return defects
}

// MetricsTask writes the default registry to a node-exporter textfile.
func MetricsTask(path string) scheduler.Action[*ClockContext] {
	return func(_ context.Context, _ *ClockContext) error {
		if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
			return fmt.Errorf("write metrics textfile: %w", err)
		}
		return nil
	}
}
