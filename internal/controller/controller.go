package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/uptime-industries/nixie-clock/pkg/config"
	"github.com/uptime-industries/nixie-clock/pkg/hal"
	"github.com/uptime-industries/nixie-clock/pkg/log"
	"github.com/uptime-industries/nixie-clock/pkg/proto"
	"github.com/uptime-industries/nixie-clock/pkg/scheduler"
	"github.com/uptime-industries/nixie-clock/pkg/util"
	"go.uber.org/zap"
)

type options struct {
	peripheral *hal.Peripheral
	clock      util.Clock
}

type Option func(*options)

// WithPeripheral uses an already opened peripheral instead of opening Config.Hardware.
// The controller takes ownership and closes it when Run returns.
func WithPeripheral(p *hal.Peripheral) Option {
	return func(o *options) {
		o.peripheral = p
	}
}

// WithClock replaces the wall clock, for tests.
func WithClock(clock util.Clock) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// Controller drives the tubes. All bus access happens on the goroutine calling Run.
type Controller struct {
	opts       Config
	peripheral *hal.Peripheral
	state      *ClockContext
	dispatcher *scheduler.Dispatcher[*ClockContext]
}

// New opens the hardware and registers the clock tasks. An error here is an initialization
// failure; anything opened before it is closed again.
func New(ctx context.Context, opts Config, extra ...Option) (*Controller, error) {
	o := options{clock: util.RealClock{}}
	for _, opt := range extra {
		opt(&o)
	}

	if err := opts.Schedule.Validate(); err != nil {
		return nil, err
	}
	location, err := loadLocation(opts.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone: %w", err)
	}

	var source *config.Source
	if opts.ClockConfigFile != "" {
		source = config.NewSource(opts.ClockConfigFile)
	}

	peripheral := o.peripheral
	if peripheral == nil {
		peripheral, err = hal.Open(ctx, opts.Hardware)
		if err != nil {
			return nil, fmt.Errorf("open tube controller: %w", err)
		}
	}

	state, err := NewClockContext(ClockContextOpts{
		Bus:              peripheral,
		Clock:            o.clock,
		Location:         location,
		Source:           source,
		Config:           config.DefaultClockConfig(),
		BrightnessWindow: opts.BrightnessWindow,
	})
	if err != nil {
		return nil, errors.Join(err, peripheral.Close())
	}

	dispatcher := scheduler.New(state, scheduler.WithClock(o.clock))
	// configuration runs before display so the first tick already uses the file
	regErr := errors.Join(
		dispatcher.Register(TaskWatchdog, WatchdogTask, opts.Schedule.Watchdog),
		dispatcher.Register(TaskConfiguration, ConfigurationTask, opts.Schedule.Configuration),
		dispatcher.Register(TaskDisplay, DisplayTask, opts.Schedule.Display),
	)
	if opts.MetricsTextfile != "" {
		regErr = errors.Join(regErr,
			dispatcher.Register(TaskMetrics, MetricsTask(opts.MetricsTextfile), opts.Schedule.Metrics))
	}
	if regErr != nil {
		return nil, errors.Join(regErr, peripheral.Close())
	}

	return &Controller{
		opts:       opts,
		peripheral: peripheral,
		state:      state,
		dispatcher: dispatcher,
	}, nil
}

// State returns the context shared by the clock tasks. It must not be used while Run is active.
func (c *Controller) State() *ClockContext {
	return c.state
}

// Tasks lists the registered tasks.
func (c *Controller) Tasks() []scheduler.TaskInfo {
	return c.dispatcher.Tasks()
}

// Run resets the tube controller and polls the clock tasks until the context is canceled.
// The tubes are turned off and the hardware is closed before Run returns.
func (c *Controller) Run(ctx context.Context) error {
	defer c.cleanup(ctx)

	log.FromContext(ctx).Info("Starting nixie clock")
	if err := c.peripheral.Reset(); err != nil {
		return fmt.Errorf("reset tube controller: %w", err)
	}

	if version, err := c.state.Codec.ReadVersion(); err != nil {
		log.FromContext(ctx).Warn("Failed to read firmware version", zap.Error(err))
	} else {
		log.FromContext(ctx).Info("Tube controller ready", zap.String("firmware", proto.FormatVersion(version)))
	}

	for _, task := range c.dispatcher.Tasks() {
		log.FromContext(ctx).Debug("Registered task", zap.Stringer("task", task))
	}

	return c.dispatcher.Run(ctx, c.opts.Schedule.Poll)
}

// cleanup turns the tubes off before exiting. Ignores canceled context!
func (c *Controller) cleanup(ctx context.Context) {
	log.FromContext(ctx).Info("Exiting, turning tubes off")
	setState(stateOff)
	// brightness 0 turns the high voltage off
	if err := c.state.Codec.SendDisplay(proto.AllBlank, 0); err != nil {
		log.FromContext(ctx).Error("Failed to turn tubes off", zap.Error(err))
	}
	if err := c.peripheral.Close(); err != nil {
		log.FromContext(ctx).Error("Failed to close tube controller", zap.Error(err))
	}
}
