package controller

import (
	"errors"
	"time"

	"github.com/uptime-industries/nixie-clock/pkg/brightness"
	"github.com/uptime-industries/nixie-clock/pkg/config"
	"github.com/uptime-industries/nixie-clock/pkg/effects"
	"github.com/uptime-industries/nixie-clock/pkg/proto"
	"github.com/uptime-industries/nixie-clock/pkg/util"
)

var ErrNoBus = errors.New("no bus configured")

// Bus is the tube controller as seen by the clock: a byte transport plus the reset line.
type Bus interface {
	proto.Transferer
	Resetter
}

// ClockContextOpts are the options for NewClockContext
type ClockContextOpts struct {
	Bus Bus
	// Clock defaults to the real clock
	Clock util.Clock
	// Location defaults to time.Local
	Location *time.Location
	// Source is the live configuration file, nil keeps Config forever
	Source *config.Source
	// Config is the initial clock configuration
	Config config.ClockConfig
	// BrightnessWindow defaults to 1 (no smoothing)
	BrightnessWindow int
}

// ClockContext is the state shared by all tasks of the control loop. Only the goroutine
// polling the dispatcher touches it.
type ClockContext struct {
	Codec    *proto.Codec
	Watchdog *Watchdog
	Player   *effects.Player
	Clock    util.Clock
	Location *time.Location
	Source   *config.Source
	Filter   *brightness.Filter

	// Config is the snapshot the display task works with
	Config config.ClockConfig
	// Digits is the last time shown
	Digits proto.Digits

	DateGate Gate
	SlotGate Gate

	// pending is handed over from the configuration task to the display task
	pending *config.ClockConfig
}

func NewClockContext(opts ClockContextOpts) (*ClockContext, error) {
	if opts.Bus == nil {
		return nil, ErrNoBus
	}
	clock := opts.Clock
	if clock == nil {
		clock = util.RealClock{}
	}
	location := opts.Location
	if location == nil {
		location = time.Local
	}
	window := opts.BrightnessWindow
	if window == 0 {
		window = 1
	}
	filter, err := brightness.NewFilter(window)
	if err != nil {
		return nil, err
	}

	codec := proto.NewCodec(opts.Bus)
	watchdog := NewWatchdog(codec, opts.Bus)

	return &ClockContext{
		Codec:    codec,
		Watchdog: watchdog,
		Player: effects.NewPlayer(effects.PlayerOpts{
			Display: codec,
			Kicker:  watchdog,
			Clock:   clock,
		}),
		Clock:    clock,
		Location: location,
		Source:   opts.Source,
		Filter:   filter,
		Config:   opts.Config,
		Digits:   proto.AllBlank,
	}, nil
}

// Propose queues a configuration for the next display tick. A newer proposal replaces an
// older one that was not picked up yet.
func (c *ClockContext) Propose(cfg config.ClockConfig) {
	c.pending = &cfg
}

// Pending returns the queued configuration, if any.
func (c *ClockContext) Pending() (config.ClockConfig, bool) {
	if c.pending == nil {
		return config.ClockConfig{}, false
	}
	return *c.pending, true
}

// latestConfig is the newest known configuration, pending or active.
func (c *ClockContext) latestConfig() config.ClockConfig {
	if c.pending != nil {
		return *c.pending
	}
	return c.Config
}

// swapConfig activates a pending configuration and reports whether there was one.
func (c *ClockContext) swapConfig() bool {
	if c.pending == nil {
		return false
	}
	c.Config = *c.pending
	c.pending = nil
	return true
}

// Now returns the wall clock time in the display location.
func (c *ClockContext) Now() time.Time {
	return c.Clock.Now().In(c.Location)
}
