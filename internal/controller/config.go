package controller

import (
	"errors"
	"fmt"
	"time"

	"github.com/uptime-industries/nixie-clock/pkg/hal"
)

var ErrInvalidSchedule = errors.New("invalid schedule")

// Schedule holds the task cadences of the control loop.
type Schedule struct {
	// Poll is the control loop period, at most half the shortest task interval
	Poll time.Duration `mapstructure:"poll"`
	// Watchdog must stay below the controller watchdog expiry (5s)
	Watchdog time.Duration `mapstructure:"watchdog"`
	// Display renders the time
	Display time.Duration `mapstructure:"display"`
	// Configuration re-checks the clock configuration file
	Configuration time.Duration `mapstructure:"configuration"`
	// Metrics writes the metrics textfile, if one is configured
	Metrics time.Duration `mapstructure:"metrics"`
}

// Config is the startup configuration of the clock daemon. The user facing clock settings
// live in ClockConfigFile and are reloaded while running.
type Config struct {
	Hardware hal.Opts `mapstructure:"hardware"`
	Schedule Schedule `mapstructure:"schedule"`

	// ClockConfigFile is the live configuration file. Empty keeps the defaults forever.
	ClockConfigFile string `mapstructure:"clock_config_file"`
	// Timezone the time is shown in, "Local" uses the system zone
	Timezone string `mapstructure:"timezone"`
	// BrightnessWindow is the number of light readings averaged, 1 disables smoothing
	BrightnessWindow int `mapstructure:"brightness_window"`
	// MetricsTextfile is written in the node-exporter textfile format when set
	MetricsTextfile string `mapstructure:"metrics_textfile"`
}

func DefaultConfig() Config {
	return Config{
		Hardware: hal.DefaultOpts(),
		Schedule: Schedule{
			Poll:          250 * time.Millisecond,
			Watchdog:      4 * time.Second,
			Display:       time.Second,
			Configuration: 600 * time.Second,
			Metrics:       time.Minute,
		},
		ClockConfigFile:  "/etc/nixie-clock/clock.yaml",
		Timezone:         "Local",
		BrightnessWindow: 1,
	}
}

// Validate checks the schedule. Task intervals must be positive and the watchdog has to be
// pinged before the controller gives up on us.
func (s Schedule) Validate() error {
	for name, d := range map[string]time.Duration{
		"poll":          s.Poll,
		"watchdog":      s.Watchdog,
		"display":       s.Display,
		"configuration": s.Configuration,
		"metrics":       s.Metrics,
	} {
		if d <= 0 {
			return fmt.Errorf("%w: %s interval must be positive, got %s", ErrInvalidSchedule, name, d)
		}
	}
	if s.Watchdog >= hal.WatchdogExpiry {
		return fmt.Errorf("%w: watchdog interval %s exceeds the controller expiry of %s",
			ErrInvalidSchedule, s.Watchdog, hal.WatchdogExpiry)
	}
	return nil
}

func loadLocation(name string) (*time.Location, error) {
	switch name {
	case "", "Local":
		return time.Local, nil
	default:
		return time.LoadLocation(name)
	}
}
